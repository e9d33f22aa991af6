package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"

	"github.com/Vodeneev/oddsedge/internal/pkg/config"
	"github.com/Vodeneev/oddsedge/internal/pkg/models"
)

// Ensure PostgresAlertJournal implements AlertJournal
var _ AlertJournal = (*PostgresAlertJournal)(nil)

// PostgresAlertJournal stores delivered alert fingerprints in PostgreSQL
type PostgresAlertJournal struct {
	db *sql.DB
}

// NewPostgresAlertJournal opens the connection and creates the table if needed
func NewPostgresAlertJournal(cfg config.PostgresConfig) (*PostgresAlertJournal, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("postgres DSN is required")
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	journal := &PostgresAlertJournal{db: db}
	if err := journal.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	slog.Info("PostgreSQL alert journal initialized")
	return journal, nil
}

func (j *PostgresAlertJournal) initSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS alert_fingerprints (
		fingerprint CHAR(64) PRIMARY KEY,
		event_id UUID NOT NULL,
		event_type VARCHAR(16) NOT NULL,
		match_id VARCHAR(200) NOT NULL,
		match_name VARCHAR(500) NOT NULL,
		league VARCHAR(200) NOT NULL DEFAULT '',
		odds JSONB NOT NULL,
		detected_at TIMESTAMPTZ NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_alert_fingerprints_created_at ON alert_fingerprints(created_at DESC);
	`

	_, err := j.db.ExecContext(ctx, query)
	return err
}

// Record implements AlertJournal. Recording the same fingerprint twice is a no-op.
func (j *PostgresAlertJournal) Record(ctx context.Context, fingerprint string, ev models.Event) error {
	odds, err := json.Marshal(ev.Odds)
	if err != nil {
		return fmt.Errorf("failed to marshal odds: %w", err)
	}

	query := `
	INSERT INTO alert_fingerprints (fingerprint, event_id, event_type, match_id, match_name, league, odds, detected_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (fingerprint) DO NOTHING
	`
	_, err = j.db.ExecContext(ctx, query,
		fingerprint, ev.ID, string(ev.Type), ev.MatchID, ev.Match, ev.League, string(odds), ev.DetectedAt)
	if err != nil {
		return fmt.Errorf("failed to record fingerprint: %w", err)
	}
	return nil
}

// Recent implements AlertJournal.
func (j *PostgresAlertJournal) Recent(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		return nil, nil
	}
	query := `
	SELECT fingerprint FROM (
		SELECT fingerprint, created_at FROM alert_fingerprints
		ORDER BY created_at DESC
		LIMIT $1
	) recent
	ORDER BY created_at ASC
	`
	rows, err := j.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query fingerprints: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var fp string
		if err := rows.Scan(&fp); err != nil {
			return nil, fmt.Errorf("failed to scan fingerprint: %w", err)
		}
		out = append(out, fp)
	}
	return out, rows.Err()
}

// Close closes the database connection
func (j *PostgresAlertJournal) Close() error {
	return j.db.Close()
}

package storage

import (
	"context"

	"github.com/Vodeneev/oddsedge/internal/pkg/models"
)

// AlertJournal remembers fingerprints of delivered live alerts so a
// restarted monitor does not repeat them.
type AlertJournal interface {
	// Record stores a delivered fingerprint with the event that produced it
	Record(ctx context.Context, fingerprint string, ev models.Event) error

	// Recent returns up to limit most recent fingerprints, oldest first
	Recent(ctx context.Context, limit int) ([]string, error)

	// Close releases the connection
	Close() error
}

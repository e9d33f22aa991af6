package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Vodeneev/oddsedge/internal/pkg/models"
)

const defaultJournalKey = "oddsedge:alert_fingerprints"

// sortedSet is the subset of *redis.Client the journal uses.
type sortedSet interface {
	ZAdd(ctx context.Context, key string, members ...redis.Z) *redis.IntCmd
	ZRange(ctx context.Context, key string, start, stop int64) *redis.StringSliceCmd
	ZRemRangeByRank(ctx context.Context, key string, start, stop int64) *redis.IntCmd
}

// Ensure RedisAlertJournal implements AlertJournal
var _ AlertJournal = (*RedisAlertJournal)(nil)

// RedisAlertJournal keeps fingerprints in a sorted set scored by detection
// time, trimmed to the newest keep entries.
type RedisAlertJournal struct {
	client sortedSet
	key    string
	keep   int64
}

// NewRedisAlertJournal wraps an existing client; the caller keeps
// ownership of it.
func NewRedisAlertJournal(client *redis.Client, keep int64) *RedisAlertJournal {
	return newRedisAlertJournal(client, keep)
}

func newRedisAlertJournal(client sortedSet, keep int64) *RedisAlertJournal {
	if keep <= 0 {
		keep = 100
	}
	return &RedisAlertJournal{client: client, key: defaultJournalKey, keep: keep}
}

// Record implements AlertJournal.
func (j *RedisAlertJournal) Record(ctx context.Context, fingerprint string, ev models.Event) error {
	at := ev.DetectedAt
	if at.IsZero() {
		at = time.Now()
	}
	if err := j.client.ZAdd(ctx, j.key, redis.Z{Score: float64(at.UnixMilli()), Member: fingerprint}).Err(); err != nil {
		return fmt.Errorf("failed to record fingerprint: %w", err)
	}
	// keep only the newest entries: drop ranks 0 .. -(keep+1)
	if err := j.client.ZRemRangeByRank(ctx, j.key, 0, -(j.keep + 1)).Err(); err != nil {
		return fmt.Errorf("failed to trim journal: %w", err)
	}
	return nil
}

// Recent implements AlertJournal.
func (j *RedisAlertJournal) Recent(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		return nil, nil
	}
	// ascending by score, last `limit` members
	fps, err := j.client.ZRange(ctx, j.key, -int64(limit), -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read journal: %w", err)
	}
	return fps, nil
}

// Close is a no-op; the client belongs to the caller.
func (j *RedisAlertJournal) Close() error {
	return nil
}

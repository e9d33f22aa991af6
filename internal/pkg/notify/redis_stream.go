package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/Vodeneev/oddsedge/internal/pkg/models"
)

// streamAdder is the subset of *redis.Client the sink needs.
type streamAdder interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

// RedisStreamSink publishes events to <prefix>.<type> (opening / live)
// and to the global <prefix> stream for consumers that want everything.
type RedisStreamSink struct {
	client streamAdder
	prefix string
	maxLen int64
}

// NewRedisStreamSink creates a sink on top of an existing client.
func NewRedisStreamSink(client streamAdder, prefix string, maxLen int64) *RedisStreamSink {
	if prefix == "" {
		prefix = "opportunities"
	}
	return &RedisStreamSink{client: client, prefix: prefix, maxLen: maxLen}
}

// NewRedisClient parses a redis:// URL into a client.
func NewRedisClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return redis.NewClient(opts), nil
}

// StreamFor returns the per-type stream key.
func (s *RedisStreamSink) StreamFor(t models.EventType) string {
	return s.prefix + "." + strings.ToLower(string(t))
}

func (s *RedisStreamSink) Notify(ctx context.Context, ev models.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	values := map[string]interface{}{
		"event":    string(data),
		"event_id": ev.ID,
		"match_id": ev.MatchID,
		"type":     string(ev.Type),
	}

	for _, stream := range []string{s.StreamFor(ev.Type), s.prefix} {
		args := &redis.XAddArgs{Stream: stream, Values: values}
		if s.maxLen > 0 {
			args.MaxLen = s.maxLen
			args.Approx = true
		}
		if _, err := s.client.XAdd(ctx, args).Result(); err != nil {
			return fmt.Errorf("failed to publish to stream %s: %w", stream, err)
		}
	}
	return nil
}

// Package notify delivers opportunity events to Telegram, Redis streams or the log.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Vodeneev/oddsedge/internal/pkg/models"
)

// Sink accepts one event. A nil error means the event was accepted for
// delivery; the monitor only remembers fingerprints of accepted events.
type Sink interface {
	Notify(ctx context.Context, ev models.Event) error
}

// Fanout delivers every event to all sinks. It succeeds when at least one
// sink accepted the event and returns the joined errors otherwise.
type Fanout []Sink

func (f Fanout) Notify(ctx context.Context, ev models.Event) error {
	if len(f) == 0 {
		return errors.New("no notification sinks configured")
	}
	var errs []error
	accepted := 0
	for i, s := range f {
		if err := s.Notify(ctx, ev); err != nil {
			errs = append(errs, fmt.Errorf("sink %d: %w", i, err))
			continue
		}
		accepted++
	}
	if accepted > 0 {
		if len(errs) > 0 {
			slog.Warn("Notification partially delivered", "event_id", ev.ID, "accepted", accepted, "error", errors.Join(errs...))
		}
		return nil
	}
	return errors.Join(errs...)
}

// LogSink writes events to the structured log. It is the simulation mode
// used when no external sink is configured.
type LogSink struct{}

func (LogSink) Notify(ctx context.Context, ev models.Event) error {
	slog.Info("Opportunity (simulation)",
		"event_id", ev.ID,
		"type", ev.Type,
		"match", ev.Match,
		"league", ev.League,
		"odds", FormatPlain(ev))
	return nil
}

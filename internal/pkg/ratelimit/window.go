// Package ratelimit holds the rolling-window limiter shared by feed requests.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Window allows at most budget acquisitions in any rolling window.
// Callers wait for capacity instead of exceeding the budget.
type Window struct {
	mu     sync.Mutex
	budget int
	window time.Duration
	stamps []time.Time // oldest first
	now    func() time.Time
}

// NewWindow creates a limiter. budget <= 0 or window <= 0 disables limiting.
func NewWindow(budget int, window time.Duration) *Window {
	return &Window{
		budget: budget,
		window: window,
		now:    time.Now,
	}
}

// Wait blocks until a slot is free or ctx is done.
func (w *Window) Wait(ctx context.Context) error {
	if w == nil || w.budget <= 0 || w.window <= 0 {
		return ctx.Err()
	}
	for {
		delay, ok := w.reserve()
		if ok {
			return nil
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// reserve records a request if the window has room, otherwise returns
// how long until the oldest stamp leaves the window.
func (w *Window) reserve() (time.Duration, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	w.prune(now)
	if len(w.stamps) < w.budget {
		w.stamps = append(w.stamps, now)
		return 0, true
	}
	delay := w.stamps[0].Add(w.window).Sub(now)
	if delay <= 0 {
		delay = time.Millisecond
	}
	return delay, false
}

func (w *Window) prune(now time.Time) {
	cutoff := now.Add(-w.window)
	i := 0
	for i < len(w.stamps) && !w.stamps[i].After(cutoff) {
		i++
	}
	if i > 0 {
		w.stamps = append(w.stamps[:0], w.stamps[i:]...)
	}
}

// InFlight returns how many requests are counted in the current window.
func (w *Window) InFlight() int {
	if w == nil {
		return 0
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.prune(w.now())
	return len(w.stamps)
}

package monitor

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/Vodeneev/oddsedge/internal/feed"
	"github.com/Vodeneev/oddsedge/internal/pkg/models"
	"github.com/Vodeneev/oddsedge/internal/pkg/notify"
	"github.com/Vodeneev/oddsedge/internal/pkg/performance"
)

// Journal persists delivered live fingerprints across restarts.
type Journal interface {
	Record(ctx context.Context, fingerprint string, ev models.Event) error
	Recent(ctx context.Context, limit int) ([]string, error)
}

// Options tunes the scheduler. Zero values take the defaults.
type Options struct {
	OpeningInterval   time.Duration // 60s
	LiveInterval      time.Duration // 30s
	OpeningDedup      bool          // suppress repeated opening alerts too
	DedupCapacity     int           // 100
	DedupRetain       int           // 50
	SilenceWarnCycles int           // 0 disables the watchdog
	Journal           Journal
	Tracker           *performance.Tracker
	Now               func() time.Time
}

// CycleStats summarizes one iteration.
type CycleStats struct {
	Fetched    int
	Flagged    int
	Notified   int
	Suppressed int
	Failed     int

	FetchDuration time.Duration
}

// Scheduler runs the opening and live cycles on independent cadences.
type Scheduler struct {
	provider feed.Provider
	detector *Detector
	sink     notify.Sink
	opts     Options

	liveCache    *DedupCache
	openingCache *DedupCache // nil unless OpeningDedup

	openingSilence silenceWatch
	liveSilence    silenceWatch
}

func NewScheduler(provider feed.Provider, detector *Detector, sink notify.Sink, opts Options) *Scheduler {
	if opts.OpeningInterval <= 0 {
		opts.OpeningInterval = 60 * time.Second
	}
	if opts.LiveInterval <= 0 {
		opts.LiveInterval = 30 * time.Second
	}
	if opts.DedupCapacity <= 0 {
		opts.DedupCapacity = 100
	}
	if opts.DedupRetain <= 0 || opts.DedupRetain > opts.DedupCapacity {
		opts.DedupRetain = opts.DedupCapacity / 2
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Tracker == nil {
		opts.Tracker = performance.NewTracker()
	}

	s := &Scheduler{
		provider:       provider,
		detector:       detector,
		sink:           sink,
		opts:           opts,
		liveCache:      NewDedupCache(opts.DedupCapacity, opts.DedupRetain),
		openingSilence: silenceWatch{cycle: "opening", threshold: opts.SilenceWarnCycles},
		liveSilence:    silenceWatch{cycle: "live", threshold: opts.SilenceWarnCycles},
	}
	if opts.OpeningDedup {
		s.openingCache = NewDedupCache(opts.DedupCapacity, opts.DedupRetain)
	}
	return s
}

// LiveCache exposes the live dedup cache for inspection.
func (s *Scheduler) LiveCache() *DedupCache { return s.liveCache }

// Tracker returns the per-cycle metrics.
func (s *Scheduler) Tracker() *performance.Tracker { return s.opts.Tracker }

// WarmUp seeds the live dedup cache from the journal.
func (s *Scheduler) WarmUp(ctx context.Context) {
	if s.opts.Journal == nil {
		return
	}
	fps, err := s.opts.Journal.Recent(ctx, s.opts.DedupRetain)
	if err != nil {
		slog.Warn("Failed to warm dedup cache from journal", "error", err)
		return
	}
	for _, fp := range fps {
		s.liveCache.Add(fp)
	}
	slog.Info("Dedup cache warmed from journal", "fingerprints", len(fps))
}

// Run starts both loops and blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	s.WarmUp(ctx)
	slog.Info("Monitor started",
		"provider", s.provider.Name(),
		"opening_interval", s.opts.OpeningInterval,
		"live_interval", s.opts.LiveInterval,
		"edge_threshold", s.detector.Threshold(),
		"opening_dedup", s.opts.OpeningDedup)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.loop(ctx, "opening", s.opts.OpeningInterval, s.RunOpeningCycle)
	}()
	go func() {
		defer wg.Done()
		s.loop(ctx, "live", s.opts.LiveInterval, s.RunLiveCycle)
	}()
	wg.Wait()
	slog.Info("Monitor stopped")
}

// loop runs cycle, then waits interval, until ctx is done. The wait starts
// after the iteration finishes, so a slow iteration delays the next one.
func (s *Scheduler) loop(ctx context.Context, name string, interval time.Duration, cycle func(context.Context) CycleStats) {
	for {
		s.safeRun(ctx, name, cycle)

		t := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case <-t.C:
		}
	}
}

// safeRun isolates one iteration: a panic is logged and the loop goes on.
func (s *Scheduler) safeRun(ctx context.Context, name string, cycle func(context.Context) CycleStats) {
	defer func() {
		if r := recover(); r != nil {
			s.opts.Tracker.RecordPanic(name)
			slog.Error("Monitor cycle panicked", "cycle", name, "panic", r, "stack", string(debug.Stack()))
		}
	}()
	if ctx.Err() != nil {
		return
	}
	start := time.Now()
	st := cycle(ctx)
	elapsed := time.Since(start)
	s.opts.Tracker.RecordRun(name, performance.Run{
		Fetched:    st.Fetched,
		Flagged:    st.Flagged,
		Notified:   st.Notified,
		Suppressed: st.Suppressed,
		Failed:     st.Failed,
		Fetch:      st.FetchDuration,
		Total:      elapsed,
		At:         start,
	})
	slog.Info("Monitor cycle finished",
		"cycle", name,
		"fetched", st.Fetched,
		"flagged", st.Flagged,
		"notified", st.Notified,
		"suppressed", st.Suppressed,
		"failed", st.Failed,
		"duration", elapsed)
}

// RunOpeningCycle fetches upcoming matches and notifies every match that
// carries opportunities. Repeats are suppressed only with OpeningDedup.
func (s *Scheduler) RunOpeningCycle(ctx context.Context) CycleStats {
	start := time.Now()
	matches := s.provider.FetchByStatus(ctx, models.StatusUpcoming)
	fetch := time.Since(start)
	s.openingSilence.observe(len(matches))
	st := s.process(ctx, models.EventOpening, matches, s.openingCache, nil)
	st.FetchDuration = fetch
	return st
}

// RunLiveCycle fetches running and recent matches, keeps those with quotes
// and notifies each new opportunity set once.
func (s *Scheduler) RunLiveCycle(ctx context.Context) CycleStats {
	start := time.Now()
	running := s.provider.FetchByStatus(ctx, models.StatusRunning)
	recent := s.provider.FetchByStatus(ctx, models.StatusRecent)
	fetch := time.Since(start)
	s.liveSilence.observe(len(running) + len(recent))

	seen := make(map[string]bool, len(running)+len(recent))
	var quoted []models.MatchRecord
	for _, m := range append(running, recent...) {
		if seen[m.ID] || !m.HasQuotes() {
			continue
		}
		seen[m.ID] = true
		quoted = append(quoted, m)
	}
	st := s.process(ctx, models.EventLive, quoted, s.liveCache, s.opts.Journal)
	st.FetchDuration = fetch
	return st
}

// process detects, deduplicates and notifies. A fingerprint is remembered
// only after the sink accepted the event, so a failed delivery is retried
// on the next cycle.
func (s *Scheduler) process(ctx context.Context, t models.EventType, matches []models.MatchRecord, cache *DedupCache, journal Journal) CycleStats {
	st := CycleStats{Fetched: len(matches)}
	for _, m := range matches {
		if ctx.Err() != nil {
			break
		}
		opps := s.detector.Detect(m)
		if len(opps) == 0 {
			continue
		}
		st.Flagged++

		var fp string
		if cache != nil {
			fp = Fingerprint(m.ID, opps)
			if cache.Seen(fp) {
				st.Suppressed++
				continue
			}
		}

		ev := models.NewEvent(t, m, opps, s.opts.Now())
		if err := s.sink.Notify(ctx, ev); err != nil {
			st.Failed++
			slog.Error("Failed to deliver notification", "type", t, "match", ev.Match, "error", err)
			continue
		}
		st.Notified++
		slog.Info("Opportunity notified",
			"type", t,
			"match", ev.Match,
			"league", ev.League,
			"opportunities", opps.Keys())

		if cache != nil {
			cache.Add(fp)
			if journal != nil {
				if err := journal.Record(ctx, fp, ev); err != nil {
					slog.Warn("Failed to journal fingerprint", "match", ev.Match, "error", err)
				}
			}
		}
	}
	return st
}

// silenceWatch warns once per streak of consecutive empty fetches.
// Each instance is used by a single loop.
type silenceWatch struct {
	cycle     string
	threshold int
	streak    int
	warned    bool
}

func (w *silenceWatch) observe(n int) {
	if w.threshold <= 0 {
		return
	}
	if n > 0 {
		if w.warned {
			slog.Info("Feed returned matches again", "cycle", w.cycle, "after_empty_cycles", w.streak)
		}
		w.streak, w.warned = 0, false
		return
	}
	w.streak++
	if w.streak >= w.threshold && !w.warned {
		w.warned = true
		slog.Warn("Feed silent", "cycle", w.cycle, "empty_cycles", w.streak)
	}
}

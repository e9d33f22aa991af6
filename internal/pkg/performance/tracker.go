package performance

import (
	"log/slog"
	"sort"
	"sync"
	"time"
)

// Run is the outcome of one monitor cycle iteration.
type Run struct {
	Fetched    int
	Flagged    int
	Notified   int
	Suppressed int
	Failed     int
	Fetch      time.Duration
	Total      time.Duration
	At         time.Time
}

// CycleTotals accumulates runs of one named cycle.
type CycleTotals struct {
	Runs       int
	Panics     int
	Fetched    int
	Flagged    int
	Notified   int
	Suppressed int
	Failed     int

	FetchDuration time.Duration
	TotalDuration time.Duration
	MaxDuration   time.Duration
	LastRun       time.Time
}

// AvgDuration is the mean wall time per run.
func (c CycleTotals) AvgDuration() time.Duration {
	if c.Runs == 0 {
		return 0
	}
	return c.TotalDuration / time.Duration(c.Runs)
}

// FetchShare is the fraction of wall time spent waiting on the feed.
func (c CycleTotals) FetchShare() float64 {
	if c.TotalDuration == 0 {
		return 0
	}
	return float64(c.FetchDuration) / float64(c.TotalDuration)
}

// Tracker tracks per-cycle metrics for the monitor loops.
type Tracker struct {
	mu     sync.RWMutex
	cycles map[string]*CycleTotals
}

func NewTracker() *Tracker {
	return &Tracker{cycles: make(map[string]*CycleTotals)}
}

func (t *Tracker) totals(cycle string) *CycleTotals {
	c, ok := t.cycles[cycle]
	if !ok {
		c = &CycleTotals{}
		t.cycles[cycle] = c
	}
	return c
}

// RecordRun records a completed iteration of cycle.
func (t *Tracker) RecordRun(cycle string, r Run) {
	t.mu.Lock()
	defer t.mu.Unlock()

	c := t.totals(cycle)
	c.Runs++
	c.Fetched += r.Fetched
	c.Flagged += r.Flagged
	c.Notified += r.Notified
	c.Suppressed += r.Suppressed
	c.Failed += r.Failed
	c.FetchDuration += r.Fetch
	c.TotalDuration += r.Total
	if r.Total > c.MaxDuration {
		c.MaxDuration = r.Total
	}
	c.LastRun = r.At
}

// RecordPanic counts an iteration that did not complete.
func (t *Tracker) RecordPanic(cycle string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.totals(cycle).Panics++
}

// Totals returns a copy of the accumulated metrics for cycle.
func (t *Tracker) Totals(cycle string) CycleTotals {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if c, ok := t.cycles[cycle]; ok {
		return *c
	}
	return CycleTotals{}
}

// Reset resets all metrics
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cycles = make(map[string]*CycleTotals)
}

// PrintSummary logs one line per cycle.
func (t *Tracker) PrintSummary() {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if len(t.cycles) == 0 {
		slog.Info("No performance data collected yet")
		return
	}

	names := make([]string, 0, len(t.cycles))
	for name := range t.cycles {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		c := t.cycles[name]
		slog.Info("Cycle performance",
			"cycle", name,
			"runs", c.Runs,
			"panics", c.Panics,
			"fetched", c.Fetched,
			"flagged", c.Flagged,
			"notified", c.Notified,
			"suppressed", c.Suppressed,
			"failed", c.Failed,
			"avg_duration", c.AvgDuration(),
			"max_duration", c.MaxDuration,
			"fetch_percent", c.FetchShare()*100,
			"last_run", c.LastRun)
	}
}

package performance

import (
	"sync"
	"testing"
	"time"
)

func TestTracker_RecordRunAccumulates(t *testing.T) {
	tr := NewTracker()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tr.RecordRun("live", Run{Fetched: 3, Flagged: 2, Notified: 1, Suppressed: 1, Fetch: 30 * time.Millisecond, Total: 40 * time.Millisecond, At: at})
	tr.RecordRun("live", Run{Fetched: 1, Failed: 1, Fetch: 10 * time.Millisecond, Total: 40 * time.Millisecond, At: at.Add(time.Minute)})
	tr.RecordPanic("live")

	got := tr.Totals("live")
	if got.Runs != 2 || got.Panics != 1 {
		t.Fatalf("runs/panics = %d/%d, want 2/1", got.Runs, got.Panics)
	}
	if got.Fetched != 4 || got.Flagged != 2 || got.Notified != 1 || got.Suppressed != 1 || got.Failed != 1 {
		t.Errorf("unexpected counters: %+v", got)
	}
	if got.AvgDuration() != 40*time.Millisecond {
		t.Errorf("AvgDuration() = %v, want 40ms", got.AvgDuration())
	}
	if got.FetchShare() != 0.5 {
		t.Errorf("FetchShare() = %v, want 0.5", got.FetchShare())
	}
	if !got.LastRun.Equal(at.Add(time.Minute)) {
		t.Errorf("LastRun = %v", got.LastRun)
	}
	if other := tr.Totals("opening"); other.Runs != 0 {
		t.Errorf("opening totals leaked: %+v", other)
	}
}

func TestTracker_ZeroValuesAndReset(t *testing.T) {
	tr := NewTracker()
	if c := tr.Totals("x"); c.AvgDuration() != 0 || c.FetchShare() != 0 {
		t.Errorf("empty totals should be zero: %+v", c)
	}
	tr.RecordRun("x", Run{Total: time.Second})
	tr.PrintSummary()
	tr.Reset()
	if c := tr.Totals("x"); c.Runs != 0 {
		t.Errorf("Reset did not clear totals: %+v", c)
	}
	tr.PrintSummary()
}

func TestTracker_ConcurrentCycles(t *testing.T) {
	tr := NewTracker()
	var wg sync.WaitGroup
	for _, name := range []string{"opening", "live"} {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				tr.RecordRun(name, Run{Fetched: 1})
			}
		}(name)
	}
	wg.Wait()
	for _, name := range []string{"opening", "live"} {
		if c := tr.Totals(name); c.Runs != 100 || c.Fetched != 100 {
			t.Errorf("%s totals = %+v", name, c)
		}
	}
}

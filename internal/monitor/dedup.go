package monitor

import (
	"container/list"
	"sync"
)

// DedupCache remembers recently notified fingerprints in insertion order.
// When it grows past capacity the oldest entries are dropped until only
// retain remain.
type DedupCache struct {
	mu       sync.Mutex
	capacity int
	retain   int
	order    *list.List // front = oldest
	index    map[string]*list.Element
}

func NewDedupCache(capacity, retain int) *DedupCache {
	if capacity <= 0 {
		capacity = 100
	}
	if retain < 0 || retain > capacity {
		retain = capacity / 2
	}
	return &DedupCache{
		capacity: capacity,
		retain:   retain,
		order:    list.New(),
		index:    make(map[string]*list.Element),
	}
}

func (c *DedupCache) Seen(fp string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.index[fp]
	return ok
}

// Add inserts fp. Re-adding a known fingerprint keeps its original position.
// It returns how many entries were evicted.
func (c *DedupCache) Add(fp string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.index[fp]; ok {
		return 0
	}
	c.index[fp] = c.order.PushBack(fp)
	if c.order.Len() <= c.capacity {
		return 0
	}
	evicted := 0
	for c.order.Len() > c.retain {
		oldest := c.order.Front()
		c.order.Remove(oldest)
		delete(c.index, oldest.Value.(string))
		evicted++
	}
	return evicted
}

func (c *DedupCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Snapshot returns the fingerprints oldest first.
func (c *DedupCache) Snapshot() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, c.order.Len())
	for e := c.order.Front(); e != nil; e = e.Next() {
		out = append(out, e.Value.(string))
	}
	return out
}

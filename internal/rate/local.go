package rate

import (
	"sync"
	"time"
)

type localEntry struct {
	count int64
	reset time.Time
}

// localCounters is the bounded degraded-mode fallback. Entries whose
// window has passed are swept whenever the map would exceed its cap,
// so an outage cannot grow it without bound.
type localCounters struct {
	mu      sync.Mutex
	entries map[string]*localEntry
	max     int
}

func newLocalCounters(max int) *localCounters {
	return &localCounters{
		entries: make(map[string]*localEntry),
		max:     max,
	}
}

func (c *localCounters) incr(key string, window time.Duration, now time.Time) (int64, time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok && now.Before(e.reset) {
		e.count++
		return e.count, e.reset
	}

	if len(c.entries) >= c.max {
		c.evictExpired(now)
	}
	e := &localEntry{count: 1, reset: now.Add(window)}
	if len(c.entries) < c.max {
		c.entries[key] = e
	}
	// At cap even after the sweep: count the request without storing
	// it. Under-limiting is the accepted cost of degraded mode.
	return e.count, e.reset
}

func (c *localCounters) evictExpired(now time.Time) {
	for k, e := range c.entries {
		if !now.Before(e.reset) {
			delete(c.entries, k)
		}
	}
}

func (c *localCounters) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

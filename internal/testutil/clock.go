package testutil

import (
	"sync"
	"time"
)

// DefaultTime is the instant a FixedClock starts at when none is given:
// 2024-01-15T10:30:00Z.
var DefaultTime = time.Date(2024, time.January, 15, 10, 30, 0, 0, time.UTC)

// FixedClock is a wall clock that only moves when told to.
//
// It satisfies engine.Clock, so NOW(), CURRENT_DATE and generated
// timestamps are reproducible in golden snapshots.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type FixedClock struct {
	mu    sync.Mutex
	start time.Time
	now   time.Time
}

// NewFixedClock creates a clock frozen at t, or at DefaultTime when t is zero.
func NewFixedClock(t time.Time) *FixedClock {
	if t.IsZero() {
		t = DefaultTime
	}
	return &FixedClock{start: t, now: t}
}

// Now returns the frozen instant.
func (c *FixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *FixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Reset returns the clock to its starting instant.
//
// Used for test reuse, so the same scenario run twice sees identical times.
func (c *FixedClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.start
}

package testutil

import (
	"sync"
	"time"
)

// WallClock is a deterministic stand-in for time.Now.
//
// The first call to Now returns start; each later call advances by step.
// A zero step freezes time.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type WallClock struct {
	mu    sync.Mutex
	start time.Time
	step  time.Duration
	calls int64
}

// NewWallClock creates a clock that starts at start and advances by step.
func NewWallClock(start time.Time, step time.Duration) *WallClock {
	return &WallClock{start: start, step: step}
}

// Now returns the next timestamp. Its signature matches time.Now so it can
// be passed wherever a func() time.Time is expected.
func (c *WallClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.start.Add(time.Duration(c.calls) * c.step)
	c.calls++
	return t
}

// Calls returns how many times Now has been called.
func (c *WallClock) Calls() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// Reset rewinds the clock so the next Now returns start again.
func (c *WallClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = 0
}

package testutil

import (
	"sync"
	"time"
)

// ManualTicker is a ticker driven by the test instead of the wall clock.
//
// Its channel is unbuffered, so Tick returns only once the consumer has
// received the tick. This lets a test step a periodic loop one iteration at a
// time without sleeping.
type ManualTicker struct {
	c chan time.Time

	mu      sync.Mutex
	stopped bool
}

// NewManualTicker creates a ticker that never fires on its own.
func NewManualTicker() *ManualTicker {
	return &ManualTicker{c: make(chan time.Time)}
}

// C returns the tick channel.
func (t *ManualTicker) C() <-chan time.Time {
	return t.c
}

// Stop marks the ticker stopped. Like time.Ticker, it does not close C.
func (t *ManualTicker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
}

// Stopped reports whether Stop has been called.
func (t *ManualTicker) Stopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

// Tick delivers one tick, blocking until it is received or timeout elapses.
// Returns false on timeout.
func (t *ManualTicker) Tick(timeout time.Duration) bool {
	select {
	case t.c <- time.Now():
		return true
	case <-time.After(timeout):
		return false
	}
}

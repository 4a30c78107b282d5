package testutil

import "sync"

// ManualClock is a controller time source that only moves when told to.
//
// Tests advance it explicitly between ticks so signal lifetimes, door
// timers and journal timestamps are reproducible.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type ManualClock struct {
	mu  sync.Mutex
	now uint64
}

// NewManualClock creates a clock reading start microseconds.
func NewManualClock(start uint64) *ManualClock {
	return &ManualClock{now: start}
}

// NowMicros returns the current time in microseconds.
func (c *ManualClock) NowMicros() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by us microseconds and returns the new
// time.
func (c *ManualClock) Advance(us uint64) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now += us
	return c.now
}

// AdvanceMillis moves the clock forward by ms milliseconds.
func (c *ManualClock) AdvanceMillis(ms uint64) uint64 {
	return c.Advance(ms * 1000)
}

// Set jumps the clock to an absolute time. Going backwards is allowed so
// tests can provoke trigger times in the future.
func (c *ManualClock) Set(us uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = us
}

package engine

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCycleClock_New(t *testing.T) {
	assert.Equal(t, uint64(0), NewCycleClock().Current())
	assert.Equal(t, uint64(100), NewCycleClockAt(100).Current())
}

func TestCycleClock_Next_Incrementing(t *testing.T) {
	c := NewCycleClock()

	// First call returns 1 (increments then returns)
	assert.Equal(t, uint64(1), c.Next())
	assert.Equal(t, uint64(2), c.Next())
	assert.Equal(t, uint64(3), c.Next())
	assert.Equal(t, uint64(3), c.Current())
}

func TestCycleClock_ThreadSafe(t *testing.T) {
	c := NewCycleClock()
	const goroutines = 50
	const perGoroutine = 100

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				c.Next()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, uint64(goroutines*perGoroutine), c.Current())
}

func TestSystemClock_Monotonic(t *testing.T) {
	c := NewSystemClock()
	first := c.NowMicros()
	time.Sleep(2 * time.Millisecond)
	second := c.NowMicros()

	assert.GreaterOrEqual(t, second-first, uint64(2000))
}

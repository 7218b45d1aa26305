package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFixedClock_DefaultsToDefaultTime(t *testing.T) {
	clock := NewFixedClock(time.Time{})
	assert.Equal(t, DefaultTime, clock.Now())
}

func TestFixedClock_DoesNotMoveOnItsOwn(t *testing.T) {
	at := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	clock := NewFixedClock(at)

	assert.Equal(t, at, clock.Now())
	assert.Equal(t, at, clock.Now())
}

func TestFixedClock_AdvanceAndReset(t *testing.T) {
	clock := NewFixedClock(time.Time{})

	clock.Advance(90 * time.Second)
	assert.Equal(t, DefaultTime.Add(90*time.Second), clock.Now())

	clock.Reset()
	assert.Equal(t, DefaultTime, clock.Now())
}

func TestFixedClock_ThreadSafe(t *testing.T) {
	clock := NewFixedClock(time.Time{})
	const numGoroutines = 50

	var wg sync.WaitGroup
	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func() {
			defer wg.Done()
			clock.Advance(time.Second)
			_ = clock.Now()
		}()
	}
	wg.Wait()

	assert.Equal(t, DefaultTime.Add(numGoroutines*time.Second), clock.Now())
}

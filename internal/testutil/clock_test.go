package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func TestManualClock_StartsAtStart(t *testing.T) {
	clock := NewManualClock(start)
	assert.Equal(t, start, clock.Now())
	assert.Equal(t, start, clock.Now(), "reading does not advance the clock")
}

func TestManualClock_Advance(t *testing.T) {
	clock := NewManualClock(start)

	got := clock.Advance(30 * time.Second)

	assert.Equal(t, start.Add(30*time.Second), got)
	assert.Equal(t, got, clock.Now())
}

func TestManualClock_Set(t *testing.T) {
	clock := NewManualClock(start)
	later := start.Add(time.Hour)

	clock.Set(later)

	assert.Equal(t, later, clock.Now())
}

func TestManualClock_ThreadSafe(t *testing.T) {
	clock := NewManualClock(start)
	const goroutines = 50

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			clock.Advance(time.Second)
		}()
	}
	wg.Wait()

	assert.Equal(t, start.Add(goroutines*time.Second), clock.Now())
}

func TestSequentialIDs(t *testing.T) {
	g := NewSequentialIDs("goal")

	assert.Equal(t, "goal-0001", g.Generate())
	assert.Equal(t, "goal-0002", g.Generate())
	assert.Equal(t, "id-0001", NewSequentialIDs("").Generate())
}

func TestSequentialIDs_Deterministic(t *testing.T) {
	a := NewSequentialIDs("job")
	b := NewSequentialIDs("job")
	for i := 0; i < 100; i++ {
		require.Equal(t, a.Generate(), b.Generate())
	}
}

func TestFixedIDs(t *testing.T) {
	g := NewFixedIDs("a", "b")

	assert.Equal(t, "a", g.Generate())
	assert.Equal(t, "b", g.Generate())
	assert.Panics(t, func() { g.Generate() })
}

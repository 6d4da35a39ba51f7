package cache

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock lets tests advance the cache's idea of time deterministically.
type fakeClock struct {
	t time.Time
}

func (f *fakeClock) now() time.Time { return f.t }

func (f *fakeClock) advance(d time.Duration) { f.t = f.t.Add(d) }

func newTestCache[K comparable, V any]() (*Cache[K, V], *fakeClock) {
	clk := &fakeClock{t: time.Unix(1000, 0)}
	c := New[K, V]()
	c.now = clk.now
	return c, clk
}

func TestGetOrInsertBuildsOnce(t *testing.T) {
	c, _ := newTestCache[string, int]()

	calls := 0
	factory := func() int {
		calls++
		return 42
	}

	assert.Equal(t, 42, c.GetOrInsert("k", factory))
	assert.Equal(t, 42, c.GetOrInsert("k", factory))
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, c.Len())
}

func TestGetOrInsertFallibleDoesNotInsertOnError(t *testing.T) {
	c, _ := newTestCache[string, int]()

	boom := errors.New("boom")
	_, err := c.GetOrInsertFallible("k", func() (int, error) { return 0, boom })
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 0, c.Len())

	v, err := c.GetOrInsertFallible("k", func() (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, v)
	assert.Equal(t, 1, c.Len())
}

func TestCleanupEvictsByLastHit(t *testing.T) {
	c, clk := newTestCache[string, string]()

	// Realize at t=0, reference again at t=2.
	c.GetOrInsert("p", func() string { return "pipeline" })
	clk.advance(2 * time.Second)
	_, ok := c.Get("p")
	require.True(t, ok)

	// Cleanup at t=2 with retain 1s: last hit was just refreshed, so retained.
	delta := c.Cleanup(time.Second)
	assert.Equal(t, CleanupDelta{Before: 1, After: 1}, delta)

	// Cleanup at t=4 without any access in between: evicted.
	clk.advance(2 * time.Second)
	delta = c.Cleanup(time.Second)
	assert.Equal(t, CleanupDelta{Before: 1, After: 0}, delta)
	assert.Equal(t, 0, c.Len())
}

func TestCleanupBoundaryIsInclusive(t *testing.T) {
	c, clk := newTestCache[int, int]()
	c.GetOrInsert(1, func() int { return 1 })

	// Exactly retain period idle: evicted (>= semantics).
	clk.advance(time.Second)
	delta := c.Cleanup(time.Second)
	assert.Equal(t, 0, delta.After)
}

func TestReworkRebuildsAndDrops(t *testing.T) {
	c, _ := newTestCache[string, int]()
	c.GetOrInsert("keep", func() int { return 1 })
	c.GetOrInsert("drop", func() int { return 2 })

	c.Rework(func(key string, value int) (int, bool) {
		if key == "drop" {
			return 0, false
		}
		return value * 10, true
	})

	v, ok := c.Get("keep")
	require.True(t, ok)
	assert.Equal(t, 10, v)

	_, ok = c.Get("drop")
	assert.False(t, ok)
}

func TestReworkPreservesHitTimers(t *testing.T) {
	c, clk := newTestCache[string, int]()
	c.GetOrInsert("k", func() int { return 1 })

	clk.advance(2 * time.Second)
	c.Rework(func(key string, value int) (int, bool) { return value, true })

	// The rework must not have refreshed the timer: still evictable.
	delta := c.Cleanup(time.Second)
	assert.Equal(t, 0, delta.After)
}

func TestClearAndRemove(t *testing.T) {
	c, _ := newTestCache[string, int]()
	c.GetOrInsert("a", func() int { return 1 })
	c.GetOrInsert("b", func() int { return 2 })

	c.Remove("a")
	assert.Equal(t, 1, c.Len())

	c.Clear()
	assert.Equal(t, 0, c.Len())
}

// Package cache provides the generic keyed realization cache used by the
// renderer. Values are created on first use, their last-hit timestamp is
// refreshed on every access, and entries that have not been hit within a
// retain period are dropped by periodic cleanup. Rework rebuilds every value
// in place, which the renderer uses when the surface format changes and all
// cached pipelines must be recompiled.
package cache

import (
	"sync"
	"time"
)

// entry pairs a cached value with the monotonic instant of its last hit.
type entry[V any] struct {
	value   V
	lastHit time.Time
}

// CleanupDelta reports the cache size immediately before and after a cleanup
// pass.
type CleanupDelta struct {
	// Before is the number of entries prior to eviction.
	Before int

	// After is the number of entries remaining.
	After int
}

// Cache is a thread-safe keyed store of realized values with time-based
// eviction. The zero value is not usable; create instances with New.
type Cache[K comparable, V any] struct {
	mu      sync.Mutex
	entries map[K]*entry[V]

	// now is the clock used for hit timers; replaceable in tests.
	now func() time.Time
}

// New creates an empty cache.
//
// Returns:
//   - *Cache[K, V]: the new cache
func New[K comparable, V any]() *Cache[K, V] {
	return &Cache[K, V]{
		entries: make(map[K]*entry[V]),
		now:     time.Now,
	}
}

// GetOrInsert returns the cached value for key, resetting its last-hit timer.
// If the key is absent, factory is invoked, its result stored, and returned.
//
// Parameters:
//   - key: the cache key (typically a descriptor hash or label)
//   - factory: invoked to build the value on a miss
//
// Returns:
//   - V: the cached or newly built value
func (c *Cache[K, V]) GetOrInsert(key K, factory func() V) V {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.lastHit = c.now()
		return e.value
	}

	v := factory()
	c.entries[key] = &entry[V]{value: v, lastHit: c.now()}
	return v
}

// GetOrInsertFallible is GetOrInsert with a factory that may fail. A factory
// error is returned to the caller and nothing is inserted.
//
// Parameters:
//   - key: the cache key
//   - factory: invoked to build the value on a miss; may fail
//
// Returns:
//   - V: the cached or newly built value (zero value on error)
//   - error: the factory error, or nil
func (c *Cache[K, V]) GetOrInsertFallible(key K, factory func() (V, error)) (V, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.lastHit = c.now()
		return e.value, nil
	}

	v, err := factory()
	if err != nil {
		var zero V
		return zero, err
	}
	c.entries[key] = &entry[V]{value: v, lastHit: c.now()}
	return v, nil
}

// Get returns the cached value for key without building one, resetting its
// last-hit timer on a hit.
//
// Parameters:
//   - key: the cache key
//
// Returns:
//   - V: the cached value (zero value on a miss)
//   - bool: true on a hit
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.lastHit = c.now()
		return e.value, true
	}
	var zero V
	return zero, false
}

// Remove drops the entry for key if present.
//
// Parameters:
//   - key: the cache key
func (c *Cache[K, V]) Remove(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Cleanup removes every entry whose time since last hit is at least
// retainBelow and reports the sizes before and after.
//
// Parameters:
//   - retainBelow: entries idle for at least this long are evicted
//
// Returns:
//   - CleanupDelta: entry counts before and after eviction
func (c *Cache[K, V]) Cleanup(retainBelow time.Duration) CleanupDelta {
	c.mu.Lock()
	defer c.mu.Unlock()

	delta := CleanupDelta{Before: len(c.entries)}
	cutoff := c.now()
	for k, e := range c.entries {
		if cutoff.Sub(e.lastHit) >= retainBelow {
			delete(c.entries, k)
		}
	}
	delta.After = len(c.entries)
	return delta
}

// CleanupWith is Cleanup with a callback invoked for each evicted value,
// letting callers release GPU resources held by evicted entries.
//
// Parameters:
//   - retainBelow: entries idle for at least this long are evicted
//   - onEvict: invoked for each evicted entry before removal
//
// Returns:
//   - CleanupDelta: entry counts before and after eviction
func (c *Cache[K, V]) CleanupWith(retainBelow time.Duration, onEvict func(K, V)) CleanupDelta {
	c.mu.Lock()
	defer c.mu.Unlock()

	delta := CleanupDelta{Before: len(c.entries)}
	cutoff := c.now()
	for k, e := range c.entries {
		if cutoff.Sub(e.lastHit) >= retainBelow {
			onEvict(k, e.value)
			delete(c.entries, k)
		}
	}
	delta.After = len(c.entries)
	return delta
}

// Rework rebuilds every cached value through fn. Returning ok=false drops the
// entry. Hit timers are preserved so a rework does not extend lifetimes.
//
// Parameters:
//   - fn: invoked once per entry with its key and current value
func (c *Cache[K, V]) Rework(fn func(key K, value V) (V, bool)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for k, e := range c.entries {
		v, ok := fn(k, e.value)
		if !ok {
			delete(c.entries, k)
			continue
		}
		e.value = v
	}
}

// Range calls fn for every entry without touching hit timers. Iteration stops
// if fn returns false.
//
// Parameters:
//   - fn: invoked once per entry
func (c *Cache[K, V]) Range(fn func(key K, value V) bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for k, e := range c.entries {
		if !fn(k, e.value) {
			return
		}
	}
}

// Len returns the number of cached entries.
//
// Returns:
//   - int: the entry count
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear removes every entry.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[K]*entry[V])
}

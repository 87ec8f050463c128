// Package cache holds small in-memory caches for computed reports.
package cache

import (
	"sync"
	"time"
)

// Cache is the lookup surface used by report services.
type Cache[K comparable, V any] interface {
	Get(key K) (V, bool)
	Set(key K, value V, ttl time.Duration)
	Delete(key K)
	Prune(stale func(K) bool) int
}

// GetOrLoad returns the cached value for key or calls load and caches its
// result. Errors are not cached. Concurrent misses may load more than once.
func GetOrLoad[K comparable, V any](c Cache[K, V], key K, ttl time.Duration, load func() (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}
	v, err := load()
	if err != nil {
		return v, err
	}
	c.Set(key, v, ttl)
	return v, nil
}

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// TTL stores values in memory with per-entry expiry. A zero TTL never
// expires. The zero value is not usable; call NewTTL.
type TTL[K comparable, V any] struct {
	mu    sync.RWMutex
	items map[K]entry[V]
	now   func() time.Time
}

func NewTTL[K comparable, V any]() *TTL[K, V] {
	return &TTL[K, V]{items: make(map[K]entry[V]), now: time.Now}
}

// WithClock replaces the time source, for tests.
func (c *TTL[K, V]) WithClock(now func() time.Time) *TTL[K, V] {
	c.now = now
	return c
}

func (c *TTL[K, V]) Get(key K) (V, bool) {
	var zero V
	if c == nil {
		return zero, false
	}
	c.mu.RLock()
	e, ok := c.items[key]
	c.mu.RUnlock()
	if !ok {
		return zero, false
	}
	if c.expired(e) {
		c.Delete(key)
		return zero, false
	}
	return e.value, true
}

func (c *TTL[K, V]) Set(key K, value V, ttl time.Duration) {
	if c == nil {
		return
	}
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = c.now().Add(ttl)
	}
	c.mu.Lock()
	c.items[key] = entry[V]{value: value, expiresAt: expiresAt}
	c.mu.Unlock()
}

func (c *TTL[K, V]) Delete(key K) {
	if c == nil {
		return
	}
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

func (c *TTL[K, V]) GetOrLoad(key K, ttl time.Duration, load func() (V, error)) (V, error) {
	return GetOrLoad[K, V](c, key, ttl, load)
}

// Prune drops expired entries and every entry for which stale returns true.
// It returns the number of entries removed.
func (c *TTL[K, V]) Prune(stale func(K) bool) int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for k, e := range c.items {
		if c.expired(e) || (stale != nil && stale(k)) {
			delete(c.items, k)
			n++
		}
	}
	return n
}

func (c *TTL[K, V]) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *TTL[K, V]) expired(e entry[V]) bool {
	return !e.expiresAt.IsZero() && c.now().After(e.expiresAt)
}

// Noop always misses and ignores writes.
type Noop[K comparable, V any] struct{}

func (Noop[K, V]) Get(K) (V, bool) {
	var zero V
	return zero, false
}

func (Noop[K, V]) Set(K, V, time.Duration) {}

func (Noop[K, V]) Delete(K) {}

func (Noop[K, V]) Prune(func(K) bool) int { return 0 }

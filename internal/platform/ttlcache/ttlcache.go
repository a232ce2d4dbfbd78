package ttlcache

import (
	"sync"
	"time"
)

type Clock interface {
	Now() time.Time
}

type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads the wall clock.
var SystemClock Clock = ClockFunc(time.Now)

type entry[V any] struct {
	value    V
	storedAt time.Time
}

// Cache is a mutex-guarded map whose entries expire ttl after the timestamp
// they were stored with. A ttl <= 0 disables caching.
type Cache[K comparable, V any] struct {
	mu    sync.RWMutex
	ttl   time.Duration
	clock Clock
	items map[K]entry[V]
}

func New[K comparable, V any](ttl time.Duration, clock Clock) *Cache[K, V] {
	if clock == nil {
		clock = SystemClock
	}
	return &Cache[K, V]{ttl: ttl, clock: clock, items: map[K]entry[V]{}}
}

func (c *Cache[K, V]) TTL() time.Duration { return c.ttl }

func (c *Cache[K, V]) Get(key K) (V, bool) {
	var zero V
	if c == nil || c.ttl <= 0 {
		return zero, false
	}
	c.mu.RLock()
	e, ok := c.items[key]
	c.mu.RUnlock()
	if !ok {
		return zero, false
	}
	if c.expired(e) {
		c.mu.Lock()
		if cur, still := c.items[key]; still && c.expired(cur) {
			delete(c.items, key)
		}
		c.mu.Unlock()
		return zero, false
	}
	return e.value, true
}

// Put replaces the entry for key. at is the snapshot time the entry ages from.
func (c *Cache[K, V]) Put(key K, value V, at time.Time) {
	if c == nil || c.ttl <= 0 {
		return
	}
	if at.IsZero() {
		at = c.clock.Now()
	}
	c.mu.Lock()
	c.items[key] = entry[V]{value: value, storedAt: at}
	c.mu.Unlock()
}

func (c *Cache[K, V]) Delete(key K) {
	if c == nil {
		return
	}
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

// Purge drops expired entries and returns how many were removed.
func (c *Cache[K, V]) Purge() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for k, e := range c.items {
		if c.expired(e) {
			delete(c.items, k)
			n++
		}
	}
	return n
}

func (c *Cache[K, V]) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *Cache[K, V]) expired(e entry[V]) bool {
	return c.clock.Now().Sub(e.storedAt) >= c.ttl
}

package store

import (
	"sync"
	"sync/atomic"
)

// Cache provides a generic concurrency-safe in-memory cache
type Cache[K comparable, V any] struct {
	items  map[K]V
	mutex  sync.RWMutex
	hits   atomic.Int64
	misses atomic.Int64
}

// NewCache creates a new generic cache
func NewCache[K comparable, V any]() *Cache[K, V] {
	return &Cache[K, V]{
		items: make(map[K]V),
	}
}

// Get retrieves an item from the cache
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mutex.RLock()
	value, exists := c.items[key]
	c.mutex.RUnlock()

	if exists {
		c.hits.Add(1)
		return value, true
	}

	c.misses.Add(1)
	var zero V
	return zero, false
}

// Set stores an item in the cache, replacing any previous value
func (c *Cache[K, V]) Set(key K, value V) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.items[key] = value
}

// GetOrCompute returns the cached value for key, computing and storing it on
// a miss. Concurrent misses may compute more than once; the last store wins.
func (c *Cache[K, V]) GetOrCompute(key K, compute func() (V, error)) (V, error) {
	if value, ok := c.Get(key); ok {
		return value, nil
	}

	value, err := compute()
	if err != nil {
		var zero V
		return zero, err
	}

	c.Set(key, value)
	return value, nil
}

// Clear removes all items from the cache and resets statistics
func (c *Cache[K, V]) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.items = make(map[K]V)
	c.hits.Store(0)
	c.misses.Store(0)
}

// GetStats returns cache statistics
func (c *Cache[K, V]) GetStats() CacheStats {
	c.mutex.RLock()
	size := len(c.items)
	c.mutex.RUnlock()

	return CacheStats{
		Size:   size,
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
	}
}

// CacheStats provides cache statistics
type CacheStats struct {
	Size   int
	Hits   int64
	Misses int64
}

package cache

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// LRU is a bounded least-recently-used cache. Get marks an entry as most
// recently used; inserting into a full cache evicts exactly the least recently
// used entry.
type LRU[K comparable, V any] struct {
	mu       sync.Mutex
	entries  *lru.Cache[K, V]
	capacity int
	counters counters
}

// NewLRU creates an LRU cache holding at most capacity entries.
// A capacity below 1 is treated as 1.
func NewLRU[K comparable, V any](capacity int) *LRU[K, V] {
	if capacity < 1 {
		capacity = 1
	}
	// lru.New only fails for non-positive sizes.
	entries, _ := lru.New[K, V](capacity)
	return &LRU[K, V]{
		entries:  entries,
		capacity: capacity,
	}
}

// Get returns the cached value for key and refreshes its recency.
func (c *LRU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	value, ok := c.entries.Get(key)
	c.counters.record(ok)
	return value, ok
}

// Set stores value under key as the most recently used entry.
func (c *LRU[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries.Add(key, value)
}

// Clear removes all entries and resets statistics.
func (c *LRU[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries.Purge()
	c.counters.reset()
}

// Len returns the current number of entries.
func (c *LRU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.Len()
}

// Capacity returns the maximum number of entries.
func (c *LRU[K, V]) Capacity() int {
	return c.capacity
}

// Stats returns a snapshot of the cache statistics.
func (c *LRU[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counters.snapshot(c.entries.Len(), c.capacity)
}

package cache

import "sync"

// FIFO is a bounded cache that evicts entries in insertion order.
// Reads never refresh an entry's position.
type FIFO[K comparable, V any] struct {
	mu       sync.Mutex
	entries  map[K]V
	order    []K
	capacity int
	counters counters
}

// NewFIFO creates an insertion-order cache holding at most capacity entries.
// A capacity below 1 is treated as 1.
func NewFIFO[K comparable, V any](capacity int) *FIFO[K, V] {
	if capacity < 1 {
		capacity = 1
	}
	return &FIFO[K, V]{
		entries:  make(map[K]V, capacity),
		order:    make([]K, 0, capacity),
		capacity: capacity,
	}
}

// Get returns the cached value for key.
func (c *FIFO[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	value, ok := c.entries[key]
	c.counters.record(ok)
	return value, ok
}

// Set stores value under key. Overwriting an existing key keeps its original
// insertion position. Inserting a new key into a full cache evicts the oldest entry.
func (c *FIFO[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; exists {
		c.entries[key] = value
		return
	}

	for len(c.entries) >= c.capacity {
		c.evictOldest()
	}

	c.entries[key] = value
	c.order = append(c.order, key)
}

// evictOldest removes the oldest entry from the cache.
func (c *FIFO[K, V]) evictOldest() {
	if len(c.order) == 0 {
		return
	}

	oldest := c.order[0]
	delete(c.entries, oldest)
	c.order = c.order[1:]
}

// Clear removes all entries and resets statistics.
func (c *FIFO[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[K]V, c.capacity)
	c.order = make([]K, 0, c.capacity)
	c.counters.reset()
}

// Len returns the current number of entries.
func (c *FIFO[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Capacity returns the maximum number of entries.
func (c *FIFO[K, V]) Capacity() int {
	return c.capacity
}

// Stats returns a snapshot of the cache statistics.
func (c *FIFO[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counters.snapshot(len(c.entries), c.capacity)
}

// Package cache provides the bounded in-memory caches used by the suggestion engine.
package cache

// Stats reports the effectiveness and fill level of a cache.
type Stats struct {
	Hits     int64   `json:"hits"`
	Misses   int64   `json:"misses"`
	HitRate  float64 `json:"hit_rate"`
	Size     int     `json:"size"`
	Capacity int     `json:"capacity"`
}

// counters tracks hit/miss totals. Callers hold the owning cache's lock.
type counters struct {
	hits   int64
	misses int64
}

func (c *counters) record(hit bool) {
	if hit {
		c.hits++
		return
	}
	c.misses++
}

func (c *counters) snapshot(size, capacity int) Stats {
	s := Stats{
		Hits:     c.hits,
		Misses:   c.misses,
		Size:     size,
		Capacity: capacity,
	}
	if total := c.hits + c.misses; total > 0 {
		s.HitRate = float64(c.hits) / float64(total)
	}
	return s
}

func (c *counters) reset() {
	c.hits = 0
	c.misses = 0
}

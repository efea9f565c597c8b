// Package cache memoizes per-particle summary statistics keyed by a hash
// of the parameter vector. Sequential algorithms revisit particles across
// generations; serving repeats from memory skips whole simulations.
package cache

import (
	"crypto/sha256"
	"encoding/binary"
	"math"
	"sync"
)

// Entry is the cached outcome for one particle.
type Entry struct {
	// Stats holds the replicate distances scored for the particle.
	Stats []float64
	// Invalid marks a particle whose replicates included a degenerate
	// trajectory.
	Invalid bool
}

// Cache is a bounded, FIFO-evicting memo of particle scores. Safe for
// concurrent use.
type Cache struct {
	mu        sync.RWMutex
	entries   map[string]Entry
	order     []string
	maxSize   int
	hits      int64
	misses    int64
	evictions int64
}

// New creates a cache holding at most maxSize entries; 0 means unbounded.
func New(maxSize int) *Cache {
	return &Cache{entries: make(map[string]Entry), maxSize: maxSize}
}

// hashParams builds a deterministic key from a parameter vector.
func hashParams(params []float64) string {
	h := sha256.New()
	buf := make([]byte, 8)
	for _, v := range params {
		binary.LittleEndian.PutUint64(buf, math.Float64bits(v))
		h.Write(buf)
	}
	return string(h.Sum(nil))
}

// Get returns the cached entry for a parameter vector.
func (c *Cache) Get(params []float64) (Entry, bool) {
	key := hashParams(params)
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	c.mu.Lock()
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	c.mu.Unlock()
	return e, ok
}

// Put stores the entry for a parameter vector, evicting the oldest entry
// when full.
func (c *Cache) Put(params []float64, e Entry) {
	key := hashParams(params)
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[key]; exists {
		c.entries[key] = e
		return
	}
	if c.maxSize > 0 && len(c.entries) >= c.maxSize {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
		c.evictions++
	}
	c.entries[key] = e
	c.order = append(c.order, key)
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns hit, miss and eviction counters.
func (c *Cache) Stats() (hits, misses, evictions int64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses, c.evictions
}

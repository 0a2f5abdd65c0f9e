package ephemeris

import (
	"container/list"
	"sync"

	"github.com/astrokairos/aspectarian/internal/metrics"
	"github.com/astrokairos/aspectarian/pkg/catalog"
)

// Cache memoizes position samples keyed by (time, body) with LRU eviction.
// Purely an optimization: results are identical with or without it, and
// any entry may be evicted at any time. Safe for concurrent use.
type Cache struct {
	mu       sync.Mutex
	capacity int
	order    *list.List // front = most recently used
	entries  map[cacheKey]*list.Element
}

type cacheKey struct {
	jd   float64
	body catalog.Body
}

type cacheEntry struct {
	key    cacheKey
	sample PositionSample
}

// NewCache creates a cache bounded to capacity entries. A capacity of zero
// or less disables storage entirely.
func NewCache(capacity int) *Cache {
	return &Cache{
		capacity: capacity,
		order:    list.New(),
		entries:  make(map[cacheKey]*list.Element),
	}
}

func (c *Cache) get(jd float64, body catalog.Body) (PositionSample, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[cacheKey{jd, body}]
	if !ok {
		metrics.PositionCacheMisses.Inc()
		return PositionSample{}, false
	}
	c.order.MoveToFront(el)
	metrics.PositionCacheHits.Inc()
	return el.Value.(*cacheEntry).sample, true
}

func (c *Cache) put(jd float64, body catalog.Body, sample PositionSample) {
	if c.capacity <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey{jd, body}
	if el, ok := c.entries[key]; ok {
		el.Value.(*cacheEntry).sample = sample
		c.order.MoveToFront(el)
		return
	}

	c.entries[key] = c.order.PushFront(&cacheEntry{key: key, sample: sample})
	for c.order.Len() > c.capacity {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).key)
	}
}

// Clear drops every cached entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order.Init()
	c.entries = make(map[cacheKey]*list.Element)
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

package cache

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// MemoryCache is the in-memory LRU tier: bounded by max entries and an
// approximate byte budget, evicting the least-recently-used entries
// first.
type MemoryCache struct {
	mu        sync.Mutex
	items     *lru.Cache[string, Entry]
	maxBytes  int64
	curBytes  int64
	maxItems  int
}

// NewMemoryCache constructs a bounded in-memory cache tier.
func NewMemoryCache(maxItems int, maxBytes int64) *MemoryCache {
	c := &MemoryCache{maxBytes: maxBytes, maxItems: maxItems}
	items, err := lru.NewWithEvict[string, Entry](maxItems, func(_ string, v Entry) {
		c.curBytes -= int64(len(v.Value))
	})
	if err != nil {
		// maxItems <= 0 is a programmer error; fall back to a
		// single-entry cache rather than panicking at request time.
		items, _ = lru.New[string, Entry](1)
	}
	c.items = items
	return c
}

// Get returns the cached value if present and unexpired.
func (c *MemoryCache) Get(key string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.items.Get(key)
	if !ok {
		return Entry{}, false
	}
	if entry.expired(time.Now()) {
		c.items.Remove(key) // the eviction callback releases its bytes
		return Entry{}, false
	}
	return entry, true
}

// Put inserts or replaces a cache entry, evicting older entries until
// both the item-count and byte-budget caps are satisfied.
func (c *MemoryCache) Put(key string, entry Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.items.Peek(key); ok {
		c.curBytes -= int64(len(old.Value))
	}

	c.items.Add(key, entry)
	c.curBytes += int64(len(entry.Value))

	for c.curBytes > c.maxBytes && c.items.Len() > 0 {
		// RemoveOldest fires the eviction callback, which releases the
		// evicted entry's bytes.
		if _, _, ok := c.items.RemoveOldest(); !ok {
			break
		}
	}
}

// CleanupExpired removes all expired entries. Intended to be called
// periodically as well as opportunistically on read.
func (c *MemoryCache) CleanupExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for _, key := range c.items.Keys() {
		entry, ok := c.items.Peek(key)
		if ok && entry.expired(now) {
			c.items.Remove(key) // the eviction callback releases its bytes
		}
	}
}

// Len returns the current number of cached entries.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.items.Len()
}

// Bytes returns the current approximate byte usage.
func (c *MemoryCache) Bytes() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.curBytes
}

// Clear empties the cache.
func (c *MemoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items.Purge()
	c.curBytes = 0
}

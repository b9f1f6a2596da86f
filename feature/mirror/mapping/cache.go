package mapping

import (
	"sync"
	"time"

	"stock-mirror/feature/mirror/models"
)

type cacheEntry struct {
	mapping   models.ProductMapping
	expiresAt time.Time
}

// Cache is the in-memory, TTL-bounded shadow of the mapping store. It is an
// owned component with an injected clock, not ambient global state, so tests
// can control time and isolate runs.
type Cache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	clock   func() time.Time
	entries map[string]cacheEntry
}

// NewCache creates a cache with the given TTL. A nil clock means time.Now.
func NewCache(ttl time.Duration, clock func() time.Time) *Cache {
	if clock == nil {
		clock = time.Now
	}
	return &Cache{
		ttl:     ttl,
		clock:   clock,
		entries: make(map[string]cacheEntry),
	}
}

// Get returns the cached mapping for a barcode, or false when absent or
// expired. Expired entries are left for Put to overwrite; Get never mutates.
func (c *Cache) Get(barcode string) (*models.ProductMapping, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[barcode]
	if !ok {
		return nil, false
	}
	if c.clock().After(entry.expiresAt) {
		return nil, false
	}
	copied := entry.mapping
	return &copied, true
}

// Put stores a mapping, restarting its TTL.
func (c *Cache) Put(m *models.ProductMapping) {
	if m == nil || m.Barcode == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[m.Barcode] = cacheEntry{
		mapping:   *m,
		expiresAt: c.clock().Add(c.ttl),
	}
}

// Invalidate removes a single barcode from the cache.
func (c *Cache) Invalidate(barcode string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, barcode)
}

// Len returns the number of entries, expired ones included.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

package extract

import (
	"sync"
	"time"

	"github.com/fwojciec/glimpse"
)

// Cache defaults.
const (
	DefaultCacheTTL      = 60 * time.Second
	DefaultCacheCapacity = 10
)

var _ glimpse.PreviewCache = (*Cache)(nil)

// Cache is a small in-memory preview cache with a time-to-live and
// oldest-inserted-first eviction.
type Cache struct {
	TTL      time.Duration
	Capacity int
	Now      func() time.Time

	mu      sync.Mutex
	entries map[string]cacheEntry
	order   []string // insertion order, oldest first
}

type cacheEntry struct {
	preview  *glimpse.Preview
	storedAt time.Time
}

// NewCache returns a Cache with the default TTL and capacity.
func NewCache() *Cache {
	return &Cache{TTL: DefaultCacheTTL, Capacity: DefaultCacheCapacity, Now: time.Now}
}

// Get returns the preview stored under key, or nil when absent or expired.
// Expired entries are dropped.
func (c *Cache) Get(key string) *glimpse.Preview {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil
	}
	if c.now().Sub(e.storedAt) >= c.ttl() {
		c.remove(key)
		return nil
	}
	return e.preview
}

// Set stores p under key. Re-setting a key counts as a new insertion.
func (c *Cache) Set(key string, p *glimpse.Preview) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.entries == nil {
		c.entries = make(map[string]cacheEntry)
	}
	if _, ok := c.entries[key]; ok {
		c.remove(key)
	}
	c.entries[key] = cacheEntry{preview: p, storedAt: c.now()}
	c.order = append(c.order, key)

	for len(c.order) > c.capacity() {
		c.remove(c.order[0])
	}
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = nil
	c.order = nil
}

// Len returns the number of stored entries, expired or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) remove(key string) {
	delete(c.entries, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}

func (c *Cache) ttl() time.Duration {
	if c.TTL > 0 {
		return c.TTL
	}
	return DefaultCacheTTL
}

func (c *Cache) capacity() int {
	if c.Capacity > 0 {
		return c.Capacity
	}
	return DefaultCacheCapacity
}

func (c *Cache) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}

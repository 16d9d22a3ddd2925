package cache

import (
	gocache "github.com/patrickmn/go-cache"
)

// MemoryCache implements in-memory caching of resolution results. Entries
// never expire within a process; a run is short-lived.
type MemoryCache struct {
	cache *gocache.Cache
}

// NewMemoryCache creates a new memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		cache: gocache.New(gocache.NoExpiration, 0),
	}
}

// Get retrieves a resolved id from the cache.
func (c *MemoryCache) Get(key string) (int, bool) {
	if val, found := c.cache.Get(key); found {
		return val.(int), true
	}
	return 0, false
}

// Set stores a resolved id in the cache.
func (c *MemoryCache) Set(key string, id int) {
	c.cache.Set(key, id, gocache.NoExpiration)
}

// Delete removes a value from the cache.
func (c *MemoryCache) Delete(key string) {
	c.cache.Delete(key)
}

// Clear removes all values from the cache.
func (c *MemoryCache) Clear() {
	c.cache.Flush()
}

package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/eaninfo/backend/internal/domain"
)

// LRUCache is a size-bounded cache. Every entry shares the TTL given at
// construction; the per-call ttl passed to Set is capped by it.
type LRUCache struct {
	entries *expirable.LRU[string, lruEntry]
}

type lruEntry struct {
	value      []byte
	expiration time.Time
}

// NewLRUCache creates a cache holding at most size entries for at most ttl
func NewLRUCache(size int, ttl time.Duration) *LRUCache {
	return &LRUCache{
		entries: expirable.NewLRU[string, lruEntry](size, nil, ttl),
	}
}

// Get retrieves a value from the cache
func (c *LRUCache) Get(ctx context.Context, key string) ([]byte, error) {
	entry, ok := c.entries.Get(key)
	if !ok || time.Now().After(entry.expiration) {
		return nil, domain.ErrCacheMiss
	}
	return cloneBytes(entry.value), nil
}

// Set stores a value in the cache
func (c *LRUCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.entries.Add(key, lruEntry{
		value:      cloneBytes(value),
		expiration: time.Now().Add(ttl),
	})
	return nil
}

// Delete removes a value from the cache
func (c *LRUCache) Delete(ctx context.Context, key string) error {
	c.entries.Remove(key)
	return nil
}

// Exists checks if a key exists in the cache and is not expired
func (c *LRUCache) Exists(ctx context.Context, key string) (bool, error) {
	entry, ok := c.entries.Peek(key)
	if !ok || time.Now().After(entry.expiration) {
		return false, nil
	}
	return true, nil
}

// Size returns the current number of items in the cache
func (c *LRUCache) Size() int {
	return c.entries.Len()
}

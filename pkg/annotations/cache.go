package annotations

import (
	"github.com/google/uuid"

	"github.com/toyz/docnote/internal/store"
)

// Cache stores parsed bags keyed by a fingerprint of the raw comment.
//
// Implementations must tolerate concurrent Get/Set on the same key: a race
// can only cause a redundant parse and an overwrite with an equal bag.
type Cache interface {
	// Key returns a deterministic fingerprint of raw
	Key(raw string) string
	// Get returns the bag stored under key
	Get(key string) (*Bag, bool)
	// Set stores bag under key
	Set(key string, bag *Bag) error
}

var contentNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/toyz/docnote"))

// ContentKey fingerprints a raw comment as a name-based (SHA-1) UUID
func ContentKey(raw string) string {
	return uuid.NewSHA1(contentNamespace, []byte(raw)).String()
}

// CacheStats provides cache statistics
type CacheStats struct {
	Size   int
	Hits   int64
	Misses int64
}

// MemoryCache keeps bags in process memory
type MemoryCache struct {
	items *store.Cache[string, *Bag]
}

// NewMemoryCache creates an empty in-memory cache
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		items: store.NewCache[string, *Bag](),
	}
}

// Key returns ContentKey(raw)
func (c *MemoryCache) Key(raw string) string {
	return ContentKey(raw)
}

// Get returns the bag stored under key
func (c *MemoryCache) Get(key string) (*Bag, bool) {
	return c.items.Get(key)
}

// Set stores bag under key. Bags are immutable and stored by reference.
func (c *MemoryCache) Set(key string, bag *Bag) error {
	c.items.Set(key, bag)
	return nil
}

// Clear removes every entry and resets statistics
func (c *MemoryCache) Clear() {
	c.items.Clear()
}

// Stats returns size and hit/miss counters
func (c *MemoryCache) Stats() CacheStats {
	stats := c.items.GetStats()
	return CacheStats{
		Size:   stats.Size,
		Hits:   stats.Hits,
		Misses: stats.Misses,
	}
}

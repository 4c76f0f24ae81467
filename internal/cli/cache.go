package cli

import (
	"sync/atomic"

	"github.com/toyz/docnote/internal/diagnostics"
	"github.com/toyz/docnote/pkg/annotations"
)

// tracedCache counts the lookups of a reader cache and traces them at debug level
type tracedCache struct {
	annotations.Cache
	diagnostics *diagnostics.System
	hits        atomic.Int64
	misses      atomic.Int64
}

func newTracedCache(cache annotations.Cache, diag *diagnostics.System) *tracedCache {
	return &tracedCache{Cache: cache, diagnostics: diag}
}

// Get looks key up in the wrapped cache
func (c *tracedCache) Get(key string) (*annotations.Bag, bool) {
	bag, ok := c.Cache.Get(key)
	if ok {
		c.hits.Add(1)
		c.diagnostics.Debug("cache hit %s", key)
	} else {
		c.misses.Add(1)
		c.diagnostics.Debug("cache miss %s", key)
	}
	return bag, ok
}

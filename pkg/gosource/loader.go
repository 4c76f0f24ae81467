package gosource

import (
	"context"
	"strconv"
	"strings"

	"github.com/toyz/docnote/internal/store"
)

// Loader reuses sources across loads with identical configuration and
// patterns. Failed loads are not cached.
type Loader struct {
	sources *store.Cache[string, *Source]
}

// NewLoader creates a loader with an empty cache
func NewLoader() *Loader {
	return &Loader{
		sources: store.NewCache[string, *Source](),
	}
}

// Load returns the cached source for cfg and patterns, loading it on a miss
func (l *Loader) Load(ctx context.Context, cfg Config, patterns ...string) (*Source, error) {
	return l.sources.GetOrCompute(loadKey(cfg, patterns), func() (*Source, error) {
		return Load(ctx, cfg, patterns...)
	})
}

// Stats returns the number of cached sources and the hit/miss counters
func (l *Loader) Stats() store.CacheStats {
	return l.sources.GetStats()
}

func loadKey(cfg Config, patterns []string) string {
	var b strings.Builder
	b.WriteString(cfg.Dir)
	b.WriteByte(0)
	b.WriteString(strconv.FormatBool(cfg.Tests))
	for _, part := range [][]string{cfg.Env, patterns} {
		b.WriteByte(0)
		b.WriteString(strings.Join(part, "\x1f"))
	}
	return b.String()
}

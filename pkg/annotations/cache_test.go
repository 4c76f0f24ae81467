package annotations

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

func TestContentKey(t *testing.T) {
	a := ContentKey("// @a 1")
	b := ContentKey("// @a 1")
	c := ContentKey("// @a 2")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)

	parsed, err := uuid.Parse(a)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(5), parsed.Version())
}

func TestMemoryCache(t *testing.T) {
	cache := NewMemoryCache()
	bag := Parse("// @a 1", nil)
	key := cache.Key("// @a 1")

	_, ok := cache.Get(key)
	assert.False(t, ok)

	require.NoError(t, cache.Set(key, bag))
	got, ok := cache.Get(key)
	require.True(t, ok)
	assert.Same(t, bag, got)

	stats := cache.Stats()
	assert.Equal(t, CacheStats{Size: 1, Hits: 1, Misses: 1}, stats)

	cache.Clear()
	assert.Equal(t, CacheStats{}, cache.Stats())
}

func TestFileCache_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	cache, err := NewFileCache(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, cache.Dir())

	bag := Parse(sampleComment, nil)
	key := cache.Key(sampleComment)
	require.NoError(t, cache.Set(key, bag))

	_, err = os.Stat(filepath.Join(dir, key+".msgpack"))
	require.NoError(t, err)

	// a fresh instance reads what the previous one wrote
	reopened, err := NewFileCache(dir)
	require.NoError(t, err)

	got, ok := reopened.Get(key)
	require.True(t, ok)
	assert.True(t, bag.Equal(got))

	ratio, _ := got.Get("ratio")
	assert.Equal(t, FloatKind, ratio.Kind())
	version, _ := got.Get("version")
	assert.Equal(t, IntegerKind, version.Kind())
}

func TestFileCache_Misses(t *testing.T) {
	dir := t.TempDir()
	cache, err := NewFileCache(dir)
	require.NoError(t, err)

	_, ok := cache.Get(cache.Key("never stored"))
	assert.False(t, ok)

	corrupt := cache.Key("corrupt")
	require.NoError(t, os.WriteFile(filepath.Join(dir, corrupt+".msgpack"), []byte{0xc1, 0x00}, 0o644))
	_, ok = cache.Get(corrupt)
	assert.False(t, ok)

	outdated := cache.Key("outdated")
	data, err := msgpack.Marshal(wireBag{Version: wireVersion + 1, Names: []string{"a"}})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, outdated+".msgpack"), data, 0o644))
	_, ok = cache.Get(outdated)
	assert.False(t, ok)
}

func TestFileCache_InvalidKeys(t *testing.T) {
	cache, err := NewFileCache(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"", "../escape", "a/b", ".hidden"} {
		assert.Error(t, cache.Set(key, Parse("// @a", nil)), "key %q", key)
		_, ok := cache.Get(key)
		assert.False(t, ok, "key %q", key)
	}
}

func TestFileCache_Clear(t *testing.T) {
	dir := t.TempDir()
	cache, err := NewFileCache(dir)
	require.NoError(t, err)

	for _, raw := range []string{"// @a", "// @b", "// @c"} {
		require.NoError(t, cache.Set(cache.Key(raw), Parse(raw, nil)))
	}

	require.NoError(t, cache.Clear())
	matches, err := filepath.Glob(filepath.Join(dir, "*"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestFileCache_ConcurrentWrites(t *testing.T) {
	cache, err := NewFileCache(t.TempDir())
	require.NoError(t, err)

	bag := Parse(sampleComment, nil)
	key := cache.Key(sampleComment)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, cache.Set(key, bag))
		}()
	}
	wg.Wait()

	got, ok := cache.Get(key)
	require.True(t, ok)
	assert.True(t, bag.Equal(got))
}

func TestNewFileCache_EmptyDir(t *testing.T) {
	_, err := NewFileCache("")
	assert.Error(t, err)
}

package symbols

import (
	"sync"
	"testing"

	"github.com/agusespa/diffscope/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCacheKey(t *testing.T) {
	a := NewCacheKey("src/a.ts", []byte("export const a = 1;"))
	b := NewCacheKey("src/a.ts", []byte("export const a = 1;"))
	c := NewCacheKey("src/a.ts", []byte("export const a = 2;"))
	d := NewCacheKey("src/b.ts", []byte("export const a = 1;"))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.NotEqual(t, a, d)
	assert.Equal(t, a.ContentHash, d.ContentHash)
	assert.Len(t, a.ContentHash, 16)
}

func TestMemoryCache(t *testing.T) {
	cache := NewMemoryCache()
	key := NewCacheKey("src/a.ts", []byte("x"))
	decls := []types.SymbolDeclaration{{Name: "a", Kind: types.SymbolFunction, DefinitionLine: 1}}

	_, ok := cache.Get(key)
	assert.False(t, ok)

	cache.Put(key, decls)
	got, ok := cache.Get(key)
	require.True(t, ok)
	assert.Equal(t, decls, got)
	assert.Equal(t, 1, cache.Len())

	// Callers cannot mutate cached entries.
	got[0].Name = "mutated"
	again, _ := cache.Get(key)
	assert.Equal(t, "a", again[0].Name)

	cache.Put(key, []types.SymbolDeclaration{{Name: "other"}})
	again, _ = cache.Get(key)
	assert.Equal(t, "a", again[0].Name)
	assert.Equal(t, 1, cache.Len())

	cache.Clear()
	assert.Equal(t, 0, cache.Len())
	_, ok = cache.Get(key)
	assert.False(t, ok)
}

func TestMemoryCache_Concurrent(t *testing.T) {
	cache := NewMemoryCache()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			key := NewCacheKey("src/shared.ts", []byte("same"))
			cache.Put(key, []types.SymbolDeclaration{{Name: "shared"}})
			_, _ = cache.Get(key)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, cache.Len())
}

package symbols

import (
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/agusespa/diffscope/internal/types"
	"github.com/zeebo/xxh3"
)

// CacheKey identifies an extraction result. The content hash alone decides
// the declarations; the path is kept so identical files at different paths
// stay distinct entries.
type CacheKey struct {
	Path        string
	ContentHash string
}

// NewCacheKey hashes content with xxh3.
func NewCacheKey(path string, content []byte) CacheKey {
	return CacheKey{Path: path, ContentHash: fmt.Sprintf("%016x", xxh3.Hash(content))}
}

// Cache stores declarations by content. Entries are never invalidated:
// different content always has a different key.
type Cache interface {
	Get(key CacheKey) ([]types.SymbolDeclaration, bool)
	Put(key CacheKey, decls []types.SymbolDeclaration)
}

// MemoryCache is a process-wide Cache safe for concurrent use.
type MemoryCache struct {
	entries sync.Map
	size    atomic.Int64
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{}
}

func (c *MemoryCache) Get(key CacheKey) ([]types.SymbolDeclaration, bool) {
	v, ok := c.entries.Load(key)
	if !ok {
		return nil, false
	}
	return slices.Clone(v.([]types.SymbolDeclaration)), true
}

// Put keeps the first value stored for a key.
func (c *MemoryCache) Put(key CacheKey, decls []types.SymbolDeclaration) {
	if _, loaded := c.entries.LoadOrStore(key, slices.Clone(decls)); !loaded {
		c.size.Add(1)
	}
}

func (c *MemoryCache) Len() int {
	return int(c.size.Load())
}

func (c *MemoryCache) Clear() {
	c.entries.Range(func(k, _ any) bool {
		if _, ok := c.entries.LoadAndDelete(k); ok {
			c.size.Add(-1)
		}
		return true
	})
}

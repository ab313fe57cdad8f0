package querylang

import (
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/crypto/blake2b"
)

// DefaultCacheCapacity is the parsed-AST cache's default LRU size.
const DefaultCacheCapacity = 1000

// Cache is a parsed-AST LRU cache keyed by the source query string,
// grounded on velesql/cache.rs's cache-in-front-of-the-parser design.
// Keys are blake2b-256 digests rather than the raw source string, both to
// bound key size for long queries and because blake2b is already this
// lineage's hash of choice (pkg/index persistence content-addressing)
// rather than reaching for fnv or sha256.
type Cache struct {
	lru *lru.Cache[[32]byte, *Query]
}

// NewCache creates a parsed-AST cache with the given capacity.
func NewCache(capacity int) (*Cache, error) {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	l, err := lru.New[[32]byte, *Query](capacity)
	if err != nil {
		return nil, err
	}
	return &Cache{lru: l}, nil
}

func cacheKey(src string) [32]byte {
	return blake2b.Sum256([]byte(src))
}

// ParseCached parses src, serving a cached AST when src has been parsed
// before and inserting a freshly parsed one otherwise. A cache hit still
// costs a hash of the full source string, the same tradeoff velesql's
// cache.rs makes in exchange for never needing to invalidate on anything
// but capacity eviction.
func (c *Cache) ParseCached(src string) (*Query, error) {
	key := cacheKey(src)
	if q, ok := c.lru.Get(key); ok {
		return q, nil
	}
	q, err := Parse(src)
	if err != nil {
		return nil, err
	}
	c.lru.Add(key, q)
	return q, nil
}

// Len reports the number of cached entries.
func (c *Cache) Len() int { return c.lru.Len() }

// Purge empties the cache.
func (c *Cache) Purge() { c.lru.Purge() }

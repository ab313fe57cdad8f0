package querylang

import (
	"fmt"
	"testing"
)

func TestCacheReturnsSameParseOnHit(t *testing.T) {
	c, err := NewCache(4)
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}
	src := "SELECT * FROM t WHERE a = 1"

	first, err := c.ParseCached(src)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if c.Len() != 1 {
		t.Fatalf("expected 1 cached entry, got %d", c.Len())
	}

	second, err := c.ParseCached(src)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if first != second {
		t.Error("expected cache hit to return the same AST pointer")
	}
}

func TestCacheEvictsAtCapacity(t *testing.T) {
	c, err := NewCache(2)
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}
	queries := []string{
		"SELECT * FROM a",
		"SELECT * FROM b",
		"SELECT * FROM c",
	}
	for _, q := range queries {
		if _, err := c.ParseCached(q); err != nil {
			t.Fatalf("parse %q: %v", q, err)
		}
	}
	if c.Len() != 2 {
		t.Fatalf("expected capacity-bounded length 2, got %d", c.Len())
	}
}

func TestCachePropagatesParseErrors(t *testing.T) {
	c, err := NewCache(4)
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}
	if _, err := c.ParseCached("SELECT FROM"); err == nil {
		t.Fatal("expected parse error to propagate")
	}
	if c.Len() != 0 {
		t.Errorf("expected failed parse not to be cached, got len %d", c.Len())
	}
}

func TestDefaultCacheCapacityUsedWhenNonPositive(t *testing.T) {
	c, err := NewCache(0)
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}
	if c.lru.Len() != 0 {
		t.Fatalf("expected empty cache")
	}
	for i := 0; i < DefaultCacheCapacity+1; i++ {
		if _, err := c.ParseCached(fmt.Sprintf("SELECT * FROM t%d", i)); err != nil {
			t.Fatalf("parse: %v", err)
		}
	}
	if c.Len() != DefaultCacheCapacity {
		t.Fatalf("expected length bounded by DefaultCacheCapacity %d, got %d", DefaultCacheCapacity, c.Len())
	}
}

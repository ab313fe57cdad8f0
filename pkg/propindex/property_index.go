// Package propindex implements the two equality/range secondary indexes
// described by spec §4.7: a property (equality) index keyed by
// (label, property) -> {json value -> set of node ids}, and a range index
// over the same keyspace ordered by OrderedValue, supporting half-open and
// closed range scans. Neither has a direct teacher counterpart; both are
// grounded on original_source/crates/velesdb-core/src/collection/graph's
// property_index.rs/range_index.rs API shape (create/drop/insert/remove/
// lookup/cardinality/memory_usage), generalized from Rust's BTreeMap to a
// sorted Go slice for the range index.
package propindex

import (
	"encoding/json"
	"sync"
)

type propKey struct {
	label    string
	property string
}

// PropertyIndex supports O(1) equality lookup of node ids by
// (label, property, value).
type PropertyIndex struct {
	mu      sync.RWMutex
	indexes map[propKey]map[string]map[uint64]struct{}
}

// NewPropertyIndex creates an empty property index.
func NewPropertyIndex() *PropertyIndex {
	return &PropertyIndex{indexes: make(map[propKey]map[string]map[uint64]struct{})}
}

// CreateIndex registers (label, property) for indexing. Idempotent.
func (p *PropertyIndex) CreateIndex(label, property string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	key := propKey{label, property}
	if _, ok := p.indexes[key]; !ok {
		p.indexes[key] = make(map[string]map[uint64]struct{})
	}
}

// HasIndex reports whether (label, property) is indexed.
func (p *PropertyIndex) HasIndex(label, property string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.indexes[propKey{label, property}]
	return ok
}

// DropIndex removes the index for (label, property), returning whether one
// existed.
func (p *PropertyIndex) DropIndex(label, property string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	key := propKey{label, property}
	if _, ok := p.indexes[key]; !ok {
		return false
	}
	delete(p.indexes, key)
	return true
}

// valueKey canonicalizes a JSON value for use as a map key. json.Marshal
// produces a stable representation for the null/bool/number/string values
// this index is meant to carry.
func valueKey(value any) (string, bool) {
	b, err := json.Marshal(value)
	if err != nil {
		return "", false
	}
	return string(b), true
}

// Insert records id under value in the (label, property) index. Returns
// false without error if the pair is unindexed, per spec.
func (p *PropertyIndex) Insert(label, property string, value any, id uint64) bool {
	key, ok := valueKey(value)
	if !ok {
		return false
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	byValue, ok := p.indexes[propKey{label, property}]
	if !ok {
		return false
	}
	ids, ok := byValue[key]
	if !ok {
		ids = make(map[uint64]struct{})
		byValue[key] = ids
	}
	ids[id] = struct{}{}
	return true
}

// Remove deletes id from value's posting set in (label, property). Returns
// false without error if the pair is unindexed.
func (p *PropertyIndex) Remove(label, property string, value any, id uint64) bool {
	key, ok := valueKey(value)
	if !ok {
		return false
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	byValue, ok := p.indexes[propKey{label, property}]
	if !ok {
		return false
	}
	ids, ok := byValue[key]
	if !ok {
		return false
	}
	delete(ids, id)
	if len(ids) == 0 {
		delete(byValue, key)
	}
	return true
}

// Lookup returns the set of node ids matching value under (label, property).
// The second return reports whether the pair is indexed at all; callers
// should fall back to a full scan when it's false, per spec.
func (p *PropertyIndex) Lookup(label, property string, value any) ([]uint64, bool) {
	key, ok := valueKey(value)
	if !ok {
		return nil, false
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	byValue, ok := p.indexes[propKey{label, property}]
	if !ok {
		return nil, false
	}
	ids, ok := byValue[key]
	if !ok {
		return []uint64{}, true
	}
	out := make([]uint64, 0, len(ids))
	for id := range ids {
		out = append(out, id)
	}
	return out, true
}

// Cardinality returns the number of distinct values indexed for
// (label, property), and whether the pair is indexed.
func (p *PropertyIndex) Cardinality(label, property string) (int, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	byValue, ok := p.indexes[propKey{label, property}]
	if !ok {
		return 0, false
	}
	return len(byValue), true
}

// Indexed returns every currently-declared (label, property) pair, so a
// caller updating or deleting a node can refresh exactly the indexes that
// apply to it without needing its own separate registry of what's indexed.
func (p *PropertyIndex) Indexed() [][2]string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([][2]string, 0, len(p.indexes))
	for key := range p.indexes {
		out = append(out, [2]string{key.label, key.property})
	}
	return out
}

// MemoryUsage returns a rough byte estimate of index footprint: useful for
// relative comparison across indexes, not an exact allocator figure.
func (p *PropertyIndex) MemoryUsage() int {
	p.mu.RLock()
	defer p.mu.RUnlock()

	const idSize = 8
	const bucketOverhead = 48
	total := 0
	for _, byValue := range p.indexes {
		for key, ids := range byValue {
			total += bucketOverhead + len(key) + len(ids)*idSize
		}
	}
	return total
}

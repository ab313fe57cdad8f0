// Package idmap implements the sharded bidirectional mapping between
// external point ids (uint64) and internal HNSW/vecstore slot indices
// (uint64), grounded on velesdb's ShardedMappings (DashMap + atomic
// counter). Go has no DashMap; shards of map+RWMutex plus an atomic counter
// give the same "lock-free-ish reads, sharded writes, atomic index
// allocation" shape without a borrowed concurrent-map dependency.
package idmap

import (
	"sync"
	"sync/atomic"
)

const numShards = 32

type shard struct {
	mu      sync.RWMutex
	idToIdx map[uint64]uint64
}

// Mappings is a sharded, bidirectional id<->idx map with atomic
// get-or-insert semantics: the first writer for an id allocates the next
// internal index; subsequent writers for the same id are no-ops that
// return the existing index.
type Mappings struct {
	idShards  [numShards]shard
	idxToID   sync.Map // uint64 idx -> uint64 id
	nextIdx   atomic.Uint64
	liveCount atomic.Int64
}

// New returns an empty Mappings.
func New() *Mappings {
	m := &Mappings{}
	for i := range m.idShards {
		m.idShards[i].idToIdx = make(map[uint64]uint64)
	}
	return m
}

func (m *Mappings) shardFor(id uint64) *shard {
	return &m.idShards[id%numShards]
}

// Register performs an atomic get-or-insert: if id is new, it allocates the
// next internal index (atomic fetch-add) and returns (idx, true). If id is
// already registered, it returns the existing index and false — the
// "duplicates are no-ops" rule from spec §4.4 step 2.
func (m *Mappings) Register(id uint64) (idx uint64, inserted bool) {
	s := m.shardFor(id)

	s.mu.RLock()
	if existing, ok := s.idToIdx[id]; ok {
		s.mu.RUnlock()
		return existing, false
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.idToIdx[id]; ok {
		// lost the race between RUnlock and Lock; another writer beat us
		return existing, false
	}

	newIdx := m.nextIdx.Add(1) - 1
	s.idToIdx[id] = newIdx
	m.idxToID.Store(newIdx, id)
	m.liveCount.Add(1)
	return newIdx, true
}

// GetIdx returns the internal index for an external id.
func (m *Mappings) GetIdx(id uint64) (uint64, bool) {
	s := m.shardFor(id)
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.idToIdx[id]
	return idx, ok
}

// GetID returns the external id for an internal index.
func (m *Mappings) GetID(idx uint64) (uint64, bool) {
	v, ok := m.idxToID.Load(idx)
	if !ok {
		return 0, false
	}
	return v.(uint64), true
}

// Remove deletes id's mapping and returns the freed internal index. Per
// spec §4.5, the freed index is not reused by this package — the vecstore
// free-list is a separate concern and may reuse the underlying vector slot
// independently.
func (m *Mappings) Remove(id uint64) (idx uint64, ok bool) {
	s := m.shardFor(id)
	s.mu.Lock()
	idx, ok = s.idToIdx[id]
	if ok {
		delete(s.idToIdx, id)
	}
	s.mu.Unlock()

	if ok {
		m.idxToID.Delete(idx)
		m.liveCount.Add(-1)
	}
	return idx, ok
}

// Contains reports whether id is currently registered.
func (m *Mappings) Contains(id uint64) bool {
	_, ok := m.GetIdx(id)
	return ok
}

// Len returns the number of currently-live mappings (post-removal).
func (m *Mappings) Len() int {
	return int(m.liveCount.Load())
}

// NextIdx returns the total number of indices ever allocated, including
// ones later removed. This is the tombstone-ratio denominator: Len() is the
// live count, NextIdx() is the allocated count, and the difference is the
// tombstone count.
func (m *Mappings) NextIdx() uint64 {
	return m.nextIdx.Load()
}

// Each calls fn for every currently-live (id, idx) pair. fn must not call
// back into Mappings; Each holds no lock across the callback but iterates a
// live snapshot of each shard to avoid holding any one shard's lock for the
// whole walk.
func (m *Mappings) Each(fn func(id, idx uint64)) {
	for i := range m.idShards {
		s := &m.idShards[i]
		s.mu.RLock()
		snapshot := make(map[uint64]uint64, len(s.idToIdx))
		for id, idx := range s.idToIdx {
			snapshot[id] = idx
		}
		s.mu.RUnlock()

		for id, idx := range snapshot {
			fn(id, idx)
		}
	}
}

// Parts is the (id->idx, next-idx) snapshot persisted to id_mappings.bin.
type Parts struct {
	IDToIdx map[uint64]uint64
	NextIdx uint64
}

// AsParts returns a serializable snapshot, mirroring velesdb's
// ShardedMappings::as_parts.
func (m *Mappings) AsParts() Parts {
	out := Parts{IDToIdx: make(map[uint64]uint64)}
	m.Each(func(id, idx uint64) {
		out.IDToIdx[id] = idx
	})
	out.NextIdx = m.nextIdx.Load()
	return out
}

// FromParts rebuilds a Mappings from a persisted snapshot, mirroring
// velesdb's ShardedMappings::from_parts. Used when reopening a collection.
func FromParts(p Parts) *Mappings {
	m := New()
	for id, idx := range p.IDToIdx {
		s := m.shardFor(id)
		s.idToIdx[id] = idx
		m.idxToID.Store(idx, id)
	}
	m.liveCount.Store(int64(len(p.IDToIdx)))
	m.nextIdx.Store(p.NextIdx)
	return m
}

package vecstore

import "sync"

// numFreeShards is the shard count for the sharded free-list. Sharding
// spreads delete/reuse contention the same way the edge-store layer
// shards its own locks, rather than using one lock for the whole
// store.
const numFreeShards = 16

type freeShard struct {
	mu    sync.Mutex
	slots []uint64
}

type freeList struct {
	shards [numFreeShards]freeShard
	next   int // round-robin shard to check on take(), not synchronized precisely
	nextMu sync.Mutex
}

func newFreeList() *freeList {
	return &freeList{}
}

func (f *freeList) give(slot uint64) {
	shard := &f.shards[slot%numFreeShards]
	shard.mu.Lock()
	shard.slots = append(shard.slots, slot)
	shard.mu.Unlock()
}

// take returns a freed slot if one is available, checking shards starting
// from a rotating offset so reuse isn't biased toward low shard indexes.
func (f *freeList) take() (uint64, bool) {
	f.nextMu.Lock()
	start := f.next
	f.next = (f.next + 1) % numFreeShards
	f.nextMu.Unlock()

	for i := 0; i < numFreeShards; i++ {
		idx := (start + i) % numFreeShards
		shard := &f.shards[idx]

		shard.mu.Lock()
		if n := len(shard.slots); n > 0 {
			slot := shard.slots[n-1]
			shard.slots = shard.slots[:n-1]
			shard.mu.Unlock()
			return slot, true
		}
		shard.mu.Unlock()
	}
	return 0, false
}

// Package ttl tracks optional per-id expiration timestamps. It never
// deletes anything itself: expiry only produces a list of ids the caller
// is responsible for removing from the collection's other indexes
// (payload store, HNSW graph, BM25 index, property index), matching
// spec §3's "no automatic eviction is assumed" note.
//
// Grounded on velesdb's agent/ttl.rs MemoryTtl: an id-to-(created_at,
// expires_at) map behind a single lock, a get-expired-ids query, and a
// byte-level serialize/deserialize pair for snapshotting. The
// consolidation/eviction-policy machinery ttl.rs also carries
// (EvictionConfig, ExpireResult, confidence-based procedural eviction)
// belongs to that crate's agent-memory subsystem, which this design has
// no counterpart for, so it isn't ported.
package ttl

import (
	"encoding/binary"
	"fmt"
	"sync"
	"time"
)

// Entry records when an id was created and when it expires, both as Unix
// seconds.
type Entry struct {
	CreatedAt int64
	ExpiresAt int64
}

// Tracker is a thread-safe id -> Entry map.
type Tracker struct {
	mu      sync.RWMutex
	entries map[uint64]Entry
	now     func() time.Time // overridable for deterministic tests
}

// New creates an empty Tracker.
func New() *Tracker {
	return &Tracker{entries: make(map[uint64]Entry), now: time.Now}
}

// SetTTL records that id expires ttl from now.
func (t *Tracker) SetTTL(id uint64, ttl time.Duration) {
	now := t.now().Unix()
	t.SetTTLWithCreatedAt(id, ttl, now)
}

// SetTTLWithCreatedAt records a TTL against an explicit creation time,
// for entries that were created in the past (e.g. replayed from a log).
func (t *Tracker) SetTTLWithCreatedAt(id uint64, ttl time.Duration, createdAt int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[id] = Entry{CreatedAt: createdAt, ExpiresAt: createdAt + int64(ttl/time.Second)}
}

// Remove stops tracking an id (e.g. because the caller deleted it
// outright, or cleared its TTL).
func (t *Tracker) Remove(id uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, id)
}

// Get returns the tracked entry for id, if any.
func (t *Tracker) Get(id uint64) (Entry, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.entries[id]
	return e, ok
}

// IsExpired reports whether id is tracked and past its expiry time.
func (t *Tracker) IsExpired(id uint64) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.entries[id]
	if !ok {
		return false
	}
	return e.ExpiresAt <= t.now().Unix()
}

// Expired returns the ids of all entries whose expiry has passed, without
// removing them — the caller deletes the underlying data first, then
// calls Expire (or Remove per id) once the delete has actually happened.
func (t *Tracker) Expired() []uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.expiredLocked()
}

func (t *Tracker) expiredLocked() []uint64 {
	now := t.now().Unix()
	var ids []uint64
	for id, e := range t.entries {
		if e.ExpiresAt <= now {
			ids = append(ids, id)
		}
	}
	return ids
}

// Expire both returns and stops tracking every expired id in one call,
// for callers that delete the underlying data synchronously right after.
func (t *Tracker) Expire() []uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	ids := t.expiredLocked()
	for _, id := range ids {
		delete(t.entries, id)
	}
	return ids
}

// Len returns the number of tracked entries.
func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// entryRecordSize is the byte width of one serialized (id, expires_at,
// created_at) record: three little-endian uint64/int64 fields.
const entryRecordSize = 24

// Serialize encodes the tracker's state as a flat binary blob (record
// count followed by fixed-width records), mirroring ttl.rs's
// serialize/deserialize wire format, for persistence alongside a
// collection's other on-disk state.
func (t *Tracker) Serialize() []byte {
	t.mu.RLock()
	defer t.mu.RUnlock()

	buf := make([]byte, 8, 8+len(t.entries)*entryRecordSize)
	binary.LittleEndian.PutUint64(buf, uint64(len(t.entries)))
	for id, e := range t.entries {
		var rec [entryRecordSize]byte
		binary.LittleEndian.PutUint64(rec[0:8], id)
		binary.LittleEndian.PutUint64(rec[8:16], uint64(e.ExpiresAt))
		binary.LittleEndian.PutUint64(rec[16:24], uint64(e.CreatedAt))
		buf = append(buf, rec[:]...)
	}
	return buf
}

// Deserialize rebuilds a Tracker from Serialize's output.
func Deserialize(data []byte) (*Tracker, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("ttl: truncated header: %d bytes", len(data))
	}
	count := binary.LittleEndian.Uint64(data[:8])
	want := 8 + count*entryRecordSize
	if uint64(len(data)) != want {
		return nil, fmt.Errorf("ttl: expected %d bytes for %d entries, got %d", want, count, len(data))
	}

	entries := make(map[uint64]Entry, count)
	for i := uint64(0); i < count; i++ {
		offset := 8 + i*entryRecordSize
		rec := data[offset : offset+entryRecordSize]
		id := binary.LittleEndian.Uint64(rec[0:8])
		expiresAt := int64(binary.LittleEndian.Uint64(rec[8:16]))
		createdAt := int64(binary.LittleEndian.Uint64(rec[16:24]))
		entries[id] = Entry{CreatedAt: createdAt, ExpiresAt: expiresAt}
	}
	return &Tracker{entries: entries, now: time.Now}, nil
}

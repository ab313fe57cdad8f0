// Package vecstore implements a collection's memory-mapped vector file:
// `[v0_d0 … v0_D-1][v1_d0 … v1_D-1] …`, read through a zero-copy guard that
// is only valid for the mapping epoch under which it was acquired.
//
// The design is carried over from velesdb's VectorSliceGuard (an epoch
// counter plus a held read-lock), translated from Rust's borrow-checked
// lifetimes to an explicit Go type: there is no compiler enforcement that a
// Guard is released before the next remap, so Slice panics on a stale
// epoch instead of silently reading moved memory.
package vecstore

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"
)

const bytesPerComponent = 4

// Store is a single collection's vector file, memory-mapped for zero-copy
// reads. Grow and Close are exclusive (they remap or unmap the file); slot
// reads and writes take a shared lock.
type Store struct {
	mu   sync.RWMutex
	file *os.File
	data []byte // current mmap'd region
	dim  int

	capacity uint64 // slots currently backed by the mapping
	nextSlot atomic.Uint64
	epoch    atomic.Uint64

	free *freeList
}

// Open maps (or creates) path as a vector file for vectors of dimension dim.
// initialSlots controls the first mapping size; Append grows the file as
// needed.
func Open(path string, dim int, initialSlots uint64) (*Store, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("vecstore: dimension must be positive, got %d", dim)
	}
	if initialSlots == 0 {
		initialSlots = 1024
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("vecstore: open %s: %w", path, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("vecstore: stat %s: %w", path, err)
	}

	existingSlots := uint64(info.Size()) / uint64(dim*bytesPerComponent)
	slots := initialSlots
	if existingSlots > slots {
		slots = existingSlots
	}

	s := &Store{
		file: f,
		dim:  dim,
		free: newFreeList(),
	}
	s.nextSlot.Store(existingSlots)

	if err := s.mapTo(slots); err != nil {
		f.Close()
		return nil, err
	}

	return s, nil
}

func (s *Store) mapTo(slots uint64) error {
	size := int64(slots) * int64(s.dim) * bytesPerComponent
	if err := s.file.Truncate(size); err != nil {
		return fmt.Errorf("vecstore: truncate: %w", err)
	}

	data, err := unix.Mmap(int(s.file.Fd()), 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return fmt.Errorf("vecstore: mmap: %w", err)
	}

	s.data = data
	s.capacity = slots
	return nil
}

// Grow remaps the file to hold at least minSlots slots. It is exclusive:
// it takes the write lock, remaps, and bumps the epoch so outstanding
// Guards become stale.
func (s *Store) Grow(minSlots uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if minSlots <= s.capacity {
		return nil
	}

	newCap := s.capacity * 2
	if newCap < minSlots {
		newCap = minSlots
	}

	if s.data != nil {
		if err := unix.Munmap(s.data); err != nil {
			return fmt.Errorf("vecstore: munmap during grow: %w", err)
		}
	}

	if err := s.mapTo(newCap); err != nil {
		return err
	}

	s.epoch.Add(1)
	return nil
}

// Append allocates the next slot (reusing a freed one if the free-list has
// one available) and writes vec into it, growing the mapping first if
// necessary. It returns the slot index.
func (s *Store) Append(vec []float32) (uint64, error) {
	if len(vec) != s.dim {
		return 0, fmt.Errorf("vecstore: dimension mismatch: store is %d, vector is %d", s.dim, len(vec))
	}

	if slot, ok := s.free.take(); ok {
		if err := s.writeSlot(slot, vec); err != nil {
			return 0, err
		}
		return slot, nil
	}

	slot := s.nextSlot.Add(1) - 1
	if slot >= s.capacityLoaded() {
		if err := s.Grow(slot + 1); err != nil {
			return 0, err
		}
	}

	if err := s.writeSlot(slot, vec); err != nil {
		return 0, err
	}
	return slot, nil
}

func (s *Store) capacityLoaded() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.capacity
}

func (s *Store) writeSlot(slot uint64, vec []float32) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	off := slot * uint64(s.dim) * bytesPerComponent
	if off+uint64(s.dim)*bytesPerComponent > uint64(len(s.data)) {
		return fmt.Errorf("vecstore: slot %d out of mapped range", slot)
	}

	dst := unsafe.Slice((*float32)(unsafe.Pointer(&s.data[off])), s.dim)
	copy(dst, vec)
	return nil
}

// Free returns slot to the sharded free-list for reuse by a future Append.
// The HNSW layer tracks its own node lifecycle separately; freeing a slot
// here does not remove it from any graph.
func (s *Store) Free(slot uint64) {
	s.free.give(slot)
}

// Guard is a zero-copy read handle on one vector. It holds the store's read
// lock until Release is called, so Grow cannot proceed (and therefore
// cannot invalidate the guard) while any guard is outstanding.
type Guard struct {
	store *Store
	slot  uint64
	epoch uint64
}

// Get returns a Guard for slot. Callers must call Release when done.
func (s *Store) Get(slot uint64) (Guard, error) {
	s.mu.RLock()
	if slot >= s.capacity {
		s.mu.RUnlock()
		return Guard{}, fmt.Errorf("vecstore: slot %d out of range (capacity %d)", slot, s.capacity)
	}
	return Guard{store: s, slot: slot, epoch: s.epoch.Load()}, nil
}

// Release drops the read lock the guard was holding. Calling it more than
// once, or calling it on a zero-value Guard, is a programmer error.
func (g Guard) Release() {
	g.store.mu.RUnlock()
}

// Slice returns the vector as a zero-copy []float32 view into the mapping.
// It panics if the mapping has been remapped (Grow called) since Get
// returned this guard: that would mean the slice held a pointer into memory
// that has since been unmapped.
func (g Guard) Slice() []float32 {
	if g.store.epoch.Load() != g.epoch {
		panic("vecstore: mmap was remapped; Guard is stale")
	}
	off := g.slot * uint64(g.store.dim) * bytesPerComponent
	return unsafe.Slice((*float32)(unsafe.Pointer(&g.store.data[off])), g.store.dim)
}

// Flush msyncs the mapping and fsyncs the backing file, per the collection's
// explicit-flush durability contract: writes are visible to other readers
// of the mapping immediately, but survive a crash only after Flush.
func (s *Store) Flush() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.data) > 0 {
		if err := unix.Msync(s.data, unix.MS_SYNC); err != nil {
			return fmt.Errorf("vecstore: msync: %w", err)
		}
	}
	return s.file.Sync()
}

// Close unmaps and closes the backing file. It does not flush; callers that
// want durable data on disk must call Flush first.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data != nil {
		if err := unix.Munmap(s.data); err != nil {
			return fmt.Errorf("vecstore: munmap: %w", err)
		}
		s.data = nil
	}
	return s.file.Close()
}

// Dimension returns the fixed vector width this store was opened with.
func (s *Store) Dimension() int { return s.dim }

// Len returns the number of slots ever allocated (including freed ones).
func (s *Store) Len() uint64 { return s.nextSlot.Load() }

// Restore sets the next-slot-to-allocate counter after a reopen. The vector
// file's own size only reflects mapping capacity (rounded up for growth
// headroom), not how many slots are actually in use, so the true count must
// come from id_mappings.bin's persisted next-idx (see pkg/idmap); the
// collection layer calls this once, right after Open, before serving any
// writes.
func (s *Store) Restore(nextSlot uint64) error {
	if nextSlot > s.capacityLoaded() {
		if err := s.Grow(nextSlot); err != nil {
			return err
		}
	}
	s.nextSlot.Store(nextSlot)
	return nil
}

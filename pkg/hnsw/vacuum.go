package hnsw

import "fmt"

// ErrVacuumUnsupported is the error for a vacuum run where no vector
// storage can supply the live vectors a rebuild needs. Vacuum itself does
// not return it, and nothing else in this module returns it either.
var ErrVacuumUnsupported = fmt.Errorf("hnsw: vacuum requires vector storage to be enabled")

// LivePoint is one (internal index, vector) pair surviving a vacuum
// snapshot.
type LivePoint struct {
	Idx    uint64
	Vector []float32
}

// Vacuum rebuilds a fresh index from livePoints using the same config and
// dim as idx, returning the new index. Callers are responsible for
// snapshotting live points (typically by walking the id mapping) and for
// atomically swapping the result in once it's built — rebuild happens
// off to the side so readers keep using the old graph until the swap.
func Vacuum(config Config, dim int, vectors VectorSource, liveness Liveness, livePoints []LivePoint) (*Index, error) {
	fresh := New(config, dim, vectors, liveness)
	for _, p := range livePoints {
		if err := fresh.Insert(p.Idx, p.Vector); err != nil {
			return nil, fmt.Errorf("hnsw: vacuum insert %d: %w", p.Idx, err)
		}
	}
	return fresh, nil
}

// ShouldVacuum reports whether the tombstone ratio tombstones/total crosses
// the spec's 20% threshold.
func ShouldVacuum(liveCount, totalAllocated int) bool {
	if totalAllocated == 0 {
		return false
	}
	tombstones := totalAllocated - liveCount
	return float64(tombstones)/float64(totalAllocated) > 0.2
}

package collection

import (
	"github.com/nyxdb/nyx/pkg/idmap"
	"github.com/nyxdb/nyx/pkg/vecstore"
)

// vectorAdapter satisfies hnsw.VectorSource over a vecstore.Store. The
// collection keeps the vecstore slot space and the id mapping's internal
// index space numerically identical (every Insert does exactly one
// idmap.Register followed by exactly one vecstore.Append, never calling
// vecstore.Free on delete) so "idx" means the same number on both sides of
// this adapter without a second idx->slot table — vectors.bin in spec §6
// is described as addressed by internal index directly, which only holds
// if the two allocators never diverge.
type vectorAdapter struct {
	store *vecstore.Store
}

func (a *vectorAdapter) Vector(idx uint64) ([]float32, error) {
	g, err := a.store.Get(idx)
	if err != nil {
		return nil, err
	}
	defer g.Release()
	v := g.Slice()
	out := make([]float32, len(v))
	copy(out, v)
	return out, nil
}

// livenessAdapter satisfies hnsw.Liveness over the id mapping: an internal
// index is live exactly as long as some external id still resolves to it.
type livenessAdapter struct {
	ids *idmap.Mappings
}

func (a *livenessAdapter) IsLive(idx uint64) bool {
	_, ok := a.ids.GetID(idx)
	return ok
}

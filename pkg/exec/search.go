package exec

import (
	"context"

	"github.com/nyxdb/nyx/pkg/filter"
	"github.com/nyxdb/nyx/pkg/hnsw"
)

// oversampleFactor implements spec §4.10's vector
// search filter strategy: when a query combines similarity search with a
// metadata filter, ask the HNSW index for k*4 candidates (assuming the
// filter keeps roughly a quarter of them) rather than filtering
// post-hoc against a k-sized candidate set, which would usually return
// fewer than k rows whenever the filter is selective at all.
const oversampleFactor = 4

// VectorIndex is the subset of hnsw.Index the search stage needs —
// narrowed to one method so this package can be tested against a fake
// without constructing a real HNSW graph.
type VectorIndex interface {
	Search(ctx context.Context, query []float32, k int, opts hnsw.SearchOptions) ([]hnsw.Result, error)
}

// PayloadFetcher resolves an external id to its decoded JSON payload, for
// evaluating a metadata filter against a candidate before it's accepted.
type PayloadFetcher interface {
	FetchPayload(id uint64) (any, error)
}

// IDResolver maps an HNSW internal index back to the externally visible
// point id stored alongside it.
type IDResolver interface {
	ResolveID(idx uint64) (uint64, bool)
}

// VectorSearch runs one similarity predicate: oversampled HNSW search,
// internal-index-to-external-id resolution, and (if a metadata filter
// accompanies the predicate) payload-filtering down to k accepted
// results. If fewer than k candidates survive the filter, VectorSearch
// returns what it found rather than re-querying with a larger oversample
// — spec §4.10 specifies the 0.25 selectivity guess as the whole
// strategy, not an adaptive-retry loop.
func VectorSearch(ctx context.Context, idx VectorIndex, query []float32, k int, predicate *filter.Condition, payloads PayloadFetcher, ids IDResolver) ([]Ranked, error) {
	requestK := k
	if predicate != nil {
		requestK = k * oversampleFactor
	}
	if requestK < 1 {
		requestK = 1
	}

	candidates, err := idx.Search(ctx, query, requestK, hnsw.SearchOptions{})
	if err != nil {
		return nil, err
	}

	out := make([]Ranked, 0, k)
	for _, c := range candidates {
		if len(out) >= k {
			break
		}
		select {
		case <-ctx.Done():
			return out, ctx.Err()
		default:
		}
		externalID, ok := ids.ResolveID(c.Idx)
		if !ok {
			continue
		}
		if predicate != nil {
			payload, err := payloads.FetchPayload(externalID)
			if err != nil {
				continue
			}
			if !predicate.Matches(payload) {
				continue
			}
		}
		out = append(out, Ranked{ID: externalID, Score: c.Score})
	}
	return out, nil
}

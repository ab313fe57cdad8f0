package exec

import (
	"context"
	"testing"

	"github.com/nyxdb/nyx/pkg/filter"
	"github.com/nyxdb/nyx/pkg/hnsw"
)

type fakeVectorIndex struct {
	results []hnsw.Result
}

func (f *fakeVectorIndex) Search(ctx context.Context, query []float32, k int, opts hnsw.SearchOptions) ([]hnsw.Result, error) {
	if k > len(f.results) {
		k = len(f.results)
	}
	return f.results[:k], nil
}

type fakeIDResolver struct{}

func (fakeIDResolver) ResolveID(idx uint64) (uint64, bool) { return idx, true }

type fakePayloads struct {
	byID map[uint64]any
}

func (f fakePayloads) FetchPayload(id uint64) (any, error) { return f.byID[id], nil }

func TestVectorSearchWithoutFilterRequestsExactlyK(t *testing.T) {
	idx := &fakeVectorIndex{results: []hnsw.Result{
		{Idx: 1, Score: 0.9}, {Idx: 2, Score: 0.8}, {Idx: 3, Score: 0.7},
	}}
	got, err := VectorSearch(context.Background(), idx, []float32{1, 2}, 2, nil, nil, fakeIDResolver{})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %d", len(got))
	}
}

func TestVectorSearchWithFilterOversamplesByFour(t *testing.T) {
	// 8 candidates available; k=2 with a filter should request up to k*4=8.
	idx := &fakeVectorIndex{results: []hnsw.Result{
		{Idx: 1, Score: 0.9}, {Idx: 2, Score: 0.8}, {Idx: 3, Score: 0.7}, {Idx: 4, Score: 0.6},
		{Idx: 5, Score: 0.5}, {Idx: 6, Score: 0.4}, {Idx: 7, Score: 0.3}, {Idx: 8, Score: 0.2},
	}}
	payloads := fakePayloads{byID: map[uint64]any{
		1: map[string]any{"active": false},
		2: map[string]any{"active": false},
		3: map[string]any{"active": true},
		4: map[string]any{"active": true},
	}}
	pred := filter.CondEq("active", true)
	got, err := VectorSearch(context.Background(), idx, []float32{1, 2}, 2, &pred, payloads, fakeIDResolver{})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 filtered results, got %d: %+v", len(got), got)
	}
	if got[0].ID != 3 || got[1].ID != 4 {
		t.Fatalf("expected ids 3,4 (first filter-passing candidates), got %+v", got)
	}
}

func TestVectorSearchReturnsFewerThanKWhenFilterIsSelective(t *testing.T) {
	idx := &fakeVectorIndex{results: []hnsw.Result{
		{Idx: 1, Score: 0.9}, {Idx: 2, Score: 0.8},
	}}
	payloads := fakePayloads{byID: map[uint64]any{
		1: map[string]any{"active": false},
		2: map[string]any{"active": false},
	}}
	pred := filter.CondEq("active", true)
	got, err := VectorSearch(context.Background(), idx, []float32{1, 2}, 2, &pred, payloads, fakeIDResolver{})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no results when every candidate fails the filter, got %+v", got)
	}
}

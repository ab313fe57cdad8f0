package hnsw

import (
	"container/heap"
	"sort"

	"github.com/nyxdb/nyx/pkg/vecmath"
)

// minDistHeap and maxDistHeap are the dual heaps searchLayer's beam search
// uses: a min-heap of visited-best candidates still worth expanding, and a
// max-heap of the current top-ef results so the worst one can be evicted in
// O(log ef) once a better candidate turns up. This mirrors the dual
// min/max heap shape in this lineage's searchLayer (there expressed as one
// heap type with an isMax flag); here they're two distinct container/heap
// implementations since Go's heap.Interface has no room for a runtime flip.
type minDistHeap []candidate

func (h minDistHeap) Len() int           { return len(h) }
func (h minDistHeap) Less(i, j int) bool { return h[i].dist < h[j].dist }
func (h minDistHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *minDistHeap) Push(x any)        { *h = append(*h, x.(candidate)) }
func (h *minDistHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

type maxDistHeap []candidate

func (h maxDistHeap) Len() int           { return len(h) }
func (h maxDistHeap) Less(i, j int) bool { return h[i].dist > h[j].dist }
func (h maxDistHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *maxDistHeap) Push(x any)        { *h = append(*h, x.(candidate)) }
func (h *maxDistHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

func pushMin(h *minDistHeap, c candidate) { heap.Push(h, c) }
func popMin(h *minDistHeap) candidate     { return heap.Pop(h).(candidate) }
func pushMax(h *maxDistHeap, c candidate) { heap.Push(h, c) }
func popMax(h *maxDistHeap) candidate     { return heap.Pop(h).(candidate) }

func sortByDistAscending[T any](items []T, less func(a, b T) bool) {
	sort.Slice(items, func(i, j int) bool { return less(items[i], items[j]) })
}

func sortCandidatesAscending(c []candidate) {
	sort.Slice(c, func(i, j int) bool { return c[i].dist < c[j].dist })
}

// sortResults orders results best-first: descending for similarity metrics,
// ascending for distance metrics, per spec's score-orientation invariant.
func sortResults(results []Result, orientation vecmath.Orientation) {
	if orientation == vecmath.Similarity {
		sort.Slice(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	} else {
		sort.Slice(results, func(i, j int) bool { return results[i].Score < results[j].Score })
	}
}

// Package hnsw implements the hierarchical navigable small world index: a
// layered proximity graph supporting approximate nearest-neighbor insert,
// search, tombstone-delete, and vacuum.
//
// The overall shape — a node table keyed by internal index, level-tiered
// neighbor lists, greedy descent down to level 0 followed by a beam search,
// neighbor selection by distance with pruning on saturation — follows this
// module's lineage's `pkg/search/hnsw_index.go`, generalized from
// string-keyed nodes to external-id indirection (points are addressed by
// an externally assigned id, resolved to an internal graph index by the
// caller's id mapping), tombstones instead of true node removal, vacuum,
// and an optional dual-precision mode (a quantized copy stored per node,
// f32 re-ranking of a widened candidate list).
package hnsw

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"

	"github.com/nyxdb/nyx/pkg/quantize"
	"github.com/nyxdb/nyx/pkg/vecmath"
)

// Config holds the tunable HNSW construction/search parameters.
type Config struct {
	M               int // max connections per node per layer
	EfConstruction  int // candidate list size during insert
	EfSearch        int // default candidate list size during search
	LevelMultiplier float64
	Metric          vecmath.Metric
}

// DefaultConfig returns the Balanced profile's construction parameters,
// matching this lineage's DefaultHNSWConfig defaults.
func DefaultConfig(metric vecmath.Metric) Config {
	m := 16
	return Config{
		M:               m,
		EfConstruction:  200,
		EfSearch:        128,
		LevelMultiplier: 1.0 / math.Log(float64(m)),
		Metric:          metric,
	}
}

// VectorSource resolves an internal index to its full-precision vector.
// The collection layer implements this over vecstore.Store (or, in
// fast-insert mode, a plain in-memory slice).
type VectorSource interface {
	Vector(idx uint64) ([]float32, error)
}

// Liveness reports whether an internal index still has a live external id.
// Tombstoned indexes are skipped during search but remain in the graph, per
// spec's "tombstones instead of graph deletes" design note.
type Liveness interface {
	IsLive(idx uint64) bool
}

type graphNode struct {
	idx       uint64
	level     int
	neighbors [][]uint64 // neighbors[l] = neighbor indices at level l
	quantized []byte     // nil unless dual-precision is active
	mu        sync.RWMutex
}

// Index is one collection's HNSW graph.
type Index struct {
	config Config
	dim    int

	vectors  VectorSource
	liveness Liveness
	quant    *quantize.Params // set once dual-precision training has run

	structMu sync.RWMutex // protects nodes/entryPoint/maxLevel/hasEntry
	nodes    map[uint64]*graphNode
	entry    uint64
	hasEntry bool
	maxLevel int

	rngMu sync.Mutex
	rng   *rand.Rand

	tombstoneCount int64 // approximate; authoritative count lives in the id mapping
}

// New creates an empty index for vectors of the given dimension.
func New(config Config, dim int, vectors VectorSource, liveness Liveness) *Index {
	return &Index{
		config:   config,
		dim:      dim,
		vectors:  vectors,
		liveness: liveness,
		nodes:    make(map[uint64]*graphNode),
		rng:      rand.New(rand.NewSource(1)),
	}
}

// EnableDualPrecision sets the trained quantizer. After this call, Insert
// stores each new node's quantized form and Search widens its level-0
// candidate list by the oversample factor before re-ranking in f32. Graph
// traversal still computes f32 distances; the stored quantized bytes are
// not read during search.
func (idx *Index) EnableDualPrecision(p quantize.Params) {
	idx.quant = &p
}

func (idx *Index) randomLevel() int {
	idx.rngMu.Lock()
	r := idx.rng.Float64()
	idx.rngMu.Unlock()

	if r <= 0 {
		r = 1e-9
	}
	level := int(-math.Log(r) * idx.config.LevelMultiplier)
	return level
}

// Insert adds a point at internal index gidx with the given full-precision
// vector. Callers must have already registered gidx with the id mapping and
// stored the vector; Insert only builds graph structure.
func (idx *Index) Insert(gidx uint64, vec []float32) error {
	if len(vec) != idx.dim {
		return fmt.Errorf("hnsw: dimension mismatch: index is %d, vector is %d", idx.dim, len(vec))
	}

	level := idx.randomLevel()
	node := &graphNode{
		idx:       gidx,
		level:     level,
		neighbors: make([][]uint64, level+1),
	}
	if idx.quant != nil {
		node.quantized = idx.quant.EncodeAlloc(vec)
	}

	idx.structMu.Lock()
	if !idx.hasEntry {
		idx.nodes[gidx] = node
		idx.entry = gidx
		idx.hasEntry = true
		idx.maxLevel = level
		idx.structMu.Unlock()
		return nil
	}
	entry := idx.entry
	maxLevel := idx.maxLevel
	idx.nodes[gidx] = node
	idx.structMu.Unlock()

	current := entry
	for l := maxLevel; l > level; l-- {
		current = idx.greedyDescend(current, vec, l)
	}

	for l := min(level, maxLevel); l >= 0; l-- {
		candidates := idx.searchLayer(vec, current, idx.config.EfConstruction, l)
		selected := idx.selectNeighbors(candidates, idx.config.M)

		node.mu.Lock()
		node.neighbors[l] = selected
		node.mu.Unlock()

		for _, neighborIdx := range selected {
			idx.link(neighborIdx, gidx, l)
		}

		if len(candidates) > 0 {
			current = candidates[0].idx
		}
	}

	if level > maxLevel {
		idx.structMu.Lock()
		idx.entry = gidx
		idx.maxLevel = level
		idx.structMu.Unlock()
	}

	return nil
}

// link adds `to` as a neighbor of `from` at level l, pruning from's
// neighbor list back down to M (by distance) if it would otherwise grow
// unbounded — the "prune the reverse neighbors of saturated nodes" step.
func (idx *Index) link(from, to uint64, l int) {
	idx.structMu.RLock()
	node, ok := idx.nodes[from]
	idx.structMu.RUnlock()
	if !ok || l >= len(node.neighbors) {
		return
	}

	node.mu.Lock()
	defer node.mu.Unlock()

	for _, existing := range node.neighbors[l] {
		if existing == to {
			return
		}
	}
	node.neighbors[l] = append(node.neighbors[l], to)

	if len(node.neighbors[l]) > idx.config.M {
		fromVec, err := idx.vectors.Vector(from)
		if err != nil {
			return
		}
		node.neighbors[l] = idx.pruneByDistance(fromVec, node.neighbors[l], idx.config.M)
	}
}

func (idx *Index) pruneByDistance(from []float32, candidates []uint64, limit int) []uint64 {
	type scored struct {
		idxVal uint64
		dist   float64
	}
	scoredList := make([]scored, 0, len(candidates))
	for _, c := range candidates {
		vec, err := idx.vectors.Vector(c)
		if err != nil {
			continue
		}
		scoredList = append(scoredList, scored{c, idx.rawDistance(from, vec)})
	}
	sortByDistAscending(scoredList, func(a, b scored) bool { return a.dist < b.dist })
	if len(scoredList) > limit {
		scoredList = scoredList[:limit]
	}
	out := make([]uint64, len(scoredList))
	for i, s := range scoredList {
		out[i] = s.idxVal
	}
	return out
}

// rawDistance returns a value where smaller is closer, regardless of the
// configured metric's native orientation, so graph-construction code (which
// always wants "closest") doesn't need to branch on orientation.
func (idx *Index) rawDistance(a, b []float32) float64 {
	fn := vecmath.Dispatch(idx.config.Metric, len(a))
	v := fn(a, b)
	if vecmath.OrientationOf(idx.config.Metric) == vecmath.Similarity {
		return -v
	}
	return v
}

func (idx *Index) greedyDescend(from uint64, query []float32, level int) uint64 {
	current := from
	currentVec, err := idx.vectors.Vector(current)
	if err != nil {
		return current
	}
	currentDist := idx.rawDistance(query, currentVec)

	for {
		idx.structMu.RLock()
		node := idx.nodes[current]
		idx.structMu.RUnlock()
		if node == nil || level >= len(node.neighbors) {
			return current
		}

		node.mu.RLock()
		neighbors := append([]uint64(nil), node.neighbors[level]...)
		node.mu.RUnlock()

		improved := false
		for _, n := range neighbors {
			vec, err := idx.vectors.Vector(n)
			if err != nil {
				continue
			}
			d := idx.rawDistance(query, vec)
			if d < currentDist {
				current = n
				currentDist = d
				improved = true
			}
		}
		if !improved {
			return current
		}
	}
}

type candidate struct {
	idx  uint64
	dist float64
}

// searchLayer runs a beam search of width ef at the given level, starting
// from entry, and returns up to ef candidates sorted nearest-first.
func (idx *Index) searchLayer(query []float32, entry uint64, ef int, level int) []candidate {
	visited := map[uint64]bool{entry: true}

	entryVec, err := idx.vectors.Vector(entry)
	if err != nil {
		return nil
	}
	entryDist := idx.rawDistance(query, entryVec)

	candidates := &minDistHeap{{entry, entryDist}}
	results := &maxDistHeap{{entry, entryDist}}

	for candidates.Len() > 0 {
		c := popMin(candidates)
		worst := (*results)[0]
		if c.dist > worst.dist && results.Len() >= ef {
			break
		}

		idx.structMu.RLock()
		node := idx.nodes[c.idx]
		idx.structMu.RUnlock()
		if node == nil || level >= len(node.neighbors) {
			continue
		}

		node.mu.RLock()
		neighbors := append([]uint64(nil), node.neighbors[level]...)
		node.mu.RUnlock()

		for _, n := range neighbors {
			if visited[n] {
				continue
			}
			visited[n] = true

			vec, err := idx.vectors.Vector(n)
			if err != nil {
				continue
			}
			d := idx.rawDistance(query, vec)

			if results.Len() < ef {
				pushMin(candidates, candidate{n, d})
				pushMax(results, candidate{n, d})
			} else if d < (*results)[0].dist {
				pushMin(candidates, candidate{n, d})
				pushMax(results, candidate{n, d})
				popMax(results)
			}
		}
	}

	out := make([]candidate, results.Len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = popMax(results)
	}
	return out
}

func (idx *Index) selectNeighbors(candidates []candidate, m int) []uint64 {
	if len(candidates) > m {
		candidates = candidates[:m]
	}
	out := make([]uint64, len(candidates))
	for i, c := range candidates {
		out[i] = c.idx
	}
	return out
}

// Result is one search hit: internal index plus a metric-oriented score
// (higher is better for similarity metrics, lower for distance metrics —
// see vecmath.OrientationOf).
type Result struct {
	Idx   uint64
	Score float64
}

// SearchOptions tunes one Search call.
type SearchOptions struct {
	Ef           int // candidate-list width; 0 = use the index's configured EfSearch
	Oversample   int // dual-precision rerank oversample factor; 0 = default 4
	MinSimilarity *float64
}

// Search returns up to k nearest neighbors to query, tombstone-filtered via
// the configured Liveness.
func (idx *Index) Search(ctx context.Context, query []float32, k int, opts SearchOptions) ([]Result, error) {
	if len(query) != idx.dim {
		return nil, fmt.Errorf("hnsw: dimension mismatch: index is %d, query is %d", idx.dim, len(query))
	}

	idx.structMu.RLock()
	hasEntry := idx.hasEntry
	entry := idx.entry
	maxLevel := idx.maxLevel
	idx.structMu.RUnlock()
	if !hasEntry {
		return nil, nil
	}

	ef := opts.Ef
	if ef <= 0 {
		ef = idx.config.EfSearch
	}
	if ef < k {
		ef = k
	}

	current := entry
	for l := maxLevel; l > 0; l-- {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		current = idx.greedyDescend(current, query, l)
	}

	oversample := opts.Oversample
	if oversample <= 0 {
		oversample = 4
	}
	searchEf := ef
	if idx.quant != nil {
		searchEf = ef * oversample
	}

	candidates := idx.searchLayer(query, current, searchEf, 0)

	live := candidates[:0]
	for _, c := range candidates {
		if idx.liveness == nil || idx.liveness.IsLive(c.idx) {
			live = append(live, c)
		}
	}

	if idx.quant != nil {
		live = idx.rerank(query, live)
	}

	orientation := vecmath.OrientationOf(idx.config.Metric)
	fn := vecmath.Dispatch(idx.config.Metric, idx.dim)

	results := make([]Result, 0, len(live))
	for _, c := range live {
		vec, err := idx.vectors.Vector(c.idx)
		if err != nil {
			continue
		}
		score := fn(query, vec)
		if opts.MinSimilarity != nil && orientation == vecmath.Similarity && score < *opts.MinSimilarity {
			continue
		}
		results = append(results, Result{Idx: c.idx, Score: score})
	}

	sortResults(results, orientation)
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// rerank re-scores candidates in f32 and re-sorts them nearest-first.
// Search calls it when dual precision is enabled, on the ef·oversample
// candidates returned by the level-0 beam search, which itself uses f32
// distances.
func (idx *Index) rerank(query []float32, candidates []candidate) []candidate {
	out := make([]candidate, 0, len(candidates))
	for _, c := range candidates {
		vec, err := idx.vectors.Vector(c.idx)
		if err != nil {
			continue
		}
		out = append(out, candidate{c.idx, idx.rawDistance(query, vec)})
	}
	sortCandidatesAscending(out)
	return out
}

// Delete marks gidx as removed from this index's perspective. The graph
// structure itself is never modified here: per spec, tombstoning happens in
// the id mapping, and this index simply expects its Liveness to reflect
// that from the next Search call onward. Delete exists so the index can
// track an approximate tombstone count for TombstoneRatio without a
// round-trip to the mapping on every call.
func (idx *Index) Delete(gidx uint64) {
	idx.structMu.Lock()
	idx.tombstoneCount++
	idx.structMu.Unlock()
}

// NodeCount returns the number of nodes ever inserted (including
// tombstoned ones still present in the graph).
func (idx *Index) NodeCount() int {
	idx.structMu.RLock()
	defer idx.structMu.RUnlock()
	return len(idx.nodes)
}

// TombstoneRatio estimates tombstoned/total using this index's own counter.
// Callers that track liveness authoritatively (the collection layer, via
// idmap) should prefer computing the ratio from idmap.Mappings directly;
// this is a fallback for standalone use of the index.
func (idx *Index) TombstoneRatio() float64 {
	idx.structMu.RLock()
	defer idx.structMu.RUnlock()
	if len(idx.nodes) == 0 {
		return 0
	}
	return float64(idx.tombstoneCount) / float64(len(idx.nodes))
}

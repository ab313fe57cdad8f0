package exec

import (
	"sort"

	"github.com/nyxdb/nyx/pkg/querylang"
)

// Ranked is one scored result from a single ranked list (a vector
// similarity search, a BM25 search, or any other per-predicate ranking).
type Ranked struct {
	ID    uint64
	Score float64
}

// Fuse merges several independently ranked lists (one per AND-combined
// similarity/NEAR predicate, spec §4.10's "multiple similarity predicates
// combined by AND") into a single ranked list per the query's fusion
// strategy, defaulting to RRF with k=60 (querylang.DefaultFusionClause).
func Fuse(lists [][]Ranked, clause querylang.FusionClause) []Ranked {
	if len(lists) == 0 {
		return nil
	}
	if len(lists) == 1 {
		return lists[0]
	}
	switch clause.Strategy {
	case querylang.FusionWeighted, querylang.FusionAverage:
		return fuseAverage(lists)
	case querylang.FusionMax:
		return fuseByScore(lists, maxCombine)
	case querylang.FusionMin:
		return fuseByScore(lists, minCombine)
	case querylang.FusionProduct:
		return fuseByScore(lists, productCombine)
	default:
		k := clause.K
		if k <= 0 {
			k = 60
		}
		return fuseRRF(lists, k)
	}
}

// fuseRRF implements reciprocal rank fusion: each list's own rank order
// (not its raw score) determines a document's contribution, 1/(k+rank),
// summed across every list that contains it. RRF's whole point is being
// scale-invariant across lists whose raw scores live on unrelated scales
// (cosine similarity vs. BM25), which is why it's the default.
func fuseRRF(lists [][]Ranked, k int) []Ranked {
	contrib := make(map[uint64]float64)
	for _, list := range lists {
		for rank, r := range list {
			contrib[r.ID] += 1.0 / float64(k+rank+1)
		}
	}
	return sortedByScoreDesc(contrib)
}

func fuseByScore(lists [][]Ranked, combine func(existing float64, present bool, next float64) float64) []Ranked {
	scores := make(map[uint64]float64)
	present := make(map[uint64]bool)
	for _, list := range lists {
		for _, r := range list {
			scores[r.ID] = combine(scores[r.ID], present[r.ID], r.Score)
			present[r.ID] = true
		}
	}
	return sortedByScoreDesc(scores)
}

// fuseAverage combines weighted/average strategies: every list weighs
// equally (weighted strategy with unspecified per-predicate weights
// degrades to a plain average, since the AST doesn't carry per-predicate
// weights), and a document missing from some lists is averaged only over
// the lists it actually appears in.
func fuseAverage(lists [][]Ranked) []Ranked {
	sums := make(map[uint64]float64)
	counts := make(map[uint64]int)
	for _, list := range lists {
		for _, r := range list {
			sums[r.ID] += r.Score
			counts[r.ID]++
		}
	}
	scores := make(map[uint64]float64, len(sums))
	for id, sum := range sums {
		scores[id] = sum / float64(counts[id])
	}
	return sortedByScoreDesc(scores)
}

func maxCombine(existing float64, present bool, next float64) float64 {
	if !present || next > existing {
		return next
	}
	return existing
}

func minCombine(existing float64, present bool, next float64) float64 {
	if !present || next < existing {
		return next
	}
	return existing
}

func productCombine(existing float64, present bool, next float64) float64 {
	if !present {
		return next
	}
	return existing * next
}

func sortedByScoreDesc(scores map[uint64]float64) []Ranked {
	out := make([]Ranked, 0, len(scores))
	for id, score := range scores {
		out = append(out, Ranked{ID: id, Score: score})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID < out[j].ID
	})
	return out
}

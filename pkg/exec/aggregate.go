package exec

import (
	"fmt"
	"sort"

	"github.com/nyxdb/nyx/pkg/filter"
	"github.com/nyxdb/nyx/pkg/querylang"
)

// aggState accumulates one AggregateExpr's running value over a stream of
// rows. count, sum, min and max are all updated for every numeric value,
// whatever the function; COUNT(*) passes nil, so it only advances count.
type aggState struct {
	count   int64
	sum     float64
	min     float64
	max     float64
	hasMinMax bool
	distinct  map[any]bool // set when the expr's Distinct flag is true
}

func newAggState() *aggState {
	return &aggState{}
}

func (s *aggState) add(fn querylang.AggregateFunc, value any, distinct bool) {
	if distinct && isComparable(value) {
		if s.distinct == nil {
			s.distinct = make(map[any]bool)
		}
		if value != nil {
			if s.distinct[value] {
				return
			}
			s.distinct[value] = true
		}
	}
	s.count++
	f, ok := asFloat(value)
	if !ok {
		return
	}
	s.sum += f
	if !s.hasMinMax || f < s.min {
		s.min = f
	}
	if !s.hasMinMax || f > s.max {
		s.max = f
	}
	s.hasMinMax = true
}

// merge combines a partial aggregate computed over one shard/batch into
// this one, enabling the map-reduce merge spec §4.10 asks for
// ("single-pass aggregation with map-reduce merge across batches").
// Distinct sets are unioned before any caller reads a distinct COUNT, so
// concurrent batches still dedupe correctly.
func (s *aggState) merge(other *aggState) {
	s.count += other.count
	s.sum += other.sum
	if other.hasMinMax {
		if !s.hasMinMax || other.min < s.min {
			s.min = other.min
		}
		if !s.hasMinMax || other.max > s.max {
			s.max = other.max
		}
		s.hasMinMax = true
	}
	if other.distinct != nil {
		if s.distinct == nil {
			s.distinct = make(map[any]bool, len(other.distinct))
		}
		for v := range other.distinct {
			s.distinct[v] = true
		}
	}
}

func (s *aggState) result(fn querylang.AggregateFunc) any {
	switch fn {
	case querylang.AggCount:
		if s.distinct != nil {
			return int64(len(s.distinct))
		}
		return s.count
	case querylang.AggSum:
		return s.sum
	case querylang.AggAvg:
		if s.count == 0 {
			return nil
		}
		return s.sum / float64(s.count)
	case querylang.AggMin:
		if !s.hasMinMax {
			return nil
		}
		return s.min
	case querylang.AggMax:
		if !s.hasMinMax {
			return nil
		}
		return s.max
	default:
		return nil
	}
}

// isComparable reports whether v is safe to use as a Go map key. JSON
// decoding only ever produces maps/slices for objects/arrays, which would
// panic if used as a map[any]bool key — DISTINCT over an object-valued
// column falls back to counting every occurrence rather than crashing.
func isComparable(v any) bool {
	switch v.(type) {
	case map[string]any, []any:
		return false
	default:
		return true
	}
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}

// GroupEntry is one GROUP BY bucket's accumulated result.
type GroupEntry struct {
	Key   []any
	States []*aggState
}

// Aggregator performs streaming single-pass group/aggregate, matching
// spec §4.10's aggregation shape. GroupBy paths are evaluated with
// filter.GetField, the same dot-path/array-index JSON navigation used for
// WHERE predicates, so "GROUP BY metadata.region" and "WHERE
// metadata.region = 'us'" agree on what a path means.
type Aggregator struct {
	groupByPaths []string
	aggregates   []querylang.AggregateExpr
	groups       map[string]*GroupEntry
	order        []string // first-seen group-key order, for stable output
}

// NewAggregator builds an aggregator for the given GROUP BY column list
// (dot-paths) and aggregate expressions (evaluated in the same order as
// the SELECT list's aggregate columns).
func NewAggregator(groupByPaths []string, aggregates []querylang.AggregateExpr) *Aggregator {
	return &Aggregator{
		groupByPaths: groupByPaths,
		aggregates:   aggregates,
		groups:       make(map[string]*GroupEntry),
	}
}

// Add folds one row into its group's running aggregates.
func (a *Aggregator) Add(row any) {
	key := a.groupKey(row)
	keyStr := fmt.Sprint(key)
	entry, ok := a.groups[keyStr]
	if !ok {
		entry = &GroupEntry{Key: key, States: make([]*aggState, len(a.aggregates))}
		for i := range entry.States {
			entry.States[i] = newAggState()
		}
		a.groups[keyStr] = entry
		a.order = append(a.order, keyStr)
	}
	for i, agg := range a.aggregates {
		entry.States[i].add(agg.Func, aggregateArgValue(agg, row), agg.Distinct)
	}
}

// Merge folds another aggregator's partial state into this one
// (map-reduce merge across independently processed batches/shards).
func (a *Aggregator) Merge(other *Aggregator) {
	for _, keyStr := range other.order {
		src := other.groups[keyStr]
		dst, ok := a.groups[keyStr]
		if !ok {
			dst = &GroupEntry{Key: src.Key, States: make([]*aggState, len(src.States))}
			for i := range dst.States {
				dst.States[i] = newAggState()
			}
			a.groups[keyStr] = dst
			a.order = append(a.order, keyStr)
		}
		for i, s := range src.States {
			dst.States[i].merge(s)
		}
	}
}

// Results returns one Row per group, in first-seen order, with group-by
// columns keyed by their path and aggregate columns keyed by their
// SELECT alias (falling back to "<func>(<arg>)" when unaliased).
func (a *Aggregator) Results(groupAliases []string, aggAliases []string) []Row {
	rows := make([]Row, 0, len(a.order))
	for _, keyStr := range a.order {
		entry := a.groups[keyStr]
		row := make(Row, len(a.groupByPaths)+len(a.aggregates))
		for i, path := range a.groupByPaths {
			alias := path
			if i < len(groupAliases) && groupAliases[i] != "" {
				alias = groupAliases[i]
			}
			row[alias] = entry.Key[i]
		}
		for i, agg := range a.aggregates {
			alias := fmt.Sprintf("%s(%s)", agg.Func, aggArgLabel(agg))
			if i < len(aggAliases) && aggAliases[i] != "" {
				alias = aggAliases[i]
			}
			row[alias] = entry.States[i].result(agg.Func)
		}
		rows = append(rows, row)
	}
	return rows
}

// HavingFilter applies a post-group predicate (evaluated against the
// aggregate-result rows, not the raw input rows — spec's HAVING runs
// strictly after GROUP BY).
func HavingFilter(rows []Row, cond filter.Condition) []Row {
	out := make([]Row, 0, len(rows))
	for _, row := range rows {
		if cond.Matches(row) {
			out = append(out, row)
		}
	}
	return out
}

func (a *Aggregator) groupKey(row any) []any {
	key := make([]any, len(a.groupByPaths))
	for i, path := range a.groupByPaths {
		v, _ := filter.GetField(row, path)
		key[i] = v
	}
	return key
}

func aggregateArgValue(agg querylang.AggregateExpr, row any) any {
	if agg.Arg == nil {
		return nil // COUNT(*)
	}
	col, ok := agg.Arg.(querylang.ColumnRef)
	if !ok {
		return nil
	}
	v, _ := filter.GetField(row, col.Name)
	return v
}

func aggArgLabel(agg querylang.AggregateExpr) string {
	if agg.Arg == nil {
		return "*"
	}
	if col, ok := agg.Arg.(querylang.ColumnRef); ok {
		return col.Name
	}
	return "?"
}

// SortRows orders rows in place per an ORDER BY list evaluated against
// each row's fields, stable so ties preserve prior ordering (matching
// spec's unspecified-but-expected "ORDER BY is stable" behavior for
// ties, consistent with sort.SliceStable's guarantee).
func SortRows(rows []Row, paths []string, desc []bool) {
	sort.SliceStable(rows, func(i, j int) bool {
		for k, path := range paths {
			vi, _ := filter.GetField(rows[i], path)
			vj, _ := filter.GetField(rows[j], path)
			cmp := compareAny(vi, vj)
			if cmp == 0 {
				continue
			}
			if k < len(desc) && desc[k] {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})
}

func compareAny(a, b any) int {
	af, aok := asFloat(a)
	bf, bok := asFloat(b)
	if aok && bok {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}
	as, aok := a.(string)
	bs, bok := b.(string)
	if aok && bok {
		switch {
		case as < bs:
			return -1
		case as > bs:
			return 1
		default:
			return 0
		}
	}
	return 0
}

// Package plan classifies a parsed query into an execution shape and
// performs filter pushdown analysis, grounded on spec §4.10 and on this
// lineage's pkg/cypher/explain.go EXPLAIN/PROFILE plan-tree idea
// (PlanOperator{OperatorType, Description, Arguments, Children}).
package plan

import "github.com/nyxdb/nyx/pkg/querylang"

// Shape is the execution shape the planner assigns a query.
type Shape string

const (
	ShapeSearch      Shape = "search"
	ShapeAggregation Shape = "aggregation"
	ShapeGraph       Shape = "graph"
	ShapeRows        Shape = "rows"
)

// ClassifyShape applies spec §4.10's shape table: graph (top-level MATCH)
// and aggregation (aggregate fn or GROUP BY) both precede search, in that
// order; rows is the fallback.
func ClassifyShape(q *querylang.Query) Shape {
	if q.IsMatchQuery() {
		return ShapeGraph
	}
	if hasAggregation(q.Select) {
		return ShapeAggregation
	}
	if hasVectorSearch(q.Select) {
		return ShapeSearch
	}
	return ShapeRows
}

func hasAggregation(sel *querylang.SelectStatement) bool {
	if sel == nil {
		return false
	}
	if len(sel.GroupBy) > 0 {
		return true
	}
	for _, col := range sel.Columns {
		if _, ok := col.Expr.(querylang.AggregateExpr); ok {
			return true
		}
	}
	return false
}

// hasVectorSearch reports whether the WHERE tree contains a similarity()
// or NEAR predicate anywhere (spec's "WHERE contains similarity(...) or
// NEAR" trigger); it does not attempt the "(not inside an OR branch mixed
// with metadata in incompatible ways)" exception spec.md flags as a
// refinement — that nuance is resolved by the executor's hybrid
// AND/OR fusion logic (pkg/exec), not the shape classifier, since
// "incompatible" only has meaning once the bucket each OR branch falls
// into is known (pushdown.go's job).
func hasVectorSearch(sel *querylang.SelectStatement) bool {
	if sel == nil {
		return false
	}
	return whereContainsVectorPredicate(sel.Where)
}

func whereContainsVectorPredicate(cond *querylang.Condition) bool {
	if cond == nil {
		return false
	}
	switch cond.Kind {
	case querylang.CondSimilarity, querylang.CondNear:
		return true
	case querylang.CondAnd, querylang.CondOr:
		for i := range cond.Conditions {
			if whereContainsVectorPredicate(&cond.Conditions[i]) {
				return true
			}
		}
		return false
	case querylang.CondNot:
		return whereContainsVectorPredicate(cond.Inner)
	default:
		return false
	}
}

// CountSimilarityPredicates counts similarity()/NEAR predicates ANDed
// together at the top level of WHERE — used to decide whether the
// executor needs fusion across multiple ranked lists (spec §4.10,
// "Multiple similarity predicates combined by AND").
func CountSimilarityPredicates(cond *querylang.Condition) int {
	if cond == nil {
		return 0
	}
	switch cond.Kind {
	case querylang.CondSimilarity, querylang.CondNear:
		return 1
	case querylang.CondAnd:
		total := 0
		for i := range cond.Conditions {
			total += CountSimilarityPredicates(&cond.Conditions[i])
		}
		return total
	default:
		return 0
	}
}

// HasORedSimilarityPredicates reports whether two or more similarity/NEAR
// predicates are combined by OR anywhere in the tree — spec.md rejects
// this combination at validation time.
func HasORedSimilarityPredicates(cond *querylang.Condition) bool {
	if cond == nil {
		return false
	}
	if cond.Kind == querylang.CondOr {
		count := 0
		for i := range cond.Conditions {
			count += countVectorPredicatesFlat(&cond.Conditions[i])
		}
		if count >= 2 {
			return true
		}
	}
	for i := range cond.Conditions {
		if HasORedSimilarityPredicates(&cond.Conditions[i]) {
			return true
		}
	}
	if cond.Inner != nil && HasORedSimilarityPredicates(cond.Inner) {
		return true
	}
	return false
}

func countVectorPredicatesFlat(cond *querylang.Condition) int {
	if cond == nil {
		return 0
	}
	if cond.Kind == querylang.CondSimilarity || cond.Kind == querylang.CondNear {
		return 1
	}
	return 0
}

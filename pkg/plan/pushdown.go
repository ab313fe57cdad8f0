package plan

import "github.com/nyxdb/nyx/pkg/querylang"

// Bucket names which evaluation layer a WHERE conjunct can be pushed into.
type Bucket int

const (
	// BucketColumnStore holds predicates over a joined right-hand table's
	// columns (spec §4.10: pushed to the column-store scan before the join).
	BucketColumnStore Bucket = iota
	// BucketGraphVariable holds predicates over a MATCH pattern variable's
	// node/edge properties (pushed into the traversal as an early filter).
	BucketGraphVariable
	// BucketPostJoin holds everything else: predicates that reference the
	// base collection's own payload, that mix qualifiers from more than one
	// bucket, or that can't be attributed to a single declared alias/variable.
	BucketPostJoin
)

// PushdownContext names the join aliases and MATCH pattern variables a
// query declares, so conjuncts can be routed to the bucket that owns them.
type PushdownContext struct {
	JoinAliases    map[string]bool
	GraphVariables map[string]bool
}

// NewPushdownContext builds a context from a parsed query's declared
// join aliases (falling back to the bare table name when no alias is
// given) and, for MATCH queries, its pattern's node/edge variables.
func NewPushdownContext(q *querylang.Query) PushdownContext {
	ctx := PushdownContext{
		JoinAliases:    map[string]bool{},
		GraphVariables: map[string]bool{},
	}
	if sel := q.Select; sel != nil {
		for _, j := range sel.Joins {
			alias := j.Alias
			if alias == "" {
				alias = j.Table
			}
			ctx.JoinAliases[alias] = true
		}
	}
	if q.Match != nil {
		for _, n := range q.Match.Pattern.Nodes {
			if n.Variable != "" {
				ctx.GraphVariables[n.Variable] = true
			}
		}
		for _, e := range q.Match.Pattern.Edges {
			if e.Variable != "" {
				ctx.GraphVariables[e.Variable] = true
			}
		}
	}
	return ctx
}

// PushdownResult groups a WHERE tree's top-level AND conjuncts by bucket.
type PushdownResult struct {
	ColumnStore   []querylang.Condition
	GraphVariable []querylang.Condition
	PostJoin      []querylang.Condition
}

// Pushdown splits a WHERE condition into the three buckets, flattening
// top-level ANDs (spec §4.10: "a WHERE clause is split at its top-level
// AND conjuncts; each conjunct is routed independently"). An OR conjunct
// is only pushed down when BOTH of its branches resolve to the same
// single bucket — otherwise it stays a post-join filter, since evaluating
// half an OR early and half late would change the result.
func Pushdown(cond *querylang.Condition, ctx PushdownContext) PushdownResult {
	var result PushdownResult
	for _, conjunct := range flattenAnd(cond) {
		switch bucketOf(&conjunct, ctx) {
		case BucketColumnStore:
			result.ColumnStore = append(result.ColumnStore, conjunct)
		case BucketGraphVariable:
			result.GraphVariable = append(result.GraphVariable, conjunct)
		default:
			result.PostJoin = append(result.PostJoin, conjunct)
		}
	}
	return result
}

func flattenAnd(cond *querylang.Condition) []querylang.Condition {
	if cond == nil {
		return nil
	}
	if cond.Kind != querylang.CondAnd {
		return []querylang.Condition{*cond}
	}
	var out []querylang.Condition
	for i := range cond.Conditions {
		out = append(out, flattenAnd(&cond.Conditions[i])...)
	}
	return out
}

// bucketOf determines which single bucket a conjunct belongs to. It
// returns BucketPostJoin whenever the conjunct can't be attributed to
// exactly one bucket.
func bucketOf(cond *querylang.Condition, ctx PushdownContext) Bucket {
	if cond == nil {
		return BucketPostJoin
	}
	switch cond.Kind {
	case querylang.CondOr:
		return bucketOfOr(cond.Conditions, ctx)
	case querylang.CondNot:
		if cond.Inner == nil {
			return BucketPostJoin
		}
		return bucketOf(cond.Inner, ctx)
	case querylang.CondSimilarity, querylang.CondNear:
		// Vector predicates are never pushed into column-store or graph
		// scans; they're evaluated by the search stage itself.
		return BucketPostJoin
	default:
		return bucketOfQualifier(qualifierOf(cond.Left), ctx)
	}
}

func bucketOfOr(branches []querylang.Condition, ctx PushdownContext) Bucket {
	if len(branches) == 0 {
		return BucketPostJoin
	}
	first := bucketOf(&branches[0], ctx)
	if first == BucketPostJoin {
		return BucketPostJoin
	}
	for i := 1; i < len(branches); i++ {
		if bucketOf(&branches[i], ctx) != first {
			return BucketPostJoin
		}
	}
	return first
}

// qualifierOf extracts the leading dotted segment of a column reference
// (the table alias or MATCH variable it's qualified by), or "" if the
// expression isn't a qualified column reference at all.
func qualifierOf(expr querylang.Expr) string {
	col, ok := expr.(querylang.ColumnRef)
	if !ok {
		return ""
	}
	if col.Table != "" {
		return col.Table
	}
	return firstDotSegment(col.Name)
}

func firstDotSegment(name string) string {
	for i := 0; i < len(name); i++ {
		if name[i] == '.' {
			return name[:i]
		}
	}
	return ""
}

func bucketOfQualifier(qualifier string, ctx PushdownContext) Bucket {
	if qualifier == "" {
		return BucketPostJoin
	}
	if ctx.JoinAliases[qualifier] {
		return BucketColumnStore
	}
	if ctx.GraphVariables[qualifier] {
		return BucketGraphVariable
	}
	return BucketPostJoin
}

package collection

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/nyxdb/nyx/pkg/exec"
	"github.com/nyxdb/nyx/pkg/filter"
	"github.com/nyxdb/nyx/pkg/graphstore"
	"github.com/nyxdb/nyx/pkg/nyxerr"
	"github.com/nyxdb/nyx/pkg/plan"
	"github.com/nyxdb/nyx/pkg/querylang"
	"github.com/nyxdb/nyx/pkg/vecmath"
)

// QueryResult is the wire envelope spec §6 describes: a shape tag, row
// count, timing, and the rows themselves. Warnings is part of the wire
// shape, but nothing in this package sets it: unrecognized WITH options
// and timeouts produce no warning entry.
type QueryResult struct {
	Type     string           `json:"type"`
	Count    int              `json:"count"`
	TimingMS float64          `json:"timing_ms"`
	Results  []map[string]any `json:"results"`
	Warnings []string         `json:"warnings,omitempty"`
}

// payloadFetcher and idResolver satisfy pkg/exec's VectorSearch
// collaborator interfaces directly over the collection's own stores, so
// VectorSearch needs no collection-specific code of its own.
type payloadFetcher struct{ c *Collection }

func (f payloadFetcher) FetchPayload(id uint64) (any, error) {
	raw, ok, err := f.c.payloads.Get(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("collection: no payload for id %d", id)
	}
	doc, ok := decodeDoc(raw)
	if !ok {
		return nil, fmt.Errorf("collection: undecodable payload for id %d", id)
	}
	return doc, nil
}

type idResolver struct{ c *Collection }

func (r idResolver) ResolveID(idx uint64) (uint64, bool) {
	return r.c.ids.GetID(idx)
}

// Query parses src, classifies its execution shape, and runs it against
// this collection, returning the same wire envelope shape regardless of
// which shape was chosen. Errors are funneled through nyxerr so every
// stage (parse, plan, exec) surfaces the same six-code taxonomy.
func (c *Collection) Query(ctx context.Context, src string, params map[string]any) (*QueryResult, error) {
	start := Now()

	q, err := querylang.Parse(src)
	if err != nil {
		return nil, nyxerr.Wrap(err, nyxerr.CodeSyntax)
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return nil, nyxerr.New(nyxerr.CodeCollectionNotFound, "collection is closed")
	}

	shape := plan.ClassifyShape(q)
	var result *QueryResult
	switch shape {
	case plan.ShapeRows:
		result, err = c.execRows(q.Select, params)
	case plan.ShapeSearch:
		result, err = c.execSearch(ctx, q.Select, params)
	case plan.ShapeAggregation:
		result, err = c.execAggregation(q.Select, params)
	case plan.ShapeGraph:
		result, err = c.execGraph(ctx, q.Match, q.Select, params)
	default:
		err = nyxerr.Newf(nyxerr.CodeSyntax, "unrecognized query shape %q", shape)
	}
	if err != nil {
		return nil, nyxerr.Wrap(err, nyxerr.CodeSyntax)
	}

	result.Type = string(shape)
	result.Count = len(result.Results)
	result.TimingMS = float64(Now().Sub(start).Nanoseconds()) / 1e6
	return result, nil
}

// execRows runs a plain metadata scan: every live id, filtered by WHERE,
// projected, sorted, and limited. There is no secondary-index shortcut
// here yet — every id is visited and its payload fetched — since
// pkg/propindex's equality/range lookups aren't wired into the planner's
// bucket selection (pkg/plan.Pushdown) as of this pass.
func (c *Collection) execRows(sel *querylang.SelectStatement, params map[string]any) (*QueryResult, error) {
	cond, err := convertCondition(sel.Where, params)
	if err != nil {
		return nil, nyxerr.Wrap(err, nyxerr.CodeMissingParameter)
	}

	if len(sel.Joins) == 0 {
		var rows []map[string]any
		c.ids.Each(func(id, idx uint64) {
			raw, ok, err := c.payloads.Get(id)
			if err != nil || !ok {
				return
			}
			doc, ok := decodeDoc(raw)
			if !ok {
				return
			}
			if !cond.Matches(doc) {
				return
			}
			rows = append(rows, projectRow(sel, id, doc, 0, true))
		})

		if len(sel.OrderBy) > 0 {
			sortRowsByOrder(rows, sel.OrderBy)
		}
		rows = applyLimitOffset(rows, sel.Limit, sel.Offset)
		return &QueryResult{Results: rows}, nil
	}

	// A JOIN's right-hand fields aren't available until after the hash join,
	// so the WHERE filter can't be applied during the scan the way the
	// no-join path does it above — every live row is materialized first,
	// joined left-to-right against each declared column-store table in turn
	// (spec §4.9/§4.10: joins only ever match a right-hand table's declared
	// primary key), and only then filtered, ordered, and limited.
	var rows []exec.Row
	c.ids.Each(func(id, idx uint64) {
		raw, ok, err := c.payloads.Get(id)
		if err != nil || !ok {
			return
		}
		doc, ok := decodeDoc(raw)
		if !ok {
			return
		}
		row := make(exec.Row, len(doc)+1)
		for k, v := range doc {
			row[k] = v
		}
		row["id"] = id
		rows = append(rows, row)
	})

	for _, j := range sel.Joins {
		rightAlias := j.Alias
		if rightAlias == "" {
			rightAlias = j.Table
		}
		key, err := joinKeyFromOn(j.On, rightAlias)
		if err != nil {
			return nil, nyxerr.Wrap(err, nyxerr.CodeSyntax)
		}
		table := j.Table
		rows, err = exec.HashJoin(rows, key, func(keys []any) (map[any]exec.Row, error) {
			return c.columns.BatchGet(table, keys)
		})
		if err != nil {
			return nil, fmt.Errorf("collection: join %q: %w", j.Table, err)
		}
	}

	out := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		if !cond.Matches(row) {
			continue
		}
		id, _ := row["id"].(uint64)
		out = append(out, projectRow(sel, id, row, 0, true))
	}

	if len(sel.OrderBy) > 0 {
		sortRowsByOrder(out, sel.OrderBy)
	}
	out = applyLimitOffset(out, sel.Limit, sel.Offset)
	return &QueryResult{Results: out}, nil
}

// joinKeyFromOn picks apart a "JOIN table [alias] ON left = right" clause's
// equality condition into the left row's foreign-key field and the
// right-hand table's declared primary key column, regardless of which side
// of the equality names the join alias. The parser never splits a dotted
// ColumnRef into Table/Name (querylang/parser.go keeps the whole path in
// Name, since only the planner knows which leading segment is a join alias
// versus the start of a JSON path) — so the alias is recovered here by
// splitting each operand's Name on its first dot instead of reading Table.
func joinKeyFromOn(on *querylang.Condition, rightAlias string) (exec.JoinKey, error) {
	if on == nil || on.Kind != querylang.CondEq {
		return exec.JoinKey{}, fmt.Errorf("collection: JOIN ... ON must be a single equality between the join key and the declared primary key")
	}
	leftRef, leftOK := on.Left.(querylang.ColumnRef)
	rightRef, rightOK := on.Right.(querylang.ColumnRef)
	if !leftOK || !rightOK {
		return exec.JoinKey{}, fmt.Errorf("collection: JOIN ... ON must compare two columns")
	}
	leftQual, leftField := splitQualifier(leftRef.Name)
	_, rightField := splitQualifier(rightRef.Name)
	if leftQual == rightAlias {
		leftField, rightField = rightField, leftField
	}
	return exec.JoinKey{LeftField: leftField, RightField: rightField}, nil
}

// splitQualifier splits a dotted column reference's leading segment (a
// table/join alias or MATCH pattern variable) from the rest of the path.
// name with no dot returns ("", name).
func splitQualifier(name string) (string, string) {
	if i := strings.IndexByte(name, '.'); i >= 0 {
		return name[:i], name[i+1:]
	}
	return "", name
}

// execSearch runs the top-level similarity/NEAR predicates in WHERE
// (fusing multiple ANDed predicates per spec §4.10's RRF-by-default rule),
// applies the remaining metadata filter as the VectorSearch oversample
// predicate, then projects and limits.
func (c *Collection) execSearch(ctx context.Context, sel *querylang.SelectStatement, params map[string]any) (*QueryResult, error) {
	if plan.HasORedSimilarityPredicates(sel.Where) {
		return nil, nyxerr.New(nyxerr.CodeSyntax, "OR-combined similarity predicates are not supported; combine with AND")
	}

	vectorConds := gatherVectorConditions(sel.Where)
	if len(vectorConds) == 0 {
		return nil, nyxerr.New(nyxerr.CodeSyntax, "search query classified but no similarity/NEAR predicate found")
	}

	predicate, err := convertCondition(sel.Where, params)
	if err != nil {
		return nil, nyxerr.Wrap(err, nyxerr.CodeMissingParameter)
	}

	k := requestedK(sel, vectorConds)
	fetcher := payloadFetcher{c: c}
	resolver := idResolver{c: c}

	lists := make([][]exec.Ranked, 0, len(vectorConds))
	for _, vc := range vectorConds {
		vec, err := vectorOf(vc, params)
		if err != nil {
			return nil, nyxerr.Wrap(err, nyxerr.CodeMissingParameter)
		}
		ranked, err := exec.VectorSearch(ctx, c.graph, vec, k, &predicate, fetcher, resolver)
		if err != nil {
			return nil, fmt.Errorf("collection: vector search: %w", err)
		}
		lists = append(lists, ranked)
	}

	fusion := querylang.DefaultFusionClause()
	if sel.Fusion != nil {
		fusion = *sel.Fusion
	}
	fused := lists[0]
	if len(lists) > 1 {
		fused = exec.Fuse(lists, fusion)
	}

	rows := make([]map[string]any, 0, len(fused))
	for _, r := range fused {
		raw, ok, err := c.payloads.Get(r.ID)
		if err != nil || !ok {
			continue
		}
		doc, ok := decodeDoc(raw)
		if !ok {
			continue
		}
		rows = append(rows, projectRow(sel, r.ID, doc, r.Score, true))
	}

	rows = applyLimitOffset(rows, sel.Limit, sel.Offset)
	return &QueryResult{Results: rows}, nil
}

// execAggregation runs a streaming single-pass GROUP BY/aggregate query:
// WHERE filters rows before they're folded into pkg/exec.Aggregator, and
// HAVING (post-group, and an error without a GROUP BY — spec §4.10/§8) runs
// on the aggregator's per-group results before sorting/limiting.
func (c *Collection) execAggregation(sel *querylang.SelectStatement, params map[string]any) (*QueryResult, error) {
	if sel.Having != nil && len(sel.GroupBy) == 0 {
		return nil, nyxerr.New(nyxerr.CodeSyntax, "HAVING without GROUP BY is not allowed")
	}

	groupByPaths := make([]string, len(sel.GroupBy))
	for i, expr := range sel.GroupBy {
		field, err := fieldOf(expr)
		if err != nil {
			return nil, nyxerr.Wrap(err, nyxerr.CodeSyntax)
		}
		groupByPaths[i] = field
	}

	var aggregates []querylang.AggregateExpr
	var aggAliases []string
	groupAliases := make([]string, len(groupByPaths))
	for _, col := range sel.Columns {
		switch e := col.Expr.(type) {
		case querylang.AggregateExpr:
			aggregates = append(aggregates, e)
			aggAliases = append(aggAliases, col.Alias)
		case querylang.ColumnRef:
			if col.Alias == "" {
				continue
			}
			for i, path := range groupByPaths {
				if e.Name == path {
					groupAliases[i] = col.Alias
				}
			}
		}
	}

	cond, err := convertCondition(sel.Where, params)
	if err != nil {
		return nil, nyxerr.Wrap(err, nyxerr.CodeMissingParameter)
	}

	agg := exec.NewAggregator(groupByPaths, aggregates)
	c.ids.Each(func(id, idx uint64) {
		raw, ok, err := c.payloads.Get(id)
		if err != nil || !ok {
			return
		}
		doc, ok := decodeDoc(raw)
		if !ok {
			return
		}
		if !cond.Matches(doc) {
			return
		}
		agg.Add(doc)
	})

	rows := agg.Results(groupAliases, aggAliases)
	if sel.Having != nil {
		resolveHavingField := func(expr querylang.Expr) (string, error) {
			if call, ok := expr.(querylang.AggregateExpr); ok {
				for i, a := range aggregates {
					if aggregatesEqual(a, call) {
						return aggregateResultAlias(a, aggAliases[i]), nil
					}
				}
				return "", fmt.Errorf("collection: HAVING references an aggregate not present in SELECT")
			}
			return fieldOf(expr)
		}
		havingCond, err := convertConditionWith(sel.Having, params, resolveHavingField)
		if err != nil {
			return nil, nyxerr.Wrap(err, nyxerr.CodeMissingParameter)
		}
		rows = exec.HavingFilter(rows, havingCond)
	}

	out := []map[string]any(rows)
	if len(sel.OrderBy) > 0 {
		sortRowsByOrder(out, sel.OrderBy)
	}
	out = applyLimitOffset(out, sel.Limit, sel.Offset)
	return &QueryResult{Results: out}, nil
}

// aggregateResultAlias reproduces pkg/exec.Aggregator.Results's column-key
// convention (alias if given, else "FUNC(arg)"/"FUNC(*)") so a HAVING clause
// referencing the same aggregate call as the SELECT list resolves to the
// same result-row key.
func aggregateResultAlias(agg querylang.AggregateExpr, alias string) string {
	if alias != "" {
		return alias
	}
	arg := "*"
	if col, ok := agg.Arg.(querylang.ColumnRef); ok {
		arg = col.Name
	}
	return fmt.Sprintf("%s(%s)", agg.Func, arg)
}

func aggregatesEqual(a, b querylang.AggregateExpr) bool {
	if a.Func != b.Func || a.Distinct != b.Distinct {
		return false
	}
	ac, aok := a.Arg.(querylang.ColumnRef)
	bc, bok := b.Arg.(querylang.ColumnRef)
	if aok != bok {
		return false
	}
	if !aok {
		return true
	}
	return ac == bc
}

// graphBinding is one partial match of a MATCH pattern: the node id each
// pattern variable seen so far is bound to.
type graphBinding struct {
	vars map[string]uint64
}

// execGraph evaluates a MATCH pattern by walking it edge by edge from a
// label-filtered anchor set, using pkg/graphstore's BFS/DFS traversal to
// find each next variable's candidates (spec §4.10: "BFS or DFS from anchor
// nodes ... respects a max_depth cap, filters by relationship labels").
// Each surviving binding's variables are fetched as documents, assembled
// into a row keyed by variable name, filtered by WHERE (qualified field
// paths resolve "a.name" against the "a" variable's document), and
// projected per RETURN. A similarity() predicate inside MATCH's WHERE
// (spec §4.10: "candidate nodes are further ranked by HNSW similarity over
// the referenced vector attribute") is evaluated directly against each
// binding's already-traversed candidate set via pkg/vecmath, rather than a
// fresh HNSW probe — the pattern's own traversal, not a vector index seek,
// is what produced these candidates, so there's no index to re-query against.
func (c *Collection) execGraph(ctx context.Context, m *querylang.MatchClause, sel *querylang.SelectStatement, params map[string]any) (*QueryResult, error) {
	if plan.HasORedSimilarityPredicates(m.Where) {
		return nil, nyxerr.New(nyxerr.CodeSyntax, "OR-combined similarity predicates are not supported; combine with AND")
	}

	pattern := m.Pattern
	if len(pattern.Nodes) == 0 {
		return nil, nyxerr.New(nyxerr.CodeSyntax, "MATCH pattern has no nodes")
	}
	if len(pattern.Nodes) != len(pattern.Edges)+1 {
		return nil, nyxerr.New(nyxerr.CodeSyntax, "MATCH pattern must alternate nodes and edges")
	}

	anchors, err := c.scanNodeIDsByLabel(pattern.Nodes[0].Labels)
	if err != nil {
		return nil, err
	}
	bindings := make([]graphBinding, 0, len(anchors))
	for _, id := range anchors {
		bindings = append(bindings, graphBinding{vars: map[string]uint64{pattern.Nodes[0].Variable: id}})
	}

	for i, edge := range pattern.Edges {
		nextNode := pattern.Nodes[i+1]
		dir := graphDirectionOf(edge.Direction)
		maxDepth := edge.MaxHops
		if maxDepth <= 0 {
			maxDepth = 1
		}

		var next []graphBinding
		for _, b := range bindings {
			startID := b.vars[pattern.Nodes[i].Variable]
			reached, err := c.edges.TraverseBFS(ctx, startID, dir, edge.Labels, maxDepth)
			if err != nil {
				return nil, fmt.Errorf("collection: graph traversal: %w", err)
			}
			for _, rid := range reached {
				if !c.nodeHasLabel(rid, nextNode.Labels) {
					continue
				}
				nb := graphBinding{vars: make(map[string]uint64, len(b.vars)+1)}
				for k, v := range b.vars {
					nb.vars[k] = v
				}
				nb.vars[nextNode.Variable] = rid
				next = append(next, nb)
			}
		}
		bindings = next
	}

	whereCond, err := convertGraphCondition(m.Where, params)
	if err != nil {
		return nil, nyxerr.Wrap(err, nyxerr.CodeMissingParameter)
	}
	simConds := gatherVectorConditions(m.Where)

	docCache := make(map[uint64]map[string]any)
	fetchDoc := func(id uint64) (map[string]any, bool) {
		if d, ok := docCache[id]; ok {
			return d, true
		}
		raw, ok, err := c.payloads.Get(id)
		if err != nil || !ok {
			return nil, false
		}
		doc, ok := decodeDoc(raw)
		if !ok {
			return nil, false
		}
		docCache[id] = doc
		return doc, true
	}

	rows := make([]map[string]any, 0, len(bindings))
	for _, b := range bindings {
		row := make(map[string]any, len(b.vars))
		complete := true
		for varName, id := range b.vars {
			doc, ok := fetchDoc(id)
			if !ok {
				complete = false
				break
			}
			entry := make(map[string]any, len(doc)+1)
			for k, v := range doc {
				entry[k] = v
			}
			entry["id"] = id
			row[varName] = entry
		}
		if !complete || !whereCond.Matches(row) {
			continue
		}

		score := 0.0
		matched := true
		for _, sc := range simConds {
			ok, s, err := c.evalGraphSimilarity(sc, b.vars, params)
			if err != nil {
				return nil, nyxerr.Wrap(err, nyxerr.CodeMissingParameter)
			}
			if !ok {
				matched = false
				break
			}
			score = s
		}
		if !matched {
			continue
		}
		rows = append(rows, projectGraphRow(sel, row, score))
	}

	if len(sel.OrderBy) > 0 {
		sortRowsByOrder(rows, sel.OrderBy)
	}
	rows = applyLimitOffset(rows, sel.Limit, nil)
	return &QueryResult{Results: rows}, nil
}

// scanNodeIDsByLabel full-scans live ids for documents whose "label" field
// matches one of labels (any label when labels is empty) — the MATCH
// pattern's first node has no pinning predicate to resolve it via a
// property index yet, so every anchor search starts from a full scan,
// matching spec's "otherwise full-scan" fallback.
func (c *Collection) scanNodeIDsByLabel(labels []string) ([]uint64, error) {
	var out []uint64
	c.ids.Each(func(id, idx uint64) {
		if c.nodeHasLabel(id, labels) {
			out = append(out, id)
		}
	})
	return out, nil
}

func (c *Collection) nodeHasLabel(id uint64, labels []string) bool {
	if len(labels) == 0 {
		return true
	}
	raw, ok, err := c.payloads.Get(id)
	if err != nil || !ok {
		return false
	}
	doc, ok := decodeDoc(raw)
	if !ok {
		return false
	}
	label, _ := doc["label"].(string)
	for _, l := range labels {
		if l == label {
			return true
		}
	}
	return false
}

// graphDirectionOf maps the parser's direction enum onto pkg/graphstore's
// own (kept distinct so the parser doesn't import the storage package).
func graphDirectionOf(dir querylang.EdgeDirection) graphstore.Direction {
	switch dir {
	case querylang.DirOutgoing:
		return graphstore.Outgoing
	case querylang.DirIncoming:
		return graphstore.Incoming
	default:
		return graphstore.Both
	}
}

// evalGraphSimilarity evaluates one similarity()/NEAR WHERE predicate
// against an already-bound MATCH variable. A point's vector lives in
// pkg/vecstore indexed by internal slot, not as a named JSON payload field,
// so unlike an ordinary WHERE condition this doesn't resolve through
// filter.GetField: the predicate's field ref names the bound pattern
// variable (e.g. "b" in "similarity(b.embedding, ...)" — the attribute name
// after the dot is ignored the same way execSearch ignores it, since a
// point carries exactly one vector), which is looked up directly in vars to
// get the node id, translated to a vecstore slot via pkg/idmap, and fetched.
// The score is computed with pkg/vecmath at the collection's configured
// metric and compared against the predicate's threshold/operator.
func (c *Collection) evalGraphSimilarity(cond *querylang.Condition, vars map[string]uint64, params map[string]any) (bool, float64, error) {
	ref, ok := cond.Left.(querylang.ColumnRef)
	if !ok {
		return false, 0, fmt.Errorf("collection: similarity predicate's field must reference a MATCH variable")
	}
	varName, _ := splitQualifier(ref.Name)
	if varName == "" {
		varName = ref.Name
	}
	id, ok := vars[varName]
	if !ok {
		return false, 0, nil
	}
	idx, ok := c.ids.GetIdx(id)
	if !ok {
		return false, 0, nil
	}
	candidate, err := c.vecSource.Vector(idx)
	if err != nil {
		return false, 0, nil
	}
	query, err := vectorOf(cond, params)
	if err != nil {
		return false, 0, err
	}
	if len(candidate) != len(query) {
		return false, 0, nil
	}
	score := vecmath.Dispatch(c.config.Metric, len(query))(candidate, query)
	return compareScore(score, cond.Operator, cond.Threshold), score, nil
}

// compareScore applies a similarity() predicate's comparison operator.
func compareScore(score float64, op querylang.CompareOp, threshold float64) bool {
	switch op {
	case querylang.CondGt:
		return score > threshold
	case querylang.CondGte:
		return score >= threshold
	case querylang.CondLt:
		return score < threshold
	case querylang.CondLte:
		return score <= threshold
	case querylang.CondEq:
		return score == threshold
	case querylang.CondNeq:
		return score != threshold
	default:
		return score >= threshold
	}
}

// projectGraphRow projects a MATCH row (keyed by pattern variable, each
// value the variable's bound document) per RETURN: a bare variable
// ("RETURN a") yields its whole document, a qualified reference ("RETURN
// a.name") yields that one field, "RETURN similarity(...)" yields the score
// computed while filtering, and "RETURN *"/no items yields the row as-is.
func projectGraphRow(sel *querylang.SelectStatement, row map[string]any, score float64) map[string]any {
	if sel.SelectAll || len(sel.Columns) == 0 {
		return row
	}
	out := make(map[string]any, len(sel.Columns))
	for _, col := range sel.Columns {
		switch e := col.Expr.(type) {
		case querylang.ColumnRef:
			// A bare variable ("RETURN a") has no dot in Name and names a
			// whole bound document directly; anything else ("RETURN
			// a.name") is a dotted path navigated via filter.GetField.
			if !strings.Contains(e.Name, ".") {
				alias := e.Name
				if col.Alias != "" {
					alias = col.Alias
				}
				out[alias] = row[e.Name]
				continue
			}
			alias := e.Name
			if col.Alias != "" {
				alias = col.Alias
			}
			v, _ := filter.GetField(row, e.Name)
			out[alias] = v
		case querylang.SimilarityExpr:
			alias := "score"
			if col.Alias != "" {
				alias = col.Alias
			}
			out[alias] = score
		default:
			name := col.Alias
			if name == "" {
				name = "?column?"
			}
			out[name] = nil
		}
	}
	return out
}

func gatherVectorConditions(cond *querylang.Condition) []*querylang.Condition {
	if cond == nil {
		return nil
	}
	switch cond.Kind {
	case querylang.CondSimilarity, querylang.CondNear:
		return []*querylang.Condition{cond}
	case querylang.CondAnd:
		var out []*querylang.Condition
		for i := range cond.Conditions {
			out = append(out, gatherVectorConditions(&cond.Conditions[i])...)
		}
		return out
	default:
		return nil
	}
}

func requestedK(sel *querylang.SelectStatement, vectorConds []*querylang.Condition) int {
	for _, vc := range vectorConds {
		if vc.K > 0 {
			return vc.K
		}
	}
	if sel.Limit != nil && *sel.Limit > 0 {
		return *sel.Limit
	}
	return 10
}

func vectorOf(cond *querylang.Condition, params map[string]any) ([]float32, error) {
	v, err := resolveExpr(cond.Vector, params)
	if err != nil {
		return nil, err
	}
	switch vv := v.(type) {
	case []float32:
		return vv, nil
	case []float64:
		out := make([]float32, len(vv))
		for i, f := range vv {
			out[i] = float32(f)
		}
		return out, nil
	case []any:
		out := make([]float32, len(vv))
		for i, e := range vv {
			f, ok := e.(float64)
			if !ok {
				return nil, fmt.Errorf("collection: vector element %d is not numeric", i)
			}
			out[i] = float32(f)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("collection: similarity/NEAR predicate's vector did not resolve to a numeric array")
	}
}

// projectRow builds one output row: SELECT * merges the full decoded
// payload with "id" (and "score" when includeScore and score != 0);
// an explicit column list projects only the named fields.
func projectRow(sel *querylang.SelectStatement, id uint64, doc map[string]any, score float64, includeScore bool) map[string]any {
	row := make(map[string]any)
	if sel.SelectAll || len(sel.Columns) == 0 {
		for k, v := range doc {
			row[k] = v
		}
	} else {
		for _, col := range sel.Columns {
			name, value := projectColumn(col, doc, score)
			row[name] = value
		}
	}
	row["id"] = id
	if includeScore && score != 0 {
		row["score"] = score
	}
	return row
}

func projectColumn(col querylang.Projection, doc map[string]any, score float64) (string, any) {
	switch e := col.Expr.(type) {
	case querylang.ColumnRef:
		name := e.Name
		if col.Alias != "" {
			name = col.Alias
		}
		v, _ := filter.GetField(doc, e.Name)
		return name, v
	case querylang.SimilarityExpr:
		name := "score"
		if col.Alias != "" {
			name = col.Alias
		}
		return name, score
	default:
		name := col.Alias
		if name == "" {
			name = "?column?"
		}
		return name, nil
	}
}

func sortRowsByOrder(rows []map[string]any, order []querylang.OrderItem) {
	sort.SliceStable(rows, func(i, j int) bool {
		for _, item := range order {
			ref, ok := item.Expr.(querylang.ColumnRef)
			if !ok {
				continue
			}
			vi, _ := filter.GetField(rows[i], ref.Name)
			vj, _ := filter.GetField(rows[j], ref.Name)
			cmp := compareValues(vi, vj)
			if cmp == 0 {
				continue
			}
			if item.Desc {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})
}

func compareValues(a, b any) int {
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
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
	as := fmt.Sprint(a)
	bs := fmt.Sprint(b)
	switch {
	case as < bs:
		return -1
	case as > bs:
		return 1
	default:
		return 0
	}
}

func toFloat(v any) (float64, bool) {
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

func applyLimitOffset(rows []map[string]any, limit, offset *int) []map[string]any {
	start := 0
	if offset != nil && *offset > 0 {
		start = *offset
	}
	if start >= len(rows) {
		return []map[string]any{}
	}
	rows = rows[start:]
	if limit != nil && *limit >= 0 && *limit < len(rows) {
		rows = rows[:*limit]
	}
	return rows
}

package plan

import (
	"fmt"

	"github.com/nyxdb/nyx/pkg/querylang"
)

// PlanOperator is one node of an EXPLAIN/PROFILE operator tree, grounded
// on pkg/cypher/explain.go's PlanOperator (this lineage's own prior
// EXPLAIN support): execution flows bottom-up from the leaves (scans)
// toward the root (the final projection/limit).
type PlanOperator struct {
	OperatorType  string         `json:"operatorType"`
	Description   string         `json:"description"`
	Arguments     map[string]any `json:"arguments,omitempty"`
	Identifiers   []string       `json:"identifiers,omitempty"`
	Children      []*PlanOperator `json:"children,omitempty"`
	EstimatedRows int64          `json:"estimatedRows"`
}

// ExecutionPlan is the full explained plan for one query.
type ExecutionPlan struct {
	Root  *PlanOperator `json:"root"`
	Shape Shape         `json:"shape"`
	Query string        `json:"query"`
}

// Plan is the planner's output for one parsed query: its shape, its
// pushdown-analyzed filters, and enough context (join aliases, graph
// variables) for the executor to route each bucket correctly.
type Plan struct {
	Query    *querylang.Query
	Shape    Shape
	Context  PushdownContext
	Pushdown PushdownResult
}

// New builds a Plan by classifying the query's shape and running filter
// pushdown analysis over its WHERE (or MATCH WHERE) clause.
func New(q *querylang.Query) *Plan {
	ctx := NewPushdownContext(q)
	p := &Plan{
		Query:   q,
		Shape:   ClassifyShape(q),
		Context: ctx,
	}
	if where := whereOf(q); where != nil {
		p.Pushdown = Pushdown(where, ctx)
	}
	return p
}

func whereOf(q *querylang.Query) *querylang.Condition {
	if q.Match != nil {
		return q.Match.Where
	}
	if q.Select != nil {
		return q.Select.Where
	}
	return nil
}

// Explain renders the plan as an operator tree for the EXPLAIN surface.
// Row estimates are rough fixed guesses (spec §4.10 doesn't require a
// cost-based estimator, only that EXPLAIN show the chosen strategy), not
// a real cardinality estimate — a genuine histogram-based estimator is
// future work, not something any example repo in this lineage implements.
func (p *Plan) Explain(src string) *ExecutionPlan {
	root := p.buildOperatorTree()
	return &ExecutionPlan{Root: root, Shape: p.Shape, Query: src}
}

func (p *Plan) buildOperatorTree() *PlanOperator {
	switch p.Shape {
	case ShapeGraph:
		return p.buildGraphPlan()
	case ShapeSearch:
		return p.buildSearchPlan()
	case ShapeAggregation:
		return p.buildAggregationPlan()
	default:
		return p.buildRowsPlan()
	}
}

func (p *Plan) buildGraphPlan() *PlanOperator {
	m := p.Query.Match
	scan := &PlanOperator{
		OperatorType:  "NodeScan",
		Description:   "scan starting node pattern",
		EstimatedRows: 1000,
	}
	current := scan
	for i, edge := range m.Pattern.Edges {
		current = &PlanOperator{
			OperatorType:  "Expand",
			Description:   fmt.Sprintf("traverse edge %d (%s)", i, directionLabel(edge.Direction)),
			Arguments:     map[string]any{"minHops": edge.MinHops, "maxHops": edge.MaxHops, "labels": edge.Labels},
			Children:      []*PlanOperator{current},
			EstimatedRows: current.EstimatedRows * 4,
		}
	}
	current = p.wrapPushdown(current)
	return p.wrapProjection(current, m.Return.Items, m.Return.Limit)
}

func directionLabel(dir querylang.EdgeDirection) string {
	switch dir {
	case querylang.DirOutgoing:
		return "outgoing"
	case querylang.DirIncoming:
		return "incoming"
	default:
		return "both"
	}
}

func (p *Plan) buildSearchPlan() *PlanOperator {
	sel := p.Query.Select
	n := CountSimilarityPredicates(sel.Where)
	scan := &PlanOperator{
		OperatorType: "VectorSearch",
		Description:  "HNSW approximate nearest-neighbor search with oversampling",
		Arguments:    map[string]any{"similarityPredicates": n},
		// k*4 oversample guess, spec §4.10's default filter-selectivity assumption.
		EstimatedRows: 400,
	}
	if n > 1 {
		scan = &PlanOperator{
			OperatorType:  "FusionMerge",
			Description:   "fuse multiple ranked similarity lists (default RRF, k=60)",
			Children:      []*PlanOperator{scan},
			EstimatedRows: scan.EstimatedRows,
		}
	}
	current := p.wrapPushdown(scan)
	current = p.wrapJoins(current)
	current = p.wrapOrderLimit(current)
	return p.wrapProjection(current, sel.Columns, sel.Limit)
}

func (p *Plan) buildAggregationPlan() *PlanOperator {
	sel := p.Query.Select
	scan := &PlanOperator{
		OperatorType:  "CollectionScan",
		Description:   "scan base collection payloads",
		EstimatedRows: 10000,
	}
	current := p.wrapPushdown(scan)
	current = p.wrapJoins(current)
	agg := &PlanOperator{
		OperatorType:  "StreamingAggregate",
		Description:   "single-pass group/aggregate with map-reduce merge",
		Arguments:     map[string]any{"groupBy": len(sel.GroupBy)},
		Children:      []*PlanOperator{current},
		EstimatedRows: max64(1, current.EstimatedRows/10),
	}
	if sel.Having != nil {
		agg = &PlanOperator{
			OperatorType:  "Filter",
			Description:   "HAVING post-group filter",
			Children:      []*PlanOperator{agg},
			EstimatedRows: agg.EstimatedRows,
		}
	}
	current = p.wrapOrderLimit(agg)
	return p.wrapProjection(current, sel.Columns, sel.Limit)
}

func (p *Plan) buildRowsPlan() *PlanOperator {
	sel := p.Query.Select
	scan := &PlanOperator{
		OperatorType:  "CollectionScan",
		Description:   "scan base collection payloads",
		EstimatedRows: 10000,
	}
	current := p.wrapPushdown(scan)
	current = p.wrapJoins(current)
	current = p.wrapOrderLimit(current)
	return p.wrapProjection(current, sel.Columns, sel.Limit)
}

func (p *Plan) wrapPushdown(child *PlanOperator) *PlanOperator {
	current := child
	if len(p.Pushdown.ColumnStore) > 0 {
		current = &PlanOperator{
			OperatorType:  "Filter",
			Description:   "pushed-down column-store filter",
			Arguments:     map[string]any{"conjuncts": len(p.Pushdown.ColumnStore)},
			Children:      []*PlanOperator{current},
			EstimatedRows: current.EstimatedRows / 2,
		}
	}
	if len(p.Pushdown.GraphVariable) > 0 {
		current = &PlanOperator{
			OperatorType:  "Filter",
			Description:   "pushed-down graph-variable filter",
			Arguments:     map[string]any{"conjuncts": len(p.Pushdown.GraphVariable)},
			Children:      []*PlanOperator{current},
			EstimatedRows: current.EstimatedRows / 2,
		}
	}
	if len(p.Pushdown.PostJoin) > 0 {
		current = &PlanOperator{
			OperatorType:  "Filter",
			Description:   "post-join filter",
			Arguments:     map[string]any{"conjuncts": len(p.Pushdown.PostJoin)},
			Children:      []*PlanOperator{current},
			EstimatedRows: current.EstimatedRows / 2,
		}
	}
	return current
}

func (p *Plan) wrapJoins(child *PlanOperator) *PlanOperator {
	sel := p.Query.Select
	if sel == nil {
		return child
	}
	current := child
	for _, j := range sel.Joins {
		current = &PlanOperator{
			OperatorType:  "HashJoin",
			Description:   fmt.Sprintf("hash-join against %s on declared primary key", j.Table),
			Identifiers:   []string{j.Alias},
			Children:      []*PlanOperator{current},
			EstimatedRows: current.EstimatedRows,
		}
	}
	return current
}

func (p *Plan) wrapOrderLimit(child *PlanOperator) *PlanOperator {
	sel := p.Query.Select
	current := child
	if sel != nil && len(sel.OrderBy) > 0 {
		current = &PlanOperator{
			OperatorType:  "Sort",
			Description:   "order results",
			Children:      []*PlanOperator{current},
			EstimatedRows: current.EstimatedRows,
		}
	}
	if sel != nil && sel.Limit != nil {
		current = &PlanOperator{
			OperatorType:  "Limit",
			Description:   fmt.Sprintf("limit to %d rows", *sel.Limit),
			Children:      []*PlanOperator{current},
			EstimatedRows: int64(*sel.Limit),
		}
	}
	return current
}

func (p *Plan) wrapProjection(child *PlanOperator, columns []querylang.Projection, limit *int) *PlanOperator {
	op := &PlanOperator{
		OperatorType:  "Projection",
		Description:   fmt.Sprintf("project %d columns", len(columns)),
		Children:      []*PlanOperator{child},
		EstimatedRows: child.EstimatedRows,
	}
	if limit != nil && int64(*limit) < op.EstimatedRows {
		op.EstimatedRows = int64(*limit)
	}
	return op
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

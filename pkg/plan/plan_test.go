package plan

import (
	"testing"

	"github.com/nyxdb/nyx/pkg/querylang"
)

func mustParse(t *testing.T, src string) *querylang.Query {
	t.Helper()
	q, err := querylang.Parse(src)
	if err != nil {
		t.Fatalf("parse %q: %v", src, err)
	}
	return q
}

func TestClassifyShapeRows(t *testing.T) {
	q := mustParse(t, "SELECT name FROM docs WHERE age > 10")
	if got := ClassifyShape(q); got != ShapeRows {
		t.Fatalf("got %v, want rows", got)
	}
}

func TestClassifyShapeSearch(t *testing.T) {
	q := mustParse(t, "SELECT * FROM docs WHERE similarity(embedding, $q) >= 0.8")
	if got := ClassifyShape(q); got != ShapeSearch {
		t.Fatalf("got %v, want search", got)
	}
}

func TestClassifyShapeAggregationPrecedesSearch(t *testing.T) {
	q := mustParse(t, "SELECT COUNT(*) FROM docs WHERE similarity(embedding, $q) >= 0.8")
	if got := ClassifyShape(q); got != ShapeAggregation {
		t.Fatalf("got %v, want aggregation to take precedence over search", got)
	}
}

func TestClassifyShapeGraphPrecedesAll(t *testing.T) {
	q := mustParse(t, "MATCH (a:Person)-[:KNOWS]->(b:Person) RETURN COUNT(*)")
	if got := ClassifyShape(q); got != ShapeGraph {
		t.Fatalf("got %v, want graph", got)
	}
}

func TestClassifyShapeGroupByIsAggregation(t *testing.T) {
	q := mustParse(t, "SELECT dept, COUNT(*) FROM docs GROUP BY dept")
	if got := ClassifyShape(q); got != ShapeAggregation {
		t.Fatalf("got %v, want aggregation", got)
	}
}

func TestCountSimilarityPredicatesANDed(t *testing.T) {
	q := mustParse(t, "SELECT * FROM docs WHERE similarity(a, $x) >= 0.5 AND similarity(b, $y) >= 0.5")
	if got := CountSimilarityPredicates(q.Select.Where); got != 2 {
		t.Fatalf("got %d, want 2", got)
	}
}

func TestHasORedSimilarityPredicatesDetected(t *testing.T) {
	q := mustParse(t, "SELECT * FROM docs WHERE similarity(a, $x) >= 0.5 OR similarity(b, $y) >= 0.5")
	if !HasORedSimilarityPredicates(q.Select.Where) {
		t.Fatal("expected ORed similarity predicates to be detected")
	}
}

func TestHasORedSimilarityPredicatesNotFalsePositive(t *testing.T) {
	q := mustParse(t, "SELECT * FROM docs WHERE similarity(a, $x) >= 0.5 OR age > 10")
	if HasORedSimilarityPredicates(q.Select.Where) {
		t.Fatal("single similarity predicate ORed with a plain filter should not trigger")
	}
}

func TestPushdownColumnStoreBucket(t *testing.T) {
	q := mustParse(t, "SELECT * FROM docs JOIN users u ON docs.user_id = u.id WHERE u.active = true")
	ctx := NewPushdownContext(q)
	result := Pushdown(q.Select.Where, ctx)
	if len(result.ColumnStore) != 1 {
		t.Fatalf("expected 1 column-store conjunct, got %d (postjoin=%d)", len(result.ColumnStore), len(result.PostJoin))
	}
}

func TestPushdownGraphVariableBucket(t *testing.T) {
	q := mustParse(t, "MATCH (a:Person)-[:KNOWS]->(b:Person) WHERE a.age > 21 RETURN a")
	ctx := NewPushdownContext(q)
	result := Pushdown(q.Match.Where, ctx)
	if len(result.GraphVariable) != 1 {
		t.Fatalf("expected 1 graph-variable conjunct, got %d", len(result.GraphVariable))
	}
}

func TestPushdownUnqualifiedFieldIsPostJoin(t *testing.T) {
	q := mustParse(t, "SELECT * FROM docs JOIN users u ON docs.user_id = u.id WHERE status = 'active'")
	ctx := NewPushdownContext(q)
	result := Pushdown(q.Select.Where, ctx)
	if len(result.PostJoin) != 1 {
		t.Fatalf("expected 1 post-join conjunct, got %d", len(result.PostJoin))
	}
}

func TestPushdownMixedANDSplitsAcrossBuckets(t *testing.T) {
	q := mustParse(t, "SELECT * FROM docs JOIN users u ON docs.user_id = u.id WHERE u.active = true AND status = 'x'")
	ctx := NewPushdownContext(q)
	result := Pushdown(q.Select.Where, ctx)
	if len(result.ColumnStore) != 1 || len(result.PostJoin) != 1 {
		t.Fatalf("expected split 1/1, got columnStore=%d postJoin=%d", len(result.ColumnStore), len(result.PostJoin))
	}
}

func TestPushdownORAcrossBucketsStaysPostJoin(t *testing.T) {
	q := mustParse(t, "SELECT * FROM docs JOIN users u ON docs.user_id = u.id WHERE u.active = true OR status = 'x'")
	ctx := NewPushdownContext(q)
	result := Pushdown(q.Select.Where, ctx)
	if len(result.PostJoin) != 1 {
		t.Fatalf("expected OR spanning two buckets to stay a single post-join conjunct, got postJoin=%d columnStore=%d", len(result.PostJoin), len(result.ColumnStore))
	}
}

func TestPushdownORWithinSameBucketIsPushed(t *testing.T) {
	q := mustParse(t, "SELECT * FROM docs JOIN users u ON docs.user_id = u.id WHERE u.active = true OR u.verified = true")
	ctx := NewPushdownContext(q)
	result := Pushdown(q.Select.Where, ctx)
	if len(result.ColumnStore) != 1 {
		t.Fatalf("expected OR within one bucket to push down, got columnStore=%d postJoin=%d", len(result.ColumnStore), len(result.PostJoin))
	}
}

func TestExplainRowsPlanHasScanAndProjection(t *testing.T) {
	q := mustParse(t, "SELECT name FROM docs WHERE age > 10 LIMIT 5")
	p := New(q)
	ep := p.Explain("SELECT name FROM docs WHERE age > 10 LIMIT 5")
	if ep.Shape != ShapeRows {
		t.Fatalf("expected rows shape, got %v", ep.Shape)
	}
	if ep.Root.OperatorType != "Projection" {
		t.Fatalf("expected root Projection, got %s", ep.Root.OperatorType)
	}
	if ep.Root.Children[0].OperatorType != "Limit" {
		t.Fatalf("expected Limit under Projection, got %s", ep.Root.Children[0].OperatorType)
	}
}

func TestExplainSearchPlanHasVectorSearch(t *testing.T) {
	q := mustParse(t, "SELECT * FROM docs WHERE similarity(embedding, $q) >= 0.8")
	p := New(q)
	ep := p.Explain("...")
	if !containsOperator(ep.Root, "VectorSearch") {
		t.Fatal("expected VectorSearch operator in plan tree")
	}
}

func TestExplainMultiSimilarityHasFusionMerge(t *testing.T) {
	q := mustParse(t, "SELECT * FROM docs WHERE similarity(a, $x) >= 0.5 AND similarity(b, $y) >= 0.5")
	p := New(q)
	ep := p.Explain("...")
	if !containsOperator(ep.Root, "FusionMerge") {
		t.Fatal("expected FusionMerge operator when multiple similarity predicates are ANDed")
	}
}

func TestExplainGraphPlanHasExpand(t *testing.T) {
	q := mustParse(t, "MATCH (a:Person)-[:KNOWS]->(b:Person) RETURN a")
	p := New(q)
	ep := p.Explain("...")
	if !containsOperator(ep.Root, "Expand") {
		t.Fatal("expected Expand operator for MATCH edge traversal")
	}
}

func TestExplainAggregationPlanHasStreamingAggregate(t *testing.T) {
	q := mustParse(t, "SELECT dept, COUNT(*) FROM docs GROUP BY dept HAVING COUNT(*) > 1")
	p := New(q)
	ep := p.Explain("...")
	if !containsOperator(ep.Root, "StreamingAggregate") {
		t.Fatal("expected StreamingAggregate operator")
	}
	if !containsOperator(ep.Root, "Filter") {
		t.Fatal("expected HAVING to produce a Filter operator")
	}
}

func containsOperator(op *PlanOperator, operatorType string) bool {
	if op == nil {
		return false
	}
	if op.OperatorType == operatorType {
		return true
	}
	for _, child := range op.Children {
		if containsOperator(child, operatorType) {
			return true
		}
	}
	return false
}

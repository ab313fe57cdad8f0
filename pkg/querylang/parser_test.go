package querylang

import "testing"

func mustParse(t *testing.T, src string) *Query {
	t.Helper()
	q, err := Parse(src)
	if err != nil {
		t.Fatalf("parse %q: %v", src, err)
	}
	return q
}

func TestParseSimpleSelect(t *testing.T) {
	q := mustParse(t, "SELECT name, age FROM people WHERE age > 21")
	if q.Select == nil || q.Select.From != "people" {
		t.Fatalf("unexpected select: %+v", q.Select)
	}
	if len(q.Select.Columns) != 2 {
		t.Fatalf("expected 2 columns, got %d", len(q.Select.Columns))
	}
	if q.Select.Where == nil || q.Select.Where.Kind != CondGt {
		t.Fatalf("expected Gt condition, got %+v", q.Select.Where)
	}
}

func TestParseSelectStar(t *testing.T) {
	q := mustParse(t, "SELECT * FROM docs")
	if !q.Select.SelectAll {
		t.Fatal("expected SelectAll")
	}
}

func TestParseDistinct(t *testing.T) {
	q := mustParse(t, "SELECT DISTINCT city FROM people")
	if !q.Select.Distinct {
		t.Fatal("expected Distinct")
	}
}

func TestParseWhereWithAndOrNot(t *testing.T) {
	q := mustParse(t, "SELECT * FROM t WHERE (a = 1 OR b = 2) AND NOT c = 3")
	where := q.Select.Where
	if where.Kind != CondAnd {
		t.Fatalf("expected top-level And, got %v", where.Kind)
	}
	if where.Conditions[0].Kind != CondOr {
		t.Fatalf("expected Or as first conjunct, got %v", where.Conditions[0].Kind)
	}
	if where.Conditions[1].Kind != CondNot {
		t.Fatalf("expected Not as second conjunct, got %v", where.Conditions[1].Kind)
	}
}

func TestParseInAndBetween(t *testing.T) {
	q := mustParse(t, "SELECT * FROM t WHERE status IN ('a', 'b') AND score BETWEEN 0 AND 100")
	where := q.Select.Where
	if where.Kind != CondAnd {
		t.Fatalf("expected And, got %v", where.Kind)
	}
	if where.Conditions[0].Kind != CondIn || len(where.Conditions[0].Values) != 2 {
		t.Fatalf("unexpected IN condition: %+v", where.Conditions[0])
	}
	if where.Conditions[1].Kind != CondBetween {
		t.Fatalf("expected Between, got %v", where.Conditions[1].Kind)
	}
}

func TestParseLikeAndIsNull(t *testing.T) {
	q := mustParse(t, "SELECT * FROM t WHERE name LIKE 'A%' AND deleted_at IS NULL")
	where := q.Select.Where
	if where.Conditions[0].Kind != CondLike {
		t.Fatalf("expected Like, got %v", where.Conditions[0].Kind)
	}
	if where.Conditions[1].Kind != CondIsNull {
		t.Fatalf("expected IsNull, got %v", where.Conditions[1].Kind)
	}
}

func TestParseParameterAndVectorLiteral(t *testing.T) {
	q := mustParse(t, "SELECT * FROM t WHERE similarity(embedding, [0.1, 0.2, -0.3]) >= 0.8")
	where := q.Select.Where
	if where.Kind != CondSimilarity {
		t.Fatalf("expected Similarity condition, got %v", where.Kind)
	}
	vec, ok := where.Vector.(VectorLiteral)
	if !ok || len(vec.Values) != 3 {
		t.Fatalf("expected 3-component vector literal, got %+v", where.Vector)
	}
	if vec.Values[2] != -0.3 {
		t.Errorf("expected negative component, got %v", vec.Values[2])
	}
	if where.Threshold != 0.8 {
		t.Errorf("expected threshold 0.8, got %v", where.Threshold)
	}
}

func TestParseParameterReference(t *testing.T) {
	q := mustParse(t, "SELECT * FROM t WHERE id = $target_id")
	right, ok := q.Select.Where.Right.(Param)
	if !ok || right.Name != "target_id" {
		t.Fatalf("expected Param(target_id), got %+v", q.Select.Where.Right)
	}
}

func TestParseNearPredicate(t *testing.T) {
	q := mustParse(t, "SELECT * FROM t WHERE NEAR(embedding, $q, 10)")
	if q.Select.Where.Kind != CondNear {
		t.Fatalf("expected Near, got %v", q.Select.Where.Kind)
	}
	if q.Select.Where.K != 10 {
		t.Errorf("expected k=10, got %d", q.Select.Where.K)
	}
}

func TestParseAggregatesAndGroupByHaving(t *testing.T) {
	q := mustParse(t, "SELECT city, COUNT(*), AVG(age) FROM people GROUP BY city HAVING COUNT(*) > 10")
	if len(q.Select.GroupBy) != 1 {
		t.Fatalf("expected 1 group-by column, got %d", len(q.Select.GroupBy))
	}
	if q.Select.Having == nil || q.Select.Having.Kind != CondGt {
		t.Fatalf("expected having condition, got %+v", q.Select.Having)
	}
	countCol, ok := q.Select.Columns[1].Expr.(AggregateExpr)
	if !ok || countCol.Func != AggCount {
		t.Fatalf("expected COUNT aggregate, got %+v", q.Select.Columns[1].Expr)
	}
}

func TestHavingWithoutGroupByIsError(t *testing.T) {
	_, err := Parse("SELECT * FROM t HAVING COUNT(*) > 1")
	if err == nil {
		t.Fatal("expected error for HAVING without GROUP BY")
	}
	pErr, ok := err.(*Error)
	if !ok || pErr.Kind != ErrSyntax {
		t.Fatalf("expected ErrSyntax, got %+v", err)
	}
}

func TestParseOrderByLimitOffset(t *testing.T) {
	q := mustParse(t, "SELECT * FROM t ORDER BY age DESC, name LIMIT 10 OFFSET 5")
	if len(q.Select.OrderBy) != 2 || !q.Select.OrderBy[0].Desc || q.Select.OrderBy[1].Desc {
		t.Fatalf("unexpected order by: %+v", q.Select.OrderBy)
	}
	if q.Select.Limit == nil || *q.Select.Limit != 10 {
		t.Fatalf("unexpected limit: %+v", q.Select.Limit)
	}
	if q.Select.Offset == nil || *q.Select.Offset != 5 {
		t.Fatalf("unexpected offset: %+v", q.Select.Offset)
	}
}

func TestParseJoin(t *testing.T) {
	q := mustParse(t, "SELECT * FROM orders o JOIN customers c ON o.customer_id = c.id")
	if len(q.Select.Joins) != 1 || q.Select.Joins[0].Table != "customers" {
		t.Fatalf("unexpected joins: %+v", q.Select.Joins)
	}
	if q.Select.Joins[0].On.Kind != CondEq {
		t.Fatalf("expected Eq join condition, got %v", q.Select.Joins[0].On.Kind)
	}
}

func TestParseWithClauseOptions(t *testing.T) {
	q := mustParse(t, "SELECT * FROM t WITH (mode = 'accurate', ef_search = 256, timeout_ms = 500)")
	mode, ok := q.Select.With.Get("mode")
	if !ok || mode != "accurate" {
		t.Fatalf("expected mode option, got %+v", q.Select.With)
	}
	ef, ok := q.Select.With.Get("ef_search")
	if !ok || ef != int64(256) {
		t.Fatalf("expected ef_search=256, got %+v", ef)
	}
}

func TestParseWithClauseFusionStrategy(t *testing.T) {
	q := mustParse(t, "SELECT * FROM t WITH (fusion = 'weighted', fusion_k = 40)")
	if q.Select.Fusion == nil {
		t.Fatal("expected fusion clause to be set")
	}
	if q.Select.Fusion.Strategy != FusionWeighted || q.Select.Fusion.K != 40 {
		t.Fatalf("unexpected fusion clause: %+v", q.Select.Fusion)
	}
}

func TestParseCompoundUnion(t *testing.T) {
	q := mustParse(t, "SELECT id FROM a UNION SELECT id FROM b")
	if q.Compound == nil || q.Compound.Operator != SetUnion {
		t.Fatalf("expected Union compound, got %+v", q.Compound)
	}
}

func TestParseCompoundUnionAll(t *testing.T) {
	q := mustParse(t, "SELECT id FROM a UNION ALL SELECT id FROM b")
	if q.Compound == nil || q.Compound.Operator != SetUnionAll {
		t.Fatalf("expected UnionAll compound, got %+v", q.Compound)
	}
}

func TestParseCompoundIntersectExcept(t *testing.T) {
	q := mustParse(t, "SELECT id FROM a INTERSECT SELECT id FROM b")
	if q.Compound.Operator != SetIntersect {
		t.Fatalf("expected Intersect, got %v", q.Compound.Operator)
	}
	q2 := mustParse(t, "SELECT id FROM a EXCEPT SELECT id FROM b")
	if q2.Compound.Operator != SetExcept {
		t.Fatalf("expected Except, got %v", q2.Compound.Operator)
	}
}

func TestParseMatchSimplePattern(t *testing.T) {
	q := mustParse(t, "MATCH (a:Person)-[:KNOWS]->(b:Person) RETURN a, b")
	if q.Match == nil {
		t.Fatal("expected match clause")
	}
	if len(q.Match.Pattern.Nodes) != 2 || len(q.Match.Pattern.Edges) != 1 {
		t.Fatalf("unexpected pattern: %+v", q.Match.Pattern)
	}
	if q.Match.Pattern.Nodes[0].Variable != "a" || q.Match.Pattern.Nodes[0].Labels[0] != "Person" {
		t.Fatalf("unexpected first node: %+v", q.Match.Pattern.Nodes[0])
	}
	if q.Match.Pattern.Edges[0].Labels[0] != "KNOWS" || q.Match.Pattern.Edges[0].Direction != DirOutgoing {
		t.Fatalf("unexpected edge: %+v", q.Match.Pattern.Edges[0])
	}
	if len(q.Match.Return.Items) != 2 {
		t.Fatalf("expected 2 return items, got %d", len(q.Match.Return.Items))
	}
}

func TestParseMatchWithWhereAndVariableLengthPath(t *testing.T) {
	q := mustParse(t, "MATCH (a)-[:KNOWS*1..3]->(b) WHERE a.age > 18 RETURN b LIMIT 5")
	edge := q.Match.Pattern.Edges[0]
	if edge.MinHops != 1 || edge.MaxHops != 3 {
		t.Fatalf("unexpected hop range: %+v", edge)
	}
	if q.Match.Where == nil {
		t.Fatal("expected where clause")
	}
	if q.Match.Return.Limit == nil || *q.Match.Return.Limit != 5 {
		t.Fatalf("unexpected limit: %+v", q.Match.Return.Limit)
	}
}

func TestParseMatchIncomingDirection(t *testing.T) {
	q := mustParse(t, "MATCH (a)<-[:FOLLOWS]-(b) RETURN a")
	if q.Match.Pattern.Edges[0].Direction != DirIncoming {
		t.Fatalf("expected incoming direction, got %v", q.Match.Pattern.Edges[0].Direction)
	}
}

func TestParseUnexpectedTokenError(t *testing.T) {
	_, err := Parse("SELECT FROM t")
	if err == nil {
		t.Fatal("expected a parse error")
	}
	pErr, ok := err.(*Error)
	if !ok {
		t.Fatalf("expected *Error, got %T", err)
	}
	if pErr.Kind != ErrUnexpectedToken {
		t.Errorf("expected ErrUnexpectedToken, got %v", pErr.Kind)
	}
	if pErr.Fragment == "" {
		t.Error("expected a non-empty source fragment")
	}
}

func TestParseTrailingGarbageIsError(t *testing.T) {
	_, err := Parse("SELECT * FROM t garbage stuff")
	if err == nil {
		t.Fatal("expected error on trailing input")
	}
}

func TestParseDottedColumnPath(t *testing.T) {
	q := mustParse(t, "SELECT * FROM t WHERE metadata.address.city = 'Berlin'")
	left, ok := q.Select.Where.Left.(ColumnRef)
	if !ok || left.Name != "metadata.address.city" {
		t.Fatalf("unexpected column ref: %+v", q.Select.Where.Left)
	}
}

package querylang

// Query is a complete parsed query: either a SELECT statement (optionally
// followed by a compound UNION/INTERSECT/EXCEPT) or a MATCH query. Mirrors
// ast/mod.rs's Query{select, compound, match_clause} shape directly.
type Query struct {
	Select   *SelectStatement
	Compound *CompoundQuery
	Match    *MatchClause
}

func (q *Query) IsMatchQuery() bool  { return q.Match != nil }
func (q *Query) IsSelectQuery() bool { return q.Match == nil }

// SetOperator is the compound-query combinator.
type SetOperator int

const (
	SetUnion SetOperator = iota
	SetUnionAll
	SetIntersect
	SetExcept
)

// CompoundQuery combines the primary SELECT with a second one via a set operator.
type CompoundQuery struct {
	Operator SetOperator
	Right    *SelectStatement
}

// Projection is one SELECT/RETURN output column: an expression with an
// optional alias ("AS name").
type Projection struct {
	Expr  Expr
	Alias string
}

// Join is a single JOIN clause against a declared right-hand table.
type Join struct {
	Table string
	Alias string
	On    *Condition
}

// OrderItem is one ORDER BY term.
type OrderItem struct {
	Expr Expr
	Desc bool
}

// WithClause carries recognized WITH (...) query options (mode, ef_search,
// timeout_ms, rerank, quantization, oversampling, etc). Unrecognized
// options are kept too; the parser only records what was written. Later
// stages ignore options they do not read, and nothing in this module
// emits a warning for them.
type WithClause struct {
	Options map[string]any
}

func (w *WithClause) Get(key string) (any, bool) {
	if w == nil {
		return nil, false
	}
	v, ok := w.Options[key]
	return v, ok
}

// FusionStrategy names how multiple similarity-ranked lists are merged.
type FusionStrategy string

const (
	FusionRRF      FusionStrategy = "rrf"
	FusionWeighted FusionStrategy = "weighted"
	FusionMax      FusionStrategy = "max"
	FusionMin      FusionStrategy = "min"
	FusionProduct  FusionStrategy = "product"
	FusionAverage  FusionStrategy = "average"
)

// FusionClause configures how multiple AND-combined similarity predicates
// are fused into one ranked list.
type FusionClause struct {
	Strategy FusionStrategy
	K        int // RRF k, default 60
}

// DefaultFusionClause is the default RRF strategy with k=60, matching
// ast/mod.rs's FusionConfig::rrf()/FusionClause::default().
func DefaultFusionClause() FusionClause {
	return FusionClause{Strategy: FusionRRF, K: 60}
}

// SelectStatement is a single SELECT (or the desugared body of a MATCH's
// RETURN), excluding any compound-query tail.
type SelectStatement struct {
	Distinct bool
	Columns  []Projection // nil + SelectAll true means "SELECT *"
	SelectAll bool

	From      string
	FromAlias string
	Joins     []Join

	Where *Condition

	GroupBy []Expr
	Having  *Condition

	OrderBy []OrderItem
	Limit   *int
	Offset  *int

	With   *WithClause
	Fusion *FusionClause
}

// --- Expressions ---

// Expr is a scalar expression: a column reference, a literal, a bound
// parameter, a vector literal, a function/aggregate call, or a
// similarity/NEAR predicate used in projection position (e.g. "SELECT
// similarity(embedding, $q) AS score").
type Expr interface {
	exprNode()
}

// ColumnRef is a column reference, e.g. "age", "u.age",
// "metadata.address.city". The parser keeps a dotted path whole in Name
// and never sets Table.
type ColumnRef struct {
	Table string
	Name  string
}

func (ColumnRef) exprNode() {}

// Literal is a parsed constant: nil, bool, float64, int64, or string.
type Literal struct {
	Value any
}

func (Literal) exprNode() {}

// Param is a "$name" bound-parameter reference.
type Param struct {
	Name string
}

func (Param) exprNode() {}

// VectorLiteral is a "[...]" numeric array literal used as a query vector.
type VectorLiteral struct {
	Values []float64
}

func (VectorLiteral) exprNode() {}

// AggregateFunc names the supported aggregate functions.
type AggregateFunc string

const (
	AggCount AggregateFunc = "COUNT"
	AggSum   AggregateFunc = "SUM"
	AggAvg   AggregateFunc = "AVG"
	AggMin   AggregateFunc = "MIN"
	AggMax   AggregateFunc = "MAX"
)

// AggregateExpr is a COUNT/SUM/AVG/MIN/MAX(arg) call. Arg is nil for
// COUNT(*). The parser also uses it for any other name(args) call, with
// the upper-cased name in Func and only the first argument in Arg.
type AggregateExpr struct {
	Func     AggregateFunc
	Arg      Expr
	Distinct bool
}

func (AggregateExpr) exprNode() {}

// SimilarityExpr is "similarity(field, $vec)" used directly as a scalar
// expression (e.g. in a projection or ORDER BY), separate from its use as
// a WHERE predicate (Condition with Kind == CondSimilarity).
type SimilarityExpr struct {
	Field  Expr
	Vector Expr
}

func (SimilarityExpr) exprNode() {}

// --- WHERE/HAVING condition tree ---

// ConditionKind identifies a predicate-tree node's operator.
type ConditionKind int

const (
	CondEq ConditionKind = iota
	CondNeq
	CondGt
	CondGte
	CondLt
	CondLte
	CondIn
	CondIsNull
	CondIsNotNull
	CondAnd
	CondOr
	CondNot
	CondLike
	CondILike
	CondBetween
	CondSimilarity
	CondNear
)

// CompareOp is the comparison operator a similarity() predicate uses
// against its threshold (">=", ">", etc. — any ConditionKind in
// Gt/Gte/Lt/Lte/Eq is valid here).
type CompareOp = ConditionKind

// Condition is one node of the (still-parameterized, not-yet-bound)
// WHERE/HAVING predicate tree. It mirrors pkg/filter.Condition's flat,
// Kind-tagged shape but carries Expr operands (columns/params/literals)
// instead of already-resolved values, since parameters aren't bound until
// query execution — the same reason ast/mod.rs keeps a separate Condition
// type from the evaluation-time filter::Condition, with conversion.rs
// doing the AST -> filter lowering once parameters are known.
type Condition struct {
	Kind ConditionKind

	Left  Expr // the field/column side
	Right Expr // the comparison value (literal/param) for Eq/Neq/Gt/.../Between's low bound

	Values []Expr // IN list

	High Expr // BETWEEN's high bound (Right holds the low bound)

	Pattern string // LIKE/ILIKE pattern text; the parser leaves it empty and puts the pattern (literal or param) in Right

	Conditions []Condition // And/Or
	Inner      *Condition  // Not

	// Similarity/NEAR predicate fields.
	Vector    Expr
	Operator  CompareOp // comparison op for CondSimilarity (e.g. CondGte)
	Threshold float64
	K         int // NEAR's requested neighbor count
}

// --- MATCH graph pattern ---

// EdgeDirection mirrors pkg/graphstore.Direction at the AST level so the
// parser doesn't need to import the storage package.
type EdgeDirection int

const (
	DirOutgoing EdgeDirection = iota
	DirIncoming
	DirBoth
)

// NodePattern is one "(var:Label)" element of a MATCH pattern.
type NodePattern struct {
	Variable string
	Labels   []string
}

// EdgePattern is one "-[var:REL*min..max]->" element of a MATCH pattern.
type EdgePattern struct {
	Variable  string
	Labels    []string
	Direction EdgeDirection
	MinHops   int
	MaxHops   int
}

// GraphPattern is an alternating chain of nodes and edges:
// Nodes[0] -Edges[0]-> Nodes[1] -Edges[1]-> Nodes[2] ...
type GraphPattern struct {
	Nodes []NodePattern
	Edges []EdgePattern
}

// ReturnClause is a MATCH query's RETURN projection.
type ReturnClause struct {
	Items []Projection
	Limit *int
}

// MatchClause is a full "MATCH pattern [WHERE ...] RETURN ..." query.
type MatchClause struct {
	Pattern GraphPattern
	Where   *Condition
	Return  ReturnClause
	With    *WithClause
}

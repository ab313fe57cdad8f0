// Package filter implements the predicate tree evaluated against a point's
// JSON properties: equality/comparison/membership/null-checks, boolean
// combinators, and SQL LIKE/ILIKE pattern matching. Grounded on velesdb's
// filter/conversion.rs (query-AST -> condition tree, mechanical and
// lossless) and filter/matching.rs (the DP LIKE matcher and dot-path field
// lookup this package's Matches and getField generalize).
package filter

// Kind identifies the operator a Condition applies. Go has no tagged-union
// sum type, so Condition is a flat struct with only the fields its Kind
// uses populated — the same flattening velesdb's matching.rs applies when
// it pattern-matches Condition's Rust enum.
type Kind int

const (
	Eq Kind = iota
	Neq
	Gt
	Gte
	Lt
	Lte
	In
	Contains
	IsNull
	IsNotNull
	And
	Or
	Not
	Like
	ILike
)

// Condition is one node of a predicate tree.
type Condition struct {
	Kind Kind

	Field string // Eq/Neq/Gt/Gte/Lt/Lte/In/Contains/IsNull/IsNotNull/Like/ILike
	Value any    // Eq/Neq/Gt/Gte/Lt/Lte/Contains

	Values []any // In

	Pattern string // Like/ILike

	Conditions []Condition // And/Or
	Condition  *Condition  // Not
}

func CondEq(field string, value any) Condition       { return Condition{Kind: Eq, Field: field, Value: value} }
func CondNeq(field string, value any) Condition      { return Condition{Kind: Neq, Field: field, Value: value} }
func CondGt(field string, value any) Condition       { return Condition{Kind: Gt, Field: field, Value: value} }
func CondGte(field string, value any) Condition      { return Condition{Kind: Gte, Field: field, Value: value} }
func CondLt(field string, value any) Condition       { return Condition{Kind: Lt, Field: field, Value: value} }
func CondLte(field string, value any) Condition      { return Condition{Kind: Lte, Field: field, Value: value} }
func CondIn(field string, values []any) Condition    { return Condition{Kind: In, Field: field, Values: values} }
func CondContains(field, substr string) Condition    { return Condition{Kind: Contains, Field: field, Value: substr} }
func CondIsNull(field string) Condition              { return Condition{Kind: IsNull, Field: field} }
func CondIsNotNull(field string) Condition           { return Condition{Kind: IsNotNull, Field: field} }
func CondAnd(conditions ...Condition) Condition      { return Condition{Kind: And, Conditions: conditions} }
func CondOr(conditions ...Condition) Condition       { return Condition{Kind: Or, Conditions: conditions} }
func CondNot(condition Condition) Condition          { return Condition{Kind: Not, Condition: &condition} }
func CondLike(field, pattern string) Condition       { return Condition{Kind: Like, Field: field, Pattern: pattern} }
func CondILike(field, pattern string) Condition      { return Condition{Kind: ILike, Field: field, Pattern: pattern} }

// CondBetween desugars BETWEEN into AND(field >= low, field <= high), the
// same rewrite velesdb's conversion.rs applies rather than carrying a
// distinct Between variant through evaluation.
func CondBetween(field string, low, high any) Condition {
	return CondAnd(CondGte(field, low), CondLte(field, high))
}

// CondMatch maps a full-text MATCH predicate onto Contains, matching
// conversion.rs's Condition::Match -> Self::Contains rewrite: full-text
// scoring itself is the query engine's job (pkg/bm25), not the filter
// tree's — the filter only needs to know whether the substring condition
// holds for post-filtering or explain-plan purposes.
func CondMatch(field, query string) Condition {
	return CondContains(field, query)
}

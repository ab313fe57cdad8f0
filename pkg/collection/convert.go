package collection

import (
	"fmt"

	"github.com/nyxdb/nyx/pkg/filter"
	"github.com/nyxdb/nyx/pkg/querylang"
)

// convertCondition lowers a parsed, parameter-carrying WHERE/HAVING tree
// into pkg/filter's evaluation-time Condition, resolving every Param
// against params and every ColumnRef to its dotted field path. Mirrors
// velesdb's filter/conversion.rs AST -> filter lowering: mechanical and
// lossless, one querylang.ConditionKind at a time. Similarity/NEAR
// predicates lower to an always-true AND(), the same identity the
// original conversion gives "vector search is handled separately by the
// query engine" — this package's Query evaluates those separately via
// pkg/exec.VectorSearch, not through the post-filter tree.
func convertCondition(cond *querylang.Condition, params map[string]any) (filter.Condition, error) {
	return convertConditionWith(cond, params, fieldOf)
}

// convertGraphCondition is convertCondition for a MATCH query's WHERE tree,
// where the row being filtered is not one flat document but a map keyed by
// each bound pattern variable (e.g. {"a": {...}, "b": {...}}) — so a field
// reference needs its table qualifier ("a.name") to pick the right
// variable's document, unlike a single-table SELECT's bare "name".
func convertGraphCondition(cond *querylang.Condition, params map[string]any) (filter.Condition, error) {
	return convertConditionWith(cond, params, fieldOfQualified)
}

func convertConditionWith(cond *querylang.Condition, params map[string]any, resolveField func(querylang.Expr) (string, error)) (filter.Condition, error) {
	if cond == nil {
		return filter.CondAnd(), nil
	}
	switch cond.Kind {
	case querylang.CondEq, querylang.CondNeq, querylang.CondGt, querylang.CondGte, querylang.CondLt, querylang.CondLte:
		field, err := resolveField(cond.Left)
		if err != nil {
			return filter.Condition{}, err
		}
		value, err := resolveExpr(cond.Right, params)
		if err != nil {
			return filter.Condition{}, err
		}
		switch cond.Kind {
		case querylang.CondEq:
			return filter.CondEq(field, value), nil
		case querylang.CondNeq:
			return filter.CondNeq(field, value), nil
		case querylang.CondGt:
			return filter.CondGt(field, value), nil
		case querylang.CondGte:
			return filter.CondGte(field, value), nil
		case querylang.CondLt:
			return filter.CondLt(field, value), nil
		default:
			return filter.CondLte(field, value), nil
		}
	case querylang.CondIn:
		field, err := resolveField(cond.Left)
		if err != nil {
			return filter.Condition{}, err
		}
		values := make([]any, 0, len(cond.Values))
		for _, v := range cond.Values {
			resolved, err := resolveExpr(v, params)
			if err != nil {
				return filter.Condition{}, err
			}
			values = append(values, resolved)
		}
		return filter.CondIn(field, values), nil
	case querylang.CondIsNull:
		field, err := resolveField(cond.Left)
		if err != nil {
			return filter.Condition{}, err
		}
		return filter.CondIsNull(field), nil
	case querylang.CondIsNotNull:
		field, err := resolveField(cond.Left)
		if err != nil {
			return filter.Condition{}, err
		}
		return filter.CondIsNotNull(field), nil
	case querylang.CondAnd:
		sub, err := convertEachWith(cond.Conditions, params, resolveField)
		if err != nil {
			return filter.Condition{}, err
		}
		return filter.CondAnd(sub...), nil
	case querylang.CondOr:
		sub, err := convertEachWith(cond.Conditions, params, resolveField)
		if err != nil {
			return filter.Condition{}, err
		}
		return filter.CondOr(sub...), nil
	case querylang.CondNot:
		inner, err := convertConditionWith(cond.Inner, params, resolveField)
		if err != nil {
			return filter.Condition{}, err
		}
		return filter.CondNot(inner), nil
	case querylang.CondBetween:
		field, err := resolveField(cond.Left)
		if err != nil {
			return filter.Condition{}, err
		}
		low, err := resolveExpr(cond.Right, params)
		if err != nil {
			return filter.Condition{}, err
		}
		high, err := resolveExpr(cond.High, params)
		if err != nil {
			return filter.Condition{}, err
		}
		return filter.CondBetween(field, low, high), nil
	case querylang.CondLike, querylang.CondILike:
		field, err := resolveField(cond.Left)
		if err != nil {
			return filter.Condition{}, err
		}
		pattern := cond.Pattern
		if pattern == "" {
			resolved, err := resolveExpr(cond.Right, params)
			if err != nil {
				return filter.Condition{}, err
			}
			if s, ok := resolved.(string); ok {
				pattern = s
			}
		}
		if cond.Kind == querylang.CondLike {
			return filter.CondLike(field, pattern), nil
		}
		return filter.CondILike(field, pattern), nil
	case querylang.CondSimilarity, querylang.CondNear:
		// Handled separately by pkg/exec.VectorSearch; identity here.
		return filter.CondAnd(), nil
	default:
		return filter.Condition{}, fmt.Errorf("collection: unsupported condition kind %v", cond.Kind)
	}
}

func convertEachWith(conds []querylang.Condition, params map[string]any, resolveField func(querylang.Expr) (string, error)) ([]filter.Condition, error) {
	out := make([]filter.Condition, 0, len(conds))
	for i := range conds {
		c, err := convertConditionWith(&conds[i], params, resolveField)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func fieldOf(expr querylang.Expr) (string, error) {
	ref, ok := expr.(querylang.ColumnRef)
	if !ok {
		return "", fmt.Errorf("collection: expected a column reference, got %T", expr)
	}
	return ref.Name, nil
}

// fieldOfQualified is fieldOf for a MATCH row: querylang's parser never
// splits a dotted ColumnRef into Table/Name (it keeps the whole path, e.g.
// "a.name", in Name — only the planner knows which leading segment is a
// pattern variable versus the start of a JSON path), so Name already is the
// qualified path filter.GetField needs to pick the right bound variable's
// document out of a MATCH row.
func fieldOfQualified(expr querylang.Expr) (string, error) {
	ref, ok := expr.(querylang.ColumnRef)
	if !ok {
		return "", fmt.Errorf("collection: expected a column reference, got %T", expr)
	}
	return ref.Name, nil
}

// resolveExpr evaluates a literal or bound-parameter expression to its
// runtime value. ColumnRefs never appear on this side of a condition.
func resolveExpr(expr querylang.Expr, params map[string]any) (any, error) {
	switch e := expr.(type) {
	case querylang.Literal:
		return e.Value, nil
	case querylang.Param:
		v, ok := params[e.Name]
		if !ok {
			return nil, &missingParameterError{name: e.Name}
		}
		return v, nil
	case querylang.VectorLiteral:
		return e.Values, nil
	case nil:
		return nil, nil
	default:
		return nil, fmt.Errorf("collection: unexpected expression %T in value position", expr)
	}
}

type missingParameterError struct{ name string }

func (e *missingParameterError) Error() string {
	return fmt.Sprintf("missing parameter $%s", e.name)
}

package filter

import (
	"reflect"
	"strings"
)

// Matches evaluates the condition tree against payload, which must be the
// result of json.Unmarshal into any (so nested objects are map[string]any
// and arrays are []any) — matching.rs's same contract against serde_json's
// Value.
func (c Condition) Matches(payload any) bool {
	switch c.Kind {
	case Eq:
		v, ok := getField(payload, c.Field)
		return ok && valuesEqual(v, c.Value)
	case Neq:
		v, ok := getField(payload, c.Field)
		return !ok || !valuesEqual(v, c.Value)
	case Gt:
		v, ok := getField(payload, c.Field)
		return ok && compareValues(v, c.Value) > 0
	case Gte:
		v, ok := getField(payload, c.Field)
		return ok && compareValues(v, c.Value) >= 0
	case Lt:
		v, ok := getField(payload, c.Field)
		return ok && compareValues(v, c.Value) < 0
	case Lte:
		v, ok := getField(payload, c.Field)
		return ok && compareValues(v, c.Value) <= 0
	case In:
		v, ok := getField(payload, c.Field)
		if !ok {
			return false
		}
		for _, candidate := range c.Values {
			if valuesEqual(v, candidate) {
				return true
			}
		}
		return false
	case Contains:
		v, ok := getField(payload, c.Field)
		if !ok {
			return false
		}
		s, ok := v.(string)
		substr, _ := c.Value.(string)
		return ok && strings.Contains(s, substr)
	case IsNull:
		v, ok := getField(payload, c.Field)
		return !ok || v == nil
	case IsNotNull:
		v, ok := getField(payload, c.Field)
		return ok && v != nil
	case And:
		for _, cond := range c.Conditions {
			if !cond.Matches(payload) {
				return false
			}
		}
		return true
	case Or:
		for _, cond := range c.Conditions {
			if cond.Matches(payload) {
				return true
			}
		}
		return false
	case Not:
		return c.Condition == nil || !c.Condition.Matches(payload)
	case Like:
		v, ok := getField(payload, c.Field)
		s, isStr := v.(string)
		return ok && isStr && likeMatch(s, c.Pattern, false)
	case ILike:
		v, ok := getField(payload, c.Field)
		s, isStr := v.(string)
		return ok && isStr && likeMatch(s, c.Pattern, true)
	default:
		return false
	}
}

// valuesEqual mirrors matching.rs's values_equal: numbers compare as f64,
// everything else compares structurally.
func valuesEqual(a, b any) bool {
	af, aIsNum := asFloat(a)
	bf, bIsNum := asFloat(b)
	if aIsNum && bIsNum {
		return af == bf
	}
	return reflect.DeepEqual(a, b)
}

// compareValues mirrors matching.rs's compare_values: only number-number
// and string-string pairs have an order; anything else (including mixed
// number/string) reports 0, i.e. "no relation", which makes Gt/Lt false and
// Gte/Lte true for values that aren't actually equal — the same
// incomparable-means-unordered behavior the original implements.
func compareValues(a, b any) int {
	if af, aok := asFloat(a); aok {
		if bf, bok := asFloat(b); bok {
			switch {
			case af < bf:
				return -1
			case af > bf:
				return 1
			default:
				return 0
			}
		}
		return 0
	}
	if as, aok := a.(string); aok {
		if bs, bok := b.(string); bok {
			return strings.Compare(as, bs)
		}
	}
	return 0
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
	}
	return 0, false
}

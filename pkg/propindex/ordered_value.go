package propindex

import "encoding/json"

// valueTier places a JSON value into the range index's total order:
// Null < Number < String. Booleans and arrays/objects are not indexable by
// the range index (callers get them filtered out at insert time); this
// matches spec's Null/Integer/Float/String total order, with Integer and
// Float collapsed into one Number tier compared by promotion to f64 — the
// spec is explicit that "numerics are compared by promotion to f64", so a
// json.Number(5) and a json.Number(5.5) compare by value, not by which
// literal form produced them; only Null/Number/String are distinct tiers.
type valueTier int

const (
	tierNull valueTier = iota
	tierNumber
	tierString
)

// OrderedValue is a JSON value reduced to the range index's comparable
// form.
type OrderedValue struct {
	tier   valueTier
	number float64
	str    string
}

// ToOrderedValue converts a decoded JSON value (nil, float64/json.Number,
// string, bool, or composite) into its OrderedValue, reporting false for
// values the range index can't order (bool, array, object).
func ToOrderedValue(v any) (OrderedValue, bool) {
	switch val := v.(type) {
	case nil:
		return OrderedValue{tier: tierNull}, true
	case float64:
		return OrderedValue{tier: tierNumber, number: val}, true
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return OrderedValue{}, false
		}
		return OrderedValue{tier: tierNumber, number: f}, true
	case int:
		return OrderedValue{tier: tierNumber, number: float64(val)}, true
	case int64:
		return OrderedValue{tier: tierNumber, number: float64(val)}, true
	case string:
		return OrderedValue{tier: tierString, str: val}, true
	default:
		return OrderedValue{}, false
	}
}

// Compare returns -1, 0, or 1 as o is less than, equal to, or greater than
// other.
func (o OrderedValue) Compare(other OrderedValue) int {
	if o.tier != other.tier {
		if o.tier < other.tier {
			return -1
		}
		return 1
	}
	switch o.tier {
	case tierNumber:
		switch {
		case o.number < other.number:
			return -1
		case o.number > other.number:
			return 1
		default:
			return 0
		}
	case tierString:
		switch {
		case o.str < other.str:
			return -1
		case o.str > other.str:
			return 1
		default:
			return 0
		}
	default: // tierNull
		return 0
	}
}

// Less reports whether o sorts before other.
func (o OrderedValue) Less(other OrderedValue) bool {
	return o.Compare(other) < 0
}

// Equal reports whether o and other compare equal.
func (o OrderedValue) Equal(other OrderedValue) bool {
	return o.Compare(other) == 0
}

// Package query evaluates the filter mini-language against attribute maps.
// A filter maps field names to either a literal (exact equality) or an
// operator object ($eq, $ne, $gt, $gte, $lt, $lte, $in, $nin, $regex,
// $exists). Operators on one field and fields in one filter are both
// conjunctive. The evaluator has no entity-type dependency and works
// against any in-process collection.
package query

import (
	"reflect"
	"regexp"
	"strings"
)

// Operator keys recognized inside a condition object.
const (
	OpEq     = "$eq"
	OpNe     = "$ne"
	OpGt     = "$gt"
	OpGte    = "$gte"
	OpLt     = "$lt"
	OpLte    = "$lte"
	OpIn     = "$in"
	OpNin    = "$nin"
	OpRegex  = "$regex"
	OpExists = "$exists"

	// optOptions carries regex flags next to $regex ("i" for
	// case-insensitive matching).
	optOptions = "$options"
)

// Matches reports whether attrs satisfies filter. A nil or empty filter
// matches every attribute map.
func Matches(attrs map[string]any, filter map[string]any) bool {
	for field, cond := range filter {
		if !matchField(attrs, field, cond) {
			return false
		}
	}
	return true
}

// Select returns the members of items that satisfy filter, preserving
// input order.
func Select[M ~map[string]any](items []M, filter map[string]any) []M {
	if len(filter) == 0 {
		return items
	}
	out := make([]M, 0, len(items))
	for _, item := range items {
		if Matches(item, filter) {
			out = append(out, item)
		}
	}
	return out
}

func matchField(attrs map[string]any, field string, cond any) bool {
	value, present := attrs[field]

	ops, isOps := operatorObject(cond)
	if !isOps {
		return present && looseEqual(value, cond)
	}

	opts, _ := ops[optOptions].(string)
	for op, arg := range ops {
		if op == optOptions {
			continue
		}
		if !matchOp(op, value, present, arg, opts) {
			return false
		}
	}
	return true
}

// operatorObject reports whether cond is a map whose keys are all
// $-prefixed operators. A map with any non-operator key is treated as a
// literal value to compare for equality.
func operatorObject(cond any) (map[string]any, bool) {
	m, ok := cond.(map[string]any)
	if !ok || len(m) == 0 {
		return nil, false
	}
	for k := range m {
		if !strings.HasPrefix(k, "$") {
			return nil, false
		}
	}
	return m, true
}

func matchOp(op string, value any, present bool, arg any, opts string) bool {
	switch op {
	case OpEq:
		return present && looseEqual(value, arg)
	case OpNe:
		return !present || !looseEqual(value, arg)
	case OpGt:
		c, ok := compare(value, arg)
		return present && ok && c > 0
	case OpGte:
		c, ok := compare(value, arg)
		return present && ok && c >= 0
	case OpLt:
		c, ok := compare(value, arg)
		return present && ok && c < 0
	case OpLte:
		c, ok := compare(value, arg)
		return present && ok && c <= 0
	case OpIn:
		return present && member(value, arg)
	case OpNin:
		return !present || !member(value, arg)
	case OpRegex:
		return present && matchRegex(value, arg, opts)
	case OpExists:
		want, _ := arg.(bool)
		return present == want
	default:
		// Unknown operators never match; a typoed filter should not
		// select everything.
		return false
	}
}

// member reports whether value appears in the slice arg.
func member(value, arg any) bool {
	rv := reflect.ValueOf(arg)
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return false
	}
	for i := 0; i < rv.Len(); i++ {
		if looseEqual(value, rv.Index(i).Interface()) {
			return true
		}
	}
	return false
}

func matchRegex(value, arg any, opts string) bool {
	pattern, ok := arg.(string)
	if !ok {
		return false
	}
	s, ok := value.(string)
	if !ok {
		return false
	}
	if strings.Contains(opts, "i") {
		pattern = "(?i)" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false
	}
	return re.MatchString(s)
}

// looseEqual compares two values, coercing numeric kinds so that an int
// attribute matches a float64 filter literal decoded from JSON.
func looseEqual(a, b any) bool {
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			return fa == fb
		}
		return false
	}
	return reflect.DeepEqual(a, b)
}

// compare orders two values. Numbers order numerically, strings
// lexicographically; anything else is incomparable.
func compare(a, b any) (int, bool) {
	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)
		if !ok {
			return 0, false
		}
		switch {
		case fa < fb:
			return -1, true
		case fa > fb:
			return 1, true
		default:
			return 0, true
		}
	}
	sa, ok := a.(string)
	if !ok {
		return 0, false
	}
	sb, ok := b.(string)
	if !ok {
		return 0, false
	}
	return strings.Compare(sa, sb), true
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

package memstore

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/aasimohyeah/natours/apifeatures"
)

// matches reports whether rec satisfies every field of c.
func matches(rec apifeatures.Record, c apifeatures.Criteria) (bool, error) {
	for field, cond := range c {
		actual, exists := rec[field]
		ops, isOps := operatorMap(cond)
		if !isOps {
			if !exists || !equalOrContains(actual, cond) {
				return false, nil
			}
			continue
		}
		for op, operand := range ops {
			ok, err := applyOp(op, actual, exists, operand)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
		}
	}
	return true, nil
}

// operatorMap returns cond as an operator map when all of its keys are
// operators. A map with plain keys is an embedded-document literal.
func operatorMap(cond any) (map[string]any, bool) {
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

func applyOp(op string, actual any, exists bool, operand any) (bool, error) {
	switch op {
	case "$eq":
		return exists && equalOrContains(actual, operand), nil
	case "$ne":
		return !exists || !equalOrContains(actual, operand), nil
	case apifeatures.OpIn:
		list, ok := operand.([]any)
		if !ok {
			return false, &apifeatures.ClientQueryError{Param: op, Value: operand, Reason: "expected a list"}
		}
		if !exists {
			return false, nil
		}
		for _, item := range list {
			if equalOrContains(actual, item) {
				return true, nil
			}
		}
		return false, nil
	case "$gt", "$gte", "$lt", "$lte":
		if !exists {
			return false, nil
		}
		for _, v := range elements(actual) {
			cmp, ok := compareValues(v, operand)
			if !ok {
				continue
			}
			if (op == "$gt" && cmp > 0) || (op == "$gte" && cmp >= 0) ||
				(op == "$lt" && cmp < 0) || (op == "$lte" && cmp <= 0) {
				return true, nil
			}
		}
		return false, nil
	}
	return false, &apifeatures.ClientQueryError{Param: op, Value: operand, Reason: "unknown operator"}
}

// elements returns the items of an array value, or the value itself.
func elements(v any) []any {
	switch list := v.(type) {
	case []any:
		return list
	case []string:
		out := make([]any, len(list))
		for i, s := range list {
			out[i] = s
		}
		return out
	}
	return []any{v}
}

// equalOrContains matches a scalar against a value or any element of an
// array value.
func equalOrContains(actual, expected any) bool {
	for _, v := range elements(actual) {
		if cmp, ok := compareValues(v, expected); ok && cmp == 0 {
			return true
		}
	}
	return reflect.DeepEqual(actual, expected)
}

// compareValues orders a against b. ok is false when the two values are not
// of comparable kinds.
func compareValues(a, b any) (int, bool) {
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			return cmpOrdered(fa, fb), true
		}
	}
	if ta, ok := a.(time.Time); ok {
		if tb, ok := toTime(b); ok {
			return ta.Compare(tb), true
		}
	}
	if tb, ok := b.(time.Time); ok {
		if ta, ok := toTime(a); ok {
			return ta.Compare(tb), true
		}
	}
	if sa, ok := a.(string); ok {
		if sb, ok := b.(string); ok {
			return strings.Compare(sa, sb), true
		}
	}
	if ba, ok := a.(bool); ok {
		if bb, ok := b.(bool); ok {
			switch {
			case ba == bb:
				return 0, true
			case !ba:
				return -1, true
			}
			return 1, true
		}
	}
	return 0, false
}

func cmpOrdered(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func toTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		parsed, err := apifeatures.ParseDate(t)
		return parsed, err == nil
	}
	return time.Time{}, false
}

// typeRank orders values of different kinds: missing, numbers, strings,
// documents and arrays, booleans, dates.
func typeRank(v any) int {
	if v == nil {
		return 0
	}
	if _, ok := toFloat(v); ok {
		return 1
	}
	switch v.(type) {
	case string:
		return 2
	case bool:
		return 4
	case time.Time:
		return 5
	}
	return 3
}

// sortCompare orders two field values for sorting, falling back to kind
// order when they are not comparable.
func sortCompare(a, b any) int {
	if cmp, ok := compareValues(a, b); ok {
		return cmp
	}
	ra, rb := typeRank(a), typeRank(b)
	if ra != rb {
		return ra - rb
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

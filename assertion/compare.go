package assertion

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// toFloat coerces numeric values and numeric strings.
func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint:
		return float64(t), true
	case uint32:
		return float64(t), true
	case uint64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil && !math.IsNaN(f)
	}
	return 0, false
}

func toBool(v any) (bool, bool) {
	switch t := v.(type) {
	case bool:
		return t, true
	case string:
		b, err := strconv.ParseBool(t)
		return b, err == nil
	}
	return false, false
}

func toString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case fmt.Stringer:
		return t.String()
	}
	if b, err := json.Marshal(v); err == nil {
		return string(b)
	}
	return fmt.Sprint(v)
}

// equal compares numerically when both sides are numbers, otherwise
// by string form, falling back to deep equality for composites.
func equal(actual, expected any) bool {
	if a, ok := toFloat(actual); ok {
		if e, ok := toFloat(expected); ok {
			return a == e
		}
	}
	if a, ok := actual.(bool); ok {
		if e, ok := toBool(expected); ok {
			return a == e
		}
	}
	switch actual.(type) {
	case map[string]any, []any:
		return reflect.DeepEqual(actual, expected)
	}
	return toString(actual) == toString(expected)
}

// contains checks substring membership for strings and element membership
// for lists.
func contains(actual, expected any) bool {
	if list, ok := asSlice(actual); ok {
		for _, item := range list {
			if equal(item, expected) {
				return true
			}
		}
		return false
	}
	if m, ok := actual.(map[string]any); ok {
		_, ok := m[toString(expected)]
		return ok
	}
	return strings.Contains(toString(actual), toString(expected))
}

func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case map[string]any:
		return len(t) == 0
	}
	if list, ok := asSlice(v); ok {
		return len(list) == 0
	}
	return false
}

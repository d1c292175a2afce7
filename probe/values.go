package probe

import "encoding/json"

// Float returns the numeric value at key.
func (v Values) Float(key string) (float64, bool) {
	switch n := v[key].(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// Bool returns the boolean at key, false when absent.
func (v Values) Bool(key string) bool {
	b, _ := v[key].(bool)
	return b
}

// String returns the string at key, "" when absent.
func (v Values) String(key string) string {
	s, _ := v[key].(string)
	return s
}

// Has reports whether key is present.
func (v Values) Has(key string) bool {
	_, ok := v[key]
	return ok
}

package assertion

import (
	"fmt"
	"strconv"
	"strings"
)

type step struct {
	key   string
	index int
	isIdx bool
}

// parsePath splits "a.b[2].c" into steps. An empty path yields no steps.
func parsePath(path string) ([]step, error) {
	var steps []step
	rest := strings.TrimSpace(path)
	for rest != "" {
		switch rest[0] {
		case '.':
			rest = rest[1:]
			if rest == "" || rest[0] == '.' || rest[0] == '[' {
				return nil, fmt.Errorf("%w: %q", ErrInvalidPath, path)
			}
		case '[':
			end := strings.IndexByte(rest, ']')
			if end < 0 {
				return nil, fmt.Errorf("%w: %q", ErrInvalidPath, path)
			}
			n, err := strconv.Atoi(rest[1:end])
			if err != nil || n < 0 {
				return nil, fmt.Errorf("%w: %q", ErrInvalidPath, path)
			}
			steps = append(steps, step{index: n, isIdx: true})
			rest = rest[end+1:]
		default:
			end := strings.IndexAny(rest, ".[")
			if end < 0 {
				end = len(rest)
			}
			steps = append(steps, step{key: rest[:end]})
			rest = rest[end:]
		}
	}
	return steps, nil
}

// resolve walks steps through maps and slices. ok is false when any step
// lands on nothing.
func resolve(v any, steps []step) (any, bool) {
	for _, s := range steps {
		if s.isIdx {
			list, ok := asSlice(v)
			if !ok || s.index >= len(list) {
				return nil, false
			}
			v = list[s.index]
			continue
		}
		m, ok := v.(map[string]any)
		if !ok {
			return nil, false
		}
		if v, ok = m[s.key]; !ok {
			return nil, false
		}
	}
	return v, true
}

func asSlice(v any) ([]any, bool) {
	switch t := v.(type) {
	case []any:
		return t, true
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out, true
	case []float64:
		out := make([]any, len(t))
		for i, f := range t {
			out[i] = f
		}
		return out, true
	case []int:
		out := make([]any, len(t))
		for i, n := range t {
			out[i] = n
		}
		return out, true
	}
	return nil, false
}

package assertion

import (
	"errors"
	"fmt"
	"regexp"
)

// Assertion is one declared check against a result field.
type Assertion struct {
	Field    string   `json:"field" yaml:"field"`
	Path     string   `json:"path,omitempty" yaml:"path,omitempty"`
	Operator Operator `json:"operator" yaml:"operator"`
	Value    any      `json:"value,omitempty" yaml:"value,omitempty"`
}

// String renders the assertion as "field operator expected".
func (a Assertion) String() string {
	target := a.Field
	if a.Path != "" {
		if a.Path[0] == '[' {
			target += a.Path
		} else {
			target += "." + a.Path
		}
	}
	if !a.Operator.Binary() {
		return fmt.Sprintf("%s %s", target, a.Operator)
	}
	return fmt.Sprintf("%s %s %s", target, a.Operator, toString(a.Value))
}

// Failure describes the first assertion that did not hold.
type Failure struct {
	Assertion Assertion
	Actual    any
	Reason    string
}

// Message renders the failing assertion verbatim with its reason.
func (f *Failure) Message() string {
	if f.Reason == "" {
		return fmt.Sprintf("assertion failed: %s", f.Assertion)
	}
	return fmt.Sprintf("assertion failed: %s (%s)", f.Assertion, f.Reason)
}

func (f *Failure) Error() string { return f.Message() }

// Validate checks operators, fields, expected values and patterns.
func Validate(assertions []Assertion) error {
	var errs []error
	for i, a := range assertions {
		switch {
		case a.Field == "":
			errs = append(errs, fmt.Errorf("assertion %d: %w", i, ErrMissingField))
		case !a.Operator.Known():
			errs = append(errs, fmt.Errorf("assertion %d: %w: %q", i, ErrUnknownOperator, a.Operator))
		case a.Operator.Binary() && a.Value == nil:
			errs = append(errs, fmt.Errorf("assertion %d (%s): %w", i, a.Operator, ErrMissingValue))
		}
		if _, err := parsePath(a.Path); err != nil {
			errs = append(errs, fmt.Errorf("assertion %d: %w", i, err))
		}
		if a.Operator == OpMatches && a.Value != nil {
			if _, err := regexp.Compile(toString(a.Value)); err != nil {
				errs = append(errs, fmt.Errorf("assertion %d: %w: %v", i, ErrInvalidPattern, err))
			}
		}
	}
	return errors.Join(errs...)
}

// Evaluate checks assertions against fields in order and returns the first
// failure, or nil when all hold.
func Evaluate(assertions []Assertion, fields map[string]any) *Failure {
	for _, a := range assertions {
		if f := evaluateOne(a, fields); f != nil {
			return f
		}
	}
	return nil
}

func evaluateOne(a Assertion, fields map[string]any) *Failure {
	fail := func(actual any, reason string) *Failure {
		return &Failure{Assertion: a, Actual: actual, Reason: reason}
	}

	steps, err := parsePath(a.Path)
	if err != nil {
		return fail(nil, err.Error())
	}
	actual, present := fields[a.Field]
	if present {
		actual, present = resolve(actual, steps)
	}
	if present && actual == nil && a.Operator != OpIsEmpty {
		present = false
	}

	if !present {
		switch {
		case a.Operator.MissingPasses():
			return nil
		case a.Operator == OpExists:
			return fail(nil, "")
		case !a.Operator.Known():
			return fail(nil, "unknown operator")
		default:
			return fail(nil, "field missing")
		}
	}

	ok, reason := apply(a.Operator, actual, a.Value)
	if ok {
		return nil
	}
	if reason == "" {
		reason = "actual " + toString(actual)
	}
	return fail(actual, reason)
}

func apply(op Operator, actual, expected any) (bool, string) {
	switch op {
	case OpEquals:
		return equal(actual, expected), ""
	case OpNotEquals:
		return !equal(actual, expected), ""
	case OpContains:
		return contains(actual, expected), ""
	case OpNotContains:
		return !contains(actual, expected), ""
	case OpStartsWith:
		a, e := toString(actual), toString(expected)
		return len(a) >= len(e) && a[:len(e)] == e, ""
	case OpEndsWith:
		a, e := toString(actual), toString(expected)
		return len(a) >= len(e) && a[len(a)-len(e):] == e, ""
	case OpMatches:
		re, err := regexp.Compile(toString(expected))
		if err != nil {
			return false, "invalid pattern"
		}
		return re.MatchString(toString(actual)), ""
	case OpGreaterThan, OpGreaterThanOrEqual, OpLessThan, OpLessThanOrEqual:
		return compareNumbers(op, actual, expected)
	case OpIsTrue, OpIsFalse:
		b, ok := toBool(actual)
		if !ok {
			return false, "not a boolean"
		}
		return b == (op == OpIsTrue), ""
	case OpExists:
		return true, ""
	case OpNotExists:
		return false, "field present"
	case OpIsEmpty:
		return isEmpty(actual), ""
	}
	return false, "unknown operator"
}

func compareNumbers(op Operator, actual, expected any) (bool, string) {
	a, ok := toFloat(actual)
	if !ok {
		return false, "not a number"
	}
	e, ok := toFloat(expected)
	if !ok {
		return false, "expected value is not a number"
	}
	switch op {
	case OpGreaterThan:
		return a > e, ""
	case OpGreaterThanOrEqual:
		return a >= e, ""
	case OpLessThan:
		return a < e, ""
	default:
		return a <= e, ""
	}
}

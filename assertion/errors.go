package assertion

import "errors"

var (
	// ErrUnknownOperator indicates an operator that is not in the operator set.
	ErrUnknownOperator = errors.New("assertion: unknown operator")

	// ErrMissingValue indicates a binary operator with no expected value.
	ErrMissingValue = errors.New("assertion: expected value is required")

	// ErrMissingField indicates an assertion with no field name.
	ErrMissingField = errors.New("assertion: field is required")

	// ErrInvalidPattern indicates a "matches" value that is not a valid regexp.
	ErrInvalidPattern = errors.New("assertion: invalid pattern")

	// ErrInvalidPath indicates a path expression that cannot be parsed.
	ErrInvalidPath = errors.New("assertion: invalid path")
)

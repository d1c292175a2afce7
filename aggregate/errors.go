package aggregate

import "errors"

var (
	// ErrKindMismatch indicates two values with the same name but different shapes.
	ErrKindMismatch = errors.New("aggregate: kind mismatch")

	// ErrKeyMismatch indicates merging buckets that describe different keys.
	ErrKeyMismatch = errors.New("aggregate: key mismatch")

	// ErrInvalidSize indicates an unknown bucket size.
	ErrInvalidSize = errors.New("aggregate: invalid bucket size")
)

package health

import "errors"

var (
	// ErrInvalidStatus is returned by ParseStatus for an unrecognised name.
	ErrInvalidStatus = errors.New("health: invalid status")

	// ErrSelfCheckTimeout is recorded on a self-check that outlived its
	// deadline.
	ErrSelfCheckTimeout = errors.New("health: self-check did not finish in time")
)

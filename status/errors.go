package status

import "errors"

var (
	// ErrInvalidRange is returned when a history range is empty or
	// reversed.
	ErrInvalidRange = errors.New("status: invalid range")

	// ErrInvalidGranularity is returned for an unknown bucket granularity.
	ErrInvalidGranularity = errors.New("status: invalid granularity")
)

package resilience

import "errors"

var (
	// ErrBulkheadFull is returned when no execution slot frees up within
	// the bulkhead's MaxWait.
	ErrBulkheadFull = errors.New("resilience: no execution slot available")

	// ErrTimeout is returned when an operation loses the race against its
	// deadline.
	ErrTimeout = errors.New("resilience: deadline exceeded")
)

package threshold

import "errors"

var (
	// ErrInvalidMode indicates a mode other than consecutive or window.
	ErrInvalidMode = errors.New("threshold: invalid mode")

	// ErrInvalidPolicy indicates thresholds that are out of range or misordered.
	ErrInvalidPolicy = errors.New("threshold: invalid policy")
)

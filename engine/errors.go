package engine

import "errors"

// ErrDisabled is returned when the association is disabled.
var ErrDisabled = errors.New("engine: association disabled")

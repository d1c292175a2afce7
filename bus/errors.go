package bus

import "errors"

// ErrInvalidTrigger is returned for trigger messages missing an id.
var ErrInvalidTrigger = errors.New("bus: invalid trigger")

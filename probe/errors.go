package probe

import (
	"errors"
	"fmt"
	"time"

	"github.com/jonwraymond/checkops/assertion"
	"github.com/jonwraymond/checkops/resilience"
)

// Sentinel errors for registration and configuration.
var (
	ErrDuplicateStrategy    = errors.New("probe: strategy already registered")
	ErrDuplicateCollector   = errors.New("probe: collector already registered")
	ErrUnknownPlugin        = errors.New("probe: collector plugin is not a registered strategy")
	ErrInvalidConfiguration = errors.New("probe: invalid configuration")
)

// ConnectionError reports that a strategy could not create its client.
type ConnectionError struct {
	Strategy string
	Err      error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection failed: %v", e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// TimeoutError reports an exec that lost the race against its deadline.
type TimeoutError struct {
	Op      string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out after %s", e.Op, e.Timeout)
}

func (e *TimeoutError) Unwrap() error { return resilience.ErrTimeout }

// AssertionFailure reports the first failed assertion of a run.
type AssertionFailure struct {
	// Scope is empty for strategy assertions, else the collector instance id.
	Scope   string
	Failure *assertion.Failure
}

func (e *AssertionFailure) Error() string {
	if e.Scope == "" {
		return e.Failure.Message()
	}
	return fmt.Sprintf("collector %s: %s", e.Scope, e.Failure.Message())
}

// UnknownStrategyError is returned for a registry miss on a strategy id.
type UnknownStrategyError struct {
	ID string
}

func (e *UnknownStrategyError) Error() string {
	return fmt.Sprintf("probe: unknown strategy %q", e.ID)
}

// UnknownCollectorError is returned for a registry miss on a qualified
// collector id.
type UnknownCollectorError struct {
	ID string
}

func (e *UnknownCollectorError) Error() string {
	return fmt.Sprintf("probe: unknown collector %q", e.ID)
}

// DegradedError is returned by a Prober or Collector whose action
// succeeded with reduced quality. Values returned alongside it are kept.
type DegradedError struct {
	Reason string
}

func (e *DegradedError) Error() string {
	return "degraded: " + e.Reason
}

// Degraded returns a DegradedError with a formatted reason.
func Degraded(format string, args ...any) error {
	return &DegradedError{Reason: fmt.Sprintf(format, args...)}
}

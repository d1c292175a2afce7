package health

import (
	"context"
	"time"
)

// Result is the outcome of one self-check.
type Result struct {
	Status   Status         `json:"status"`
	Message  string         `json:"message,omitempty"`
	Details  map[string]any `json:"details,omitempty"`
	Duration time.Duration  `json:"-"`
	Err      error          `json:"-"`
}

// Healthy reports a dependency that is fully usable.
func Healthy(message string) Result {
	return Result{Status: StatusHealthy, Message: message}
}

// Degraded reports a dependency that works but should be looked at.
func Degraded(message string) Result {
	return Result{Status: StatusDegraded, Message: message}
}

// Unhealthy reports a dependency the daemon cannot use. err may be nil.
func Unhealthy(message string, err error) Result {
	return Result{Status: StatusUnhealthy, Message: message, Err: err}
}

// WithDetails returns a copy of r carrying details.
func (r Result) WithDetails(details map[string]any) Result {
	r.Details = details
	return r
}

// Checker checks one of the daemon's own dependencies.
//
// Check must honor ctx and be safe for concurrent use.
type Checker interface {
	Name() string
	Check(ctx context.Context) Result
}

type funcChecker struct {
	name string
	fn   func(context.Context) Result
}

func (f funcChecker) Name() string                     { return f.name }
func (f funcChecker) Check(ctx context.Context) Result { return f.fn(ctx) }

// CheckFunc adapts fn into a Checker called name.
func CheckFunc(name string, fn func(context.Context) Result) Checker {
	return funcChecker{name: name, fn: fn}
}

// Ping builds a Checker that is healthy while ping returns nil, which fits
// store and message bus handles.
func Ping(name string, ping func(context.Context) error) Checker {
	return CheckFunc(name, func(ctx context.Context) Result {
		if err := ping(ctx); err != nil {
			return Unhealthy(name+" unreachable", err)
		}
		return Healthy(name + " reachable")
	})
}

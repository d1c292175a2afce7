package resilience

import (
	"context"
	"errors"
	"time"
)

// DefaultTimeout applies when Call or Acquire is given no timeout.
const DefaultTimeout = 30 * time.Second

// Call races op against timeout and returns its value.
//
// On timeout Call returns the zero value of T together with ErrTimeout; a
// value produced by op after the deadline is discarded. Cancellation of the
// parent context is reported as the context's error.
func Call[T any](ctx context.Context, timeout time.Duration, op func(context.Context) (T, error)) (T, error) {
	return Acquire(ctx, timeout, op, nil)
}

// Acquire is Call for operations that produce a resource, such as a
// connection. When the deadline or the parent context wins the race, a
// value op still produces successfully is handed to release.
func Acquire[T any](ctx context.Context, timeout time.Duration, op func(context.Context) (T, error), release func(T)) (T, error) {
	var zero T
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		value T
		err   error
	}
	done := make(chan outcome, 1)

	go func() {
		v, err := op(ctx)
		done <- outcome{value: v, err: err}
	}()

	select {
	case out := <-done:
		// op may observe the deadline and return before ctx.Done is selected.
		if errors.Is(out.err, context.DeadlineExceeded) && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return zero, ErrTimeout
		}
		return out.value, out.err
	case <-ctx.Done():
		if release != nil {
			go func() {
				if out := <-done; out.err == nil {
					release(out.value)
				}
			}()
		}
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return zero, ErrTimeout
		}
		return zero, ctx.Err()
	}
}

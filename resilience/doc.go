// Package resilience bounds probe executions in time and in concurrency.
//
// Call races an operation against a deadline and abandons it when the
// deadline wins. It wraps transport client execs and never returns a
// partially filled value. Acquire does the same for operations that yield
// a resource and closes a resource that arrives too late. Bulkhead caps how
// many executions run at once.
//
// There is no retry here. A probe run reports the outcome of exactly one
// attempt.
//
//	values, err := resilience.Call(ctx, 5*time.Second, func(ctx context.Context) (probe.Values, error) {
//	    return client.Exec(ctx, req)
//	})
//	if errors.Is(err, resilience.ErrTimeout) {
//	    // values is nil
//	}
package resilience

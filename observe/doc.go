// Package observe provides logging, tracing and metrics for probe runs.
//
// It is an instrumentation library: it never executes probes itself.
// The engine wraps each run with Middleware, which opens a span named
// probe.run.<strategy>, records the probe.run.* instruments and logs the
// outcome through a slog-backed Logger.
package observe

package observe

import "errors"

var (
	ErrMissingServiceName     = errors.New("observe: service_name must be set")
	ErrInvalidSamplePct       = errors.New("observe: tracing sample_pct outside [0, 1]")
	ErrInvalidTracingExporter = errors.New("observe: unsupported tracing exporter")
	ErrInvalidMetricsExporter = errors.New("observe: unsupported metrics exporter")
	ErrInvalidLogLevel        = errors.New("observe: unsupported log level")

	// ErrMissingStrategy is returned for probe telemetry without a strategy id.
	ErrMissingStrategy = errors.New("observe: probe span needs a strategy id")
)

package observe

import (
	"context"
	"time"

	"github.com/jonwraymond/checkops/health"
)

// Outcome is the telemetry-relevant summary of a probe run.
type Outcome struct {
	Status   health.Status
	TimedOut bool
	Message  string
}

// RunFunc executes one probe run.
type RunFunc func(ctx context.Context, meta ProbeMeta) (Outcome, error)

// Middleware wraps probe runs with tracing, metrics and logging.
//
// Contract:
//   - Concurrency: Wrap returns a RunFunc safe for concurrent use.
//   - Context: the span context is passed to the wrapped function.
//   - Errors: errors from the wrapped function are recorded and returned unchanged.
type Middleware struct {
	tracer  Tracer
	metrics Metrics
	logger  Logger
}

// NewMiddleware creates a Middleware. Nil components are replaced by no-ops.
func NewMiddleware(tracer Tracer, metrics Metrics, logger Logger) *Middleware {
	if tracer == nil {
		tracer = newNoopTracer()
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}
	if logger == nil {
		logger = NopLogger()
	}
	return &Middleware{tracer: tracer, metrics: metrics, logger: logger}
}

// MiddlewareFromObserver builds a Middleware from an Observer's primitives.
func MiddlewareFromObserver(obs Observer) (*Middleware, error) {
	metrics, err := NewMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}
	return NewMiddleware(NewTracer(obs.Tracer()), metrics, obs.Logger()), nil
}

// Wrap wraps fn with telemetry.
func (m *Middleware) Wrap(fn RunFunc) RunFunc {
	return func(ctx context.Context, meta ProbeMeta) (Outcome, error) {
		ctx, span := m.tracer.StartSpan(ctx, meta)
		start := time.Now()

		outcome, err := fn(ctx, meta)

		duration := time.Since(start)
		m.tracer.EndSpan(span, outcome, err)
		m.metrics.RecordRun(ctx, meta, outcome, duration, err)

		log := m.logger.WithProbe(meta)
		fields := []Field{
			F("status", outcome.Status.String()),
			F("duration_ms", float64(duration.Milliseconds())),
		}
		if outcome.TimedOut {
			fields = append(fields, F("timed_out", true))
		}
		if outcome.Message != "" {
			fields = append(fields, F("message", outcome.Message))
		}

		switch {
		case err != nil:
			log.Error(ctx, "probe run failed", append(fields, F("error", err))...)
		case outcome.Status == health.StatusUnhealthy:
			log.Warn(ctx, "probe run unhealthy", fields...)
		default:
			log.Info(ctx, "probe run completed", fields...)
		}
		return outcome, err
	}
}

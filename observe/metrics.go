package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records probe run metrics.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: implementations must not panic.
type Metrics interface {
	RecordRun(ctx context.Context, meta ProbeMeta, outcome Outcome, duration time.Duration, err error)
}

type metricsImpl struct {
	total     metric.Int64Counter
	failures  metric.Int64Counter
	timeouts  metric.Int64Counter
	durations metric.Float64Histogram
}

// NewMetrics creates the probe.run.* instruments on meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	total, err := meter.Int64Counter("probe.run.total",
		metric.WithDescription("Total number of probe runs"),
		metric.WithUnit("{run}"))
	if err != nil {
		return nil, err
	}
	failures, err := meter.Int64Counter("probe.run.failures",
		metric.WithDescription("Probe runs classified degraded or unhealthy, or that errored"),
		metric.WithUnit("{run}"))
	if err != nil {
		return nil, err
	}
	timeouts, err := meter.Int64Counter("probe.run.timeouts",
		metric.WithDescription("Probe runs that hit their timeout"),
		metric.WithUnit("{run}"))
	if err != nil {
		return nil, err
	}
	durations, err := meter.Float64Histogram("probe.run.duration_ms",
		metric.WithDescription("Probe run duration in milliseconds"),
		metric.WithUnit("ms"))
	if err != nil {
		return nil, err
	}
	return &metricsImpl{total: total, failures: failures, timeouts: timeouts, durations: durations}, nil
}

func (m *metricsImpl) RecordRun(ctx context.Context, meta ProbeMeta, outcome Outcome, duration time.Duration, err error) {
	attrs := append(meta.attributes(), attribute.String("probe.status", outcome.Status.String()))
	opt := metric.WithAttributes(attrs...)

	m.total.Add(ctx, 1, opt)
	if err != nil || outcome.Status.IsFailure() {
		m.failures.Add(ctx, 1, opt)
	}
	if outcome.TimedOut {
		m.timeouts.Add(ctx, 1, opt)
	}
	m.durations.Record(ctx, float64(duration.Microseconds())/1000, opt)
}

type noopMetrics struct{}

func (noopMetrics) RecordRun(context.Context, ProbeMeta, Outcome, time.Duration, error) {}

package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/jonwraymond/checkops/health"
)

// ProbeMeta identifies one probe run for telemetry purposes.
type ProbeMeta struct {
	StrategyID      string // Strategy id, e.g. "dns" (required)
	ConfigurationID string
	SystemID        string
	RunID           string
}

// SpanName returns the span name for this probe: probe.run.<strategy>.
func (m ProbeMeta) SpanName() string {
	return "probe.run." + m.StrategyID
}

// Validate reports ErrMissingStrategy when StrategyID is empty.
func (m ProbeMeta) Validate() error {
	if m.StrategyID == "" {
		return ErrMissingStrategy
	}
	return nil
}

// attributes returns the low-cardinality attributes shared by spans and metrics.
func (m ProbeMeta) attributes() []attribute.KeyValue {
	attrs := []attribute.KeyValue{attribute.String("probe.strategy", m.StrategyID)}
	if m.ConfigurationID != "" {
		attrs = append(attrs, attribute.String("probe.configuration", m.ConfigurationID))
	}
	if m.SystemID != "" {
		attrs = append(attrs, attribute.String("probe.system", m.SystemID))
	}
	return attrs
}

// Tracer wraps OpenTelemetry tracing with probe-specific span management.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	StartSpan(ctx context.Context, meta ProbeMeta) (context.Context, trace.Span)

	// EndSpan records the outcome and ends the span.
	EndSpan(span trace.Span, outcome Outcome, err error)
}

type tracerImpl struct {
	tracer trace.Tracer
}

// NewTracer wraps an OpenTelemetry tracer.
func NewTracer(t trace.Tracer) Tracer {
	if t == nil {
		return newNoopTracer()
	}
	return &tracerImpl{tracer: t}
}

func (t *tracerImpl) StartSpan(ctx context.Context, meta ProbeMeta) (context.Context, trace.Span) {
	attrs := meta.attributes()
	if meta.RunID != "" {
		attrs = append(attrs, attribute.String("probe.run_id", meta.RunID))
	}
	return t.tracer.Start(ctx, meta.SpanName(),
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

func (t *tracerImpl) EndSpan(span trace.Span, outcome Outcome, err error) {
	span.SetAttributes(
		attribute.String("probe.status", outcome.Status.String()),
		attribute.Bool("probe.timed_out", outcome.TimedOut),
	)
	switch {
	case err != nil:
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
	case outcome.Status == health.StatusUnhealthy:
		span.SetStatus(codes.Error, outcome.Message)
	default:
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

type noopTracer struct {
	noop trace.Tracer
}

func newNoopTracer() Tracer {
	return &noopTracer{noop: tracenoop.NewTracerProvider().Tracer("noop")}
}

func (t *noopTracer) StartSpan(ctx context.Context, meta ProbeMeta) (context.Context, trace.Span) {
	return t.noop.Start(ctx, meta.SpanName())
}

func (t *noopTracer) EndSpan(span trace.Span, _ Outcome, _ error) {
	span.End()
}

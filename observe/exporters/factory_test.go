package exporters

import (
	"context"
	"errors"
	"io"
	"testing"

	promclient "github.com/prometheus/client_golang/prometheus"
)

func TestNewTracingExporter(t *testing.T) {
	tests := []struct {
		name    string
		wantErr error
	}{
		{"stdout", nil},
		{"none", nil},
		{"", nil},
		{"zipkin", ErrUnknownExporter},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exp, err := NewTracingExporter(context.Background(), tt.name, WithWriter(io.Discard))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil || exp == nil {
				t.Errorf("NewTracingExporter(%q) = %v, %v", tt.name, exp, err)
			}
		})
	}
}

func TestNewMetricsReader(t *testing.T) {
	for _, name := range []string{"stdout", "none"} {
		if r, err := NewMetricsReader(context.Background(), name, WithWriter(io.Discard)); err != nil || r == nil {
			t.Errorf("NewMetricsReader(%q) = %v, %v", name, r, err)
		}
	}
	if _, err := NewMetricsReader(context.Background(), "statsd"); !errors.Is(err, ErrUnknownExporter) {
		t.Errorf("unknown exporter error = %v", err)
	}
	r, err := NewMetricsReader(context.Background(), "prometheus", WithRegisterer(promclient.NewRegistry()))
	if err != nil || r == nil {
		t.Errorf("prometheus reader = %v, %v", r, err)
	}
}

func TestOTLPMissingEndpoint(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	t.Setenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT", "")
	t.Setenv("OTEL_EXPORTER_OTLP_METRICS_ENDPOINT", "")

	if _, err := NewTracingExporter(context.Background(), "otlp"); !errors.Is(err, ErrEndpointNotConfigured) {
		t.Errorf("traces error = %v", err)
	}
	if _, err := NewMetricsReader(context.Background(), "otlp"); !errors.Is(err, ErrEndpointNotConfigured) {
		t.Errorf("metrics error = %v", err)
	}
}

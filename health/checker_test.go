package health

import (
	"context"
	"errors"
	"testing"
)

func TestResultConstructors(t *testing.T) {
	refused := errors.New("refused")

	tests := []struct {
		name    string
		result  Result
		status  Status
		wantErr error
	}{
		{"healthy", Healthy("ok"), StatusHealthy, nil},
		{"degraded", Degraded("slow"), StatusDegraded, nil},
		{"unhealthy", Unhealthy("down", refused), StatusUnhealthy, refused},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.result.Status != tt.status {
				t.Errorf("Status = %v, want %v", tt.result.Status, tt.status)
			}
			if tt.result.Err != tt.wantErr {
				t.Errorf("Err = %v, want %v", tt.result.Err, tt.wantErr)
			}
		})
	}
}

func TestResult_WithDetailsCopies(t *testing.T) {
	base := Degraded("slow")
	withDetails := base.WithDetails(map[string]any{"waiting": 3})

	if withDetails.Details["waiting"] != 3 {
		t.Errorf("Details = %v", withDetails.Details)
	}
	if base.Details != nil {
		t.Error("WithDetails mutated the receiver")
	}
}

func TestCheckFunc(t *testing.T) {
	c := CheckFunc("engine", func(context.Context) Result { return Healthy("accepting runs") })

	if c.Name() != "engine" {
		t.Errorf("Name() = %q", c.Name())
	}
	if got := c.Check(context.Background()).Message; got != "accepting runs" {
		t.Errorf("Message = %q", got)
	}
}

func TestPing(t *testing.T) {
	refused := errors.New("connection refused")

	tests := []struct {
		name string
		err  error
		want Status
	}{
		{"reachable", nil, StatusHealthy},
		{"unreachable", refused, StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Ping("store", func(context.Context) error { return tt.err }).Check(context.Background())
			if res.Status != tt.want {
				t.Errorf("Status = %v, want %v", res.Status, tt.want)
			}
			if res.Err != tt.err {
				t.Errorf("Err = %v, want %v", res.Err, tt.err)
			}
		})
	}
}

package health

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"
)

func fixed(name string, r Result) Checker {
	return CheckFunc(name, func(context.Context) Result { return r })
}

func TestAggregator_DefaultTimeout(t *testing.T) {
	if got := NewAggregator(0).timeout; got != DefaultSelfCheckTimeout {
		t.Errorf("timeout = %v, want %v", got, DefaultSelfCheckTimeout)
	}
}

func TestAggregator_RegisterReplacesByName(t *testing.T) {
	agg := NewAggregator(time.Second)
	agg.Register(fixed("store", Healthy("first")))
	agg.Register(fixed("bus", Healthy("bus")))
	agg.Register(fixed("store", Degraded("second")))

	if got := agg.Names(); !slices.Equal(got, []string{"store", "bus"}) {
		t.Fatalf("Names() = %v", got)
	}
	report := agg.Evaluate(context.Background())
	if msg := report.Checks["store"].Message; msg != "second" {
		t.Errorf("store message = %q, want second", msg)
	}
}

func TestAggregator_Evaluate(t *testing.T) {
	tests := []struct {
		name     string
		checkers []Checker
		want     Status
	}{
		{"nothing registered", nil, StatusHealthy},
		{"all healthy", []Checker{fixed("a", Healthy("ok")), fixed("b", Healthy("ok"))}, StatusHealthy},
		{"degraded bus", []Checker{fixed("store", Healthy("ok")), fixed("bus", Degraded("reconnecting"))}, StatusDegraded},
		{"unhealthy wins", []Checker{fixed("a", Degraded("slow")), fixed("b", Unhealthy("down", nil))}, StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agg := NewAggregator(time.Second)
			for _, c := range tt.checkers {
				agg.Register(c)
			}
			report := agg.Evaluate(context.Background())
			if report.Status != tt.want {
				t.Errorf("Status = %v, want %v", report.Status, tt.want)
			}
			if len(report.Checks) != len(tt.checkers) {
				t.Errorf("len(Checks) = %d, want %d", len(report.Checks), len(tt.checkers))
			}
			if report.CheckedAt.IsZero() {
				t.Error("CheckedAt not set")
			}
		})
	}
}

func TestAggregator_EvaluateTimeout(t *testing.T) {
	agg := NewAggregator(50 * time.Millisecond)
	release := make(chan struct{})
	defer close(release)
	agg.Register(CheckFunc("stuck", func(context.Context) Result {
		<-release
		return Healthy("late")
	}))

	report := agg.Evaluate(context.Background())
	got := report.Checks["stuck"]
	if got.Status != StatusUnhealthy {
		t.Errorf("Status = %v, want unhealthy", got.Status)
	}
	if !errors.Is(got.Err, ErrSelfCheckTimeout) {
		t.Errorf("Err = %v, want ErrSelfCheckTimeout", got.Err)
	}
	if got.Duration <= 0 {
		t.Error("Duration not recorded")
	}
}

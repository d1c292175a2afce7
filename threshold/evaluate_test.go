package threshold

import (
	"errors"
	"testing"

	"github.com/jonwraymond/checkops/health"
)

const (
	H = health.StatusHealthy
	D = health.StatusDegraded
	U = health.StatusUnhealthy
)

func TestEvaluate_NoRuns(t *testing.T) {
	for _, p := range []Policy{DefaultPolicy(), {Mode: ModeWindow, Window: Window{Size: 10, DegradedMinFailure: 3, UnhealthyMinFailure: 7}}} {
		got := Evaluate(p, nil, Initial)
		if got.Known || got.Status != health.StatusUnknown {
			t.Errorf("Evaluate(%s, nil) = %+v, want unknown", p.Mode, got)
		}
	}
}

func TestEvaluate_Consecutive(t *testing.T) {
	p := DefaultPolicy()
	degradedPrev := Verdict{Status: D, Known: true}

	tests := []struct {
		name     string
		statuses []health.Status
		previous Verdict
		want     health.Status
	}{
		{"single success", []health.Status{H, U, U}, degradedPrev, H},
		{"single failure keeps previous", []health.Status{U, H}, Initial, H},
		{"single failure keeps degraded", []health.Status{U, H}, degradedPrev, D},
		{"two failures degraded", []health.Status{U, D, H}, Initial, D},
		{"five failures unhealthy", []health.Status{U, U, D, U, U, H}, Initial, U},
		{"unhealthy beats degraded at threshold", []health.Status{D, D, D, D, D}, Initial, U},
		{"unknown previous treated as initial", []health.Status{U}, Unknown, H},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(p, tt.statuses, tt.previous)
			if !got.Known || got.Status != tt.want {
				t.Errorf("Evaluate() = %+v, want %v", got, tt.want)
			}
		})
	}
}

func TestEvaluate_ConsecutiveHealthyStreak(t *testing.T) {
	p := Policy{Mode: ModeConsecutive, Consecutive: Consecutive{HealthyMinSuccess: 3, DegradedMinFailure: 2, UnhealthyMinFailure: 4}}
	prev := Verdict{Status: U, Known: true}

	if got := Evaluate(p, []health.Status{H, H, U, U}, prev); got.Status != U {
		t.Errorf("short recovery = %v, want previous unhealthy", got.Status)
	}
	if got := Evaluate(p, []health.Status{H, H, H, U}, prev); got.Status != H {
		t.Errorf("full recovery = %v, want healthy", got.Status)
	}
}

func TestEvaluate_Window(t *testing.T) {
	p := Policy{Mode: ModeWindow, Window: Window{Size: 10, DegradedMinFailure: 3, UnhealthyMinFailure: 7}}

	tests := []struct {
		name     string
		failures int
		extra    []health.Status
		want     health.Status
	}{
		{"none", 0, nil, H},
		{"below degraded", 2, nil, H},
		{"five failures", 5, nil, D},
		{"at unhealthy", 7, nil, U},
		{"outside window ignored", 2, []health.Status{U, U, U, U, U}, H},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			statuses := make([]health.Status, 0, 10+len(tt.extra))
			for i := 0; i < 10; i++ {
				if i < tt.failures {
					statuses = append(statuses, U)
				} else {
					statuses = append(statuses, H)
				}
			}
			statuses = append(statuses, tt.extra...)

			got := Evaluate(p, statuses, Verdict{Status: U, Known: true})
			if got.Status != tt.want {
				t.Errorf("Evaluate() = %v, want %v", got.Status, tt.want)
			}
		})
	}
}

func TestPolicy_Validate(t *testing.T) {
	tests := []struct {
		name string
		p    Policy
		want error
	}{
		{"default", DefaultPolicy(), nil},
		{"window", Policy{Mode: ModeWindow, Window: Window{Size: 10, DegradedMinFailure: 3, UnhealthyMinFailure: 7}}, nil},
		{"bad mode", Policy{Mode: "burst"}, ErrInvalidMode},
		{"zero consecutive", Policy{Mode: ModeConsecutive}, ErrInvalidPolicy},
		{"misordered", Policy{Mode: ModeConsecutive, Consecutive: Consecutive{1, 5, 2}}, ErrInvalidPolicy},
		{"larger than window", Policy{Mode: ModeWindow, Window: Window{Size: 5, DegradedMinFailure: 3, UnhealthyMinFailure: 7}}, ErrInvalidPolicy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.p.Validate()
			if tt.want == nil && err != nil {
				t.Errorf("Validate() error = %v", err)
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("Validate() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestPolicy_Depth(t *testing.T) {
	if got := DefaultPolicy().Depth(); got != 5 {
		t.Errorf("DefaultPolicy().Depth() = %d, want 5", got)
	}
	w := Policy{Mode: ModeWindow, Window: Window{Size: 10, DegradedMinFailure: 3, UnhealthyMinFailure: 7}}
	if got := w.Depth(); got != 10 {
		t.Errorf("window Depth() = %d, want 10", got)
	}
}

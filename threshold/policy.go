package threshold

import "fmt"

// Mode selects the evaluation strategy.
type Mode string

const (
	ModeConsecutive Mode = "consecutive"
	ModeWindow      Mode = "window"
)

// Consecutive configures streak-based evaluation.
type Consecutive struct {
	HealthyMinSuccess   int `json:"healthyMinSuccess" yaml:"healthyMinSuccess"`
	DegradedMinFailure  int `json:"degradedMinFailure" yaml:"degradedMinFailure"`
	UnhealthyMinFailure int `json:"unhealthyMinFailure" yaml:"unhealthyMinFailure"`
}

// Window configures sliding-window evaluation.
type Window struct {
	Size                int `json:"size" yaml:"size"`
	DegradedMinFailure  int `json:"degradedMinFailure" yaml:"degradedMinFailure"`
	UnhealthyMinFailure int `json:"unhealthyMinFailure" yaml:"unhealthyMinFailure"`
}

// Policy is the threshold policy attached to a configuration/system association.
type Policy struct {
	Mode        Mode        `json:"mode" yaml:"mode"`
	Consecutive Consecutive `json:"consecutive,omitempty" yaml:"consecutive,omitempty"`
	Window      Window      `json:"window,omitempty" yaml:"window,omitempty"`
}

// DefaultPolicy returns consecutive 1/2/5.
func DefaultPolicy() Policy {
	return Policy{
		Mode: ModeConsecutive,
		Consecutive: Consecutive{
			HealthyMinSuccess:   1,
			DegradedMinFailure:  2,
			UnhealthyMinFailure: 5,
		},
	}
}

// Validate checks the active mode's thresholds.
func (p Policy) Validate() error {
	switch p.Mode {
	case ModeConsecutive:
		c := p.Consecutive
		if c.HealthyMinSuccess < 1 || c.DegradedMinFailure < 1 || c.UnhealthyMinFailure < 1 {
			return fmt.Errorf("%w: consecutive thresholds must be >= 1", ErrInvalidPolicy)
		}
		if c.DegradedMinFailure > c.UnhealthyMinFailure {
			return fmt.Errorf("%w: degradedMinFailure %d exceeds unhealthyMinFailure %d",
				ErrInvalidPolicy, c.DegradedMinFailure, c.UnhealthyMinFailure)
		}
	case ModeWindow:
		w := p.Window
		if w.Size < 1 || w.DegradedMinFailure < 1 || w.UnhealthyMinFailure < 1 {
			return fmt.Errorf("%w: window thresholds must be >= 1", ErrInvalidPolicy)
		}
		if w.DegradedMinFailure > w.UnhealthyMinFailure {
			return fmt.Errorf("%w: degradedMinFailure %d exceeds unhealthyMinFailure %d",
				ErrInvalidPolicy, w.DegradedMinFailure, w.UnhealthyMinFailure)
		}
		if w.UnhealthyMinFailure > w.Size {
			return fmt.Errorf("%w: unhealthyMinFailure %d exceeds window size %d",
				ErrInvalidPolicy, w.UnhealthyMinFailure, w.Size)
		}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidMode, p.Mode)
	}
	return nil
}

// Depth returns how many recent runs Evaluate needs to see.
func (p Policy) Depth() int {
	if p.Mode == ModeWindow {
		return p.Window.Size
	}
	c := p.Consecutive
	return max(c.HealthyMinSuccess, c.DegradedMinFailure, c.UnhealthyMinFailure)
}

package probe

import (
	"time"

	"github.com/jonwraymond/checkops/health"
)

// Run is the immutable record of one probe execution.
type Run struct {
	ID              string                     `json:"id"`
	ConfigurationID string                     `json:"configurationId"`
	SystemID        string                     `json:"systemId"`
	StrategyID      string                     `json:"strategyId"`
	Status          health.Status              `json:"status"`
	Message         string                     `json:"message,omitempty"`
	Result          Values                     `json:"result,omitempty"`
	ResultVersion   int                        `json:"resultVersion"`
	Collectors      map[string]CollectorResult `json:"collectors,omitempty"`
	TimedOut        bool                       `json:"timedOut,omitempty"`
	Timestamp       time.Time                  `json:"timestamp"`
	Latency         time.Duration              `json:"latency"`
}

// CollectorResult is one collector instance's part of a Run.
type CollectorResult struct {
	CollectorID   string `json:"collectorId"`
	Values        Values `json:"values,omitempty"`
	ResultVersion int    `json:"resultVersion"`
	Error         string `json:"error,omitempty"`
	TimedOut      bool   `json:"timedOut,omitempty"`
}

// LatencyMs returns the run latency in milliseconds.
func (r Run) LatencyMs() float64 {
	return float64(r.Latency) / float64(time.Millisecond)
}

// timedOutValues is the whole result of an exec that lost its race.
func timedOutValues() Values {
	return Values{"timedOut": true}
}

// fail records err as the run outcome unless an earlier failure already
// set the message. Degraded runs may be downgraded further.
func (r *Run) fail(status health.Status, err error) {
	if r.Status == health.StatusUnhealthy {
		return
	}
	if r.Status == health.StatusDegraded && status == health.StatusDegraded {
		return
	}
	r.Status = status
	r.Message = err.Error()
}

package threshold

import "github.com/jonwraymond/checkops/health"

// Verdict is the outcome of an evaluation. Known is false when there were
// no runs to judge; Status is then unknown.
type Verdict struct {
	Status health.Status `json:"status"`
	Known  bool          `json:"known"`
}

// Initial is the previous verdict assumed before any evaluation.
var Initial = Verdict{Status: health.StatusHealthy, Known: true}

// Unknown is the verdict for a history with no runs.
var Unknown = Verdict{Status: health.StatusUnknown}

// Evaluate computes a verdict from statuses ordered most recent first.
// previous is consulted only in consecutive mode.
func Evaluate(p Policy, statuses []health.Status, previous Verdict) Verdict {
	if len(statuses) == 0 {
		return Unknown
	}
	if p.Mode == ModeWindow {
		return evaluateWindow(p.Window, statuses)
	}
	return evaluateConsecutive(p.Consecutive, statuses, previous)
}

func evaluateConsecutive(c Consecutive, statuses []health.Status, previous Verdict) Verdict {
	leadFailing := statuses[0].IsFailure()
	streak := 0
	for _, s := range statuses {
		if s.IsFailure() != leadFailing {
			break
		}
		streak++
	}

	switch {
	case leadFailing && streak >= c.UnhealthyMinFailure:
		return Verdict{Status: health.StatusUnhealthy, Known: true}
	case leadFailing && streak >= c.DegradedMinFailure:
		return Verdict{Status: health.StatusDegraded, Known: true}
	case !leadFailing && streak >= c.HealthyMinSuccess:
		return Verdict{Status: health.StatusHealthy, Known: true}
	}
	if !previous.Known {
		return Initial
	}
	return previous
}

func evaluateWindow(w Window, statuses []health.Status) Verdict {
	if len(statuses) > w.Size {
		statuses = statuses[:w.Size]
	}
	failures := 0
	for _, s := range statuses {
		if s.IsFailure() {
			failures++
		}
	}

	switch {
	case failures >= w.UnhealthyMinFailure:
		return Verdict{Status: health.StatusUnhealthy, Known: true}
	case failures >= w.DegradedMinFailure:
		return Verdict{Status: health.StatusDegraded, Known: true}
	}
	return Verdict{Status: health.StatusHealthy, Known: true}
}

package health

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

type checkView struct {
	Result
	Took  string `json:"took"`
	Error string `json:"error,omitempty"`
}

type reportView struct {
	Status    Status               `json:"status"`
	CheckedAt string               `json:"checkedAt"`
	Checks    map[string]checkView `json:"checks,omitempty"`
}

// ReadinessHandler serves agg's Report. Only an unhealthy rollup takes the
// daemon out of rotation with a 503.
func ReadinessHandler(agg *Aggregator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report := agg.Evaluate(r.Context())

		view := reportView{
			Status:    report.Status,
			CheckedAt: report.CheckedAt.Format(time.RFC3339),
			Checks:    make(map[string]checkView, len(report.Checks)),
		}
		for name, res := range report.Checks {
			cv := checkView{Result: res, Took: res.Duration.String()}
			if res.Err != nil {
				cv.Error = res.Err.Error()
			}
			view.Checks[name] = cv
		}

		code := http.StatusOK
		if report.Status == StatusUnhealthy {
			code = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(view)
	}
}

// RegisterHandlers mounts /healthz (process liveness) and /readyz on r.
func RegisterHandlers(r chi.Router, agg *Aggregator) {
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	})
	r.Get("/readyz", ReadinessHandler(agg))
}

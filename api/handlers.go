package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jonwraymond/checkops/aggregate"
	"github.com/jonwraymond/checkops/catalog"
	"github.com/jonwraymond/checkops/engine"
	"github.com/jonwraymond/checkops/health"
	"github.com/jonwraymond/checkops/observe"
	"github.com/jonwraymond/checkops/probe"
	"github.com/jonwraymond/checkops/resilience"
	"github.com/jonwraymond/checkops/status"
)

// DefaultHistoryRange is used when a history query has no from.
const DefaultHistoryRange = 24 * time.Hour

type handler struct {
	opts Options
	now  func() time.Time
}

type errorResponse struct {
	Error string `json:"error"`
}

// bucketView adds the derived numbers clients chart.
type bucketView struct {
	aggregate.Bucket
	SuccessRate float64       `json:"successRate"`
	P95Ms       float64       `json:"p95Ms"`
	Status      health.Status `json:"status"`
}

type historyResponse struct {
	SystemID        string         `json:"systemId"`
	ConfigurationID string         `json:"configurationId"`
	From            time.Time      `json:"from"`
	To              time.Time      `json:"to"`
	Size            aggregate.Size `json:"size"`
	Buckets         []bucketView   `json:"buckets"`
}

type runsResponse struct {
	Runs []probe.Run `json:"runs"`
}

type runAllResponse struct {
	Runs   []probe.Run `json:"runs"`
	Errors []string    `json:"errors,omitempty"`
}

func (h *handler) schemas(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"strategies": h.opts.Status.Schemas()})
}

func (h *handler) systems(w http.ResponseWriter, _ *http.Request) {
	var ids []string
	if h.opts.Systems != nil {
		ids = h.opts.Systems.Systems()
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"systems": ids})
}

func (h *handler) systemStatus(w http.ResponseWriter, r *http.Request) {
	out, err := h.opts.Status.EvaluateSystemStatus(r.Context(), chi.URLParam(r, "systemID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handler) history(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	to := h.now().UTC()
	if v := q.Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("to: %v", err)})
			return
		}
		to = t.UTC()
	}
	from := to.Add(-DefaultHistoryRange)
	if v := q.Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("from: %v", err)})
			return
		}
		from = t.UTC()
	}
	g, err := status.ParseGranularity(q.Get("bucket"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	systemID, configurationID := chi.URLParam(r, "systemID"), chi.URLParam(r, "configurationID")
	buckets, err := h.opts.Status.GetAggregatedHistory(r.Context(), systemID, configurationID, from, to, g)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	resp := historyResponse{
		SystemID:        systemID,
		ConfigurationID: configurationID,
		From:            from,
		To:              to,
		Size:            g.Size(to.Sub(from)),
		Buckets:         make([]bucketView, 0, len(buckets)),
	}
	for _, b := range buckets {
		resp.Buckets = append(resp.Buckets, bucketView{
			Bucket:      b,
			SuccessRate: b.SuccessRate(),
			P95Ms:       b.P95(),
			Status:      b.Status(),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handler) runs(w http.ResponseWriter, r *http.Request) {
	limit := h.opts.DefaultRunLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 1000 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "limit must be between 1 and 1000"})
			return
		}
		limit = n
	}
	runs, err := h.opts.Status.RecentRuns(r.Context(), chi.URLParam(r, "systemID"), chi.URLParam(r, "configurationID"), limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if runs == nil {
		runs = []probe.Run{}
	}
	writeJSON(w, http.StatusOK, runsResponse{Runs: runs})
}

func (h *handler) runCheck(w http.ResponseWriter, r *http.Request) {
	run, err := h.opts.Checks.RunCheck(r.Context(), chi.URLParam(r, "configurationID"), chi.URLParam(r, "systemID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (h *handler) runSystem(w http.ResponseWriter, r *http.Request) {
	systemID := chi.URLParam(r, "systemID")
	runs, err := h.opts.Checks.RunAll(r.Context(), systemID)
	resp := runAllResponse{Runs: runs}
	if resp.Runs == nil {
		resp.Runs = []probe.Run{}
	}
	if err != nil {
		if len(runs) == 0 {
			h.writeError(w, r, err)
			return
		}
		resp.Errors = []string{err.Error()}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusCode(err)
	if code >= http.StatusInternalServerError {
		h.opts.Logger.Error(r.Context(), "api request failed",
			observe.F("path", r.URL.Path),
			observe.F("request_id", r.Header.Get("X-Request-Id")),
			observe.F("error", err))
	}
	writeJSON(w, code, errorResponse{Error: err.Error()})
}

func statusCode(err error) int {
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrDisabled):
		return http.StatusConflict
	case errors.Is(err, status.ErrInvalidRange), errors.Is(err, status.ErrInvalidGranularity):
		return http.StatusBadRequest
	case errors.Is(err, resilience.ErrBulkheadFull), errors.Is(err, resilience.ErrTimeout):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

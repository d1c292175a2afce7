package httpprobe

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jonwraymond/checkops/assertion"
	"github.com/jonwraymond/checkops/health"
	"github.com/jonwraymond/checkops/probe"
	"github.com/jonwraymond/checkops/schema"
)

const exposition = `# HELP http_requests_total Requests.
# TYPE http_requests_total counter
http_requests_total{code="200"} 90
http_requests_total{code="500"} 10
# HELP queue_depth Pending items.
# TYPE queue_depth gauge
queue_depth 7
`

func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Token") != "abc" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		fmt.Fprint(w, `{"status":"ok"}`)
	})
	mux.HandleFunc("/broken", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, exposition)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func run(t *testing.T, cfg probe.Configuration) probe.Run {
	t.Helper()
	reg := probe.NewRegistry()
	if err := reg.RegisterStrategy(New()); err != nil {
		t.Fatal(err)
	}
	for _, c := range []probe.Collector{Request{}, Prometheus{}} {
		if err := reg.RegisterCollector(c); err != nil {
			t.Fatal(err)
		}
	}
	if err := reg.ValidateConfiguration(cfg); err != nil {
		t.Fatalf("ValidateConfiguration() error = %v", err)
	}
	r, err := probe.NewRunner(reg, probe.RunnerConfig{}).Run(context.Background(), cfg, "sys-1")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	return r
}

func httpConfig(url string, assertions ...assertion.Assertion) probe.Configuration {
	return probe.Configuration{
		ID:         "http-1",
		StrategyID: ID,
		Config: schema.Payload{Version: 1, Data: map[string]any{
			"url":     url,
			"headers": map[string]any{"X-Token": "abc"},
		}},
		Assertions: assertions,
	}
}

func TestStrategy_Probe(t *testing.T) {
	srv := testServer(t)

	tests := []struct {
		name       string
		path       string
		assertions []assertion.Assertion
		want       health.Status
		message    string
	}{
		{name: "ok", path: "/health", want: health.StatusHealthy},
		{name: "body assertion", path: "/health", want: health.StatusHealthy,
			assertions: []assertion.Assertion{{Field: "body", Operator: assertion.OpContains, Value: `"ok"`}}},
		{name: "failed assertion", path: "/health", want: health.StatusUnhealthy, message: "statusCode equals 201",
			assertions: []assertion.Assertion{{Field: "statusCode", Operator: assertion.OpEquals, Value: 201}}},
		{name: "server error", path: "/broken", want: health.StatusUnhealthy, message: "unexpected status 503"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := run(t, httpConfig(srv.URL+tt.path, tt.assertions...))
			if r.Status != tt.want {
				t.Errorf("Status = %v, want %v (%s)", r.Status, tt.want, r.Message)
			}
			if tt.message != "" && !strings.Contains(r.Message, tt.message) {
				t.Errorf("Message = %q, want %q", r.Message, tt.message)
			}
			if _, ok := r.Result["body"]; ok {
				t.Error("ephemeral body persisted")
			}
		})
	}
}

func TestStrategy_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	r := run(t, httpConfig(url+"/health"))
	if r.Status != health.StatusUnhealthy {
		t.Errorf("Status = %v, want unhealthy", r.Status)
	}
}

func TestCollectors(t *testing.T) {
	srv := testServer(t)
	cfg := httpConfig(srv.URL + "/health")
	cfg.Collectors = []probe.CollectorEntry{
		{ID: "down", CollectorID: "http.request", Config: schema.Payload{Version: 1, Data: map[string]any{
			"path": "/broken", "expectedStatus": 503}}},
		{ID: "metrics", CollectorID: "http.prometheus", Config: schema.Payload{Version: 1, Data: map[string]any{
			"metrics": []any{"http_requests_total"}}},
			Assertions: []assertion.Assertion{{Field: "metrics", Path: "http_requests_total", Operator: assertion.OpGreaterThan, Value: 50}}},
	}

	r := run(t, cfg)

	if r.Status != health.StatusHealthy {
		t.Fatalf("Status = %v (%s)", r.Status, r.Message)
	}
	m := r.Collectors["metrics"].Values
	if got, _ := m.Float("familyCount"); got != 2 {
		t.Errorf("familyCount = %v, want 2", got)
	}
	metrics := m["metrics"].(map[string]any)
	if metrics["http_requests_total"] != 100.0 {
		t.Errorf("http_requests_total = %v, want 100", metrics["http_requests_total"])
	}
	if _, ok := metrics["queue_depth"]; ok {
		t.Error("unselected family reported")
	}
	if code, _ := r.Collectors["down"].Values.Float("statusCode"); code != 503 {
		t.Errorf("down statusCode = %v", code)
	}
}

func TestParseMetrics_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"garbage", "this is { not metrics"},
		{"valid family then garbage", "# TYPE up gauge\nup 1\nthis is { not metrics\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if mfs, err := parseMetrics(tt.body); err == nil {
				t.Errorf("parseMetrics() = %d families, error = nil", len(mfs))
			}
		})
	}
}

package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/jonwraymond/checkops/auth"
	"github.com/jonwraymond/checkops/catalog"
	"github.com/jonwraymond/checkops/engine"
	"github.com/jonwraymond/checkops/health"
	"github.com/jonwraymond/checkops/plugins/dns"
	"github.com/jonwraymond/checkops/probe"
	"github.com/jonwraymond/checkops/schema"
	"github.com/jonwraymond/checkops/status"
	"github.com/jonwraymond/checkops/store/memstore"
)

func answers(_ context.Context, _, hostname, _ string) ([]string, error) {
	if hostname == "ok.test" {
		return []string{"10.0.0.1"}, nil
	}
	return nil, fmt.Errorf("lookup %s: %w", hostname, dns.ErrNXDOMAIN)
}

func dnsConfig(id, hostname string) probe.Configuration {
	return probe.Configuration{
		ID:         id,
		StrategyID: dns.ID,
		Config: schema.Payload{Version: 2, Data: map[string]any{
			"hostname": hostname, "recordType": "A", "nameserver": "",
		}},
	}
}

func newOptions(t *testing.T) Options {
	t.Helper()
	reg := probe.NewRegistry()
	if err := reg.RegisterStrategy(dns.New(dns.ResolverFunc(answers))); err != nil {
		t.Fatal(err)
	}
	cat := catalog.NewMemory(reg)
	err := cat.Replace(catalog.Snapshot{
		Configurations: []probe.Configuration{
			dnsConfig("ok", "ok.test"),
			dnsConfig("broken", "missing.test"),
			dnsConfig("off", "ok.test"),
		},
		Associations: []catalog.Association{
			{ConfigurationID: "ok", SystemID: "web", Enabled: true},
			{ConfigurationID: "broken", SystemID: "web", Enabled: true},
			{ConfigurationID: "off", SystemID: "web", Enabled: false},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	st := memstore.New()
	return Options{
		Checks:  engine.New(cat, probe.NewRunner(reg, probe.RunnerConfig{}), st, engine.Config{}),
		Status:  status.New(cat, st, reg, status.Config{}),
		Systems: cat,
	}
}

func do(t *testing.T, h http.Handler, method, target string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestRouter_Probes(t *testing.T) {
	opts := newOptions(t)
	agg := health.NewAggregator(time.Second)
	agg.Register(health.Ping("store", func(context.Context) error {
		return errors.New("connection refused")
	}))
	opts.Health = agg
	opts.Metrics = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("# metrics\n"))
	})
	h := NewRouter(opts)

	tests := []struct {
		path string
		code int
	}{
		{"/healthz", http.StatusOK},
		{"/readyz", http.StatusServiceUnavailable},
		{"/metrics", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if rec := do(t, h, http.MethodGet, tt.path, nil); rec.Code != tt.code {
				t.Errorf("GET %s = %d, want %d", tt.path, rec.Code, tt.code)
			}
		})
	}
}

func TestRouter_RunCheck(t *testing.T) {
	h := NewRouter(newOptions(t))

	tests := []struct {
		name   string
		path   string
		code   int
		status health.Status
	}{
		{"healthy", "/api/v1/systems/web/checks/ok/run", http.StatusOK, health.StatusHealthy},
		{"probe failure is a result", "/api/v1/systems/web/checks/broken/run", http.StatusOK, health.StatusUnhealthy},
		{"disabled", "/api/v1/systems/web/checks/off/run", http.StatusConflict, 0},
		{"unknown", "/api/v1/systems/web/checks/nope/run", http.StatusNotFound, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, tt.path, nil)
			if rec.Code != tt.code {
				t.Fatalf("code = %d, want %d: %s", rec.Code, tt.code, rec.Body)
			}
			if tt.code != http.StatusOK {
				return
			}
			run := decode[probe.Run](t, rec)
			if run.Status != tt.status || run.ID == "" {
				t.Errorf("run = %+v", run)
			}
		})
	}
}

func TestRouter_RunSystemAndStatus(t *testing.T) {
	h := NewRouter(newOptions(t))

	rec := do(t, h, http.MethodPost, "/api/v1/systems/web/run", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("run system = %d: %s", rec.Code, rec.Body)
	}
	if got := decode[runAllResponse](t, rec); len(got.Runs) != 2 {
		t.Errorf("runs = %d, want 2", len(got.Runs))
	}

	rec = do(t, h, http.MethodGet, "/api/v1/systems/web/status", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	st := decode[status.SystemStatus](t, rec)
	if st.SystemID != "web" || len(st.Checks) != 2 {
		t.Errorf("status = %+v", st)
	}
	// One failure stays under the default degraded threshold of two.
	if st.Status != health.StatusHealthy {
		t.Errorf("overall = %s, want healthy", st.Status)
	}

	if rec := do(t, h, http.MethodGet, "/api/v1/systems/nope/status", nil); rec.Code != http.StatusNotFound {
		t.Errorf("unknown system status = %d", rec.Code)
	}
	if rec := do(t, h, http.MethodPost, "/api/v1/systems/nope/run", nil); rec.Code != http.StatusNotFound {
		t.Errorf("unknown system run = %d", rec.Code)
	}
}

func TestRouter_HistoryAndRuns(t *testing.T) {
	h := NewRouter(newOptions(t))
	for i := 0; i < 3; i++ {
		if rec := do(t, h, http.MethodPost, "/api/v1/systems/web/checks/ok/run", nil); rec.Code != http.StatusOK {
			t.Fatalf("run = %d", rec.Code)
		}
	}

	now := time.Now().UTC()
	q := url.Values{}
	q.Set("from", now.Add(-2*time.Hour).Format(time.RFC3339))
	q.Set("to", now.Add(time.Hour).Format(time.RFC3339))
	q.Set("bucket", "hourly")
	rec := do(t, h, http.MethodGet, "/api/v1/systems/web/checks/ok/history?"+q.Encode(), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("history = %d: %s", rec.Code, rec.Body)
	}
	hist := decode[historyResponse](t, rec)
	var total int64
	for _, b := range hist.Buckets {
		total += b.RunCount
		if b.SuccessRate != 100 {
			t.Errorf("success rate = %v, want 100", b.SuccessRate)
		}
	}
	if total != 3 {
		t.Errorf("runs in history = %d, want 3", total)
	}

	rec = do(t, h, http.MethodGet, "/api/v1/systems/web/checks/ok/runs?limit=2", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("runs = %d: %s", rec.Code, rec.Body)
	}
	if got := decode[runsResponse](t, rec); len(got.Runs) != 2 {
		t.Errorf("runs = %d, want 2", len(got.Runs))
	}
}

func TestRouter_BadRequests(t *testing.T) {
	h := NewRouter(newOptions(t))
	tests := []struct {
		name string
		path string
		code int
	}{
		{"bad bucket", "/api/v1/systems/web/checks/ok/history?bucket=weekly", http.StatusBadRequest},
		{"bad from", "/api/v1/systems/web/checks/ok/history?from=yesterday", http.StatusBadRequest},
		{"reversed range", "/api/v1/systems/web/checks/ok/history?from=2026-03-02T00:00:00Z&to=2026-03-01T00:00:00Z", http.StatusBadRequest},
		{"unknown check", "/api/v1/systems/web/checks/nope/history", http.StatusNotFound},
		{"bad limit", "/api/v1/systems/web/checks/ok/runs?limit=0", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := do(t, h, http.MethodGet, tt.path, nil); rec.Code != tt.code {
				t.Errorf("code = %d, want %d: %s", rec.Code, tt.code, rec.Body)
			}
		})
	}
}

func TestRouter_SchemasAndSystems(t *testing.T) {
	h := NewRouter(newOptions(t))

	rec := do(t, h, http.MethodGet, "/api/v1/schemas", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"dns.config"`) {
		t.Errorf("schemas = %d: %s", rec.Code, rec.Body)
	}
	rec = do(t, h, http.MethodGet, "/api/v1/systems", nil)
	got := decode[map[string][]string](t, rec)
	if len(got["systems"]) != 1 || got["systems"][0] != "web" {
		t.Errorf("systems = %v", got)
	}
}

func TestRouter_Auth(t *testing.T) {
	authn, err := auth.New(auth.Config{
		Enabled: true,
		APIKeys: []auth.APIKeyEntry{
			{ID: "ops", Hash: auth.HashAPIKey("ops-key"), Principal: "ops", Roles: []string{"operator"}},
			{ID: "ro", Hash: auth.HashAPIKey("ro-key"), Principal: "dash", Roles: []string{"viewer"}},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	opts := newOptions(t)
	opts.Auth = authn
	opts.RunRole = "operator"
	h := NewRouter(opts)

	key := func(k string) http.Header { return http.Header{auth.APIKeyHeader: []string{k}} }
	tests := []struct {
		name   string
		method string
		path   string
		header http.Header
		code   int
	}{
		{"no credentials", http.MethodGet, "/api/v1/systems", nil, http.StatusUnauthorized},
		{"wrong key", http.MethodGet, "/api/v1/systems", key("nope"), http.StatusUnauthorized},
		{"viewer reads", http.MethodGet, "/api/v1/systems", key("ro-key"), http.StatusOK},
		{"viewer cannot run", http.MethodPost, "/api/v1/systems/web/checks/ok/run", key("ro-key"), http.StatusForbidden},
		{"operator runs", http.MethodPost, "/api/v1/systems/web/checks/ok/run", key("ops-key"), http.StatusOK},
		{"probes stay open", http.MethodGet, "/healthz", nil, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := do(t, h, tt.method, tt.path, tt.header); rec.Code != tt.code {
				t.Errorf("code = %d, want %d: %s", rec.Code, tt.code, rec.Body)
			}
		})
	}
}

func TestRouter_CORS(t *testing.T) {
	opts := newOptions(t)
	opts.AllowedOrigins = []string{"https://ops.example.com"}
	h := NewRouter(opts)

	rec := do(t, h, http.MethodGet, "/api/v1/systems", http.Header{"Origin": []string{"https://ops.example.com"}})
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://ops.example.com" {
		t.Errorf("allow origin = %q", got)
	}
}

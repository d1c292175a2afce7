package consulprobe

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/jonwraymond/checkops/health"
	"github.com/jonwraymond/checkops/probe"
	"github.com/jonwraymond/checkops/schema"
)

type instance struct {
	Node    map[string]any   `json:"Node"`
	Service map[string]any   `json:"Service"`
	Checks  []map[string]any `json:"Checks"`
}

type seenRequest struct {
	mu    sync.Mutex
	query url.Values
	token string
}

func fakeConsul(t *testing.T, statuses ...[]string) (*httptest.Server, *seenRequest) {
	t.Helper()
	seen := &seenRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen.mu.Lock()
		seen.query = r.URL.Query()
		seen.token = r.Header.Get("X-Consul-Token")
		seen.mu.Unlock()
		if r.URL.Path != "/v1/health/service/api" {
			http.NotFound(w, r)
			return
		}
		out := make([]instance, 0, len(statuses))
		for i, checks := range statuses {
			inst := instance{
				Node:    map[string]any{"Node": "node", "Address": "10.0.0.1"},
				Service: map[string]any{"Service": "api", "Port": 8080 + i},
			}
			for _, s := range checks {
				inst.Checks = append(inst.Checks, map[string]any{"Status": s})
			}
			out = append(out, inst)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Consul-Index", "1")
		w.Header().Set("X-Consul-LastContact", "0")
		w.Header().Set("X-Consul-KnownLeader", "true")
		_ = json.NewEncoder(w).Encode(out)
	}))
	t.Cleanup(srv.Close)
	return srv, seen
}

func runConsul(t *testing.T, addr string) probe.Run {
	t.Helper()
	reg := probe.NewRegistry()
	if err := reg.RegisterStrategy(New()); err != nil {
		t.Fatal(err)
	}
	cfg := probe.Configuration{
		ID:         "consul-1",
		StrategyID: ID,
		Config: schema.Payload{Version: 1, Data: map[string]any{
			"address": addr, "service": "api", "tag": "v2", "token": "t0ken", "datacenter": "dc1",
		}},
	}
	run, err := probe.NewRunner(reg, probe.RunnerConfig{}).Run(context.Background(), cfg, "sys-1")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	return run
}

func TestStrategy_WorstWins(t *testing.T) {
	tests := []struct {
		name      string
		instances [][]string
		want      health.Status
		status    string
	}{
		{"all passing", [][]string{{"passing", "passing"}, {"passing"}}, health.StatusHealthy, "passing"},
		{"one warning", [][]string{{"passing"}, {"warning", "passing"}}, health.StatusDegraded, "warning"},
		{"critical beats warning", [][]string{{"warning"}, {"passing", "critical"}}, health.StatusUnhealthy, "critical"},
		{"no instances", nil, health.StatusUnhealthy, "passing"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := fakeConsul(t, tt.instances...)

			run := runConsul(t, srv.URL)

			if run.Status != tt.want {
				t.Errorf("Status = %v, want %v (%s)", run.Status, tt.want, run.Message)
			}
			if got := run.Result.String("status"); got != tt.status {
				t.Errorf("status = %q, want %q", got, tt.status)
			}
			if got, _ := run.Result.Float("instanceCount"); int(got) != len(tt.instances) {
				t.Errorf("instanceCount = %v, want %d", got, len(tt.instances))
			}
		})
	}
}

func TestStrategy_SendsQuery(t *testing.T) {
	srv, seen := fakeConsul(t, []string{"passing"})

	runConsul(t, srv.URL)

	seen.mu.Lock()
	defer seen.mu.Unlock()
	if seen.query.Get("tag") != "v2" || seen.query.Get("dc") != "dc1" {
		t.Errorf("query = %v", seen.query)
	}
	if seen.token != "t0ken" {
		t.Errorf("token header = %q", seen.token)
	}
}

func TestStrategy_Counts(t *testing.T) {
	srv, _ := fakeConsul(t, []string{"passing", "warning"}, []string{"critical"})

	run := runConsul(t, srv.URL)

	for key, want := range map[string]float64{"passing": 1, "warning": 1, "critical": 1} {
		if got, _ := run.Result.Float(key); got != want {
			t.Errorf("%s = %v, want %v", key, got, want)
		}
	}
	if run.Message != "1 critical checks" {
		t.Errorf("Message = %q", run.Message)
	}
}

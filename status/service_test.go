package status

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jonwraymond/checkops/catalog"
	"github.com/jonwraymond/checkops/health"
	"github.com/jonwraymond/checkops/plugins/dns"
	"github.com/jonwraymond/checkops/probe"
	"github.com/jonwraymond/checkops/schema"
	"github.com/jonwraymond/checkops/store/memstore"
	"github.com/jonwraymond/checkops/threshold"
)

var base = time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

func dnsConfig(id string) probe.Configuration {
	return probe.Configuration{
		ID:         id,
		StrategyID: dns.ID,
		Config: schema.Payload{Version: 2, Data: map[string]any{
			"hostname": id + ".test", "recordType": "A", "nameserver": "",
		}},
	}
}

type fixture struct {
	svc   *Service
	store *memstore.Store
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	reg := probe.NewRegistry()
	if err := reg.RegisterStrategy(dns.New(nil)); err != nil {
		t.Fatal(err)
	}
	cat := catalog.NewMemory(reg)
	err := cat.Replace(catalog.Snapshot{
		Configurations: []probe.Configuration{dnsConfig("a"), dnsConfig("b"), dnsConfig("c"), dnsConfig("off")},
		Associations: []catalog.Association{
			{ConfigurationID: "a", SystemID: "web", Enabled: true, Policy: threshold.Policy{
				Mode:        threshold.ModeConsecutive,
				Consecutive: threshold.Consecutive{HealthyMinSuccess: 2, DegradedMinFailure: 2, UnhealthyMinFailure: 3},
			}},
			{ConfigurationID: "b", SystemID: "web", Enabled: true, Policy: threshold.Policy{
				Mode:   threshold.ModeWindow,
				Window: threshold.Window{Size: 3, DegradedMinFailure: 1, UnhealthyMinFailure: 2},
			}},
			{ConfigurationID: "c", SystemID: "web", Enabled: true},
			{ConfigurationID: "off", SystemID: "web", Enabled: false},
			{ConfigurationID: "a", SystemID: "idle", Enabled: true},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	st := memstore.New()
	return fixture{svc: New(cat, st, reg, Config{}), store: st}
}

func (f fixture) run(t *testing.T, configurationID string, minute int, status health.Status) {
	t.Helper()
	err := f.store.SaveRun(context.Background(), probe.Run{
		ID:              fmt.Sprintf("%s-%d", configurationID, minute),
		ConfigurationID: configurationID,
		SystemID:        "web",
		StrategyID:      dns.ID,
		Status:          status,
		Message:         status.String(),
		Timestamp:       base.Add(time.Duration(minute) * time.Minute),
		Latency:         5 * time.Millisecond,
	})
	if err != nil {
		t.Fatal(err)
	}
}

func checkByID(t *testing.T, s SystemStatus, id string) CheckStatus {
	t.Helper()
	for _, c := range s.Checks {
		if c.ConfigurationID == id {
			return c
		}
	}
	t.Fatalf("no check %q in %+v", id, s.Checks)
	return CheckStatus{}
}

func TestService_EvaluateSystemStatus(t *testing.T) {
	f := newFixture(t)
	f.run(t, "a", 1, health.StatusUnhealthy)
	f.run(t, "a", 2, health.StatusUnhealthy)
	f.run(t, "b", 1, health.StatusUnhealthy)
	f.run(t, "b", 2, health.StatusHealthy)
	f.run(t, "b", 3, health.StatusDegraded)

	got, err := f.svc.EvaluateSystemStatus(context.Background(), "web")
	if err != nil {
		t.Fatalf("EvaluateSystemStatus: %v", err)
	}
	if got.Status != health.StatusUnhealthy {
		t.Errorf("overall = %s, want unhealthy", got.Status)
	}
	if len(got.Checks) != 3 {
		t.Fatalf("checks = %d, want 3 (disabled excluded)", len(got.Checks))
	}

	tests := []struct {
		id     string
		status health.Status
		known  bool
	}{
		{"a", health.StatusDegraded, true},
		{"b", health.StatusUnhealthy, true},
		{"c", health.StatusUnknown, false},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			c := checkByID(t, got, tt.id)
			if c.Status != tt.status || c.Known != tt.known {
				t.Errorf("got %s known=%v, want %s known=%v", c.Status, c.Known, tt.status, tt.known)
			}
		})
	}

	a := checkByID(t, got, "a")
	if a.LastRunAt == nil || !a.LastRunAt.Equal(base.Add(2*time.Minute)) {
		t.Errorf("LastRunAt = %v", a.LastRunAt)
	}
	if a.RunsEvaluated != 2 {
		t.Errorf("RunsEvaluated = %d, want 2", a.RunsEvaluated)
	}
}

func TestService_KeepsPreviousVerdict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.run(t, "a", 1, health.StatusUnhealthy)
	f.run(t, "a", 2, health.StatusUnhealthy)

	statusOfA := func() health.Status {
		t.Helper()
		got, err := f.svc.EvaluateSystemStatus(ctx, "web")
		if err != nil {
			t.Fatal(err)
		}
		return checkByID(t, got, "a").Status
	}

	if s := statusOfA(); s != health.StatusDegraded {
		t.Fatalf("after two failures = %s, want degraded", s)
	}
	f.run(t, "a", 3, health.StatusHealthy)
	if s := statusOfA(); s != health.StatusDegraded {
		t.Errorf("one success below threshold = %s, want degraded kept", s)
	}
	f.run(t, "a", 4, health.StatusHealthy)
	if s := statusOfA(); s != health.StatusHealthy {
		t.Errorf("two successes = %s, want healthy", s)
	}
}

func TestService_UnknownWithoutRuns(t *testing.T) {
	f := newFixture(t)
	got, err := f.svc.EvaluateSystemStatus(context.Background(), "idle")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != health.StatusUnknown {
		t.Errorf("overall = %s, want unknown", got.Status)
	}
}

func TestService_UnknownSystem(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.EvaluateSystemStatus(context.Background(), "nope")
	if !errors.Is(err, catalog.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestService_RecentRuns(t *testing.T) {
	f := newFixture(t)
	for m := 1; m <= 4; m++ {
		f.run(t, "a", m, health.StatusHealthy)
	}
	runs, err := f.svc.RecentRuns(context.Background(), "web", "a", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 || runs[0].ID != "a-4" || runs[1].ID != "a-3" {
		t.Errorf("runs = %+v", runs)
	}
	if _, err := f.svc.RecentRuns(context.Background(), "web", "zzz", 2); !errors.Is(err, catalog.ErrNotFound) {
		t.Errorf("unknown association err = %v", err)
	}
}

func TestService_Schemas(t *testing.T) {
	f := newFixture(t)
	got := f.svc.Schemas()
	if len(got) != 1 || got[0].ID != dns.ID {
		t.Fatalf("schemas = %+v", got)
	}
	if got[0].Config.Version != 2 || len(got[0].Config.Document) == 0 {
		t.Errorf("config document = %+v", got[0].Config)
	}
	if got[0].Collectors == nil {
		t.Error("collectors should be an empty list, not nil")
	}
}

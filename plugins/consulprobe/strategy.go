package consulprobe

import (
	"context"
	"errors"
	"fmt"

	consulapi "github.com/hashicorp/consul/api"

	"github.com/jonwraymond/checkops/aggregate"
	"github.com/jonwraymond/checkops/probe"
	"github.com/jonwraymond/checkops/schema"
)

// ID is the strategy id.
const ID = "consul"

// ErrNoInstances is returned when the service has no registered instances.
var ErrNoInstances = errors.New("consulprobe: service has no instances")

// Config is the decoded strategy config.
type Config struct {
	Address    string `json:"address"`
	Token      string `json:"token,omitempty"`
	Service    string `json:"service"`
	Tag        string `json:"tag,omitempty"`
	Datacenter string `json:"datacenter,omitempty"`
	Timeout    int    `json:"timeout,omitempty"`
}

// Strategy probes Consul service health.
type Strategy struct{}

// New creates the strategy.
func New() *Strategy { return &Strategy{} }

func (s *Strategy) Meta() probe.Meta {
	return probe.Meta{ID: ID, DisplayName: "Consul service", Description: "Aggregates Consul health checks of a service"}
}

func (s *Strategy) ConfigSchema() *schema.Versioned { return configSchema }
func (s *Strategy) ResultSchema() *schema.Versioned { return resultSchema }

func (s *Strategy) CreateClient(_ context.Context, config map[string]any) (probe.Client, error) {
	cfg, err := schema.DecodeMap[Config](config)
	if err != nil {
		return nil, err
	}
	ccfg := consulapi.DefaultConfig()
	ccfg.Address = cfg.Address
	ccfg.Token = cfg.Token
	ccfg.Datacenter = cfg.Datacenter

	api, err := consulapi.NewClient(ccfg)
	if err != nil {
		return nil, fmt.Errorf("consul client: %w", err)
	}
	return &client{api: api}, nil
}

// Probe maps the worst check status onto the run: warning degrades it,
// critical fails it.
func (s *Strategy) Probe(ctx context.Context, config map[string]any, c probe.Client) (probe.Values, error) {
	values, err := c.Exec(ctx, probe.Request{"service": config["service"], "tag": config["tag"]})
	if err != nil {
		return nil, err
	}
	if n, _ := values.Float("instanceCount"); n == 0 {
		return values, ErrNoInstances
	}
	switch values.String("status") {
	case consulapi.HealthCritical:
		return values, fmt.Errorf("%v critical checks", values["critical"])
	case consulapi.HealthWarning:
		return values, probe.Degraded("%v warning checks", values["warning"])
	}
	return values, nil
}

func (s *Strategy) MergeResult(agg aggregate.Set, result probe.Values) aggregate.Set {
	n, ok := result.Float("instanceCount")
	return agg.
		Average("instanceCount", n, ok).
		Rate("passing", result.String("status") == consulapi.HealthPassing).
		Counter("critical", result.String("status") == consulapi.HealthCritical)
}

type client struct {
	api *consulapi.Client
}

// Exec lists instances of req["service"] and counts their checks.
func (c *client) Exec(ctx context.Context, req probe.Request) (probe.Values, error) {
	service, _ := req["service"].(string)
	tag, _ := req["tag"].(string)

	q := (&consulapi.QueryOptions{}).WithContext(ctx)
	entries, _, err := c.api.Health().Service(service, tag, false, q)
	if err != nil {
		return nil, err
	}

	var passing, warning, critical int
	worst := consulapi.HealthPassing
	for _, entry := range entries {
		for _, check := range entry.Checks {
			switch check.Status {
			case consulapi.HealthCritical:
				critical++
			case consulapi.HealthWarning:
				warning++
			default:
				passing++
			}
		}
		worst = worse(worst, aggregateChecks(entry.Checks))
	}
	return probe.Values{
		"passing":       passing,
		"warning":       warning,
		"critical":      critical,
		"instanceCount": len(entries),
		"status":        worst,
	}, nil
}

func (c *client) Close() error { return nil }

func aggregateChecks(checks consulapi.HealthChecks) string {
	worst := consulapi.HealthPassing
	for _, check := range checks {
		switch check.Status {
		case consulapi.HealthCritical:
			return consulapi.HealthCritical
		case consulapi.HealthWarning:
			worst = consulapi.HealthWarning
		}
	}
	return worst
}

func worse(a, b string) string {
	rank := func(s string) int {
		switch s {
		case consulapi.HealthCritical:
			return 2
		case consulapi.HealthWarning:
			return 1
		}
		return 0
	}
	if rank(b) > rank(a) {
		return b
	}
	return a
}

var (
	_ probe.Strategy = (*Strategy)(nil)
	_ probe.Prober   = (*Strategy)(nil)
)

package dns

import (
	"context"
	"time"

	"github.com/jonwraymond/checkops/aggregate"
	"github.com/jonwraymond/checkops/probe"
	"github.com/jonwraymond/checkops/schema"
)

// ID is the strategy id.
const ID = "dns"

// Config is the decoded strategy config.
type Config struct {
	Hostname   string `json:"hostname"`
	RecordType string `json:"recordType"`
	Nameserver string `json:"nameserver"`
	Timeout    int    `json:"timeout,omitempty"`
}

// Strategy resolves names through an injected Resolver.
type Strategy struct {
	resolver Resolver
}

// New creates the strategy. A nil resolver uses NetResolver.
func New(resolver Resolver) *Strategy {
	if resolver == nil {
		resolver = NetResolver{}
	}
	return &Strategy{resolver: resolver}
}

func (s *Strategy) Meta() probe.Meta {
	return probe.Meta{ID: ID, DisplayName: "DNS", Description: "Resolves a hostname and checks the answers"}
}

func (s *Strategy) ConfigSchema() *schema.Versioned { return configSchema }
func (s *Strategy) ResultSchema() *schema.Versioned { return resultSchema }

func (s *Strategy) CreateClient(_ context.Context, config map[string]any) (probe.Client, error) {
	cfg, err := schema.DecodeMap[Config](config)
	if err != nil {
		return nil, err
	}
	return &client{resolver: s.resolver, nameserver: cfg.Nameserver}, nil
}

func (s *Strategy) Probe(ctx context.Context, config map[string]any, c probe.Client) (probe.Values, error) {
	return c.Exec(ctx, probe.Request{"hostname": config["hostname"], "recordType": config["recordType"]})
}

func (s *Strategy) MergeResult(agg aggregate.Set, result probe.Values) aggregate.Set {
	return mergeLookup(agg, result).Counter("failures", result.Has("error"))
}

func mergeLookup(agg aggregate.Set, result probe.Values) aggregate.Set {
	ms, ok := result.Float("resolveTimeMs")
	n, _ := result.Float("recordCount")
	return agg.Average("resolveTimeMs", ms, ok).Rate("success", n > 0 && !result.Has("error"))
}

type client struct {
	resolver   Resolver
	nameserver string
}

// Exec resolves req["hostname"] for req["recordType"]. Failed lookups
// return zero records together with the error.
func (c *client) Exec(ctx context.Context, req probe.Request) (probe.Values, error) {
	host, _ := req["hostname"].(string)
	recordType, _ := req["recordType"].(string)

	start := time.Now()
	values, err := c.resolver.Lookup(ctx, c.nameserver, host, recordType)
	elapsed := float64(time.Since(start).Microseconds()) / 1000

	if err != nil {
		return probe.Values{
			"resolvedValues": []string{},
			"recordCount":    0,
			"resolveTimeMs":  elapsed,
			"error":          err.Error(),
		}, err
	}
	if values == nil {
		values = []string{}
	}
	return probe.Values{
		"resolvedValues": values,
		"recordCount":    len(values),
		"resolveTimeMs":  elapsed,
	}, nil
}

func (c *client) Close() error { return nil }

var (
	_ probe.Strategy = (*Strategy)(nil)
	_ probe.Prober   = (*Strategy)(nil)
)

package httpprobe

import (
	"context"

	"github.com/jonwraymond/checkops/aggregate"
	"github.com/jonwraymond/checkops/probe"
	"github.com/jonwraymond/checkops/schema"
)

// ID is the strategy id.
const ID = "http"

// Config is the decoded strategy config.
type Config struct {
	URL                string            `json:"url"`
	Method             string            `json:"method,omitempty"`
	Headers            map[string]string `json:"headers,omitempty"`
	Body               string            `json:"body,omitempty"`
	ExpectedStatus     int               `json:"expectedStatus,omitempty"`
	InsecureSkipVerify bool              `json:"insecureSkipVerify,omitempty"`
	Timeout            int               `json:"timeout,omitempty"`
}

// Strategy probes HTTP endpoints.
type Strategy struct{}

// New creates the strategy.
func New() *Strategy { return &Strategy{} }

func (s *Strategy) Meta() probe.Meta {
	return probe.Meta{ID: ID, DisplayName: "HTTP", Description: "Requests a URL and checks the response"}
}

func (s *Strategy) ConfigSchema() *schema.Versioned { return configSchema }
func (s *Strategy) ResultSchema() *schema.Versioned { return resultSchema }

func (s *Strategy) CreateClient(_ context.Context, config map[string]any) (probe.Client, error) {
	cfg, err := schema.DecodeMap[Config](config)
	if err != nil {
		return nil, err
	}
	return newClient(cfg)
}

func (s *Strategy) Probe(ctx context.Context, config map[string]any, c probe.Client) (probe.Values, error) {
	values, err := c.Exec(ctx, probe.Request{"method": config["method"], "body": config["body"]})
	if err != nil {
		return nil, err
	}
	expected, _ := probe.Values(config).Float("expectedStatus")
	return values, checkStatus(values, int(expected))
}

func (s *Strategy) MergeResult(agg aggregate.Set, result probe.Values) aggregate.Set {
	return mergeResponse(agg, result)
}

func mergeResponse(agg aggregate.Set, result probe.Values) aggregate.Set {
	ms, ok := result.Float("latencyMs")
	code, hasCode := result.Float("statusCode")
	return agg.Average("latencyMs", ms, ok).
		Rate("success", hasCode && code < 400).
		Counter("serverErrors", code >= 500)
}

// Request is the "http.request" collector.
type Request struct{}

func (Request) Meta() probe.CollectorMeta {
	return probe.CollectorMeta{
		PluginID:      ID,
		ID:            "request",
		DisplayName:   "HTTP request",
		Description:   "Requests another path on the same host",
		AllowMultiple: true,
	}
}

func (Request) ConfigSchema() *schema.Versioned { return requestConfigSchema }
func (Request) ResultSchema() *schema.Versioned { return resultSchema }

func (Request) Execute(ctx context.Context, config map[string]any, c probe.Client) (probe.Values, error) {
	values, err := c.Exec(ctx, probe.Request{
		"path":    config["path"],
		"method":  config["method"],
		"headers": config["headers"],
		"body":    config["body"],
	})
	if err != nil {
		return nil, err
	}
	expected, _ := probe.Values(config).Float("expectedStatus")
	return values, checkStatus(values, int(expected))
}

func (Request) MergeResult(agg aggregate.Set, result probe.Values) aggregate.Set {
	return mergeResponse(agg, result)
}

var (
	_ probe.Strategy  = (*Strategy)(nil)
	_ probe.Prober    = (*Strategy)(nil)
	_ probe.Collector = Request{}
)

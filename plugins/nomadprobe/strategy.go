package nomadprobe

import (
	"context"
	"fmt"

	nomadapi "github.com/hashicorp/nomad/api"

	"github.com/jonwraymond/checkops/aggregate"
	"github.com/jonwraymond/checkops/probe"
	"github.com/jonwraymond/checkops/schema"
)

// ID is the strategy id.
const ID = "nomad"

// Config is the decoded strategy config.
type Config struct {
	Address   string `json:"address"`
	Namespace string `json:"namespace,omitempty"`
	Region    string `json:"region,omitempty"`
	JobID     string `json:"jobId"`
	Token     string `json:"token,omitempty"`
	Timeout   int    `json:"timeout,omitempty"`
}

// Strategy probes Nomad jobs.
type Strategy struct{}

// New creates the strategy.
func New() *Strategy { return &Strategy{} }

func (s *Strategy) Meta() probe.Meta {
	return probe.Meta{ID: ID, DisplayName: "Nomad job", Description: "Reads the allocation summary of a Nomad job"}
}

func (s *Strategy) ConfigSchema() *schema.Versioned { return configSchema }
func (s *Strategy) ResultSchema() *schema.Versioned { return resultSchema }

func (s *Strategy) CreateClient(_ context.Context, config map[string]any) (probe.Client, error) {
	cfg, err := schema.DecodeMap[Config](config)
	if err != nil {
		return nil, err
	}
	ncfg := nomadapi.DefaultConfig()
	ncfg.Address = cfg.Address
	ncfg.Region = cfg.Region
	ncfg.Namespace = cfg.Namespace
	ncfg.SecretID = cfg.Token

	api, err := nomadapi.NewClient(ncfg)
	if err != nil {
		return nil, fmt.Errorf("nomad client: %w", err)
	}
	return &client{api: api}, nil
}

// Probe fails when allocations failed or were lost and none is running.
func (s *Strategy) Probe(ctx context.Context, config map[string]any, c probe.Client) (probe.Values, error) {
	values, err := c.Exec(ctx, probe.Request{"jobId": config["jobId"]})
	if err != nil {
		return nil, err
	}
	running, _ := values.Float("running")
	failed, _ := values.Float("failed")
	lost, _ := values.Float("lost")
	if running == 0 && failed+lost > 0 {
		return values, fmt.Errorf("no running allocations (%v failed, %v lost)", failed, lost)
	}
	return values, nil
}

func (s *Strategy) MergeResult(agg aggregate.Set, result probe.Values) aggregate.Set {
	running, ok := result.Float("running")
	failed, _ := result.Float("failed")
	lost, _ := result.Float("lost")
	return agg.
		Average("running", running, ok).
		Counter("failedAllocations", failed > 0).
		Counter("lostAllocations", lost > 0)
}

type client struct {
	api *nomadapi.Client
}

// Exec sums the task group summaries of req["jobId"].
func (c *client) Exec(ctx context.Context, req probe.Request) (probe.Values, error) {
	jobID, _ := req["jobId"].(string)
	q := (&nomadapi.QueryOptions{}).WithContext(ctx)
	summary, _, err := c.api.Jobs().Summary(jobID, q)
	if err != nil {
		return nil, fmt.Errorf("job %s summary: %w", jobID, err)
	}

	var total nomadapi.TaskGroupSummary
	for _, tg := range summary.Summary {
		total.Running += tg.Running
		total.Failed += tg.Failed
		total.Lost += tg.Lost
		total.Queued += tg.Queued
		total.Starting += tg.Starting
		total.Complete += tg.Complete
	}
	return probe.Values{
		"running":  total.Running,
		"failed":   total.Failed,
		"lost":     total.Lost,
		"queued":   total.Queued,
		"starting": total.Starting,
		"complete": total.Complete,
	}, nil
}

func (c *client) Close() error { return nil }

var (
	_ probe.Strategy = (*Strategy)(nil)
	_ probe.Prober   = (*Strategy)(nil)
)

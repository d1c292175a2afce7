package script

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jonwraymond/checkops/aggregate"
	"github.com/jonwraymond/checkops/probe"
	"github.com/jonwraymond/checkops/schema"
)

// ID is the strategy id.
const ID = "script"

// DefaultTimeout applies when the config has no timeout.
const DefaultTimeout = 30 * time.Second

// DefaultShell runs inline scripts.
const DefaultShell = "/bin/sh"

// Config is the decoded strategy config.
type Config struct {
	Timeout int    `json:"timeout,omitempty"`
	Shell   string `json:"shell,omitempty"`
}

// Strategy runs commands through an injected Executor.
type Strategy struct {
	executor Executor
}

// New creates the strategy. A nil executor uses OSExecutor.
func New(executor Executor) *Strategy {
	if executor == nil {
		executor = OSExecutor{}
	}
	return &Strategy{executor: executor}
}

func (s *Strategy) Meta() probe.Meta {
	return probe.Meta{ID: ID, DisplayName: "Script", Description: "Runs local commands and checks their exit code"}
}

func (s *Strategy) ConfigSchema() *schema.Versioned { return configSchema }
func (s *Strategy) ResultSchema() *schema.Versioned { return resultSchema }

// DefaultTimeout overrides the runner default for configs without a timeout.
func (s *Strategy) DefaultTimeout() time.Duration { return DefaultTimeout }

func (s *Strategy) CreateClient(_ context.Context, config map[string]any) (probe.Client, error) {
	cfg, err := schema.DecodeMap[Config](config)
	if err != nil {
		return nil, err
	}
	if cfg.Shell == "" {
		cfg.Shell = DefaultShell
	}
	return &client{executor: s.executor, shell: cfg.Shell}, nil
}

// MergeResult keeps the set unchanged; scripts aggregate per collector.
func (s *Strategy) MergeResult(agg aggregate.Set, _ probe.Values) aggregate.Set {
	return agg
}

func mergeScript(agg aggregate.Set, result probe.Values) aggregate.Set {
	ms, ok := result.Float("executionTimeMs")
	return agg.Average("executionTimeMs", ms, ok).Rate("success", result.Bool("success"))
}

type client struct {
	executor Executor
	shell    string
}

// Exec runs req["command"] with req["args"], or req["script"] through the
// shell when command is absent.
func (c *client) Exec(ctx context.Context, req probe.Request) (probe.Values, error) {
	cmd := Command{Env: envList(req["env"])}
	cmd.Dir, _ = req["cwd"].(string)
	if script, ok := req["script"].(string); ok {
		cmd.Path, cmd.Args = c.shell, []string{"-c", script}
	} else {
		cmd.Path, _ = req["command"].(string)
		cmd.Args = stringList(req["args"])
	}

	start := time.Now()
	out, err := c.executor.Execute(ctx, cmd)
	if err != nil {
		return nil, err
	}
	values := probe.Values{
		"exitCode":        out.ExitCode,
		"stdout":          out.Stdout,
		"stderr":          out.Stderr,
		"success":         out.ExitCode == 0,
		"executionTimeMs": float64(time.Since(start).Microseconds()) / 1000,
		"timedOut":        false,
	}
	if out.ExitCode != 0 {
		return values, fmt.Errorf("script exited with code %d", out.ExitCode)
	}
	return values, nil
}

func (c *client) Close() error { return nil }

func stringList(v any) []string {
	items, _ := v.([]any)
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func envList(v any) []string {
	m, _ := v.(map[string]any)
	out := make([]string, 0, len(m))
	for k, val := range m {
		if s, ok := val.(string); ok {
			out = append(out, k+"="+s)
		}
	}
	sort.Strings(out)
	return out
}

var (
	_ probe.Strategy         = (*Strategy)(nil)
	_ probe.TimeoutDefaulter = (*Strategy)(nil)
)

package script

import (
	"context"

	"github.com/jonwraymond/checkops/aggregate"
	"github.com/jonwraymond/checkops/probe"
	"github.com/jonwraymond/checkops/schema"
)

// Execute is the "script.execute" collector.
type Execute struct{}

func (Execute) Meta() probe.CollectorMeta {
	return probe.CollectorMeta{
		PluginID:      ID,
		ID:            "execute",
		DisplayName:   "Execute command",
		Description:   "Runs a command with arguments",
		AllowMultiple: true,
	}
}

func (Execute) ConfigSchema() *schema.Versioned { return executeConfigSchema }
func (Execute) ResultSchema() *schema.Versioned { return resultSchema }

func (Execute) Execute(ctx context.Context, config map[string]any, c probe.Client) (probe.Values, error) {
	return c.Exec(ctx, probe.Request{
		"command": config["command"],
		"args":    config["args"],
		"env":     config["env"],
		"cwd":     config["cwd"],
	})
}

func (Execute) MergeResult(agg aggregate.Set, result probe.Values) aggregate.Set {
	return mergeScript(agg, result)
}

// Inline is the "script.inline-script" collector.
type Inline struct{}

func (Inline) Meta() probe.CollectorMeta {
	return probe.CollectorMeta{
		PluginID:      ID,
		ID:            "inline-script",
		DisplayName:   "Inline script",
		Description:   "Runs a script body through the configured shell",
		AllowMultiple: true,
	}
}

func (Inline) ConfigSchema() *schema.Versioned { return inlineConfigSchema }
func (Inline) ResultSchema() *schema.Versioned { return resultSchema }

func (Inline) Execute(ctx context.Context, config map[string]any, c probe.Client) (probe.Values, error) {
	return c.Exec(ctx, probe.Request{
		"script": config["script"],
		"env":    config["env"],
		"cwd":    config["cwd"],
	})
}

func (Inline) MergeResult(agg aggregate.Set, result probe.Values) aggregate.Set {
	return mergeScript(agg, result)
}

var (
	_ probe.Collector = Execute{}
	_ probe.Collector = Inline{}
)

package dns

import (
	"context"

	"github.com/jonwraymond/checkops/aggregate"
	"github.com/jonwraymond/checkops/probe"
	"github.com/jonwraymond/checkops/schema"
)

// Lookup is the "dns.lookup" collector, resolving an extra record over
// the strategy client.
type Lookup struct{}

func (Lookup) Meta() probe.CollectorMeta {
	return probe.CollectorMeta{
		PluginID:      ID,
		ID:            "lookup",
		DisplayName:   "DNS lookup",
		Description:   "Resolves an additional record",
		AllowMultiple: true,
	}
}

func (Lookup) ConfigSchema() *schema.Versioned { return lookupConfigSchema }
func (Lookup) ResultSchema() *schema.Versioned { return resultSchema }

func (Lookup) Execute(ctx context.Context, config map[string]any, c probe.Client) (probe.Values, error) {
	return c.Exec(ctx, probe.Request{"hostname": config["hostname"], "recordType": config["recordType"]})
}

func (Lookup) MergeResult(agg aggregate.Set, result probe.Values) aggregate.Set {
	return mergeLookup(agg, result)
}

var _ probe.Collector = Lookup{}

package probe

import (
	"context"
	"time"

	"github.com/jonwraymond/checkops/aggregate"
	"github.com/jonwraymond/checkops/schema"
)

// Values is the result of one exec.
type Values map[string]any

// Request is the input of one Client.Exec call.
type Request map[string]any

// Client is a connected probe transport.
//
// Contract:
//   - Concurrency: a Client is used by one run at a time.
//   - Context: Exec must return promptly once ctx is done.
//   - Lifecycle: Close is called exactly once by the Runner.
type Client interface {
	Exec(ctx context.Context, req Request) (Values, error)
	Close() error
}

// Meta describes a strategy.
type Meta struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Description string `json:"description,omitempty"`
}

// Strategy is a pluggable probe type.
//
// Contract:
//   - Concurrency: implementations must be safe for concurrent use.
//   - CreateClient receives config loaded through ConfigSchema with secret
//     references resolved, and should fail with an error wrapping the cause
//     when the target is unreachable or the config is unusable.
//   - MergeResult folds result into agg, which may be nil, and returns
//     the updated set. It may update agg in place.
type Strategy interface {
	Meta() Meta
	ConfigSchema() *schema.Versioned
	ResultSchema() *schema.Versioned
	CreateClient(ctx context.Context, config map[string]any) (Client, error)
	MergeResult(agg aggregate.Set, result Values) aggregate.Set
}

// Prober is implemented by strategies with a built-in action.
type Prober interface {
	Probe(ctx context.Context, config map[string]any, client Client) (Values, error)
}

// TimeoutDefaulter is implemented by strategies whose configs default to
// a timeout other than the runner's.
type TimeoutDefaulter interface {
	DefaultTimeout() time.Duration
}

// CollectorMeta describes a collector.
type CollectorMeta struct {
	PluginID      string `json:"pluginId"`
	ID            string `json:"id"`
	DisplayName   string `json:"displayName"`
	Description   string `json:"description,omitempty"`
	AllowMultiple bool   `json:"allowMultiple"`
}

// QualifiedID returns "pluginId.collectorId".
func (m CollectorMeta) QualifiedID() string {
	return m.PluginID + "." + m.ID
}

// Collector is an action sharing a strategy's Client.
type Collector interface {
	Meta() CollectorMeta
	ConfigSchema() *schema.Versioned
	ResultSchema() *schema.Versioned
	Execute(ctx context.Context, config map[string]any, client Client) (Values, error)
	MergeResult(agg aggregate.Set, result Values) aggregate.Set
}

// ClientFunc adapts a function to a Client with a no-op Close.
type ClientFunc func(ctx context.Context, req Request) (Values, error)

func (f ClientFunc) Exec(ctx context.Context, req Request) (Values, error) { return f(ctx, req) }

func (f ClientFunc) Close() error { return nil }

var _ Client = ClientFunc(nil)

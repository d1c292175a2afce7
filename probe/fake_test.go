package probe

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/jonwraymond/checkops/aggregate"
	"github.com/jonwraymond/checkops/schema"
)

const fakeConfigV2 = `{
  "type": "object",
  "properties": {
    "target":  {"type": "string", "minLength": 1},
    "timeout": {"type": "integer", "minimum": 1},
    "token":   {"type": "string"}
  },
  "required": ["target"]
}`

const fakeResult = `{
  "type": "object",
  "properties": {
    "latencyMs": {"type": "number"},
    "ok":        {"type": "boolean"},
    "body":      {"type": "string", "x-ephemeral": true}
  }
}`

const fakeResultV2 = `{
  "type": "object",
  "properties": {
    "latencyMs": {"type": "number"},
    "ok":        {"type": "boolean"}
  },
  "required": ["latencyMs"]
}`

func renameField(from, to string) func(map[string]any) (map[string]any, error) {
	return func(in map[string]any) (map[string]any, error) {
		out := make(map[string]any, len(in))
		for k, v := range in {
			out[k] = v
		}
		if v, ok := out[from]; ok {
			out[to] = v
			delete(out, from)
		}
		return out, nil
	}
}

var (
	fakeConfigSchema = schema.MustNew("fake.config", 2, fakeConfigV2,
		schema.Migration{From: 1, To: 2, Description: "host becomes target", Migrate: renameField("host", "target")})
	fakeResultSchema = schema.MustNew("fake.result", 1, fakeResult)
)

type fakeClient struct {
	closes atomic.Int32
	exec   func(ctx context.Context, req Request) (Values, error)
}

func (c *fakeClient) Exec(ctx context.Context, req Request) (Values, error) {
	if c.exec == nil {
		return Values{}, nil
	}
	return c.exec(ctx, req)
}

func (c *fakeClient) Close() error {
	c.closes.Add(1)
	return nil
}

// fakeStrategy has no built-in probe.
type fakeStrategy struct {
	id      string
	result  *schema.Versioned
	client  *fakeClient
	connect func(ctx context.Context, cfg map[string]any) (Client, error)

	mu      sync.Mutex
	configs []map[string]any
}

func newFakeStrategy(id string) *fakeStrategy {
	return &fakeStrategy{id: id, result: fakeResultSchema, client: &fakeClient{}}
}

func (s *fakeStrategy) Meta() Meta                      { return Meta{ID: s.id, DisplayName: "Fake " + s.id} }
func (s *fakeStrategy) ConfigSchema() *schema.Versioned { return fakeConfigSchema }
func (s *fakeStrategy) ResultSchema() *schema.Versioned { return s.result }

func (s *fakeStrategy) CreateClient(ctx context.Context, cfg map[string]any) (Client, error) {
	s.mu.Lock()
	s.configs = append(s.configs, cfg)
	s.mu.Unlock()
	if s.connect != nil {
		return s.connect(ctx, cfg)
	}
	return s.client, nil
}

func (s *fakeStrategy) MergeResult(agg aggregate.Set, result Values) aggregate.Set {
	ms, ok := result["latencyMs"].(float64)
	agg = agg.Average("latencyMs", ms, ok)
	ok, _ = result["ok"].(bool)
	return agg.Rate("ok", ok)
}

func (s *fakeStrategy) lastConfig() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.configs) == 0 {
		return nil
	}
	return s.configs[len(s.configs)-1]
}

// probingStrategy adds a built-in probe to fakeStrategy.
type probingStrategy struct {
	*fakeStrategy
	probe func(ctx context.Context, cfg map[string]any, c Client) (Values, error)
}

func (s *probingStrategy) Probe(ctx context.Context, cfg map[string]any, c Client) (Values, error) {
	return s.probe(ctx, cfg, c)
}

type fakeCollector struct {
	meta    CollectorMeta
	execute func(ctx context.Context, cfg map[string]any, c Client) (Values, error)
}

func (c *fakeCollector) Meta() CollectorMeta             { return c.meta }
func (c *fakeCollector) ConfigSchema() *schema.Versioned { return fakeCollectorConfigSchema }
func (c *fakeCollector) ResultSchema() *schema.Versioned { return fakeResultSchema }

func (c *fakeCollector) Execute(ctx context.Context, cfg map[string]any, client Client) (Values, error) {
	return c.execute(ctx, cfg, client)
}

func (c *fakeCollector) MergeResult(agg aggregate.Set, result Values) aggregate.Set {
	ok, _ := result["ok"].(bool)
	return agg.Counter("ok", ok)
}

var fakeCollectorConfigSchema = schema.MustNew("fake.collector", 1, `{
  "type": "object",
  "properties": {"name": {"type": "string"}, "timeout": {"type": "integer"}}
}`)

var (
	_ Strategy  = (*fakeStrategy)(nil)
	_ Prober    = (*probingStrategy)(nil)
	_ Collector = (*fakeCollector)(nil)
)

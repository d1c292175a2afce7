package grpcprobe

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/jonwraymond/checkops/aggregate"
	"github.com/jonwraymond/checkops/probe"
	"github.com/jonwraymond/checkops/schema"
)

// ID is the strategy id.
const ID = "grpc"

// Config is the decoded strategy config.
type Config struct {
	Target             string `json:"target"`
	Service            string `json:"service,omitempty"`
	TLS                bool   `json:"tls,omitempty"`
	InsecureSkipVerify bool   `json:"insecureSkipVerify,omitempty"`
	Timeout            int    `json:"timeout,omitempty"`
}

// Strategy probes gRPC health endpoints.
type Strategy struct {
	opts []grpc.DialOption
}

// New creates the strategy. opts are appended to the dial options of
// every client.
func New(opts ...grpc.DialOption) *Strategy {
	return &Strategy{opts: opts}
}

func (s *Strategy) Meta() probe.Meta {
	return probe.Meta{ID: ID, DisplayName: "gRPC health", Description: "Calls grpc.health.v1.Health/Check"}
}

func (s *Strategy) ConfigSchema() *schema.Versioned { return configSchema }
func (s *Strategy) ResultSchema() *schema.Versioned { return resultSchema }

// CreateClient builds a lazily connecting client; connection errors surface
// from the first Check.
func (s *Strategy) CreateClient(_ context.Context, config map[string]any) (probe.Client, error) {
	cfg, err := schema.DecodeMap[Config](config)
	if err != nil {
		return nil, err
	}
	creds := insecure.NewCredentials()
	if cfg.TLS {
		creds = credentials.NewTLS(&tls.Config{InsecureSkipVerify: cfg.InsecureSkipVerify}) //nolint:gosec // opt-in
	}
	opts := append([]grpc.DialOption{grpc.WithTransportCredentials(creds)}, s.opts...)
	conn, err := grpc.NewClient(cfg.Target, opts...)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", cfg.Target, err)
	}
	return &client{conn: conn, health: healthpb.NewHealthClient(conn)}, nil
}

func (s *Strategy) Probe(ctx context.Context, config map[string]any, c probe.Client) (probe.Values, error) {
	return check(ctx, c, config["service"])
}

func (s *Strategy) MergeResult(agg aggregate.Set, result probe.Values) aggregate.Set {
	return mergeCheck(agg, result)
}

func mergeCheck(agg aggregate.Set, result probe.Values) aggregate.Set {
	ms, ok := result.Float("latencyMs")
	return agg.Average("latencyMs", ms, ok).Rate("serving", result.Bool("serving"))
}

// check runs one health check and fails unless the service is SERVING.
func check(ctx context.Context, c probe.Client, service any) (probe.Values, error) {
	values, err := c.Exec(ctx, probe.Request{"service": service})
	if err != nil {
		return nil, err
	}
	if !values.Bool("serving") {
		return values, fmt.Errorf("service status %s", values.String("status"))
	}
	return values, nil
}

type client struct {
	conn   *grpc.ClientConn
	health healthpb.HealthClient
}

// Exec calls Health/Check for req["service"].
func (c *client) Exec(ctx context.Context, req probe.Request) (probe.Values, error) {
	service, _ := req["service"].(string)
	start := time.Now()
	resp, err := c.health.Check(ctx, &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		return nil, err
	}
	status := resp.GetStatus()
	return probe.Values{
		"status":    status.String(),
		"serving":   status == healthpb.HealthCheckResponse_SERVING,
		"latencyMs": float64(time.Since(start).Microseconds()) / 1000,
	}, nil
}

func (c *client) Close() error { return c.conn.Close() }

// Check is the "grpc.check" collector.
type Check struct{}

func (Check) Meta() probe.CollectorMeta {
	return probe.CollectorMeta{
		PluginID:      ID,
		ID:            "check",
		DisplayName:   "gRPC service check",
		Description:   "Checks the health of another service on the same target",
		AllowMultiple: true,
	}
}

func (Check) ConfigSchema() *schema.Versioned { return checkConfigSchema }
func (Check) ResultSchema() *schema.Versioned { return resultSchema }

func (Check) Execute(ctx context.Context, config map[string]any, c probe.Client) (probe.Values, error) {
	return check(ctx, c, config["service"])
}

func (Check) MergeResult(agg aggregate.Set, result probe.Values) aggregate.Set {
	return mergeCheck(agg, result)
}

var (
	_ probe.Strategy  = (*Strategy)(nil)
	_ probe.Prober    = (*Strategy)(nil)
	_ probe.Collector = Check{}
)

package sqlprobe

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jonwraymond/checkops/aggregate"
	"github.com/jonwraymond/checkops/probe"
	"github.com/jonwraymond/checkops/schema"
)

// ID is the strategy id.
const ID = "sql"

// Config is the decoded strategy config.
type Config struct {
	Driver   string `json:"driver"`
	Host     string `json:"host"`
	Port     int    `json:"port,omitempty"`
	User     string `json:"user,omitempty"`
	Password string `json:"password,omitempty"`
	Database string `json:"database,omitempty"`
	SSLMode  string `json:"sslMode,omitempty"`
	Timeout  int    `json:"timeout,omitempty"`
}

// Opener opens a database handle.
type Opener func(driverName, dsn string) (*sql.DB, error)

// Strategy checks databases.
type Strategy struct {
	open Opener
}

// New creates the strategy. A nil opener uses sql.Open.
func New(open Opener) *Strategy {
	if open == nil {
		open = sql.Open
	}
	return &Strategy{open: open}
}

func (s *Strategy) Meta() probe.Meta {
	return probe.Meta{ID: ID, DisplayName: "SQL database", Description: "Connects to a database and runs queries"}
}

func (s *Strategy) ConfigSchema() *schema.Versioned { return configSchema }
func (s *Strategy) ResultSchema() *schema.Versioned { return resultSchema }

// CreateClient opens a single-connection pool and pings it.
func (s *Strategy) CreateClient(ctx context.Context, config map[string]any) (probe.Client, error) {
	cfg, err := schema.DecodeMap[Config](config)
	if err != nil {
		return nil, err
	}
	driverName, dsn, err := DSN(cfg)
	if err != nil {
		return nil, err
	}
	db, err := s.open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Driver, err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", cfg.Driver, err)
	}
	return &client{db: db}, nil
}

func (s *Strategy) Probe(ctx context.Context, _ map[string]any, c probe.Client) (probe.Values, error) {
	return c.Exec(ctx, probe.Request{})
}

func (s *Strategy) MergeResult(agg aggregate.Set, result probe.Values) aggregate.Set {
	ms, ok := result.Float("pingMs")
	return agg.Average("pingMs", ms, ok).Rate("connected", result.Bool("connected"))
}

type client struct {
	db *sql.DB
}

// Exec pings when req has no "query", else runs the query.
func (c *client) Exec(ctx context.Context, req probe.Request) (probe.Values, error) {
	start := time.Now()
	query, _ := req["query"].(string)
	if query == "" {
		if err := c.db.PingContext(ctx); err != nil {
			return nil, err
		}
		return probe.Values{"connected": true, "pingMs": sinceMs(start)}, nil
	}

	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var (
		count int
		first any
	)
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		if count == 0 && len(cols) > 0 {
			dest := make([]any, len(cols))
			for i := range dest {
				dest[i] = new(any)
			}
			if err := rows.Scan(dest...); err != nil {
				return nil, err
			}
			first = plain(*dest[0].(*any))
		}
		count++
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return probe.Values{"rowCount": count, "firstValue": first, "queryTimeMs": sinceMs(start)}, nil
}

func (c *client) Close() error { return c.db.Close() }

// plain converts driver values to JSON-friendly ones.
func plain(v any) any {
	switch t := v.(type) {
	case []byte:
		return string(t)
	case time.Time:
		return t.UTC().Format(time.RFC3339Nano)
	}
	return v
}

func sinceMs(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000
}

// Query is the "sql.query" collector.
type Query struct{}

func (Query) Meta() probe.CollectorMeta {
	return probe.CollectorMeta{
		PluginID:      ID,
		ID:            "query",
		DisplayName:   "SQL query",
		Description:   "Runs a query and reports the row count and first value",
		AllowMultiple: true,
	}
}

func (Query) ConfigSchema() *schema.Versioned { return queryConfigSchema }
func (Query) ResultSchema() *schema.Versioned { return queryResultSchema }

func (Query) Execute(ctx context.Context, config map[string]any, c probe.Client) (probe.Values, error) {
	return c.Exec(ctx, probe.Request{"query": config["query"]})
}

func (Query) MergeResult(agg aggregate.Set, result probe.Values) aggregate.Set {
	ms, ok := result.Float("queryTimeMs")
	n, _ := result.Float("rowCount")
	return agg.Average("queryTimeMs", ms, ok).Average("rowCount", n, ok)
}

var (
	_ probe.Strategy  = (*Strategy)(nil)
	_ probe.Prober    = (*Strategy)(nil)
	_ probe.Collector = Query{}
)

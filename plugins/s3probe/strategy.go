package s3probe

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/jonwraymond/checkops/aggregate"
	"github.com/jonwraymond/checkops/probe"
	"github.com/jonwraymond/checkops/schema"
)

// ID is the strategy id.
const ID = "s3"

// DefaultRegion is used when the config has none, which also skips the
// bucket location lookup.
const DefaultRegion = "us-east-1"

// Config is the decoded strategy config.
type Config struct {
	Endpoint  string `json:"endpoint"`
	AccessKey string `json:"accessKey,omitempty"`
	SecretKey string `json:"secretKey,omitempty"`
	Region    string `json:"region,omitempty"`
	UseSSL    bool   `json:"useSSL,omitempty"`
	Bucket    string `json:"bucket"`
	Timeout   int    `json:"timeout,omitempty"`
}

// Strategy probes object storage buckets.
type Strategy struct{}

// New creates the strategy.
func New() *Strategy { return &Strategy{} }

func (s *Strategy) Meta() probe.Meta {
	return probe.Meta{ID: ID, DisplayName: "S3 bucket", Description: "Checks that an object storage bucket exists"}
}

func (s *Strategy) ConfigSchema() *schema.Versioned { return configSchema }
func (s *Strategy) ResultSchema() *schema.Versioned { return resultSchema }

func (s *Strategy) CreateClient(_ context.Context, config map[string]any) (probe.Client, error) {
	cfg, err := schema.DecodeMap[Config](config)
	if err != nil {
		return nil, err
	}
	region := cfg.Region
	if region == "" {
		region = DefaultRegion
	}
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("s3 client: %w", err)
	}
	return &client{mc: mc, bucket: cfg.Bucket, now: time.Now}, nil
}

func (s *Strategy) Probe(ctx context.Context, _ map[string]any, c probe.Client) (probe.Values, error) {
	values, err := c.Exec(ctx, probe.Request{})
	if err != nil {
		return nil, err
	}
	if !values.Bool("bucketExists") {
		return values, errors.New("bucket does not exist")
	}
	return values, nil
}

func (s *Strategy) MergeResult(agg aggregate.Set, result probe.Values) aggregate.Set {
	ms, ok := result.Float("latencyMs")
	return agg.Average("latencyMs", ms, ok).Rate("bucketExists", result.Bool("bucketExists"))
}

type client struct {
	mc     *minio.Client
	bucket string
	now    func() time.Time
}

// Exec checks the bucket, or stats req["key"] when set.
func (c *client) Exec(ctx context.Context, req probe.Request) (probe.Values, error) {
	if key, _ := req["key"].(string); key != "" {
		return c.stat(ctx, key)
	}
	start := time.Now()
	exists, err := c.mc.BucketExists(ctx, c.bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", c.bucket, err)
	}
	return probe.Values{
		"bucketExists": exists,
		"latencyMs":    float64(time.Since(start).Microseconds()) / 1000,
	}, nil
}

func (c *client) stat(ctx context.Context, key string) (probe.Values, error) {
	info, err := c.mc.StatObject(ctx, c.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return probe.Values{"exists": false}, fmt.Errorf("object %s not found", key)
		}
		return nil, fmt.Errorf("stat %s/%s: %w", c.bucket, key, err)
	}
	return probe.Values{
		"exists":     true,
		"size":       info.Size,
		"ageSeconds": c.now().Sub(info.LastModified).Seconds(),
		"etag":       info.ETag,
	}, nil
}

func (c *client) Close() error { return nil }

// Object is the "s3.object" collector.
type Object struct{}

func (Object) Meta() probe.CollectorMeta {
	return probe.CollectorMeta{
		PluginID:      ID,
		ID:            "object",
		DisplayName:   "S3 object",
		Description:   "Stats an object and reports its size and age",
		AllowMultiple: true,
	}
}

func (Object) ConfigSchema() *schema.Versioned { return objectConfigSchema }
func (Object) ResultSchema() *schema.Versioned { return objectResultSchema }

func (Object) Execute(ctx context.Context, config map[string]any, c probe.Client) (probe.Values, error) {
	return c.Exec(ctx, probe.Request{"key": config["key"]})
}

func (Object) MergeResult(agg aggregate.Set, result probe.Values) aggregate.Set {
	age, ok := result.Float("ageSeconds")
	return agg.Average("ageSeconds", age, ok).Rate("exists", result.Bool("exists"))
}

var (
	_ probe.Strategy  = (*Strategy)(nil)
	_ probe.Prober    = (*Strategy)(nil)
	_ probe.Collector = Object{}
)

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jonwraymond/checkops/auth"
	"github.com/jonwraymond/checkops/cache"
	"github.com/jonwraymond/checkops/observe"
	"github.com/jonwraymond/checkops/retention"
	"github.com/jonwraymond/checkops/secret"
)

// Default values applied when fields are absent from the config file.
const (
	DefaultListen          = ":8080"
	DefaultMaxConcurrent   = 16
	DefaultMaxWait         = 30 * time.Second
	DefaultCompactEvery    = time.Hour
	DefaultShutdownTimeout = 15 * time.Second
	DefaultTriggerTimeout  = 2 * time.Minute
	DefaultServiceName     = "checkd"
	StoreMemory            = "memory"
	StorePostgres          = "postgres"
)

// Config is the daemon configuration.
type Config struct {
	// Listen is the HTTP listen address.
	Listen string `yaml:"listen"`

	// ShutdownTimeout bounds graceful HTTP shutdown.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// Catalog is the path of the catalog file.
	Catalog string `yaml:"catalog"`

	// WatchCatalog reloads the catalog file when it changes.
	WatchCatalog bool `yaml:"watch_catalog"`

	Store     StoreConfig     `yaml:"store"`
	Engine    EngineConfig    `yaml:"engine"`
	Retention RetentionConfig `yaml:"retention"`
	Cache     cache.Policy    `yaml:"cache"`
	NATS      NATSConfig      `yaml:"nats"`
	Secrets   SecretsConfig   `yaml:"secrets"`
	CORS      CORSConfig      `yaml:"cors"`
	Auth      auth.Config     `yaml:"auth"`
	Observe   observe.Config  `yaml:"observe"`
}

// StoreConfig selects the run and bucket store.
type StoreConfig struct {
	// Driver is memory or postgres.
	Driver string `yaml:"driver"`

	// URL is the postgres connection string.
	URL string `yaml:"url"`

	// Migrate creates missing tables on start.
	Migrate bool `yaml:"migrate"`
}

// EngineConfig bounds check execution.
type EngineConfig struct {
	MaxConcurrent int           `yaml:"max_concurrent"`
	MaxWait       time.Duration `yaml:"max_wait"`
}

// RetentionConfig holds the default retention and the compaction cadence.
type RetentionConfig struct {
	retention.Config `yaml:",inline"`

	// Every is the compaction interval. Zero disables compaction.
	Every time.Duration `yaml:"every"`

	// SafetyMargin keeps compaction away from live buckets.
	SafetyMargin time.Duration `yaml:"safety_margin"`
}

// NATSConfig enables the trigger and event bus when URL is set.
type NATSConfig struct {
	URL            string        `yaml:"url"`
	Queue          string        `yaml:"queue"`
	TriggerTimeout time.Duration `yaml:"trigger_timeout"`
}

// SecretsConfig configures secretref resolution in probe configs.
type SecretsConfig struct {
	// Providers lists the providers explicitly. When empty, env is used
	// plus file when FileDir is set.
	Providers []secret.ProviderConfig `yaml:"providers"`

	// FileDir enables the file provider rooted at this directory.
	FileDir string `yaml:"file_dir"`

	// Strict fails resolution of unknown providers.
	Strict bool `yaml:"strict"`
}

// ProviderConfigs returns the providers to build, applying the shorthand.
func (s SecretsConfig) ProviderConfigs() []secret.ProviderConfig {
	if len(s.Providers) > 0 {
		return s.Providers
	}
	providers := []secret.ProviderConfig{{Name: "env"}}
	if s.FileDir != "" {
		providers = append(providers, secret.ProviderConfig{Name: "file", Options: map[string]any{"dir": s.FileDir}})
	}
	return providers
}

// CORSConfig configures cross-origin access to the API.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// Load reads and parses the YAML config file at path. ${VAR} references
// are expanded first; missing fields take defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file: %w", err)
	}
	expanded, err := secret.ExpandEnvStrict(string(data))
	if err != nil {
		return nil, fmt.Errorf("config: expand env: %w", err)
	}

	cfg := defaults()
	if err := decodeStrict([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decodeStrict(data []byte, out any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Listen:          DefaultListen,
		ShutdownTimeout: DefaultShutdownTimeout,
		WatchCatalog:    true,
		Store:           StoreConfig{Driver: StoreMemory, Migrate: true},
		Engine:          EngineConfig{MaxConcurrent: DefaultMaxConcurrent, MaxWait: DefaultMaxWait},
		Retention: RetentionConfig{
			Config:       retention.Default(),
			Every:        DefaultCompactEvery,
			SafetyMargin: retention.DefaultSafetyMargin,
		},
		Cache: cache.DefaultPolicy(),
		NATS:  NATSConfig{TriggerTimeout: DefaultTriggerTimeout},
		Observe: observe.Config{
			ServiceName: DefaultServiceName,
			Metrics:     observe.MetricsConfig{Enabled: true, Exporter: "prometheus"},
			Logging:     observe.LoggingConfig{Enabled: true, Level: "info"},
		},
	}
}

// validate checks required fields and structural constraints.
func validate(cfg *Config) error {
	var errs []error
	if cfg.Listen == "" {
		errs = append(errs, errors.New("listen is required"))
	}
	if cfg.Catalog == "" {
		errs = append(errs, errors.New("catalog is required"))
	}
	switch cfg.Store.Driver {
	case StoreMemory:
	case StorePostgres:
		if cfg.Store.URL == "" {
			errs = append(errs, errors.New("store.url is required for postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("store.driver: unknown driver %q", cfg.Store.Driver))
	}
	if cfg.Engine.MaxConcurrent <= 0 {
		errs = append(errs, errors.New("engine.max_concurrent must be positive"))
	}
	if cfg.Engine.MaxWait <= 0 {
		errs = append(errs, errors.New("engine.max_wait must be positive"))
	}
	if err := cfg.Retention.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("retention: %w", err))
	}
	if cfg.Retention.Every < 0 || cfg.Retention.SafetyMargin < 0 {
		errs = append(errs, errors.New("retention.every and retention.safety_margin must not be negative"))
	}
	if cfg.Cache.DefaultTTL < 0 || cfg.Cache.MaxTTL < 0 {
		errs = append(errs, errors.New("cache ttls must not be negative"))
	}
	if err := cfg.Observe.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("observe: %w", err))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Command checkd runs health checks against systems, aggregates their
// results over time and serves status and history over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jonwraymond/checkops/api"
	"github.com/jonwraymond/checkops/auth"
	"github.com/jonwraymond/checkops/bus"
	"github.com/jonwraymond/checkops/cache"
	"github.com/jonwraymond/checkops/catalog"
	"github.com/jonwraymond/checkops/config"
	"github.com/jonwraymond/checkops/engine"
	"github.com/jonwraymond/checkops/health"
	"github.com/jonwraymond/checkops/observe"
	"github.com/jonwraymond/checkops/plugins"
	"github.com/jonwraymond/checkops/probe"
	"github.com/jonwraymond/checkops/retention"
	"github.com/jonwraymond/checkops/secret"
	"github.com/jonwraymond/checkops/status"
	"github.com/jonwraymond/checkops/store"
	"github.com/jonwraymond/checkops/store/memstore"
	"github.com/jonwraymond/checkops/store/pgstore"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "checkd.yaml", "path to config file")
	flag.Parse()

	level := new(slog.LevelVar)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if err := run(*configPath, logger, level); err != nil {
		slog.Error("checkd stopped", "err", err)
		os.Exit(1)
	}
}

func run(configPath string, slogger *slog.Logger, level *slog.LevelVar) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if lvl := cfg.Observe.Logging.Level; lvl != "" {
		if err := level.UnmarshalText([]byte(lvl)); err != nil {
			return fmt.Errorf("log level: %w", err)
		}
	}
	if cfg.Observe.Version == "" {
		cfg.Observe.Version = version
	}
	logger := observe.FromSlog(slogger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	cfg.Observe.Metrics.Registerer = promRegistry
	obs, err := observe.NewObserver(ctx, cfg.Observe)
	if err != nil {
		return fmt.Errorf("observer: %w", err)
	}
	defer func() {
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		_ = obs.Shutdown(shutdownCtx)
	}()
	mw, err := observe.MiddlewareFromObserver(obs)
	if err != nil {
		return fmt.Errorf("telemetry middleware: %w", err)
	}

	st, closeStore, err := openStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer closeStore()

	registry := probe.NewRegistry()
	if err := plugins.RegisterAll(registry, plugins.Options{}); err != nil {
		return fmt.Errorf("register plugins: %w", err)
	}

	providers, err := secret.NewRegistry().Build(cfg.Secrets.ProviderConfigs())
	if err != nil {
		return fmt.Errorf("secrets: %w", err)
	}
	runner := probe.NewRunner(registry, probe.RunnerConfig{
		Secrets: secret.NewResolver(cfg.Secrets.Strict, providers...),
		Logger:  logger,
	})

	cat := catalog.NewMemory(registry)
	snap, err := config.LoadCatalog(cfg.Catalog)
	if err != nil {
		return err
	}
	if err := cat.Replace(snap); err != nil {
		return err
	}
	slog.Info("catalog loaded",
		"path", cfg.Catalog,
		"configurations", len(snap.Configurations),
		"associations", len(snap.Associations))
	if cfg.WatchCatalog {
		go func() {
			if err := config.WatchCatalog(ctx, cfg.Catalog, logger, cat.Replace); err != nil {
				slog.Error("catalog watcher stopped", "err", err)
			}
		}()
	}

	eng := engine.New(cat, runner, st, engine.Config{
		MaxConcurrent: cfg.Engine.MaxConcurrent,
		MaxWait:       cfg.Engine.MaxWait,
		Middleware:    mw,
		Logger:        logger,
	})

	historyCache := cache.NewMemoryCache(cfg.Cache)
	historyCache.StartSweeper(ctx, time.Minute)
	svc := status.New(cat, st, registry, status.Config{
		Cache:       historyCache,
		CachePolicy: &cfg.Cache,
		Logger:      logger,
	})

	if cfg.Retention.Every > 0 {
		compactor := retention.NewCompactor(st, registry, retention.CompactorConfig{
			Default:      cfg.Retention.Config,
			Policies:     cat,
			SafetyMargin: cfg.Retention.SafetyMargin,
			Logger:       logger,
		})
		go compactor.Loop(ctx, cfg.Retention.Every)
	}

	readiness := health.NewAggregator(5 * time.Second)
	readiness.Register(health.Ping("store", st.Ping))
	readiness.Register(health.CheckFunc("engine", func(context.Context) health.Result {
		stats := eng.Bulkhead().Stats()
		details := map[string]any{"active": stats.Active, "waiting": stats.Waiting, "rejected": stats.Rejected}
		if stats.Saturated() {
			return health.Degraded("all execution slots busy").WithDetails(details)
		}
		return health.Healthy("accepting runs").WithDetails(details)
	}))

	if cfg.NATS.URL != "" {
		conn, err := bus.Connect(cfg.NATS.URL)
		if err != nil {
			return err
		}
		defer func() {
			_ = conn.Drain()
		}()
		eng.AddListener(bus.NewPublisher(conn, logger))
		sub := bus.NewSubscriber(conn, eng, bus.SubscriberConfig{
			Queue:   cfg.NATS.Queue,
			Timeout: cfg.NATS.TriggerTimeout,
			Logger:  logger,
		})
		if err := sub.Start(ctx); err != nil {
			return err
		}
		defer func() { _ = sub.Stop() }()
		readiness.Register(health.CheckFunc("nats", func(context.Context) health.Result {
			if conn.Status() != nats.CONNECTED {
				return health.Unhealthy("nats "+conn.Status().String(), nil)
			}
			return health.Healthy("nats connected")
		}))
		slog.Info("nats bus enabled", "url", conn.ConnectedUrlRedacted())
	}

	authn, err := auth.New(cfg.Auth)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr: cfg.Listen,
		Handler: api.NewRouter(api.Options{
			Checks:         eng,
			Status:         svc,
			Systems:        cat,
			Health:         readiness,
			Metrics:        promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{}),
			Auth:           authn,
			RunRole:        cfg.Auth.RunRole,
			AllowedOrigins: cfg.CORS.AllowedOrigins,
			Logger:         logger,
		}),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "addr", cfg.Listen)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	slog.Info("checkd shutting down")
	shutdownCtx, done := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer done()
	return srv.Shutdown(shutdownCtx)
}

func openStore(ctx context.Context, cfg config.StoreConfig) (store.Store, func(), error) {
	if cfg.Driver != config.StorePostgres {
		return memstore.New(), func() {}, nil
	}
	pg, err := pgstore.Connect(ctx, cfg.URL)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Migrate {
		if err := pg.Migrate(ctx); err != nil {
			pg.Close()
			return nil, nil, err
		}
	}
	return pg, pg.Close, nil
}

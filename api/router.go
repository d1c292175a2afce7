package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/jonwraymond/checkops/aggregate"
	"github.com/jonwraymond/checkops/auth"
	"github.com/jonwraymond/checkops/health"
	"github.com/jonwraymond/checkops/observe"
	"github.com/jonwraymond/checkops/probe"
	"github.com/jonwraymond/checkops/status"
)

// Checks runs checks on demand. *engine.Engine implements it.
type Checks interface {
	RunCheck(ctx context.Context, configurationID, systemID string) (probe.Run, error)
	RunAll(ctx context.Context, systemID string) ([]probe.Run, error)
}

// Status answers read queries. *status.Service implements it.
type Status interface {
	EvaluateSystemStatus(ctx context.Context, systemID string) (status.SystemStatus, error)
	GetAggregatedHistory(ctx context.Context, systemID, configurationID string, from, to time.Time, g status.Granularity) ([]aggregate.Bucket, error)
	RecentRuns(ctx context.Context, systemID, configurationID string, limit int) ([]probe.Run, error)
	Schemas() []status.StrategySchemas
}

// Systems lists known system ids. catalog.Catalog implements it.
type Systems interface {
	Systems() []string
}

// Options configures the router.
type Options struct {
	Checks  Checks
	Status  Status
	Systems Systems

	// Health backs /readyz. Nil serves an always-ready aggregator.
	Health *health.Aggregator

	// Metrics is mounted at /metrics when set.
	Metrics http.Handler

	// Auth guards /api/v1. Nil disables authentication.
	Auth auth.Authenticator

	// RunRole, when set, is required to trigger runs.
	RunRole string

	// AllowedOrigins enables CORS for these origins.
	AllowedOrigins []string

	// RequestTimeout bounds each API request. Default: 60 seconds.
	RequestTimeout time.Duration

	// DefaultRunLimit applies when /runs has no limit. Default: 20.
	DefaultRunLimit int

	Logger observe.Logger
}

// NewRouter builds the HTTP handler.
func NewRouter(opts Options) http.Handler {
	if opts.Health == nil {
		opts.Health = health.NewAggregator(0)
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 60 * time.Second
	}
	if opts.DefaultRunLimit <= 0 {
		opts.DefaultRunLimit = 20
	}
	if opts.Logger == nil {
		opts.Logger = observe.NopLogger()
	}
	h := &handler{opts: opts, now: time.Now}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if len(opts.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   opts.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Content-Type", "Authorization", "X-API-Key"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	health.RegisterHandlers(r, opts.Health)
	if opts.Metrics != nil {
		r.Handle("/metrics", opts.Metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Timeout(opts.RequestTimeout))
		if opts.Auth != nil {
			r.Use(auth.Middleware(opts.Auth))
		}

		r.Get("/schemas", h.schemas)
		r.Get("/systems", h.systems)
		r.Route("/systems/{systemID}", func(r chi.Router) {
			r.Get("/status", h.systemStatus)
			r.With(h.runGuard()).Post("/run", h.runSystem)
			r.Route("/checks/{configurationID}", func(r chi.Router) {
				r.Get("/history", h.history)
				r.Get("/runs", h.runs)
				r.With(h.runGuard()).Post("/run", h.runCheck)
			})
		})
	})
	return r
}

func (h *handler) runGuard() func(http.Handler) http.Handler {
	if h.opts.RunRole == "" {
		return func(next http.Handler) http.Handler { return next }
	}
	return auth.RequireRole(h.opts.RunRole)
}

package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/noah-isme/toko-volume-discount/internal/auth"
	"github.com/noah-isme/toko-volume-discount/internal/config"
	"github.com/noah-isme/toko-volume-discount/internal/discount"
	"github.com/noah-isme/toko-volume-discount/internal/health"
	"github.com/noah-isme/toko-volume-discount/internal/obs"
	"github.com/noah-isme/toko-volume-discount/internal/ratelimit"
	"github.com/noah-isme/toko-volume-discount/internal/security"
)

// rateLimitPrefix namespaces limiter keys, e.g. rl:discount:shop:<domain>.
const rateLimitPrefix = "rl:discount:"

type routerDeps struct {
	Config         *config.Config
	Logger         zerolog.Logger
	Evaluator      discount.Evaluator
	Verifier       *auth.Verifier
	Limiter        ratelimit.Limiter
	Readiness      health.Checker
	HTTPMetrics    *obs.HTTPMetrics
	MetricsEnabled bool
	TracingEnabled bool
}

func newRouter(deps routerDeps) *chi.Mux {
	cfg := deps.Config

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if deps.TracingEnabled {
		r.Use(obs.TracingMiddleware)
	}
	if deps.MetricsEnabled && deps.HTTPMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: deps.HTTPMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: deps.Logger}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins(cfg),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(security.Headers{Enable: cfg.SecurityHeadersEnabled, EnableHSTS: cfg.IsProduction()}.Middleware)

	if deps.MetricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	healthHandler := health.Handler{
		Checker:      deps.Readiness,
		RedisTimeout: envDurationMillis("HEALTH_READY_REDIS_TIMEOUT_MS", 300),
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	discountHandler := discount.NewHandler(deps.Evaluator)
	callers := auth.Middleware{Verifier: deps.Verifier, Logger: deps.Logger}

	r.Group(func(g chi.Router) {
		g.Use(obs.RoutePatternMiddleware)
		g.Use(callers.RequireCaller)
		if deps.Limiter.Client != nil {
			limiter := ratelimit.Handler{
				Limiter: deps.Limiter,
				Config:  ratelimit.Config{Window: cfg.RateLimitWindow, Max: cfg.RateLimitMax},
				OnError: func(err error) {
					deps.Logger.Warn().Err(err).Msg("rate limiter unavailable")
				},
			}
			g.Use(limiter.Middleware)
		}
		g.Use(security.BodyLimit{Max: cfg.RequestBodyLimitBytes}.Middleware)

		g.Post("/functions/product-discount/run", discountHandler.Run)
		g.Post("/api/v1/discounts/preview", discountHandler.Preview)
	})

	return r
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"equitylens/internal/config"
	"equitylens/internal/middleware"
	"equitylens/internal/pipeline"
)

// NewRouter assembles the full HTTP surface.
func NewRouter(runner *pipeline.Runner, cfg config.ServerConfig, logger *slog.Logger) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.StructuredLogger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, logger).Handler)

	analyze := NewAnalyzeHandler(runner, logger)
	health := NewHealthHandler(logger)

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Post("/analyze", analyze.Analyze)
		r.Get("/health", health.HealthCheck)
		r.Get("/version", health.Version)
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}

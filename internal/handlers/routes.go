package handlers

import (
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/gdg-garage/badge-api/internal/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func RegisterRoutes(r *chi.Mux, cfg *config.Config, logger *zap.Logger, badgeHandler *BadgeHandler, healthHandler *HealthHandler) {
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(MarkRawPath)
	r.Use(RequestLogger(logger))
	r.Use(middleware.Recoverer)
	if cfg.EnableCORS {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{http.MethodGet, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
	}

	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		if cfg.RateLimitPerMinute > 0 {
			r.Use(httprate.LimitByIP(cfg.RateLimitPerMinute, time.Minute))
		}

		// Initialize Huma API
		config := huma.DefaultConfig("Badge Lookup API", "1.0.0")
		// Keep bodies free of the $schema link field.
		config.CreateHooks = nil
		api := humachi.New(r, config)

		huma.Get(api, "/api/health", healthHandler.HandleHealth, func(o *huma.Operation) {
			o.Summary = "Liveness and configuration probe"
		})
		huma.Get(api, "/api/badges/{userId}", badgeHandler.HandleGetBadges, func(o *huma.Operation) {
			o.Summary = "List the resolved badge assignments of a user"
		})

		r.Get("/api/badges", badgeHandler.HandleMissingUser)
		r.Get("/api/badges/", badgeHandler.HandleMissingUser)
	})
}

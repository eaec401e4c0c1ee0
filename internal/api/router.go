// Package api assembles the chi router: middleware stack, HTTP accessors,
// the websocket endpoint and the metrics endpoint.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/haven-chat/haven/internal/api/middleware"
	"github.com/haven-chat/haven/internal/config"
	"github.com/haven-chat/haven/internal/handlers"
	"github.com/haven-chat/haven/internal/store"
)

// NewRouter creates and configures the HTTP router. wsHandler serves the
// websocket endpoint; redisStore may be nil, in which case rate limiting is
// disabled.
func NewRouter(logger zerolog.Logger, h *handlers.Handler, wsHandler http.Handler, redisStore *store.RedisStore, cfg *config.Config) *chi.Mux {
	r := chi.NewRouter()

	// Metrics middleware (first to capture all requests)
	r.Use(middleware.Metrics)

	// Security middleware (order matters!)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.MaxBodySize(cfg.MaxUploadBytes))
	r.Use(middleware.ValidateRequest)

	// Standard middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(chimw.Recoverer)

	// Rate limiting (only when Redis is configured)
	if redisStore != nil {
		limiter := middleware.NewRateLimiter(redisStore.Client(), logger, middleware.RateLimiterConfig{
			Whitelist:        cfg.RateLimitWhitelist,
			AutoBlockEnabled: cfg.AutoBlockEnabled,
		})
		r.Use(limiter.Middleware)
	}

	// CORS - the browser client may be served from anywhere
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Metrics endpoint (for Prometheus scraping)
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/", h.Root)
	r.Get("/api/health", h.Health)

	// Channel history: GET mirrors Store.Load, POST mirrors the websocket
	// send_message path.
	r.Get("/api/channels/{id}/messages", h.GetChannelMessages)
	r.Post("/api/channels/{id}/messages", h.PostChannelMessage)

	// Uploads
	r.Post("/api/upload", h.Upload)
	r.Get("/api/files/{name}", h.ServeFile)

	// Realtime
	r.Handle("/ws", wsHandler)

	return r
}

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/haven-chat/haven/internal/api"
	"github.com/haven-chat/haven/internal/config"
	"github.com/haven-chat/haven/internal/handlers"
	"github.com/haven-chat/haven/internal/relay"
	"github.com/haven-chat/haven/internal/store"
	"github.com/haven-chat/haven/internal/ws"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	var logger zerolog.Logger
	if cfg.IsDevelopment() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
			With().
			Timestamp().
			Logger()
	} else {
		logger = zerolog.New(os.Stdout).
			With().
			Timestamp().
			Logger()
	}

	ctx := context.Background()

	// Initialize message store
	var (
		messageStore store.MessageStore
		err          error
	)
	switch cfg.StoreBackend {
	case "file", "":
		messageStore, err = store.NewFileStore(cfg.DataDir)
	case "sqlite":
		messageStore, err = store.NewSQLiteStore(ctx, cfg.SQLitePath)
	case "postgres":
		messageStore, err = store.NewPostgresStore(ctx, cfg.DatabaseURL)
	default:
		logger.Fatal().Str("backend", cfg.StoreBackend).Msg("unknown store backend")
	}
	if err != nil {
		logger.Fatal().Err(err).Str("backend", cfg.StoreBackend).Msg("message store init failed")
	}
	defer messageStore.Close()
	logger.Info().Str("backend", cfg.StoreBackend).Msg("message store ready")

	// Ensure upload directory exists
	if err := os.MkdirAll(cfg.UploadDir, 0755); err != nil {
		logger.Fatal().Err(err).Str("dir", cfg.UploadDir).Msg("create upload dir failed")
	}

	// Initialize Redis (optional, enables rate limiting)
	var redisStore *store.RedisStore
	if cfg.RedisURL != "" {
		redisStore, err = store.NewRedisStore(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis connection failed")
		}
		defer redisStore.Close()
		logger.Info().Msg("connected to Redis")
	}

	// Relay core and websocket transport
	router := relay.NewRouter(messageStore, logger)
	wsHandler := ws.NewHandler(router, logger, cfg.AllowedOrigins)

	// HTTP accessors
	h := handlers.NewHandler(messageStore, router, redisStore, handlers.UploadConfig{
		Dir:      cfg.UploadDir,
		MaxBytes: cfg.MaxUploadBytes,
	}, logger)

	mux := api.NewRouter(logger, h, wsHandler, redisStore, cfg)

	// Create server
	srv := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     mux,
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: it would cut long-lived websocket connections.
		IdleTimeout: 60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("env", cfg.Env).
			Msg("starting Haven server")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server...")

	// Graceful shutdown with 30 second timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown incomplete")
	}

	// Drain live websocket clients after the listener stops.
	wsHandler.Close()

	logger.Info().Msg("server stopped")
}

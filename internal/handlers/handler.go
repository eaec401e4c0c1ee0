// Package handlers holds the HTTP accessors: channel history, uploads,
// stored file serving and health. The history POST is a synchronous mirror
// of the websocket send_message path and routes through the same relay.
package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"unicode"

	"github.com/rs/zerolog"

	"github.com/haven-chat/haven/internal/relay"
	"github.com/haven-chat/haven/internal/store"
)

// UploadConfig describes where uploads land and how large they may be.
type UploadConfig struct {
	Dir      string
	MaxBytes int64
}

// Handler contains shared dependencies for all HTTP handlers.
type Handler struct {
	store   store.MessageStore
	relay   *relay.Router
	redis   *store.RedisStore
	uploads UploadConfig
	logger  zerolog.Logger
}

// NewHandler creates a new Handler with the given dependencies. redis may
// be nil when the server runs without rate limiting.
func NewHandler(st store.MessageStore, router *relay.Router, redis *store.RedisStore, uploads UploadConfig, logger zerolog.Logger) *Handler {
	return &Handler{
		store:   st,
		relay:   router,
		redis:   redis,
		uploads: uploads,
		logger:  logger.With().Str("component", "http").Logger(),
	}
}

// JSON sends a JSON response with the given status code.
func (h *Handler) JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Error sends a JSON error response with the given status code.
func (h *Handler) Error(w http.ResponseWriter, status int, message string) {
	h.JSON(w, status, map[string]string{"error": message})
}

// sanitizeFilename strips path components and control characters from a
// client-supplied filename and limits it to 100 characters.
func sanitizeFilename(name string) string {
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	name = strings.TrimSpace(name)
	name = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, name)
	name = strings.TrimLeft(name, ".")
	if len(name) > 100 {
		name = name[:100]
	}
	return name
}

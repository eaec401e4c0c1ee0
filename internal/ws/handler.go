// Package ws is the websocket transport: it upgrades HTTP requests, runs
// one read and one write pump per connection, and hands decoded frames to
// the relay router.
package ws

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/haven-chat/haven/internal/metrics"
	"github.com/haven-chat/haven/internal/relay"
)

// Handler upgrades requests on the websocket endpoint and tracks live
// clients for graceful shutdown.
type Handler struct {
	router   *relay.Router
	logger   zerolog.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*Client]struct{}
}

// NewHandler creates the websocket endpoint handler. An empty
// allowedOrigins list accepts any origin; the browser client may be served
// from anywhere.
func NewHandler(router *relay.Router, logger zerolog.Logger, allowedOrigins []string) *Handler {
	h := &Handler{
		router:  router,
		logger:  logger.With().Str("component", "ws").Logger(),
		clients: make(map[*Client]struct{}),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return h
}

func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true // non-browser clients
		}
		_, ok := set[origin]
		return ok
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("websocket upgrade failed")
		return
	}

	client := newClient(ulid.Make().String(), conn, h.router, h.logger, h.untrack)

	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()
	metrics.WSConnectionsActive.Inc()

	h.router.Connect(client)

	go client.writePump()
	go client.readPump()
}

func (h *Handler) untrack(c *Client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	metrics.WSConnectionsActive.Dec()
}

// Close tears down every live client. Used during graceful shutdown after
// the HTTP listener stops accepting new connections.
func (h *Handler) Close() {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		c.teardown()
	}
	h.logger.Info().Int("clients", len(clients)).Msg("websocket clients closed")
}

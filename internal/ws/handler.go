package ws

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins
	},
}

// Handler handles WebSocket connections
type Handler struct {
	sources map[string]Source
	logger  zerolog.Logger

	clients map[*Client]struct{}
	mu      sync.Mutex
}

// NewHandler creates a new WebSocket handler serving watches over sources, keyed by feature name
func NewHandler(sources map[string]Source, logger zerolog.Logger) *Handler {
	return &Handler{
		sources: sources,
		logger:  logger.With().Str("component", "ws").Logger(),
		clients: make(map[*Client]struct{}),
	}
}

// ServeHTTP handles WebSocket upgrade requests
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to upgrade connection")
		return
	}

	h.logger.Info().
		Str("remoteAddr", r.RemoteAddr).
		Msg("new WebSocket connection")

	client := NewClient(conn, h.sources, h.logger.With().Str("remoteAddr", r.RemoteAddr).Logger())

	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()

	client.Run(r.Context())

	h.mu.Lock()
	delete(h.clients, client)
	h.mu.Unlock()
}

// CloseAll disconnects every client
func (h *Handler) CloseAll() {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		c.Close()
	}
}

// ClientCount returns the number of connected clients
func (h *Handler) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

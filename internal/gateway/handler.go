package gateway

import (
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/streamstack/giftauction/internal/access"
	"github.com/streamstack/giftauction/internal/auction"
	"github.com/streamstack/giftauction/internal/events"
)

// WebSocketHandler handles upgrade requests from control panels and overlay
// widgets. A join authorizes the channel, attaches the connection to the
// channel's pool and replies with the current room snapshot.
type WebSocketHandler struct {
	connectionManager *ConnectionManager
	gate              *access.Gate
	registry          *auction.Registry
	router            *Router
}

// NewWebSocketHandler creates a new WebSocket handler.
func NewWebSocketHandler(cm *ConnectionManager, gate *access.Gate, registry *auction.Registry, router *Router) *WebSocketHandler {
	h := &WebSocketHandler{
		connectionManager: cm,
		gate:              gate,
		registry:          registry,
		router:            router,
	}
	cm.onClientMessage = h.handleClientMessage
	return h
}

// HandleChannelConnection handles WebSocket connections for a channel.
func (h *WebSocketHandler) HandleChannelConnection(w http.ResponseWriter, r *http.Request) {
	channelID := r.URL.Query().Get("channel")
	if channelID == "" {
		http.Error(w, "channel is required", http.StatusBadRequest)
		return
	}

	if !h.gate.Authorize(channelID) {
		// Requester-only rejection; no room is created, nothing is broadcast.
		h.connectionManager.Reject(w, r, channelID, "channel not in allow-list")
		return
	}

	conn, err := h.connectionManager.UpgradeConnection(w, r, channelID)
	if err != nil {
		http.Error(w, "failed to upgrade connection", http.StatusInternalServerError)
		return
	}

	// Late joiners synchronize from the room snapshot.
	room := h.registry.GetOrCreate(channelID)
	env, err := events.NewEnvelope(channelID, events.TypeStateUpdate, room.Snapshot())
	if err != nil {
		log.Error().Err(err).Str("channel_id", channelID).Msg("failed to build snapshot event")
		return
	}
	h.connectionManager.SendToConnection(conn, env)
}

// handleClientMessage routes inbound command frames to the connection's
// bound channel. A connection can never address another channel's room.
func (h *WebSocketHandler) handleClientMessage(c *Connection, message []byte) {
	h.router.Dispatch(c.ChannelID, message)
}

// HandleConnectionStats returns statistics about active connections.
func (h *WebSocketHandler) HandleConnectionStats(w http.ResponseWriter, r *http.Request) {
	total, channels := h.connectionManager.GetConnectionStats()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"total_connections":%d,"active_channels":%d,"active_rooms":%d}`,
		total, channels, h.registry.Len())
}

// RegisterRoutes registers WebSocket routes with an HTTP mux.
func (h *WebSocketHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws", h.HandleChannelConnection)
	mux.HandleFunc("/ws/stats", h.HandleConnectionStats)
}

package gateway

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/streamstack/giftauction/internal/access"
	"github.com/streamstack/giftauction/internal/auction"
	"github.com/streamstack/giftauction/internal/events"
)

// StateHandler serves room snapshots over plain HTTP, for overlays that poll
// instead of holding a WebSocket open. The allow-list applies here too.
type StateHandler struct {
	gate     *access.Gate
	registry *auction.Registry
}

// ChannelStateResponse is the REST shape of a room snapshot.
type ChannelStateResponse struct {
	ChannelID    string                   `json:"channel_id"`
	State        string                   `json:"state"`
	CurrentTime  int                      `json:"current_time"`
	Participants []events.ParticipantView `json:"participants"`
	Winner       *events.WinnerView       `json:"winner,omitempty"`
}

// NewStateHandler creates a new state handler.
func NewStateHandler(gate *access.Gate, registry *auction.Registry) *StateHandler {
	return &StateHandler{gate: gate, registry: registry}
}

// HandleGetChannelState handles GET /api/channels/{id}/state.
func (h *StateHandler) HandleGetChannelState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/channels/")
	channelID := strings.TrimSuffix(path, "/state")
	if channelID == "" || channelID == path {
		http.Error(w, "invalid path", http.StatusBadRequest)
		return
	}

	if !h.gate.Authorize(channelID) {
		http.Error(w, "channel not authorized", http.StatusForbidden)
		return
	}

	// Reading state must not create a room; polling an idle channel is not a
	// first reference.
	room, ok := h.registry.Get(channelID)
	if !ok {
		http.Error(w, "no auction room for channel", http.StatusNotFound)
		return
	}

	snapshot := room.Snapshot()
	resp := ChannelStateResponse{
		ChannelID:    channelID,
		State:        snapshot.State,
		CurrentTime:  snapshot.CurrentTime,
		Participants: snapshot.Participants,
	}
	if w2, ok := room.Winner(); ok && snapshot.State == string(auction.StateEnded) {
		resp.Winner = &events.WinnerView{
			DonorID:     w2.DonorID,
			DisplayName: w2.DisplayName,
			TotalValue:  w2.TotalValue,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Error().Err(err).Str("channel_id", channelID).Msg("failed to encode channel state")
	}
}

// RegisterStateRoutes registers the REST state routes with an HTTP mux.
func (h *StateHandler) RegisterStateRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/channels/", h.HandleGetChannelState)
}

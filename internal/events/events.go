package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Type identifies an auction event on the wire.
type Type string

const (
	TypeStateUpdate      Type = "state_update"
	TypeSnipeAlert       Type = "snipe_alert"
	TypeTimeResetBySnipe Type = "time_reset_by_snipe"
	TypeAuctionEnded     Type = "auction_ended"
	TypeGiftReceived     Type = "gift_received"
	TypeNotAuthorized    Type = "not_authorized"
)

// Envelope is the wire format for auction events, both on the message bus and
// on WebSocket connections. Payload holds the event-specific body.
type Envelope struct {
	EventID   string          `json:"event_id"`
	ChannelID string          `json:"channel_id"`
	Type      Type            `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// NewEnvelope wraps a payload into an Envelope scoped to a channel.
func NewEnvelope(channelID string, typ Type, payload any) (*Envelope, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", typ, err)
	}
	return &Envelope{
		EventID:   uuid.New().String(),
		ChannelID: channelID,
		Type:      typ,
		Timestamp: time.Now().UTC(),
		Payload:   body,
	}, nil
}

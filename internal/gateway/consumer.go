package gateway

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/streamstack/giftauction/internal/broadcast"
	"github.com/streamstack/giftauction/internal/events"
)

// EventConsumer subscribes to the per-channel auction event subjects and fans
// messages out to the matching channel's WebSocket pool. Nothing here is
// durable: a subscriber that was away simply resynchronizes from the join
// snapshot.
type EventConsumer struct {
	connectionManager *ConnectionManager
	nc                *nats.Conn
	sub               *nats.Subscription
}

// NewEventConsumer creates a consumer over an established NATS connection.
func NewEventConsumer(cm *ConnectionManager, nc *nats.Conn) *EventConsumer {
	return &EventConsumer{
		connectionManager: cm,
		nc:                nc,
	}
}

// Start subscribes to all channel event subjects and blocks until the context
// is cancelled.
func (ec *EventConsumer) Start(ctx context.Context) error {
	sub, err := ec.nc.Subscribe(broadcast.SubjectWildcard, ec.processMessage)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", broadcast.SubjectWildcard, err)
	}
	ec.sub = sub

	log.Info().Str("subject", broadcast.SubjectWildcard).Msg("event consumer started")

	<-ctx.Done()
	log.Info().Msg("event consumer shutting down")
	return ec.sub.Unsubscribe()
}

func (ec *EventConsumer) processMessage(msg *nats.Msg) {
	var env events.Envelope
	if err := json.Unmarshal(msg.Data, &env); err != nil {
		log.Error().Err(err).Str("subject", msg.Subject).Msg("dropping malformed event envelope")
		return
	}

	channelID := env.ChannelID
	if channelID == "" {
		channelID = broadcast.ChannelFromSubject(msg.Subject)
	}

	// Fan out to the one channel's pool; cross-channel delivery is a bug.
	ec.connectionManager.BroadcastToChannel(channelID, msg.Data)

	log.Debug().
		Str("event_id", env.EventID).
		Str("channel_id", channelID).
		Str("event_type", string(env.Type)).
		Msg("event relayed to WebSocket clients")
}

package broadcast

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/streamstack/giftauction/internal/events"
)

const subjectPrefix = "auction.events"

// SubjectWildcard matches every channel's event subject.
const SubjectWildcard = subjectPrefix + ".>"

// Subject returns the event subject scoped to one channel. Only subscribers
// of this subject receive the channel's events; there is no global fan-out.
func Subject(channelID string) string {
	return subjectPrefix + "." + channelID
}

// ChannelFromSubject extracts the channel identifier from an event subject.
func ChannelFromSubject(subject string) string {
	return strings.TrimPrefix(subject, subjectPrefix+".")
}

// Connect dials NATS with infinite reconnects, so a broker outage degrades to
// dropped events rather than a dead process.
func Connect(url string) (*nats.Conn, error) {
	opts := []nats.Option{
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return nc, nil
}

// NATSBroadcaster publishes auction events to per-channel NATS subjects. It
// is fire-and-forget: publish failures are logged, never propagated, so a
// broker hiccup cannot stall a room's state machine.
type NATSBroadcaster struct {
	nc *nats.Conn
}

// NewNATSBroadcaster wraps an established NATS connection.
func NewNATSBroadcaster(nc *nats.Conn) *NATSBroadcaster {
	return &NATSBroadcaster{nc: nc}
}

// Publish wraps the payload in an envelope and publishes it to the channel's
// subject.
func (b *NATSBroadcaster) Publish(channelID string, typ events.Type, payload any) {
	env, err := events.NewEnvelope(channelID, typ, payload)
	if err != nil {
		log.Error().Err(err).Str("channel_id", channelID).Msg("failed to build event envelope")
		return
	}

	data, err := json.Marshal(env)
	if err != nil {
		log.Error().Err(err).Str("channel_id", channelID).Msg("failed to marshal event envelope")
		return
	}

	if err := b.nc.Publish(Subject(channelID), data); err != nil {
		log.Error().
			Err(err).
			Str("channel_id", channelID).
			Str("event_type", string(typ)).
			Msg("failed to publish event")
		return
	}

	log.Debug().
		Str("channel_id", channelID).
		Str("event_type", string(typ)).
		Str("event_id", env.EventID).
		Msg("event published")
}

package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/streamstack/giftauction/internal/access"
	"github.com/streamstack/giftauction/internal/auction"
)

const subjectPrefix = "gifts"

// SubjectWildcard matches the normalized gift feed for every channel.
const SubjectWildcard = subjectPrefix + ".>"

// Subject returns the gift feed subject for one channel.
func Subject(channelID string) string {
	return subjectPrefix + "." + channelID
}

// GiftEvent is one normalized message from the live-stream gift feed.
// Streakable gifts arrive as one message per animation frame with a running
// RepeatCount; RepeatEnd marks the terminal frame.
type GiftEvent struct {
	DonorID     string `json:"donor_id" validate:"required"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url"`
	GiftName    string `json:"gift_name"`
	Value       int64  `json:"value" validate:"required,gt=0"`
	RepeatCount int    `json:"repeat_count" validate:"gte=0"`
	RepeatEnd   bool   `json:"repeat_end"`
}

// Adapter bridges the external gift feed into auction rooms. Malformed
// events, unauthorized channels and channels without a room are all dropped
// silently; the feed must never take the process down.
type Adapter struct {
	nc       *nats.Conn
	gate     *access.Gate
	registry *auction.Registry
	validate *validator.Validate
	sub      *nats.Subscription
}

// NewAdapter creates a gift ingestion adapter over an established NATS
// connection. Feed reconnection is handled by the connection itself.
func NewAdapter(nc *nats.Conn, gate *access.Gate, registry *auction.Registry) *Adapter {
	return &Adapter{
		nc:       nc,
		gate:     gate,
		registry: registry,
		validate: validator.New(),
	}
}

// Start subscribes to the gift feed and blocks until the context is cancelled.
func (a *Adapter) Start(ctx context.Context) error {
	sub, err := a.nc.Subscribe(SubjectWildcard, a.handleMessage)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", SubjectWildcard, err)
	}
	a.sub = sub

	log.Info().Str("subject", SubjectWildcard).Msg("gift ingestion started")

	<-ctx.Done()
	log.Info().Msg("gift ingestion shutting down")
	return a.sub.Unsubscribe()
}

func (a *Adapter) handleMessage(msg *nats.Msg) {
	channelID := strings.TrimPrefix(msg.Subject, subjectPrefix+".")
	if channelID == "" || channelID == msg.Subject {
		log.Warn().Str("subject", msg.Subject).Msg("dropping gift on unaddressable subject")
		return
	}

	var ev GiftEvent
	if err := json.Unmarshal(msg.Data, &ev); err != nil {
		log.Warn().Err(err).Str("channel_id", channelID).Msg("dropping malformed gift event")
		return
	}
	if err := a.validate.Struct(ev); err != nil {
		log.Warn().Err(err).Str("channel_id", channelID).Msg("dropping invalid gift event")
		return
	}

	if !a.gate.Authorize(channelID) {
		log.Debug().Str("channel_id", channelID).Msg("dropping gift for unauthorized channel")
		return
	}

	gift, ok := Collapse(ev)
	if !ok {
		// Intermediate streak frame; the terminal frame carries the total.
		return
	}

	room, ok := a.registry.Get(channelID)
	if !ok {
		log.Debug().Str("channel_id", channelID).Msg("dropping gift for channel without a room")
		return
	}
	room.IngestGift(gift)
}

// Collapse folds a streak's animation frames into the single gift the room
// should see. Non-streakable gifts (RepeatCount == 0) apply immediately; a
// streak applies only on its terminal frame, with the accumulated value.
func Collapse(ev GiftEvent) (auction.Gift, bool) {
	gift := auction.Gift{
		DonorID:     ev.DonorID,
		DisplayName: ev.DisplayName,
		AvatarURL:   ev.AvatarURL,
		GiftName:    ev.GiftName,
		Value:       ev.Value,
	}

	if ev.RepeatCount == 0 {
		return gift, true
	}
	if !ev.RepeatEnd {
		return auction.Gift{}, false
	}
	gift.Value = ev.Value * int64(ev.RepeatCount)
	return gift, true
}

package gateway

import (
	"encoding/json"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/streamstack/giftauction/internal/auction"
)

// Command is an inbound control frame from a panel connection. Commands are
// validated at the boundary; a malformed frame is dropped without touching
// room state.
type Command struct {
	Action      string `json:"action" validate:"required,oneof=start pause resume end restart"`
	InitialTime int    `json:"initial_time" validate:"gte=0"`
	SnipeTime   int    `json:"snipe_time" validate:"gte=0"`
	Manual      bool   `json:"manual"`
}

// Router dispatches validated commands to the addressed room.
type Router struct {
	registry *auction.Registry
	defaults auction.Config
	validate *validator.Validate
}

// NewRouter creates a command router over the room registry. defaults fill in
// a start command that omits its timing parameters.
func NewRouter(registry *auction.Registry, defaults auction.Config) *Router {
	return &Router{
		registry: registry,
		defaults: defaults,
		validate: validator.New(),
	}
}

// Dispatch parses and applies one command frame for the given channel.
// All failures are dropped and logged; none are fatal.
func (rt *Router) Dispatch(channelID string, raw []byte) {
	var cmd Command
	if err := json.Unmarshal(raw, &cmd); err != nil {
		log.Warn().Err(err).Str("channel_id", channelID).Msg("dropping malformed command frame")
		return
	}
	if err := rt.validate.Struct(cmd); err != nil {
		log.Warn().Err(err).Str("channel_id", channelID).Str("action", cmd.Action).Msg("dropping invalid command")
		return
	}

	room := rt.registry.GetOrCreate(channelID)

	var err error
	switch cmd.Action {
	case "start":
		cfg := rt.defaults
		if cmd.InitialTime > 0 {
			cfg = auction.Config{InitialTime: cmd.InitialTime, SnipeTime: cmd.SnipeTime}
		}
		err = room.Start(cfg)
	case "pause":
		err = room.Pause()
	case "resume":
		err = room.Resume()
	case "end":
		err = room.End(cmd.Manual)
	case "restart":
		room.Restart()
	}

	if err != nil {
		log.Warn().
			Err(err).
			Str("channel_id", channelID).
			Str("action", cmd.Action).
			Msg("command dropped")
	}
}

package auction

import (
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// Registry owns the active rooms, keyed by channel. Exactly one room exists
// per channel for the process lifetime; rooms are created lazily on first
// reference and never evicted. Rooms are fully isolated from each other.
type Registry struct {
	mu    sync.Mutex
	rooms map[string]*Room

	defaults Config
	clock    clockwork.Clock
	bc       Broadcaster
}

// NewRegistry creates a registry whose rooms start with the given default
// config until their first start command supplies one.
func NewRegistry(defaults Config, clock clockwork.Clock, bc Broadcaster) *Registry {
	return &Registry{
		rooms:    make(map[string]*Room),
		defaults: defaults,
		clock:    clock,
		bc:       bc,
	}
}

// GetOrCreate returns the channel's room, instantiating an idle one with the
// default config if it does not exist yet.
func (reg *Registry) GetOrCreate(channelID string) *Room {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	room, ok := reg.rooms[channelID]
	if !ok {
		room = newRoom(channelID, reg.defaults, reg.clock, reg.bc)
		reg.rooms[channelID] = room
		log.Info().Str("channel_id", channelID).Msg("auction room created")
	}
	return room
}

// Get returns the channel's room without creating one. Events addressed to a
// channel with no room are dropped by the caller.
func (reg *Registry) Get(channelID string) (*Room, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	room, ok := reg.rooms[channelID]
	return room, ok
}

// Len reports the number of active rooms.
func (reg *Registry) Len() int {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return len(reg.rooms)
}

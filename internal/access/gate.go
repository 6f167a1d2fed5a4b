package access

// Gate validates channel identifiers against a static allow-list. A rejected
// channel gets a single requester-scoped notification from the caller; the
// gate itself never errors.
type Gate struct {
	allowed map[string]struct{}
}

// NewGate builds a gate from the configured channel allow-list.
func NewGate(channels []string) *Gate {
	allowed := make(map[string]struct{}, len(channels))
	for _, ch := range channels {
		allowed[ch] = struct{}{}
	}
	return &Gate{allowed: allowed}
}

// Authorize reports whether the channel may create or join an auction room.
func (g *Gate) Authorize(channelID string) bool {
	_, ok := g.allowed[channelID]
	return ok
}

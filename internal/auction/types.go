package auction

// State is the lifecycle state of an auction room.
type State string

const (
	StateIdle    State = "idle"
	StateRunning State = "running"
	StatePaused  State = "paused"
	StateEnded   State = "ended"
)

// Config holds the timing parameters of an auction. SnipeTime is the
// threshold the countdown is clamped back up to when a gift lands late.
type Config struct {
	InitialTime int `yaml:"initial_time"`
	SnipeTime   int `yaml:"snipe_time"`
}

// DefaultConfig is the configuration rooms are created with before the first
// start command supplies one.
func DefaultConfig() Config {
	return Config{InitialTime: 60, SnipeTime: 15}
}

// Validate checks the invariant initialTime > 0 and 0 <= snipeTime < initialTime.
func (c Config) Validate() error {
	if c.InitialTime <= 0 {
		return ErrInvalidConfig
	}
	if c.SnipeTime < 0 || c.SnipeTime >= c.InitialTime {
		return ErrInvalidConfig
	}
	return nil
}

// Participant is one donor's accumulated total for the current auction.
type Participant struct {
	DonorID     string
	DisplayName string
	AvatarURL   string
	TotalValue  int64
}

// Gift is a single normalized donation, already collapsed to one event per
// completed streak by the ingestion adapter.
type Gift struct {
	DonorID     string
	DisplayName string
	AvatarURL   string
	GiftName    string
	Value       int64
}

// Winner is the top-ranked participant of an ended auction.
type Winner struct {
	DonorID     string
	DisplayName string
	TotalValue  int64
}

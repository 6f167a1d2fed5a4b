package auction

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/streamstack/giftauction/internal/events"
)

// Broadcaster delivers an event to every subscriber of the channel's topic.
// The room publishes through it and never learns about individual subscribers.
type Broadcaster interface {
	Publish(channelID string, typ events.Type, payload any)
}

// Room is the per-channel auction state machine: countdown timer, donation
// ledger, anti-snipe clamp and winner computation. All mutations are
// serialized under mu; the outstanding tick is invalidated by bumping gen, so
// a tick that fires after cancellation is a no-op.
type Room struct {
	channelID string
	clock     clockwork.Clock
	bc        Broadcaster

	mu           sync.Mutex
	state        State
	config       Config
	currentTime  int
	participants []*Participant
	byDonor      map[string]*Participant
	snipeAlerted bool

	gen        uint64
	tickCancel chan struct{}
}

func newRoom(channelID string, cfg Config, clock clockwork.Clock, bc Broadcaster) *Room {
	return &Room{
		channelID:   channelID,
		clock:       clock,
		bc:          bc,
		state:       StateIdle,
		config:      cfg,
		currentTime: cfg.InitialTime,
		byDonor:     make(map[string]*Participant),
	}
}

// ChannelID returns the channel this room belongs to.
func (r *Room) ChannelID() string {
	return r.channelID
}

// Start begins a fresh auction from Idle or Ended: the ledger is cleared, the
// countdown is set to cfg.InitialTime and the one-second tick is scheduled.
// From Paused it resumes instead, keeping the ledger and the remaining time;
// the supplied config is ignored in that case.
func (r *Room) Start(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.state {
	case StateRunning:
		return ErrInvalidTransition
	case StatePaused:
		r.resumeLocked()
	default: // Idle, Ended
		r.cancelTickLocked()
		r.config = cfg
		r.currentTime = cfg.InitialTime
		r.clearLedgerLocked()
		r.snipeAlerted = false
		r.state = StateRunning
		r.scheduleTickLocked()
	}

	r.broadcastStateLocked(true)
	log.Info().
		Str("channel_id", r.channelID).
		Int("initial_time", r.config.InitialTime).
		Int("snipe_time", r.config.SnipeTime).
		Msg("auction started")
	return nil
}

// Pause suspends the countdown without losing the remaining time or ledger.
func (r *Room) Pause() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateRunning {
		return ErrInvalidTransition
	}
	r.cancelTickLocked()
	r.state = StatePaused
	r.broadcastStateLocked(false)
	log.Info().Str("channel_id", r.channelID).Int("current_time", r.currentTime).Msg("auction paused")
	return nil
}

// Resume reschedules the tick from the current remaining time.
func (r *Room) Resume() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StatePaused {
		return ErrInvalidTransition
	}
	r.resumeLocked()
	r.broadcastStateLocked(false)
	log.Info().Str("channel_id", r.channelID).Int("current_time", r.currentTime).Msg("auction resumed")
	return nil
}

// End finalizes the auction and broadcasts the winner. The manual flag only
// annotates the outbound summary; the winner computation is identical to the
// timer-driven path.
func (r *Room) End(manual bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateRunning && r.state != StatePaused {
		return ErrInvalidTransition
	}
	r.endLocked(manual)
	return nil
}

// Restart fully resets the room to Idle from any state: the outstanding tick
// is cancelled, the ledger is cleared and the countdown returns to the stored
// config's initial time. Used to recover a stuck or ended room.
func (r *Room) Restart() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cancelTickLocked()
	r.clearLedgerLocked()
	r.currentTime = r.config.InitialTime
	r.snipeAlerted = false
	r.state = StateIdle
	r.broadcastStateLocked(true)
	log.Info().Str("channel_id", r.channelID).Msg("auction restarted")
}

// IngestGift applies one collapsed donation to the ledger. Gifts outside the
// Running state are dropped silently. A gift landing at or below the snipe
// threshold clamps the countdown back up to it, never above.
func (r *Room) IngestGift(g Gift) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateRunning {
		log.Debug().
			Str("channel_id", r.channelID).
			Str("donor_id", g.DonorID).
			Str("state", string(r.state)).
			Msg("dropping gift outside running auction")
		return
	}

	p, ok := r.byDonor[g.DonorID]
	if !ok {
		p = &Participant{
			DonorID:     g.DonorID,
			DisplayName: g.DisplayName,
			AvatarURL:   g.AvatarURL,
		}
		r.byDonor[g.DonorID] = p
		r.participants = append(r.participants, p)
	}
	p.TotalValue += g.Value

	if r.currentTime <= r.config.SnipeTime {
		r.currentTime = r.config.SnipeTime
		r.bc.Publish(r.channelID, events.TypeTimeResetBySnipe, events.TimeResetPayload{
			DonorID: g.DonorID,
			NewTime: r.currentTime,
		})
	}

	r.bc.Publish(r.channelID, events.TypeGiftReceived, events.GiftReceivedPayload{
		DonorID:     g.DonorID,
		DisplayName: g.DisplayName,
		GiftName:    g.GiftName,
		AvatarURL:   g.AvatarURL,
		Value:       g.Value,
	})
	r.broadcastStateLocked(true)
}

// Snapshot returns the current state for late joiners, leaderboard included.
func (r *Room) Snapshot() events.StateUpdatePayload {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.statePayloadLocked(true)
}

// Winner recomputes the winner of the current ledger. It is read-only and
// idempotent; ok is false when nobody donated.
func (r *Room) Winner() (Winner, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return winnerOf(r.participants)
}

// State returns the room's lifecycle state.
func (r *Room) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Room) resumeLocked() {
	r.state = StateRunning
	r.scheduleTickLocked()
}

func (r *Room) endLocked(manual bool) {
	r.cancelTickLocked()
	r.state = StateEnded

	var view *events.WinnerView
	if w, ok := winnerOf(r.participants); ok {
		view = &events.WinnerView{
			DonorID:     w.DonorID,
			DisplayName: w.DisplayName,
			TotalValue:  w.TotalValue,
		}
	}
	r.bc.Publish(r.channelID, events.TypeAuctionEnded, events.AuctionEndedPayload{
		Winner: view,
		Manual: manual,
	})
	r.broadcastStateLocked(true)

	evt := log.Info().Str("channel_id", r.channelID).Bool("manual", manual)
	if view != nil {
		evt = evt.Str("winner", view.DonorID).Int64("total_value", view.TotalValue)
	}
	evt.Msg("auction ended")
}

// scheduleTickLocked arms the single outstanding one-second tick. The
// goroutine captures the current generation; any cancellation bumps gen so
// the callback proves itself stale before touching state.
func (r *Room) scheduleTickLocked() {
	gen := r.gen
	timer := r.clock.NewTimer(time.Second)
	cancel := make(chan struct{})
	r.tickCancel = cancel

	go func() {
		select {
		case <-timer.Chan():
			r.tick(gen)
		case <-cancel:
			stopAndDrainTimer(timer)
		}
	}()
}

func (r *Room) cancelTickLocked() {
	r.gen++
	if r.tickCancel != nil {
		close(r.tickCancel)
		r.tickCancel = nil
	}
}

// tick runs one countdown step: decrement, one-time snipe alert on crossing
// the threshold, finalization at zero, otherwise broadcast and reschedule.
func (r *Room) tick(gen uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if gen != r.gen || r.state != StateRunning {
		return
	}

	r.currentTime--
	if r.currentTime == r.config.SnipeTime-1 && !r.snipeAlerted {
		r.snipeAlerted = true
		r.bc.Publish(r.channelID, events.TypeSnipeAlert, events.SnipeAlertPayload{})
	}
	if r.currentTime <= 0 {
		r.currentTime = 0
		r.endLocked(false)
		return
	}
	r.broadcastStateLocked(false)
	r.scheduleTickLocked()
}

func (r *Room) clearLedgerLocked() {
	r.participants = nil
	r.byDonor = make(map[string]*Participant)
}

func (r *Room) statePayloadLocked(withParticipants bool) events.StateUpdatePayload {
	payload := events.StateUpdatePayload{
		State:       string(r.state),
		CurrentTime: r.currentTime,
	}
	if withParticipants {
		payload.Participants = leaderboardViews(r.participants)
	}
	return payload
}

func (r *Room) broadcastStateLocked(withParticipants bool) {
	r.bc.Publish(r.channelID, events.TypeStateUpdate, r.statePayloadLocked(withParticipants))
}

// stopAndDrainTimer stops a timer and drains its channel so an already-fired
// timer cannot leak a buffered value.
func stopAndDrainTimer(timer clockwork.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.Chan():
		default:
		}
	}
}

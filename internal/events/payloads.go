package events

// Event payload types shared between the auction core, the broadcaster and the
// WebSocket gateway.

// ParticipantView is one leaderboard row. Rank is 1-based; ties keep the order
// in which the donors first appeared.
type ParticipantView struct {
	DonorID     string `json:"donor_id"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url"`
	TotalValue  int64  `json:"total_value"`
	Rank        int    `json:"rank"`
}

// StateUpdatePayload is the payload for a state_update event. Participants is
// present on full updates (gifts, joins, resets) and omitted on plain ticks.
type StateUpdatePayload struct {
	State        string            `json:"state"`
	CurrentTime  int               `json:"current_time"`
	Participants []ParticipantView `json:"participants,omitempty"`
}

// SnipeAlertPayload is the payload for the one-time snipe_alert event emitted
// when the countdown first crosses the snipe threshold.
type SnipeAlertPayload struct{}

// TimeResetPayload is the payload for a time_reset_by_snipe event.
type TimeResetPayload struct {
	DonorID string `json:"donor_id"`
	NewTime int    `json:"new_time"`
}

// WinnerView identifies the top-ranked participant of an ended auction.
type WinnerView struct {
	DonorID     string `json:"donor_id"`
	DisplayName string `json:"display_name"`
	TotalValue  int64  `json:"total_value"`
}

// AuctionEndedPayload is the payload for an auction_ended event. Winner is
// null when the auction ended without a single donation.
type AuctionEndedPayload struct {
	Winner *WinnerView `json:"winner"`
	Manual bool        `json:"manual"`
}

// GiftReceivedPayload is the payload for a gift_received event, used by
// overlays for transient visual effects.
type GiftReceivedPayload struct {
	DonorID     string `json:"donor_id"`
	DisplayName string `json:"display_name"`
	GiftName    string `json:"gift_name"`
	AvatarURL   string `json:"avatar_url"`
	Value       int64  `json:"value"`
}

// NotAuthorizedPayload is the payload for a not_authorized event. It is sent
// only to the rejected requester, never broadcast.
type NotAuthorizedPayload struct {
	ChannelID string `json:"channel_id"`
	Reason    string `json:"reason"`
}

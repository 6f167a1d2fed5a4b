package ingest

import (
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/require"

	"github.com/streamstack/giftauction/internal/access"
	"github.com/streamstack/giftauction/internal/auction"
	"github.com/streamstack/giftauction/internal/events"
)

type nopBroadcaster struct{}

func (nopBroadcaster) Publish(channelID string, typ events.Type, payload any) {}

func newTestAdapter(allowed ...string) (*Adapter, *auction.Registry) {
	registry := auction.NewRegistry(auction.DefaultConfig(), clockwork.NewFakeClock(), nopBroadcaster{})
	adapter := NewAdapter(nil, access.NewGate(allowed), registry)
	return adapter, registry
}

func startRoom(t *testing.T, registry *auction.Registry, channelID string) *auction.Room {
	t.Helper()
	room := registry.GetOrCreate(channelID)
	require.NoError(t, room.Start(auction.Config{InitialTime: 60, SnipeTime: 15}))
	return room
}

func giftMsg(subject, data string) *nats.Msg {
	return &nats.Msg{Subject: subject, Data: []byte(data)}
}

func TestCollapse_PlainGiftAppliesImmediately(t *testing.T) {
	gift, ok := Collapse(GiftEvent{DonorID: "a", Value: 5})
	require.True(t, ok)
	require.Equal(t, int64(5), gift.Value)
}

func TestCollapse_IntermediateStreakFramesAreDropped(t *testing.T) {
	_, ok := Collapse(GiftEvent{DonorID: "a", Value: 5, RepeatCount: 3, RepeatEnd: false})
	require.False(t, ok)
}

func TestCollapse_TerminalFrameCarriesAccumulatedValue(t *testing.T) {
	gift, ok := Collapse(GiftEvent{DonorID: "a", Value: 5, RepeatCount: 4, RepeatEnd: true})
	require.True(t, ok)
	require.Equal(t, int64(20), gift.Value)
}

func TestAdapter_AppliesGiftToRunningRoom(t *testing.T) {
	adapter, registry := newTestAdapter("c1")
	room := startRoom(t, registry, "c1")

	adapter.handleMessage(giftMsg("gifts.c1", `{"donor_id":"a","display_name":"Alice","gift_name":"rose","value":5}`))

	w, ok := room.Winner()
	require.True(t, ok)
	require.Equal(t, "a", w.DonorID)
	require.Equal(t, int64(5), w.TotalValue)
}

func TestAdapter_CollapsesStreakToOneApplication(t *testing.T) {
	adapter, registry := newTestAdapter("c1")
	room := startRoom(t, registry, "c1")

	adapter.handleMessage(giftMsg("gifts.c1", `{"donor_id":"a","value":5,"repeat_count":1}`))
	adapter.handleMessage(giftMsg("gifts.c1", `{"donor_id":"a","value":5,"repeat_count":2}`))
	adapter.handleMessage(giftMsg("gifts.c1", `{"donor_id":"a","value":5,"repeat_count":3,"repeat_end":true}`))

	w, ok := room.Winner()
	require.True(t, ok)
	require.Equal(t, int64(15), w.TotalValue)
}

func TestAdapter_DropsMalformedEvents(t *testing.T) {
	adapter, registry := newTestAdapter("c1")
	room := startRoom(t, registry, "c1")

	adapter.handleMessage(giftMsg("gifts.c1", `not json`))
	adapter.handleMessage(giftMsg("gifts.c1", `{"value":5}`))
	adapter.handleMessage(giftMsg("gifts.c1", `{"donor_id":"a","value":0}`))
	adapter.handleMessage(giftMsg("gifts.c1", `{"donor_id":"a","value":-5}`))

	_, ok := room.Winner()
	require.False(t, ok)
}

func TestAdapter_DropsUnauthorizedChannel(t *testing.T) {
	adapter, registry := newTestAdapter("c1")

	adapter.handleMessage(giftMsg("gifts.intruder", `{"donor_id":"a","value":5}`))

	require.Equal(t, 0, registry.Len())
	_, ok := registry.Get("intruder")
	require.False(t, ok)
}

func TestAdapter_DropsGiftWithoutRoom(t *testing.T) {
	adapter, registry := newTestAdapter("c1")

	// Authorized channel, but nobody has joined or started a room yet.
	adapter.handleMessage(giftMsg("gifts.c1", `{"donor_id":"a","value":5}`))

	require.Equal(t, 0, registry.Len())
}

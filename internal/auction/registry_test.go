package auction

import (
	"sync"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
)

func newTestRegistry() (*Registry, *recordingBroadcaster) {
	sink := newRecordingBroadcaster()
	return NewRegistry(DefaultConfig(), clockwork.NewFakeClock(), sink), sink
}

func TestRegistry_GetOrCreateIsLazy(t *testing.T) {
	reg, _ := newTestRegistry()
	require.Equal(t, 0, reg.Len())

	room := reg.GetOrCreate("c1")
	require.NotNil(t, room)
	require.Equal(t, 1, reg.Len())
	require.Equal(t, "c1", room.ChannelID())

	// Fresh rooms are idle with the default config applied.
	snapshot := room.Snapshot()
	require.Equal(t, string(StateIdle), snapshot.State)
	require.Equal(t, DefaultConfig().InitialTime, snapshot.CurrentTime)
}

func TestRegistry_SameChannelSameRoom(t *testing.T) {
	reg, _ := newTestRegistry()

	room := reg.GetOrCreate("c1")
	require.Same(t, room, reg.GetOrCreate("c1"))
	require.Equal(t, 1, reg.Len())
}

func TestRegistry_GetDoesNotCreate(t *testing.T) {
	reg, _ := newTestRegistry()

	_, ok := reg.Get("c1")
	require.False(t, ok)
	require.Equal(t, 0, reg.Len())

	created := reg.GetOrCreate("c1")
	got, ok := reg.Get("c1")
	require.True(t, ok)
	require.Same(t, created, got)
}

func TestRegistry_RoomsAreIsolated(t *testing.T) {
	reg, sink := newTestRegistry()

	a := reg.GetOrCreate("c1")
	b := reg.GetOrCreate("c2")

	require.NoError(t, a.Start(Config{InitialTime: 30, SnipeTime: 5}))
	sink.drain()
	a.IngestGift(Gift{DonorID: "donor", Value: 10})
	sink.drain()

	// Nothing leaked into the other channel's room.
	require.Equal(t, StateIdle, b.State())
	require.Empty(t, b.Snapshot().Participants)
	_, ok := b.Winner()
	require.False(t, ok)

	w, ok := a.Winner()
	require.True(t, ok)
	require.Equal(t, "donor", w.DonorID)
}

func TestRegistry_ConcurrentGetOrCreate(t *testing.T) {
	reg, _ := newTestRegistry()

	const goroutines = 32
	rooms := make([]*Room, goroutines)
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rooms[i] = reg.GetOrCreate("c1")
		}(i)
	}
	wg.Wait()

	require.Equal(t, 1, reg.Len())
	for i := 1; i < goroutines; i++ {
		require.Same(t, rooms[0], rooms[i])
	}
}

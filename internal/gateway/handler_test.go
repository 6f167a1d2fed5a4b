package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/streamstack/giftauction/internal/access"
	"github.com/streamstack/giftauction/internal/auction"
	"github.com/streamstack/giftauction/internal/events"
)

type gatewayFixture struct {
	cm       *ConnectionManager
	registry *auction.Registry
	server   *httptest.Server
}

func newGatewayFixture(t *testing.T, allowed ...string) *gatewayFixture {
	t.Helper()

	cm := NewConnectionManager(DefaultConnectionConfig())
	registry := auction.NewRegistry(auction.DefaultConfig(), clockwork.NewFakeClock(), nopBroadcaster{})
	router := NewRouter(registry, auction.DefaultConfig())
	handler := NewWebSocketHandler(cm, access.NewGate(allowed), registry, router)

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go cm.Start(ctx)

	return &gatewayFixture{cm: cm, registry: registry, server: server}
}

func (f *gatewayFixture) dial(t *testing.T, channelID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/ws?channel=" + channelID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) events.Envelope {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var env events.Envelope
	require.NoError(t, json.Unmarshal(data, &env))
	return env
}

func TestHandler_JoinReceivesSnapshot(t *testing.T) {
	f := newGatewayFixture(t, "c1")

	conn := f.dial(t, "c1")
	env := readEnvelope(t, conn)

	require.Equal(t, events.TypeStateUpdate, env.Type)
	require.Equal(t, "c1", env.ChannelID)

	var payload events.StateUpdatePayload
	require.NoError(t, json.Unmarshal(env.Payload, &payload))
	require.Equal(t, string(auction.StateIdle), payload.State)
	require.Equal(t, auction.DefaultConfig().InitialTime, payload.CurrentTime)

	// Joining created the room lazily.
	require.Equal(t, 1, f.registry.Len())
}

func TestHandler_UnauthorizedChannelGetsScopedRejection(t *testing.T) {
	f := newGatewayFixture(t, "c1")

	conn := f.dial(t, "intruder")
	env := readEnvelope(t, conn)

	require.Equal(t, events.TypeNotAuthorized, env.Type)
	var payload events.NotAuthorizedPayload
	require.NoError(t, json.Unmarshal(env.Payload, &payload))
	require.Equal(t, "intruder", payload.ChannelID)

	// No room was created for the rejected channel.
	require.Equal(t, 0, f.registry.Len())
}

func TestHandler_MissingChannelIsBadRequest(t *testing.T) {
	f := newGatewayFixture(t, "c1")

	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandler_CommandsRouteToBoundChannel(t *testing.T) {
	f := newGatewayFixture(t, "c1")

	conn := f.dial(t, "c1")
	readEnvelope(t, conn) // snapshot

	require.NoError(t, conn.WriteMessage(websocket.TextMessage,
		[]byte(`{"action":"start","initial_time":30,"snipe_time":5}`)))

	require.Eventually(t, func() bool {
		room, ok := f.registry.Get("c1")
		return ok && room.State() == auction.StateRunning
	}, 2*time.Second, 10*time.Millisecond)
}

func TestConnectionManager_BroadcastIsChannelScoped(t *testing.T) {
	f := newGatewayFixture(t, "c1", "c2")

	connA1 := f.dial(t, "c1")
	connA2 := f.dial(t, "c1")
	connB := f.dial(t, "c2")
	readEnvelope(t, connA1)
	readEnvelope(t, connA2)
	readEnvelope(t, connB)

	env, err := events.NewEnvelope("c1", events.TypeSnipeAlert, events.SnipeAlertPayload{})
	require.NoError(t, err)
	data, err := json.Marshal(env)
	require.NoError(t, err)
	f.cm.BroadcastToChannel("c1", data)

	require.Equal(t, events.TypeSnipeAlert, readEnvelope(t, connA1).Type)
	require.Equal(t, events.TypeSnipeAlert, readEnvelope(t, connA2).Type)

	// The other channel's subscriber must not see it.
	connB.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	_, _, err = connB.ReadMessage()
	require.Error(t, err)
}

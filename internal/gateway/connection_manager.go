package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/streamstack/giftauction/internal/events"
)

// ConnectionManager manages WebSocket connections for auction displays.
// Connections are pooled per channel; broadcasts never cross channels.
type ConnectionManager struct {
	channelConnections map[string]map[*Connection]bool
	mu                 sync.RWMutex

	upgrader websocket.Upgrader
	config   ConnectionConfig

	broadcastCh chan BroadcastMessage

	// onClientMessage receives inbound command frames from connections.
	onClientMessage func(c *Connection, message []byte)
}

// Connection represents a WebSocket connection to a control panel or overlay.
type Connection struct {
	ID        string
	ChannelID string
	Conn      *websocket.Conn
	Send      chan []byte
	Manager   *ConnectionManager

	ConnectedAt time.Time
	LastPing    time.Time
}

// ConnectionConfig holds configuration for WebSocket connections.
type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	CheckOrigin     func(r *http.Request) bool
}

// BroadcastMessage is a pre-marshaled event destined for one channel's pool.
type BroadcastMessage struct {
	ChannelID string
	Data      []byte
}

// DefaultConnectionConfig returns default WebSocket configuration.
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  1024,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			// Overlays are served from arbitrary origins (OBS browser sources).
			return true
		},
	}
}

// NewConnectionManager creates a new WebSocket connection manager.
func NewConnectionManager(config ConnectionConfig) *ConnectionManager {
	return &ConnectionManager{
		channelConnections: make(map[string]map[*Connection]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config:      config,
		broadcastCh: make(chan BroadcastMessage, 1000),
	}
}

// Start begins processing broadcast messages until the context is cancelled.
func (cm *ConnectionManager) Start(ctx context.Context) {
	log.Info().Msg("connection manager started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("connection manager shutting down")
			return
		case message := <-cm.broadcastCh:
			cm.handleBroadcast(message)
		}
	}
}

// UpgradeConnection upgrades an HTTP request to a WebSocket connection bound
// to one channel and starts its pumps.
func (cm *ConnectionManager) UpgradeConnection(w http.ResponseWriter, r *http.Request, channelID string) (*Connection, error) {
	conn, err := cm.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("failed to upgrade WebSocket connection")
		return nil, fmt.Errorf("failed to upgrade connection: %w", err)
	}

	connection := &Connection{
		ID:          uuid.New().String(),
		ChannelID:   channelID,
		Conn:        conn,
		Send:        make(chan []byte, 256),
		Manager:     cm,
		ConnectedAt: time.Now(),
		LastPing:    time.Now(),
	}

	cm.registerConnection(connection)

	go connection.writePump()
	go connection.readPump()

	log.Info().
		Str("connection_id", connection.ID).
		Str("channel_id", channelID).
		Msg("WebSocket connection established")

	return connection, nil
}

// Reject upgrades the request just long enough to deliver a not_authorized
// notification to the requester alone, then closes the socket. The connection
// is never registered, so it can receive no broadcast.
func (cm *ConnectionManager) Reject(w http.ResponseWriter, r *http.Request, channelID, reason string) {
	conn, err := cm.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("failed to upgrade WebSocket connection for rejection")
		return
	}
	defer conn.Close()

	env, err := events.NewEnvelope(channelID, events.TypeNotAuthorized, events.NotAuthorizedPayload{
		ChannelID: channelID,
		Reason:    reason,
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to build not_authorized envelope")
		return
	}
	data, err := json.Marshal(env)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal not_authorized envelope")
		return
	}

	conn.SetWriteDeadline(time.Now().Add(cm.config.WriteTimeout))
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		log.Error().Err(err).Str("channel_id", channelID).Msg("failed to send not_authorized")
	}

	log.Info().Str("channel_id", channelID).Str("reason", reason).Msg("connection rejected")
}

func (cm *ConnectionManager) registerConnection(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.channelConnections[conn.ChannelID] == nil {
		cm.channelConnections[conn.ChannelID] = make(map[*Connection]bool)
	}
	cm.channelConnections[conn.ChannelID][conn] = true

	log.Debug().
		Str("connection_id", conn.ID).
		Str("channel_id", conn.ChannelID).
		Int("total_connections", len(cm.channelConnections[conn.ChannelID])).
		Msg("connection registered")
}

func (cm *ConnectionManager) unregisterConnection(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if connections, exists := cm.channelConnections[conn.ChannelID]; exists {
		if _, exists := connections[conn]; exists {
			delete(connections, conn)
			close(conn.Send)

			if len(connections) == 0 {
				delete(cm.channelConnections, conn.ChannelID)
			}

			log.Info().
				Str("connection_id", conn.ID).
				Str("channel_id", conn.ChannelID).
				Msg("connection unregistered")
		}
	}
}

// BroadcastToChannel queues pre-marshaled event data for every connection
// joined to the channel.
func (cm *ConnectionManager) BroadcastToChannel(channelID string, data []byte) {
	select {
	case cm.broadcastCh <- BroadcastMessage{ChannelID: channelID, Data: data}:
	default:
		log.Warn().Str("channel_id", channelID).Msg("broadcast channel full, dropping message")
	}
}

// SendToConnection delivers an event to a single connection, bypassing the
// channel pool. Used for join snapshots.
func (cm *ConnectionManager) SendToConnection(conn *Connection, env *events.Envelope) {
	data, err := json.Marshal(env)
	if err != nil {
		log.Error().Err(err).Str("connection_id", conn.ID).Msg("failed to marshal direct event")
		return
	}
	select {
	case conn.Send <- data:
	default:
		log.Warn().Str("connection_id", conn.ID).Msg("connection send buffer full, dropping direct event")
	}
}

func (cm *ConnectionManager) handleBroadcast(message BroadcastMessage) {
	cm.mu.RLock()
	connections, exists := cm.channelConnections[message.ChannelID]
	if !exists {
		cm.mu.RUnlock()
		return
	}

	targets := make([]*Connection, 0, len(connections))
	for conn := range connections {
		targets = append(targets, conn)
	}
	cm.mu.RUnlock()

	for _, conn := range targets {
		select {
		case conn.Send <- message.Data:
		default:
			// Connection is slow/dead, close it.
			log.Warn().
				Str("connection_id", conn.ID).
				Str("channel_id", conn.ChannelID).
				Msg("connection send buffer full, closing connection")
			cm.unregisterConnection(conn)
			conn.Conn.Close()
		}
	}

	log.Debug().
		Str("channel_id", message.ChannelID).
		Int("connections", len(targets)).
		Msg("event broadcasted")
}

// GetConnectionStats returns statistics about active connections.
func (cm *ConnectionManager) GetConnectionStats() (total int, channels int) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	for _, connections := range cm.channelConnections {
		total += len(connections)
	}
	return total, len(cm.channelConnections)
}

// writePump handles sending messages to the WebSocket connection.
func (c *Connection) writePump() {
	ticker := time.NewTicker(c.Manager.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
		c.Manager.unregisterConnection(c)
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("failed to write message to WebSocket")
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("failed to send ping")
				return
			}
			c.LastPing = time.Now()
		}
	}
}

// readPump handles reading command frames from the WebSocket connection.
func (c *Connection) readPump() {
	defer func() {
		c.Manager.unregisterConnection(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.Manager.config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
		c.LastPing = time.Now()
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("unexpected WebSocket close error")
			}
			break
		}

		if c.Manager.onClientMessage != nil {
			c.Manager.onClientMessage(c, message)
		}
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	}
}

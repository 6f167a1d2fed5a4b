package gateway

import (
	"context"
	"net/http"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/streamstack/giftauction/internal/access"
	"github.com/streamstack/giftauction/internal/auction"
)

// Service ties the WebSocket edge together: connection pools, the command
// router, and the event consumer relaying broker messages to displays.
type Service struct {
	connectionManager *ConnectionManager
	wsHandler         *WebSocketHandler
	stateHandler      *StateHandler
	eventConsumer     *EventConsumer
}

// NewService creates the gateway over an established NATS connection.
func NewService(config ConnectionConfig, nc *nats.Conn, gate *access.Gate, registry *auction.Registry, defaults auction.Config) *Service {
	cm := NewConnectionManager(config)
	router := NewRouter(registry, defaults)
	handler := NewWebSocketHandler(cm, gate, registry, router)
	stateHandler := NewStateHandler(gate, registry)
	consumer := NewEventConsumer(cm, nc)

	return &Service{
		connectionManager: cm,
		wsHandler:         handler,
		stateHandler:      stateHandler,
		eventConsumer:     consumer,
	}
}

// Start runs the gateway until the context is cancelled.
func (s *Service) Start(ctx context.Context) error {
	log.Info().Msg("starting gateway service")

	go s.connectionManager.Start(ctx)

	if err := s.eventConsumer.Start(ctx); err != nil {
		return err
	}

	log.Info().Msg("gateway service stopped")
	return nil
}

// RegisterRoutes registers the WebSocket HTTP routes.
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	s.wsHandler.RegisterRoutes(mux)
	s.stateHandler.RegisterStateRoutes(mux)
	log.Info().Msg("gateway routes registered")
}

package main

import (
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/nats-io/nats.go"

	"github.com/streamstack/giftauction/internal/access"
	"github.com/streamstack/giftauction/internal/auction"
	"github.com/streamstack/giftauction/internal/broadcast"
	"github.com/streamstack/giftauction/internal/gateway"
	"github.com/streamstack/giftauction/internal/ingest"
)

type Services struct {
	Gate     *access.Gate
	Registry *auction.Registry
	Gateway  *gateway.Service
	Ingest   *ingest.Adapter

	nc *nats.Conn
}

func setupServices(config *Config) (*Services, error) {
	// One NATS connection shared by the broadcaster, the gateway consumer and
	// the gift feed; it reconnects on its own.
	nc, err := broadcast.Connect(config.NATS.URL)
	if err != nil {
		return nil, fmt.Errorf("setup NATS: %w", err)
	}

	gate := access.NewGate(config.AllowedChannels)
	broadcaster := broadcast.NewNATSBroadcaster(nc)
	registry := auction.NewRegistry(config.Auction, clockwork.NewRealClock(), broadcaster)

	gatewayService := gateway.NewService(gateway.DefaultConnectionConfig(), nc, gate, registry, config.Auction)
	ingestAdapter := ingest.NewAdapter(nc, gate, registry)

	return &Services{
		Gate:     gate,
		Registry: registry,
		Gateway:  gatewayService,
		Ingest:   ingestAdapter,
		nc:       nc,
	}, nil
}

func (s *Services) Close() {
	if s.nc != nil {
		s.nc.Close()
	}
}

package gateway

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"
)

// Service is the canvas gateway: it accepts WebSocket connections, tracks
// who is present and relays drawing, reset and presence events
type Service struct {
	registry          *Registry
	relay             *Relay
	lifecycle         *Lifecycle
	connectionManager *ConnectionManager
	wsHandler         *WebSocketHandler
	health            *HealthChecker
}

// Config holds configuration for the canvas gateway service
type Config struct {
	ConnectionConfig ConnectionConfig
}

// DefaultConfig returns default configuration for the canvas gateway
func DefaultConfig() Config {
	return Config{
		ConnectionConfig: DefaultConnectionConfig(),
	}
}

// Stats describes the live state of the gateway
type Stats struct {
	TotalConnections       int    `json:"total_connections"`
	IdentifiedParticipants int    `json:"identified_participants"`
	DrawingBatches         uint64 `json:"drawing_batches"`
	Resets                 uint64 `json:"resets"`
}

// NewService creates a new canvas gateway service. publisher may be nil.
func NewService(config Config, publisher EventPublisher) *Service {
	s := &Service{
		registry: NewRegistry(),
	}

	// The lifecycle is the connection manager's handler and the connection
	// manager is the relay's transport, so the three are wired in two steps.
	handler := &lifecycleHandler{}
	s.connectionManager = NewConnectionManager(config.ConnectionConfig, handler)
	s.relay = NewRelay(s.connectionManager, publisher)
	s.lifecycle = NewLifecycle(s.registry, s.relay)
	handler.Lifecycle = s.lifecycle

	s.wsHandler = NewWebSocketHandler(s.connectionManager, s.GetStats)

	tap, _ := publisher.(Connectivity)
	s.health = NewHealthChecker(s.connectionManager, tap)
	return s
}

// lifecycleHandler lets the connection manager be built before the lifecycle
type lifecycleHandler struct {
	*Lifecycle
}

// Start runs the connection manager loop until ctx is cancelled
func (s *Service) Start(ctx context.Context) error {
	log.Info().Msg("starting canvas gateway service")

	s.connectionManager.Start(ctx)

	log.Info().Msg("canvas gateway service stopped")
	return nil
}

// RegisterRoutes registers the WebSocket and health HTTP routes
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	s.wsHandler.RegisterRoutes(mux)
	mux.Handle("/health", s.health)
	log.Info().Msg("canvas gateway routes registered")
}

// Health runs the gateway self-check
func (s *Service) Health() HealthStatus {
	return s.health.Check()
}

// GetStats returns statistics about the gateway service
func (s *Service) GetStats() Stats {
	relayStats := s.relay.Stats()
	return Stats{
		TotalConnections:       s.connectionManager.ConnectionCount(),
		IdentifiedParticipants: s.registry.Len(),
		DrawingBatches:         relayStats.DrawingBatches,
		Resets:                 relayStats.Resets,
	}
}

package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

// Connectivity is implemented by publishers backed by a remote bus
type Connectivity interface {
	Connected() bool
}

// HealthStatus is the gateway's self-check
type HealthStatus struct {
	Healthy        bool `json:"healthy"`
	ManagerRunning bool `json:"manager_running"`
	Connections    int  `json:"connections"`
	// EventTapConnected is omitted when no event tap is configured
	EventTapConnected *bool    `json:"event_tap_connected,omitempty"`
	Errors            []string `json:"errors"`
}

// HealthChecker reports whether the gateway can accept and relay events
type HealthChecker struct {
	manager *ConnectionManager
	tap     Connectivity
}

// NewHealthChecker creates a checker. tap may be nil.
func NewHealthChecker(manager *ConnectionManager, tap Connectivity) *HealthChecker {
	return &HealthChecker{manager: manager, tap: tap}
}

// Check gathers the current status. A disconnected event tap is reported
// but does not make the gateway unhealthy; relaying continues without it.
func (h *HealthChecker) Check() HealthStatus {
	status := HealthStatus{
		Healthy:        true,
		ManagerRunning: h.manager.Running(),
		Connections:    h.manager.ConnectionCount(),
		Errors:         []string{},
	}

	if !status.ManagerRunning {
		status.Healthy = false
		status.Errors = append(status.Errors, "connection manager not running")
	}

	if h.tap != nil {
		connected := h.tap.Connected()
		status.EventTapConnected = &connected
		if !connected {
			status.Errors = append(status.Errors, "event tap disconnected")
		}
	}

	return status
}

// ServeHTTP writes the status as JSON, with 503 when unhealthy
func (h *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	status := h.Check()

	w.Header().Set("Content-Type", "application/json")
	if !status.Healthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	if err := json.NewEncoder(w).Encode(status); err != nil {
		log.Error().Err(err).Msg("failed to write health status")
	}
}

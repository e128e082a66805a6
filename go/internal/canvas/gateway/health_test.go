package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/sketchroom/go/internal/canvas/events"
)

// flakyTap is a publisher whose bus connection can be toggled
type flakyTap struct {
	connected atomic.Bool
}

func (f *flakyTap) Publish(events.EventType, []byte) {}

func (f *flakyTap) Connected() bool { return f.connected.Load() }

func TestHealthChecker_ManagerLifecycle(t *testing.T) {
	cm := NewConnectionManager(DefaultConnectionConfig(), &lifecycleHandler{})
	checker := NewHealthChecker(cm, nil)

	status := checker.Check()
	assert.False(t, status.Healthy, "not running before Start")
	assert.Nil(t, status.EventTapConnected)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		cm.Start(ctx)
	}()

	require.Eventually(t, func() bool {
		return checker.Check().Healthy
	}, time.Second, time.Millisecond)

	cancel()
	<-done

	status = checker.Check()
	assert.False(t, status.Healthy)
	assert.Contains(t, status.Errors, "connection manager not running")
}

func TestHealthChecker_EventTapIsReportedNotFatal(t *testing.T) {
	tap := &flakyTap{}
	svc := NewService(DefaultConfig(), tap)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go svc.Start(ctx)

	require.Eventually(t, func() bool {
		return svc.Health().ManagerRunning
	}, time.Second, time.Millisecond)

	status := svc.Health()
	assert.True(t, status.Healthy)
	require.NotNil(t, status.EventTapConnected)
	assert.False(t, *status.EventTapConnected)
	assert.Contains(t, status.Errors, "event tap disconnected")

	tap.connected.Store(true)
	status = svc.Health()
	assert.True(t, *status.EventTapConnected)
	assert.Empty(t, status.Errors)
}

func TestHealthChecker_ServeHTTP(t *testing.T) {
	cm := NewConnectionManager(DefaultConnectionConfig(), &lifecycleHandler{})
	checker := NewHealthChecker(cm, nil)

	rec := httptest.NewRecorder()
	checker.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var status HealthStatus
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&status))
	assert.False(t, status.ManagerRunning)
}

func TestService_HealthEndpoint(t *testing.T) {
	g := startTestGateway(t)

	require.Eventually(t, func() bool {
		return g.service.Health().Healthy
	}, time.Second, time.Millisecond)

	resp, err := http.Get(g.server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var status HealthStatus
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	assert.True(t, status.ManagerRunning)
}

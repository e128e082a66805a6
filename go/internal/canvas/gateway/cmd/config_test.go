package main

import (
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
port: "9090"
allowed_origins:
  - https://canvas.example.com
log_level: debug
connection:
  ping_interval: 15s
  max_message_size: 131072
nats:
  url: nats://nats:4222
  subject_prefix: studio.canvas
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "canvas.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestResolveSettings_Defaults(t *testing.T) {
	s := resolveSettings(nil)

	assert.Equal(t, "8081", s.Port)
	assert.Equal(t, []string{"*"}, s.AllowedOrigins)
	assert.Equal(t, 30*time.Second, s.Gateway.ConnectionConfig.PingInterval)
	assert.Equal(t, int64(1<<20), s.Gateway.ConnectionConfig.MaxMessageSize)
	assert.Nil(t, s.NATS, "event tap is off without a NATS url")
}

func TestResolveSettings_FromFile(t *testing.T) {
	file, err := loadConfig(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	s := resolveSettings(file)

	assert.Equal(t, "9090", s.Port)
	assert.Equal(t, "debug", s.LogLevel)
	assert.Equal(t, []string{"https://canvas.example.com"}, s.AllowedOrigins)
	assert.Equal(t, 15*time.Second, s.Gateway.ConnectionConfig.PingInterval)
	assert.Equal(t, int64(131072), s.Gateway.ConnectionConfig.MaxMessageSize)
	assert.Equal(t, 10*time.Second, s.Gateway.ConnectionConfig.WriteTimeout)
	require.NotNil(t, s.NATS)
	assert.Equal(t, "nats://nats:4222", s.NATS.URL)
	assert.Equal(t, "studio.canvas", s.NATS.SubjectPrefix)
}

func TestResolveSettings_EnvironmentWins(t *testing.T) {
	file, err := loadConfig(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	t.Setenv("CANVAS_PORT", "7000")
	t.Setenv("CANVAS_PING_INTERVAL", "5s")
	t.Setenv("CANVAS_SEND_BUFFER_SIZE", "not-a-number")
	t.Setenv("NATS_SUBJECT_PREFIX", "ops.canvas")
	t.Setenv("CANVAS_MAX_MESSAGE_SIZE", "4194304")

	s := resolveSettings(file)

	assert.Equal(t, "7000", s.Port)
	assert.Equal(t, 5*time.Second, s.Gateway.ConnectionConfig.PingInterval)
	assert.Equal(t, 256, s.Gateway.ConnectionConfig.SendBufferSize, "invalid values fall back")
	assert.Equal(t, int64(4194304), s.Gateway.ConnectionConfig.MaxMessageSize)
	require.NotNil(t, s.NATS)
	assert.Equal(t, "ops.canvas", s.NATS.SubjectPrefix)
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = loadConfig(writeConfig(t, "port: [1, 2"))
	assert.Error(t, err)
}

func TestOriginChecker(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    bool
	}{
		{name: "wildcard", allowed: []string{"*"}, origin: "https://anywhere.test", want: true},
		{name: "listed", allowed: []string{"https://a.test"}, origin: "https://a.test", want: true},
		{name: "unlisted", allowed: []string{"https://a.test"}, origin: "https://b.test", want: false},
		{name: "no origin header", allowed: []string{"https://a.test"}, origin: "", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/ws", nil)
			if tt.origin != "" {
				r.Header.Set("Origin", tt.origin)
			}
			assert.Equal(t, tt.want, originChecker(tt.allowed)(r))
		})
	}
}

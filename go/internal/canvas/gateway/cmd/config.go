package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/mcdev12/sketchroom/go/internal/canvas/bus"
	"github.com/mcdev12/sketchroom/go/internal/canvas/gateway"
)

// FileConfig is the optional YAML file named by CANVAS_CONFIG
type FileConfig struct {
	Port           string   `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	LogLevel       string   `yaml:"log_level"`

	Connection struct {
		WriteTimeout   time.Duration `yaml:"write_timeout"`
		ReadTimeout    time.Duration `yaml:"read_timeout"`
		PingInterval   time.Duration `yaml:"ping_interval"`
		MaxMessageSize int64         `yaml:"max_message_size"`
		SendBufferSize int           `yaml:"send_buffer_size"`
	} `yaml:"connection"`

	NATS struct {
		URL           string `yaml:"url"`
		SubjectPrefix string `yaml:"subject_prefix"`
	} `yaml:"nats"`
}

// Settings is the resolved gateway configuration
type Settings struct {
	Port           string
	AllowedOrigins []string
	LogLevel       string
	Gateway        gateway.Config
	// NATS is nil when the event tap is disabled
	NATS *bus.Config
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
		log.Warn().Str("key", key).Str("value", value).Msg("ignoring non-integer environment value")
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		log.Warn().Str("key", key).Str("value", value).Msg("ignoring invalid duration in environment")
	}
	return defaultValue
}

func loadConfig(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config FileConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
}

// resolveSettings layers defaults, then the config file, then the environment
func resolveSettings(file *FileConfig) Settings {
	if file == nil {
		file = &FileConfig{}
	}

	s := Settings{
		Port:           "8081",
		AllowedOrigins: []string{"*"},
		LogLevel:       "info",
		Gateway:        gateway.DefaultConfig(),
	}

	if file.Port != "" {
		s.Port = file.Port
	}
	if len(file.AllowedOrigins) > 0 {
		s.AllowedOrigins = file.AllowedOrigins
	}
	if file.LogLevel != "" {
		s.LogLevel = file.LogLevel
	}

	conn := &s.Gateway.ConnectionConfig
	if file.Connection.WriteTimeout > 0 {
		conn.WriteTimeout = file.Connection.WriteTimeout
	}
	if file.Connection.ReadTimeout > 0 {
		conn.ReadTimeout = file.Connection.ReadTimeout
	}
	if file.Connection.PingInterval > 0 {
		conn.PingInterval = file.Connection.PingInterval
	}
	if file.Connection.MaxMessageSize > 0 {
		conn.MaxMessageSize = file.Connection.MaxMessageSize
	}
	if file.Connection.SendBufferSize > 0 {
		conn.SendBufferSize = file.Connection.SendBufferSize
	}

	s.Port = getEnv("CANVAS_PORT", s.Port)
	s.LogLevel = getEnv("LOG_LEVEL", s.LogLevel)
	conn.WriteTimeout = getEnvAsDuration("CANVAS_WRITE_TIMEOUT", conn.WriteTimeout)
	conn.ReadTimeout = getEnvAsDuration("CANVAS_READ_TIMEOUT", conn.ReadTimeout)
	conn.PingInterval = getEnvAsDuration("CANVAS_PING_INTERVAL", conn.PingInterval)
	conn.MaxMessageSize = int64(getEnvAsInt("CANVAS_MAX_MESSAGE_SIZE", int(conn.MaxMessageSize)))
	conn.SendBufferSize = getEnvAsInt("CANVAS_SEND_BUFFER_SIZE", conn.SendBufferSize)

	natsURL := getEnv("NATS_URL", file.NATS.URL)
	if natsURL != "" {
		natsCfg := bus.DefaultConfig()
		natsCfg.URL = natsURL
		if file.NATS.SubjectPrefix != "" {
			natsCfg.SubjectPrefix = file.NATS.SubjectPrefix
		}
		natsCfg.SubjectPrefix = getEnv("NATS_SUBJECT_PREFIX", natsCfg.SubjectPrefix)
		s.NATS = &natsCfg
	}

	return s
}

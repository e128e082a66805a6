package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/sketchroom/go/internal/canvas/bus"
	"github.com/mcdev12/sketchroom/go/internal/canvas/events"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	level, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	cfg := bus.DefaultConfig()
	cfg.URL = getEnv("NATS_URL", cfg.URL)
	cfg.SubjectPrefix = getEnv("NATS_SUBJECT_PREFIX", cfg.SubjectPrefix)
	cfg.Name = "canvas-tap"

	tap, err := bus.NewTap(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to NATS")
	}
	defer tap.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := tap.Run(ctx, logEvent); err != nil {
		log.Fatal().Err(err).Msg("event tap failed")
	}
}

func logEvent(eventType events.EventType, relayID string, frame []byte) {
	env, err := events.DecodeEnvelope(frame)
	if err != nil {
		log.Warn().Err(err).Str("relay_id", relayID).Msg("undecodable tapped frame")
		return
	}

	entry := log.Info().Str("event_type", string(eventType)).Str("relay_id", relayID)

	switch env.Type {
	case events.EventTypeDrawingBatch:
		var batch events.StrokeBatch
		if err := json.Unmarshal(env.Data, &batch); err != nil {
			entry.Err(err).Msg("drawing batch")
			return
		}
		entry.
			Str("participant_id", batch.ParticipantID).
			Str("display_name", batch.DisplayName).
			Int("points", len(batch.Points)).
			Str("color", batch.Color).
			Msg("drawing batch")

	case events.EventTypeParticipantJoined, events.EventTypeParticipantLeft:
		var p events.Participant
		if err := json.Unmarshal(env.Data, &p); err != nil {
			entry.Err(err).Msg("presence")
			return
		}
		entry.
			Str("participant_id", p.ParticipantID).
			Str("display_name", p.DisplayName).
			Msg("presence")

	default:
		if len(env.Data) > 0 {
			entry = entry.RawJSON("data", env.Data)
		}
		entry.Msg("event")
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

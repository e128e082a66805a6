package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mcdev12/sketchroom/go/internal/canvas/bus"
	"github.com/mcdev12/sketchroom/go/internal/canvas/gateway"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	// Setup logging
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	var fileConfig *FileConfig
	if path := os.Getenv("CANVAS_CONFIG"); path != "" {
		cfg, err := loadConfig(path)
		if err != nil {
			log.Fatal().Err(err).Str("path", path).Msg("failed to load config")
		}
		fileConfig = cfg
	}
	settings := resolveSettings(fileConfig)

	level, err := zerolog.ParseLevel(settings.LogLevel)
	if err != nil {
		log.Warn().Err(err).Str("level", settings.LogLevel).Msg("unknown log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	settings.Gateway.ConnectionConfig.CheckOrigin = originChecker(settings.AllowedOrigins)

	// The event tap is optional; without NATS_URL events are only relayed
	var publisher gateway.EventPublisher
	if settings.NATS != nil {
		p, err := bus.NewPublisher(*settings.NATS)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect event tap")
		}
		defer func() {
			if err := p.Close(); err != nil {
				log.Error().Err(err).Msg("failed to close event tap")
			}
		}()
		publisher = p
	}

	log.Info().
		Str("port", settings.Port).
		Strs("allowed_origins", settings.AllowedOrigins).
		Bool("event_tap", settings.NATS != nil).
		Msg("starting canvas gateway")

	gatewayService := gateway.NewService(settings.Gateway, publisher)

	mux := http.NewServeMux()
	gatewayService.RegisterRoutes(mux)

	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
		},
		AllowedOrigins: settings.AllowedOrigins,
		AllowedHeaders: []string{"*"},
	})

	server := &http.Server{
		Addr:        fmt.Sprintf(":%s", settings.Port),
		Handler:     h2c.NewHandler(c.Handler(mux), &http2.Server{}),
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := gatewayService.Start(ctx); err != nil {
			log.Error().Err(err).Msg("gateway service failed")
		}
	}()

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan

	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	// Hijacked WebSocket connections are not tracked by Shutdown; cancelling
	// the service closes them.
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}
	cancel()

	log.Info().Msg("canvas gateway shutdown complete")
}

// originChecker allows a WebSocket upgrade when the Origin header is absent
// or listed. "*" allows everything.
func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		if origin == "*" {
			return func(*http.Request) bool { return true }
		}
		set[origin] = struct{}{}
	}

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}

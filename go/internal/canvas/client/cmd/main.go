package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/sketchroom/go/internal/canvas/client"
	"github.com/mcdev12/sketchroom/go/internal/canvas/events"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("could not load .env file")
	}

	serverFlag := flag.String("server", "", "Gateway WebSocket URL (default: ws://localhost:8081/ws)")
	nameFlag := flag.String("name", "", "Display name, required on first use")
	identityFlag := flag.String("identity", "", "Identity file (default: ~/.sketchroom/identity.yaml)")
	color := flag.String("color", client.DefaultStyle().Color, "Stroke color for -demo")
	width := flag.Float64("width", client.DefaultStyle().Width, "Stroke width for -demo")
	demo := flag.Bool("demo", false, "Draw a sample stroke after joining")
	reset := flag.Bool("reset", false, "Clear everyone's canvas after joining")
	linger := flag.Duration("linger", 0, "Leave after this long (default: stay until interrupted)")
	verbose := flag.Bool("v", false, "Log every painted segment")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nEnvironment variables (used if flags not provided):\n")
		fmt.Fprintf(os.Stderr, "  CANVAS_SERVER_URL     - Gateway WebSocket URL\n")
		fmt.Fprintf(os.Stderr, "  CANVAS_DISPLAY_NAME   - Display name\n")
		fmt.Fprintf(os.Stderr, "  CANVAS_IDENTITY_FILE  - Identity file path\n")
	}
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	serverURL := firstNonEmpty(*serverFlag, os.Getenv("CANVAS_SERVER_URL"), "ws://localhost:8081/ws")
	displayName := firstNonEmpty(*nameFlag, os.Getenv("CANVAS_DISPLAY_NAME"))

	identityPath := firstNonEmpty(*identityFlag, os.Getenv("CANVAS_IDENTITY_FILE"))
	if identityPath == "" {
		path, err := client.DefaultIdentityPath()
		if err != nil {
			log.Fatal().Err(err).Msg("failed to resolve identity file")
		}
		identityPath = path
	}

	self, err := client.EnsureIdentity(client.NewFileIdentityStore(identityPath), displayName)
	if err != nil {
		log.Fatal().Err(err).Str("identity_file", identityPath).Msg("failed to load identity; pass -name on first use")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if *linger > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *linger)
		defer cancel()
	}

	c, err := client.Dial(ctx, client.DefaultConfig(serverURL))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect")
	}

	surface := &client.LogSurface{}
	session := client.NewSession(self, surface, c, client.DefaultSessionConfig())
	session.SetStyle(client.Style{Color: *color, Width: *width})

	log.Info().
		Str("participant_id", self.ParticipantID).
		Str("display_name", self.DisplayName).
		Msg("joining canvas")

	done := make(chan error, 1)
	go func() {
		done <- c.Run(ctx, session.HandleFrame)
	}()

	if err := session.Identify(); err != nil {
		log.Fatal().Err(err).Msg("failed to identify")
	}

	if *demo {
		drawSpiral(ctx, session)
	}
	if *reset {
		if err := session.Reset(); err != nil {
			log.Error().Err(err).Msg("failed to send reset")
		}
	}

	if err := <-done; err != nil {
		log.Error().Err(err).Msg("connection lost")
	}

	log.Info().
		Int("participants", len(session.Participants())).
		Uint64("segments", surface.Segments()).
		Msg("left canvas")
}

// drawSpiral moves the pen at roughly pointer speed so the flush timer
// batches the stroke the way a browser would
func drawSpiral(ctx context.Context, session *client.Session) {
	const steps = 60
	center := events.Point{X: 400, Y: 300}

	session.Press(center)
	for i := 1; i <= steps; i++ {
		select {
		case <-ctx.Done():
			session.Release()
			return
		case <-time.After(16 * time.Millisecond):
		}
		angle := float64(i) * 0.3
		radius := float64(i) * 3
		session.Move(events.Point{
			X: center.X + radius*math.Cos(angle),
			Y: center.Y + radius*math.Sin(angle),
		})
	}
	session.Release()
	log.Info().Int("points", steps).Msg("demo stroke sent")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

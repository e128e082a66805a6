package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var (
	// ErrClosed is returned when sending on a closed client
	ErrClosed = errors.New("client closed")
	// ErrSendBufferFull is returned when the writer cannot keep up
	ErrSendBufferFull = errors.New("client send buffer full")
)

// Config holds the client's connection settings
type Config struct {
	ServerURL      string
	WriteTimeout   time.Duration
	ReadTimeout    time.Duration
	PingInterval   time.Duration
	SendBufferSize int
}

// DefaultConfig returns client settings matching the gateway defaults
func DefaultConfig(serverURL string) Config {
	return Config{
		ServerURL:      serverURL,
		WriteTimeout:   10 * time.Second,
		ReadTimeout:    60 * time.Second,
		PingInterval:   30 * time.Second,
		SendBufferSize: 256,
	}
}

// Client is a WebSocket connection to the canvas gateway
type Client struct {
	config Config
	conn   *websocket.Conn
	send   chan []byte

	done      chan struct{}
	closeOnce sync.Once
}

// Dial connects to the gateway
func Dial(ctx context.Context, config Config) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, config.ServerURL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", config.ServerURL, err)
	}

	log.Info().Str("url", config.ServerURL).Msg("connected to canvas gateway")

	return &Client{
		config: config,
		conn:   conn,
		send:   make(chan []byte, config.SendBufferSize),
		done:   make(chan struct{}),
	}, nil
}

// Send queues frame for the writer without blocking
func (c *Client) Send(frame []byte) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}

	select {
	case c.send <- frame:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// Run reads frames and hands each to handle until the connection drops or
// ctx is cancelled. It starts the writer and closes the client on return.
func (c *Client) Run(ctx context.Context, handle func(frame []byte)) error {
	defer c.Close()

	go c.writePump()
	go func() {
		select {
		case <-ctx.Done():
			c.Close()
		case <-c.done:
		}
	}()

	c.conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))
		return nil
	})

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("read from gateway: %w", err)
		}

		handle(frame)
		c.conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))
	}
}

// Close sends a close frame and tears the connection down
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		deadline := time.Now().Add(time.Second)
		c.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		err = c.conn.Close()
	})
	return err
}

func (c *Client) writePump() {
	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return

		case frame := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				log.Error().Err(err).Msg("failed to write to gateway")
				c.Close()
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Error().Err(err).Msg("failed to send ping")
				c.Close()
				return
			}
		}
	}
}

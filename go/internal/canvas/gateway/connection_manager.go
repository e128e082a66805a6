package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var (
	// ErrUnknownConnection is returned when sending to a connection that is not open
	ErrUnknownConnection = errors.New("unknown connection")
	// ErrSendBufferFull is returned when a connection cannot keep up; the connection is closed
	ErrSendBufferFull = errors.New("connection send buffer full")
	// ErrManagerStopped is returned when the manager loop is no longer running
	ErrManagerStopped = errors.New("connection manager stopped")
)

// ConnectionHandler receives connection events, one at a time, from the manager loop
type ConnectionHandler interface {
	HandleOpen(connID string)
	HandleMessage(connID string, frame []byte)
	HandleClose(connID string)
}

// ConnectionManager owns the set of open WebSocket connections and runs the
// single loop on which every open, message and close event is processed
type ConnectionManager struct {
	connections map[string]*Connection
	mu          sync.RWMutex

	// Upgrader for WebSocket connections
	upgrader websocket.Upgrader

	// Connection configuration
	config ConnectionConfig

	handler ConnectionHandler

	eventCh chan connectionEvent
	started atomic.Bool
	stopped chan struct{}
}

// Connection represents a WebSocket connection to a client
type Connection struct {
	ID      string
	Conn    *websocket.Conn
	Send    chan []byte
	Manager *ConnectionManager

	ConnectedAt time.Time
}

// ConnectionConfig holds configuration for WebSocket connections
type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	SendBufferSize  int
	EventBufferSize int
	CheckOrigin     func(r *http.Request) bool
}

type connectionEventKind int

const (
	connectionOpened connectionEventKind = iota
	connectionMessage
	connectionClosed
)

type connectionEvent struct {
	kind  connectionEventKind
	conn  *Connection
	frame []byte
}

// DefaultConnectionConfig returns default WebSocket configuration
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  1 << 20, // a batch holds every point drawn until the pen rests
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		SendBufferSize:  256,
		EventBufferSize: 1000,
		CheckOrigin: func(r *http.Request) bool {
			// Allow all origins in development - restrict in production
			return true
		},
	}
}

// NewConnectionManager creates a new WebSocket connection manager
func NewConnectionManager(config ConnectionConfig, handler ConnectionHandler) *ConnectionManager {
	return &ConnectionManager{
		connections: make(map[string]*Connection),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config:  config,
		handler: handler,
		eventCh: make(chan connectionEvent, config.EventBufferSize),
		stopped: make(chan struct{}),
	}
}

// Start processes connection events until ctx is cancelled. Events are
// handled strictly in arrival order; handlers must not block.
func (cm *ConnectionManager) Start(ctx context.Context) {
	log.Info().Msg("connection manager started")
	cm.started.Store(true)
	defer close(cm.stopped)

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("connection manager shutting down")
			cm.closeAll()
			return
		case event := <-cm.eventCh:
			cm.handleEvent(event)
		}
	}
}

// UpgradeConnection upgrades an HTTP connection to WebSocket
func (cm *ConnectionManager) UpgradeConnection(w http.ResponseWriter, r *http.Request) error {
	conn, err := cm.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("failed to upgrade connection: %w", err)
	}

	connection := &Connection{
		ID:          uuid.New().String(),
		Conn:        conn,
		Send:        make(chan []byte, cm.config.SendBufferSize),
		Manager:     cm,
		ConnectedAt: time.Now(),
	}

	// The open event is queued before the pumps start so it is always
	// processed ahead of the connection's first message.
	if !cm.post(connectionEvent{kind: connectionOpened, conn: connection}) {
		conn.Close()
		return ErrManagerStopped
	}

	go connection.writePump()
	go connection.readPump()

	log.Info().
		Str("connection_id", connection.ID).
		Str("remote_addr", r.RemoteAddr).
		Msg("WebSocket connection established")

	return nil
}

// Send queues frame for a single connection
func (cm *ConnectionManager) Send(connID string, frame []byte) error {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	conn, ok := cm.connections[connID]
	if !ok {
		return ErrUnknownConnection
	}
	if !conn.enqueue(frame) {
		return ErrSendBufferFull
	}
	return nil
}

// Broadcast queues frame for every open connection except exclude
func (cm *ConnectionManager) Broadcast(frame []byte, exclude string) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	sent := 0
	for id, conn := range cm.connections {
		if id == exclude {
			continue
		}
		if conn.enqueue(frame) {
			sent++
		}
	}

	log.Debug().
		Int("connections", sent).
		Str("excluded", exclude).
		Msg("frame broadcasted")
}

// Running reports whether the manager loop is processing events
func (cm *ConnectionManager) Running() bool {
	if !cm.started.Load() {
		return false
	}
	select {
	case <-cm.stopped:
		return false
	default:
		return true
	}
}

// ConnectionCount returns the number of open connections
func (cm *ConnectionManager) ConnectionCount() int {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return len(cm.connections)
}

func (cm *ConnectionManager) post(event connectionEvent) bool {
	select {
	case cm.eventCh <- event:
		return true
	case <-cm.stopped:
		return false
	}
}

func (cm *ConnectionManager) handleEvent(event connectionEvent) {
	conn := event.conn

	switch event.kind {
	case connectionOpened:
		cm.mu.Lock()
		cm.connections[conn.ID] = conn
		total := len(cm.connections)
		cm.mu.Unlock()

		log.Debug().
			Str("connection_id", conn.ID).
			Int("total_connections", total).
			Msg("connection registered")

		cm.handler.HandleOpen(conn.ID)

	case connectionMessage:
		cm.mu.RLock()
		_, open := cm.connections[conn.ID]
		cm.mu.RUnlock()
		if !open {
			return
		}
		cm.handler.HandleMessage(conn.ID, event.frame)

	case connectionClosed:
		cm.mu.Lock()
		_, open := cm.connections[conn.ID]
		if open {
			delete(cm.connections, conn.ID)
			close(conn.Send)
		}
		cm.mu.Unlock()
		if !open {
			return
		}

		log.Info().
			Str("connection_id", conn.ID).
			Dur("connected_for", time.Since(conn.ConnectedAt)).
			Msg("connection unregistered")

		cm.handler.HandleClose(conn.ID)
	}
}

func (cm *ConnectionManager) closeAll() {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	for id, conn := range cm.connections {
		delete(cm.connections, id)
		close(conn.Send)
	}
}

// enqueue must be called with the manager lock held so Send cannot be closed
// underneath it
func (c *Connection) enqueue(frame []byte) bool {
	select {
	case c.Send <- frame:
		return true
	default:
		// Connection is slow/dead, close it; readPump reports the disconnect
		log.Warn().
			Str("connection_id", c.ID).
			Msg("connection send buffer full, closing connection")
		c.Conn.Close()
		return false
	}
}

// writePump handles sending messages to the WebSocket connection
func (c *Connection) writePump() {
	ticker := time.NewTicker(c.Manager.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if !ok {
				// Channel was closed
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("failed to write message to WebSocket")
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("failed to send ping")
				return
			}
		}
	}
}

// readPump handles reading messages from the WebSocket connection
func (c *Connection) readPump() {
	defer func() {
		c.Manager.post(connectionEvent{kind: connectionClosed, conn: c})
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.Manager.config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("unexpected WebSocket close error")
			}
			break
		}

		log.Debug().
			Str("connection_id", c.ID).
			Int("bytes", len(message)).
			Msg("received client message")

		if !c.Manager.post(connectionEvent{kind: connectionMessage, conn: c, frame: message}) {
			return
		}
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	}
}

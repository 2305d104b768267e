package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

// WebSocket upgrader with default settings
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins (can be restricted in production)
		return true
	},
}

// WatchManager manages active counter watch connections
type WatchManager struct {
	defaultInterval time.Duration
	connections     map[string]*WatchConnection
	mu              sync.RWMutex
}

// WatchConnection represents an active WebSocket connection watching counters
type WatchConnection struct {
	id         string
	conn       *websocket.Conn
	cancelFunc context.CancelFunc
	mu         sync.Mutex
}

// NewWatchManager creates a new watch manager
func NewWatchManager(defaultInterval time.Duration) *WatchManager {
	if defaultInterval <= 0 {
		defaultInterval = time.Second
	}
	return &WatchManager{
		defaultInterval: defaultInterval,
		connections:     make(map[string]*WatchConnection),
	}
}

// Close closes the watch manager and all active connections
func (m *WatchManager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, conn := range m.connections {
		conn.Close()
	}
	m.connections = make(map[string]*WatchConnection)
	return nil
}

// ConnectionCount returns the number of active watch connections
func (m *WatchManager) ConnectionCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.connections)
}

// addConnection registers a new connection
func (m *WatchManager) addConnection(conn *WatchConnection) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connections[conn.id] = conn
}

// removeConnection unregisters a connection
func (m *WatchManager) removeConnection(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.connections, id)
}

// Close closes a watch connection
func (c *WatchConnection) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancelFunc != nil {
		c.cancelFunc()
	}
	if c.conn != nil {
		c.conn.Close()
	}
}

// WatchRequest represents the WebSocket connection request.
// An empty counter list subscribes to every cell in the registry.
type WatchRequest struct {
	Counters   []string `json:"counters,omitempty"`
	IntervalMS int      `json:"interval_ms,omitempty"`
}

// WatchResponse represents a response sent over WebSocket
type WatchResponse struct {
	Type     string           `json:"type"` // "connected", "snapshot", "heartbeat", "error"
	Counters map[string]int32 `json:"counters,omitempty"`
	Message  string           `json:"message,omitempty"`
	Error    string           `json:"error,omitempty"`
}

// HandleWatch handles WebSocket connections for counter watching.
// The server polls the registry at the requested interval and pushes a
// snapshot whenever the watched values change; heartbeats keep idle
// connections alive.
func (h *Handlers) HandleWatch(manager *WatchManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Upgrade HTTP connection to WebSocket
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("Failed to upgrade connection: %v", err)
			return
		}

		// Generate connection ID
		connID := fmt.Sprintf("ws-%d", time.Now().UnixNano())

		// Create context for this connection. The request context is not
		// used: the router's timeout middleware would cancel it long before
		// a watch connection is done.
		ctx, cancel := context.WithCancel(context.Background())

		// Create connection object
		wsConn := &WatchConnection{
			id:         connID,
			conn:       conn,
			cancelFunc: cancel,
		}

		// Register connection
		manager.addConnection(wsConn)
		defer func() {
			manager.removeConnection(connID)
			wsConn.Close()
		}()

		// Read initial request from client
		var req WatchRequest
		if err := conn.ReadJSON(&req); err != nil {
			sendError(conn, fmt.Sprintf("Failed to read request: %v", err))
			return
		}

		interval := manager.defaultInterval
		if req.IntervalMS > 0 {
			interval = time.Duration(req.IntervalMS) * time.Millisecond
		}
		if interval < 50*time.Millisecond {
			interval = 50 * time.Millisecond
		}

		// Send acknowledgment
		ack := WatchResponse{
			Type:    "connected",
			Message: "Counter watch connected successfully",
		}
		if err := conn.WriteJSON(ack); err != nil {
			log.Printf("Failed to send acknowledgment: %v", err)
			return
		}

		// Start heartbeat goroutine to keep connection alive
		heartbeatTicker := time.NewTicker(30 * time.Second)
		defer heartbeatTicker.Stop()

		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case <-heartbeatTicker.C:
					wsConn.mu.Lock()
					err := conn.WriteJSON(WatchResponse{
						Type:    "heartbeat",
						Message: "keepalive",
					})
					wsConn.mu.Unlock()
					if err != nil {
						log.Printf("Failed to send heartbeat: %v", err)
						cancel()
						return
					}
				}
			}
		}()

		// Read control messages from client (e.g., close)
		go func() {
			for {
				var msg map[string]interface{}
				if err := conn.ReadJSON(&msg); err != nil {
					cancel()
					return
				}
				// Handle control messages if needed
			}
		}()

		// Poll the registry and stream snapshots to the client
		pollTicker := time.NewTicker(interval)
		defer pollTicker.Stop()

		var lastSent map[string]int32
		send := func(snapshot map[string]int32) bool {
			wsConn.mu.Lock()
			err := conn.WriteJSON(WatchResponse{
				Type:     "snapshot",
				Counters: snapshot,
			})
			wsConn.mu.Unlock()
			if err != nil {
				log.Printf("Failed to send snapshot: %v", err)
				return false
			}
			lastSent = snapshot
			return true
		}

		// Initial snapshot confirms the subscription immediately
		if !send(h.snapshotFor(req.Counters)) {
			return
		}

		for {
			select {
			case <-ctx.Done():
				return
			case <-pollTicker.C:
				snapshot := h.snapshotFor(req.Counters)
				if snapshotsEqual(snapshot, lastSent) {
					continue
				}
				if !send(snapshot) {
					return
				}
			}
		}
	}
}

// snapshotFor builds a snapshot restricted to the requested counter names.
// Names that do not exist yet are omitted until they are first used.
func (h *Handlers) snapshotFor(names []string) map[string]int32 {
	if len(names) == 0 {
		return h.registry.Snapshot()
	}

	snapshot := make(map[string]int32, len(names))
	for _, name := range names {
		if cell, ok := h.registry.Lookup(name); ok {
			snapshot[name] = cell.Load()
		}
	}
	return snapshot
}

// snapshotsEqual reports whether two snapshots carry identical values
func snapshotsEqual(a, b map[string]int32) bool {
	if len(a) != len(b) {
		return false
	}
	for name, value := range a {
		if other, ok := b[name]; !ok || other != value {
			return false
		}
	}
	return true
}

// sendError sends an error message to the WebSocket client
func sendError(conn *websocket.Conn, message string) {
	response := WatchResponse{
		Type:  "error",
		Error: message,
	}
	conn.WriteJSON(response)
}

// HandleWatchHTTP handles HTTP endpoint describing the watch API (alternative to WebSocket)
func (h *Handlers) HandleWatchHTTP() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)

		encoder := json.NewEncoder(w)
		encoder.Encode(map[string]string{
			"message":  "Use WebSocket endpoint /_ws/watch for streaming counter snapshots",
			"endpoint": "ws://<host>:<port>/_ws/watch",
		})
	}
}

// SetupWatchRoutes adds WebSocket watch routes to the router
func SetupWatchRoutes(r chi.Router, h *Handlers, defaultInterval time.Duration) *WatchManager {
	manager := NewWatchManager(defaultInterval)

	// Add WebSocket route for counter watching
	r.Get("/_ws/watch", h.HandleWatch(manager))

	// Add HTTP endpoint for documentation
	r.Post("/_watch", h.HandleWatchHTTP())

	return manager
}

// Package broadcast fans analysis events out to WebSocket clients.
package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Config tunes per-connection buffering and keepalive.
type Config struct {
	// BufferSize is the outbound queue length per client. A client whose
	// queue is full is disconnected.
	BufferSize int
	// WriteTimeout bounds every frame written to a client.
	WriteTimeout time.Duration
	// PingInterval is how often the server pings idle clients.
	PingInterval time.Duration
	// AllowedOrigins limits the browser origins allowed to connect.
	// Empty allows any origin.
	AllowedOrigins []string
}

func DefaultConfig() Config {
	return Config{
		BufferSize:   256,
		WriteTimeout: 10 * time.Second,
		PingInterval: 30 * time.Second,
	}
}

// ClientInfo is what the server knows about the remote end.
type ClientInfo struct {
	UserAgent   string `json:"user_agent"`
	Origin      string `json:"origin"`
	ConnectedAt string `json:"connected_at"`
}

// ConnectionInfo describes one live connection.
type ConnectionInfo struct {
	ConnectionID string     `json:"connection_id"`
	ConnectedAt  string     `json:"connected_at"`
	ClientInfo   ClientInfo `json:"client_info"`
}

type client struct {
	info      ConnectionInfo
	joined    time.Time
	conn      *websocket.Conn
	send      chan []byte
	closeOnce sync.Once
}

func (c *client) close() {
	c.closeOnce.Do(func() { close(c.send) })
}

// Hub tracks connected clients and broadcasts to them without blocking on
// slow readers.
type Hub struct {
	cfg      Config
	log      *zap.Logger
	upgrader websocket.Upgrader

	mu        sync.RWMutex
	clients   map[string]*client
	onConnect func()
}

func NewHub(cfg Config, log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	defaults := DefaultConfig()
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = defaults.BufferSize
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = defaults.WriteTimeout
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = defaults.PingInterval
	}

	h := &Hub{
		cfg:     cfg,
		log:     log,
		clients: make(map[string]*client),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	if len(h.cfg.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range h.cfg.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// OnConnect registers fn to run in its own goroutine after each new client
// has been welcomed.
func (h *Hub) OnConnect(fn func()) {
	h.mu.Lock()
	h.onConnect = fn
	h.mu.Unlock()
}

// Count returns the number of live connections.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Connections lists live connections ordered by connect time.
func (h *Hub) Connections() []ConnectionInfo {
	h.mu.RLock()
	live := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		live = append(live, c)
	}
	h.mu.RUnlock()

	sort.Slice(live, func(i, j int) bool {
		return live[i].joined.Before(live[j].joined)
	})

	out := make([]ConnectionInfo, 0, len(live))
	for _, c := range live {
		out = append(out, c.info)
	}
	return out
}

// Publish encodes v once and queues it for every client. It only fails when
// v cannot be encoded.
func (h *Hub) Publish(ctx context.Context, v any) error {
	msg, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode broadcast: %w", err)
	}

	h.mu.RLock()
	targets := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	if len(targets) == 0 {
		h.log.Debug("No active connections to broadcast to")
		return nil
	}

	for _, c := range targets {
		if !h.enqueue(c, msg) {
			h.log.Warn("Dropping slow WebSocket client", zap.String("connection_id", c.info.ConnectionID))
			h.unregister(c)
		}
	}
	return nil
}

// BroadcastSystemStatus publishes a system_status message.
func (h *Hub) BroadcastSystemStatus(ctx context.Context, status string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	err := h.Publish(ctx, map[string]any{
		"type":      "system_status",
		"status":    status,
		"details":   details,
		"timestamp": now(),
	})
	if err == nil {
		h.log.Info("System status broadcasted", zap.String("status", status))
	}
	return err
}

func (h *Hub) enqueue(c *client, msg []byte) (ok bool) {
	defer func() {
		// send was closed by a concurrent unregister
		if recover() != nil {
			ok = true
		}
	}()
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c.info.ConnectionID] = c
	total := len(h.clients)
	h.mu.Unlock()

	h.log.Info("New WebSocket connection established",
		zap.String("connection_id", c.info.ConnectionID),
		zap.Int("total_connections", total))
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c.info.ConnectionID]
	delete(h.clients, c.info.ConnectionID)
	total := len(h.clients)
	h.mu.Unlock()

	c.close()
	if ok {
		h.log.Info("WebSocket connection closed",
			zap.String("connection_id", c.info.ConnectionID),
			zap.Int("total_connections", total))
	}
}

// ServeHTTP upgrades the request and serves the client until it disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	joined := time.Now()
	connectedAt := joined.Format(time.RFC3339Nano)
	c := &client{
		joined: joined,
		conn:   conn,
		send:   make(chan []byte, h.cfg.BufferSize),
		info: ConnectionInfo{
			ConnectionID: uuid.NewString(),
			ConnectedAt:  connectedAt,
			ClientInfo: ClientInfo{
				UserAgent:   headerOr(r, "User-Agent", "unknown"),
				Origin:      headerOr(r, "Origin", "unknown"),
				ConnectedAt: connectedAt,
			},
		},
	}

	// queued before register so the welcome is always the first frame
	h.reply(c, map[string]any{
		"type":          "connection_established",
		"message":       "Connected to Quantum Brain WebSocket",
		"timestamp":     now(),
		"connection_id": c.info.ConnectionID,
	})
	h.register(c)
	go h.writePump(c)

	h.mu.RLock()
	onConnect := h.onConnect
	h.mu.RUnlock()
	if onConnect != nil {
		go onConnect()
	}

	h.readPump(c)
}

func (h *Hub) readPump(c *client) {
	defer func() {
		h.unregister(c)
		_ = c.conn.Close()
	}()

	readWait := 2 * h.cfg.PingInterval
	_ = c.conn.SetReadDeadline(time.Now().Add(readWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(readWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Warn("WebSocket read error", zap.Error(err))
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(readWait))
		h.handleMessage(c, data)
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(h.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.log.Debug("WebSocket write failed", zap.Error(err))
				h.unregister(c)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.unregister(c)
				return
			}
		}
	}
}

func (h *Hub) reply(c *client, v any) {
	msg, err := json.Marshal(v)
	if err != nil {
		h.log.Error("Failed to encode reply", zap.Error(err))
		return
	}
	if !h.enqueue(c, msg) {
		h.unregister(c)
	}
}

func (h *Hub) handleMessage(c *client, data []byte) {
	var msg map[string]any
	if err := json.Unmarshal(data, &msg); err != nil {
		h.reply(c, map[string]any{
			"type":      "error",
			"message":   "Invalid JSON format",
			"timestamp": now(),
		})
		return
	}

	msgType, _ := msg["type"].(string)
	switch msgType {
	case "ping":
		h.reply(c, map[string]any{
			"type":      "pong",
			"timestamp": now(),
		})

	case "subscribe":
		subscription, ok := msg["subscription"].(string)
		if !ok || subscription == "" {
			subscription = "all"
		}
		h.reply(c, map[string]any{
			"type":         "subscription_confirmed",
			"subscription": subscription,
			"message":      fmt.Sprintf("Subscribed to %s updates", subscription),
			"timestamp":    now(),
		})

	case "request_status":
		h.reply(c, map[string]any{
			"type":   "system_status",
			"status": "online",
			"details": map[string]any{
				"active_connections": h.Count(),
				"uptime":             "operational",
				"timestamp":          now(),
			},
		})

	case "request_connections":
		connections := h.Connections()
		h.reply(c, map[string]any{
			"type":              "connection_info",
			"connections":       connections,
			"total_connections": len(connections),
			"timestamp":         now(),
		})

	default:
		h.reply(c, map[string]any{
			"type":             "message_received",
			"original_message": msg,
			"timestamp":        now(),
		})
	}
}

func headerOr(r *http.Request, key, fallback string) string {
	if v := r.Header.Get(key); v != "" {
		return v
	}
	return fallback
}

func now() string {
	return time.Now().Format(time.RFC3339Nano)
}

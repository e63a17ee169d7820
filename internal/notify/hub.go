// Package notify pushes progression events to connected browsers over WebSocket.
package notify

import (
	"encoding/json"
	"net/http"
	"net/url"
	"sync"
	"time"

	"finlearn/internal/logger"

	"github.com/gorilla/websocket"
)

const (
	sendBuffer = 16
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Message is the JSON frame sent to clients
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type client struct {
	userID string
	conn   *websocket.Conn
	send   chan []byte
	hub    *Hub
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		c.hub.remove(c)
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards client frames and returns when the connection drops
func (c *client) readPump() {
	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Hub tracks connected clients per user
type Hub struct {
	mu       sync.RWMutex
	clients  map[string]map[*client]struct{}
	upgrader websocket.Upgrader
	log      *logger.Logger
}

// NewHub creates a hub. An empty allowedOrigins list accepts same-host and
// localhost origins only.
func NewHub(allowedOrigins []string, log *logger.Logger) *Hub {
	if log == nil {
		log = logger.Nop()
	}
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	h := &Hub{
		clients: make(map[string]map[*client]struct{}),
		log:     log.With("component", "notify"),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return checkOrigin(r, allowed)
		},
	}
	return h
}

func checkOrigin(r *http.Request, allowed map[string]bool) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if allowed[origin] || allowed["*"] {
		return true
	}
	parsed, err := url.Parse(origin)
	if err != nil || parsed.Host == "" {
		return false
	}
	if parsed.Host == r.Host {
		return true
	}
	host := parsed.Hostname()
	return len(allowed) == 0 && (host == "localhost" || host == "127.0.0.1" || host == "::1")
}

// Serve upgrades the request and registers the connection for userID. It
// blocks until the client disconnects.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, userID string) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "error", err)
		return
	}

	c := &client{userID: userID, conn: conn, send: make(chan []byte, sendBuffer), hub: h}
	h.add(c)
	h.log.Debug("websocket client connected", "user_id", userID)

	go c.writePump()
	c.readPump()
	h.remove(c)
	h.log.Debug("websocket client disconnected", "user_id", userID)
}

func (h *Hub) add(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[c.userID]
	if !ok {
		set = make(map[*client]struct{})
		h.clients[c.userID] = set
	}
	set[c] = struct{}{}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[c.userID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	close(c.send)
	if len(set) == 0 {
		delete(h.clients, c.userID)
	}
}

// Publish sends an event to every connection of userID. A client whose buffer
// is full misses the message.
func (h *Hub) Publish(userID, eventType string, payload interface{}) {
	data, err := json.Marshal(Message{Type: eventType, Payload: payload})
	if err != nil {
		h.log.Error("failed to marshal event", "type", eventType, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients[userID] {
		select {
		case c.send <- data:
		default:
			h.log.Warn("websocket client too slow, dropping event", "user_id", userID, "type", eventType)
		}
	}
}

// ClientCount returns the number of open connections for userID
func (h *Hub) ClientCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// Close disconnects every client
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for userID, set := range h.clients {
		for c := range set {
			close(c.send)
		}
		delete(h.clients, userID)
	}
}

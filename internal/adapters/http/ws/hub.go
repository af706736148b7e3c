// Package ws serves the real-time viewer channel. Viewers join tournaments
// and receive payload-free change notifications for them.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/okian/strikeboard/internal/domain/model"
	"github.com/okian/strikeboard/pkg/logger"
	"github.com/okian/strikeboard/pkg/metrics"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024
	sendBuffer     = 32
)

// Client message types.
const (
	JoinTournament  = "join-tournament"
	LeaveTournament = "leave-tournament"
)

// ClientMessage is what viewers send over the socket.
type ClientMessage struct {
	Type         string `json:"type"`
	TournamentID string `json:"tournamentId"`
}

// Hub tracks connected viewers and forwards notifications to those joined
// to the matching tournament.
type Hub struct {
	upgrader websocket.Upgrader
	logger   logger.Logger

	register   chan *client
	unregister chan *client
	broadcast  chan model.Notification

	clients map[*client]struct{} // owned by Run
	count   atomic.Int64
	done    chan struct{}
}

// Option configures a Hub.
type Option func(*Hub)

// WithLogger sets the hub logger.
func WithLogger(l logger.Logger) Option {
	return func(h *Hub) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithAllowedOrigins restricts websocket upgrades to the given origins.
// "*" or an empty list accepts any origin.
func WithAllowedOrigins(origins []string) Option {
	return func(h *Hub) {
		allowed := make(map[string]struct{}, len(origins))
		for _, o := range origins {
			if o == "*" {
				return
			}
			allowed[o] = struct{}{}
		}
		if len(allowed) == 0 {
			return
		}
		h.upgrader.CheckOrigin = func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			_, ok := allowed[origin]
			return ok
		}
	}
}

// NewHub creates a hub. Call Run before serving connections.
func NewHub(opts ...Option) *Hub {
	h := &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		logger:     logger.Get().Named("ws"),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan model.Notification, 256),
		clients:    make(map[*client]struct{}),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run owns the client set until ctx is done, then disconnects everyone.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				h.drop(c)
			}
			return
		case c := <-h.register:
			h.clients[c] = struct{}{}
			h.updateCount()
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				h.drop(c)
			}
		case n := <-h.broadcast:
			h.deliver(n)
		}
	}
}

// Forward pumps notifications from a subscription into the hub until the
// channel closes or ctx is done.
func (h *Hub) Forward(ctx context.Context, notifications <-chan model.Notification) {
	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-notifications:
			if !ok {
				return
			}
			h.Notify(n)
		}
	}
}

// Notify queues a notification for delivery. It never blocks; when the hub
// is saturated the notification is dropped.
func (h *Hub) Notify(n model.Notification) {
	select {
	case h.broadcast <- n:
	default:
		metrics.RecordNotificationDropped()
	}
}

// Count returns the number of connected viewers.
func (h *Hub) Count() int {
	return int(h.count.Load())
}

// ServeHTTP upgrades the request and serves one viewer.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn(r.Context(), "websocket upgrade failed", logger.Error(err))
		return
	}
	c := &client{
		hub:         h,
		conn:        conn,
		send:        make(chan []byte, sendBuffer),
		tournaments: make(map[string]struct{}),
	}
	select {
	case h.register <- c:
	case <-h.done:
		_ = conn.Close()
		return
	}
	go c.writePump()
	go c.readPump()
}

func (h *Hub) deliver(n model.Notification) {
	payload, err := json.Marshal(n)
	if err != nil {
		h.logger.Error(context.Background(), "failed to marshal notification", logger.Error(err))
		return
	}
	for c := range h.clients {
		if !c.joined(n.TournamentID) {
			continue
		}
		select {
		case c.send <- payload:
			metrics.RecordNotificationDelivered()
		default:
			// Slow viewer; it rebuilds on its next notification or poll.
			metrics.RecordNotificationDropped()
		}
	}
}

func (h *Hub) drop(c *client) {
	delete(h.clients, c)
	close(c.send)
	h.updateCount()
}

func (h *Hub) updateCount() {
	h.count.Store(int64(len(h.clients)))
	metrics.UpdateWSClients(len(h.clients))
}

type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	mu          sync.RWMutex
	tournaments map[string]struct{}
}

func (c *client) joined(tournamentID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.tournaments[tournamentID]
	return ok
}

func (c *client) handle(raw []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(raw, &msg); err != nil || msg.TournamentID == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	switch msg.Type {
	case JoinTournament:
		c.tournaments[msg.TournamentID] = struct{}{}
	case LeaveTournament:
		delete(c.tournaments, msg.TournamentID)
	}
}

func (c *client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Debug(context.Background(), "viewer connection closed", logger.Error(err))
			}
			return
		}
		c.handle(raw)
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
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

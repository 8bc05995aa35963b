package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/aditpras/lapakchat/internal/domain"
	"github.com/aditpras/lapakchat/internal/relay"
	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

var (
	errChannelClosed = errors.New("channel closed")
	errChannelFull   = errors.New("channel buffer full")
)

// outboundBuffer bounds how many undelivered messages a session may
// accumulate before it is considered broken and dropped.
const outboundBuffer = 32

// wsChannel adapts a websocket connection to relay.Channel through a
// buffered queue: registry writes never block on the peer, and a full
// queue reports an error so the registry can self-heal.
type wsChannel struct {
	mu     sync.Mutex
	out    chan domain.Message
	closed bool
}

func newWSChannel() *wsChannel {
	return &wsChannel{out: make(chan domain.Message, outboundBuffer)}
}

// Send enqueues a message for the write loop.
func (c *wsChannel) Send(msg domain.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errChannelClosed
	}
	select {
	case c.out <- msg:
		return nil
	default:
		return errChannelFull
	}
}

// Close shuts the queue down; the write loop drains and exits.
func (c *wsChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.out)
	}
	return nil
}

// WebSocketHandler serves the join half of the relay contract: a
// long-lived push stream of messages for one session.
type WebSocketHandler struct {
	registry      *relay.Registry
	allowedOrigin string
	isDev         bool
}

// NewWebSocketHandler creates a new WebSocket handler.
func NewWebSocketHandler(registry *relay.Registry, allowedOrigin string, isDev bool) *WebSocketHandler {
	return &WebSocketHandler{
		registry:      registry,
		allowedOrigin: allowedOrigin,
		isDev:         isDev,
	}
}

// ServeHTTP upgrades the connection and joins the session described by
// the query parameters: id, username, role. The stream stays open
// until either side closes it; every exit path removes the session.
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.URL.Query().Get("id"))
	username := strings.TrimSpace(r.URL.Query().Get("username"))
	role, err := domain.ParseRole(r.URL.Query().Get("role"))
	if id == "" || err != nil {
		http.Error(w, "id and a valid role are required", http.StatusBadRequest)
		return
	}
	slog.Info("Chat join request", "id", id, "role", role, "ip", r.RemoteAddr)

	if !h.checkOrigin(r) {
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("Failed to accept WebSocket", "error", err, "id", id)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "session ended"); closeErr != nil {
			slog.Debug("Failed to close websocket", "error", closeErr, "id", id)
		}
	}()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	ch := newWSChannel()
	h.registry.Join(id, username, role, ch)
	defer h.registry.Disconnect(id, role, ch)

	// Write loop: registry -> peer. Ends when the channel is closed
	// (session replaced or left) or a write fails.
	go func() {
		defer cancel()
		for msg := range ch.out {
			if writeErr := wsjson.Write(ctx, ws, msg); writeErr != nil {
				slog.Debug("WebSocket write failed", "id", id, "role", role, "error", writeErr)
				h.registry.Disconnect(id, role, ch)
				return
			}
		}
	}()

	// Read loop: inbound frames are not part of the contract (sends go
	// through the send endpoint); reading only detects peer close.
	for {
		if _, _, readErr := ws.Read(ctx); readErr != nil {
			slog.Info("Chat stream closed", "id", id, "role", role)
			return
		}
	}
}

func (h *WebSocketHandler) checkOrigin(r *http.Request) bool {
	if h.isDev || h.allowedOrigin == "" {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	originURL, err := url.Parse(origin)
	if err != nil {
		return false
	}
	allowedURL, err := url.Parse(h.allowedOrigin)
	if err != nil {
		return false
	}
	return strings.EqualFold(originURL.Host, allowedURL.Host)
}

// Package notify delivers domain events to live subscribers and the events topic.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"TechMart/internal/domain/models"
	applogger "TechMart/pkg/logger"

	"github.com/gorilla/websocket"
)

var ErrHubClosed = errors.New("notification hub closed")

// HubConfig tunes subscriber connections.
type HubConfig struct {
	PingInterval time.Duration
	WriteWait    time.Duration
	SendBuffer   int
	MaxReadBytes int64
	CheckOrigin  func(r *http.Request) bool
}

type HubOption func(*HubConfig)

func WithPingInterval(d time.Duration) HubOption {
	return func(c *HubConfig) { c.PingInterval = d }
}

func WithSendBuffer(n int) HubOption {
	return func(c *HubConfig) { c.SendBuffer = n }
}

// WithAllowedOrigins restricts upgrades to the listed origins; "*" allows any.
func WithAllowedOrigins(origins []string) HubOption {
	return func(c *HubConfig) {
		c.CheckOrigin = func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			for _, o := range origins {
				if o == "*" || o == origin {
					return true
				}
			}
			return false
		}
	}
}

type subscriber struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (s *subscriber) close() {
	s.once.Do(func() {
		close(s.send)
	})
}

// Hub is the registry of live WebSocket subscribers. It is owned by the
// server and closed on shutdown.
type Hub struct {
	mu       sync.RWMutex
	subs     map[*subscriber]struct{}
	closed   bool
	cfg      HubConfig
	upgrader websocket.Upgrader
	l        *applogger.Logger
}

func NewHub(l *applogger.Logger, opts ...HubOption) *Hub {
	cfg := HubConfig{
		PingInterval: 30 * time.Second,
		WriteWait:    10 * time.Second,
		SendBuffer:   64,
		MaxReadBytes: 4096,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if l == nil {
		l = applogger.Nop()
	}
	return &Hub{
		subs: make(map[*subscriber]struct{}),
		cfg:  cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     cfg.CheckOrigin,
		},
		l: l,
	}
}

// ServeWS upgrades the request and registers the connection until it drops.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("websocket upgrade: %w", err)
	}
	s := &subscriber{conn: conn, send: make(chan []byte, h.cfg.SendBuffer)}
	if err := h.register(s); err != nil {
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"))
		conn.Close()
		return err
	}

	go h.writeLoop(s)
	go h.readLoop(s)
	return nil
}

func (h *Hub) register(s *subscriber) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrHubClosed
	}
	h.subs[s] = struct{}{}
	h.l.Debug("websocket subscriber registered", applogger.Int("subscribers", len(h.subs)))
	return nil
}

func (h *Hub) unregister(s *subscriber) {
	h.mu.Lock()
	if _, ok := h.subs[s]; ok {
		delete(h.subs, s)
		s.close()
	}
	n := len(h.subs)
	h.mu.Unlock()
	h.l.Debug("websocket subscriber unregistered", applogger.Int("subscribers", n))
}

// Count returns the number of live subscribers.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Notify broadcasts the event to every subscriber. Subscribers whose buffer
// is full are dropped rather than blocking the sender.
func (h *Hub) Notify(_ context.Context, event models.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	return h.Broadcast(payload)
}

func (h *Hub) Broadcast(payload []byte) error {
	var slow []*subscriber

	h.mu.RLock()
	if h.closed {
		h.mu.RUnlock()
		return ErrHubClosed
	}
	for s := range h.subs {
		select {
		case s.send <- payload:
		default:
			slow = append(slow, s)
		}
	}
	h.mu.RUnlock()

	for _, s := range slow {
		h.l.Warn("dropping slow websocket subscriber")
		h.unregister(s)
	}
	return nil
}

// Close disconnects every subscriber and refuses new ones.
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	for s := range h.subs {
		delete(h.subs, s)
		s.close()
	}
	return nil
}

func (h *Hub) writeLoop(s *subscriber) {
	ticker := time.NewTicker(h.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteWait))
			if !ok {
				_ = s.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.unregister(s)
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.unregister(s)
				return
			}
		}
	}
}

// readLoop discards client frames; it exists to process control frames and
// notice disconnects.
func (h *Hub) readLoop(s *subscriber) {
	defer h.unregister(s)

	wait := 2 * h.cfg.PingInterval
	s.conn.SetReadLimit(h.cfg.MaxReadBytes)
	_ = s.conn.SetReadDeadline(time.Now().Add(wait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(wait))
	})
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			return
		}
	}
}

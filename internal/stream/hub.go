// Package stream publishes loop frames to websocket clients and feeds their
// control messages back into the loop's input phase.
package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/san-kum/pulleysim/internal/logging"
	"github.com/san-kum/pulleysim/internal/sim"
)

const (
	DefaultInboxSize  = 64
	DefaultSendBuffer = 16
	writeWait         = 2 * time.Second
)

var ErrUnknownMessage = errors.New("unknown message type")

// Message is a control request sent by a client.
type Message struct {
	Type    string  `json:"type"`
	Field   string  `json:"field,omitempty"`
	Value   float64 `json:"value,omitempty"`
	Enabled bool    `json:"enabled,omitempty"`
}

const (
	MsgRestart       = "restart"
	MsgToggleTrace   = "toggle_trace"
	MsgClearTrace    = "clear_trace"
	MsgEnableTracing = "enable_tracing"
	MsgSet           = "set"
)

// Apply performs m against the surface.
func Apply(s *sim.Surface, m Message) error {
	switch m.Type {
	case MsgRestart:
		s.Restart()
	case MsgToggleTrace:
		s.ToggleTracing()
	case MsgClearTrace:
		s.ClearTrace()
	case MsgEnableTracing:
		s.SetTracing(m.Enabled)
	case MsgSet:
		f, err := sim.ParseField(m.Field)
		if err != nil {
			return err
		}
		s.Set(f, m.Value)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownMessage, m.Type)
	}
	return nil
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans frames out to every connected client. Slow clients drop frames
// rather than stalling the loop.
type Hub struct {
	upgrader websocket.Upgrader
	log      logging.Logger
	inbox    chan Message

	mu      sync.RWMutex
	clients map[*client]struct{}
	closed  bool
}

func NewHub(log logging.Logger) *Hub {
	if log == nil {
		log = logging.Noop()
	}
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		log:     log,
		inbox:   make(chan Message, DefaultInboxSize),
		clients: make(map[*client]struct{}),
	}
}

func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request and serves the client until it disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn(r.Context(), "websocket upgrade failed", logging.Err(err))
		return
	}
	c := &client{conn: conn, send: make(chan []byte, DefaultSendBuffer)}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.log.Info(r.Context(), "client connected", logging.String("remote", conn.RemoteAddr().String()))

	go h.writePump(c)
	h.readPump(r.Context(), c)
}

func (h *Hub) readPump(ctx context.Context, c *client) {
	defer h.drop(c)
	for {
		var m Message
		if err := c.conn.ReadJSON(&m); err != nil {
			var syntax *json.SyntaxError
			if errors.As(err, &syntax) {
				h.log.Warn(ctx, "malformed message", logging.Err(err))
				continue
			}
			return
		}
		select {
		case h.inbox <- m:
		default:
			h.log.Warn(ctx, "inbox full, message dropped", logging.String("type", m.Type))
		}
	}
}

func (h *Hub) writePump(c *client) {
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			c.conn.Close()
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.conn.Close()
}

func (h *Hub) drop(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// OnFrame broadcasts f as JSON.
func (h *Hub) OnFrame(f sim.Frame) {
	data, err := json.Marshal(f)
	if err != nil {
		h.log.Error(context.Background(), "frame encode failed", logging.Err(err))
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
		}
	}
}

// Input drains pending client messages into the surface. Invalid messages
// are logged and skipped.
func (h *Hub) Input() sim.Input {
	return func(s *sim.Surface) {
		for {
			select {
			case m := <-h.inbox:
				if err := Apply(s, m); err != nil {
					h.log.Warn(context.Background(), "message rejected", logging.Err(err))
				}
			default:
				return
			}
		}
	}
}

// Close disconnects every client. Later connections are refused.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

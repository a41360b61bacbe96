package sync

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/gearhouse/autoparts-backend/pkg/logger"
	"github.com/gearhouse/autoparts-backend/pkg/metrics"
	redispkg "github.com/gearhouse/autoparts-backend/pkg/redis"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 4 << 10
	sendBuffer     = 16
)

// Envelope is the wire frame on sync sockets. Clients send
// {"type":"ping"} and receive {"type":"pong"}; the server pushes
// {"type":"sync","tables":[...]} after mutations.
type Envelope struct {
	Type   string   `json:"type"`
	Tables []string `json:"tables,omitempty"`
}

type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// Hub fans change notifications out to connected sockets. Delivery is
// advisory: a dropped frame costs nothing because the next pull is the
// authoritative signal.
type Hub struct {
	logg    *logger.Logger
	metrics *metrics.BroadcastMetrics
	redis   *redispkg.Client

	upgrader   websocket.Upgrader
	register   chan *client
	unregister chan *client
	fanout     chan []byte
	clients    map[*client]struct{}
	done       chan struct{}
}

// NewHub builds a hub. redis is optional; with it, frames published on
// the sync channel by any instance reach this hub's sockets.
func NewHub(logg *logger.Logger, broadcastMetrics *metrics.BroadcastMetrics, redis *redispkg.Client) *Hub {
	return &Hub{
		logg:    logg,
		metrics: broadcastMetrics,
		redis:   redis,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		register:   make(chan *client),
		unregister: make(chan *client),
		fanout:     make(chan []byte, sendBuffer),
		clients:    make(map[*client]struct{}),
		done:       make(chan struct{}),
	}
}

// Run owns the client set until ctx is cancelled. Start it once,
// before the HTTP server accepts connections.
func (h *Hub) Run(ctx context.Context) {
	if h.redis != nil {
		go h.bridge(ctx)
	}
	for {
		select {
		case <-ctx.Done():
			// unblocks pumps still waiting to register or unregister
			close(h.done)
			for c := range h.clients {
				close(c.send)
				delete(h.clients, c)
			}
			h.metrics.SetConnected(0)
			return
		case c := <-h.register:
			h.clients[c] = struct{}{}
			h.metrics.SetConnected(len(h.clients))
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
				h.metrics.SetConnected(len(h.clients))
			}
		case frame := <-h.fanout:
			for c := range h.clients {
				select {
				case c.send <- frame:
					h.metrics.IncDelivered()
				default:
					// slow consumer, prune it
					delete(h.clients, c)
					close(c.send)
					h.metrics.IncPruned()
					h.metrics.SetConnected(len(h.clients))
				}
			}
		}
	}
}

// bridge forwards frames published by other instances into the local
// fanout loop.
func (h *Hub) bridge(ctx context.Context) {
	sub, err := h.redis.Subscribe(ctx, redispkg.SyncChannel)
	if err != nil {
		h.logg.Error(ctx, "sync channel subscribe failed", err)
		return
	}
	defer func() { _ = sub.Close() }()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			select {
			case h.fanout <- []byte(msg.Payload):
			default:
				h.logg.Warn(ctx, "sync fanout backlog, frame dropped")
			}
		}
	}
}

// Fanout pushes a sync frame to every local socket. Used directly when
// no Redis bridge is configured.
func (h *Hub) Fanout(tables ...string) {
	frame, err := json.Marshal(Envelope{Type: "sync", Tables: tables})
	if err != nil {
		return
	}
	select {
	case h.fanout <- frame:
	default:
	}
}

// ServeWS upgrades the request and pumps frames until either side
// hangs up.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logg.Warn(h.logg.WithField(r.Context(), "error", err.Error()), "websocket upgrade failed")
		return
	}

	c := &client{hub: h, conn: conn, send: make(chan []byte, sendBuffer)}
	select {
	case h.register <- c:
	case <-h.done:
		_ = conn.Close()
		return
	}
	go c.writePump()
	c.readPump()
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

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var msg Envelope
		if err := json.Unmarshal(raw, &msg); err != nil {
			continue
		}
		if msg.Type == "ping" {
			pong, _ := json.Marshal(Envelope{Type: "pong"})
			select {
			case c.send <- pong:
			default:
			}
		}
	}
}

func (c *client) writePump() {
	defer func() { _ = c.conn.Close() }()
	for frame := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
			return
		}
	}
	// hub closed the channel; tell the peer before hanging up
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
}

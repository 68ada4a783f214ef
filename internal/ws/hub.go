package ws

import (
	"context"
	"net/http"
	"sync/atomic"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/Vasu1712/scenyx-canvas/internal/models"
)

// RoomRegistry is what the gateway needs from the room store.
type RoomRegistry interface {
	LookupRoom(id string) (models.Room, error)
	AddMember(id string, member models.Member) (models.Room, error)
	RemoveMember(id, connID string) (models.Member, int, error)
	UpdateSurfaceState(id, state string) error
	ClearSurfaceState(id string) error
	Touch(id string) error
	RoomIDs() []string
}

// RoleResolver turns a join ticket into a role tag.
type RoleResolver interface {
	RoleFor(token, roomID string) (models.Role, error)
}

type Config struct {
	SendBufferSize    int    // per-connection outgoing queue
	InboundBufferSize int    // events waiting for the hub loop
	MaxMessageSize    int64  // largest accepted frame; surface snapshots dominate
	AllowedOrigin     string // "*" accepts any origin
}

func (c Config) withDefaults() Config {
	if c.SendBufferSize <= 0 {
		c.SendBufferSize = 256
	}
	if c.InboundBufferSize <= 0 {
		c.InboundBufferSize = 512
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = 8 << 20
	}
	if c.AllowedOrigin == "" {
		c.AllowedOrigin = "*"
	}
	return c
}

type inbound struct {
	client *Client
	frame  []byte
}

// Hub owns every live connection and the per-room broadcast groups. All of
// its maps are touched only by the goroutine running Run, so handlers for
// different connections never interleave and each sender's events reach
// every receiver in emission order.
type Hub struct {
	rooms   RoomRegistry
	tickets RoleResolver

	clients map[*Client]struct{}            // connection pool
	groups  map[string]map[*Client]struct{} // room ID -> broadcast group
	slow    []*Client                       // clients to drop after the current event

	register   chan *Client
	unregister chan *Client
	inbound    chan inbound
	done       chan struct{}

	connections atomic.Int64

	cfg      Config
	upgrader websocket.Upgrader
	log      *logrus.Entry
}

// NewHub wires a gateway to its registry. tickets may be nil, in which case
// nobody joins as creator.
func NewHub(rooms RoomRegistry, tickets RoleResolver, cfg Config, log *logrus.Entry) *Hub {
	cfg = cfg.withDefaults()
	if log == nil {
		log = logrus.WithField("component", "hub")
	}
	h := &Hub{
		rooms:      rooms,
		tickets:    tickets,
		clients:    make(map[*Client]struct{}),
		groups:     make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbound:    make(chan inbound, cfg.InboundBufferSize),
		done:       make(chan struct{}),
		cfg:        cfg,
		log:        log,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// Run processes registrations, events and disconnects until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	h.log.Info("Hub is running")
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return
		case c := <-h.register:
			h.addClient(c)
		case c := <-h.unregister:
			h.disconnect(c)
		case msg := <-h.inbound:
			h.dispatch(msg.client, msg.frame)
		}
		h.dropSlow()
	}
}

// Connections reports the number of live connections. Safe from any goroutine.
func (h *Hub) Connections() int {
	return int(h.connections.Load())
}

// ServeWS upgrades the request and attaches the connection to the hub.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("WebSocket upgrade failed")
		return
	}

	c := newClient(h, conn)
	select {
	case h.register <- c:
	case <-h.done:
		_ = conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	if h.cfg.AllowedOrigin == "*" {
		return true
	}
	origin := r.Header.Get("Origin")
	return origin == "" || origin == h.cfg.AllowedOrigin
}

func (h *Hub) addClient(c *Client) {
	h.clients[c] = struct{}{}
	h.connections.Store(int64(len(h.clients)))
	c.log.WithField("connections", len(h.clients)).Info("Client connected")
}

// disconnect removes c from every room it joined and closes its queue.
// Calling it again for the same client does nothing.
func (h *Hub) disconnect(c *Client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	h.connections.Store(int64(len(h.clients)))

	for roomID := range c.rooms {
		if err := h.leaveRoom(c, roomID); err != nil {
			c.log.WithError(err).WithField("room_id", roomID).Warn("Leaving room on disconnect failed")
		}
	}
	close(c.send)
	c.log.WithField("connections", len(h.clients)).Info("Client disconnected")
}

func (h *Hub) shutdown() {
	h.log.WithField("connections", len(h.clients)).Info("Hub is shutting down")
	for c := range h.clients {
		close(c.send)
	}
	h.clients = make(map[*Client]struct{})
	h.groups = make(map[string]map[*Client]struct{})
	h.connections.Store(0)
}

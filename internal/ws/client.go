package ws

import (
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/Vasu1712/scenyx-canvas/internal/models"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
)

// Client is one live connection. rooms records the rooms it joined and the
// role it holds in each; only the hub goroutine reads or writes it.
type Client struct {
	ID    string
	hub   *Hub
	conn  *websocket.Conn
	send  chan []byte
	rooms map[string]models.Role
	log   *logrus.Entry
}

func newClient(hub *Hub, conn *websocket.Conn) *Client {
	id := uuid.NewString()
	return &Client{
		ID:    id,
		hub:   hub,
		conn:  conn,
		send:  make(chan []byte, hub.cfg.SendBufferSize),
		rooms: make(map[string]models.Role),
		log:   hub.log.WithField("conn_id", id),
	}
}

// readPump forwards frames to the hub in the order they arrive.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(c.hub.cfg.MaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		messageType, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.WithError(err).Warn("WebSocket read error")
			} else {
				c.log.Debug("WebSocket closed")
			}
			return
		}
		if messageType != websocket.TextMessage {
			c.log.WithField("message_type", messageType).Debug("Ignoring non-text frame")
			continue
		}

		select {
		case c.hub.inbound <- inbound{client: c, frame: frame}:
		case <-c.hub.done:
			return
		}
	}
}

// writePump drains the send queue onto the connection and keeps it alive
// with pings. The hub closes the queue when the client is dropped.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.log.WithError(err).Warn("WebSocket write failed")
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.log.WithError(err).Debug("Ping failed")
				return
			}
		}
	}
}

// Package client speaks the drawing event protocol from Go. Bots, load tests
// and the integration tests use it in place of a browser.
package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/Vasu1712/scenyx-canvas/internal/canvas"
	"github.com/Vasu1712/scenyx-canvas/internal/models"
	"github.com/Vasu1712/scenyx-canvas/internal/protocol"
)

var ErrClosed = errors.New("client closed")

const writeWait = 10 * time.Second

// Client is one connection to the gateway. Incoming events are delivered in
// order on Events until the connection ends.
type Client struct {
	conn   *websocket.Conn
	events chan protocol.Envelope
	done   chan struct{}

	writeMu   sync.Mutex
	closeOnce sync.Once
	log       *logrus.Entry
}

type Option func(*Client)

func WithLogger(log *logrus.Entry) Option {
	return func(c *Client) { c.log = log }
}

// Dial connects to the gateway at url, e.g. ws://localhost:8080/ws.
func Dial(ctx context.Context, url string, opts ...Option) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}

	c := &Client{
		conn:   conn,
		events: make(chan protocol.Envelope, 64),
		done:   make(chan struct{}),
		log:    logrus.WithField("component", "client"),
	}
	for _, opt := range opts {
		opt(c)
	}
	go c.readLoop()
	return c, nil
}

func (c *Client) readLoop() {
	defer close(c.events)
	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
			default:
				c.log.WithError(err).Debug("Connection ended")
			}
			return
		}
		env, err := protocol.DecodeEnvelope(frame)
		if err != nil {
			c.log.WithError(err).Warn("Ignoring undecodable frame")
			continue
		}
		select {
		case c.events <- env:
		case <-c.done:
			return
		}
	}
}

// Events is closed when the connection ends.
func (c *Client) Events() <-chan protocol.Envelope {
	return c.events
}

// Next waits for the next event of type t, discarding the others.
func (c *Client) Next(ctx context.Context, t protocol.EventType) (protocol.Envelope, error) {
	for {
		select {
		case env, ok := <-c.events:
			if !ok {
				return protocol.Envelope{}, ErrClosed
			}
			if env.Type == t {
				return env, nil
			}
		case <-ctx.Done():
			return protocol.Envelope{}, ctx.Err()
		}
	}
}

func (c *Client) send(t protocol.EventType, payload any) error {
	frame, err := protocol.Encode(t, payload)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	select {
	case <-c.done:
		return ErrClosed
	default:
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		return fmt.Errorf("send %s: %w", t, err)
	}
	return nil
}

func (c *Client) Join(req protocol.JoinRequest) error {
	return c.send(protocol.EventJoin, req)
}

func (c *Client) Leave(roomID string) error {
	return c.send(protocol.EventLeave, protocol.LeaveRequest{RoomID: roomID})
}

func (c *Client) Draw(ev models.DrawingEvent) error {
	return c.send(protocol.EventDrawing, ev)
}

func (c *Client) Clear(roomID string) error {
	return c.send(protocol.EventClear, protocol.RoomSignal{RoomID: roomID})
}

func (c *Client) Undo(roomID string) error {
	return c.send(protocol.EventUndo, protocol.RoomSignal{RoomID: roomID})
}

func (c *Client) Redo(roomID string) error {
	return c.send(protocol.EventRedo, protocol.RoomSignal{RoomID: roomID})
}

// SaveSurface stores state as the room's snapshot. With broadcast the other
// members render it immediately.
func (c *Client) SaveSurface(roomID, state string, broadcast bool) error {
	return c.send(protocol.EventSaveSurface, protocol.SurfaceState{RoomID: roomID, State: state, Broadcast: broadcast})
}

// Close sends a close frame and tears the connection down.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.writeMu.Lock()
		close(c.done)
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
		c.writeMu.Unlock()
		err = c.conn.Close()
	})
	return err
}

// RoomPublisher pushes canvas undo/redo results to one room.
type RoomPublisher struct {
	Client *Client
	RoomID string
}

func (p RoomPublisher) PublishSurface(state string) error {
	return p.Client.SaveSurface(p.RoomID, state, true)
}

var _ canvas.Publisher = RoomPublisher{}

// Follow applies surface snapshots and clears for roomID to session until ctx
// ends or the connection closes. It consumes Events; run it instead of
// reading Events directly. other, if set, receives every remaining event.
func (c *Client) Follow(ctx context.Context, session *canvas.Session, roomID string, other func(protocol.Envelope)) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case env, ok := <-c.events:
			if !ok {
				return ErrClosed
			}
			if err := c.apply(session, roomID, env, other); err != nil {
				c.log.WithError(err).WithField("event", env.Type).Warn("Could not apply remote event")
			}
		}
	}
}

func (c *Client) apply(session *canvas.Session, roomID string, env protocol.Envelope, other func(protocol.Envelope)) error {
	switch env.Type {
	case protocol.EventLoadSurface:
		var s protocol.SurfaceState
		if err := protocol.Decode(env, &s); err != nil {
			return err
		}
		if s.RoomID == roomID {
			return session.ApplyRemote(s.State)
		}
		return nil
	case protocol.EventClear:
		var sig protocol.RoomSignal
		if len(env.Data) > 0 {
			if err := protocol.Decode(env, &sig); err != nil {
				return err
			}
		}
		if sig.RoomID == "" || sig.RoomID == roomID {
			return session.ApplyRemoteClear()
		}
		return nil
	}
	if other != nil {
		other(env)
	}
	return nil
}

package ws

import (
	"github.com/Vasu1712/scenyx-canvas/internal/protocol"
)

func (h *Hub) joinGroup(c *Client, roomID string) {
	group, ok := h.groups[roomID]
	if !ok {
		group = make(map[*Client]struct{})
		h.groups[roomID] = group
	}
	group[c] = struct{}{}
}

func (h *Hub) leaveGroup(c *Client, roomID string) {
	group, ok := h.groups[roomID]
	if !ok {
		return
	}
	delete(group, c)
	if len(group) == 0 {
		delete(h.groups, roomID)
	}
}

// broadcastRoom queues one encoded frame for every member of roomID except
// the sender.
func (h *Hub) broadcastRoom(roomID string, t protocol.EventType, payload any, except *Client) {
	group := h.groups[roomID]
	if len(group) == 0 {
		return
	}
	frame, err := protocol.Encode(t, payload)
	if err != nil {
		h.log.WithError(err).Error("Could not encode broadcast")
		return
	}
	for c := range group {
		if c != except {
			h.enqueue(c, frame)
		}
	}
}

// broadcastAll reaches every connection except the sender, joined or not.
// It serves clients that draw without naming a room.
func (h *Hub) broadcastAll(t protocol.EventType, payload any, except *Client) {
	frame, err := protocol.Encode(t, payload)
	if err != nil {
		h.log.WithError(err).Error("Could not encode broadcast")
		return
	}
	for c := range h.clients {
		if c != except {
			h.enqueue(c, frame)
		}
	}
}

func (h *Hub) send(c *Client, t protocol.EventType, payload any) {
	frame, err := protocol.Encode(t, payload)
	if err != nil {
		c.log.WithError(err).Error("Could not encode event")
		return
	}
	h.enqueue(c, frame)
}

func (h *Hub) sendError(c *Client, err error) {
	h.send(c, protocol.EventError, protocol.ErrorMessage{Message: err.Error()})
}

// enqueue never blocks the hub. A client whose queue is full is marked and
// dropped once the current event is done.
func (h *Hub) enqueue(c *Client, frame []byte) {
	select {
	case c.send <- frame:
	default:
		c.log.Warn("Send buffer full, dropping client")
		h.slow = append(h.slow, c)
	}
}

func (h *Hub) dropSlow() {
	for len(h.slow) > 0 {
		c := h.slow[0]
		h.slow = h.slow[1:]
		h.disconnect(c)
	}
}

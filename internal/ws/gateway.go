package ws

import (
	"errors"
	"fmt"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/Vasu1712/scenyx-canvas/internal/models"
	"github.com/Vasu1712/scenyx-canvas/internal/protocol"
	"github.com/Vasu1712/scenyx-canvas/internal/roomid"
)

const anonymousName = "Anonymous"

// dispatch decodes one frame and runs its handler. A failing handler is
// logged and never takes the hub down.
func (h *Hub) dispatch(c *Client, frame []byte) {
	if _, ok := h.clients[c]; !ok {
		// already dropped; late frames from its read pump are ignored
		return
	}

	env, err := protocol.DecodeEnvelope(frame)
	if err != nil {
		c.log.WithError(err).Warn("Rejected frame")
		h.sendError(c, err)
		return
	}

	logCtx := c.log.WithField("event", env.Type)
	defer func() {
		if r := recover(); r != nil {
			logCtx.WithField("panic", r).Error("Event handler panicked")
		}
	}()

	switch env.Type {
	case protocol.EventJoin:
		err = h.handleJoin(c, env)
	case protocol.EventLeave:
		err = h.handleLeave(c, env)
	case protocol.EventDrawing:
		err = h.handleDrawing(c, env)
	case protocol.EventClear:
		err = h.handleClear(c, env)
	case protocol.EventUndo, protocol.EventRedo:
		err = h.handleHistorySignal(c, env)
	case protocol.EventSaveSurface:
		err = h.handleSaveSurface(c, env)
	default:
		logCtx.Warn("Unknown event type")
		return
	}

	switch {
	case err == nil:
	case errors.Is(err, models.ErrMalformedEvent), errors.Is(err, models.ErrUnknownDrawingKind):
		logCtx.WithError(err).Warn("Malformed event")
		h.sendError(c, err)
	case errors.Is(err, models.ErrNotMember), errors.Is(err, models.ErrInsufficientRole):
		logCtx.WithError(err).Info("Event dropped")
	default:
		logCtx.WithError(err).Error("Event handling failed")
	}
}

func (h *Hub) handleJoin(c *Client, env protocol.Envelope) error {
	var req protocol.JoinRequest
	if err := protocol.Decode(env, &req); err != nil {
		return err
	}
	roomID := roomid.Normalize(req.RoomID)

	if _, err := h.rooms.LookupRoom(roomID); err != nil {
		h.send(c, protocol.EventRoomError, protocol.RoomError{
			Message:        "Room not found",
			RequestedRoom:  roomID,
			AvailableRooms: h.rooms.RoomIDs(),
		})
		c.log.WithField("room_id", roomID).Info("Join to unknown room refused")
		return nil
	}

	member := models.Member{
		ConnectionID: c.ID,
		DisplayName:  lo.Ternary(req.DisplayName != "", req.DisplayName, anonymousName),
		Role:         h.roleFor(c, req, roomID),
	}
	room, err := h.rooms.AddMember(roomID, member)
	if err != nil {
		// deleted between lookup and insert
		h.send(c, protocol.EventRoomError, protocol.RoomError{
			Message:        "Room not found",
			RequestedRoom:  roomID,
			AvailableRooms: h.rooms.RoomIDs(),
		})
		return fmt.Errorf("add member: %w", err)
	}

	h.joinGroup(c, room.ID)
	c.rooms[room.ID] = member.Role
	self, _ := lo.Find(room.Members, func(m models.Member) bool { return m.ConnectionID == c.ID })

	h.send(c, protocol.EventRoomJoined, protocol.RoomJoined{
		RoomID:   room.ID,
		RoomName: room.Name,
		Members:  room.Members,
		Self:     self,
	})
	if room.SurfaceState != nil {
		h.send(c, protocol.EventLoadSurface, protocol.SurfaceState{RoomID: room.ID, State: *room.SurfaceState})
	}
	h.broadcastRoom(room.ID, protocol.EventUserJoined, protocol.MemberChange{Member: self, Members: room.Members}, c)
	return nil
}

// roleFor settles the role of a joining connection. A valid creator ticket
// wins; otherwise the only role a client may ask for is viewer.
func (h *Hub) roleFor(c *Client, req protocol.JoinRequest, roomID string) models.Role {
	if req.Token != "" && h.tickets != nil {
		role, err := h.tickets.RoleFor(req.Token, roomID)
		if err == nil {
			return role
		}
		c.log.WithError(err).WithField("room_id", roomID).Warn("Ignoring invalid join ticket")
	}
	if req.Role == models.RoleViewer {
		return models.RoleViewer
	}
	return models.RoleEditor
}

func (h *Hub) handleLeave(c *Client, env protocol.Envelope) error {
	var req protocol.LeaveRequest
	if err := protocol.Decode(env, &req); err != nil {
		return err
	}
	roomID := roomid.Normalize(req.RoomID)
	if _, ok := c.rooms[roomID]; !ok {
		return fmt.Errorf("%w: leave %s", models.ErrNotMember, roomID)
	}
	return h.leaveRoom(c, roomID)
}

// leaveRoom detaches c from roomID and tells the rest of the room. The store
// schedules idle cleanup itself once the last member is gone.
func (h *Hub) leaveRoom(c *Client, roomID string) error {
	h.leaveGroup(c, roomID)
	delete(c.rooms, roomID)

	removed, remaining, err := h.rooms.RemoveMember(roomID, c.ID)
	if err != nil {
		return fmt.Errorf("remove member: %w", err)
	}
	if remaining == 0 {
		return nil
	}

	var members []models.Member
	if room, err := h.rooms.LookupRoom(roomID); err == nil {
		members = room.Members
	}
	h.broadcastRoom(roomID, protocol.EventUserLeft, protocol.MemberChange{Member: removed, Members: members}, c)
	return nil
}

func (h *Hub) handleDrawing(c *Client, env protocol.Envelope) error {
	var ev models.DrawingEvent
	if err := protocol.Decode(env, &ev); err != nil {
		return err
	}

	if ev.RoomID == "" {
		h.broadcastAll(protocol.EventDrawing, ev, c)
		return nil
	}

	roomID, err := h.authorize(c, ev.RoomID)
	if err != nil {
		return err
	}
	ev.RoomID = roomID

	if ev.Shape.Kind() == models.KindClear {
		err = h.rooms.ClearSurfaceState(roomID)
	} else {
		err = h.rooms.Touch(roomID)
	}
	if err != nil {
		return err
	}

	h.broadcastRoom(roomID, protocol.EventDrawing, ev, c)
	return nil
}

func (h *Hub) handleClear(c *Client, env protocol.Envelope) error {
	sig, err := decodeSignal(env)
	if err != nil {
		return err
	}
	if sig.RoomID == "" {
		h.broadcastAll(protocol.EventClear, sig, c)
		return nil
	}

	roomID, err := h.authorize(c, sig.RoomID)
	if err != nil {
		return err
	}
	if err := h.rooms.ClearSurfaceState(roomID); err != nil {
		return err
	}
	h.broadcastRoom(roomID, protocol.EventClear, protocol.RoomSignal{RoomID: roomID}, c)
	return nil
}

// handleHistorySignal relays undo and redo notices. The resulting surface
// travels separately as a broadcast save-surface.
func (h *Hub) handleHistorySignal(c *Client, env protocol.Envelope) error {
	sig, err := decodeSignal(env)
	if err != nil {
		return err
	}
	if sig.RoomID == "" {
		h.broadcastAll(env.Type, sig, c)
		return nil
	}

	roomID, err := h.authorize(c, sig.RoomID)
	if err != nil {
		return err
	}
	if err := h.rooms.Touch(roomID); err != nil {
		return err
	}
	h.broadcastRoom(roomID, env.Type, protocol.RoomSignal{RoomID: roomID}, c)
	return nil
}

func (h *Hub) handleSaveSurface(c *Client, env protocol.Envelope) error {
	var req protocol.SurfaceState
	if err := protocol.Decode(env, &req); err != nil {
		return err
	}
	roomID, err := h.authorize(c, req.RoomID)
	if err != nil {
		return err
	}
	if err := h.rooms.UpdateSurfaceState(roomID, req.State); err != nil {
		return err
	}
	c.log.WithFields(logrus.Fields{"room_id": roomID, "bytes": len(req.State)}).Debug("Surface saved")

	if req.Broadcast {
		h.broadcastRoom(roomID, protocol.EventLoadSurface, protocol.SurfaceState{RoomID: roomID, State: req.State}, c)
	}
	return nil
}

// decodeSignal accepts clear, undo and redo with or without a payload.
func decodeSignal(env protocol.Envelope) (protocol.RoomSignal, error) {
	var sig protocol.RoomSignal
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return sig, nil
	}
	if err := protocol.Decode(env, &sig); err != nil {
		return sig, err
	}
	return sig, nil
}

// authorize checks that c joined rawID with a role that may change the
// surface and returns the normalized room ID.
func (h *Hub) authorize(c *Client, rawID string) (string, error) {
	roomID := roomid.Normalize(rawID)
	role, ok := c.rooms[roomID]
	if !ok {
		return "", fmt.Errorf("%w: %s", models.ErrNotMember, roomID)
	}
	if !role.CanDraw() {
		return "", fmt.Errorf("%w: %s in %s", models.ErrInsufficientRole, role, roomID)
	}
	return roomID, nil
}

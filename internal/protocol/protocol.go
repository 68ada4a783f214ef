// Package protocol defines the events exchanged over the persistent
// connection between browsers (or the Go client) and the gateway.
//
// Every frame is a JSON envelope {"type": "...", "data": {...}}.
package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/Vasu1712/scenyx-canvas/internal/models"
)

type EventType string

const (
	// client -> server
	EventJoin        EventType = "join"
	EventLeave       EventType = "leave"
	EventSaveSurface EventType = "save-surface"

	// server -> client
	EventRoomJoined  EventType = "room-joined"
	EventRoomError   EventType = "room-error"
	EventLoadSurface EventType = "load-surface"
	EventUserJoined  EventType = "user-joined"
	EventUserLeft    EventType = "user-left"
	EventError       EventType = "error"

	// both directions
	EventDrawing EventType = "drawing-event"
	EventClear   EventType = "clear"
	EventUndo    EventType = "undo"
	EventRedo    EventType = "redo"
)

// Envelope is one frame on the wire. Data stays raw until the handler for
// Type decodes it.
type Envelope struct {
	Type EventType       `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Encode builds the wire bytes for an outgoing event.
func Encode(t EventType, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", t, err)
	}
	return json.Marshal(Envelope{Type: t, Data: data})
}

// DecodeEnvelope parses a frame without looking at its payload.
func DecodeEnvelope(frame []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", models.ErrMalformedEvent, err)
	}
	if env.Type == "" {
		return Envelope{}, fmt.Errorf("%w: missing event type", models.ErrMalformedEvent)
	}
	return env, nil
}

// Decode unmarshals env.Data into payload and validates it.
func Decode(env Envelope, payload any) error {
	if len(env.Data) == 0 {
		return fmt.Errorf("%w: %s without data", models.ErrMalformedEvent, env.Type)
	}
	if err := json.Unmarshal(env.Data, payload); err != nil {
		return fmt.Errorf("%w: %s: %v", models.ErrMalformedEvent, env.Type, err)
	}
	return Validate(payload)
}

// JoinRequest asks to enter a room. Token is a creator ticket issued when the
// room was created; Role may only ask for "viewer".
type JoinRequest struct {
	RoomID      string      `json:"roomId" validate:"required,max=32"`
	DisplayName string      `json:"displayName" validate:"max=64"`
	Token       string      `json:"token,omitempty"`
	Role        models.Role `json:"role,omitempty" validate:"omitempty,oneof=creator editor viewer"`
}

type LeaveRequest struct {
	RoomID string `json:"roomId" validate:"required,max=32"`
}

// RoomJoined confirms a join to the caller.
type RoomJoined struct {
	RoomID   string          `json:"roomId"`
	RoomName string          `json:"roomName"`
	Members  []models.Member `json:"members"`
	Self     models.Member   `json:"self"`
}

// RoomError reports a failed join; AvailableRooms is diagnostic only.
type RoomError struct {
	Message        string   `json:"message"`
	RequestedRoom  string   `json:"requestedRoom"`
	AvailableRooms []string `json:"availableRooms"`
}

// SurfaceState carries a full-surface snapshot. An empty State is a blank
// surface. Broadcast asks the gateway to push the snapshot to the other
// members right away (undo/redo convergence).
type SurfaceState struct {
	RoomID    string `json:"roomId" validate:"required,max=32"`
	State     string `json:"state"`
	Broadcast bool   `json:"broadcast,omitempty"`
}

// MemberChange announces a join or leave to the rest of the room.
type MemberChange struct {
	Member  models.Member   `json:"member"`
	Members []models.Member `json:"members"`
}

// RoomSignal is the payload of clear, undo and redo. RoomID is optional for
// compatibility with clients that never joined a room.
type RoomSignal struct {
	RoomID string `json:"roomId,omitempty" validate:"max=32"`
}

type ErrorMessage struct {
	Message string `json:"message"`
}

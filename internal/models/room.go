package models

import "time"

// Role is the participation tag carried by a Member.
type Role string

const (
	RoleCreator Role = "creator"
	RoleEditor  Role = "editor"
	RoleViewer  Role = "viewer"
)

// CanDraw reports whether members with this role may mutate the surface.
func (r Role) CanDraw() bool {
	return r == RoleCreator || r == RoleEditor
}

// Member is a connection's participation record within a room.
type Member struct {
	ConnectionID string    `json:"id"`
	DisplayName  string    `json:"name"`
	Role         Role      `json:"role"`
	JoinedAt     time.Time `json:"joinedAt"`
}

// Room represents a collaboration session: its identity, its members in join
// order and the latest full-surface snapshot, if a client persisted one.
type Room struct {
	ID           string    `json:"id"`           // 6 character upper-case token
	Name         string    `json:"name"`         // Display name
	IsPrivate    bool      `json:"isPrivate"`    // Private rooms are hidden from listings
	CreatedAt    time.Time `json:"createdAt"`
	LastActivity time.Time `json:"lastActivity"` // Refreshed by every join, leave, drawing, clear or save
	Members      []Member  `json:"users"`        // Ordered by join time
	SurfaceState *string   `json:"canvasData"`   // Serialized surface, nil when blank
}

// Clone returns a deep copy so callers never share the registry's slices.
func (r Room) Clone() Room {
	out := r
	out.Members = make([]Member, len(r.Members))
	copy(out.Members, r.Members)
	if r.SurfaceState != nil {
		state := *r.SurfaceState
		out.SurfaceState = &state
	}
	return out
}

// HasMember reports whether connID has a record in the room.
func (r Room) HasMember(connID string) bool {
	for _, m := range r.Members {
		if m.ConnectionID == connID {
			return true
		}
	}
	return false
}

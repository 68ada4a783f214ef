package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoomClone_EmptyRoomListsNoUsers(t *testing.T) {
	req := require.New(t)

	for _, members := range [][]Member{nil, {}} {
		data, err := json.Marshal(Room{ID: "ABC123", Members: members}.Clone())
		req.NoError(err)
		req.Contains(string(data), `"users":[]`)
	}
}

func TestRoomClone_DoesNotShareState(t *testing.T) {
	req := require.New(t)
	state := "picture"
	room := Room{ID: "ABC123", Members: []Member{{ConnectionID: "a"}}, SurfaceState: &state}

	clone := room.Clone()
	clone.Members[0].DisplayName = "changed"
	*clone.SurfaceState = "changed"

	req.Empty(room.Members[0].DisplayName)
	req.Equal("picture", *room.SurfaceState)
	req.True(clone.HasMember("a"))
	req.False(clone.HasMember("b"))
}

package rooms

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/Vasu1712/scenyx-canvas/internal/models"
)

// Store is the slice of the room registry the HTTP surface uses.
type Store interface {
	CreateRoom(name string, isPrivate bool) (models.Room, error)
	LookupRoom(id string) (models.Room, error)
	RoomIDs() []string
	PublicRooms() []models.Room
	Count() int
}

// TicketIssuer signs the creator ticket returned with a new room.
type TicketIssuer interface {
	IssueCreator(roomID string) (string, error)
}

// Gateway is the websocket endpoint and its connection counter.
type Gateway interface {
	ServeWS(w http.ResponseWriter, r *http.Request)
	Connections() int
}

// RoomHandler holds the dependencies for the room HTTP routes.
type RoomHandler struct {
	Store    Store
	Tickets  TicketIssuer
	Gateway  Gateway
	Log      *logrus.Entry
	validate *validator.Validate
}

func NewRoomHandler(store Store, tickets TicketIssuer, gateway Gateway, log *logrus.Entry) *RoomHandler {
	if log == nil {
		log = logrus.WithField("component", "rooms_api")
	}
	return &RoomHandler{
		Store:    store,
		Tickets:  tickets,
		Gateway:  gateway,
		Log:      log,
		validate: validator.New(),
	}
}

type createRoomRequest struct {
	RoomName  string `json:"roomName" validate:"max=100"`
	IsPrivate bool   `json:"isPrivate"`
}

type createRoomResponse struct {
	RoomID       string `json:"roomId"`
	RoomName     string `json:"roomName"`
	CreatorToken string `json:"creatorToken"`
}

type errorResponse struct {
	Error          string   `json:"error"`
	AvailableRooms []string `json:"availableRooms,omitempty"`
}

type healthResponse struct {
	Status      string `json:"status"`
	Rooms       int    `json:"rooms"`
	Connections int    `json:"connections"`
}

// CreateRoom registers an empty room and returns its identifier along with a
// ticket that makes the caller the room's creator when joining.
func (h *RoomHandler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	var req createRoomRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.Log.WithError(err).Warn("Invalid create room body")
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
			return
		}
	}
	if err := h.validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Room name is too long"})
		return
	}

	room, err := h.Store.CreateRoom(req.RoomName, req.IsPrivate)
	if err != nil {
		h.Log.WithError(err).Error("Failed to create room")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Failed to create room"})
		return
	}

	token, err := h.Tickets.IssueCreator(room.ID)
	if err != nil {
		// the room exists; the caller simply joins as an editor
		h.Log.WithError(err).WithField("room_id", room.ID).Error("Failed to issue creator ticket")
	}

	writeJSON(w, http.StatusOK, createRoomResponse{
		RoomID:       room.ID,
		RoomName:     room.Name,
		CreatorToken: token,
	})
}

// GetRoom looks a room up by identifier, in any letter case.
func (h *RoomHandler) GetRoom(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	room, err := h.Store.LookupRoom(id)
	if errors.Is(err, models.ErrRoomNotFound) {
		writeJSON(w, http.StatusNotFound, errorResponse{
			Error:          "Room not found",
			AvailableRooms: h.Store.RoomIDs(),
		})
		return
	}
	if err != nil {
		h.Log.WithError(err).WithField("room_id", id).Error("Room lookup failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Room lookup failed"})
		return
	}
	writeJSON(w, http.StatusOK, room)
}

type shareResponse struct {
	RoomID   string `json:"roomId"`
	RoomName string `json:"roomName"`
	JoinPath string `json:"joinPath"`
}

// ShareRoom confirms a room exists and returns what a client needs to build
// an invite link for it.
func (h *RoomHandler) ShareRoom(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	room, err := h.Store.LookupRoom(id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "Room not found"})
		return
	}
	h.Log.WithField("room_id", room.ID).Debug("Share link requested")
	writeJSON(w, http.StatusOK, shareResponse{
		RoomID:   room.ID,
		RoomName: room.Name,
		JoinPath: "/room/" + room.ID,
	})
}

// ListRooms returns the public rooms, newest first.
func (h *RoomHandler) ListRooms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Store.PublicRooms())
}

func (h *RoomHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:      "ok",
		Rooms:       h.Store.Count(),
		Connections: h.Gateway.Connections(),
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

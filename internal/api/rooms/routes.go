package rooms

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/Vasu1712/scenyx-canvas/internal/middleware"
)

// RegisterRoomRoutes attaches the room routes and the websocket endpoint.
func RegisterRoomRoutes(r *mux.Router, handler *RoomHandler) {
	r.HandleFunc("/rooms", handler.CreateRoom).Methods(http.MethodPost)
	r.HandleFunc("/rooms", handler.ListRooms).Methods(http.MethodGet)
	r.HandleFunc("/rooms/{id}", handler.GetRoom).Methods(http.MethodGet)
	r.HandleFunc("/rooms/{id}/share", handler.ShareRoom).Methods(http.MethodGet)
	r.HandleFunc("/healthz", handler.Health).Methods(http.MethodGet)

	// upgrade requests bypass the JSON routes
	r.HandleFunc("/ws", handler.Gateway.ServeWS)
}

// NewRouter builds the complete HTTP handler of the server.
func NewRouter(handler *RoomHandler, allowedOrigin string) http.Handler {
	r := mux.NewRouter()
	r.Use(middleware.RequestLogger(handler.Log))
	RegisterRoomRoutes(r, handler)
	return middleware.CORS(allowedOrigin, handler.Log)(r)
}

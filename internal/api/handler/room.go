package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/battleship/internal/api/response"
	"github.com/mcoot/battleship/internal/model"
	"github.com/mcoot/battleship/internal/services/room"
)

// RoomHandler handles room listing endpoints
type RoomHandler struct {
	rooms *room.Controller
}

// NewRoomHandler creates a new room handler
func NewRoomHandler(rooms *room.Controller) *RoomHandler {
	return &RoomHandler{
		rooms: rooms,
	}
}

// List handles GET /api/v1/rooms
func (h *RoomHandler) List(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.rooms.ListOpenRooms(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	out := response.RoomList{Rooms: make([]response.Room, len(rooms))}
	for i, rm := range rooms {
		out.Rooms[i] = response.RoomFromModel(rm)
	}
	response.JSON(w, http.StatusOK, out)
}

// Get handles GET /api/v1/rooms/{id}
func (h *RoomHandler) Get(w http.ResponseWriter, r *http.Request) {
	rm, err := h.rooms.GetRoom(r.Context(), model.RoomID(mux.Vars(r)["id"]))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.RoomFromModel(*rm))
}

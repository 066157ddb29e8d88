package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/battleship/internal/api/middleware"
	"github.com/mcoot/battleship/internal/api/response"
	"github.com/mcoot/battleship/internal/services/player"
)

// PlayerHandler handles player and leaderboard endpoints
type PlayerHandler struct {
	players *player.Service
}

// NewPlayerHandler creates a new player handler
func NewPlayerHandler(players *player.Service) *PlayerHandler {
	return &PlayerHandler{
		players: players,
	}
}

// Get handles GET /api/v1/players/{name}
func (h *PlayerHandler) Get(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if name == "" {
		WriteError(w, NewInvalidRequestError("name is required"))
		return
	}

	p, err := h.players.GetByName(r.Context(), name)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.PlayerFromModel(p))
}

// GetMe handles GET /api/v1/players/me
func (h *PlayerHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	p := middleware.MustGetPlayer(r.Context())
	response.JSON(w, http.StatusOK, response.PlayerFromModel(p))
}

// Winners handles GET /api/v1/winners
func (h *PlayerHandler) Winners(w http.ResponseWriter, r *http.Request) {
	winners, err := h.players.WinnersSnapshot(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.WinnerListFromModel(winners))
}

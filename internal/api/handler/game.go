package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/battleship/internal/api/response"
	"github.com/mcoot/battleship/internal/model"
	"github.com/mcoot/battleship/internal/services/game"
)

// GameHandler handles game status endpoints
type GameHandler struct {
	games *game.Controller
}

// NewGameHandler creates a new game handler
func NewGameHandler(games *game.Controller) *GameHandler {
	return &GameHandler{
		games: games,
	}
}

// Get handles GET /api/v1/games/{id}
func (h *GameHandler) Get(w http.ResponseWriter, r *http.Request) {
	g, err := h.games.GetGame(r.Context(), model.GameID(mux.Vars(r)["id"]))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.GameFromModel(g))
}

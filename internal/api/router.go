package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/battleship/internal/api/handler"
	"github.com/mcoot/battleship/internal/api/middleware"
	"github.com/mcoot/battleship/internal/api/response"
	"github.com/mcoot/battleship/internal/services/game"
	"github.com/mcoot/battleship/internal/services/player"
	"github.com/mcoot/battleship/internal/services/room"
	"github.com/mcoot/battleship/internal/transport/ws"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger         *slog.Logger
	PlayerService  *player.Service
	RoomController *room.Controller
	GameController *game.Controller
	Hub            *ws.Hub
	Sessions       ws.Handler
	// StaticDir is served at / when set
	StaticDir string
}

// NewRouter creates a new router with the websocket endpoint and all API routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	playerHandler := handler.NewPlayerHandler(cfg.PlayerService)
	roomHandler := handler.NewRoomHandler(cfg.RoomController)
	gameHandler := handler.NewGameHandler(cfg.GameController)

	// Create middleware
	authMiddleware := middleware.BasicAuth(cfg.PlayerService)
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	// Game sessions
	r.Handle("/ws", loggingMiddleware(recoveryMiddleware(cfg.Hub.Handler(cfg.Sessions)))).Methods(http.MethodGet)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	// Registered before the {name} lookup so "me" is not taken as a name
	api.Handle("/players/me", authMiddleware(http.HandlerFunc(playerHandler.GetMe))).Methods(http.MethodGet)

	api.HandleFunc("/players/{name}", playerHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/winners", playerHandler.Winners).Methods(http.MethodGet)
	api.HandleFunc("/rooms", roomHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/rooms/{id}", roomHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/games/{id}", gameHandler.Get).Methods(http.MethodGet)

	// Health check endpoint
	api.HandleFunc("/health", healthHandler(cfg.Hub)).Methods(http.MethodGet)

	if cfg.StaticDir != "" {
		r.PathPrefix("/").Handler(http.FileServer(http.Dir(cfg.StaticDir)))
	}

	return r
}

func healthHandler(hub *ws.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, http.StatusOK, response.Health{
			Status:           "ok",
			ConnectedClients: hub.ClientCount(),
		})
	}
}

package storage

import (
	"context"

	"github.com/mcoot/battleship/internal/model"
)

// Storage defines the interface for session state
//
// Implementations are safe for concurrent use, but multi-record changes are only
// atomic when the caller serialises them (the session coordinator does).
type Storage interface {
	// Player operations
	SavePlayer(ctx context.Context, player *model.Player) error
	GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error)
	GetPlayerByName(ctx context.Context, name string) (*model.Player, error)
	GetPlayerBySession(ctx context.Context, sessionID model.SessionID) (*model.Player, error)
	ListPlayers(ctx context.Context) ([]*model.Player, error)
	DeletePlayer(ctx context.Context, id model.PlayerID) error
	NextPlayerSeq(ctx context.Context) (int64, error)

	// Room operations
	SaveRoom(ctx context.Context, room *model.Room) error
	GetRoom(ctx context.Context, id model.RoomID) (*model.Room, error)
	ListRooms(ctx context.Context) ([]*model.Room, error)
	DeleteRoom(ctx context.Context, id model.RoomID) error
	RoomExists(ctx context.Context, id model.RoomID) (bool, error)

	// Game operations
	SaveGame(ctx context.Context, game *model.Game) error
	GetGame(ctx context.Context, id model.GameID) (*model.Game, error)
	DeleteGame(ctx context.Context, id model.GameID) error
	GameExists(ctx context.Context, id model.GameID) (bool, error)

	// Board operations
	SaveBoard(ctx context.Context, board *model.Board) error
	GetBoard(ctx context.Context, gameID model.GameID, playerID model.PlayerID) (*model.Board, error)
	GetBoardsForGame(ctx context.Context, gameID model.GameID) ([]*model.Board, error)
	DeleteBoardsForGame(ctx context.Context, gameID model.GameID) error

	// Close releases backend resources
	Close() error
}

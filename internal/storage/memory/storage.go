package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/mcoot/battleship/internal/model"
	"github.com/mcoot/battleship/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
//
// Records are copied on the way in and out so callers never share mutable state
// with the store, matching the Redis backend.
type Storage struct {
	mu sync.RWMutex

	players      map[model.PlayerID]*model.Player
	nameIndex    map[string]model.PlayerID
	sessionIndex map[model.SessionID]model.PlayerID
	playerSeq    int64
	rooms        map[model.RoomID]*model.Room
	games        map[model.GameID]*model.Game
	boards       map[boardKey]*model.Board
}

type boardKey struct {
	gameID   model.GameID
	playerID model.PlayerID
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		players:      make(map[model.PlayerID]*model.Player),
		nameIndex:    make(map[string]model.PlayerID),
		sessionIndex: make(map[model.SessionID]model.PlayerID),
		rooms:        make(map[model.RoomID]*model.Room),
		games:        make(map[model.GameID]*model.Game),
		boards:       make(map[boardKey]*model.Board),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Close is a no-op for the in-memory store
func (s *Storage) Close() error {
	return nil
}

// Player operations

func (s *Storage) SavePlayer(ctx context.Context, player *model.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Drop stale index entries if the name or session changed
	if old, ok := s.players[player.ID]; ok {
		if old.Name != player.Name {
			delete(s.nameIndex, old.Name)
		}
		if old.SessionID != player.SessionID {
			delete(s.sessionIndex, old.SessionID)
		}
	}

	p := *player
	s.players[player.ID] = &p
	s.nameIndex[player.Name] = player.ID
	if player.SessionID != "" {
		s.sessionIndex[player.SessionID] = player.ID
	}
	return nil
}

func (s *Storage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	player, ok := s.players[id]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	p := *player
	return &p, nil
}

func (s *Storage) GetPlayerByName(ctx context.Context, name string) (*model.Player, error) {
	s.mu.RLock()
	id, ok := s.nameIndex[name]
	s.mu.RUnlock()
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	return s.GetPlayer(ctx, id)
}

func (s *Storage) GetPlayerBySession(ctx context.Context, sessionID model.SessionID) (*model.Player, error) {
	s.mu.RLock()
	id, ok := s.sessionIndex[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	return s.GetPlayer(ctx, id)
}

func (s *Storage) ListPlayers(ctx context.Context) ([]*model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	players := make([]*model.Player, 0, len(s.players))
	for _, player := range s.players {
		p := *player
		players = append(players, &p)
	}
	return players, nil
}

func (s *Storage) DeletePlayer(ctx context.Context, id model.PlayerID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	player, ok := s.players[id]
	if !ok {
		return nil
	}
	delete(s.nameIndex, player.Name)
	delete(s.sessionIndex, player.SessionID)
	delete(s.players, id)
	return nil
}

func (s *Storage) NextPlayerSeq(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playerSeq++
	return s.playerSeq, nil
}

// Room operations

func (s *Storage) SaveRoom(ctx context.Context, room *model.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[room.ID] = cloneRoom(room)
	return nil
}

func (s *Storage) GetRoom(ctx context.Context, id model.RoomID) (*model.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[id]
	if !ok {
		return nil, model.ErrRoomNotFound
	}
	return cloneRoom(room), nil
}

func (s *Storage) ListRooms(ctx context.Context) ([]*model.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rooms := make([]*model.Room, 0, len(s.rooms))
	for _, room := range s.rooms {
		rooms = append(rooms, cloneRoom(room))
	}
	return rooms, nil
}

func (s *Storage) DeleteRoom(ctx context.Context, id model.RoomID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, id)
	return nil
}

func (s *Storage) RoomExists(ctx context.Context, id model.RoomID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.rooms[id]
	return ok, nil
}

// Game operations

func (s *Storage) SaveGame(ctx context.Context, game *model.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := *game
	s.games[game.ID] = &g
	return nil
}

func (s *Storage) GetGame(ctx context.Context, id model.GameID) (*model.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	game, ok := s.games[id]
	if !ok {
		return nil, model.ErrGameNotFound
	}
	g := *game
	return &g, nil
}

func (s *Storage) DeleteGame(ctx context.Context, id model.GameID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.games, id)
	return nil
}

func (s *Storage) GameExists(ctx context.Context, id model.GameID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.games[id]
	return ok, nil
}

// Board operations

func (s *Storage) SaveBoard(ctx context.Context, board *model.Board) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := boardKey{gameID: board.GameID, playerID: board.PlayerID}
	s.boards[key] = cloneBoard(board)
	return nil
}

func (s *Storage) GetBoard(ctx context.Context, gameID model.GameID, playerID model.PlayerID) (*model.Board, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	key := boardKey{gameID: gameID, playerID: playerID}
	board, ok := s.boards[key]
	if !ok {
		return nil, model.ErrBoardNotFound
	}
	return cloneBoard(board), nil
}

func (s *Storage) GetBoardsForGame(ctx context.Context, gameID model.GameID) ([]*model.Board, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var boards []*model.Board
	for key, board := range s.boards {
		if key.gameID == gameID {
			boards = append(boards, cloneBoard(board))
		}
	}
	return boards, nil
}

func (s *Storage) DeleteBoardsForGame(ctx context.Context, gameID model.GameID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.boards {
		if key.gameID == gameID {
			delete(s.boards, key)
		}
	}
	return nil
}

func cloneRoom(room *model.Room) *model.Room {
	r := *room
	r.Players = slices.Clone(room.Players)
	return &r
}

func cloneBoard(board *model.Board) *model.Board {
	b := *board
	b.Ships = slices.Clone(board.Ships)
	b.Cells = make([][]model.CellState, len(board.Cells))
	for i, row := range board.Cells {
		b.Cells[i] = slices.Clone(row)
	}
	return &b
}

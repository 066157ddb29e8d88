package board

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/mcoot/battleship/internal/model"
	"github.com/mcoot/battleship/internal/storage"
)

// Service provides board operations
type Service struct {
	storage storage.Storage
	policy  FleetPolicy
	logger  *slog.Logger
}

// New creates a new BoardService
func New(storage storage.Storage, policy FleetPolicy, logger *slog.Logger) *Service {
	if policy == "" {
		policy = FleetPolicyAny
	}
	return &Service{
		storage: storage,
		policy:  policy,
		logger:  logger,
	}
}

// Policy returns the fleet policy in force
func (s *Service) Policy() FleetPolicy {
	return s.policy
}

// CreateBoard initializes an empty board for a player in a game
func (s *Service) CreateBoard(ctx context.Context, gameID model.GameID, playerID model.PlayerID, size int) (*model.Board, error) {
	board := model.NewBoard(gameID, playerID, size)
	if err := s.storage.SaveBoard(ctx, board); err != nil {
		return nil, err
	}
	return board, nil
}

// GetBoard retrieves a player's board
func (s *Service) GetBoard(ctx context.Context, gameID model.GameID, playerID model.PlayerID) (*model.Board, error) {
	return s.storage.GetBoard(ctx, gameID, playerID)
}

// GetBoardsForGame retrieves all boards for a game
func (s *Service) GetBoardsForGame(ctx context.Context, gameID model.GameID) ([]*model.Board, error) {
	return s.storage.GetBoardsForGame(ctx, gameID)
}

// PlaceFleet validates a fleet and records it on the board; nothing is stored on failure
func (s *Service) PlaceFleet(ctx context.Context, board *model.Board, ships []model.Ship) error {
	if board.FleetPlaced {
		return model.ErrWrongState
	}
	if err := s.ValidateFleet(board.Size, ships); err != nil {
		return err
	}

	board.Ships = slices.Clone(ships)
	board.FleetPlaced = true
	if err := s.storage.SaveBoard(ctx, board); err != nil {
		return err
	}

	s.logger.Debug("fleet placed",
		slog.String("game_id", string(board.GameID)),
		slog.String("player_id", string(board.PlayerID)),
		slog.Int("ships", len(ships)),
	)
	return nil
}

// ValidateFleet checks structure, bounds, overlap and the fleet policy
func (s *Service) ValidateFleet(size int, ships []model.Ship) error {
	if len(ships) == 0 {
		return fmt.Errorf("%w: fleet is empty", model.ErrInvalidPlacement)
	}

	occupied := make(map[model.Position]int)
	for i, ship := range ships {
		if err := ValidateShip(size, ship); err != nil {
			return fmt.Errorf("ship %d: %w", i, err)
		}
		for _, cell := range ship.Cells() {
			if other, taken := occupied[cell]; taken {
				return fmt.Errorf("%w: ships %d and %d overlap at (%d,%d)", model.ErrInvalidPlacement, other, i, cell.X, cell.Y)
			}
			occupied[cell] = i
		}
	}

	return s.policy.checkComposition(ships)
}

// ValidateShip checks a single ship is well formed and inside a size x size grid
func ValidateShip(size int, ship model.Ship) error {
	if ship.Length <= 0 {
		return fmt.Errorf("%w: length must be positive", model.ErrInvalidPlacement)
	}
	if !ship.Orientation.IsValid() {
		return fmt.Errorf("%w: unknown orientation %q", model.ErrInvalidPlacement, ship.Orientation)
	}

	// Bounds are checked arithmetically so an oversized length never allocates
	if ship.Length > size {
		return fmt.Errorf("%w: length %d exceeds the %dx%d grid", model.ErrInvalidPlacement, ship.Length, size, size)
	}
	grid := model.Board{Size: size}
	if !grid.IsValidPosition(ship.Origin) || !grid.IsValidPosition(ship.End()) {
		return fmt.Errorf("%w: ship leaves the %dx%d grid", model.ErrInvalidPlacement, size, size)
	}
	return nil
}

// ResolveShot marks a shot on the board and classifies it
//
// The returned ship is set only when the shot sinks it. The board is not saved.
func ResolveShot(board *model.Board, pos model.Position) (model.AttackResult, *model.Ship, error) {
	if !board.IsValidPosition(pos) {
		return "", nil, model.ErrOutOfBounds
	}
	if board.Get(pos) != model.CellUntested {
		return "", nil, model.ErrAlreadyAttacked
	}

	idx := board.ShipAt(pos)
	if idx < 0 {
		board.Set(pos, model.CellMiss)
		return model.AttackMiss, nil, nil
	}

	board.Set(pos, model.CellHit)
	ship := board.Ships[idx]
	if board.IsSunk(ship) {
		return model.AttackSunk, &ship, nil
	}
	return model.AttackHit, nil, nil
}

// Interface for dependency injection
type ServiceInterface interface {
	CreateBoard(ctx context.Context, gameID model.GameID, playerID model.PlayerID, size int) (*model.Board, error)
	GetBoard(ctx context.Context, gameID model.GameID, playerID model.PlayerID) (*model.Board, error)
	GetBoardsForGame(ctx context.Context, gameID model.GameID) ([]*model.Board, error)
	PlaceFleet(ctx context.Context, board *model.Board, ships []model.Ship) error
	ValidateFleet(size int, ships []model.Ship) error
}

var _ ServiceInterface = (*Service)(nil)

package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mcoot/battleship/internal/dependencies/clock"
	"github.com/mcoot/battleship/internal/dependencies/random"
	"github.com/mcoot/battleship/internal/model"
	"github.com/mcoot/battleship/internal/services/board"
	"github.com/mcoot/battleship/internal/services/targeting"
	"github.com/mcoot/battleship/internal/storage"
)

// Players is the slice of the player registry the engine needs
type Players interface {
	Get(ctx context.Context, playerID model.PlayerID) (*model.Player, error)
	RecordWin(ctx context.Context, playerID model.PlayerID) error
}

// Controller manages the game state machine and turn flow
type Controller struct {
	storage      storage.Storage
	boardService *board.Service
	players      Players
	targeting    targeting.Strategy
	clock        clock.Clock
	random       random.Random
	logger       *slog.Logger
}

// NewController creates a new GameController
func NewController(
	storage storage.Storage,
	boardService *board.Service,
	players Players,
	targeting targeting.Strategy,
	clock clock.Clock,
	random random.Random,
	logger *slog.Logger,
) *Controller {
	return &Controller{
		storage:      storage,
		boardService: boardService,
		players:      players,
		targeting:    targeting,
		clock:        clock,
		random:       random,
		logger:       logger,
	}
}

// StartGame creates a game in the placing state with an empty board per player
func (c *Controller) StartGame(ctx context.Context, first, second model.PlayerID) (*model.Game, error) {
	if first == "" || second == "" || first == second {
		return nil, model.ErrInvalidJoin
	}

	id, err := random.UniqueID(ctx, c.random, func(ctx context.Context, id string) (bool, error) {
		return c.storage.GameExists(ctx, model.GameID(id))
	})
	if err != nil {
		return nil, fmt.Errorf("allocate game id: %w", err)
	}

	now := c.clock.Now()
	game := &model.Game{
		ID:        model.GameID(id),
		Players:   [2]model.PlayerID{first, second},
		Status:    model.GameStatusPlacing,
		CreatedAt: now,
		UpdatedAt: now,
	}

	for _, playerID := range game.Players {
		if _, err := c.boardService.CreateBoard(ctx, game.ID, playerID, model.DefaultBoardSize); err != nil {
			return nil, err
		}
	}

	if err := c.storage.SaveGame(ctx, game); err != nil {
		c.logger.Error("failed to save game",
			slog.String("game_id", id),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	c.logger.Info("game created",
		slog.String("game_id", id),
		slog.String("first_player", string(first)),
		slog.String("second_player", string(second)),
	)

	return game, nil
}

// GetGame retrieves a game by ID
func (c *Controller) GetGame(ctx context.Context, gameID model.GameID) (*model.Game, error) {
	return c.storage.GetGame(ctx, gameID)
}

// GetBoard retrieves the board tracking shots against a player's fleet
func (c *Controller) GetBoard(ctx context.Context, gameID model.GameID, playerID model.PlayerID) (*model.Board, error) {
	return c.boardService.GetBoard(ctx, gameID, playerID)
}

// SubmitFleet records a player's fleet and starts the game once both are in
func (c *Controller) SubmitFleet(ctx context.Context, gameID model.GameID, playerID model.PlayerID, ships []model.Ship) (*model.FleetResult, error) {
	game, err := c.storage.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if !game.HasPlayer(playerID) {
		return nil, model.ErrNotInGame
	}
	if game.Status != model.GameStatusPlacing {
		return nil, model.ErrWrongState
	}

	own, err := c.boardService.GetBoard(ctx, gameID, playerID)
	if err != nil {
		return nil, err
	}
	other, err := c.boardService.GetBoard(ctx, gameID, game.Opponent(playerID))
	if err != nil {
		return nil, err
	}

	if err := c.boardService.PlaceFleet(ctx, own, ships); err != nil {
		return nil, err
	}

	result := &model.FleetResult{Game: game}
	if !other.FleetPlaced {
		c.logger.Info("fleet submitted",
			slog.String("game_id", string(gameID)),
			slog.String("player_id", string(playerID)),
		)
		return result, nil
	}

	// Both fleets in: the room creator shoots first
	game.Status = model.GameStatusInProgress
	game.CurrentTurn = game.Players[0]
	game.UpdatedAt = c.clock.Now()
	if err := c.storage.SaveGame(ctx, game); err != nil {
		return nil, err
	}

	boards := map[model.PlayerID]*model.Board{own.PlayerID: own, other.PlayerID: other}
	for i, p := range game.Players {
		result.Fleets[i] = boards[p].Ships
	}
	result.Started = true

	c.logger.Info("game started",
		slog.String("game_id", string(gameID)),
		slog.String("first_turn", string(game.CurrentTurn)),
	)

	return result, nil
}

// Attack fires at (x, y) on the attacker's opponent's board
func (c *Controller) Attack(ctx context.Context, gameID model.GameID, attackerID model.PlayerID, x, y int) (*model.AttackOutcome, error) {
	game, target, err := c.loadForShot(ctx, gameID, attackerID)
	if err != nil {
		return nil, err
	}
	return c.fire(ctx, game, target, attackerID, model.Position{X: x, Y: y})
}

// RandomAttack fires at a uniformly chosen untested cell on the opponent's board
func (c *Controller) RandomAttack(ctx context.Context, gameID model.GameID, attackerID model.PlayerID) (*model.AttackOutcome, error) {
	game, target, err := c.loadForShot(ctx, gameID, attackerID)
	if err != nil {
		return nil, err
	}

	pos, ok := c.targeting.ChooseTarget(target)
	if !ok {
		return nil, model.ErrBoardResolved
	}
	return c.fire(ctx, game, target, attackerID, pos)
}

// loadForShot checks the attacker may shoot and returns the board being shot at
func (c *Controller) loadForShot(ctx context.Context, gameID model.GameID, attackerID model.PlayerID) (*model.Game, *model.Board, error) {
	game, err := c.storage.GetGame(ctx, gameID)
	if err != nil {
		return nil, nil, err
	}
	if !game.HasPlayer(attackerID) {
		return nil, nil, model.ErrNotInGame
	}
	if game.Status != model.GameStatusInProgress {
		return nil, nil, model.ErrWrongState
	}
	if game.CurrentTurn != attackerID {
		return nil, nil, model.ErrNotYourTurn
	}

	target, err := c.boardService.GetBoard(ctx, gameID, game.Opponent(attackerID))
	if err != nil {
		return nil, nil, err
	}
	return game, target, nil
}

func (c *Controller) fire(ctx context.Context, game *model.Game, target *model.Board, attackerID model.PlayerID, pos model.Position) (*model.AttackOutcome, error) {
	result, sunk, err := board.ResolveShot(target, pos)
	if err != nil {
		return nil, err
	}

	before := *game
	outcome := &model.AttackOutcome{
		GameID:   game.ID,
		Position: pos,
		Attacker: attackerID,
		Result:   result,
		SunkShip: sunk,
	}

	game.ShotCount++
	if result == model.AttackMiss {
		game.CurrentTurn = target.PlayerID
		outcome.TurnChanged = true
	}
	if result == model.AttackSunk && target.AllSunk() {
		game.Status = model.GameStatusFinished
		game.Winner = attackerID
		outcome.Finished = true
		outcome.Winner = attackerID
	}
	game.UpdatedAt = c.clock.Now()
	outcome.CurrentTurn = game.CurrentTurn

	// The game record goes first and is put back if the board write fails
	if err := c.storage.SaveGame(ctx, game); err != nil {
		return nil, err
	}
	if err := c.storage.SaveBoard(ctx, target); err != nil {
		if rerr := c.storage.SaveGame(ctx, &before); rerr != nil {
			c.logger.Error("failed to restore game after board write",
				slog.String("game_id", string(game.ID)),
				slog.String("error", rerr.Error()),
			)
		}
		return nil, err
	}

	if outcome.Finished {
		// The game is already finished in storage; a lost win only skews the leaderboard
		if err := c.players.RecordWin(ctx, attackerID); err != nil {
			c.logger.Error("failed to record win",
				slog.String("game_id", string(game.ID)),
				slog.String("winner", string(attackerID)),
				slog.String("error", err.Error()),
			)
		}
		c.logger.Info("game finished",
			slog.String("game_id", string(game.ID)),
			slog.String("winner", string(attackerID)),
			slog.Int("shots", game.ShotCount),
		)
	}

	return outcome, nil
}

// HandleDisconnect resolves the most recent game of a departing player
//
// Returns nil when the player had no game left to resolve.
func (c *Controller) HandleDisconnect(ctx context.Context, playerID model.PlayerID) (*model.DisconnectOutcome, error) {
	player, err := c.players.Get(ctx, playerID)
	if errors.Is(err, model.ErrPlayerNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if player.GameID == "" {
		return nil, nil
	}

	game, err := c.storage.GetGame(ctx, player.GameID)
	if errors.Is(err, model.ErrGameNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	outcome := &model.DisconnectOutcome{
		GameID:    game.ID,
		Remaining: game.Opponent(playerID),
	}

	switch game.Status {
	case model.GameStatusInProgress:
		game.Status = model.GameStatusFinished
		game.Winner = outcome.Remaining
		game.UpdatedAt = c.clock.Now()
		if err := c.storage.SaveGame(ctx, game); err != nil {
			return nil, err
		}
		if err := c.players.RecordWin(ctx, outcome.Remaining); err != nil {
			return nil, err
		}
		outcome.Forfeited = true
		outcome.Winner = outcome.Remaining

		c.logger.Info("game forfeited",
			slog.String("game_id", string(game.ID)),
			slog.String("leaver", string(playerID)),
			slog.String("winner", string(outcome.Winner)),
		)

	case model.GameStatusPlacing:
		if err := c.deleteGame(ctx, game.ID); err != nil {
			return nil, err
		}
		outcome.Abandoned = true

		c.logger.Info("game abandoned",
			slog.String("game_id", string(game.ID)),
			slog.String("leaver", string(playerID)),
		)

	case model.GameStatusFinished:
		if err := c.deleteGame(ctx, game.ID); err != nil {
			return nil, err
		}
	}

	return outcome, nil
}

// DiscardFinished removes the archive of a finished game; active games are left alone
func (c *Controller) DiscardFinished(ctx context.Context, gameID model.GameID) error {
	game, err := c.storage.GetGame(ctx, gameID)
	if errors.Is(err, model.ErrGameNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if game.IsActive() {
		return nil
	}
	return c.deleteGame(ctx, gameID)
}

func (c *Controller) deleteGame(ctx context.Context, gameID model.GameID) error {
	if err := c.storage.DeleteBoardsForGame(ctx, gameID); err != nil {
		return err
	}
	return c.storage.DeleteGame(ctx, gameID)
}

// Interface for dependency injection
type ControllerInterface interface {
	StartGame(ctx context.Context, first, second model.PlayerID) (*model.Game, error)
	GetGame(ctx context.Context, gameID model.GameID) (*model.Game, error)
	GetBoard(ctx context.Context, gameID model.GameID, playerID model.PlayerID) (*model.Board, error)
	SubmitFleet(ctx context.Context, gameID model.GameID, playerID model.PlayerID, ships []model.Ship) (*model.FleetResult, error)
	Attack(ctx context.Context, gameID model.GameID, attackerID model.PlayerID, x, y int) (*model.AttackOutcome, error)
	RandomAttack(ctx context.Context, gameID model.GameID, attackerID model.PlayerID) (*model.AttackOutcome, error)
	HandleDisconnect(ctx context.Context, playerID model.PlayerID) (*model.DisconnectOutcome, error)
	DiscardFinished(ctx context.Context, gameID model.GameID) error
}

var _ ControllerInterface = (*Controller)(nil)

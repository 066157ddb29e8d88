package room

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/mcoot/battleship/internal/dependencies/clock"
	"github.com/mcoot/battleship/internal/dependencies/random"
	"github.com/mcoot/battleship/internal/model"
	"github.com/mcoot/battleship/internal/storage"
)

// Controller manages open rooms waiting for a second player
type Controller struct {
	storage storage.Storage
	clock   clock.Clock
	random  random.Random
	logger  *slog.Logger
}

// NewController creates a new room Controller
func NewController(
	storage storage.Storage,
	clock clock.Clock,
	random random.Random,
	logger *slog.Logger,
) *Controller {
	return &Controller{
		storage: storage,
		clock:   clock,
		random:  random,
		logger:  logger,
	}
}

// CreateRoom opens a room with the given player as its only occupant
func (c *Controller) CreateRoom(ctx context.Context, player *model.Player) (*model.Room, error) {
	if err := c.checkAvailable(ctx, player); err != nil {
		return nil, err
	}

	id, err := random.UniqueID(ctx, c.random, func(ctx context.Context, id string) (bool, error) {
		return c.storage.RoomExists(ctx, model.RoomID(id))
	})
	if err != nil {
		return nil, fmt.Errorf("allocate room id: %w", err)
	}

	room := &model.Room{
		ID:        model.RoomID(id),
		Players:   []model.PlayerRef{player.Ref()},
		CreatedAt: c.clock.Now(),
	}

	if err := c.storage.SaveRoom(ctx, room); err != nil {
		return nil, err
	}

	c.logger.Info("room created",
		slog.String("room_id", id),
		slog.String("player_id", string(player.ID)),
	)

	return room, nil
}

// GetRoom retrieves a room by ID
func (c *Controller) GetRoom(ctx context.Context, roomID model.RoomID) (*model.Room, error) {
	return c.storage.GetRoom(ctx, roomID)
}

// JoinRoom checks a second player may take the room and returns it full.
// Nothing is written; the room stays listed until RetireRoom.
func (c *Controller) JoinRoom(ctx context.Context, roomID model.RoomID, player *model.Player) (*model.Room, error) {
	room, err := c.storage.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}

	if room.IsFull() {
		return nil, model.ErrRoomFull
	}
	if room.HasPlayer(player.ID) {
		return nil, model.ErrInvalidJoin
	}
	if err := c.checkAvailable(ctx, player); err != nil {
		return nil, err
	}

	room.Players = append(room.Players, player.Ref())
	return room, nil
}

// RetireRoom removes a filled room once its game exists
func (c *Controller) RetireRoom(ctx context.Context, room *model.Room) error {
	if err := c.storage.DeleteRoom(ctx, room.ID); err != nil {
		return err
	}

	c.logger.Info("room filled",
		slog.String("room_id", string(room.ID)),
		slog.String("creator_id", string(room.Players[0].ID)),
		slog.String("joiner_id", string(room.Players[len(room.Players)-1].ID)),
	)
	return nil
}

// ListOpenRooms returns rooms with exactly one player, oldest first
func (c *Controller) ListOpenRooms(ctx context.Context) ([]model.Room, error) {
	rooms, err := c.storage.ListRooms(ctx)
	if err != nil {
		return nil, err
	}

	open := make([]model.Room, 0, len(rooms))
	for _, r := range rooms {
		if r.IsOpen() {
			open = append(open, *r)
		}
	}

	sort.Slice(open, func(i, j int) bool {
		if !open[i].CreatedAt.Equal(open[j].CreatedAt) {
			return open[i].CreatedAt.Before(open[j].CreatedAt)
		}
		return open[i].ID < open[j].ID
	})

	return open, nil
}

// RemovePlayer collapses the room a departing player sits in
func (c *Controller) RemovePlayer(ctx context.Context, playerID model.PlayerID) (bool, error) {
	room, err := c.findRoomOf(ctx, playerID)
	if err != nil || room == nil {
		return false, err
	}

	if err := c.storage.DeleteRoom(ctx, room.ID); err != nil {
		return false, err
	}

	c.logger.Info("room collapsed",
		slog.String("room_id", string(room.ID)),
		slog.String("player_id", string(playerID)),
	)

	return true, nil
}

// checkAvailable rejects players already waiting in a room or playing a game
func (c *Controller) checkAvailable(ctx context.Context, player *model.Player) error {
	room, err := c.findRoomOf(ctx, player.ID)
	if err != nil {
		return err
	}
	if room != nil {
		return model.ErrInvalidJoin
	}

	if player.GameID == "" {
		return nil
	}
	game, err := c.storage.GetGame(ctx, player.GameID)
	if errors.Is(err, model.ErrGameNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if game.IsActive() {
		return model.ErrInvalidJoin
	}
	return nil
}

func (c *Controller) findRoomOf(ctx context.Context, playerID model.PlayerID) (*model.Room, error) {
	rooms, err := c.storage.ListRooms(ctx)
	if err != nil {
		return nil, err
	}
	for _, r := range rooms {
		if r.HasPlayer(playerID) {
			return r, nil
		}
	}
	return nil, nil
}

// Interface for dependency injection
type ControllerInterface interface {
	CreateRoom(ctx context.Context, player *model.Player) (*model.Room, error)
	GetRoom(ctx context.Context, roomID model.RoomID) (*model.Room, error)
	JoinRoom(ctx context.Context, roomID model.RoomID, player *model.Player) (*model.Room, error)
	RetireRoom(ctx context.Context, room *model.Room) error
	ListOpenRooms(ctx context.Context) ([]model.Room, error)
	RemovePlayer(ctx context.Context, playerID model.PlayerID) (bool, error)
}

var _ ControllerInterface = (*Controller)(nil)

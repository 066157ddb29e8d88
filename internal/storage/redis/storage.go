package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/battleship/internal/model"
	"github.com/mcoot/battleship/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
	keys   keyspace
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return NewWithClient(client, cfg), nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = DefaultConfig().KeyPrefix
	}
	return &Storage{
		client: client,
		cfg:    cfg,
		keys:   keyspace(prefix),
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// getJSON loads a single JSON value, mapping a missing key to notFound
func getJSON[T any](ctx context.Context, client *redis.Client, key string, notFound error) (*T, error) {
	data, err := client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, notFound
		}
		return nil, err
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// mgetJSON loads every key listed in an index set, skipping expired entries
func mgetJSON[T any](ctx context.Context, client *redis.Client, indexKey string) ([]*T, error) {
	keys, err := client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return nil, err
	}

	if len(keys) == 0 {
		return []*T{}, nil
	}

	values, err := client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	result := make([]*T, 0, len(values))
	for _, val := range values {
		str, ok := val.(string)
		if !ok {
			continue // Key expired or was deleted
		}
		var v T
		if err := json.Unmarshal([]byte(str), &v); err != nil {
			continue // Skip invalid data
		}
		result = append(result, &v)
	}
	return result, nil
}

// Player operations

func (s *Storage) SavePlayer(ctx context.Context, player *model.Player) error {
	data, err := json.Marshal(player)
	if err != nil {
		return err
	}

	old, err := s.GetPlayer(ctx, player.ID)
	if err != nil && !errors.Is(err, model.ErrPlayerNotFound) {
		return err
	}

	key := s.keys.player(player.ID)

	// Use pipeline for atomic save + index update
	pipe := s.client.TxPipeline()
	if old != nil && old.Name != player.Name {
		pipe.Del(ctx, s.keys.nameIndex(old.Name))
	}
	if old != nil && old.SessionID != player.SessionID {
		pipe.Del(ctx, s.keys.sessionIndex(old.SessionID))
	}
	pipe.Set(ctx, key, data, s.cfg.PlayerTTL)
	pipe.Set(ctx, s.keys.nameIndex(player.Name), string(player.ID), s.cfg.PlayerTTL)
	if player.SessionID != "" {
		pipe.Set(ctx, s.keys.sessionIndex(player.SessionID), string(player.ID), s.cfg.PlayerTTL)
	}
	pipe.SAdd(ctx, s.keys.playersIndex(), key)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	return getJSON[model.Player](ctx, s.client, s.keys.player(id), model.ErrPlayerNotFound)
}

func (s *Storage) GetPlayerByName(ctx context.Context, name string) (*model.Player, error) {
	return s.getPlayerByIndex(ctx, s.keys.nameIndex(name))
}

func (s *Storage) GetPlayerBySession(ctx context.Context, sessionID model.SessionID) (*model.Player, error) {
	return s.getPlayerByIndex(ctx, s.keys.sessionIndex(sessionID))
}

func (s *Storage) getPlayerByIndex(ctx context.Context, indexKey string) (*model.Player, error) {
	playerID, err := s.client.Get(ctx, indexKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, err
	}
	return s.GetPlayer(ctx, model.PlayerID(playerID))
}

func (s *Storage) ListPlayers(ctx context.Context) ([]*model.Player, error) {
	return mgetJSON[model.Player](ctx, s.client, s.keys.playersIndex())
}

func (s *Storage) DeletePlayer(ctx context.Context, id model.PlayerID) error {
	player, err := s.GetPlayer(ctx, id)
	if errors.Is(err, model.ErrPlayerNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	key := s.keys.player(id)
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, key)
	pipe.Del(ctx, s.keys.nameIndex(player.Name))
	if player.SessionID != "" {
		pipe.Del(ctx, s.keys.sessionIndex(player.SessionID))
	}
	pipe.SRem(ctx, s.keys.playersIndex(), key)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) NextPlayerSeq(ctx context.Context) (int64, error) {
	return s.client.Incr(ctx, s.keys.playerSeq()).Result()
}

// Room operations

func (s *Storage) SaveRoom(ctx context.Context, room *model.Room) error {
	data, err := json.Marshal(room)
	if err != nil {
		return err
	}

	key := s.keys.room(room.ID)
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, key, data, s.cfg.RoomTTL)
	pipe.SAdd(ctx, s.keys.roomsIndex(), key)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetRoom(ctx context.Context, id model.RoomID) (*model.Room, error) {
	return getJSON[model.Room](ctx, s.client, s.keys.room(id), model.ErrRoomNotFound)
}

func (s *Storage) ListRooms(ctx context.Context) ([]*model.Room, error) {
	return mgetJSON[model.Room](ctx, s.client, s.keys.roomsIndex())
}

func (s *Storage) DeleteRoom(ctx context.Context, id model.RoomID) error {
	key := s.keys.room(id)
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, key)
	pipe.SRem(ctx, s.keys.roomsIndex(), key)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *Storage) RoomExists(ctx context.Context, id model.RoomID) (bool, error) {
	exists, err := s.client.Exists(ctx, s.keys.room(id)).Result()
	if err != nil {
		return false, err
	}
	return exists > 0, nil
}

// Game operations

func (s *Storage) SaveGame(ctx context.Context, game *model.Game) error {
	data, err := json.Marshal(game)
	if err != nil {
		return err
	}

	return s.client.Set(ctx, s.keys.game(game.ID), data, s.cfg.GameTTL).Err()
}

func (s *Storage) GetGame(ctx context.Context, id model.GameID) (*model.Game, error) {
	return getJSON[model.Game](ctx, s.client, s.keys.game(id), model.ErrGameNotFound)
}

func (s *Storage) DeleteGame(ctx context.Context, id model.GameID) error {
	return s.client.Del(ctx, s.keys.game(id)).Err()
}

func (s *Storage) GameExists(ctx context.Context, id model.GameID) (bool, error) {
	exists, err := s.client.Exists(ctx, s.keys.game(id)).Result()
	if err != nil {
		return false, err
	}
	return exists > 0, nil
}

// Board operations

func (s *Storage) SaveBoard(ctx context.Context, board *model.Board) error {
	data, err := json.Marshal(board)
	if err != nil {
		return err
	}

	bKey := s.keys.board(board.GameID, board.PlayerID)
	indexKey := s.keys.boardsForGameIndex(board.GameID)

	// Use pipeline for atomic save + index update
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, bKey, data, s.cfg.BoardTTL)
	pipe.SAdd(ctx, indexKey, bKey)
	if s.cfg.BoardTTL > 0 {
		pipe.Expire(ctx, indexKey, s.cfg.BoardTTL) // Keep index TTL in sync
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetBoard(ctx context.Context, gameID model.GameID, playerID model.PlayerID) (*model.Board, error) {
	return getJSON[model.Board](ctx, s.client, s.keys.board(gameID, playerID), model.ErrBoardNotFound)
}

func (s *Storage) GetBoardsForGame(ctx context.Context, gameID model.GameID) ([]*model.Board, error) {
	return mgetJSON[model.Board](ctx, s.client, s.keys.boardsForGameIndex(gameID))
}

func (s *Storage) DeleteBoardsForGame(ctx context.Context, gameID model.GameID) error {
	indexKey := s.keys.boardsForGameIndex(gameID)

	boardKeys, err := s.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return err
	}

	if len(boardKeys) == 0 {
		return nil
	}

	// Delete all boards and the index in one pipeline
	pipe := s.client.TxPipeline()
	for _, key := range boardKeys {
		pipe.Del(ctx, key)
	}
	pipe.Del(ctx, indexKey)
	_, err = pipe.Exec(ctx)
	return err
}

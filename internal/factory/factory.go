package factory

import (
	"errors"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/mcoot/battleship/internal/config"
	"github.com/mcoot/battleship/internal/dependencies/clock"
	"github.com/mcoot/battleship/internal/dependencies/random"
	"github.com/mcoot/battleship/internal/protocol"
	"github.com/mcoot/battleship/internal/services/board"
	"github.com/mcoot/battleship/internal/services/game"
	"github.com/mcoot/battleship/internal/services/player"
	"github.com/mcoot/battleship/internal/services/room"
	"github.com/mcoot/battleship/internal/services/session"
	"github.com/mcoot/battleship/internal/services/targeting"
	"github.com/mcoot/battleship/internal/storage"
	"github.com/mcoot/battleship/internal/storage/memory"
	redisstorage "github.com/mcoot/battleship/internal/storage/redis"
	"github.com/mcoot/battleship/internal/transport/ws"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	PlayerService  *player.Service
	RoomController *room.Controller
	BoardService   *board.Service
	GameController *game.Controller
	Coordinator    *session.Coordinator
	Hub            *ws.Hub
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// PlayerConfig holds registration settings
	// If zero value, defaults to player.DefaultConfig()
	PlayerConfig player.Config
	// FleetPolicy selects the fleet composition rule, defaulting to any
	FleetPolicy board.FleetPolicy
	// StringifyData sends outbound payloads as JSON strings
	StringifyData bool
	// WebsocketConfig tunes connections (optional)
	// If zero value, defaults to ws.DefaultConfig()
	WebsocketConfig ws.Config
}

// FromConfig translates loaded configuration into factory settings
//
// Redis keys get a fresh per-process namespace under the configured prefix since
// session state does not survive a restart.
func FromConfig(cfg config.Config, logger *slog.Logger) (Config, error) {
	policy, err := board.ParseFleetPolicy(cfg.Game.FleetPolicy)
	if err != nil {
		return Config{}, err
	}

	out := Config{
		Logger:        logger,
		StorageType:   cfg.Storage.Type,
		PlayerConfig:  player.Config{BcryptCost: cfg.Player.BcryptCost},
		FleetPolicy:   policy,
		StringifyData: cfg.Protocol.StringifyData,
		WebsocketConfig: ws.Config{
			WriteWait:      cfg.Websocket.WriteWait,
			PongWait:       cfg.Websocket.PongWait,
			PingPeriod:     cfg.Websocket.PingPeriod,
			MaxMessageSize: cfg.Websocket.MaxMessageSize,
			SendBufferSize: cfg.Websocket.SendBufferSize,
		},
	}

	if cfg.Storage.Type == StorageTypeRedis {
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = cfg.Storage.Redis.URL
		redisCfg.PoolSize = cfg.Storage.Redis.PoolSize
		redisCfg.MinIdleConns = cfg.Storage.Redis.MinIdleConns
		redisCfg.KeyPrefix = cfg.Storage.Redis.KeyPrefix + ":" + uuid.NewString()
		redisCfg.PlayerTTL = cfg.Storage.Redis.TTL
		redisCfg.RoomTTL = cfg.Storage.Redis.TTL
		redisCfg.GameTTL = cfg.Storage.Redis.TTL
		redisCfg.BoardTTL = cfg.Storage.Redis.TTL
		out.RedisConfig = &redisCfg
	}

	return out, nil
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	// Create storage based on type
	var store storage.Storage
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	// Create external dependencies
	clk := clock.New()
	rnd := random.New()

	return newWithDependencies(store, clk, rnd, cfg, logger), nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.Storage, clk clock.Clock, rnd random.Random, cfg Config, logger *slog.Logger) *App {
	playerCfg := cfg.PlayerConfig
	if playerCfg.BcryptCost == 0 {
		playerCfg = player.DefaultConfig()
	}
	policy := cfg.FleetPolicy
	if policy == "" {
		policy = board.FleetPolicyAny
	}
	wsCfg := cfg.WebsocketConfig
	if wsCfg == (ws.Config{}) {
		wsCfg = ws.DefaultConfig()
	}

	// Create services
	playerService := player.New(store, clk, rnd, playerCfg, logger)
	roomController := room.NewController(store, clk, rnd, logger)
	boardService := board.New(store, policy, logger)
	gameController := game.NewController(store, boardService, playerService, targeting.NewRandomStrategy(rnd), clk, rnd, logger)
	hub := ws.NewHub(wsCfg, clk, logger)
	coordinator := session.NewCoordinator(
		playerService,
		roomController,
		gameController,
		hub,
		protocol.Encoder{StringifyData: cfg.StringifyData},
		logger,
	)

	return &App{
		Storage:        store,
		Clock:          clk,
		Random:         rnd,
		PlayerService:  playerService,
		RoomController: roomController,
		BoardService:   boardService,
		GameController: gameController,
		Coordinator:    coordinator,
		Hub:            hub,
	}
}

// Close disconnects every session and releases storage
func (a *App) Close() error {
	a.Hub.Close()
	return a.Storage.Close()
}

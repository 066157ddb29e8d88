package player

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/battleship/internal/dependencies/clock"
	"github.com/mcoot/battleship/internal/dependencies/random"
	"github.com/mcoot/battleship/internal/model"
	"github.com/mcoot/battleship/internal/storage"
)

// Config holds configuration for the player service
type Config struct {
	BcryptCost int
}

// DefaultConfig returns default player configuration
func DefaultConfig() Config {
	return Config{
		BcryptCost: bcrypt.DefaultCost,
	}
}

// Service owns player identity, credentials and win counters
type Service struct {
	storage storage.Storage
	clock   clock.Clock
	random  random.Random
	logger  *slog.Logger

	bcryptCost int
}

// New creates a new player Service
func New(storage storage.Storage, clock clock.Clock, random random.Random, cfg Config, logger *slog.Logger) *Service {
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = DefaultConfig().BcryptCost
	}
	return &Service{
		storage:    storage,
		clock:      clock,
		random:     random,
		logger:     logger,
		bcryptCost: cfg.BcryptCost,
	}
}

// MaxPasswordBytes is the longest password bcrypt accepts
const MaxPasswordBytes = 72

// Register creates a player bound to the given session
func (s *Service) Register(ctx context.Context, name, password string, sessionID model.SessionID) (*model.Player, error) {
	if name == "" {
		return nil, model.ErrMalformedPayload
	}
	hash, err := s.HashCredential(password)
	if err != nil {
		return nil, err
	}
	return s.RegisterHashed(ctx, name, hash, sessionID)
}

// HashCredential hashes a password for RegisterHashed. It touches no
// storage, so callers can run it outside their own locks.
func (s *Service) HashCredential(password string) (string, error) {
	if password == "" {
		return "", model.ErrMalformedPayload
	}
	if len(password) > MaxPasswordBytes {
		return "", fmt.Errorf("%w: password longer than %d bytes", model.ErrMalformedPayload, MaxPasswordBytes)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", fmt.Errorf("%w: %v", model.ErrMalformedPayload, err)
	}
	if err != nil {
		return "", fmt.Errorf("hash credential: %w", err)
	}
	return string(hash), nil
}

// RegisterHashed creates a player from a hash produced by HashCredential
func (s *Service) RegisterHashed(ctx context.Context, name, hash string, sessionID model.SessionID) (*model.Player, error) {
	if name == "" || hash == "" {
		return nil, model.ErrMalformedPayload
	}

	// One player per connection
	_, err := s.storage.GetPlayerBySession(ctx, sessionID)
	if err == nil {
		return nil, model.ErrAlreadyRegistered
	}
	if !errors.Is(err, model.ErrPlayerNotFound) {
		return nil, err
	}

	// Names are unique among live players
	_, err = s.storage.GetPlayerByName(ctx, name)
	if err == nil {
		return nil, model.ErrNameTaken
	}
	if !errors.Is(err, model.ErrPlayerNotFound) {
		return nil, err
	}

	id, err := random.UniqueID(ctx, s.random, s.playerExists)
	if err != nil {
		return nil, fmt.Errorf("allocate player id: %w", err)
	}

	seq, err := s.storage.NextPlayerSeq(ctx)
	if err != nil {
		return nil, err
	}

	player := &model.Player{
		ID:             model.PlayerID(id),
		Name:           name,
		CredentialHash: hash,
		Seq:            seq,
		SessionID:      sessionID,
		CreatedAt:      s.clock.Now(),
	}

	if err := s.storage.SavePlayer(ctx, player); err != nil {
		return nil, err
	}

	s.logger.Info("player registered",
		slog.String("player_id", id),
		slog.String("name", name),
		slog.String("session_id", string(sessionID)),
	)

	return player, nil
}

func (s *Service) playerExists(ctx context.Context, id string) (bool, error) {
	_, err := s.storage.GetPlayer(ctx, model.PlayerID(id))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, model.ErrPlayerNotFound) {
		return false, nil
	}
	return false, err
}

// FindBySession resolves the player that registered on a session
func (s *Service) FindBySession(ctx context.Context, sessionID model.SessionID) (*model.Player, error) {
	player, err := s.storage.GetPlayerBySession(ctx, sessionID)
	if errors.Is(err, model.ErrPlayerNotFound) {
		return nil, model.ErrNotRegistered
	}
	return player, err
}

// Get retrieves a player by ID
func (s *Service) Get(ctx context.Context, playerID model.PlayerID) (*model.Player, error) {
	return s.storage.GetPlayer(ctx, playerID)
}

// GetByName retrieves a live player by name
func (s *Service) GetByName(ctx context.Context, name string) (*model.Player, error) {
	return s.storage.GetPlayerByName(ctx, name)
}

// Remove deletes a player, freeing its name
func (s *Service) Remove(ctx context.Context, playerID model.PlayerID) error {
	if err := s.storage.DeletePlayer(ctx, playerID); err != nil {
		return err
	}
	s.logger.Info("player removed", slog.String("player_id", string(playerID)))
	return nil
}

// WinnersSnapshot returns every live player ordered by wins, ties by registration order
func (s *Service) WinnersSnapshot(ctx context.Context) ([]model.Winner, error) {
	players, err := s.storage.ListPlayers(ctx)
	if err != nil {
		return nil, err
	}

	sort.Slice(players, func(i, j int) bool {
		if players[i].Wins != players[j].Wins {
			return players[i].Wins > players[j].Wins
		}
		return players[i].Seq < players[j].Seq
	})

	winners := make([]model.Winner, 0, len(players))
	for _, p := range players {
		winners = append(winners, model.Winner{Name: p.Name, Wins: p.Wins})
	}
	return winners, nil
}

// RecordWin increments a player's win count; departed players are ignored
func (s *Service) RecordWin(ctx context.Context, playerID model.PlayerID) error {
	player, err := s.storage.GetPlayer(ctx, playerID)
	if errors.Is(err, model.ErrPlayerNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	player.Wins++
	if err := s.storage.SavePlayer(ctx, player); err != nil {
		return err
	}

	s.logger.Info("win recorded",
		slog.String("player_id", string(playerID)),
		slog.Int("wins", player.Wins),
	)
	return nil
}

// SetRoom records the open room a player sits in
func (s *Service) SetRoom(ctx context.Context, playerID model.PlayerID, roomID model.RoomID) error {
	return s.update(ctx, playerID, func(p *model.Player) {
		p.RoomID = roomID
	})
}

// SetGame records the game a player is taking part in and clears their room
func (s *Service) SetGame(ctx context.Context, playerID model.PlayerID, gameID model.GameID) error {
	return s.update(ctx, playerID, func(p *model.Player) {
		p.GameID = gameID
		p.RoomID = ""
	})
}

func (s *Service) update(ctx context.Context, playerID model.PlayerID, mutate func(*model.Player)) error {
	player, err := s.storage.GetPlayer(ctx, playerID)
	if err != nil {
		return err
	}
	mutate(player)
	return s.storage.SavePlayer(ctx, player)
}

// VerifyCredential checks a name and password against the stored hash
func (s *Service) VerifyCredential(ctx context.Context, name, password string) (*model.Player, error) {
	player, err := s.storage.GetPlayerByName(ctx, name)
	if err != nil {
		if errors.Is(err, model.ErrPlayerNotFound) {
			return nil, model.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(player.CredentialHash), []byte(password)); err != nil {
		return nil, model.ErrInvalidCredentials
	}

	return player, nil
}

// Interface for dependency injection
type ServiceInterface interface {
	Register(ctx context.Context, name, password string, sessionID model.SessionID) (*model.Player, error)
	HashCredential(password string) (string, error)
	RegisterHashed(ctx context.Context, name, hash string, sessionID model.SessionID) (*model.Player, error)
	FindBySession(ctx context.Context, sessionID model.SessionID) (*model.Player, error)
	Get(ctx context.Context, playerID model.PlayerID) (*model.Player, error)
	GetByName(ctx context.Context, name string) (*model.Player, error)
	Remove(ctx context.Context, playerID model.PlayerID) error
	WinnersSnapshot(ctx context.Context) ([]model.Winner, error)
	RecordWin(ctx context.Context, playerID model.PlayerID) error
	SetRoom(ctx context.Context, playerID model.PlayerID, roomID model.RoomID) error
	SetGame(ctx context.Context, playerID model.PlayerID, gameID model.GameID) error
	VerifyCredential(ctx context.Context, name, password string) (*model.Player, error)
}

var _ ServiceInterface = (*Service)(nil)

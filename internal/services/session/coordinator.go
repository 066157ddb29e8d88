package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mcoot/battleship/internal/model"
	"github.com/mcoot/battleship/internal/protocol"
	"github.com/mcoot/battleship/internal/services/game"
	"github.com/mcoot/battleship/internal/services/player"
	"github.com/mcoot/battleship/internal/services/room"
)

// Coordinator routes decoded client messages to the game components
//
// Every message, connect and disconnect is applied under a single lock so the
// state changes and outbound events of one message never interleave with another.
// Registration passwords are hashed before the lock is taken.
type Coordinator struct {
	mu sync.Mutex

	players    *player.Service
	rooms      *room.Controller
	games      *game.Controller
	dispatcher Dispatcher
	encoder    protocol.Encoder
	logger     *slog.Logger
}

// NewCoordinator creates a new session Coordinator
func NewCoordinator(
	players *player.Service,
	rooms *room.Controller,
	games *game.Controller,
	dispatcher Dispatcher,
	encoder protocol.Encoder,
	logger *slog.Logger,
) *Coordinator {
	return &Coordinator{
		players:    players,
		rooms:      rooms,
		games:      games,
		dispatcher: dispatcher,
		encoder:    encoder,
		logger:     logger,
	}
}

type playerHandlerFunc func(ctx context.Context, p *model.Player, env *protocol.Envelope, out *outbox) error

// HandleFrame decodes a raw frame and applies it
func (c *Coordinator) HandleFrame(ctx context.Context, sessionID model.SessionID, raw []byte) {
	env, err := protocol.Decode(raw)
	if err != nil {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.replyError(sessionID, nil, err)
		return
	}
	c.Handle(ctx, sessionID, env)
}

// Handle applies one decoded message from a session
func (c *Coordinator) Handle(ctx context.Context, sessionID model.SessionID, env *protocol.Envelope) {
	var reg *pendingReg
	if env.Type == protocol.TypeReg {
		reg = c.prepareReg(env)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	out := &outbox{enc: c.encoder}
	err := c.route(ctx, sessionID, env, reg, out)
	if err == nil {
		err = out.err
	}
	if err != nil {
		c.replyError(sessionID, env, err)
		return
	}

	out.flush(c.dispatcher)
	c.logger.Debug("message handled",
		slog.String("session_id", string(sessionID)),
		slog.String("type", env.Type),
	)
}

func (c *Coordinator) route(ctx context.Context, sessionID model.SessionID, env *protocol.Envelope, reg *pendingReg, out *outbox) error {
	if env.Type == protocol.TypeReg {
		return c.handleReg(ctx, sessionID, env, reg, out)
	}

	var handler playerHandlerFunc
	switch env.Type {
	case protocol.TypeCreateRoom:
		handler = c.handleCreateRoom
	case protocol.TypeAddUserToRoom:
		handler = c.handleAddUserToRoom
	case protocol.TypeAddShips:
		handler = c.handleAddShips
	case protocol.TypeAttack:
		handler = c.handleAttack
	case protocol.TypeRandomAttack:
		handler = c.handleRandomAttack
	default:
		return fmt.Errorf("%w: %q", model.ErrUnknownMessage, env.Type)
	}

	p, err := c.players.FindBySession(ctx, sessionID)
	if err != nil {
		return err
	}
	return handler(ctx, p, env, out)
}

// Connect greets a new session with the current room list and leaderboard
func (c *Coordinator) Connect(ctx context.Context, sessionID model.SessionID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := &outbox{enc: c.encoder}
	to := []model.SessionID{sessionID}
	if err := c.sendRooms(ctx, out, to); err != nil {
		c.logger.Error("failed to build room snapshot", slog.String("error", err.Error()))
		return
	}
	if err := c.sendWinners(ctx, out, to); err != nil {
		c.logger.Error("failed to build winners snapshot", slog.String("error", err.Error()))
		return
	}
	if out.err != nil {
		c.logger.Error("failed to encode snapshot", slog.String("error", out.err.Error()))
		return
	}
	out.flush(c.dispatcher)
}

// Disconnect resolves everything a departing session leaves behind
//
// Forfeits and room collapses are normal transitions: they are logged and
// broadcast, and never reported as errors to anyone.
func (c *Coordinator) Disconnect(ctx context.Context, sessionID model.SessionID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, err := c.players.FindBySession(ctx, sessionID)
	if err != nil {
		if !errors.Is(err, model.ErrNotRegistered) {
			c.logger.Error("failed to resolve disconnecting session",
				slog.String("session_id", string(sessionID)),
				slog.String("error", err.Error()),
			)
		}
		return
	}

	logger := c.logger.With(
		slog.String("session_id", string(sessionID)),
		slog.String("player_id", string(p.ID)),
	)
	out := &outbox{enc: c.encoder}

	outcome, err := c.games.HandleDisconnect(ctx, p.ID)
	if err != nil {
		logger.Error("failed to resolve game on disconnect", slog.String("error", err.Error()))
	}
	if outcome != nil && outcome.Forfeited {
		if remaining, err := c.players.Get(ctx, outcome.Remaining); err == nil {
			out.send([]model.SessionID{remaining.SessionID}, protocol.TypeFinish,
				protocol.Finish{WinPlayer: string(outcome.Winner)}, protocol.UnsolicitedID)
		}
	}

	if _, err := c.rooms.RemovePlayer(ctx, p.ID); err != nil {
		logger.Error("failed to collapse room on disconnect", slog.String("error", err.Error()))
	}
	if err := c.players.Remove(ctx, p.ID); err != nil {
		logger.Error("failed to remove player on disconnect", slog.String("error", err.Error()))
	}

	if err := c.sendRooms(ctx, out, nil); err != nil {
		logger.Error("failed to build room snapshot", slog.String("error", err.Error()))
	}
	if err := c.sendWinners(ctx, out, nil); err != nil {
		logger.Error("failed to build winners snapshot", slog.String("error", err.Error()))
	}
	if out.err != nil {
		logger.Error("failed to encode disconnect events", slog.String("error", out.err.Error()))
	}
	out.flush(c.dispatcher)

	logger.Info("session disconnected")
}

// replyError sends a single error event to the originating session
func (c *Coordinator) replyError(sessionID model.SessionID, env *protocol.Envelope, err error) {
	payload, known := protocol.ErrorFor(err)
	if !known {
		c.logger.Error("message failed",
			slog.String("session_id", string(sessionID)),
			slog.String("error", err.Error()),
		)
	} else {
		c.logger.Debug("message rejected",
			slog.String("session_id", string(sessionID)),
			slog.String("code", payload.Code),
			slog.String("error", err.Error()),
		)
	}

	frame, encErr := c.encoder.Encode(protocol.TypeError, payload, env.ReplyID())
	if encErr != nil {
		c.logger.Error("failed to encode error", slog.String("error", encErr.Error()))
		return
	}
	c.dispatcher.Send(sessionID, frame)
}

// sendRooms emits the open room list to the given sessions, or everyone when to is nil
func (c *Coordinator) sendRooms(ctx context.Context, out *outbox, to []model.SessionID) error {
	rooms, err := c.rooms.ListOpenRooms(ctx)
	if err != nil {
		return err
	}
	data := protocol.RoomsFromModel(rooms)
	if to == nil {
		out.broadcast(protocol.TypeUpdateRoom, data)
	} else {
		out.send(to, protocol.TypeUpdateRoom, data, protocol.UnsolicitedID)
	}
	return nil
}

// sendWinners emits the leaderboard to the given sessions, or everyone when to is nil
func (c *Coordinator) sendWinners(ctx context.Context, out *outbox, to []model.SessionID) error {
	winners, err := c.players.WinnersSnapshot(ctx)
	if err != nil {
		return err
	}
	data := protocol.WinnersFromModel(winners)
	if to == nil {
		out.broadcast(protocol.TypeUpdateWinners, data)
	} else {
		out.send(to, protocol.TypeUpdateWinners, data, protocol.UnsolicitedID)
	}
	return nil
}

// sessionsOf returns the sessions of a game's players that are still connected
func (c *Coordinator) sessionsOf(ctx context.Context, g *model.Game) ([]model.SessionID, error) {
	sessions := make([]model.SessionID, 0, len(g.Players))
	for _, id := range g.Players {
		p, err := c.players.Get(ctx, id)
		if errors.Is(err, model.ErrPlayerNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, p.SessionID)
	}
	return sessions, nil
}

// checkSender rejects payloads that claim to come from another player
func checkSender(p *model.Player, indexPlayer *protocol.FlexID) error {
	if indexPlayer != nil && string(*indexPlayer) != string(p.ID) {
		return fmt.Errorf("%w: indexPlayer does not match sender", model.ErrMalformedPayload)
	}
	return nil
}

package session

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mcoot/battleship/internal/model"
	"github.com/mcoot/battleship/internal/protocol"
)

// pendingReg is a reg payload decoded and hashed outside the coordinator lock
type pendingReg struct {
	req       protocol.RegRequest
	hash      string
	decodeErr error
	hashErr   error
}

func (c *Coordinator) prepareReg(env *protocol.Envelope) *pendingReg {
	reg := &pendingReg{}
	if reg.decodeErr = env.DecodeData(&reg.req); reg.decodeErr != nil {
		return reg
	}
	reg.hash, reg.hashErr = c.players.HashCredential(reg.req.Password)
	return reg
}

func (c *Coordinator) handleReg(ctx context.Context, sessionID model.SessionID, env *protocol.Envelope, reg *pendingReg, out *outbox) error {
	if reg.decodeErr != nil {
		return reg.decodeErr
	}
	req := reg.req

	to := []model.SessionID{sessionID}
	err := reg.hashErr
	var p *model.Player
	if err == nil {
		p, err = c.players.RegisterHashed(ctx, req.Name, reg.hash, sessionID)
	}
	if err != nil {
		// Registration failures are answered in a reg reply rather than an error event
		payload, known := protocol.ErrorFor(err)
		if !known {
			return err
		}
		out.send(to, protocol.TypeReg, protocol.RegResponse{
			Name:      req.Name,
			Error:     true,
			ErrorText: payload.ErrorText,
		}, env.ReplyID())
		return nil
	}

	out.send(to, protocol.TypeReg, protocol.RegResponse{
		Name:  p.Name,
		Index: string(p.ID),
	}, env.ReplyID())
	if err := c.sendRooms(ctx, out, to); err != nil {
		return err
	}
	return c.sendWinners(ctx, out, nil)
}

func (c *Coordinator) handleCreateRoom(ctx context.Context, p *model.Player, _ *protocol.Envelope, out *outbox) error {
	r, err := c.rooms.CreateRoom(ctx, p)
	if err != nil {
		return err
	}
	if err := c.players.SetRoom(ctx, p.ID, r.ID); err != nil {
		return err
	}
	return c.sendRooms(ctx, out, nil)
}

func (c *Coordinator) handleAddUserToRoom(ctx context.Context, p *model.Player, env *protocol.Envelope, out *outbox) error {
	var req protocol.AddUserToRoomRequest
	if err := env.DecodeData(&req); err != nil {
		return err
	}

	r, err := c.rooms.JoinRoom(ctx, model.RoomID(req.IndexRoom), p)
	if err != nil {
		return err
	}

	creator, err := c.players.Get(ctx, r.Players[0].ID)
	if err != nil {
		return err
	}
	seated := [2]*model.Player{creator, p}
	archived := [2]model.GameID{creator.GameID, p.GameID}

	// The room is only retired once the game and both seats are stored
	g, err := c.games.StartGame(ctx, creator.ID, p.ID)
	if err != nil {
		return err
	}

	for _, sp := range seated {
		if err := c.players.SetGame(ctx, sp.ID, g.ID); err != nil {
			return err
		}
		id := protocol.UnsolicitedID
		if sp.ID == p.ID {
			id = env.ReplyID()
		}
		out.send([]model.SessionID{sp.SessionID}, protocol.TypeCreateGame, protocol.CreateGame{
			IDGame:   string(g.ID),
			IDPlayer: string(sp.ID),
		}, id)
	}

	if err := c.rooms.RetireRoom(ctx, r); err != nil {
		return err
	}

	// Archived games of either player are dropped once they start a new one
	for _, id := range archived {
		if id == "" {
			continue
		}
		if err := c.games.DiscardFinished(ctx, id); err != nil {
			c.logger.Error("failed to discard archived game",
				slog.String("game_id", string(id)),
				slog.String("error", err.Error()),
			)
		}
	}

	c.logger.Info("game seated",
		slog.String("game_id", string(g.ID)),
		slog.String("room_id", string(r.ID)),
	)

	return c.sendRooms(ctx, out, nil)
}

func (c *Coordinator) handleAddShips(ctx context.Context, p *model.Player, env *protocol.Envelope, out *outbox) error {
	var req protocol.AddShipsRequest
	if err := env.DecodeData(&req); err != nil {
		return err
	}
	if err := checkSender(p, req.IndexPlayer); err != nil {
		return err
	}
	ships, err := protocol.ShipsToModel(req.Ships)
	if err != nil {
		return err
	}

	result, err := c.games.SubmitFleet(ctx, model.GameID(req.GameID), p.ID, ships)
	if err != nil {
		return err
	}
	if !result.Started {
		return nil
	}

	g := result.Game
	for i, id := range g.Players {
		seat, err := c.players.Get(ctx, id)
		if err != nil {
			continue
		}
		out.send([]model.SessionID{seat.SessionID}, protocol.TypeStartGame, protocol.StartGame{
			Ships:              protocol.ShipsFromModel(result.Fleets[i]),
			CurrentPlayerIndex: string(id),
		}, protocol.UnsolicitedID)
	}

	sessions, err := c.sessionsOf(ctx, g)
	if err != nil {
		return err
	}
	out.send(sessions, protocol.TypeTurn, protocol.Turn{CurrentPlayer: string(g.CurrentTurn)}, protocol.UnsolicitedID)
	return nil
}

func (c *Coordinator) handleAttack(ctx context.Context, p *model.Player, env *protocol.Envelope, out *outbox) error {
	var req protocol.AttackRequest
	if err := env.DecodeData(&req); err != nil {
		return err
	}
	if err := checkSender(p, req.IndexPlayer); err != nil {
		return err
	}
	if req.X == nil || req.Y == nil {
		return fmt.Errorf("%w: attack needs x and y", model.ErrMalformedPayload)
	}

	outcome, err := c.games.Attack(ctx, model.GameID(req.GameID), p.ID, *req.X, *req.Y)
	if err != nil {
		return err
	}
	return c.emitAttack(ctx, outcome, out)
}

func (c *Coordinator) handleRandomAttack(ctx context.Context, p *model.Player, env *protocol.Envelope, out *outbox) error {
	var req protocol.RandomAttackRequest
	if err := env.DecodeData(&req); err != nil {
		return err
	}
	if err := checkSender(p, req.IndexPlayer); err != nil {
		return err
	}

	outcome, err := c.games.RandomAttack(ctx, model.GameID(req.GameID), p.ID)
	if err != nil {
		return err
	}
	return c.emitAttack(ctx, outcome, out)
}

// emitAttack sends the shot result followed by the turn change or the finish
func (c *Coordinator) emitAttack(ctx context.Context, outcome *model.AttackOutcome, out *outbox) error {
	g, err := c.games.GetGame(ctx, outcome.GameID)
	if err != nil {
		return err
	}
	sessions, err := c.sessionsOf(ctx, g)
	if err != nil {
		return err
	}

	out.send(sessions, protocol.TypeAttack, protocol.Attack{
		Position:      protocol.Position{X: outcome.Position.X, Y: outcome.Position.Y},
		CurrentPlayer: string(outcome.Attacker),
		Status:        protocol.AttackStatus(outcome.Result),
	}, protocol.UnsolicitedID)

	switch {
	case outcome.Finished:
		out.send(sessions, protocol.TypeFinish, protocol.Finish{WinPlayer: string(outcome.Winner)}, protocol.UnsolicitedID)
		return c.sendWinners(ctx, out, nil)
	case outcome.TurnChanged:
		out.send(sessions, protocol.TypeTurn, protocol.Turn{CurrentPlayer: string(outcome.CurrentTurn)}, protocol.UnsolicitedID)
	}
	return nil
}

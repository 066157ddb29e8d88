package game

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/battleship/internal/dependencies/mocks"
	"github.com/mcoot/battleship/internal/model"
	"github.com/mcoot/battleship/internal/services/board"
	"github.com/mcoot/battleship/internal/services/player"
	"github.com/mcoot/battleship/internal/services/targeting"
	"github.com/mcoot/battleship/internal/storage/memory"
	"github.com/mcoot/battleship/internal/testutil"
)

// faultyStorage fails selected writes on top of the in-memory store
type faultyStorage struct {
	*memory.Storage
	failSaveBoard bool
}

var errStorageDown = errors.New("storage down")

func (f *faultyStorage) SaveBoard(ctx context.Context, b *model.Board) error {
	if f.failSaveBoard {
		return errStorageDown
	}
	return f.Storage.SaveBoard(ctx, b)
}

type ControllerSuite struct {
	suite.Suite
	storage       *memory.Storage
	faults        *faultyStorage
	boardService  *board.Service
	playerService *player.Service
	clock         *mocks.MockClock
	random        *mocks.MockRandom
	controller    *Controller
	ctx           context.Context

	alice *model.Player
	bob   *model.Player
}

func TestControllerSuite(t *testing.T) {
	suite.Run(t, new(ControllerSuite))
}

func (s *ControllerSuite) SetupTest() {
	s.storage = memory.New()
	logger := testutil.NopLogger()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.boardService = board.New(s.storage, board.FleetPolicyAny, logger)
	s.playerService = player.New(s.storage, s.clock, s.random, player.Config{BcryptCost: bcrypt.MinCost}, logger)
	s.faults = &faultyStorage{Storage: s.storage}
	s.controller = NewController(s.faults, s.boardService, s.playerService, targeting.NewRandomStrategy(s.random), s.clock, s.random, logger)
	s.ctx = context.Background()

	s.random.QueueString("alice0001", "bob000001")
	var err error
	s.alice, err = s.playerService.Register(s.ctx, "alice", "pw", "sess-a")
	s.Require().NoError(err)
	s.bob, err = s.playerService.Register(s.ctx, "bob", "pw", "sess-b")
	s.Require().NoError(err)
}

func ship(x, y, length int, orientation model.Orientation) model.Ship {
	return model.Ship{
		Origin:      model.Position{X: x, Y: y},
		Orientation: orientation,
		Length:      length,
		Type:        model.ShipSmall,
	}
}

// startGame creates a game between alice and bob and records it on both players
func (s *ControllerSuite) startGame() *model.Game {
	s.random.QueueString("game00001")
	game, err := s.controller.StartGame(s.ctx, s.alice.ID, s.bob.ID)
	s.Require().NoError(err)
	s.Require().NoError(s.playerService.SetGame(s.ctx, s.alice.ID, game.ID))
	s.Require().NoError(s.playerService.SetGame(s.ctx, s.bob.ID, game.ID))
	return game
}

// playingGame starts a game where bob's only ship is a huge ship along the top row
func (s *ControllerSuite) playingGame() *model.Game {
	game := s.startGame()
	_, err := s.controller.SubmitFleet(s.ctx, game.ID, s.alice.ID, []model.Ship{ship(0, 9, 2, model.OrientationHorizontal)})
	s.Require().NoError(err)
	_, err = s.controller.SubmitFleet(s.ctx, game.ID, s.bob.ID, []model.Ship{ship(0, 0, 4, model.OrientationHorizontal)})
	s.Require().NoError(err)
	return game
}

// StartGame tests

func (s *ControllerSuite) TestStartGameSucceeds() {
	game := s.startGame()

	s.Equal(model.GameID("game00001"), game.ID)
	s.Equal([2]model.PlayerID{s.alice.ID, s.bob.ID}, game.Players)
	s.Equal(model.GameStatusPlacing, game.Status)
	s.Empty(game.CurrentTurn)

	for _, p := range game.Players {
		b, err := s.controller.GetBoard(s.ctx, game.ID, p)
		s.Require().NoError(err)
		s.Equal(model.DefaultBoardSize, b.Size)
		s.False(b.FleetPlaced)
	}
}

func (s *ControllerSuite) TestStartGameRejectsSamePlayerTwice() {
	_, err := s.controller.StartGame(s.ctx, s.alice.ID, s.alice.ID)
	s.ErrorIs(err, model.ErrInvalidJoin)
}

// SubmitFleet tests

func (s *ControllerSuite) TestSubmitFleetWaitsForBothPlayers() {
	game := s.startGame()

	result, err := s.controller.SubmitFleet(s.ctx, game.ID, s.bob.ID, []model.Ship{ship(0, 0, 3, model.OrientationVertical)})
	s.Require().NoError(err)
	s.False(result.Started)

	stored, _ := s.controller.GetGame(s.ctx, game.ID)
	s.Equal(model.GameStatusPlacing, stored.Status)
	s.Empty(stored.CurrentTurn)
}

func (s *ControllerSuite) TestSubmitFleetStartsGameWithCreatorTurn() {
	game := s.startGame()
	aliceFleet := []model.Ship{ship(5, 5, 2, model.OrientationHorizontal)}
	bobFleet := []model.Ship{ship(0, 0, 3, model.OrientationVertical)}

	_, err := s.controller.SubmitFleet(s.ctx, game.ID, s.bob.ID, bobFleet)
	s.Require().NoError(err)
	result, err := s.controller.SubmitFleet(s.ctx, game.ID, s.alice.ID, aliceFleet)
	s.Require().NoError(err)

	s.True(result.Started)
	s.Equal(model.GameStatusInProgress, result.Game.Status)
	s.Equal(s.alice.ID, result.Game.CurrentTurn)
	s.Equal(aliceFleet, result.Fleets[0])
	s.Equal(bobFleet, result.Fleets[1])
}

func (s *ControllerSuite) TestSubmitFleetUnknownGame() {
	_, err := s.controller.SubmitFleet(s.ctx, "missing", s.alice.ID, []model.Ship{ship(0, 0, 1, model.OrientationVertical)})
	s.ErrorIs(err, model.ErrGameNotFound)
}

func (s *ControllerSuite) TestSubmitFleetOutsider() {
	game := s.startGame()

	_, err := s.controller.SubmitFleet(s.ctx, game.ID, "carol", []model.Ship{ship(0, 0, 1, model.OrientationVertical)})
	s.ErrorIs(err, model.ErrNotInGame)
}

func (s *ControllerSuite) TestSubmitFleetTwiceIsWrongState() {
	game := s.startGame()
	_, _ = s.controller.SubmitFleet(s.ctx, game.ID, s.alice.ID, []model.Ship{ship(0, 0, 1, model.OrientationVertical)})

	_, err := s.controller.SubmitFleet(s.ctx, game.ID, s.alice.ID, []model.Ship{ship(3, 3, 1, model.OrientationVertical)})
	s.ErrorIs(err, model.ErrWrongState)
}

func (s *ControllerSuite) TestSubmitFleetAfterStartIsWrongState() {
	game := s.playingGame()

	_, err := s.controller.SubmitFleet(s.ctx, game.ID, s.alice.ID, []model.Ship{ship(0, 0, 1, model.OrientationVertical)})
	s.ErrorIs(err, model.ErrWrongState)
}

func (s *ControllerSuite) TestSubmitFleetInvalidRecordsNothing() {
	game := s.startGame()
	overlapping := []model.Ship{
		ship(0, 0, 4, model.OrientationHorizontal),
		ship(1, 0, 2, model.OrientationVertical),
	}

	_, err := s.controller.SubmitFleet(s.ctx, game.ID, s.alice.ID, overlapping)
	s.ErrorIs(err, model.ErrInvalidPlacement)

	b, _ := s.controller.GetBoard(s.ctx, game.ID, s.alice.ID)
	s.False(b.FleetPlaced)
	s.Empty(b.Ships)

	// A corrected fleet is still accepted
	_, err = s.controller.SubmitFleet(s.ctx, game.ID, s.alice.ID, overlapping[:1])
	s.NoError(err)
}

// Attack tests

func (s *ControllerSuite) TestAttackBeforeStartIsWrongState() {
	game := s.startGame()

	_, err := s.controller.Attack(s.ctx, game.ID, s.alice.ID, 0, 0)
	s.ErrorIs(err, model.ErrWrongState)
}

func (s *ControllerSuite) TestAttackOutOfTurn() {
	game := s.playingGame()

	_, err := s.controller.Attack(s.ctx, game.ID, s.bob.ID, 0, 0)
	s.ErrorIs(err, model.ErrNotYourTurn)
}

func (s *ControllerSuite) TestAttackOutOfBounds() {
	game := s.playingGame()

	_, err := s.controller.Attack(s.ctx, game.ID, s.alice.ID, 10, 0)
	s.ErrorIs(err, model.ErrOutOfBounds)
	_, err = s.controller.Attack(s.ctx, game.ID, s.alice.ID, 0, -1)
	s.ErrorIs(err, model.ErrOutOfBounds)

	stored, _ := s.controller.GetGame(s.ctx, game.ID)
	s.Equal(0, stored.ShotCount)
}

func (s *ControllerSuite) TestAttackMissPassesTurn() {
	game := s.playingGame()

	outcome, err := s.controller.Attack(s.ctx, game.ID, s.alice.ID, 9, 9)
	s.Require().NoError(err)

	s.Equal(model.AttackMiss, outcome.Result)
	s.True(outcome.TurnChanged)
	s.Equal(s.bob.ID, outcome.CurrentTurn)
	s.Equal(s.alice.ID, outcome.Attacker)

	stored, _ := s.controller.GetGame(s.ctx, game.ID)
	s.Equal(s.bob.ID, stored.CurrentTurn)
}

func (s *ControllerSuite) TestAttackSameCellTwice() {
	game := s.playingGame()
	_, err := s.controller.Attack(s.ctx, game.ID, s.alice.ID, 0, 0)
	s.Require().NoError(err)

	_, err = s.controller.Attack(s.ctx, game.ID, s.alice.ID, 0, 0)
	s.ErrorIs(err, model.ErrAlreadyAttacked)

	stored, _ := s.controller.GetGame(s.ctx, game.ID)
	s.Equal(1, stored.ShotCount)
	s.Equal(s.alice.ID, stored.CurrentTurn)
}

func (s *ControllerSuite) TestAttackBoardWriteFailureLeavesGameUntouched() {
	game := s.playingGame()

	s.faults.failSaveBoard = true
	_, err := s.controller.Attack(s.ctx, game.ID, s.alice.ID, 9, 9)
	s.ErrorIs(err, errStorageDown)

	stored, _ := s.controller.GetGame(s.ctx, game.ID)
	s.Equal(0, stored.ShotCount)
	s.Equal(s.alice.ID, stored.CurrentTurn)

	// The same shot goes through once storage recovers
	s.faults.failSaveBoard = false
	outcome, err := s.controller.Attack(s.ctx, game.ID, s.alice.ID, 9, 9)
	s.Require().NoError(err)
	s.Equal(model.AttackMiss, outcome.Result)

	stored, _ = s.controller.GetGame(s.ctx, game.ID)
	s.Equal(1, stored.ShotCount)
	s.Equal(s.bob.ID, stored.CurrentTurn)
}

func (s *ControllerSuite) TestHugeShipSunkEndsGame() {
	game := s.playingGame()

	var results []model.AttackResult
	var last *model.AttackOutcome
	for x := 0; x < 4; x++ {
		outcome, err := s.controller.Attack(s.ctx, game.ID, s.alice.ID, x, 0)
		s.Require().NoError(err)
		s.Equal(s.alice.ID, outcome.CurrentTurn)
		s.False(outcome.TurnChanged)
		results = append(results, outcome.Result)
		last = outcome
	}

	s.Equal([]model.AttackResult{model.AttackHit, model.AttackHit, model.AttackHit, model.AttackSunk}, results)
	s.True(last.Finished)
	s.Equal(s.alice.ID, last.Winner)
	s.Require().NotNil(last.SunkShip)
	s.Equal(4, last.SunkShip.Length)

	stored, _ := s.controller.GetGame(s.ctx, game.ID)
	s.Equal(model.GameStatusFinished, stored.Status)
	s.Equal(s.alice.ID, stored.Winner)

	alice, _ := s.playerService.Get(s.ctx, s.alice.ID)
	s.Equal(1, alice.Wins)

	_, err := s.controller.Attack(s.ctx, game.ID, s.alice.ID, 5, 5)
	s.ErrorIs(err, model.ErrWrongState)
}

func (s *ControllerSuite) TestSinkingOneOfTwoShipsDoesNotFinish() {
	game := s.startGame()
	_, _ = s.controller.SubmitFleet(s.ctx, game.ID, s.alice.ID, []model.Ship{ship(0, 9, 2, model.OrientationHorizontal)})
	_, _ = s.controller.SubmitFleet(s.ctx, game.ID, s.bob.ID, []model.Ship{
		ship(0, 0, 1, model.OrientationHorizontal),
		ship(5, 5, 1, model.OrientationHorizontal),
	})

	outcome, err := s.controller.Attack(s.ctx, game.ID, s.alice.ID, 0, 0)
	s.Require().NoError(err)
	s.Equal(model.AttackSunk, outcome.Result)
	s.False(outcome.Finished)
	s.Equal(s.alice.ID, outcome.CurrentTurn)
}

// RandomAttack tests

func (s *ControllerSuite) TestRandomAttackUsesUntestedCells() {
	game := s.playingGame()
	_, err := s.controller.Attack(s.ctx, game.ID, s.alice.ID, 0, 0) // hit, keeps turn
	s.Require().NoError(err)

	// 99 untested cells remain; index 0 is now (1,0)
	s.random.QueueIntn(0)
	outcome, err := s.controller.RandomAttack(s.ctx, game.ID, s.alice.ID)
	s.Require().NoError(err)

	s.Equal(model.Position{X: 1, Y: 0}, outcome.Position)
	s.Equal(model.AttackHit, outcome.Result)
	s.Equal([]int{99}, s.random.IntnBounds)
}

func (s *ControllerSuite) TestRandomAttackOutOfTurn() {
	game := s.playingGame()

	_, err := s.controller.RandomAttack(s.ctx, game.ID, s.bob.ID)
	s.ErrorIs(err, model.ErrNotYourTurn)
	s.Empty(s.random.IntnBounds)
}

// HandleDisconnect tests

func (s *ControllerSuite) TestDisconnectInProgressForfeits() {
	game := s.playingGame()

	outcome, err := s.controller.HandleDisconnect(s.ctx, s.alice.ID)
	s.Require().NoError(err)
	s.Require().NotNil(outcome)

	s.True(outcome.Forfeited)
	s.Equal(s.bob.ID, outcome.Winner)
	s.Equal(s.bob.ID, outcome.Remaining)

	stored, _ := s.controller.GetGame(s.ctx, game.ID)
	s.Equal(model.GameStatusFinished, stored.Status)
	s.Equal(s.bob.ID, stored.Winner)

	bob, _ := s.playerService.Get(s.ctx, s.bob.ID)
	s.Equal(1, bob.Wins)
}

func (s *ControllerSuite) TestDisconnectWhilePlacingAbandons() {
	game := s.startGame()

	outcome, err := s.controller.HandleDisconnect(s.ctx, s.bob.ID)
	s.Require().NoError(err)
	s.Require().NotNil(outcome)

	s.True(outcome.Abandoned)
	s.False(outcome.Forfeited)
	s.Equal(s.alice.ID, outcome.Remaining)

	_, err = s.controller.GetGame(s.ctx, game.ID)
	s.ErrorIs(err, model.ErrGameNotFound)
	_, err = s.controller.GetBoard(s.ctx, game.ID, s.alice.ID)
	s.ErrorIs(err, model.ErrBoardNotFound)

	alice, _ := s.playerService.Get(s.ctx, s.alice.ID)
	s.Equal(0, alice.Wins)
}

func (s *ControllerSuite) TestDisconnectAfterFinishRemovesArchive() {
	game := s.playingGame()
	for x := 0; x < 4; x++ {
		_, _ = s.controller.Attack(s.ctx, game.ID, s.alice.ID, x, 0)
	}

	outcome, err := s.controller.HandleDisconnect(s.ctx, s.bob.ID)
	s.Require().NoError(err)
	s.Require().NotNil(outcome)
	s.False(outcome.Forfeited)
	s.False(outcome.Abandoned)

	_, err = s.controller.GetGame(s.ctx, game.ID)
	s.ErrorIs(err, model.ErrGameNotFound)

	alice, _ := s.playerService.Get(s.ctx, s.alice.ID)
	s.Equal(1, alice.Wins)
}

func (s *ControllerSuite) TestDisconnectWithoutGame() {
	outcome, err := s.controller.HandleDisconnect(s.ctx, s.alice.ID)
	s.Require().NoError(err)
	s.Nil(outcome)

	outcome, err = s.controller.HandleDisconnect(s.ctx, "unknown")
	s.Require().NoError(err)
	s.Nil(outcome)
}

// DiscardFinished tests

func (s *ControllerSuite) TestDiscardFinishedKeepsActiveGames() {
	game := s.playingGame()

	s.Require().NoError(s.controller.DiscardFinished(s.ctx, game.ID))
	_, err := s.controller.GetGame(s.ctx, game.ID)
	s.NoError(err)

	for x := 0; x < 4; x++ {
		_, _ = s.controller.Attack(s.ctx, game.ID, s.alice.ID, x, 0)
	}

	s.Require().NoError(s.controller.DiscardFinished(s.ctx, game.ID))
	_, err = s.controller.GetGame(s.ctx, game.ID)
	s.ErrorIs(err, model.ErrGameNotFound)

	s.NoError(s.controller.DiscardFinished(s.ctx, "missing"))
}

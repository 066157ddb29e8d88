package factory

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/battleship/internal/protocol"
	"github.com/mcoot/battleship/internal/services/board"
	"github.com/mcoot/battleship/internal/testutil"
)

// wsClient is a player's browser as seen from the server
type wsClient struct {
	s    *IntegrationSuite
	conn *websocket.Conn
}

func (c *wsClient) send(msgType string, data any) {
	payload, err := json.Marshal(data)
	c.s.Require().NoError(err)
	// The reference client double-encodes data
	c.s.Require().NoError(c.conn.WriteJSON(map[string]any{"type": msgType, "data": string(payload), "id": 0}))
}

func (c *wsClient) next() protocol.Envelope {
	c.s.Require().NoError(c.conn.SetReadDeadline(time.Now().Add(2 * time.Second)))
	var env protocol.Envelope
	c.s.Require().NoError(c.conn.ReadJSON(&env))
	return env
}

// expect reads frames in order and checks their types
func (c *wsClient) expect(types ...string) []protocol.Envelope {
	out := make([]protocol.Envelope, len(types))
	for i, want := range types {
		out[i] = c.next()
		c.s.Require().Equal(want, out[i].Type, "frame %d", i)
	}
	return out
}

type IntegrationSuite struct {
	suite.Suite
	app *TestApp
	url string
}

func TestIntegrationSuite(t *testing.T) {
	suite.Run(t, new(IntegrationSuite))
}

func (s *IntegrationSuite) SetupTest() {
	s.app = NewTestAppWithConfig(Config{
		FleetPolicy:   board.FleetPolicyClassic,
		StringifyData: true,
	}, testutil.NopLogger())
	srv := httptest.NewServer(s.app.Hub.Handler(s.app.Coordinator))
	s.T().Cleanup(func() {
		_ = s.app.Close()
		srv.Close()
	})
	s.url = "ws" + strings.TrimPrefix(srv.URL, "http")
}

func (s *IntegrationSuite) connect() *wsClient {
	conn, _, err := websocket.DefaultDialer.Dial(s.url, nil)
	s.Require().NoError(err)
	s.T().Cleanup(func() { _ = conn.Close() })
	c := &wsClient{s: s, conn: conn}
	c.expect(protocol.TypeUpdateRoom, protocol.TypeUpdateWinners)
	return c
}

// data unwraps a stringified payload
func (s *IntegrationSuite) data(env protocol.Envelope, v any) {
	s.Require().NoError(env.DecodeData(v))
}

func ship(x, y, length int, kind string) map[string]any {
	return map[string]any{
		"position":  map[string]int{"x": x, "y": y},
		"direction": true,
		"length":    length,
		"type":      kind,
	}
}

// classicFleet lays one ship per row segment, every ship horizontal
func classicFleet() ([]any, []protocol.Position) {
	ships := []any{
		ship(0, 0, 4, "huge"),
		ship(0, 2, 3, "large"), ship(5, 2, 3, "large"),
		ship(0, 4, 2, "medium"), ship(4, 4, 2, "medium"), ship(8, 4, 2, "medium"),
		ship(0, 6, 1, "small"), ship(2, 6, 1, "small"), ship(4, 6, 1, "small"), ship(6, 6, 1, "small"),
	}
	var cells []protocol.Position
	for _, raw := range ships {
		sh := raw.(map[string]any)
		pos := sh["position"].(map[string]int)
		for i := 0; i < sh["length"].(int); i++ {
			cells = append(cells, protocol.Position{X: pos["x"] + i, Y: pos["y"]})
		}
	}
	return ships, cells
}

// seat registers two players and starts a game between them with classic fleets
func (s *IntegrationSuite) seat() (alice, bob *wsClient, cells []protocol.Position) {
	alice, bob = s.seatWithoutFleets()

	fleet, cells := classicFleet()
	alice.send(protocol.TypeAddShips, map[string]any{"gameId": "game00001", "indexPlayer": "alice0001", "ships": fleet})
	bob.send(protocol.TypeAddShips, map[string]any{"gameId": "game00001", "indexPlayer": "bob000001", "ships": fleet})

	for _, c := range []*wsClient{alice, bob} {
		frames := c.expect(protocol.TypeStartGame, protocol.TypeTurn)
		var turn protocol.Turn
		s.data(frames[1], &turn)
		s.Equal("alice0001", turn.CurrentPlayer)
	}
	return alice, bob, cells
}

func (s *IntegrationSuite) TestCompleteGameFlow() {
	alice, bob, cells := s.seat()

	kills := 0
	for i, cell := range cells {
		alice.send(protocol.TypeAttack, map[string]any{"gameId": "game00001", "x": cell.X, "y": cell.Y})

		expected := []string{protocol.TypeAttack}
		if i == len(cells)-1 {
			expected = append(expected, protocol.TypeFinish, protocol.TypeUpdateWinners)
		}
		frames := alice.expect(expected...)
		bob.expect(expected...)

		var attack protocol.Attack
		s.data(frames[0], &attack)
		s.Equal(cell, attack.Position)
		s.Equal("alice0001", attack.CurrentPlayer)
		s.NotEqual(protocol.StatusMiss, attack.Status)
		if attack.Status == protocol.StatusKilled {
			kills++
		}

		if i == len(cells)-1 {
			var finish protocol.Finish
			s.data(frames[1], &finish)
			s.Equal("alice0001", finish.WinPlayer)
			var winners []protocol.Winner
			s.data(frames[2], &winners)
			s.Equal([]protocol.Winner{{Name: "alice", Wins: 1}, {Name: "bob", Wins: 0}}, winners)
		}
	}
	s.Equal(10, kills)
}

func (s *IntegrationSuite) TestMissPassesTurnOverTheWire() {
	alice, bob, _ := s.seat()

	alice.send(protocol.TypeAttack, map[string]any{"gameId": "game00001", "x": 9, "y": 9})
	for _, c := range []*wsClient{alice, bob} {
		frames := c.expect(protocol.TypeAttack, protocol.TypeTurn)
		var turn protocol.Turn
		s.data(frames[1], &turn)
		s.Equal("bob000001", turn.CurrentPlayer)
	}

	alice.send(protocol.TypeAttack, map[string]any{"gameId": "game00001", "x": 0, "y": 0})
	errFrame := alice.expect(protocol.TypeError)
	var payload protocol.Error
	s.data(errFrame[0], &payload)
	s.Equal(protocol.CodeNotYourTurn, payload.Code)
}

func (s *IntegrationSuite) TestRejectedClassicFleet() {
	alice, _ := s.seatWithoutFleets()

	alice.send(protocol.TypeAddShips, map[string]any{
		"gameId": "game00001",
		"ships":  []any{ship(0, 0, 4, "huge")},
	})
	frames := alice.expect(protocol.TypeError)
	var payload protocol.Error
	s.data(frames[0], &payload)
	s.Equal(protocol.CodeInvalidPlacement, payload.Code)
}

func (s *IntegrationSuite) TestClosingSocketForfeits() {
	alice, bob, _ := s.seat()

	s.Require().NoError(alice.conn.Close())

	frames := bob.expect(protocol.TypeFinish, protocol.TypeUpdateRoom, protocol.TypeUpdateWinners)
	var finish protocol.Finish
	s.data(frames[0], &finish)
	s.Equal("bob000001", finish.WinPlayer)
	var winners []protocol.Winner
	s.data(frames[2], &winners)
	s.Equal([]protocol.Winner{{Name: "bob", Wins: 1}}, winners)

	s.Eventually(func() bool { return s.app.Hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)
}

// seatWithoutFleets gets two players into a placing game with id game00001
func (s *IntegrationSuite) seatWithoutFleets() (alice, bob *wsClient) {
	alice = s.connect()
	bob = s.connect()
	s.app.MockRandom.QueueString("alice0001", "bob000001", "room00001", "game00001")

	alice.send(protocol.TypeReg, map[string]string{"name": "alice", "password": "pw"})
	reg := alice.expect(protocol.TypeReg, protocol.TypeUpdateRoom, protocol.TypeUpdateWinners)
	var regReply protocol.RegResponse
	s.data(reg[0], &regReply)
	s.Equal("alice0001", regReply.Index)
	bob.expect(protocol.TypeUpdateWinners)

	bob.send(protocol.TypeReg, map[string]string{"name": "bob", "password": "pw"})
	bob.expect(protocol.TypeReg, protocol.TypeUpdateRoom, protocol.TypeUpdateWinners)
	alice.expect(protocol.TypeUpdateWinners)

	alice.send(protocol.TypeCreateRoom, "")
	alice.expect(protocol.TypeUpdateRoom)
	bob.expect(protocol.TypeUpdateRoom)

	bob.send(protocol.TypeAddUserToRoom, map[string]string{"indexRoom": "room00001"})
	created := alice.expect(protocol.TypeCreateGame, protocol.TypeUpdateRoom)
	var cg protocol.CreateGame
	s.data(created[0], &cg)
	s.Equal(protocol.CreateGame{IDGame: "game00001", IDPlayer: "alice0001"}, cg)
	bob.expect(protocol.TypeCreateGame, protocol.TypeUpdateRoom)
	return alice, bob
}

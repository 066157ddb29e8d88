package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/battleship/internal/model"
)

func TestDecodeRejectsBadFrames(t *testing.T) {
	for _, raw := range []string{`not json`, `{"data":{}}`, `[]`} {
		_, err := Decode([]byte(raw))
		assert.ErrorIs(t, err, model.ErrMalformedPayload, raw)
	}
}

func TestDecodeDataAcceptsObjectOrString(t *testing.T) {
	object, err := Decode([]byte(`{"type":"reg","data":{"name":"alice","password":"pw"},"id":0}`))
	require.NoError(t, err)
	stringified, err := Decode([]byte(`{"type":"reg","data":"{\"name\":\"alice\",\"password\":\"pw\"}","id":0}`))
	require.NoError(t, err)

	for _, env := range []*Envelope{object, stringified} {
		var req RegRequest
		require.NoError(t, env.DecodeData(&req))
		assert.Equal(t, RegRequest{Name: "alice", Password: "pw"}, req)
	}
}

func TestDecodeDataMissingOrInvalid(t *testing.T) {
	for _, raw := range []string{
		`{"type":"reg"}`,
		`{"type":"reg","data":null}`,
		`{"type":"reg","data":"not json"}`,
		`{"type":"reg","data":[1,2]}`,
	} {
		env, err := Decode([]byte(raw))
		require.NoError(t, err)

		var req RegRequest
		assert.ErrorIs(t, env.DecodeData(&req), model.ErrMalformedPayload, raw)
	}
}

func TestReplyIDEchoesRequest(t *testing.T) {
	env, err := Decode([]byte(`{"type":"reg","data":{},"id":"abc"}`))
	require.NoError(t, err)
	assert.JSONEq(t, `"abc"`, string(env.ReplyID()))

	env, err = Decode([]byte(`{"type":"reg","data":{}}`))
	require.NoError(t, err)
	assert.JSONEq(t, `0`, string(env.ReplyID()))
}

func TestEncodeObjectAndStringData(t *testing.T) {
	frame, err := Encoder{}.Encode(TypeTurn, Turn{CurrentPlayer: "p1"}, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"turn","data":{"currentPlayer":"p1"},"id":0}`, string(frame))

	frame, err = Encoder{StringifyData: true}.Encode(TypeTurn, Turn{CurrentPlayer: "p1"}, json.RawMessage(`7`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"turn","data":"{\"currentPlayer\":\"p1\"}","id":7}`, string(frame))

	// Encoded frames decode back through the same path clients use
	env, err := Decode(frame)
	require.NoError(t, err)
	var turn Turn
	require.NoError(t, env.DecodeData(&turn))
	assert.Equal(t, "p1", turn.CurrentPlayer)
}

func TestFlexIDAcceptsStringsAndNumbers(t *testing.T) {
	var req AddUserToRoomRequest
	require.NoError(t, json.Unmarshal([]byte(`{"indexRoom":"room1"}`), &req))
	assert.Equal(t, FlexID("room1"), req.IndexRoom)

	require.NoError(t, json.Unmarshal([]byte(`{"indexRoom":42}`), &req))
	assert.Equal(t, FlexID("42"), req.IndexRoom)

	assert.Error(t, json.Unmarshal([]byte(`{"indexRoom":{}}`), &req))
}

func TestShipConversion(t *testing.T) {
	var req AddShipsRequest
	require.NoError(t, json.Unmarshal([]byte(`{
		"gameId": "g1",
		"indexPlayer": "p1",
		"ships": [
			{"position": {"x": 1, "y": 2}, "direction": true, "length": 4, "type": "huge"},
			{"position": {"x": 5, "y": 5}, "direction": false, "length": 2, "type": "medium"}
		]
	}`), &req))

	ships, err := ShipsToModel(req.Ships)
	require.NoError(t, err)
	assert.Equal(t, []model.Ship{
		{Origin: model.Position{X: 1, Y: 2}, Orientation: model.OrientationHorizontal, Length: 4, Type: model.ShipHuge},
		{Origin: model.Position{X: 5, Y: 5}, Orientation: model.OrientationVertical, Length: 2, Type: model.ShipMedium},
	}, ships)

	assert.Equal(t, req.Ships, ShipsFromModel(ships))
}

func TestShipWithoutDirectionIsMalformed(t *testing.T) {
	_, err := ShipsToModel([]Ship{{Position: Position{X: 0, Y: 0}, Length: 1, Type: "small"}})
	assert.ErrorIs(t, err, model.ErrMalformedPayload)
}

func TestAttackStatus(t *testing.T) {
	assert.Equal(t, "miss", AttackStatus(model.AttackMiss))
	assert.Equal(t, "shot", AttackStatus(model.AttackHit))
	assert.Equal(t, "killed", AttackStatus(model.AttackSunk))
}

func TestErrorForWrappedErrors(t *testing.T) {
	payload, ok := ErrorFor(fmt.Errorf("ship 2: %w", model.ErrInvalidPlacement))
	assert.True(t, ok)
	assert.Equal(t, CodeInvalidPlacement, payload.Code)

	payload, ok = ErrorFor(model.ErrNameTaken)
	assert.True(t, ok)
	assert.Equal(t, CodeNameTaken, payload.Code)

	payload, ok = ErrorFor(errors.New("connection refused"))
	assert.False(t, ok)
	assert.Equal(t, CodeInternalError, payload.Code)
}

func TestRoomsAndWinnersFromModel(t *testing.T) {
	rooms := RoomsFromModel([]model.Room{{ID: "r1", Players: []model.PlayerRef{{ID: "p1", Name: "alice"}}}})
	data, err := json.Marshal(rooms)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"roomId":"r1","roomUsers":[{"name":"alice","index":"p1"}]}]`, string(data))

	data, err = json.Marshal(WinnersFromModel([]model.Winner{{Name: "alice", Wins: 2}}))
	require.NoError(t, err)
	assert.JSONEq(t, `[{"name":"alice","wins":2}]`, string(data))
}

package protocol

import (
	"errors"

	"github.com/mcoot/battleship/internal/model"
)

// Error codes sent on the wire
const (
	CodeNameTaken         = "NAME_TAKEN"
	CodeAlreadyRegistered = "ALREADY_REGISTERED"
	CodeNotRegistered     = "NOT_REGISTERED"
	CodePlayerNotFound    = "PLAYER_NOT_FOUND"
	CodeRoomNotFound      = "ROOM_NOT_FOUND"
	CodeRoomFull          = "ROOM_FULL"
	CodeInvalidJoin       = "INVALID_JOIN"
	CodeGameNotFound      = "GAME_NOT_FOUND"
	CodeWrongState        = "WRONG_STATE"
	CodeNotInGame         = "NOT_IN_GAME"
	CodeInvalidPlacement  = "INVALID_PLACEMENT"
	CodeNotYourTurn       = "NOT_YOUR_TURN"
	CodeOutOfBounds       = "OUT_OF_BOUNDS"
	CodeAlreadyAttacked   = "ALREADY_ATTACKED"
	CodeUnknownMessage    = "UNKNOWN_MESSAGE"
	CodeMalformedPayload  = "MALFORMED_PAYLOAD"
	CodeInternalError     = "INTERNAL_ERROR"
)

// errorMapping maps domain errors to wire codes and client-facing text
var errorMapping = []struct {
	err  error
	code string
	text string
}{
	{model.ErrNameTaken, CodeNameTaken, "Name is already taken"},
	{model.ErrAlreadyRegistered, CodeAlreadyRegistered, "This connection is already registered"},
	{model.ErrNotRegistered, CodeNotRegistered, "Register before sending game messages"},
	{model.ErrPlayerNotFound, CodePlayerNotFound, "Player not found"},
	{model.ErrRoomNotFound, CodeRoomNotFound, "Room not found"},
	{model.ErrRoomFull, CodeRoomFull, "Room is full"},
	{model.ErrInvalidJoin, CodeInvalidJoin, "You cannot join or create this room"},
	{model.ErrGameNotFound, CodeGameNotFound, "Game not found"},
	{model.ErrBoardNotFound, CodeGameNotFound, "Game not found"},
	{model.ErrWrongState, CodeWrongState, "The game is not in the right state for that"},
	{model.ErrNotInGame, CodeNotInGame, "You are not playing in this game"},
	{model.ErrInvalidPlacement, CodeInvalidPlacement, "Invalid ship placement"},
	{model.ErrNotYourTurn, CodeNotYourTurn, "It is not your turn"},
	{model.ErrOutOfBounds, CodeOutOfBounds, "Position is outside the board"},
	{model.ErrAlreadyAttacked, CodeAlreadyAttacked, "That cell has already been attacked"},
	{model.ErrBoardResolved, CodeWrongState, "The board has no untested cells left"},
	{model.ErrUnknownMessage, CodeUnknownMessage, "Unknown message type"},
	{model.ErrMalformedPayload, CodeMalformedPayload, "Malformed message"},
}

// ErrorFor converts an error to the payload sent to the client
//
// The second return value is false for errors with no domain mapping, which
// callers should log.
func ErrorFor(err error) (Error, bool) {
	for _, m := range errorMapping {
		if errors.Is(err, m.err) {
			return Error{ErrorText: m.text, Code: m.code}, true
		}
	}
	return Error{ErrorText: "Internal server error", Code: CodeInternalError}, false
}

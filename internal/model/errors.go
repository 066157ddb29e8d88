package model

import "errors"

// Common errors used across the application
var (
	// Player errors
	ErrPlayerNotFound     = errors.New("player not found")
	ErrNameTaken          = errors.New("name is already taken")
	ErrAlreadyRegistered  = errors.New("connection is already registered")
	ErrNotRegistered      = errors.New("connection is not registered")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Room errors
	ErrRoomNotFound = errors.New("room not found")
	ErrRoomFull     = errors.New("room is full")
	ErrInvalidJoin  = errors.New("player cannot join or create this room")

	// Game errors
	ErrGameNotFound     = errors.New("game not found")
	ErrWrongState       = errors.New("game is not in the required state")
	ErrNotInGame        = errors.New("player is not in this game")
	ErrInvalidPlacement = errors.New("invalid ship placement")
	ErrNotYourTurn      = errors.New("not this player's turn")
	ErrOutOfBounds      = errors.New("position is outside the board")
	ErrAlreadyAttacked  = errors.New("cell has already been attacked")
	ErrBoardResolved    = errors.New("no untested cells remain")

	// Board errors
	ErrBoardNotFound = errors.New("board not found")

	// Protocol errors
	ErrUnknownMessage   = errors.New("unknown message type")
	ErrMalformedPayload = errors.New("malformed payload")
)

package redis

import (
	"fmt"

	"github.com/mcoot/battleship/internal/model"
)

// keyspace builds Redis keys under a process-specific prefix
type keyspace string

// player returns the Redis key for a Player
func (k keyspace) player(id model.PlayerID) string {
	return fmt.Sprintf("%s:player:%s", k, id)
}

// playersIndex returns the Redis key for the SET of all player keys
func (k keyspace) playersIndex() string {
	return fmt.Sprintf("%s:idx:players", k)
}

// nameIndex returns the Redis key for the name -> player_id index
func (k keyspace) nameIndex(name string) string {
	return fmt.Sprintf("%s:idx:name:%s", k, name)
}

// sessionIndex returns the Redis key for the session -> player_id index
func (k keyspace) sessionIndex(sessionID model.SessionID) string {
	return fmt.Sprintf("%s:idx:session:%s", k, sessionID)
}

// playerSeq returns the Redis key for the registration counter
func (k keyspace) playerSeq() string {
	return fmt.Sprintf("%s:seq:player", k)
}

// room returns the Redis key for a Room
func (k keyspace) room(id model.RoomID) string {
	return fmt.Sprintf("%s:room:%s", k, id)
}

// roomsIndex returns the Redis key for the SET of all room keys
func (k keyspace) roomsIndex() string {
	return fmt.Sprintf("%s:idx:rooms", k)
}

// game returns the Redis key for a Game
func (k keyspace) game(id model.GameID) string {
	return fmt.Sprintf("%s:game:%s", k, id)
}

// board returns the Redis key for a Board
func (k keyspace) board(gameID model.GameID, playerID model.PlayerID) string {
	return fmt.Sprintf("%s:board:%s:%s", k, gameID, playerID)
}

// boardsForGameIndex returns the Redis key for the SET of boards for a game
func (k keyspace) boardsForGameIndex(gameID model.GameID) string {
	return fmt.Sprintf("%s:idx:boards_for_game:%s", k, gameID)
}

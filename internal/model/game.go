package model

import "time"

// GameID uniquely identifies a game
type GameID string

// GameStatus represents the current phase of a game
type GameStatus string

const (
	GameStatusPlacing    GameStatus = "placing"     // Waiting for both fleets
	GameStatusInProgress GameStatus = "in_progress" // Players exchanging shots
	GameStatusFinished   GameStatus = "finished"    // Winner decided
)

// Game is a single two-player battleship match
type Game struct {
	ID          GameID
	Players     [2]PlayerID // Room creator first
	Status      GameStatus
	CurrentTurn PlayerID // Empty until both fleets are placed
	Winner      PlayerID // Empty until finished
	ShotCount   int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// HasPlayer returns true if the player takes part in the game
func (g *Game) HasPlayer(playerID PlayerID) bool {
	return g.Players[0] == playerID || g.Players[1] == playerID
}

// Opponent returns the other player, or empty if the player is not in the game
func (g *Game) Opponent(playerID PlayerID) PlayerID {
	switch playerID {
	case g.Players[0]:
		return g.Players[1]
	case g.Players[1]:
		return g.Players[0]
	default:
		return ""
	}
}

// IsActive returns true until the game has finished
func (g *Game) IsActive() bool {
	return g.Status != GameStatusFinished
}

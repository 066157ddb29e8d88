package model

import "time"

// PlayerID uniquely identifies a registered player
type PlayerID string

// SessionID identifies a single transport connection
type SessionID string

// Player represents a registered participant
type Player struct {
	ID             PlayerID
	Name           string
	CredentialHash string // bcrypt hash, never sent to clients
	Wins           int
	Seq            int64 // Registration order, breaks leaderboard ties
	SessionID      SessionID
	RoomID         RoomID // Open room the player sits in, empty if none
	GameID         GameID // Most recent game, may already be finished
	CreatedAt      time.Time
}

// Ref returns the lightweight reference stored by rooms
func (p *Player) Ref() PlayerRef {
	return PlayerRef{ID: p.ID, Name: p.Name}
}

// PlayerRef is a non-owning reference to a player
type PlayerRef struct {
	ID   PlayerID
	Name string
}

// Winner is a single leaderboard row
type Winner struct {
	Name string
	Wins int
}

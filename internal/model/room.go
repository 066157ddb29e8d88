package model

import "time"

// RoomID identifies a matchmaking room
type RoomID string

// MaxRoomPlayers is the number of players that fills a room
const MaxRoomPlayers = 2

// Room is a matchmaking room waiting for a second player
type Room struct {
	ID        RoomID
	Players   []PlayerRef // Ordered by join time, creator first
	CreatedAt time.Time
}

// IsOpen returns true if the room can still be joined
func (r *Room) IsOpen() bool {
	return len(r.Players) == 1
}

// IsFull returns true if the room has reached capacity
func (r *Room) IsFull() bool {
	return len(r.Players) >= MaxRoomPlayers
}

// HasPlayer returns true if the player is a member of the room
func (r *Room) HasPlayer(playerID PlayerID) bool {
	for _, p := range r.Players {
		if p.ID == playerID {
			return true
		}
	}
	return false
}

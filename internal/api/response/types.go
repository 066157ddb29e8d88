package response

import (
	"time"

	"github.com/mcoot/battleship/internal/model"
)

// Health is the response for the health endpoint
type Health struct {
	Status           string `json:"status"`
	ConnectedClients int    `json:"connected_clients"`
}

// Player represents a player in API responses
type Player struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Wins      int       `json:"wins"`
	RoomID    string    `json:"room_id,omitempty"`
	GameID    string    `json:"game_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// PlayerFromModel converts a model.Player to a response Player
func PlayerFromModel(p *model.Player) Player {
	return Player{
		ID:        string(p.ID),
		Name:      p.Name,
		Wins:      p.Wins,
		RoomID:    string(p.RoomID),
		GameID:    string(p.GameID),
		CreatedAt: p.CreatedAt,
	}
}

// RoomMember is a player seated in a room
type RoomMember struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Room represents an open room
type Room struct {
	ID        string       `json:"id"`
	Members   []RoomMember `json:"members"`
	CreatedAt time.Time    `json:"created_at"`
}

// RoomFromModel converts a model.Room
func RoomFromModel(r model.Room) Room {
	members := make([]RoomMember, len(r.Players))
	for i, p := range r.Players {
		members[i] = RoomMember{ID: string(p.ID), Name: p.Name}
	}
	return Room{
		ID:        string(r.ID),
		Members:   members,
		CreatedAt: r.CreatedAt,
	}
}

// RoomList is the response for listing open rooms
type RoomList struct {
	Rooms []Room `json:"rooms"`
}

// Winner is one leaderboard row
type Winner struct {
	Name string `json:"name"`
	Wins int    `json:"wins"`
}

// WinnerList is the response for the leaderboard
type WinnerList struct {
	Winners []Winner `json:"winners"`
}

// WinnerListFromModel converts leaderboard rows
func WinnerListFromModel(winners []model.Winner) WinnerList {
	out := make([]Winner, len(winners))
	for i, w := range winners {
		out[i] = Winner{Name: w.Name, Wins: w.Wins}
	}
	return WinnerList{Winners: out}
}

// Game is the public view of a game; fleets and shots are never exposed
type Game struct {
	ID          string   `json:"id"`
	Players     []string `json:"players"`
	Status      string   `json:"status"`
	CurrentTurn string   `json:"current_turn,omitempty"`
	Winner      string   `json:"winner,omitempty"`
	ShotCount   int      `json:"shot_count"`
}

// GameFromModel converts a model.Game
func GameFromModel(g *model.Game) Game {
	return Game{
		ID:          string(g.ID),
		Players:     []string{string(g.Players[0]), string(g.Players[1])},
		Status:      string(g.Status),
		CurrentTurn: string(g.CurrentTurn),
		Winner:      string(g.Winner),
		ShotCount:   g.ShotCount,
	}
}

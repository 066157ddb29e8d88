package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter writing to w
func NewOutput(format string, w io.Writer) *Output {
	return &Output{format: format, w: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Fprintln(o.w, string(data))
	} else {
		fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case Player:
		o.printPlayer(v)
	case Room:
		o.printRoom(v)
	case RoomList:
		o.printRoomList(v)
	case GameState:
		o.printGameState(v)
	case WinnerList:
		o.printWinnerList(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// Player response type (matches API)
type Player struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Wins   int    `json:"wins"`
	RoomID string `json:"room_id,omitempty"`
	GameID string `json:"game_id,omitempty"`
}

// RoomMember response type
type RoomMember struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Room response type
type Room struct {
	ID      string       `json:"id"`
	Members []RoomMember `json:"members"`
}

// RoomList response type
type RoomList struct {
	Rooms []Room `json:"rooms"`
}

// GameState response type
type GameState struct {
	ID          string   `json:"id"`
	Players     []string `json:"players"`
	Status      string   `json:"status"`
	CurrentTurn string   `json:"current_turn,omitempty"`
	Winner      string   `json:"winner,omitempty"`
	ShotCount   int      `json:"shot_count"`
}

// Winner response type
type Winner struct {
	Name string `json:"name"`
	Wins int    `json:"wins"`
}

// WinnerList response type
type WinnerList struct {
	Winners []Winner `json:"winners"`
}

// HealthResult response type
type HealthResult struct {
	Status           string `json:"status"`
	ConnectedClients int    `json:"connected_clients"`
}

func (o *Output) printPlayer(p Player) {
	fmt.Fprintf(o.w, "Player: %s (%s)\n", p.Name, p.ID)
	fmt.Fprintf(o.w, "Wins: %d\n", p.Wins)
	if p.RoomID != "" {
		fmt.Fprintf(o.w, "Room: %s\n", p.RoomID)
	}
	if p.GameID != "" {
		fmt.Fprintf(o.w, "Game: %s\n", p.GameID)
	}
}

func (o *Output) printRoom(r Room) {
	names := make([]string, len(r.Members))
	for i, m := range r.Members {
		names[i] = fmt.Sprintf("%s (%s)", m.Name, m.ID)
	}
	fmt.Fprintf(o.w, "Room: %s\n", r.ID)
	fmt.Fprintf(o.w, "Waiting: %s\n", strings.Join(names, ", "))
}

func (o *Output) printRoomList(l RoomList) {
	if len(l.Rooms) == 0 {
		fmt.Fprintln(o.w, "No open rooms")
		return
	}
	fmt.Fprintf(o.w, "Open rooms (%d):\n", len(l.Rooms))
	for _, r := range l.Rooms {
		for _, m := range r.Members {
			fmt.Fprintf(o.w, "  - %s: %s\n", r.ID, m.Name)
		}
	}
}

func (o *Output) printGameState(g GameState) {
	fmt.Fprintf(o.w, "Game: %s\n", g.ID)
	fmt.Fprintf(o.w, "Status: %s\n", g.Status)
	fmt.Fprintf(o.w, "Players: %s\n", strings.Join(g.Players, " vs "))
	fmt.Fprintf(o.w, "Shots: %d\n", g.ShotCount)
	if g.CurrentTurn != "" {
		fmt.Fprintf(o.w, "Turn: %s\n", g.CurrentTurn)
	}
	if g.Winner != "" {
		fmt.Fprintf(o.w, "Winner: %s\n", g.Winner)
	}
}

func (o *Output) printWinnerList(l WinnerList) {
	if len(l.Winners) == 0 {
		fmt.Fprintln(o.w, "No players yet")
		return
	}
	for i, w := range l.Winners {
		fmt.Fprintf(o.w, "%3d. %-20s %d\n", i+1, w.Name, w.Wins)
	}
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Fprintf(o.w, "Status: %s\n", h.Status)
	fmt.Fprintf(o.w, "Connected clients: %d\n", h.ConnectedClients)
}

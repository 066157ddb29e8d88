package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/mcoot/battleship/internal/model"
)

// FlexID accepts an identifier sent either as a JSON string or a JSON number
type FlexID string

// UnmarshalJSON implements json.Unmarshaler
func (f *FlexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*f = FlexID(n.String())
	return nil
}

// Inbound payloads

// RegRequest is the payload of a reg message
type RegRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

// AddUserToRoomRequest is the payload of an add_user_to_room message
type AddUserToRoomRequest struct {
	IndexRoom FlexID `json:"indexRoom"`
}

// AddShipsRequest is the payload of an add_ships message
type AddShipsRequest struct {
	GameID      FlexID  `json:"gameId"`
	IndexPlayer *FlexID `json:"indexPlayer,omitempty"`
	Ships       []Ship  `json:"ships"`
}

// AttackRequest is the payload of an attack message
type AttackRequest struct {
	GameID      FlexID  `json:"gameId"`
	IndexPlayer *FlexID `json:"indexPlayer,omitempty"`
	X           *int    `json:"x"`
	Y           *int    `json:"y"`
}

// RandomAttackRequest is the payload of a randomAttack message
type RandomAttackRequest struct {
	GameID      FlexID  `json:"gameId"`
	IndexPlayer *FlexID `json:"indexPlayer,omitempty"`
}

// Position is a board coordinate on the wire
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Ship is a ship on the wire; Direction true means horizontal
type Ship struct {
	Position  Position `json:"position"`
	Direction *bool    `json:"direction"`
	Length    int      `json:"length"`
	Type      string   `json:"type"`
}

// ToModel converts a wire ship, rejecting a missing direction
func (s Ship) ToModel() (model.Ship, error) {
	if s.Direction == nil {
		return model.Ship{}, fmt.Errorf("%w: ship direction missing", model.ErrMalformedPayload)
	}
	orientation := model.OrientationVertical
	if *s.Direction {
		orientation = model.OrientationHorizontal
	}
	return model.Ship{
		Origin:      model.Position{X: s.Position.X, Y: s.Position.Y},
		Orientation: orientation,
		Length:      s.Length,
		Type:        model.ShipType(s.Type),
	}, nil
}

// ShipsToModel converts a wire fleet
func ShipsToModel(ships []Ship) ([]model.Ship, error) {
	out := make([]model.Ship, 0, len(ships))
	for _, s := range ships {
		m, err := s.ToModel()
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// ShipFromModel converts a model ship to its wire form
func ShipFromModel(s model.Ship) Ship {
	horizontal := s.Orientation == model.OrientationHorizontal
	return Ship{
		Position:  Position{X: s.Origin.X, Y: s.Origin.Y},
		Direction: &horizontal,
		Length:    s.Length,
		Type:      string(s.Type),
	}
}

// ShipsFromModel converts a model fleet to its wire form
func ShipsFromModel(ships []model.Ship) []Ship {
	out := make([]Ship, len(ships))
	for i, s := range ships {
		out[i] = ShipFromModel(s)
	}
	return out
}

// Outbound payloads

// RegResponse answers a reg message
type RegResponse struct {
	Name      string `json:"name"`
	Index     string `json:"index"`
	Error     bool   `json:"error"`
	ErrorText string `json:"errorText"`
}

// RoomUser is a member of a listed room
type RoomUser struct {
	Name  string `json:"name"`
	Index string `json:"index"`
}

// Room is one entry of an update_room list
type Room struct {
	RoomID    string     `json:"roomId"`
	RoomUsers []RoomUser `json:"roomUsers"`
}

// RoomsFromModel converts open rooms to an update_room payload
func RoomsFromModel(rooms []model.Room) []Room {
	out := make([]Room, len(rooms))
	for i, r := range rooms {
		users := make([]RoomUser, len(r.Players))
		for j, p := range r.Players {
			users[j] = RoomUser{Name: p.Name, Index: string(p.ID)}
		}
		out[i] = Room{RoomID: string(r.ID), RoomUsers: users}
	}
	return out
}

// CreateGame tells a player which game they were seated in
type CreateGame struct {
	IDGame   string `json:"idGame"`
	IDPlayer string `json:"idPlayer"`
}

// StartGame hands a player their own fleet when play begins
type StartGame struct {
	Ships              []Ship `json:"ships"`
	CurrentPlayerIndex string `json:"currentPlayerIndex"`
}

// Attack reports the result of one shot
type Attack struct {
	Position      Position `json:"position"`
	CurrentPlayer string   `json:"currentPlayer"`
	Status        string   `json:"status"`
}

// Turn names the player allowed to shoot
type Turn struct {
	CurrentPlayer string `json:"currentPlayer"`
}

// Finish names the winner of a game
type Finish struct {
	WinPlayer string `json:"winPlayer"`
}

// Winner is one row of the update_winners leaderboard
type Winner struct {
	Name string `json:"name"`
	Wins int    `json:"wins"`
}

// WinnersFromModel converts a leaderboard snapshot
func WinnersFromModel(winners []model.Winner) []Winner {
	out := make([]Winner, len(winners))
	for i, w := range winners {
		out[i] = Winner{Name: w.Name, Wins: w.Wins}
	}
	return out
}

// Error is sent to a client whose message could not be applied
type Error struct {
	ErrorText string `json:"errorText"`
	Code      string `json:"code"`
}

// Attack status strings
const (
	StatusMiss   = "miss"
	StatusShot   = "shot"
	StatusKilled = "killed"
)

// AttackStatus converts an attack result to its wire status
func AttackStatus(result model.AttackResult) string {
	switch result {
	case model.AttackHit:
		return StatusShot
	case model.AttackSunk:
		return StatusKilled
	default:
		return StatusMiss
	}
}

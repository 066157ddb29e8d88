package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/mcoot/battleship/internal/model"
)

// Message types
const (
	TypeReg           = "reg"
	TypeCreateRoom    = "create_room"
	TypeAddUserToRoom = "add_user_to_room"
	TypeAddShips      = "add_ships"
	TypeAttack        = "attack"
	TypeRandomAttack  = "randomAttack"
	TypeCreateGame    = "create_game"
	TypeStartGame     = "start_game"
	TypeTurn          = "turn"
	TypeFinish        = "finish"
	TypeUpdateRoom    = "update_room"
	TypeUpdateWinners = "update_winners"
	TypeError         = "error"
)

// UnsolicitedID is the id carried by events that answer no particular request
var UnsolicitedID = json.RawMessage("0")

// Envelope is the frame shape shared by every inbound and outbound message
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
	ID   json.RawMessage `json:"id,omitempty"`
}

// Decode parses a raw frame into an envelope
func Decode(raw []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrMalformedPayload, err)
	}
	if env.Type == "" {
		return nil, fmt.Errorf("%w: missing type", model.ErrMalformedPayload)
	}
	return &env, nil
}

// ReplyID returns the id to echo on a correlated reply
func (e *Envelope) ReplyID() json.RawMessage {
	if e == nil || len(e.ID) == 0 || bytes.Equal(e.ID, []byte("null")) {
		return UnsolicitedID
	}
	return e.ID
}

// DecodeData unmarshals the payload into v
//
// The payload may be a JSON object or a JSON string holding the object, as sent
// by browser clients that encode data twice.
func (e *Envelope) DecodeData(v any) error {
	data := bytes.TrimSpace(e.Data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return fmt.Errorf("%w: missing data", model.ErrMalformedPayload)
	}

	if data[0] == '"' {
		var inner string
		if err := json.Unmarshal(data, &inner); err != nil {
			return fmt.Errorf("%w: %v", model.ErrMalformedPayload, err)
		}
		data = []byte(inner)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", model.ErrMalformedPayload, err)
	}
	return nil
}

// Encoder renders outbound envelopes
type Encoder struct {
	// StringifyData sends data as a JSON string instead of an object
	StringifyData bool
}

// Encode renders a message with the given type, payload and id
func (enc Encoder) Encode(msgType string, data any, id json.RawMessage) ([]byte, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", msgType, err)
	}
	if enc.StringifyData {
		payload, err = json.Marshal(string(payload))
		if err != nil {
			return nil, fmt.Errorf("encode %s payload: %w", msgType, err)
		}
	}
	if len(id) == 0 {
		id = UnsolicitedID
	}
	return json.Marshal(Envelope{Type: msgType, Data: payload, ID: id})
}

package session

import (
	"encoding/json"

	"github.com/mcoot/battleship/internal/model"
	"github.com/mcoot/battleship/internal/protocol"
)

// Dispatcher fans encoded frames out to connected sessions
//
// Frames for sessions that are no longer connected are dropped silently.
type Dispatcher interface {
	Send(sessionID model.SessionID, frame []byte)
	SendMany(sessionIDs []model.SessionID, frame []byte)
	BroadcastAll(frame []byte)
}

type outbound struct {
	to        []model.SessionID
	broadcast bool
	frame     []byte
}

// outbox collects the frames produced while handling one message
//
// Nothing reaches the dispatcher unless the whole message succeeds.
type outbox struct {
	enc    protocol.Encoder
	frames []outbound
	err    error
}

func (o *outbox) send(to []model.SessionID, msgType string, data any, id json.RawMessage) {
	if o.err != nil || len(to) == 0 {
		return
	}
	frame, err := o.enc.Encode(msgType, data, id)
	if err != nil {
		o.err = err
		return
	}
	o.frames = append(o.frames, outbound{to: to, frame: frame})
}

func (o *outbox) broadcast(msgType string, data any) {
	if o.err != nil {
		return
	}
	frame, err := o.enc.Encode(msgType, data, protocol.UnsolicitedID)
	if err != nil {
		o.err = err
		return
	}
	o.frames = append(o.frames, outbound{broadcast: true, frame: frame})
}

func (o *outbox) flush(d Dispatcher) {
	for _, f := range o.frames {
		switch {
		case f.broadcast:
			d.BroadcastAll(f.frame)
		case len(f.to) == 1:
			d.Send(f.to[0], f.frame)
		default:
			d.SendMany(f.to, f.frame)
		}
	}
	o.frames = nil
}

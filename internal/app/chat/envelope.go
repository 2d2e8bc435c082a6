package chat

import (
	"encoding/json"
	"fmt"

	"hzroom/internal/app/user"
)

// EnvelopeType tags the variant carried by an Envelope.
type EnvelopeType string

const (
	// TypeRequestUsers asks attached peers to make themselves known.
	TypeRequestUsers EnvelopeType = "REQUEST_USERS"

	// TypeUserJoin announces a freshly attached user.
	TypeUserJoin EnvelopeType = "USER_JOIN"

	// TypeHeartbeat is the periodic liveness announcement.
	TypeHeartbeat EnvelopeType = "HEARTBEAT"

	// TypeNewMessage carries one chat message.
	TypeNewMessage EnvelopeType = "NEW_MESSAGE"
)

// Envelope is the unit exchanged on a topic. Exactly one payload field is set, matching Type.
type Envelope struct {
	Type        EnvelopeType `json:"type"`
	RequesterID string       `json:"requesterId,omitempty"`
	User        *user.User   `json:"user,omitempty"`
	Message     *Message     `json:"message,omitempty"`
}

func RequestUsers(requesterID string) Envelope {
	return Envelope{Type: TypeRequestUsers, RequesterID: requesterID}
}

func UserJoin(u user.User) Envelope {
	return Envelope{Type: TypeUserJoin, User: &u}
}

func Heartbeat(u user.User) Envelope {
	return Envelope{Type: TypeHeartbeat, User: &u}
}

func NewMessage(m Message) Envelope {
	return Envelope{Type: TypeNewMessage, Message: &m}
}

// Encode serialises e for publication.
func (e Envelope) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// DecodeEnvelope parses a topic payload and checks that the payload matching its type is present.
func DecodeEnvelope(payload []byte) (Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(payload, &e); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}

	switch e.Type {
	case TypeRequestUsers:
		return e, nil
	case TypeUserJoin, TypeHeartbeat:
		if e.User == nil || e.User.ID == "" {
			return Envelope{}, fmt.Errorf("%s envelope without user", e.Type)
		}
	case TypeNewMessage:
		if e.Message == nil || e.Message.ID == "" {
			return Envelope{}, fmt.Errorf("%s envelope without message", e.Type)
		}
	default:
		return Envelope{}, fmt.Errorf("unknown envelope type %q", e.Type)
	}

	return e, nil
}

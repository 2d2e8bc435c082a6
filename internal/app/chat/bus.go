package chat

import (
	"time"

	"hzroom/internal/app/user"
)

// Bus keeps the local transcript of one session.
//
// Locally authored messages are appended when sent; the topic later echoes them back and
// Receive drops that echo by id. Every other received message is appended in receipt order,
// so two sessions may hold the same messages in different orders.
// A Bus is owned by its session actor and is not safe for concurrent use.
type Bus struct {
	self user.User
	now  func() time.Time

	transcript []Message

	// authored holds ids of messages this bus created.
	authored map[string]struct{}
}

// NewBus returns an empty bus authoring as self. now defaults to time.Now.
func NewBus(self user.User, now func() time.Time) *Bus {
	if now == nil {
		now = time.Now
	}
	return &Bus{
		self:     self,
		now:      now,
		authored: make(map[string]struct{}),
	}
}

// Send builds a text message from self, appends it and returns it with its envelope.
func (b *Bus) Send(text string) (Message, Envelope) {
	m := NewTextMessage(b.self, text, b.now())
	return m, b.Post(m)
}

// Post appends a prebuilt message as locally authored and returns its envelope.
func (b *Bus) Post(m Message) Envelope {
	b.authored[m.ID] = struct{}{}
	b.transcript = append(b.transcript, m)
	return NewMessage(m)
}

// Receive appends m unless it is the echo of a message this bus authored.
// It reports whether m was appended.
func (b *Bus) Receive(m Message) bool {
	if _, ok := b.authored[m.ID]; ok {
		return false
	}
	b.transcript = append(b.transcript, m)
	return true
}

// Transcript returns a copy of the messages in local order.
func (b *Bus) Transcript() []Message {
	out := make([]Message, len(b.transcript))
	copy(out, b.transcript)
	return out
}

// Len returns the number of messages held.
func (b *Bus) Len() int {
	return len(b.transcript)
}

// Clear drops the transcript.
func (b *Bus) Clear() {
	b.transcript = nil
	clear(b.authored)
}

package chat

import (
	"time"

	"hzroom/internal/app/bot"
	"hzroom/internal/app/user"
	"hzroom/internal/pkg/randx"
)

// MessageKind is the rendering kind of a chat message.
type MessageKind string

const (
	KindText   MessageKind = "text"
	KindVideo  MessageKind = "video"
	KindSystem MessageKind = "system"
)

// MaxContentBytes is the maximum allowed size of a message's text content.
const MaxContentBytes = 5000

// Message is one transcript entry. It is never modified after construction.
type Message struct {
	// ID is unique per send event.
	ID string `json:"id"`

	SenderID   string `json:"senderId"`
	SenderName string `json:"senderName"`
	Avatar     string `json:"avatar,omitempty"`

	Content string      `json:"content"`
	Kind    MessageKind `json:"type"`

	// Timestamp is the Unix millisecond creation time on the author's side.
	Timestamp int64 `json:"timestamp"`

	// VideoURL is set on video messages only.
	VideoURL string `json:"videoUrl,omitempty"`

	// IsBot marks messages authored by a bot.
	IsBot bool `json:"isBot,omitempty"`
}

// NewTextMessage builds a text message authored by from.
func NewTextMessage(from user.User, content string, at time.Time) Message {
	return Message{
		ID:         randx.MessageID(),
		SenderID:   from.ID,
		SenderName: from.Nickname,
		Avatar:     from.Avatar,
		Content:    content,
		Kind:       KindText,
		Timestamp:  at.UnixMilli(),
	}
}

// NewBotMessage builds the message for a bot reply.
func NewBotMessage(reply bot.Reply, at time.Time) Message {
	kind := KindText
	if reply.Kind == bot.ReplyVideo {
		kind = KindVideo
	}

	return Message{
		ID:         randx.MessageID(),
		SenderID:   reply.Bot.ID,
		SenderName: reply.Bot.Nickname,
		Avatar:     reply.Bot.Avatar,
		Content:    reply.Content,
		Kind:       kind,
		Timestamp:  at.UnixMilli(),
		VideoURL:   reply.VideoURL,
		IsBot:      true,
	}
}

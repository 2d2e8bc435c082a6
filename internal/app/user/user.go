/*
Package user defines the identity of a chat participant.

Identity (ID, Nickname, Avatar) is assigned once at login and never changes; IsOnline and
LastSeen describe the local presence view and are only written by the presence tracker.
*/
package user

import (
	"time"
	"unicode/utf8"
)

// MaxNicknameRunes bounds the length of a nickname.
const MaxNicknameRunes = 24

// User is a chat participant as carried in USER_JOIN and HEARTBEAT envelopes.
type User struct {
	// ID is the opaque identifier assigned at login.
	ID string `json:"id"`

	// Nickname is the display name, unique within a topic.
	Nickname string `json:"nickname"`

	// Avatar is the avatar reference (URL or storage key).
	Avatar string `json:"avatar,omitempty"`

	// IsOnline is true while the user is in a presence set.
	IsOnline bool `json:"isOnline"`

	// LastSeen is the Unix millisecond time of the last announcement.
	// Receivers overwrite it with their own receipt time.
	LastSeen int64 `json:"lastSeen,omitempty"`
}

// Seen returns a copy of u marked online and last seen at t.
func (u User) Seen(t time.Time) User {
	u.IsOnline = true
	u.LastSeen = t.UnixMilli()
	return u
}

// LastSeenTime returns LastSeen as a time.Time; zero when never seen.
func (u User) LastSeenTime() time.Time {
	if u.LastSeen == 0 {
		return time.Time{}
	}
	return time.UnixMilli(u.LastSeen)
}

// ValidNickname reports whether name is non-empty and within MaxNicknameRunes.
func ValidNickname(name string) bool {
	n := utf8.RuneCountInString(name)
	return n > 0 && n <= MaxNicknameRunes
}

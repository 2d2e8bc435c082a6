package jwt

import "github.com/golang-jwt/jwt"

// Payload is the session ticket issued at login and presented on the websocket handshake.
// It carries the identity fixed at login and the server the session attaches to.
type Payload struct {
	jwt.StandardClaims `json:"standard_claims"`

	// ID is the user id assigned at login; immutable for the session.
	ID string `json:"id"`

	// Nickname is the display name, checked for uniqueness on the topic at login.
	Nickname string `json:"nickname"`

	// Avatar is the avatar reference chosen at login.
	Avatar string `json:"avatar,omitempty"`

	// ServerID selects the topic the session attaches to.
	ServerID string `json:"server_id"`
}

/*
Package randx generates identifiers: Base62 user and session ids from crypto/rand and
UUID v4 message ids.
*/
package randx

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/google/uuid"
)

const (
	// Base62Chars is the alphabet used for generated ids (0-9, A-Z, a-z).
	Base62Chars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

	// Base62Len is the size of the alphabet.
	Base62Len = int64(len(Base62Chars))

	// UserIDPrefix marks ids assigned at login.
	UserIDPrefix = "u_"

	// UserIDRawLength is the length of the random part of a user id.
	UserIDRawLength = 10

	// SessionIDLength is the length of a session id.
	SessionIDLength = 16
)

// base62 returns n random Base62 characters.
func base62(n int) (string, error) {
	result := make([]byte, n)

	for i := range n {
		num, err := rand.Int(rand.Reader, big.NewInt(Base62Len))
		if err != nil {
			return "", fmt.Errorf("failed to generate random number: %w", err)
		}
		result[i] = Base62Chars[num.Int64()]
	}

	return string(result), nil
}

// UserID generates the immutable identity assigned to a participant at login.
func UserID() (string, error) {
	raw, err := base62(UserIDRawLength)
	if err != nil {
		return "", err
	}
	return UserIDPrefix + raw, nil
}

// SessionID generates the key under which the Manager tracks a live session.
func SessionID() (string, error) {
	return base62(SessionIDLength)
}

// MessageID generates a UUID v4 message identifier, unique per send event.
func MessageID() string {
	return uuid.New().String()
}

// IsValidUserID reports whether id has the shape produced by UserID.
func IsValidUserID(id string) bool {
	raw, ok := strings.CutPrefix(id, UserIDPrefix)
	if !ok || len(raw) != UserIDRawLength {
		return false
	}

	for _, char := range raw {
		if !strings.ContainsRune(Base62Chars, char) {
			return false
		}
	}

	return true
}

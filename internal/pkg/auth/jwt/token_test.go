package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParseToken(t *testing.T) {
	token, err := GenerateToken(&Payload{
		ID:       "u_abcDEF1234",
		Nickname: "Ann",
		ServerID: "srv-1",
	}, "secret", time.Minute)
	require.NoError(t, err)

	payload, err := ParseToken(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, "u_abcDEF1234", payload.ID)
	assert.Equal(t, "Ann", payload.Nickname)
	assert.Equal(t, "srv-1", payload.ServerID)
	assert.Equal(t, TokenIssuer, payload.Issuer)
}

func TestParseToken_Rejects(t *testing.T) {
	valid, err := GenerateToken(&Payload{ID: "u_abcDEF1234", ServerID: "srv-1"}, "secret", time.Minute)
	require.NoError(t, err)

	expired, err := GenerateToken(&Payload{ID: "u_abcDEF1234", ServerID: "srv-1"}, "secret", -time.Minute)
	require.NoError(t, err)

	anonymous, err := GenerateToken(&Payload{Nickname: "Ann"}, "secret", time.Minute)
	require.NoError(t, err)

	tcases := []struct {
		name   string
		token  string
		secret string
	}{
		{name: "wrong secret", token: valid, secret: "other"},
		{name: "expired", token: expired, secret: "secret"},
		{name: "missing identity", token: anonymous, secret: "secret"},
		{name: "garbage", token: "not.a.token", secret: "secret"},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseToken(tc.token, tc.secret)
			assert.Error(t, err)
		})
	}
}

package assistant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Complete(t *testing.T) {
	var got completionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"hi there"}}]}`))
	}))
	defer srv.Close()

	c := NewClient(Config{Endpoint: srv.URL, APIKey: "sk-test", Model: "deepseek-chat"})
	out, err := c.Complete(context.Background(), "be nice", "hello")
	require.NoError(t, err)
	assert.Equal(t, "hi there", out)

	assert.Equal(t, "deepseek-chat", got.Model)
	assert.False(t, got.Stream)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, chatMessage{Role: "system", Content: "be nice"}, got.Messages[0])
	assert.Equal(t, chatMessage{Role: "user", Content: "hello"}, got.Messages[1])
}

func TestClient_Failures(t *testing.T) {
	tcases := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{name: "server error", status: http.StatusInternalServerError, body: `{"error":"down"}`, want: ErrStatus},
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{}`, want: ErrStatus},
		{name: "not json", status: http.StatusOK, body: `<html>`, want: ErrMalformed},
		{name: "no choices", status: http.StatusOK, body: `{"choices":[]}`, want: ErrMalformed},
		{name: "no content", status: http.StatusOK, body: `{"choices":[{"message":{"role":"assistant"}}]}`, want: ErrMalformed},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			_, err := NewClient(Config{Endpoint: srv.URL}).Complete(context.Background(), "p", "q")
			assert.True(t, errors.Is(err, tc.want), "got %v", err)
		})
	}
}

func TestClient_EmptyContentIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":""}}]}`))
	}))
	defer srv.Close()

	out, err := NewClient(Config{Endpoint: srv.URL}).Complete(context.Background(), "p", "q")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestClient_Transport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := NewClient(Config{Endpoint: srv.URL, Timeout: 20 * time.Millisecond})
	_, err := c.Complete(context.Background(), "p", "q")
	assert.True(t, errors.Is(err, ErrTransport), "got %v", err)

	closed := httptest.NewServer(http.NotFoundHandler())
	closed.Close()
	_, err = NewClient(Config{Endpoint: closed.URL}).Complete(context.Background(), "p", "q")
	assert.True(t, errors.Is(err, ErrTransport), "got %v", err)
}

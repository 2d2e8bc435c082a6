package bot

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hzroom/internal/app/assistant"
)

// completerFunc adapts a function to Completer.
type completerFunc func(ctx context.Context, persona, query string) (string, error)

func (f completerFunc) Complete(ctx context.Context, persona, query string) (string, error) {
	return f(ctx, persona, query)
}

func testConfig() Config {
	return Config{
		VideoBot:        Profile{ID: "bot-video", Nickname: "Projector"},
		VideoPrefix:     "@movie",
		VideoFillers:    []string{"play"},
		ParserBaseURL:   "https://parser.example/?url=",
		VideoDelay:      10 * time.Millisecond,
		AssistantBot:    Profile{ID: "bot-assistant", Nickname: "Helper"},
		AssistantPrefix: "@assistant",
		DefaultQuery:    "introduce yourself",
		Persona:         "You are a helpful chat participant.",
	}
}

func TestDispatcher_Parse(t *testing.T) {
	d := NewDispatcher(testConfig(), nil, zerolog.Nop())

	cmd, ok := d.Parse("@movie play http://example/x")
	require.True(t, ok)
	assert.Equal(t, Command{Kind: CommandVideo, Target: "http://example/x"}, cmd)

	_, ok = d.Parse("@movie")
	assert.False(t, ok, "empty target is a silent no-op")

	cmd, ok = d.Parse("@assistant")
	require.True(t, ok)
	assert.Equal(t, "introduce yourself", cmd.Query)

	_, ok = d.Parse("hello room")
	assert.False(t, ok)
}

func TestDispatcher_Video(t *testing.T) {
	d := NewDispatcher(testConfig(), nil, zerolog.Nop())

	start := time.Now()
	reply, ok := d.Execute(context.Background(), Command{Kind: CommandVideo, Target: "http://example/x?a=b c"})
	require.True(t, ok)
	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)

	assert.Equal(t, ReplyVideo, reply.Kind)
	assert.Equal(t, "bot-video", reply.Bot.ID)
	assert.Equal(t, "https://parser.example/?url=http://example/x?a=b c", reply.VideoURL, "target is appended unescaped")
	assert.Equal(t, fmt.Sprintf(DefaultCaption, "http://example/x?a=b c"), reply.Content)
}

func TestDispatcher_VideoCancelled(t *testing.T) {
	cfg := testConfig()
	cfg.VideoDelay = time.Hour
	d := NewDispatcher(cfg, nil, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, ok := d.Execute(ctx, Command{Kind: CommandVideo, Target: "x"})
	assert.False(t, ok)
}

func TestDispatcher_Assistant(t *testing.T) {
	var gotPersona, gotQuery string
	d := NewDispatcher(testConfig(), completerFunc(func(_ context.Context, persona, query string) (string, error) {
		gotPersona, gotQuery = persona, query
		return "Hello! I am Helper.", nil
	}), zerolog.Nop())

	reply, ok := d.Execute(context.Background(), Command{Kind: CommandAssistant, Query: "hello"})
	require.True(t, ok)
	assert.Equal(t, ReplyText, reply.Kind)
	assert.Equal(t, "bot-assistant", reply.Bot.ID)
	assert.Equal(t, "Hello! I am Helper.", reply.Content)
	assert.Equal(t, "You are a helpful chat participant.", gotPersona)
	assert.Equal(t, "hello", gotQuery)
}

func TestDispatcher_AssistantFallbacks(t *testing.T) {
	tcases := []struct {
		name    string
		content string
		err     error
		panics  bool
		want    string
	}{
		{name: "transport", err: fmt.Errorf("dial: %w", assistant.ErrTransport), want: FallbackTransport},
		{name: "status", err: fmt.Errorf("HTTP 503: %w", assistant.ErrStatus), want: FallbackStatus},
		{name: "malformed", err: fmt.Errorf("no choices: %w", assistant.ErrMalformed), want: FallbackEmpty},
		{name: "unclassified", err: errors.New("boom"), want: FallbackTransport},
		{name: "empty content", content: "", want: FallbackEmpty},
		{name: "panic", panics: true, want: FallbackTransport},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			d := NewDispatcher(testConfig(), completerFunc(func(context.Context, string, string) (string, error) {
				if tc.panics {
					panic("completer exploded")
				}
				return tc.content, tc.err
			}), zerolog.Nop())

			reply, ok := d.Execute(context.Background(), Command{Kind: CommandAssistant, Query: "q"})
			require.True(t, ok)
			assert.Equal(t, tc.want, reply.Content)
			assert.Equal(t, "bot-assistant", reply.Bot.ID)
		})
	}
}

func TestDispatcher_NoCompleter(t *testing.T) {
	d := NewDispatcher(testConfig(), nil, zerolog.Nop())
	reply, ok := d.Execute(context.Background(), Command{Kind: CommandAssistant, Query: "q"})
	require.True(t, ok)
	assert.Equal(t, FallbackStatus, reply.Content)
}

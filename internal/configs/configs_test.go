package configs

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable LoadConfig reads so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	for _, name := range []string{
		"ENVIRONMENT", "PORT", "ALLOWED_ORIGINS", "SESSION_SECRET", "BASE_CHANNEL", "REDIS_ADDR",
		"DATABASE_URL", "S3_BUCKET_NAME", "S3_ENDPOINT", "S3_REGION", "S3_ACCESS_KEY_ID",
		"S3_SECRET_ACCESS_KEY", "ASSISTANT_ENDPOINT", "ASSISTANT_API_KEY", "ASSISTANT_MODEL",
		"ASSISTANT_TIMEOUT", "VIDEO_PARSER_BASE_URL", "HEARTBEAT_PERIOD", "CLEANUP_PERIOD",
		"PRESENCE_TTL", "VIDEO_REPLY_DELAY", "ROOM_CONFIG",
	} {
		t.Setenv(name, "")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "room", cfg.BaseChannel)
	assert.NotEmpty(t, cfg.SessionSecret)
	assert.Empty(t, cfg.AllowedOrigins)
	assert.Equal(t, time.Second, cfg.HeartbeatPeriod)
	assert.Equal(t, 2*time.Second, cfg.CleanupPeriod)
	assert.Equal(t, 3*time.Second, cfg.PresenceTTL)
	assert.Equal(t, 600*time.Millisecond, cfg.VideoReplyDelay)
	assert.Equal(t, 1500*time.Millisecond, cfg.ObserveWindow())
	assert.Len(t, cfg.Room.Servers, 3)

	bc := cfg.BotConfig()
	assert.Equal(t, "@movie", bc.VideoPrefix)
	assert.Equal(t, "@assistant", bc.AssistantPrefix)
	assert.Equal(t, cfg.VideoParserBaseURL, bc.ParserBaseURL)
}

func TestLoadConfig_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("SESSION_SECRET", "s3cr3t")
	t.Setenv("PORT", "9090")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("HEARTBEAT_PERIOD", "500ms")
	t.Setenv("PRESENCE_TTL", "2s")
	t.Setenv("VIDEO_REPLY_DELAY", "0s")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, 500*time.Millisecond, cfg.HeartbeatPeriod)
	assert.Equal(t, 2*time.Second, cfg.PresenceTTL)
	assert.Zero(t, cfg.VideoReplyDelay)
}

func TestLoadConfig_Errors(t *testing.T) {
	tcases := []struct {
		name string
		env  map[string]string
		want string
	}{
		{name: "bad port", env: map[string]string{"PORT": "http"}, want: "PORT"},
		{name: "privileged port", env: map[string]string{"PORT": "80"}, want: "outside"},
		{name: "production without secret", env: map[string]string{"ENVIRONMENT": "production"}, want: "SESSION_SECRET"},
		{name: "bad duration", env: map[string]string{"CLEANUP_PERIOD": "soon"}, want: "CLEANUP_PERIOD"},
		{name: "zero heartbeat", env: map[string]string{"HEARTBEAT_PERIOD": "0s"}, want: "HEARTBEAT_PERIOD"},
		{name: "ttl not above heartbeat", env: map[string]string{"PRESENCE_TTL": "1s"}, want: "PRESENCE_TTL"},
		{name: "base channel with space", env: map[string]string{"BASE_CHANNEL": "my room"}, want: "BASE_CHANNEL"},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}

			_, err := LoadConfig()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestLoadRoomSettings(t *testing.T) {
	t.Run("missing file keeps defaults", func(t *testing.T) {
		settings, err := LoadRoomSettings(filepath.Join(t.TempDir(), "absent.yaml"))
		require.NoError(t, err)
		assert.Equal(t, DefaultRoomSettings(), settings)
	})

	t.Run("overlay", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "room.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
servers:
  - id: srv-9
    displayName: Night Owls
    address: local://srv-9
bots:
  video:
    prefix: "!play"
    fillers: [video]
  assistant:
    nickname: Oracle
`), 0o600))

		settings, err := LoadRoomSettings(path)
		require.NoError(t, err)

		require.Len(t, settings.Servers, 1)
		assert.Equal(t, "Night Owls", settings.Servers[0].DisplayName)
		assert.Equal(t, "!play", settings.Bots.Video.Prefix)
		assert.Equal(t, []string{"video"}, settings.Bots.Video.Fillers)
		assert.Equal(t, "bot_video", settings.Bots.Video.ID, "unset fields keep defaults")
		assert.Equal(t, "Oracle", settings.Bots.Assistant.Nickname)
		assert.Equal(t, "@assistant", settings.Bots.Assistant.Prefix)
	})

	t.Run("caption with escaped percent", func(t *testing.T) {
		settings, err := decodeRoomSettings(strings.NewReader("bots:\n  video:\n    caption: \"100%% %s\"\n"), DefaultRoomSettings())
		require.NoError(t, err)
		assert.Equal(t, "100%% %s", settings.Bots.Video.Caption)
	})

	t.Run("rejects", func(t *testing.T) {
		tcases := []struct {
			name string
			body string
		}{
			{name: "malformed", body: "servers: [\n"},
			{name: "unknown field", body: "channels: []\n"},
			{name: "duplicate server", body: "servers:\n  - id: a\n  - id: a\n"},
			{name: "empty prefix", body: "bots:\n  assistant:\n    prefix: \"\"\n"},
			{name: "shared bot id", body: "bots:\n  video:\n    id: bot\n  assistant:\n    id: bot\n"},
			{name: "caption without target", body: "bots:\n  video:\n    caption: Now playing\n"},
			{name: "caption with two targets", body: "bots:\n  video:\n    caption: \"%s and %s\"\n"},
			{name: "caption with other verb", body: "bots:\n  video:\n    caption: \"%d: %s\"\n"},
		}

		for _, tc := range tcases {
			t.Run(tc.name, func(t *testing.T) {
				_, err := decodeRoomSettings(strings.NewReader(tc.body), DefaultRoomSettings())
				assert.Error(t, err)
			})
		}
	})
}

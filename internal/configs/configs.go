/*
Package configs is responsible for loading and parsing the application's configuration settings.

Server parameters come from environment variables: the running environment, port, CORS
origins, the topic transport, optional Postgres and S3 backends, the assistant endpoint and
the presence timing. Room settings (server list, bot identities and command prefixes) can
be overridden by a YAML file named in ROOM_CONFIG.
*/
package configs

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"hzroom/internal/app/bot"
	"hzroom/internal/app/presence"
)

const (
	EnvDevelopment = "development"

	defaultPort        = 8080
	defaultBaseChannel = "room"
	defaultDevSecret   = "hzroom_insecure_development_secret"
)

// AppConfig contains all configuration parameters required for the application to run.
type AppConfig struct {
	// General Server Settings
	Environment string
	Port        int

	// Security Settings
	AllowedOrigins []string
	SessionSecret  string

	// Topic Settings. BaseChannel prefixes every topic; RedisAddr switches the transport
	// from in-process to Redis streams.
	BaseChannel string
	RedisAddr   string

	// Database Settings. Empty means the server list comes from Room.
	DatabaseDSN string

	// S3 Storage Settings. Avatar uploads are disabled unless all are set.
	S3BucketName      string
	S3Endpoint        string
	S3Region          string
	S3AccessKeyID     string
	S3SecretAccessKey string

	// Assistant Settings. Empty endpoint leaves the assistant bot answering with its fallback.
	AssistantEndpoint string
	AssistantAPIKey   string
	AssistantModel    string
	AssistantTimeout  time.Duration

	// Bot and presence timing
	VideoParserBaseURL string
	HeartbeatPeriod    time.Duration
	CleanupPeriod      time.Duration
	PresenceTTL        time.Duration
	VideoReplyDelay    time.Duration

	// Room holds the server list and bot settings.
	Room RoomSettings
}

// IsDevelopment reports whether the server runs in the development environment.
func (c *AppConfig) IsDevelopment() bool {
	return c.Environment == EnvDevelopment
}

// ObserveWindow is how long a nickname listing listens for announcements.
func (c *AppConfig) ObserveWindow() time.Duration {
	return c.HeartbeatPeriod * 3 / 2
}

// BotConfig assembles the dispatcher settings.
func (c *AppConfig) BotConfig() bot.Config {
	video, assistant := c.Room.Bots.Video, c.Room.Bots.Assistant

	return bot.Config{
		VideoBot:      video.Profile,
		VideoPrefix:   video.Prefix,
		VideoFillers:  video.Fillers,
		ParserBaseURL: c.VideoParserBaseURL,
		VideoDelay:    c.VideoReplyDelay,
		Caption:       video.Caption,

		AssistantBot:    assistant.Profile,
		AssistantPrefix: assistant.Prefix,
		DefaultQuery:    assistant.DefaultQuery,
		Persona:         assistant.Persona,
		CallTimeout:     c.AssistantTimeout,
	}
}

// LoadConfig reads and parses the application configuration from environment variables.
// It provides default values for each configuration item and performs necessary type conversions and validation.
func LoadConfig() (*AppConfig, error) {
	cfg := &AppConfig{}

	// --- General Server Settings ---
	cfg.Environment = os.Getenv("ENVIRONMENT")
	if cfg.Environment == "" {
		cfg.Environment = EnvDevelopment
	}

	port, err := getInt("PORT", defaultPort)
	if err != nil {
		return nil, err
	}
	if port < 1024 || port > 65535 {
		return nil, fmt.Errorf("port number %d is outside the recommended range (%d-%d) to avoid privileged ports", port, 1024, 65535)
	}
	cfg.Port = port

	// --- Security Settings ---
	cfg.AllowedOrigins = splitList(os.Getenv("ALLOWED_ORIGINS"))

	cfg.SessionSecret = os.Getenv("SESSION_SECRET")
	if cfg.SessionSecret == "" {
		if !cfg.IsDevelopment() {
			return nil, fmt.Errorf("SESSION_SECRET environment variable is required in %s environment", cfg.Environment)
		}
		cfg.SessionSecret = defaultDevSecret
	}

	// --- Topic Settings ---
	cfg.BaseChannel = getString("BASE_CHANNEL", defaultBaseChannel)
	if strings.ContainsAny(cfg.BaseChannel, " \t\n") {
		return nil, fmt.Errorf("BASE_CHANNEL %q must not contain whitespace", cfg.BaseChannel)
	}
	cfg.RedisAddr = os.Getenv("REDIS_ADDR")

	// --- Database Settings ---
	cfg.DatabaseDSN = os.Getenv("DATABASE_URL")

	// --- S3 Storage Settings ---
	cfg.S3BucketName = os.Getenv("S3_BUCKET_NAME")
	cfg.S3Endpoint = os.Getenv("S3_ENDPOINT")
	cfg.S3Region = os.Getenv("S3_REGION")
	cfg.S3AccessKeyID = os.Getenv("S3_ACCESS_KEY_ID")
	cfg.S3SecretAccessKey = os.Getenv("S3_SECRET_ACCESS_KEY")

	// --- Assistant Settings ---
	cfg.AssistantEndpoint = os.Getenv("ASSISTANT_ENDPOINT")
	cfg.AssistantAPIKey = os.Getenv("ASSISTANT_API_KEY")
	cfg.AssistantModel = getString("ASSISTANT_MODEL", "gpt-4o-mini")
	if cfg.AssistantTimeout, err = getDuration("ASSISTANT_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}

	// --- Bot and presence timing ---
	cfg.VideoParserBaseURL = getString("VIDEO_PARSER_BASE_URL", "https://jx.parser.example/?url=")

	if cfg.HeartbeatPeriod, err = getDuration("HEARTBEAT_PERIOD", presence.DefaultHeartbeatPeriod); err != nil {
		return nil, err
	}
	if cfg.CleanupPeriod, err = getDuration("CLEANUP_PERIOD", presence.DefaultCleanupPeriod); err != nil {
		return nil, err
	}
	if cfg.PresenceTTL, err = getDuration("PRESENCE_TTL", presence.DefaultTTL); err != nil {
		return nil, err
	}
	if cfg.VideoReplyDelay, err = getDuration("VIDEO_REPLY_DELAY", bot.DefaultVideoDelay); err != nil {
		return nil, err
	}
	if cfg.PresenceTTL <= cfg.HeartbeatPeriod {
		return nil, fmt.Errorf("PRESENCE_TTL (%s) must be longer than HEARTBEAT_PERIOD (%s)", cfg.PresenceTTL, cfg.HeartbeatPeriod)
	}

	// --- Room Settings ---
	room, err := LoadRoomSettings(os.Getenv("ROOM_CONFIG"))
	if err != nil {
		return nil, err
	}
	cfg.Room = room

	return cfg, nil
}

func getString(name, def string) string {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		return v
	}
	return def
}

func getInt(name string, def int) (int, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", name, err)
	}
	return v, nil
}

// getDuration parses a Go duration. Only VIDEO_REPLY_DELAY may be zero.
func getDuration(name string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return def, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", name, err)
	}
	if v < 0 || (v == 0 && name != "VIDEO_REPLY_DELAY") {
		return 0, fmt.Errorf("invalid %s environment variable: %s is not a positive duration", name, raw)
	}
	return v, nil
}

func splitList(raw string) []string {
	out := []string{}
	for _, item := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

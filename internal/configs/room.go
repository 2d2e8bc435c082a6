package configs

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"hzroom/internal/app/bot"
	"hzroom/internal/app/directory"
)

// RoomSettings is the static room configuration: which servers exist and how the bots
// present themselves and are addressed.
type RoomSettings struct {
	Servers []directory.Server `yaml:"servers"`
	Bots    BotSettings        `yaml:"bots"`
}

type BotSettings struct {
	Video     VideoBotSettings     `yaml:"video"`
	Assistant AssistantBotSettings `yaml:"assistant"`
}

type VideoBotSettings struct {
	bot.Profile `yaml:",inline"`

	Prefix  string   `yaml:"prefix"`
	Fillers []string `yaml:"fillers"`

	// Caption is a printf template receiving the raw target.
	Caption string `yaml:"caption"`
}

type AssistantBotSettings struct {
	bot.Profile `yaml:",inline"`

	Prefix       string `yaml:"prefix"`
	DefaultQuery string `yaml:"defaultQuery"`
	Persona      string `yaml:"persona"`
}

// DefaultRoomSettings returns the built-in servers and bots.
func DefaultRoomSettings() RoomSettings {
	servers := make([]directory.Server, len(directory.DefaultServers))
	copy(servers, directory.DefaultServers)

	return RoomSettings{
		Servers: servers,
		Bots: BotSettings{
			Video: VideoBotSettings{
				Profile: bot.Profile{ID: "bot_video", Nickname: "Projector", Avatar: "/avatars/projector.png"},
				Prefix:  "@movie",
				Fillers: []string{"play", "播放"},
				Caption: bot.DefaultCaption,
			},
			Assistant: AssistantBotSettings{
				Profile:      bot.Profile{ID: "bot_assistant", Nickname: "Assistant", Avatar: "/avatars/assistant.png"},
				Prefix:       "@assistant",
				DefaultQuery: "Say hello to the room and introduce yourself in one sentence.",
				Persona:      "You are a friendly participant in a small group chat. Answer briefly and casually.",
			},
		},
	}
}

// LoadRoomSettings overlays the YAML file at path on the defaults.
// An empty path or a missing file yields the defaults; a malformed file is an error.
func LoadRoomSettings(path string) (RoomSettings, error) {
	settings := DefaultRoomSettings()
	if path == "" {
		return settings, nil
	}

	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return settings, nil
	}
	if err != nil {
		return RoomSettings{}, fmt.Errorf("open room config: %w", err)
	}
	defer f.Close()

	return decodeRoomSettings(f, settings)
}

func decodeRoomSettings(r io.Reader, settings RoomSettings) (RoomSettings, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	if err := dec.Decode(&settings); err != nil && !errors.Is(err, io.EOF) {
		return RoomSettings{}, fmt.Errorf("parse room config: %w", err)
	}

	if err := settings.validate(); err != nil {
		return RoomSettings{}, err
	}
	return settings, nil
}

func (s RoomSettings) validate() error {
	if len(s.Servers) == 0 {
		return errors.New("room config: at least one server is required")
	}
	if _, err := directory.NewStatic(s.Servers); err != nil {
		return fmt.Errorf("room config: %w", err)
	}

	video, assistant := s.Bots.Video, s.Bots.Assistant
	switch {
	case video.Prefix == "" || assistant.Prefix == "":
		return errors.New("room config: bot prefixes must not be empty")
	case video.ID == "" || assistant.ID == "":
		return errors.New("room config: bot ids must not be empty")
	case video.ID == assistant.ID:
		return errors.New("room config: bots need distinct ids")
	case video.Caption != "" && !validCaption(video.Caption):
		return fmt.Errorf("room config: video caption %q needs exactly one %%s and no other verbs", video.Caption)
	}
	return nil
}

// validCaption reports whether caption formats the target exactly once.
func validCaption(caption string) bool {
	verbs := strings.ReplaceAll(caption, "%%", "")
	return strings.Count(verbs, "%s") == 1 && strings.Count(verbs, "%") == 1
}

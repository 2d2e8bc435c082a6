package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"hzroom/internal/app/assistant"
)

const (
	// DefaultVideoDelay is the simulated latency before the video bot answers.
	DefaultVideoDelay = 600 * time.Millisecond

	// DefaultCaption is the video reply caption; %s is the raw target.
	DefaultCaption = "Now playing: %s"
)

// Fallback replies of the assistant bot. They are the only trace a failed call leaves.
const (
	FallbackTransport = "Connection to the assistant appears to be down. Please try again later."
	FallbackStatus    = "The assistant is unavailable right now, try later."
	FallbackEmpty     = "The assistant had nothing to say."
)

// Profile is a bot's identity as shown in the transcript.
type Profile struct {
	ID       string `yaml:"id"`
	Nickname string `yaml:"nickname"`
	Avatar   string `yaml:"avatar"`
}

// ReplyKind tells the session which message kind to build.
type ReplyKind int

const (
	ReplyText ReplyKind = iota
	ReplyVideo
)

// Reply is what a bot wants published.
type Reply struct {
	Bot      Profile
	Kind     ReplyKind
	Content  string
	VideoURL string
}

// Completer is the external text-completion capability used by the assistant bot.
type Completer interface {
	Complete(ctx context.Context, persona, query string) (string, error)
}

// Config holds the static bot settings.
type Config struct {
	VideoBot      Profile
	VideoPrefix   string
	VideoFillers  []string
	ParserBaseURL string
	VideoDelay    time.Duration
	Caption       string

	AssistantBot    Profile
	AssistantPrefix string
	DefaultQuery    string
	Persona         string
	CallTimeout     time.Duration
}

// Dispatcher recognises commands and executes them.
type Dispatcher struct {
	cfg       Config
	matchers  []Matcher
	completer Completer
	logger    zerolog.Logger
}

// NewDispatcher builds the video and assistant matchers, in that order, from cfg.
func NewDispatcher(cfg Config, completer Completer, logger zerolog.Logger) *Dispatcher {
	if cfg.VideoDelay < 0 {
		cfg.VideoDelay = 0
	}
	if cfg.Caption == "" {
		cfg.Caption = DefaultCaption
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = assistant.DefaultTimeout
	}

	return &Dispatcher{
		cfg: cfg,
		matchers: []Matcher{
			VideoMatcher{Prefix: cfg.VideoPrefix, Fillers: cfg.VideoFillers},
			NewAssistantMatcher(cfg.AssistantPrefix, cfg.DefaultQuery),
		},
		completer: completer,
		logger:    logger.With().Str("component", "bot").Logger(),
	}
}

// Parse returns the command in text. ok is false when no bot is addressed or the
// addressed bot has nothing to do.
func (d *Dispatcher) Parse(text string) (Command, bool) {
	cmd, claimed := Parse(d.matchers, text)
	if !claimed || cmd.Kind == CommandNone {
		return Command{}, false
	}
	return cmd, true
}

// Execute runs cmd and returns the reply to publish. It blocks for the video delay or the
// completion call. ok is false only when ctx ends during the video delay; an assistant
// command always yields a reply, falling back to a fixed text on any failure.
func (d *Dispatcher) Execute(ctx context.Context, cmd Command) (Reply, bool) {
	switch cmd.Kind {
	case CommandVideo:
		return d.video(ctx, cmd.Target)
	case CommandAssistant:
		return d.ask(ctx, cmd.Query), true
	default:
		return Reply{}, false
	}
}

func (d *Dispatcher) video(ctx context.Context, target string) (Reply, bool) {
	timer := time.NewTimer(d.cfg.VideoDelay)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-ctx.Done():
		return Reply{}, false
	}

	return Reply{
		Bot:      d.cfg.VideoBot,
		Kind:     ReplyVideo,
		Content:  fmt.Sprintf(d.cfg.Caption, target),
		VideoURL: d.cfg.ParserBaseURL + target,
	}, true
}

func (d *Dispatcher) ask(ctx context.Context, query string) (reply Reply) {
	reply = Reply{Bot: d.cfg.AssistantBot, Kind: ReplyText}

	defer func() {
		if r := recover(); r != nil {
			d.logger.Error().Interface("panic", r).Msg("Assistant call panicked.")
			reply.Content = FallbackTransport
		}
	}()

	if d.completer == nil {
		reply.Content = FallbackStatus
		return reply
	}

	callCtx, cancel := context.WithTimeout(ctx, d.cfg.CallTimeout)
	defer cancel()

	start := time.Now()
	content, err := d.completer.Complete(callCtx, d.cfg.Persona, query)
	if err != nil {
		d.logger.Warn().Err(err).Dur("latency", time.Since(start)).Msg("Assistant call failed.")
		reply.Content = fallbackFor(err)
		return reply
	}

	if content == "" {
		reply.Content = FallbackEmpty
		return reply
	}

	d.logger.Debug().Dur("latency", time.Since(start)).Int("chars", len(content)).Msg("Assistant answered.")
	reply.Content = content
	return reply
}

func fallbackFor(err error) string {
	switch {
	case errors.Is(err, assistant.ErrStatus):
		return FallbackStatus
	case errors.Is(err, assistant.ErrMalformed):
		return FallbackEmpty
	default:
		return FallbackTransport
	}
}

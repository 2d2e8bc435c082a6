/*
Package bot recognises bot commands in outgoing chat text and produces the bot replies.

Recognition is a pure, ordered list of matchers: the first matcher whose prefix fits the
text decides the command, so a video command is never also treated as an assistant
command. Execution is separate and may block (simulated latency, external completion
call); callers run it off their event loop.
*/
package bot

import (
	"regexp"
	"strings"
	"unicode"
)

// CommandKind identifies what a recognised command asks for.
type CommandKind int

const (
	// CommandNone means a matcher claimed the text but there is nothing to do.
	CommandNone CommandKind = iota
	// CommandVideo asks the video bot to post a playable link.
	CommandVideo
	// CommandAssistant asks the assistant bot a question.
	CommandAssistant
)

func (k CommandKind) String() string {
	switch k {
	case CommandVideo:
		return "video"
	case CommandAssistant:
		return "assistant"
	default:
		return "none"
	}
}

// Command is the structured payload of a recognised command.
type Command struct {
	Kind CommandKind

	// Target is the raw, unescaped video reference (CommandVideo).
	Target string

	// Query is the question for the assistant (CommandAssistant).
	Query string
}

// Matcher inspects text and reports whether it claims it.
// A claimed text stops evaluation even when the command is CommandNone.
type Matcher interface {
	Match(text string) (Command, bool)
}

// VideoMatcher claims text starting with Prefix. Leading filler words such as "play" are
// dropped from the remainder; what is left is the target.
type VideoMatcher struct {
	Prefix  string
	Fillers []string
}

// Match implements Matcher.
func (m VideoMatcher) Match(text string) (Command, bool) {
	if m.Prefix == "" || !strings.HasPrefix(text, m.Prefix) {
		return Command{}, false
	}

	rest := strings.TrimSpace(strings.TrimPrefix(text, m.Prefix))
	for {
		stripped := false
		for _, filler := range m.Fillers {
			if next, ok := cutWord(rest, filler); ok {
				rest = next
				stripped = true
			}
		}
		if !stripped {
			break
		}
	}

	if rest == "" {
		return Command{Kind: CommandNone}, true
	}
	return Command{Kind: CommandVideo, Target: rest}, true
}

// cutWord removes word from the start of s when it stands alone (followed by space or end).
func cutWord(s, word string) (string, bool) {
	if word == "" || len(s) < len(word) || !strings.EqualFold(s[:len(word)], word) {
		return s, false
	}

	tail := s[len(word):]
	if tail != "" && !unicode.IsSpace(rune(tail[0])) {
		return s, false
	}
	return strings.TrimSpace(tail), true
}

// AssistantMatcher claims text of the form "<Prefix><spaces><query>".
// An empty query is replaced with DefaultQuery.
type AssistantMatcher struct {
	Prefix       string
	DefaultQuery string

	pattern *regexp.Regexp
}

// NewAssistantMatcher compiles the command pattern for prefix.
func NewAssistantMatcher(prefix, defaultQuery string) *AssistantMatcher {
	return &AssistantMatcher{
		Prefix:       prefix,
		DefaultQuery: defaultQuery,
		pattern:      regexp.MustCompile(`(?s)^` + regexp.QuoteMeta(prefix) + `\s*(.*)$`),
	}
}

// Match implements Matcher.
func (m *AssistantMatcher) Match(text string) (Command, bool) {
	if m.Prefix == "" {
		return Command{}, false
	}

	groups := m.pattern.FindStringSubmatch(text)
	if groups == nil {
		return Command{}, false
	}

	query := strings.TrimSpace(groups[1])
	if query == "" {
		query = m.DefaultQuery
	}
	return Command{Kind: CommandAssistant, Query: query}, true
}

// Parse runs matchers in order and returns the first claim.
func Parse(matchers []Matcher, text string) (Command, bool) {
	for _, m := range matchers {
		if cmd, ok := m.Match(text); ok {
			return cmd, true
		}
	}
	return Command{}, false
}

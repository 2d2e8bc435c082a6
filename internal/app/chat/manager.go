package chat

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"hzroom/internal/app/bot"
	"hzroom/internal/app/topic"
	"hzroom/internal/app/user"
	"hzroom/internal/pkg/errs"
	"hzroom/internal/pkg/logx"
)

// Manager tracks every session attached by this process.
type Manager struct {
	// sessions stores live sessions keyed by session id.
	sessions map[string]*Session

	// channel is the topic transport shared by all sessions.
	channel topic.Channel

	// baseChannel prefixes every topic name.
	baseChannel string

	sessionCfg SessionConfig
	dispatcher *bot.Dispatcher

	// pending holds identities whose session is still attaching.
	pending map[*pendingAttach]struct{}

	// mu protects the sessions map, pending and closed.
	mu     sync.RWMutex
	closed bool

	// wg waits for the per-session watchers during shutdown.
	wg sync.WaitGroup

	logger zerolog.Logger
}

type pendingAttach struct {
	serverID string
	user     user.User
}

// NewManager constructs a Manager. dispatcher may be nil to disable bots.
func NewManager(ch topic.Channel, baseChannel string, cfg SessionConfig, dispatcher *bot.Dispatcher) *Manager {
	return &Manager{
		sessions:    make(map[string]*Session),
		pending:     make(map[*pendingAttach]struct{}),
		channel:     ch,
		baseChannel: baseChannel,
		sessionCfg:  cfg.withDefaults(),
		dispatcher:  dispatcher,
		logger:      logx.Component("manager"),
	}
}

// TopicFor returns the topic name of serverID.
func (m *Manager) TopicFor(serverID string) string {
	return topic.Name(m.baseChannel, serverID)
}

// Attach starts a session for self on serverID and registers it.
// It fails when a live or attaching session on serverID already holds self's id or nickname.
func (m *Manager) Attach(ctx context.Context, serverID string, self user.User) (*Session, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, errs.NewError(errs.ErrSessionClosed)
	}
	if err := m.conflict(serverID, self); err != nil {
		m.mu.Unlock()
		return nil, err
	}
	claim := &pendingAttach{serverID: serverID, user: self}
	m.pending[claim] = struct{}{}
	m.mu.Unlock()

	s, err := Attach(ctx, m.channel, m.TopicFor(serverID), serverID, self, m.sessionCfg, m.dispatcher, logx.Component("session"))

	m.mu.Lock()
	delete(m.pending, claim)
	if err != nil {
		m.mu.Unlock()
		return nil, err
	}
	if m.closed {
		m.mu.Unlock()
		s.Close()
		return nil, errs.NewError(errs.ErrSessionClosed)
	}
	m.sessions[s.ID] = s
	total := len(m.sessions)
	m.wg.Add(1)
	m.mu.Unlock()

	go m.watch(s)

	m.logger.Info().
		Str("session_id", s.ID).
		Str("server_id", serverID).
		Int("total_sessions", total).
		Msg("Session registered.")
	return s, nil
}

// conflict reports whether self clashes with a session on serverID. Callers hold mu.
func (m *Manager) conflict(serverID string, self user.User) error {
	clash := func(other user.User) error {
		switch {
		case other.ID == self.ID:
			return errs.NewError(errs.ErrSessionExists)
		case other.Nickname == self.Nickname:
			return errs.NewError(errs.ErrNicknameTaken, self.Nickname)
		}
		return nil
	}

	for _, s := range m.sessions {
		if s.ServerID != serverID || s.closed() {
			continue
		}
		if err := clash(s.owner); err != nil {
			return err
		}
	}
	for p := range m.pending {
		if p.serverID != serverID {
			continue
		}
		if err := clash(p.user); err != nil {
			return err
		}
	}
	return nil
}

// watch removes s from the registry once it has detached.
func (m *Manager) watch(s *Session) {
	defer m.wg.Done()

	<-s.Done()

	m.mu.Lock()
	if m.sessions[s.ID] == s {
		delete(m.sessions, s.ID)
	}
	m.mu.Unlock()

	m.logger.Info().Str("session_id", s.ID).Msg("Session removed.")
}

// Get returns the session with id, or nil.
func (m *Manager) Get(id string) *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[id]
}

// Detach closes the session with id. Unknown ids are ignored.
func (m *Manager) Detach(id string) {
	if s := m.Get(id); s != nil {
		s.Close()
	}
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *Manager) sessionsOn(serverID string) []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*Session
	for _, s := range m.sessions {
		if s.ServerID == serverID {
			out = append(out, s)
		}
	}
	return out
}

// Nicknames returns the nicknames online on serverID.
// Local sessions on the server already see every announcing peer, so their presence sets
// are merged; without one the topic is observed for window.
func (m *Manager) Nicknames(ctx context.Context, serverID string, window time.Duration) ([]string, error) {
	local := m.sessionsOn(serverID)
	if len(local) == 0 {
		return Observe(ctx, m.channel, m.TopicFor(serverID), window, m.logger)
	}

	seen := make(map[string]struct{})
	for _, s := range local {
		for _, u := range s.Online() {
			seen[u.Nickname] = struct{}{}
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Shutdown closes every session and waits for them to be removed.
func (m *Manager) Shutdown() {
	m.logger.Info().Msg("Shutting down sessions...")

	m.mu.Lock()
	m.closed = true
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
	m.wg.Wait()

	m.logger.Info().Msg("Manager shutdown complete.")
}

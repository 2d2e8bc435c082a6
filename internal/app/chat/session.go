/*
Package chat runs attached chat sessions on top of a topic.

A Session is a single actor goroutine that owns the presence tracker, the message bus and
the bot busy flag of one user on one server topic. It multiplexes inbound envelopes,
the heartbeat and cleanup tickers, local sends and bot replies, and publishes frames for
the websocket client on Updates.
*/
package chat

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"hzroom/internal/app/bot"
	"hzroom/internal/app/presence"
	"hzroom/internal/app/topic"
	"hzroom/internal/app/user"
	"hzroom/internal/pkg/errs"
	"hzroom/internal/pkg/randx"
)

const (
	inboundBuffer = 256

	// DefaultUpdateBuffer is the size of the per-session frame queue.
	DefaultUpdateBuffer = 256
)

// SessionConfig holds the timing of one session.
type SessionConfig struct {
	HeartbeatPeriod time.Duration
	CleanupPeriod   time.Duration
	TTL             time.Duration
	UpdateBuffer    int

	// Now is the clock of the tracker and the bus. Defaults to time.Now.
	Now func() time.Time
}

func (c SessionConfig) withDefaults() SessionConfig {
	if c.HeartbeatPeriod <= 0 {
		c.HeartbeatPeriod = presence.DefaultHeartbeatPeriod
	}
	if c.CleanupPeriod <= 0 {
		c.CleanupPeriod = presence.DefaultCleanupPeriod
	}
	if c.TTL <= 0 {
		c.TTL = presence.DefaultTTL
	}
	if c.UpdateBuffer <= 0 {
		c.UpdateBuffer = DefaultUpdateBuffer
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

// UpdateType tags a frame sent to the websocket client.
type UpdateType string

const (
	UpdateInit     UpdateType = "INIT"
	UpdateMessage  UpdateType = "MESSAGE"
	UpdatePresence UpdateType = "PRESENCE"
	UpdateThinking UpdateType = "THINKING"
)

// Update is one frame for the websocket client.
type Update struct {
	Type     UpdateType  `json:"type"`
	Self     *user.User  `json:"self,omitempty"`
	Topic    string      `json:"topic,omitempty"`
	Message  *Message    `json:"message,omitempty"`
	Users    []user.User `json:"users,omitempty"`
	Thinking bool        `json:"thinking"`
}

type sendRequest struct {
	text   string
	result chan sendResult
}

type sendResult struct {
	msg Message
	err error
}

type botResult struct {
	cmd   bot.Command
	reply bot.Reply
	ok    bool
}

// Session is one user attached to one server topic.
type Session struct {
	// ID keys the session in the Manager.
	ID string

	ServerID string
	topic    string

	// owner is the identity the session attached with.
	owner user.User
	cfg      SessionConfig

	handle     topic.Handle
	dispatcher *bot.Dispatcher

	// Actor-owned state. Only the run goroutine touches these after Attach returns.
	tracker  *presence.Tracker
	bus      *Bus
	thinking bool

	inbound chan []byte
	sends   chan sendRequest
	replies chan botResult
	queries chan func()
	updates chan Update

	// ctx ends on Close; pending video replies stop waiting.
	ctx    context.Context
	cancel context.CancelFunc

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once

	logger zerolog.Logger
}

// Attach joins self to topicName on ch and starts the session actor. dispatcher may be nil,
// in which case no bot commands are recognised. Anything acquired is released on failure.
func Attach(ctx context.Context, ch topic.Channel, topicName, serverID string, self user.User,
	cfg SessionConfig, dispatcher *bot.Dispatcher, logger zerolog.Logger) (*Session, error) {
	cfg = cfg.withDefaults()

	id, err := randx.SessionID()
	if err != nil {
		return nil, err
	}

	handle, err := ch.Attach(ctx, topicName)
	if err != nil {
		return nil, errs.NewError(errs.ErrTopicUnavailable).WithCause(err)
	}

	sessionCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	s := &Session{
		ID:         id,
		ServerID:   serverID,
		topic:      topicName,
		owner:      self,
		cfg:        cfg,
		handle:     handle,
		dispatcher: dispatcher,
		tracker:    presence.NewTracker(self, cfg.TTL, cfg.Now),
		bus:        NewBus(self, cfg.Now),
		inbound:    make(chan []byte, inboundBuffer),
		sends:      make(chan sendRequest),
		replies:    make(chan botResult),
		queries:    make(chan func()),
		updates:    make(chan Update, cfg.UpdateBuffer),
		ctx:        sessionCtx,
		cancel:     cancel,
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
		logger: logger.With().
			Str("session_id", id).
			Str("user_id", self.ID).
			Str("topic", topicName).
			Logger(),
	}

	handle.OnReceive(s.enqueue)

	joined := s.tracker.Attach()
	if err := s.publish(UserJoin(joined)); err != nil {
		cancel()
		close(s.stop)
		if detachErr := handle.Detach(); detachErr != nil {
			s.logger.Warn().Err(detachErr).Msg("Failed to detach after join failure.")
		}
		return nil, errs.NewError(errs.ErrTopicUnavailable).WithCause(err)
	}

	s.emit(Update{Type: UpdateInit, Self: &joined, Topic: topicName})
	s.emit(s.presenceUpdate())

	go s.run()

	s.logger.Info().Str("nickname", self.Nickname).Msg("Session attached.")
	return s, nil
}

// enqueue is the topic receiver. It never blocks past Close.
func (s *Session) enqueue(payload []byte) {
	select {
	case s.inbound <- payload:
	case <-s.stop:
	}
}

func (s *Session) run() {
	heartbeat := time.NewTicker(s.cfg.HeartbeatPeriod)
	cleanup := time.NewTicker(s.cfg.CleanupPeriod)

	defer func() {
		heartbeat.Stop()
		cleanup.Stop()

		s.tracker.Clear()
		s.bus.Clear()
		s.thinking = false

		if err := s.handle.Detach(); err != nil {
			s.logger.Warn().Err(err).Msg("Topic detach returned an error.")
		}

		close(s.updates)
		close(s.done)
		s.logger.Info().Msg("Session detached.")
	}()

	for {
		select {
		case payload := <-s.inbound:
			s.handleInbound(payload)

		case <-heartbeat.C:
			if err := s.publish(Heartbeat(s.tracker.Beat())); err != nil {
				s.logger.Warn().Err(err).Msg("Failed to publish heartbeat.")
			}

		case <-cleanup.C:
			if evicted := s.tracker.Sweep(); len(evicted) > 0 {
				for _, u := range evicted {
					s.logger.Debug().Str("peer_id", u.ID).Str("nickname", u.Nickname).Msg("Peer evicted.")
				}
				s.emit(s.presenceUpdate())
			}

		case req := <-s.sends:
			msg, err := s.handleSend(req.text)
			req.result <- sendResult{msg: msg, err: err}

		case res := <-s.replies:
			s.handleReply(res)

		case fn := <-s.queries:
			fn()

		case <-s.stop:
			return
		}
	}
}

func (s *Session) handleInbound(payload []byte) {
	env, err := DecodeEnvelope(payload)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Dropping undecodable envelope.")
		return
	}

	switch env.Type {
	case TypeUserJoin, TypeHeartbeat:
		if s.tracker.Observe(*env.User) {
			s.logger.Debug().Str("peer_id", env.User.ID).Str("nickname", env.User.Nickname).Msg("Peer joined.")
			s.emit(s.presenceUpdate())
		}

	case TypeNewMessage:
		if s.bus.Receive(*env.Message) {
			s.emit(Update{Type: UpdateMessage, Message: env.Message})
		}

	case TypeRequestUsers:
		// Observers are answered by the regular heartbeat.
	}
}

func (s *Session) handleSend(text string) (Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Message{}, errs.NewError(errs.ErrMessageEmpty)
	}
	if len(text) > MaxContentBytes {
		return Message{}, errs.NewError(errs.ErrMessageContentTooLong)
	}

	msg, env := s.bus.Send(text)
	s.emit(Update{Type: UpdateMessage, Message: &msg})

	if err := s.publish(env); err != nil {
		s.logger.Warn().Err(err).Str("message_id", msg.ID).Msg("Failed to publish message.")
	}

	s.dispatch(text)
	return msg, nil
}

// dispatch starts the bot command in text, if any.
func (s *Session) dispatch(text string) {
	if s.dispatcher == nil {
		return
	}

	cmd, ok := s.dispatcher.Parse(text)
	if !ok {
		return
	}

	ctx := s.ctx
	if cmd.Kind == bot.CommandAssistant {
		// In-flight completions outlive Close; their replies are discarded.
		ctx = context.WithoutCancel(s.ctx)
		s.thinking = true
		s.emit(Update{Type: UpdateThinking, Thinking: true})
	}

	s.logger.Debug().Stringer("command", cmd.Kind).Msg("Bot command dispatched.")

	go func() {
		res := botResult{cmd: cmd}
		defer func() {
			select {
			case s.replies <- res:
			case <-s.stop:
				s.logger.Debug().Stringer("command", cmd.Kind).Msg("Discarding bot reply after detach.")
			}
		}()

		res.reply, res.ok = s.dispatcher.Execute(ctx, cmd)
	}()
}

func (s *Session) handleReply(res botResult) {
	if res.ok {
		msg := NewBotMessage(res.reply, s.cfg.Now())
		env := s.bus.Post(msg)
		s.emit(Update{Type: UpdateMessage, Message: &msg})

		if err := s.publish(env); err != nil {
			s.logger.Warn().Err(err).Str("message_id", msg.ID).Msg("Failed to publish bot reply.")
		}
	}

	// Any assistant completion clears the flag once its reply is out, even with
	// another call still in flight.
	if res.cmd.Kind == bot.CommandAssistant && s.thinking {
		s.thinking = false
		s.emit(Update{Type: UpdateThinking, Thinking: false})
	}
}

func (s *Session) publish(env Envelope) error {
	payload, err := env.Encode()
	if err != nil {
		return err
	}
	return s.handle.Publish(payload)
}

// emit queues a frame for the client, dropping it when the queue is full.
func (s *Session) emit(u Update) {
	select {
	case s.updates <- u:
	default:
		s.logger.Warn().Str("update_type", string(u.Type)).Msg("Update queue full, dropping frame.")
	}
}

func (s *Session) presenceUpdate() Update {
	return Update{Type: UpdatePresence, Users: s.tracker.Online()}
}

// query runs fn on the actor. It reports false once the session is closed.
func (s *Session) query(fn func()) bool {
	ran := make(chan struct{})
	select {
	case s.queries <- func() { fn(); close(ran) }:
		<-ran
		return true
	case <-s.done:
		return false
	}
}

// Send publishes text as a message from the session user and starts any bot command it
// carries. The returned message is already in the local transcript.
func (s *Session) Send(ctx context.Context, text string) (Message, error) {
	req := sendRequest{text: text, result: make(chan sendResult, 1)}

	select {
	case s.sends <- req:
	case <-s.done:
		return Message{}, errs.NewError(errs.ErrSessionClosed)
	case <-ctx.Done():
		return Message{}, ctx.Err()
	}

	res := <-req.result
	return res.msg, res.err
}

// Topic returns the attached topic name.
func (s *Session) Topic() string {
	return s.topic
}

// Self returns the session user as last announced.
func (s *Session) Self() user.User {
	var u user.User
	s.query(func() { u = s.tracker.Self() })
	return u
}

// Online returns the presence set ordered by nickname; empty after Close.
func (s *Session) Online() []user.User {
	var users []user.User
	s.query(func() { users = s.tracker.Online() })
	return users
}

// Transcript returns the local transcript; empty after Close.
func (s *Session) Transcript() []Message {
	var msgs []Message
	s.query(func() { msgs = s.bus.Transcript() })
	return msgs
}

// Thinking reports whether an assistant call is in flight.
func (s *Session) Thinking() bool {
	var busy bool
	s.query(func() { busy = s.thinking })
	return busy
}

// Updates streams frames for the client. It is closed when the session ends.
func (s *Session) Updates() <-chan Update {
	return s.updates
}

func (s *Session) closed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// Done is closed once the session has fully detached.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Close stops both tickers, clears presence and transcript and detaches from the topic.
// It is idempotent and waits for the actor to finish.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.cancel()
		close(s.stop)
	})
	<-s.done
}

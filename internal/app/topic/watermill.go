package topic

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog"
)

// detachTimeout bounds how long Detach waits for the delivery goroutine to drain.
const detachTimeout = 5 * time.Second

// subscriberFactory returns the subscriber for a new handle and whether the handle owns it.
type subscriberFactory func() (sub message.Subscriber, owned bool, err error)

// pubSub is the Channel shared by every watermill backend.
type pubSub struct {
	publisher message.Publisher
	newSub    subscriberFactory

	// closeFn releases backend resources once on Close.
	closeFn func() error

	mu     sync.Mutex
	closed bool

	logger zerolog.Logger
}

// Attach implements Channel.
func (p *pubSub) Attach(ctx context.Context, name string) (Handle, error) {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}

	sub, owned, err := p.newSub()
	if err != nil {
		return nil, fmt.Errorf("create subscriber for %s: %w", name, err)
	}

	subCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	msgs, err := sub.Subscribe(subCtx, name)
	if err != nil {
		cancel()
		if owned {
			_ = sub.Close()
		}
		return nil, fmt.Errorf("subscribe to %s: %w", name, err)
	}

	h := &handle{
		topic:  name,
		pub:    p.publisher,
		msgs:   msgs,
		cancel: cancel,
		done:   make(chan struct{}),
		logger: p.logger.With().Str("topic", name).Logger(),
	}
	if owned {
		h.closeSub = sub.Close
	}

	h.logger.Debug().Msg("Attached to topic.")
	return h, nil
}

// Close implements Channel.
func (p *pubSub) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	if p.closeFn == nil {
		return nil
	}
	return p.closeFn()
}

// handle is one watermill subscription plus the shared publisher.
type handle struct {
	topic string
	pub   message.Publisher
	msgs  <-chan *message.Message

	cancel   context.CancelFunc
	closeSub func() error

	mu       sync.Mutex
	started  bool
	detached bool
	done     chan struct{}

	logger zerolog.Logger
}

func (h *handle) Topic() string { return h.topic }

func (h *handle) Publish(payload []byte) error {
	h.mu.Lock()
	detached := h.detached
	h.mu.Unlock()
	if detached {
		return ErrDetached
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := h.pub.Publish(h.topic, msg); err != nil {
		return fmt.Errorf("publish to %s: %w", h.topic, err)
	}
	return nil
}

func (h *handle) OnReceive(fn func(payload []byte)) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.started || h.detached || fn == nil {
		return
	}
	h.started = true

	go h.consume(fn)
}

// consume delivers payloads until the subscription channel closes.
// Every message is acked so the transport moves on to the next one.
func (h *handle) consume(fn func(payload []byte)) {
	defer close(h.done)

	for msg := range h.msgs {
		fn(msg.Payload)
		msg.Ack()
	}

	h.logger.Debug().Msg("Topic delivery loop finished.")
}

func (h *handle) Detach() error {
	h.mu.Lock()
	if h.detached {
		h.mu.Unlock()
		return nil
	}
	h.detached = true
	started := h.started
	h.mu.Unlock()

	h.cancel()

	var err error
	if h.closeSub != nil {
		err = h.closeSub()
	}

	if started {
		select {
		case <-h.done:
		case <-time.After(detachTimeout):
			h.logger.Warn().Dur("timeout", detachTimeout).Msg("Topic delivery loop did not stop in time.")
		}
	}

	h.logger.Debug().Msg("Detached from topic.")
	return err
}

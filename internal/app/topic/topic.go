/*
Package topic implements the named publish/subscribe medium shared by every participant of
one chat server.

All handles attached to the same topic name receive every payload published to it,
including the publisher's own. Delivery is at-most-once per attached handle, unordered
across publishers, and there is no replay for handles that attach after a publication.
*/
package topic

import (
	"context"
	"errors"
)

var (
	// ErrDetached is returned when publishing on a handle that has been detached.
	ErrDetached = errors.New("topic: handle detached")

	// ErrClosed is returned when attaching to a channel that has been closed.
	ErrClosed = errors.New("topic: channel closed")
)

// Channel attaches handles to named topics.
type Channel interface {
	// Attach subscribes to name. The subscription is live when Attach returns, so anything
	// published afterwards is delivered once a receiver is registered.
	Attach(ctx context.Context, name string) (Handle, error)

	// Close releases the transport. Attached handles stop receiving.
	Close() error
}

// Handle is one attachment to a topic.
type Handle interface {
	// Topic returns the attached topic name.
	Topic() string

	// Publish sends payload to every handle attached to the topic, this one included.
	Publish(payload []byte) error

	// OnReceive registers fn as the receiver and starts delivery.
	// Payloads published between Attach and OnReceive are buffered by the transport.
	// fn runs on the handle's delivery goroutine; only the first registration counts.
	// A handle without a receiver may stall delivery to others, so register right after Attach.
	OnReceive(fn func(payload []byte))

	// Detach cancels the subscription. It is idempotent.
	Detach() error
}

// Name derives the topic for a chat server from the deployment-wide base name.
func Name(base, serverID string) string {
	return base + "_" + serverID
}

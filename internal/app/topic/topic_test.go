package topic

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// collector records every payload a handle receives.
type collector struct {
	mu       sync.Mutex
	payloads []string
}

func (c *collector) receive(p []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.payloads = append(c.payloads, string(p))
}

func (c *collector) snapshot() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.payloads...)
}

func attach(t *testing.T, ch Channel, name string) (Handle, *collector) {
	t.Helper()
	h, err := ch.Attach(context.Background(), name)
	require.NoError(t, err)
	c := &collector{}
	h.OnReceive(c.receive)
	t.Cleanup(func() { _ = h.Detach() })
	return h, c
}

func TestName(t *testing.T) {
	assert.Equal(t, "room_srv-1", Name("room", "srv-1"))
}

func TestMemory_FanOutIncludesSender(t *testing.T) {
	ch := NewMemory(zerolog.Nop())
	defer ch.Close()

	a, fromA := attach(t, ch, "room_srv-1")
	_, fromB := attach(t, ch, "room_srv-1")

	require.NoError(t, a.Publish([]byte("hello")))

	require.Eventually(t, func() bool {
		return len(fromA.snapshot()) == 1 && len(fromB.snapshot()) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"hello"}, fromA.snapshot(), "sender receives its own publication")
	assert.Equal(t, []string{"hello"}, fromB.snapshot())
}

func TestMemory_TopicsAreIsolated(t *testing.T) {
	ch := NewMemory(zerolog.Nop())
	defer ch.Close()

	a, _ := attach(t, ch, Name("room", "srv-1"))
	_, other := attach(t, ch, Name("room", "srv-2"))

	require.NoError(t, a.Publish([]byte("only srv-1")))

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, other.snapshot())
}

func TestMemory_NoReplayForLateAttach(t *testing.T) {
	ch := NewMemory(zerolog.Nop())
	defer ch.Close()

	a, fromA := attach(t, ch, "room_srv-1")
	require.NoError(t, a.Publish([]byte("early")))
	require.Eventually(t, func() bool { return len(fromA.snapshot()) == 1 }, time.Second, 5*time.Millisecond)

	_, late := attach(t, ch, "room_srv-1")
	require.NoError(t, a.Publish([]byte("later")))

	require.Eventually(t, func() bool { return len(late.snapshot()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"later"}, late.snapshot())
}

func TestMemory_BuffersUntilReceiverRegistered(t *testing.T) {
	ch := NewMemory(zerolog.Nop())
	defer ch.Close()

	pub, _ := attach(t, ch, "room_srv-1")

	h, err := ch.Attach(context.Background(), "room_srv-1")
	require.NoError(t, err)
	defer h.Detach()

	require.NoError(t, pub.Publish([]byte("queued")))

	c := &collector{}
	h.OnReceive(c.receive)
	require.Eventually(t, func() bool { return len(c.snapshot()) == 1 }, time.Second, 5*time.Millisecond)
}

func TestMemory_Detach(t *testing.T) {
	ch := NewMemory(zerolog.Nop())
	defer ch.Close()

	a, _ := attach(t, ch, "room_srv-1")
	b, fromB := attach(t, ch, "room_srv-1")

	require.NoError(t, b.Detach())
	require.NoError(t, b.Detach(), "detach is idempotent")
	assert.ErrorIs(t, b.Publish([]byte("x")), ErrDetached)

	require.NoError(t, a.Publish([]byte("after detach")))
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, fromB.snapshot())
}

func TestMemory_AttachAfterClose(t *testing.T) {
	ch := NewMemory(zerolog.Nop())
	require.NoError(t, ch.Close())
	require.NoError(t, ch.Close())

	_, err := ch.Attach(context.Background(), "room_srv-1")
	assert.ErrorIs(t, err, ErrClosed)
}

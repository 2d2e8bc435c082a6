package presence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hzroom/internal/app/user"
)

// fakeClock is a manually advanced time source.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestTracker() (*Tracker, *fakeClock) {
	clock := &fakeClock{t: time.UnixMilli(1_700_000_000_000)}
	self := user.User{ID: "self", Nickname: "Me"}
	return NewTracker(self, DefaultTTL, clock.Now), clock
}

func TestTracker_AttachInsertsSelf(t *testing.T) {
	tr, clock := newTestTracker()

	announced := tr.Attach()
	assert.Equal(t, "self", announced.ID)
	assert.True(t, announced.IsOnline)
	assert.Equal(t, clock.Now(), announced.LastSeenTime())
	assert.True(t, tr.Contains("self"))
	assert.Equal(t, 1, tr.Len())
}

func TestTracker_ObserveInsertsWithReceiptTime(t *testing.T) {
	tr, clock := newTestTracker()
	tr.Attach()

	senderClock := clock.Now().Add(-time.Hour)
	isNew := tr.Observe(user.User{ID: "u1", Nickname: "Ann", LastSeen: senderClock.UnixMilli()})
	require.True(t, isNew)

	got, ok := tr.Get("u1")
	require.True(t, ok)
	assert.True(t, got.IsOnline)
	assert.Equal(t, clock.Now(), got.LastSeenTime(), "lastSeen is the local receipt time, not the sender's")
}

func TestTracker_HeartbeatRefreshesWithoutDuplicate(t *testing.T) {
	tr, clock := newTestTracker()
	tr.Attach()

	tr.Observe(user.User{ID: "u1", Nickname: "Ann"})
	clock.Advance(1500 * time.Millisecond)

	isNew := tr.Observe(user.User{ID: "u1", Nickname: "Ann", Avatar: "ann.png"})
	assert.False(t, isNew)
	assert.Equal(t, 2, tr.Len(), "self plus one peer")

	got, _ := tr.Get("u1")
	assert.Equal(t, clock.Now(), got.LastSeenTime())
	assert.Equal(t, "ann.png", got.Avatar, "fields come from the freshest copy")
}

func TestTracker_SweepEvictsStalePeers(t *testing.T) {
	tr, clock := newTestTracker()
	tr.Attach()

	tr.Observe(user.User{ID: "u1", Nickname: "Ann"})
	clock.Advance(2 * time.Second)
	tr.Observe(user.User{ID: "u2", Nickname: "Bob"})

	clock.Advance(999 * time.Millisecond)
	assert.Empty(t, tr.Sweep(), "u1 is 2.999s old, below the TTL")

	clock.Advance(time.Millisecond)
	evicted := tr.Sweep()
	require.Len(t, evicted, 1, "u1 reaches the TTL exactly")
	assert.Equal(t, "u1", evicted[0].ID)
	assert.False(t, evicted[0].IsOnline)
	assert.False(t, tr.Contains("u1"))
	assert.True(t, tr.Contains("u2"))
}

func TestTracker_SelfNeverEvicted(t *testing.T) {
	tr, clock := newTestTracker()
	tr.Attach()

	clock.Advance(time.Hour)
	assert.Empty(t, tr.Sweep())
	assert.True(t, tr.Contains("self"))
}

func TestTracker_EvictedPeerRejoinsFresh(t *testing.T) {
	tr, clock := newTestTracker()
	tr.Attach()

	tr.Observe(user.User{ID: "u1", Nickname: "Ann"})
	clock.Advance(DefaultTTL)
	require.Len(t, tr.Sweep(), 1)

	assert.True(t, tr.Observe(user.User{ID: "u1", Nickname: "Ann"}), "re-announcement is a fresh join")
	assert.True(t, tr.Contains("u1"))
}

func TestTracker_SelfEchoKeepsIdentity(t *testing.T) {
	tr, clock := newTestTracker()
	tr.Attach()
	clock.Advance(500 * time.Millisecond)

	assert.False(t, tr.Observe(user.User{ID: "self", Nickname: "Spoofed"}))
	got, _ := tr.Get("self")
	assert.Equal(t, "Me", got.Nickname)
	assert.Equal(t, clock.Now(), got.LastSeenTime())
}

func TestTracker_OnlineSortedAndClear(t *testing.T) {
	tr, _ := newTestTracker()
	tr.Attach()
	tr.Observe(user.User{ID: "u2", Nickname: "Zed"})
	tr.Observe(user.User{ID: "u1", Nickname: "Ann"})

	var names []string
	for _, u := range tr.Online() {
		names = append(names, u.Nickname)
	}
	assert.Equal(t, []string{"Ann", "Me", "Zed"}, names)

	tr.Clear()
	assert.Zero(t, tr.Len())
}

func TestTracker_IgnoresAnonymous(t *testing.T) {
	tr, _ := newTestTracker()
	assert.False(t, tr.Observe(user.User{Nickname: "ghost"}))
	assert.Zero(t, tr.Len())
}

// With the default periods a silent peer is gone at the first cleanup tick at or after
// the TTL, which is between 3s and 5s after its last heartbeat.
func TestTracker_DefaultEvictionBound(t *testing.T) {
	tcases := []struct {
		name      string
		offset    time.Duration
		wantDelay time.Duration
	}{
		{name: "heartbeat on a tick", offset: 0, wantDelay: 4 * time.Second},
		{name: "heartbeat 1ms before the aligned phase", offset: 999 * time.Millisecond, wantDelay: 3001 * time.Millisecond},
		{name: "heartbeat one second before a tick", offset: time.Second, wantDelay: 3 * time.Second},
		{name: "heartbeat 1ms after the aligned phase", offset: 1001 * time.Millisecond, wantDelay: 4999 * time.Millisecond},
		{name: "heartbeat just before a tick", offset: 1999 * time.Millisecond, wantDelay: 4001 * time.Millisecond},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			tr, clock := newTestTracker()
			start := clock.Now()
			tr.Attach()

			clock.Advance(tc.offset)
			heard := clock.Now()
			tr.Observe(user.User{ID: "u1", Nickname: "Ann"})

			var evictedAt time.Time
			for tick := 1; tick <= 5 && evictedAt.IsZero(); tick++ {
				clock.t = start.Add(time.Duration(tick) * DefaultCleanupPeriod)
				if len(tr.Sweep()) > 0 {
					evictedAt = clock.Now()
				}
			}
			require.False(t, evictedAt.IsZero(), "peer was never evicted")

			delay := evictedAt.Sub(heard)
			assert.Equal(t, tc.wantDelay, delay)
			assert.GreaterOrEqual(t, delay, DefaultTTL)
			assert.Less(t, delay, DefaultTTL+DefaultCleanupPeriod)
			assert.True(t, tr.Contains("self"), "self survives every sweep")
		})
	}
}

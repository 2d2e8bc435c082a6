/*
Package presence keeps one session's view of who is online on its topic.

The tracker is plain state driven by its owner: the owner calls Observe for every
USER_JOIN or HEARTBEAT it receives, Beat on every heartbeat tick and Sweep on every
cleanup tick. Peers that have not announced for at least the TTL are evicted; the local
user is never evicted. The view is best-effort and eventually consistent.
*/
package presence

import (
	"sort"
	"time"

	"hzroom/internal/app/user"
)

const (
	// DefaultHeartbeatPeriod is how often a session announces itself.
	DefaultHeartbeatPeriod = time.Second

	// DefaultCleanupPeriod is how often stale peers are swept.
	DefaultCleanupPeriod = 2 * time.Second

	// DefaultTTL is how long a peer may stay silent before eviction.
	DefaultTTL = 3 * time.Second
)

// Tracker holds the presence set of one attached session.
// It is not safe for concurrent use; the session actor owns it.
type Tracker struct {
	self  user.User
	ttl   time.Duration
	now   func() time.Time
	peers map[string]user.User
}

// NewTracker creates an empty tracker for self. now defaults to time.Now.
func NewTracker(self user.User, ttl time.Duration, now func() time.Time) *Tracker {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if now == nil {
		now = time.Now
	}

	return &Tracker{
		self:  self,
		ttl:   ttl,
		now:   now,
		peers: make(map[string]user.User),
	}
}

// Self returns the local user as last stamped.
func (t *Tracker) Self() user.User {
	return t.self
}

// Attach inserts the local user and returns the copy to announce in USER_JOIN.
func (t *Tracker) Attach() user.User {
	t.self = t.self.Seen(t.now())
	t.peers[t.self.ID] = t.self
	return t.self
}

// Beat refreshes the local user and returns the copy to announce in HEARTBEAT.
func (t *Tracker) Beat() user.User {
	t.self = t.self.Seen(t.now())
	t.peers[t.self.ID] = t.self
	return t.self
}

// Observe records an announcement for u and reports whether u was not in the set.
// The received copy replaces whatever was stored, and LastSeen is overwritten with the
// local receipt time rather than the sender's clock.
func (t *Tracker) Observe(u user.User) bool {
	if u.ID == "" {
		return false
	}

	_, known := t.peers[u.ID]

	if u.ID == t.self.ID {
		// Echo of our own announcement: identity stays ours.
		t.self = t.self.Seen(t.now())
		t.peers[u.ID] = t.self
		return false
	}

	t.peers[u.ID] = u.Seen(t.now())
	return !known
}

// Sweep evicts every peer other than self whose last announcement is at least TTL old.
// It returns the evicted users.
func (t *Tracker) Sweep() []user.User {
	now := t.now()

	var evicted []user.User
	for id, peer := range t.peers {
		if id == t.self.ID {
			continue
		}
		if now.Sub(peer.LastSeenTime()) >= t.ttl {
			delete(t.peers, id)
			peer.IsOnline = false
			evicted = append(evicted, peer)
		}
	}

	sortByNickname(evicted)
	return evicted
}

// Online returns the presence set ordered by nickname.
func (t *Tracker) Online() []user.User {
	users := make([]user.User, 0, len(t.peers))
	for _, u := range t.peers {
		users = append(users, u)
	}
	sortByNickname(users)
	return users
}

// Get returns the stored copy of id.
func (t *Tracker) Get(id string) (user.User, bool) {
	u, ok := t.peers[id]
	return u, ok
}

// Contains reports whether id is in the presence set.
func (t *Tracker) Contains(id string) bool {
	_, ok := t.peers[id]
	return ok
}

// Len returns the size of the presence set.
func (t *Tracker) Len() int {
	return len(t.peers)
}

// Clear empties the presence set, self included. Used on detach.
func (t *Tracker) Clear() {
	clear(t.peers)
}

func sortByNickname(users []user.User) {
	sort.Slice(users, func(i, j int) bool {
		if users[i].Nickname != users[j].Nickname {
			return users[i].Nickname < users[j].Nickname
		}
		return users[i].ID < users[j].ID
	})
}

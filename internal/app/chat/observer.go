package chat

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"hzroom/internal/app/topic"
	"hzroom/internal/pkg/randx"
)

// Observe lists the nicknames announced on topicName without joining it.
//
// It attaches, publishes REQUEST_USERS and collects the users of every USER_JOIN and
// HEARTBEAT received during window, then detaches. Attached sessions do not answer the
// request explicitly, so window should cover at least one heartbeat period.
func Observe(ctx context.Context, ch topic.Channel, topicName string, window time.Duration, logger zerolog.Logger) ([]string, error) {
	handle, err := ch.Attach(ctx, topicName)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := handle.Detach(); err != nil {
			logger.Warn().Err(err).Str("topic", topicName).Msg("Observer detach returned an error.")
		}
	}()

	var (
		mu    sync.Mutex
		names = make(map[string]struct{})
	)

	handle.OnReceive(func(payload []byte) {
		env, err := DecodeEnvelope(payload)
		if err != nil {
			return
		}
		if env.Type != TypeUserJoin && env.Type != TypeHeartbeat {
			return
		}

		mu.Lock()
		names[env.User.Nickname] = struct{}{}
		mu.Unlock()
	})

	requesterID, err := randx.SessionID()
	if err != nil {
		return nil, err
	}

	payload, err := RequestUsers(requesterID).Encode()
	if err != nil {
		return nil, err
	}
	if err := handle.Publish(payload); err != nil {
		return nil, err
	}

	timer := time.NewTimer(window)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	mu.Lock()
	defer mu.Unlock()

	out := make([]string, 0, len(names))
	for name := range names {
		out = append(out, name)
	}
	sort.Strings(out)

	logger.Debug().Str("topic", topicName).Int("count", len(out)).Msg("Observed online nicknames.")
	return out, nil
}

package topic

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	rstream "github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"hzroom/internal/pkg/logx"
)

// NewRedis returns a Channel backed by Redis Streams so several server processes on the
// same host can share topics. Each handle reads in fan-out mode (no consumer group) from
// the stream tail, which keeps the no-replay contract of the in-process backend.
func NewRedis(ctx context.Context, addr string, logger zerolog.Logger) (Channel, error) {
	logger = logger.With().Str("topic_backend", "redis").Str("redis_addr", addr).Logger()

	client := redis.NewClient(&redis.Options{Addr: addr})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", addr, err)
	}

	marshaler := rstream.DefaultMarshallerUnmarshaller{}
	wmLogger := logx.Watermill(logger)

	publisher, err := rstream.NewPublisher(rstream.PublisherConfig{
		Client:     client,
		Marshaller: marshaler,
	}, wmLogger)
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("create redis publisher: %w", err)
	}

	return &pubSub{
		publisher: publisher,
		newSub: func() (message.Subscriber, bool, error) {
			sub, err := rstream.NewSubscriber(rstream.SubscriberConfig{
				Client:       client,
				Unmarshaller: marshaler,
				OldestId:     "$",
			}, wmLogger)
			if err != nil {
				return nil, false, err
			}
			return sub, true, nil
		},
		closeFn: func() error {
			return errors.Join(publisher.Close(), client.Close())
		},
		logger: logger,
	}, nil
}

package topic

import (
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/rs/zerolog"

	"hzroom/internal/pkg/logx"
)

// memoryOutputBuffer is the per-handle delivery buffer of the in-process backend.
const memoryOutputBuffer = 256

// NewMemory returns an in-process Channel backed by a watermill GoChannel.
// It is not persistent and publish never waits for subscribers, so late attachers see
// nothing published before them.
func NewMemory(logger zerolog.Logger) Channel {
	logger = logger.With().Str("topic_backend", "memory").Logger()

	goChannel := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer:            memoryOutputBuffer,
		Persistent:                     false,
		BlockPublishUntilSubscriberAck: false,
	}, logx.Watermill(logger))

	return &pubSub{
		publisher: goChannel,
		newSub: func() (message.Subscriber, bool, error) {
			return goChannel, false, nil
		},
		closeFn: goChannel.Close,
		logger:  logger,
	}
}

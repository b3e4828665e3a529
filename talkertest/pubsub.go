package talkertest

import (
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
)

// NewGoChannel returns an in-memory pub/sub closed at test cleanup. Publishing blocks
// until every subscriber acked, which keeps per-topic delivery in publish order.
func NewGoChannel(t testing.TB) *gochannel.GoChannel {
	t.Helper()

	pubSub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer:            0,
		Persistent:                     false,
		BlockPublishUntilSubscriberAck: true,
	}, watermill.NopLogger{})
	t.Cleanup(func() {
		err := pubSub.Close()
		assert.NoError(t, err)
	})

	return pubSub
}

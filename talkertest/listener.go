package talkertest

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/flux-agi/talker_go/talker"
)

// Listener plays a remote subscriber of the chatter and tf topics.
type Listener struct {
	sub    message.Subscriber
	topics *talker.ServiceTopics

	chatter    chan talker.ChatterMessage
	transforms chan talker.TransformSnapshot
}

func NewListener(sub message.Subscriber, topics *talker.ServiceTopics) *Listener {
	return &Listener{
		sub:        sub,
		topics:     topics,
		chatter:    make(chan talker.ChatterMessage, 1024),
		transforms: make(chan talker.TransformSnapshot, 1024),
	}
}

// Run subscribes to both topics and decodes incoming messages.
//
// It returns stop function. Stop should be called before closing pub/sub.
func (l *Listener) Run(ctx context.Context) (func(), error) {
	ctx, cancel := context.WithCancel(ctx)

	if err := listen(ctx, l.sub, l.topics.Chatter(), l.chatter); err != nil {
		cancel()
		return nil, err
	}

	if err := listen(ctx, l.sub, l.topics.Transform(), l.transforms); err != nil {
		cancel()
		return nil, err
	}

	return cancel, nil
}

func (l *Listener) Chatter() <-chan talker.ChatterMessage { return l.chatter }

func (l *Listener) Transforms() <-chan talker.TransformSnapshot { return l.transforms }

func listen[T any](ctx context.Context, sub message.Subscriber, topic string, out chan<- T) error {
	messages, err := sub.Subscribe(ctx, topic)
	if err != nil {
		return fmt.Errorf("could not subscribe to %s: %w", topic, err)
	}

	go func() {
		for msg := range messages {
			var value T
			if err := json.Unmarshal(msg.Payload, &value); err != nil {
				panic(fmt.Errorf("failed to unmarshal %s message: %w", topic, err))
			}

			select {
			case out <- value:
				msg.Ack()
			case <-ctx.Done():
				msg.Nack()
				return
			}
		}
	}()

	return nil
}

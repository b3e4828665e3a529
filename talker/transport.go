package talker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

const (
	NodeIDMetadataKey  = "node_id"
	FrameIDMetadataKey = "frame_id"
)

// PubSubTransport publishes emissions as JSON messages on a watermill publisher.
type PubSubTransport struct {
	pub    message.Publisher
	topics *ServiceTopics
	nodeID string
}

func NewPubSubTransport(pub message.Publisher, topics *ServiceTopics, nodeID string) *PubSubTransport {
	return &PubSubTransport{
		pub:    pub,
		topics: topics,
		nodeID: nodeID,
	}
}

func (t *PubSubTransport) Publish(ctx context.Context, record StatusRecord) error {
	return t.publish(ctx, t.topics.Chatter(), NewChatterMessage(record), nil)
}

func (t *PubSubTransport) BroadcastTransform(ctx context.Context, snapshot TransformSnapshot) error {
	return t.publish(ctx, t.topics.Transform(), snapshot, message.Metadata{
		FrameIDMetadataKey: snapshot.ParentFrame,
	})
}

func (t *PubSubTransport) publish(ctx context.Context, topic string, value any, metadata message.Metadata) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("could not marshal payload: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), data)
	msg.SetContext(ctx)
	msg.Metadata.Set(NodeIDMetadataKey, t.nodeID)
	for key, v := range metadata {
		msg.Metadata.Set(key, v)
	}

	if err := t.pub.Publish(topic, msg); err != nil {
		return fmt.Errorf("could not publish to %s: %w", topic, err)
	}

	return nil
}

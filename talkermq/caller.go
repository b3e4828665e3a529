package talkermq

import (
	"context"
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/nats-io/nats.go"

	wants "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
)

var (
	// ErrRemote wraps failures reported by the responder.
	ErrRemote = errors.New("talkermq: remote handler failed")
	// ErrNoReply is returned when the reply stream ends before a response arrives.
	ErrNoReply = errors.New("talkermq: reply subscription closed")
)

type Caller interface {
	Call(ctx context.Context, topic string, message *message.Message) (*message.Message, error)
	Close() error
}

type NatsCallerConfig struct {
	URL         string
	NatsOptions []nats.Option
	Marshaler   wants.Marshaler
	Unmarshaler wants.Unmarshaler
	Logger      watermill.LoggerAdapter
}

type NatsCaller struct {
	conn        *nats.Conn
	marshaler   wants.Marshaler
	unmarshaler wants.Unmarshaler
	logger      watermill.LoggerAdapter
}

func NewNatsCaller(
	cfg *NatsCallerConfig,
) (*NatsCaller, error) {
	if cfg == nil {
		cfg = new(NatsCallerConfig)
	}

	if cfg.URL == "" {
		cfg.URL = nats.DefaultURL
	}

	if cfg.Logger == nil {
		cfg.Logger = watermill.NopLogger{}
	}

	conn, err := nats.Connect(cfg.URL, cfg.NatsOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}

	marshaller := new(wants.NATSMarshaler)

	if cfg.Marshaler == nil {
		cfg.Marshaler = marshaller
	}

	if cfg.Unmarshaler == nil {
		cfg.Unmarshaler = marshaller
	}

	return &NatsCaller{
		conn:        conn,
		marshaler:   cfg.Marshaler,
		unmarshaler: cfg.Unmarshaler,
		logger: cfg.Logger.With(watermill.LogFields{
			"url":       cfg.URL,
			"component": "talkermq.nats_caller",
		}),
	}, nil
}

func (nc *NatsCaller) Call(ctx context.Context, topic string, request *message.Message) (*message.Message, error) {
	natsRequest, err := nc.marshaler.Marshal(topic, request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal nats message: %w", err)
	}

	nc.logger.Trace("Sending request", watermill.LogFields{"topic": topic, "uuid": request.UUID})

	natsResponse, err := nc.conn.RequestMsgWithContext(ctx, natsRequest)
	if err != nil {
		return nil, fmt.Errorf("failed to send nats message: %w", err)
	}

	response, err := nc.unmarshaler.Unmarshal(natsResponse)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal nats message: %w", err)
	}

	if err := responseError(response); err != nil {
		return nil, err
	}

	return response, nil
}

func (nc *NatsCaller) Close() error {
	nc.conn.Close()

	return nil
}

// PubSubCaller performs request/reply on top of plain watermill pub/sub.
//
// Every call subscribes to a private reply topic, announces it in the request metadata and
// waits for the response carrying the request UUID as correlation id.
type PubSubCaller struct {
	pub message.Publisher
	sub message.Subscriber
}

func NewPubSubCaller(pub message.Publisher, sub message.Subscriber) *PubSubCaller {
	return &PubSubCaller{pub: pub, sub: sub}
}

func (c *PubSubCaller) Call(ctx context.Context, topic string, request *message.Message) (*message.Message, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	replyTopic := ReplyTopic(topic, request.UUID)

	replies, err := c.sub.Subscribe(ctx, replyTopic)
	if err != nil {
		return nil, fmt.Errorf("could not subscribe to reply topic: %w", err)
	}

	request.Metadata.Set(ReplyToMetadataKey, replyTopic)

	if err := c.pub.Publish(topic, request); err != nil {
		return nil, fmt.Errorf("could not publish request: %w", err)
	}

	for {
		select {
		case msg, ok := <-replies:
			if !ok {
				return nil, ErrNoReply
			}

			msg.Ack()

			if msg.Metadata.Get(CorrelationIDMetadataKey) != request.UUID {
				continue
			}

			if err := responseError(msg); err != nil {
				return nil, err
			}

			return msg, nil
		case <-ctx.Done():
			return nil, fmt.Errorf("context is canceled before the reply is received: %w", ctx.Err())
		}
	}
}

// Close is a no-op: the publisher and subscriber belong to the caller's owner.
func (c *PubSubCaller) Close() error {
	return nil
}

// ReplyTopic is the topic a PubSubCaller listens on for the response to requestID.
func ReplyTopic(topic, requestID string) string {
	return fmt.Sprintf("%s.reply.%s", topic, requestID)
}

func responseError(msg *message.Message) error {
	if reason := msg.Metadata.Get(ErrorMetadataKey); reason != "" {
		return fmt.Errorf("%w: %s", ErrRemote, reason)
	}

	return nil
}

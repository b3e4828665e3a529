package talkermq

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/nats-io/nats.go"

	wants "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
)

const (
	ReplyToMetadataKey       = "reply_to"
	CorrelationIDMetadataKey = "correlation_id"
	ErrorMetadataKey         = "error"
)

// HandlerFunc serves one request. A returned error is sent back to the caller in the
// ErrorMetadataKey metadata.
type HandlerFunc func(ctx context.Context, request *message.Message) (*message.Message, error)

// Responder delivers requests arriving on a topic to a handler, one at a time per topic,
// and sends the handler's response back to the caller.
type Responder interface {
	Respond(ctx context.Context, topic string, handler HandlerFunc) error
	Close() error
}

type NatsResponderConfig struct {
	URL string
	// NatsOptions are passed to nats.Connect. A ClosedHandler among them is replaced.
	NatsOptions []nats.Option
	Marshaler   wants.Marshaler
	Unmarshaler wants.Unmarshaler
	Logger      watermill.LoggerAdapter
}

// NatsResponder answers NATS requests on the request's reply subject.
type NatsResponder struct {
	conn        *nats.Conn
	marshaler   wants.Marshaler
	unmarshaler wants.Unmarshaler
	logger      watermill.LoggerAdapter

	// closed is closed by the connection's ClosedHandler.
	closed chan struct{}
}

func NewNatsResponder(cfg *NatsResponderConfig) (*NatsResponder, error) {
	if cfg == nil {
		cfg = new(NatsResponderConfig)
	}

	if cfg.URL == "" {
		cfg.URL = nats.DefaultURL
	}

	if cfg.Logger == nil {
		cfg.Logger = watermill.NopLogger{}
	}

	closed := make(chan struct{})
	options := append(append([]nats.Option(nil), cfg.NatsOptions...), nats.ClosedHandler(func(*nats.Conn) {
		close(closed)
	}))

	conn, err := nats.Connect(cfg.URL, options...)
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

	return &NatsResponder{
		closed:      closed,
		conn:        conn,
		marshaler:   cfg.Marshaler,
		unmarshaler: cfg.Unmarshaler,
		logger: cfg.Logger.With(watermill.LogFields{
			"url":       cfg.URL,
			"component": "talkermq.nats_responder",
		}),
	}, nil
}

// Respond subscribes handler to topic until ctx is canceled. nats.go invokes the callback
// of a single subscription sequentially.
func (nr *NatsResponder) Respond(ctx context.Context, topic string, handler HandlerFunc) error {
	sub, err := nr.conn.Subscribe(topic, func(natsMsg *nats.Msg) {
		nr.serve(ctx, natsMsg, handler)
	})
	if err != nil {
		return fmt.Errorf("could not subscribe to %s: %w", topic, err)
	}

	// Requests sent after Respond returns must find the subscription on the server.
	if err := nr.conn.Flush(); err != nil {
		_ = sub.Unsubscribe()
		return fmt.Errorf("could not flush subscription to %s: %w", topic, err)
	}

	context.AfterFunc(ctx, func() {
		if nr.conn.IsClosed() || nr.conn.IsDraining() {
			return
		}

		if err := sub.Unsubscribe(); err != nil {
			nr.logger.Error("Could not unsubscribe responder", err, watermill.LogFields{"topic": topic})
		}
	})

	return nil
}

func (nr *NatsResponder) serve(ctx context.Context, natsMsg *nats.Msg, handler HandlerFunc) {
	var response *message.Message

	request, err := nr.unmarshaler.Unmarshal(natsMsg)
	if err != nil {
		response = errorReply("", fmt.Errorf("failed to unmarshal nats message: %w", err))
	} else {
		response = reply(ctx, request, handler)
	}

	if natsMsg.Reply == "" {
		nr.logger.Debug("Request has no reply subject, dropping response", watermill.LogFields{
			"topic": natsMsg.Subject,
		})
		return
	}

	out, err := nr.marshaler.Marshal(natsMsg.Reply, response)
	if err != nil {
		nr.logger.Error("Could not marshal response", err, watermill.LogFields{"topic": natsMsg.Subject})
		return
	}

	if err := nr.conn.PublishMsg(out); err != nil {
		nr.logger.Error("Could not publish response", err, watermill.LogFields{"topic": natsMsg.Subject})
	}
}

// Close drains the subscriptions and returns once the connection is closed, so every
// request already delivered has been answered. Drain is bounded by nats.DrainTimeout.
func (nr *NatsResponder) Close() error {
	if nr.conn.IsClosed() {
		return nil
	}

	if err := nr.conn.Drain(); err != nil {
		nr.conn.Close()
		return fmt.Errorf("failed to drain nats connection: %w", err)
	}

	<-nr.closed

	return nil
}

// PubSubResponder serves requests published by PubSubCaller on any watermill pub/sub.
type PubSubResponder struct {
	pub    message.Publisher
	sub    message.Subscriber
	logger watermill.LoggerAdapter
}

func NewPubSubResponder(pub message.Publisher, sub message.Subscriber, logger watermill.LoggerAdapter) *PubSubResponder {
	if logger == nil {
		logger = watermill.NopLogger{}
	}

	return &PubSubResponder{
		pub: pub,
		sub: sub,
		logger: logger.With(watermill.LogFields{
			"component": "talkermq.pubsub_responder",
		}),
	}
}

// Respond consumes topic on a single goroutine until ctx is canceled or the subscriber closes.
func (r *PubSubResponder) Respond(ctx context.Context, topic string, handler HandlerFunc) error {
	messages, err := r.sub.Subscribe(ctx, topic)
	if err != nil {
		return fmt.Errorf("could not subscribe to %s: %w", topic, err)
	}

	go func() {
		for msg := range messages {
			r.serve(ctx, topic, msg, handler)
		}
	}()

	return nil
}

func (r *PubSubResponder) serve(ctx context.Context, topic string, msg *message.Message, handler HandlerFunc) {
	response := reply(ctx, msg, handler)

	// Acked before replying: a publisher that blocks until ack would otherwise wait on its
	// own reply. Requests are never nacked, a redelivery would run the handler twice.
	msg.Ack()

	replyTo := msg.Metadata.Get(ReplyToMetadataKey)
	if replyTo == "" {
		r.logger.Debug("Request has no reply topic, dropping response", watermill.LogFields{
			"topic": topic,
			"uuid":  msg.UUID,
		})
		return
	}

	if err := r.pub.Publish(replyTo, response); err != nil {
		r.logger.Error("Could not publish response", err, watermill.LogFields{
			"topic":    topic,
			"reply_to": replyTo,
		})
	}
}

// Close is a no-op: the publisher and subscriber belong to the responder's owner.
func (r *PubSubResponder) Close() error {
	return nil
}

func reply(ctx context.Context, request *message.Message, handler HandlerFunc) *message.Message {
	response, err := handler(ctx, request)
	if err != nil {
		return errorReply(request.UUID, err)
	}

	if response == nil {
		response = message.NewMessage(watermill.NewUUID(), nil)
	}

	response.Metadata.Set(CorrelationIDMetadataKey, request.UUID)

	return response
}

func errorReply(requestID string, err error) *message.Message {
	response := message.NewMessage(watermill.NewUUID(), nil)
	response.Metadata.Set(CorrelationIDMetadataKey, requestID)
	response.Metadata.Set(ErrorMetadataKey, err.Error())

	return response
}

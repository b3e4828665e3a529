package talker

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/nats-io/nats.go"

	wmnats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"

	"github.com/flux-agi/talker_go/talkermq"
)

// natsOptions names each connection after its role so the broker's connz output shows which
// talker socket is which. Reconnects are unbounded: the talker keeps emitting through outages.
func natsOptions(role string) []nats.Option {
	return []nats.Option{
		nats.Name("talker." + role),
		nats.MaxReconnects(-1),
	}
}

// Chatter and tf are fire-and-forget, so every factory runs on core NATS without JetStream.
var coreNats = wmnats.JetStreamConfig{Disabled: true}

func DefaultPublisherFactory(url string) PublisherFactory {
	return func(logger watermill.LoggerAdapter) (message.Publisher, error) {
		pub, err := wmnats.NewPublisher(wmnats.PublisherConfig{
			URL:         url,
			NatsOptions: natsOptions("publisher"),
			JetStream:   coreNats,
		}, logger.With(watermill.LogFields{"url": url, "component": "talker.publisher"}))
		if err != nil {
			return nil, fmt.Errorf("failed to create nats publisher: %w", err)
		}

		return pub, nil
	}
}

func DefaultSubscriberFactory(url string) SubscriberFactory {
	return func(logger watermill.LoggerAdapter) (message.Subscriber, error) {
		sub, err := wmnats.NewSubscriber(wmnats.SubscriberConfig{
			URL:         url,
			NatsOptions: natsOptions("subscriber"),
			JetStream:   coreNats,
		}, logger.With(watermill.LogFields{"url": url, "component": "talker.subscriber"}))
		if err != nil {
			return nil, fmt.Errorf("failed to create nats subscriber: %w", err)
		}

		return sub, nil
	}
}

func DefaultResponderFactory(url string) ResponderFactory {
	return func(logger watermill.LoggerAdapter) (talkermq.Responder, error) {
		responder, err := talkermq.NewNatsResponder(&talkermq.NatsResponderConfig{
			URL:         url,
			NatsOptions: natsOptions("responder"),
			Logger:      logger,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create nats responder: %w", err)
		}

		return responder, nil
	}
}

func DefaultRouterFactory(logger watermill.LoggerAdapter) (*message.Router, error) {
	router, err := message.NewRouter(
		message.RouterConfig{},
		logger.With(watermill.LogFields{"component": "talker.router"}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create router: %w", err)
	}

	return router, nil
}

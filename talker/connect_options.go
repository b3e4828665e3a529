package talker

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/flux-agi/talker_go/talkermq"
)

type ConnectOptions struct {
	watermillLogger  watermill.LoggerAdapter
	pubFactory       PublisherFactory
	subFactory       SubscriberFactory
	responderFactory ResponderFactory
	routerFactory    RouterFactory
}

type ConnectOption func(*ConnectOptions)

type (
	PublisherFactory  = func(watermill.LoggerAdapter) (message.Publisher, error)
	SubscriberFactory = func(watermill.LoggerAdapter) (message.Subscriber, error)
	ResponderFactory  = func(watermill.LoggerAdapter) (talkermq.Responder, error)
	RouterFactory     = func(watermill.LoggerAdapter) (*message.Router, error)
)

// WithNatsURL points every default factory at url.
func WithNatsURL(url string) ConnectOption {
	return func(o *ConnectOptions) {
		o.pubFactory = DefaultPublisherFactory(url)
		o.subFactory = DefaultSubscriberFactory(url)
		o.responderFactory = DefaultResponderFactory(url)
	}
}

func WithWatermillLogger(logger watermill.LoggerAdapter) ConnectOption {
	return func(o *ConnectOptions) {
		o.watermillLogger = logger
	}
}

func WithPublisherFactory(pf PublisherFactory) ConnectOption {
	return func(o *ConnectOptions) {
		o.pubFactory = pf
	}
}

func WithSubscriberFactory(sf SubscriberFactory) ConnectOption {
	return func(o *ConnectOptions) {
		o.subFactory = sf
	}
}

func WithResponderFactory(rf ResponderFactory) ConnectOption {
	return func(o *ConnectOptions) {
		o.responderFactory = rf
	}
}

func WithRouterFactory(rf RouterFactory) ConnectOption {
	return func(o *ConnectOptions) {
		o.routerFactory = rf
	}
}

package talker

import (
	"log/slog"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/flux-agi/talker_go/talkermq"
)

type ServiceOptions struct {
	logger    *slog.Logger
	pub       message.Publisher
	sub       message.Subscriber
	responder talkermq.Responder
	state     *MessageState
	metrics   *Metrics
	nodeID    string
}

type ServiceOption func(*ServiceOptions)

func WithServiceLogger(logger *slog.Logger) ServiceOption {
	return func(o *ServiceOptions) {
		o.logger = logger
	}
}

// WithServicePub injects a publisher. Injected transports are not closed by Service.Close.
func WithServicePub(pub message.Publisher) ServiceOption {
	return func(o *ServiceOptions) {
		o.pub = pub
	}
}

func WithServiceSub(sub message.Subscriber) ServiceOption {
	return func(o *ServiceOptions) {
		o.sub = sub
	}
}

func WithServiceResponder(responder talkermq.Responder) ServiceOption {
	return func(o *ServiceOptions) {
		o.responder = responder
	}
}

func WithServiceState(state *MessageState) ServiceOption {
	return func(o *ServiceOptions) {
		o.state = state
	}
}

func WithServiceMetrics(metrics *Metrics) ServiceOption {
	return func(o *ServiceOptions) {
		o.metrics = metrics
	}
}

func WithServiceNodeID(nodeID string) ServiceOption {
	return func(o *ServiceOptions) {
		o.nodeID = nodeID
	}
}

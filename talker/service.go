package talker

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"

	"github.com/flux-agi/talker_go/talkermq"
)

// Service wires the emitter and the mutation handler to the message broker.
type Service struct {
	name   string
	nodeID string
	logger *slog.Logger

	watermillLogger watermill.LoggerAdapter
	router          *message.Router
	pub             message.Publisher
	sub             message.Subscriber
	responder       talkermq.Responder

	// owned holds what Run created from factories; Close releases only these.
	owned []io.Closer

	topics  *ServiceTopics
	status  *AtomicValue[ServiceStatus]
	rate    *AtomicValue[RateConfig]
	state   *MessageState
	metrics *Metrics
}

func NewService(name string, opts ...ServiceOption) *Service {
	options := &ServiceOptions{
		logger:    slog.Default(),
		pub:       nil,
		sub:       nil,
		responder: nil,
		state:     nil,
		metrics:   nil,
		nodeID:    "",
	}

	for _, opt := range opts {
		opt(options)
	}

	if options.state == nil {
		options.state = NewMessageState(DefaultMessage)
	}

	if options.nodeID == "" {
		options.nodeID = uuid.NewString()
	}

	return &Service{
		name:      name,
		nodeID:    options.nodeID,
		logger:    options.logger.With(slog.String("service", name)),
		pub:       options.pub,
		sub:       options.sub,
		responder: options.responder,
		topics:    NewTopics(name),
		status:    NewAtomicValue(ServiceStatusStarting),
		rate:      new(AtomicValue[RateConfig]),
		state:     options.state,
		metrics:   options.metrics,
	}
}

// Run connects to the broker, serves modifyTalkerMessage and emits at rate until ctx is
// canceled. Transport failures while emitting are logged, not returned. A failure after
// the broker connection was made is also reported as ServiceStatusError.
func (s *Service) Run(ctx context.Context, rate RateConfig, opts ...ConnectOption) error {
	options := &ConnectOptions{
		watermillLogger:  watermill.NewSlogLogger(s.logger),
		pubFactory:       DefaultPublisherFactory(DefaultNatsURL),
		subFactory:       DefaultSubscriberFactory(DefaultNatsURL),
		responderFactory: DefaultResponderFactory(DefaultNatsURL),
		routerFactory:    DefaultRouterFactory,
	}
	for _, opt := range opts {
		opt(options)
	}

	s.watermillLogger = options.watermillLogger
	s.rate.Set(rate)

	if err := s.connect(options); err != nil {
		return err
	}

	if err := s.UpdateStatus(ServiceStatusConnected); err != nil {
		return fmt.Errorf("failed to update service status: %w", err)
	}

	stopRouter, err := s.startRouter(ctx, options)
	if err != nil {
		s.fail(ctx, err)
		return err
	}

	err = s.serve(ctx, rate)
	if err != nil {
		s.fail(ctx, err)
	}

	// The router closes its subscriber when it stops, so it goes last.
	stopRouter()

	return err
}

// startRouter runs the status router on a context detached from ctx, so the final status
// still goes out after the emitter stopped. The returned func stops it and waits.
func (s *Service) startRouter(ctx context.Context, options *ConnectOptions) (func(), error) {
	router, err := options.routerFactory(s.watermillLogger)
	if err != nil {
		return nil, err
	}
	s.router = router

	s.RegisterStatusHandler()

	routerCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	routerErr := make(chan error, 1)
	go func() {
		routerErr <- s.router.Run(routerCtx)
	}()

	select {
	case <-s.router.Running():
	case err := <-routerErr:
		cancel()
		return nil, fmt.Errorf("failed to run router: %w", err)
	}

	return func() {
		cancel()
		if err := <-routerErr; err != nil {
			s.logger.ErrorContext(ctx, "router stopped with error", slog.String("err", err.Error()))
		}
	}, nil
}

func (s *Service) serve(ctx context.Context, rate RateConfig) error {
	// The responder is detached from ctx and stays up until the final status is out.
	responderCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	defer cancel()

	mutations := NewMutationHandler(s.state, s.logger, s.metrics)
	if err := s.responder.Respond(responderCtx, s.topics.ModifyMessage(), mutations.HandleMessage); err != nil {
		return fmt.Errorf("failed to register %s handler: %w", s.topics.ModifyMessage(), err)
	}

	if err := s.UpdateStatus(ServiceStatusReady); err != nil {
		return fmt.Errorf("failed to update service status: %w", err)
	}

	s.logger.InfoContext(ctx, "talker started",
		slog.String("node_id", s.nodeID),
		slog.Int("frequency_hz", rate.FrequencyHz),
	)

	emitter := NewEmitter(
		NewPubSubTransport(s.pub, s.topics, s.nodeID),
		s.state,
		rate,
		WithEmitterLogger(s.logger),
		WithEmitterMetrics(s.metrics),
	)
	if err := emitter.Run(ctx); err != nil {
		return fmt.Errorf("emitter failed: %w", err)
	}

	if err := s.UpdateStatus(ServiceStatusPaused); err != nil {
		s.logger.WarnContext(ctx, "failed to publish final status", slog.String("err", err.Error()))
	}

	return nil
}

// fail reports cause on the status topic; the status publish itself is best effort.
func (s *Service) fail(ctx context.Context, cause error) {
	if err := s.reportFailure(cause); err != nil {
		s.logger.WarnContext(ctx, "failed to publish error status", slog.String("err", err.Error()))
	}
}

func (s *Service) connect(options *ConnectOptions) error {
	if s.sub == nil {
		sub, err := options.subFactory(s.watermillLogger)
		if err != nil {
			return fmt.Errorf("failed to create nats sub: %w", err)
		}
		s.sub = sub
		s.owned = append(s.owned, sub)
	}

	if s.pub == nil {
		pub, err := options.pubFactory(s.watermillLogger)
		if err != nil {
			return fmt.Errorf("failed to create nats pub: %w", err)
		}
		s.pub = pub
		s.owned = append(s.owned, pub)
	}

	if s.responder == nil {
		responder, err := options.responderFactory(s.watermillLogger)
		if err != nil {
			return fmt.Errorf("failed to create responder: %w", err)
		}
		s.responder = responder
		s.owned = append(s.owned, responder)
	}

	return nil
}

// Close releases the connections Run opened.
func (s *Service) Close(ctx context.Context) {
	for i := len(s.owned) - 1; i >= 0; i-- {
		if err := s.owned[i].Close(); err != nil {
			s.logger.ErrorContext(ctx, "failed to close connection", slog.String("err", err.Error()))
		}
	}

	s.owned = nil
}

func (s *Service) Status() ServiceStatus {
	status, ok := s.status.Get()
	if !ok {
		return ServiceStatusPaused
	}

	return status
}

func (s *Service) State() *MessageState { return s.state }

func (s *Service) NodeID() string { return s.nodeID }

func (s *Service) Topics() *ServiceTopics { return s.topics }

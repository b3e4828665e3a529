package talker

import (
	"context"
	"log/slog"
	"time"
)

// Transport delivers emissions to remote subscribers.
type Transport interface {
	Publish(ctx context.Context, record StatusRecord) error
	BroadcastTransform(ctx context.Context, snapshot TransformSnapshot) error
}

// Emitter publishes one StatusRecord and one TransformSnapshot per tick.
type Emitter struct {
	transport Transport
	state     *MessageState
	rate      RateConfig
	logger    *slog.Logger
	metrics   *Metrics
	now       func() time.Time

	// sequence is owned by the goroutine calling Run or Tick.
	sequence uint64
}

type EmitterOption func(*Emitter)

func WithEmitterLogger(logger *slog.Logger) EmitterOption {
	return func(e *Emitter) {
		e.logger = logger
	}
}

func WithEmitterMetrics(metrics *Metrics) EmitterOption {
	return func(e *Emitter) {
		e.metrics = metrics
	}
}

func WithEmitterClock(now func() time.Time) EmitterOption {
	return func(e *Emitter) {
		e.now = now
	}
}

func NewEmitter(transport Transport, state *MessageState, rate RateConfig, opts ...EmitterOption) *Emitter {
	e := &Emitter{
		transport: transport,
		state:     state,
		rate:      rate,
		logger:    slog.Default(),
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Run ticks at the configured rate until ctx is canceled. The first tick is immediate and
// following ticks are spaced from the start of the previous one. It returns nil on shutdown.
func (e *Emitter) Run(ctx context.Context) error {
	ticker := time.NewTicker(e.rate.Period())
	defer ticker.Stop()

	for ctx.Err() == nil {
		e.Tick(ctx)

		select {
		case <-ctx.Done():
		case <-ticker.C:
		}
	}

	e.logger.DebugContext(ctx, "talker emitter stopped", slog.Uint64("next_sequence", e.sequence))

	return nil
}

// Tick performs a single emission and returns the status record it published.
// It must not be called concurrently with Run.
func (e *Emitter) Tick(ctx context.Context) StatusRecord {
	record := StatusRecord{
		Sequence: e.sequence,
		Text:     e.state.Read(),
	}

	e.logger.InfoContext(ctx, record.Data())

	err := e.transport.Publish(ctx, record)
	if err != nil {
		e.logger.ErrorContext(ctx, "failed to publish status record",
			slog.Uint64("sequence", record.Sequence),
			slog.String("err", err.Error()),
		)
	}
	e.metrics.observeEmission(emissionKindChatter, err)

	err = e.transport.BroadcastTransform(ctx, NewTalkTransform(e.now()))
	if err != nil {
		e.logger.ErrorContext(ctx, "failed to broadcast transform",
			slog.Uint64("sequence", record.Sequence),
			slog.String("err", err.Error()),
		)
	}
	e.metrics.observeEmission(emissionKindTransform, err)

	e.metrics.observeSequence(record.Sequence)
	e.sequence++

	return record
}

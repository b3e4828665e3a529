package talker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

type ModifyRequest struct {
	InputStr string `json:"input_str"`
}

type ModifyResponse struct {
	ModifiedStr string `json:"modified_str"`
}

// MutationHandler replaces the shared talker text on behalf of remote callers.
type MutationHandler struct {
	state   *MessageState
	logger  *slog.Logger
	metrics *Metrics
}

func NewMutationHandler(state *MessageState, logger *slog.Logger, metrics *Metrics) *MutationHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &MutationHandler{
		state:   state,
		logger:  logger,
		metrics: metrics,
	}
}

// Modify commits request.InputStr and echoes it back. It accepts every string, including "".
func (h *MutationHandler) Modify(ctx context.Context, request ModifyRequest) ModifyResponse {
	h.state.Write(request.InputStr)
	h.metrics.observeMutation()

	h.logger.InfoContext(ctx, "default message by talker changed", slog.String("text", request.InputStr))

	return ModifyResponse{ModifiedStr: request.InputStr}
}

// HandleMessage decodes a JSON ModifyRequest, applies it and encodes the response.
// Malformed payloads are rejected before the state is touched.
func (h *MutationHandler) HandleMessage(ctx context.Context, msg *message.Message) (*message.Message, error) {
	var request ModifyRequest
	if err := json.Unmarshal(msg.Payload, &request); err != nil {
		return nil, fmt.Errorf("talker: failed to unmarshal modify request: %w", err)
	}

	payload, err := json.Marshal(h.Modify(ctx, request))
	if err != nil {
		return nil, fmt.Errorf("talker: failed to marshal modify response: %w", err)
	}

	return message.NewMessage(watermill.NewUUID(), payload), nil
}

package talker_test

import (
	"context"
	"encoding/json"
	"io"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flux-agi/talker_go/talker"
	"github.com/flux-agi/talker_go/talkertest"
)

func TestMutationHandler_RoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	state := talker.NewMessageState(talker.DefaultMessage)
	metrics := talker.NewMetrics("talker")
	handler := talker.NewMutationHandler(state, talker.NewLogger(io.Discard, nil), metrics)
	transport := talkertest.NewTransport()
	emitter := newQuietEmitter(transport, state, talker.RateConfig{FrequencyHz: 10})

	before := emitter.Tick(ctx)
	response := handler.Modify(ctx, talker.ModifyRequest{InputStr: "hello"})
	after := emitter.Tick(ctx)

	assert.Equal(t, "hello", response.ModifiedStr)
	assert.Equal(t, talker.DefaultMessage, before.Text)
	assert.Equal(t, talker.StatusRecord{Sequence: 1, Text: "hello"}, after)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.Mutations), 0)
}

func TestMutationHandler_EmptyString(t *testing.T) {
	t.Parallel()

	state := talker.NewMessageState(talker.DefaultMessage)
	handler := talker.NewMutationHandler(state, talker.NewLogger(io.Discard, nil), nil)

	response := handler.Modify(context.Background(), talker.ModifyRequest{InputStr: ""})

	assert.Equal(t, "", response.ModifiedStr)
	assert.Equal(t, "", state.Read())
}

func TestMutationHandler_HandleMessage(t *testing.T) {
	t.Parallel()

	state := talker.NewMessageState(talker.DefaultMessage)
	handler := talker.NewMutationHandler(state, talker.NewLogger(io.Discard, nil), nil)

	payload, err := json.Marshal(talker.ModifyRequest{InputStr: "over the wire"})
	require.NoError(t, err)

	reply, err := handler.HandleMessage(context.Background(), message.NewMessage(watermill.NewUUID(), payload))
	require.NoError(t, err)

	var response talker.ModifyResponse
	require.NoError(t, json.Unmarshal(reply.Payload, &response))

	assert.Equal(t, "over the wire", response.ModifiedStr)
	assert.Equal(t, "over the wire", state.Read())
	assert.JSONEq(t, `{"modified_str":"over the wire"}`, string(reply.Payload))
}

func TestMutationHandler_HandleMessageRejectsMalformedPayload(t *testing.T) {
	t.Parallel()

	state := talker.NewMessageState(talker.DefaultMessage)
	handler := talker.NewMutationHandler(state, talker.NewLogger(io.Discard, nil), nil)

	_, err := handler.HandleMessage(context.Background(), message.NewMessage(watermill.NewUUID(), []byte("{")))

	require.Error(t, err)
	assert.Equal(t, talker.DefaultMessage, state.Read())
}

package talkermq_test

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flux-agi/talker_go/talkermq"
	"github.com/flux-agi/talker_go/talkertest"
)

func newNatsPair(t *testing.T, url string) (*talkermq.NatsResponder, *talkermq.NatsCaller) {
	t.Helper()

	responder, err := talkermq.NewNatsResponder(&talkermq.NatsResponderConfig{URL: url})
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, responder.Close()) })

	caller, err := talkermq.NewNatsCaller(&talkermq.NatsCallerConfig{URL: url})
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, caller.Close()) })

	return responder, caller
}

func TestNats_CallRespond(t *testing.T) {
	t.Parallel()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	t.Cleanup(cancel)

	responder, caller := newNatsPair(t, talkertest.RunNatsServer(t))
	require.NoError(t, responder.Respond(ctx, topic, upper))

	for _, word := range []string{"hello", "world"} {
		request := message.NewMessage(watermill.NewUUID(), []byte(word))

		callCtx, callCancel := context.WithTimeout(ctx, 5*time.Second)
		response, err := caller.Call(callCtx, topic, request)
		callCancel()

		require.NoError(t, err)
		assert.Equal(t, strings.ToUpper(word), string(response.Payload))
		assert.Equal(t, request.UUID, response.Metadata.Get(talkermq.CorrelationIDMetadataKey))
	}
}

func TestNats_RemoteError(t *testing.T) {
	t.Parallel()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	t.Cleanup(cancel)

	responder, caller := newNatsPair(t, talkertest.RunNatsServer(t))
	require.NoError(t, responder.Respond(ctx, topic, upper))

	callCtx, callCancel := context.WithTimeout(ctx, 5*time.Second)
	t.Cleanup(callCancel)

	_, err := caller.Call(callCtx, topic, message.NewMessage(watermill.NewUUID(), nil))

	require.ErrorIs(t, err, talkermq.ErrRemote)
	assert.Contains(t, err.Error(), "empty payload")
}

func TestNatsResponder_DropsRequestsWithoutReplySubject(t *testing.T) {
	t.Parallel()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	t.Cleanup(cancel)

	url := talkertest.RunNatsServer(t)
	responder, caller := newNatsPair(t, url)

	handled := make(chan string, 1)
	require.NoError(t, responder.Respond(ctx, topic, func(ctx context.Context, request *message.Message) (*message.Message, error) {
		select {
		case handled <- string(request.Payload):
		default:
		}
		return upper(ctx, request)
	}))

	conn, err := nats.Connect(url)
	require.NoError(t, err)
	t.Cleanup(conn.Close)

	require.NoError(t, conn.Publish(topic, []byte("fire and forget")))
	require.NoError(t, conn.Flush())

	select {
	case payload := <-handled:
		assert.Equal(t, "fire and forget", payload)
	case <-time.After(5 * time.Second):
		t.Fatal("request was not handled")
	}

	callCtx, callCancel := context.WithTimeout(ctx, 5*time.Second)
	t.Cleanup(callCancel)

	response, err := caller.Call(callCtx, topic, message.NewMessage(watermill.NewUUID(), []byte("still here")))
	require.NoError(t, err)
	assert.Equal(t, "STILL HERE", string(response.Payload))
}

func TestNatsResponder_UnsubscribesOnCancel(t *testing.T) {
	t.Parallel()

	responder, caller := newNatsPair(t, talkertest.RunNatsServer(t))

	respondCtx, respondCancel := context.WithCancel(context.Background())
	require.NoError(t, responder.Respond(respondCtx, topic, upper))

	callCtx, callCancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(callCancel)

	_, err := caller.Call(callCtx, topic, message.NewMessage(watermill.NewUUID(), []byte("up")))
	require.NoError(t, err)

	respondCancel()

	assert.Eventually(t, func() bool {
		_, err := caller.Call(callCtx, topic, message.NewMessage(watermill.NewUUID(), []byte("gone")))
		return errors.Is(err, nats.ErrNoResponders)
	}, 5*time.Second, 10*time.Millisecond)
}

func TestNatsResponder_CloseWaitsForInFlightReply(t *testing.T) {
	t.Parallel()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	t.Cleanup(cancel)

	url := talkertest.RunNatsServer(t)

	responder, err := talkermq.NewNatsResponder(&talkermq.NatsResponderConfig{URL: url})
	require.NoError(t, err)

	caller, err := talkermq.NewNatsCaller(&talkermq.NatsCallerConfig{URL: url})
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, caller.Close()) })

	entered := make(chan struct{})
	release := make(chan struct{})
	require.NoError(t, responder.Respond(ctx, topic, func(ctx context.Context, request *message.Message) (*message.Message, error) {
		close(entered)
		<-release
		return upper(ctx, request)
	}))

	type result struct {
		response *message.Message
		err      error
	}
	called := make(chan result, 1)
	go func() {
		callCtx, callCancel := context.WithTimeout(ctx, 5*time.Second)
		defer callCancel()

		response, err := caller.Call(callCtx, topic, message.NewMessage(watermill.NewUUID(), []byte("slow")))
		called <- result{response: response, err: err}
	}()

	<-entered

	closed := make(chan error, 1)
	go func() {
		closed <- responder.Close()
	}()

	assert.Never(t, func() bool { return len(closed) > 0 }, 100*time.Millisecond, 10*time.Millisecond)

	close(release)

	select {
	case err := <-closed:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("close did not return")
	}

	res := <-called
	require.NoError(t, res.err)
	assert.Equal(t, "SLOW", string(res.response.Payload))
}

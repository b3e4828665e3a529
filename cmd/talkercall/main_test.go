package main

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flux-agi/talker_go/talker"
	"github.com/flux-agi/talker_go/talkermq"
	"github.com/flux-agi/talker_go/talkertest"
)

func TestModify(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	pubSub := talkertest.NewGoChannel(t)
	topics := talker.NewTopics("talker")
	state := talker.NewMessageState(talker.DefaultMessage)
	handler := talker.NewMutationHandler(state, talker.NewLogger(io.Discard, nil), nil)

	responder := talkermq.NewPubSubResponder(pubSub, pubSub, nil)
	require.NoError(t, responder.Respond(ctx, topics.ModifyMessage(), handler.HandleMessage))

	response, err := modify(ctx, talkermq.NewPubSubCaller(pubSub, pubSub), topics, "hello")
	require.NoError(t, err)

	assert.Equal(t, "hello", response.ModifiedStr)
	assert.Equal(t, "hello", state.Read())
}

func TestRootCommand_RequiresText(t *testing.T) {
	t.Parallel()

	cmd := newRootCommand()

	require.Error(t, cmd.Args(cmd, nil))
	require.Error(t, cmd.Args(cmd, []string{"a", "b"}))
	require.NoError(t, cmd.Args(cmd, []string{""}))
}

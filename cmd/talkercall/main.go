package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/spf13/cobra"

	"github.com/flux-agi/talker_go/talker"
	"github.com/flux-agi/talker_go/talkermq"
)

const callTimeout = 5 * time.Second

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	return &cobra.Command{
		Use:          "talkercall <text>",
		Short:        "Replace the text published by a running talker",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := talker.ConfigFromEnv()
			logger := talker.NewLogger(os.Stderr, slog.LevelInfo)

			caller, err := talkermq.NewNatsCaller(&talkermq.NatsCallerConfig{
				URL:    cfg.NatsURL,
				Logger: watermill.NewSlogLogger(logger),
			})
			if err != nil {
				return err
			}
			defer caller.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), callTimeout)
			defer cancel()

			response, err := modify(ctx, caller, talker.NewTopics(cfg.ServiceName), args[0])
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), response.ModifiedStr)

			return nil
		},
	}
}

func modify(ctx context.Context, caller talkermq.Caller, topics *talker.ServiceTopics, text string) (*talker.ModifyResponse, error) {
	payload, err := json.Marshal(talker.ModifyRequest{InputStr: text})
	if err != nil {
		return nil, fmt.Errorf("could not marshal request: %w", err)
	}

	reply, err := caller.Call(ctx, topics.ModifyMessage(), message.NewMessage(watermill.NewUUID(), payload))
	if err != nil {
		return nil, fmt.Errorf("could not call %s: %w", topics.ModifyMessage(), err)
	}

	var response talker.ModifyResponse
	if err := json.Unmarshal(reply.Payload, &response); err != nil {
		return nil, fmt.Errorf("could not unmarshal response: %w", err)
	}

	return &response, nil
}

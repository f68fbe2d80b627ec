package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"hushwire/internal/domain"
	"hushwire/internal/services/message"
)

func listenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "listen",
		Short: "Stream and decrypt messages as they arrive",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePassphrase(); err != nil {
				return err
			}
			if err := requireRelay(); err != nil {
				return err
			}

			ctx := cmd.Context()
			me := domain.Username(appCtx.Cfg.Username)
			fmt.Println("listening (ctrl-c to stop)")

			err := appCtx.Relay.Stream(ctx, me, func(env domain.Envelope) {
				msg, err := appCtx.Messages.Receive(ctx, passphrase, env)
				if err != nil {
					fmt.Printf("! %s from %s: %v\n", env.ID, env.From, err)
					_ = appCtx.Relay.ReportFailure(ctx, me, env.ID, message.FailureReason(err))
					return
				}
				if !msg.Echo {
					fmt.Printf("[%s] %s\n", msg.From, string(msg.Plaintext))
				}
				_ = appCtx.Relay.Acknowledge(ctx, me, []domain.MessageID{env.ID})
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}

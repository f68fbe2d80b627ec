package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"hushwire/internal/domain"
	"hushwire/internal/services/message"
)

func recvCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "recv",
		Short: "Fetch and decrypt your queued messages",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePassphrase(); err != nil {
				return err
			}
			if err := requireRelay(); err != nil {
				return err
			}

			ctx := cmd.Context()
			me := domain.Username(appCtx.Cfg.Username)
			envs, err := appCtx.Relay.FetchEnvelopes(ctx, me, limit)
			if err != nil {
				return err
			}

			// Every envelope gets exactly one receipt: ack when processed,
			// nack with a reason when not, so the queue never jams on a
			// poison message.
			acked := make([]domain.MessageID, 0, len(envs))
			for _, env := range envs {
				msg, err := appCtx.Messages.Receive(ctx, passphrase, env)
				if err != nil {
					fmt.Printf("! %s from %s: %v\n", env.ID, env.From, err)
					if nerr := appCtx.Relay.ReportFailure(ctx, me, env.ID, message.FailureReason(err)); nerr != nil {
						return nerr
					}
					continue
				}
				if !msg.Echo {
					fmt.Printf("[%s] %s\n", msg.From, string(msg.Plaintext))
				}
				acked = append(acked, env.ID)
			}
			return appCtx.Relay.Acknowledge(ctx, me, acked)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "max envelopes to fetch (0 = all)")
	return cmd
}

package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"hushwire/internal/domain"
)

func sendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "send <peer> <message>",
		Short: "Encrypt and send a message to a peer",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePassphrase(); err != nil {
				return err
			}
			if err := requireRelay(); err != nil {
				return err
			}

			peer := domain.Username(args[0])
			env, err := appCtx.Messages.Send(cmd.Context(), passphrase, peer, []byte(args[1]))
			if err != nil {
				return err
			}
			fmt.Printf("sent %s\n", env.ID)
			return nil
		},
	}
}

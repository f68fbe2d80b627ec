package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"hushwire/internal/domain"
)

func registerCmd() *cobra.Command {
	var opkCount int

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Publish your prekey bundle to the relay",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePassphrase(); err != nil {
				return err
			}
			if appCtx.Relay == nil {
				return fmt.Errorf("no relay configured. use --relay")
			}
			if appCtx.Cfg.Username == "" {
				return fmt.Errorf("username required (--username or config)")
			}

			bundle, err := appCtx.PreKeys.Bundle(passphrase)
			if err != nil {
				return err
			}
			opks, err := appCtx.PreKeys.GenerateOneTime(passphrase, opkCount)
			if err != nil {
				return err
			}

			reg := domain.Registration{Bundle: bundle, OneTimePreKeys: opks}
			if err := appCtx.Relay.Register(cmd.Context(), reg); err != nil {
				return err
			}
			fmt.Printf("Registered with relay (%d one-time prekeys published)\n", len(opks))
			return nil
		},
	}
	cmd.Flags().IntVar(&opkCount, "opks", 10, "number of one-time prekeys to publish")
	return cmd
}

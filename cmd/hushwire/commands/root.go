package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"hushwire/internal/app"
	"hushwire/internal/config"
)

var (
	home       string
	passphrase string
	relayURL   string
	username   string

	appCtx *app.App
)

func Execute(ctx context.Context) error {
	root := &cobra.Command{
		Use:           "hushwire",
		Short:         "End-to-end encrypted chat CLI",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if home == "" {
				dir, err := os.UserHomeDir()
				if err != nil {
					return err
				}
				home = filepath.Join(dir, ".hushwire")
			}
			if err := os.MkdirAll(home, 0o700); err != nil {
				return err
			}

			cfg, err := config.LoadFile(home)
			if err != nil {
				return err
			}
			if relayURL != "" {
				cfg.RelayURL = relayURL
			}
			if username != "" {
				cfg.Username = username
			}

			appCtx, err = app.New(cfg)
			return err
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if appCtx == nil {
				return nil
			}
			return appCtx.Close()
		},
	}

	root.PersistentFlags().StringVar(&home, "home", "", "state dir (default ~/.hushwire)")
	root.PersistentFlags().StringVarP(&passphrase, "passphrase", "p", "", "passphrase protecting the keystore")
	root.PersistentFlags().StringVar(&relayURL, "relay", "", "relay base URL (e.g. http://127.0.0.1:8080)")
	root.PersistentFlags().StringVar(&username, "username", "", "your username (same as you registered with)")

	root.AddCommand(
		initCmd(), fingerprintCmd(), registerCmd(),
		sendCmd(), recvCmd(), listenCmd(), sessionsCmd(),
	)
	return root.ExecuteContext(ctx)
}

func requirePassphrase() error {
	if passphrase == "" {
		return fmt.Errorf("passphrase required (-p)")
	}
	return nil
}

func requireRelay() error {
	if appCtx.Messages == nil {
		return fmt.Errorf("no relay configured. use --relay or set RelayURL in %s", config.FileName)
	}
	if appCtx.Cfg.Username == "" {
		return fmt.Errorf("username required (--username or config)")
	}
	return nil
}

package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func sessionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sessions",
		Short: "List established sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := appCtx.Sessions.List()
			if err != nil {
				return err
			}
			if len(ids) == 0 {
				fmt.Println("no sessions")
				return nil
			}
			for _, id := range ids {
				s, ok, err := appCtx.Sessions.Get(id)
				if err != nil {
					return err
				}
				if !ok {
					continue
				}
				fmt.Printf("%s  partner=%s  phase=%s  last-used=%s\n",
					s.ID, s.Partner, s.Ratchet.Phase(),
					time.Unix(s.LastUsedAt, 0).Format(time.RFC3339))
			}
			return nil
		},
	}
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wanderplan/wanderplan-go/internal/clock"
	"github.com/wanderplan/wanderplan-go/internal/config"
	"github.com/wanderplan/wanderplan-go/internal/service"
)

func sessionCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Maintain stored sessions",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "prune",
		Short: "Delete expired sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), *cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := service.NewSessionService(a.sessions, clock.Real{}, cfg.SessionTTL, nil).Prune(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "pruned %d expired sessions\n", n)
			return nil
		},
	})
	return cmd
}

package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newHealthCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check backend health and readiness",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			backend := opts.newClient()
			health, err := backend.Health(cmd.Context())
			if err != nil {
				return fmt.Errorf("checking health: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Backend: %s\n", backend.BaseURL())
			fmt.Fprintf(out, "Status: %s\n", health.Status)
			fmt.Fprintf(out, "Version: %s\n", health.Version)
			fmt.Fprintf(out, "Model loaded: %t\n", health.ModelLoaded)

			// Older backends have no readiness route.
			ready, err := backend.Ready(cmd.Context())
			switch {
			case err != nil:
				fmt.Fprintf(out, "Ready: unknown (%v)\n", err)
			case ready.Ready():
				fmt.Fprintln(out, "Ready: yes")
			default:
				fmt.Fprintf(out, "Ready: no (%s)\n", ready.Reason)
			}
			return nil
		},
	}
}

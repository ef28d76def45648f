package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"spectra.dev/pkg/spectra/internal/domain"
)

func newSessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List stored sessions",
		Long:  "List the sessions in the session store, most recently updated first.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWorkflow(cmd, func(ctx context.Context, wf domain.Workflow) error {
				return wf.Sessions(ctx)
			})
		},
	}

	cmd.AddCommand(newSessionsRmCmd())

	return cmd
}

func newSessionsRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <session>...",
		Aliases: []string{"delete"},
		Short:   "Delete stored sessions",
		Long:    "Delete the population, executions and analyses stored under each session.",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorkflow(cmd, func(ctx context.Context, wf domain.Workflow) error {
				for _, id := range args {
					if err := wf.DeleteSession(ctx, id); err != nil {
						return err
					}

					fmt.Fprintf(cmd.OutOrStdout(), "Deleted session %s\n", id)
				}

				return nil
			})
		},
	}
}

func init() {
	rootCmd.AddCommand(newSessionsCmd())
}

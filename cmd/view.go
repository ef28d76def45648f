package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"spectra.dev/pkg/spectra/internal/domain"
	m "spectra.dev/pkg/spectra/internal/model"
)

const analysisFlagName = "analysis"

var (
	viewAnalysisFlag string
	viewOutFlag      string
)

func newViewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "view [session]",
		Short: "View a stored fault localization report",
		Long: `View the latest analysis of a session, or a specific analysis with
--analysis, from the session store.`,
		Args: cobra.MaximumNArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return bindCommandFlags(cmd, flagBinding{topFlagName, localizeTopKey})
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			viewArgs := domain.ViewArgs{
				AnalysisID: viewAnalysisFlag,
				Top:        viper.GetInt(localizeTopKey),
				Out:        m.Path(viewOutFlag),
			}

			if len(args) == 1 {
				viewArgs.SessionID = args[0]
			}

			return runWorkflow(cmd, func(ctx context.Context, wf domain.Workflow) error {
				return wf.View(ctx, viewArgs)
			})
		},
	}

	cmd.Flags().StringVarP(&viewAnalysisFlag, analysisFlagName, "a", "", "analysis id to show")
	cmd.Flags().IntP(topFlagName, "t", viper.GetInt(localizeTopKey), "number of lines to report")
	cmd.Flags().StringVarP(&viewOutFlag, outFlagName, "o", "", "also write the report to a .json or .yaml file")

	return cmd
}

func init() {
	rootCmd.AddCommand(newViewCmd())
}

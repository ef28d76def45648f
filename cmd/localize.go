package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"spectra.dev/pkg/spectra/internal/domain"
	m "spectra.dev/pkg/spectra/internal/model"
)

const (
	formulaFlagName = "formula"
	topFlagName     = "top"
	outFlagName     = "out"
)

var localizeLongDescription = fmt.Sprintf(`Rank the source lines of a target by how suspicious they are.

Without --session the labelled tests of the target descriptor are compiled
with coverage and executed; a test fails when the program exits non-zero,
crashes, or prints something other than its expected output. With
--session the executions stored by an evolve run are ranked instead.

Formulas: %s.`, strings.Join(domain.FormulaNames(), ", "))

var (
	localizeSessionFlag string
	localizeOutFlag     string
)

var localizeFlagBindings = []flagBinding{
	{formulaFlagName, localizeFormulaKey},
	{topFlagName, localizeTopKey},
	{parallelFlagName, runParallelKey},
	{timeoutFlagName, runTimeoutKey},
}

func newLocalizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "localize <target>",
		Short: "Rank suspicious lines with spectrum-based fault localization",
		Long:  localizeLongDescription,
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return bindCommandFlags(cmd, localizeFlagBindings...)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			localizeArgs := domain.LocalizeArgs{
				Target:    m.Path(args[0]),
				SessionID: localizeSessionFlag,
				Formula:   viper.GetString(localizeFormulaKey),
				Top:       viper.GetInt(localizeTopKey),
				Threads:   viper.GetInt(runParallelKey),
				Out:       m.Path(localizeOutFlag),
			}

			return runWorkflow(cmd, func(ctx context.Context, wf domain.Workflow) error {
				return wf.Localize(ctx, localizeArgs)
			})
		},
	}

	configureLocalizeFlags(cmd)

	return cmd
}

func configureLocalizeFlags(cmd *cobra.Command) {
	flags := cmd.Flags()

	flags.StringP(formulaFlagName, "f", viper.GetString(localizeFormulaKey), "suspiciousness formula")
	flags.IntP(topFlagName, "t", viper.GetInt(localizeTopKey), "number of lines to report")
	flags.IntP(parallelFlagName, "p", viper.GetInt(runParallelKey), "number of parallel executions")
	flags.Duration(timeoutFlagName, viper.GetDuration(runTimeoutKey), "timeout of a single execution")
	flags.StringVarP(&localizeSessionFlag, sessionFlagName, "s", "", "rank the executions stored under this session")
	flags.StringVarP(&localizeOutFlag, outFlagName, "o", "", "also write the report to a .json or .yaml file")
}

func init() {
	rootCmd.AddCommand(newLocalizeCmd())
}

package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"spectra.dev/pkg/spectra/internal/domain"
	m "spectra.dev/pkg/spectra/internal/model"
)

const (
	populationFlagName    = "population"
	generationsFlagName   = "generations"
	mutationRateFlagName  = "mutation-rate"
	crossoverRateFlagName = "crossover-rate"
	seedFlagName          = "seed"
	targetFitnessFlagName = "target-fitness"
	parallelFlagName      = "parallel"
	timeoutFlagName       = "timeout"
	sessionFlagName       = "session"
	spillDirFlagName      = "spill-dir"
)

const evolveLongDescription = `Evolve test inputs for a target with a genetic algorithm.

Each generation is compiled with coverage, executed and scored by the
branches it covers, rewarding branches no earlier input reached. The
population and every execution are stored under a session so the run can
be resumed with --session and localized afterwards.

The target is a YAML descriptor or a bare .c/.cpp source file.`

var evolveSessionFlag string

var evolveFlagBindings = []flagBinding{
	{populationFlagName, gaPopulationKey},
	{generationsFlagName, gaGenerationsKey},
	{mutationRateFlagName, gaMutationRateKey},
	{crossoverRateFlagName, gaCrossoverRateKey},
	{seedFlagName, gaSeedKey},
	{targetFitnessFlagName, gaTargetFitnessKey},
	{parallelFlagName, runParallelKey},
	{timeoutFlagName, runTimeoutKey},
	{spillDirFlagName, runSpillDirKey},
}

func newEvolveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "evolve <target>",
		Short: "Generate test inputs guided by branch coverage",
		Long:  evolveLongDescription,
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return bindCommandFlags(cmd, evolveFlagBindings...)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			evolveArgs := domain.EvolveArgs{
				Target:        m.Path(args[0]),
				SessionID:     evolveSessionFlag,
				Population:    viper.GetInt(gaPopulationKey),
				Generations:   viper.GetInt(gaGenerationsKey),
				MutationRate:  viper.GetFloat64(gaMutationRateKey),
				CrossoverRate: viper.GetFloat64(gaCrossoverRateKey),
				TargetFitness: viper.GetFloat64(gaTargetFitnessKey),
				Threads:       viper.GetInt(runParallelKey),
				SpillDir:      viper.GetString(runSpillDirKey),
			}

			return runWorkflow(cmd, func(ctx context.Context, wf domain.Workflow) error {
				return wf.Evolve(ctx, evolveArgs)
			})
		},
	}

	configureEvolveFlags(cmd)

	return cmd
}

func configureEvolveFlags(cmd *cobra.Command) {
	flags := cmd.Flags()

	flags.IntP(populationFlagName, "n", viper.GetInt(gaPopulationKey), "individuals per generation")
	flags.IntP(generationsFlagName, "g", viper.GetInt(gaGenerationsKey), "maximum number of generations")
	flags.Float64(mutationRateFlagName, viper.GetFloat64(gaMutationRateKey), "per-gene mutation probability")
	flags.Float64(crossoverRateFlagName, viper.GetFloat64(gaCrossoverRateKey), "probability that two parents recombine")
	flags.Int64(seedFlagName, viper.GetInt64(gaSeedKey), "random seed (0 picks one from the clock)")
	flags.Float64(targetFitnessFlagName, viper.GetFloat64(gaTargetFitnessKey), "stop once the best fitness reaches this value (0 disables)")
	flags.IntP(parallelFlagName, "p", viper.GetInt(runParallelKey), "number of parallel executions")
	flags.Duration(timeoutFlagName, viper.GetDuration(runTimeoutKey), "timeout of a single execution")
	flags.String(spillDirFlagName, viper.GetString(runSpillDirKey), "directory for the execution spill file")
	flags.StringVarP(&evolveSessionFlag, sessionFlagName, "s", "", "resume or name a session")
}

func init() {
	rootCmd.AddCommand(newEvolveCmd())
}

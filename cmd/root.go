// Package cmd provides the root command and CLI setup for spectra.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"spectra.dev/pkg/spectra/internal/adapter"
	"spectra.dev/pkg/spectra/internal/controller"
	"spectra.dev/pkg/spectra/internal/domain"
)

const (
	formatFlagName    = "format"
	storeFlagName     = "store"
	storeKindFlagName = "store-kind"
	verboseFlagName   = "verbose"
	logFileFlagName   = "log-file"
)

// workflow overrides the configured workflow when set. Tests inject mocks
// through it.
var workflow domain.Workflow

var (
	formatFlag    string
	storePathFlag string
	storeKindFlag string
	verboseFlag   bool
	logFileFlag   string
)

const rootLongDescription = `Spectra generates test inputs for C and C++ programs with a genetic
algorithm guided by gcov branch coverage, then ranks the source lines most
likely to hold the fault with spectrum-based fault localization
(Tarantula, Ochiai or Jaccard).

Typical use:
  spectra evolve examples/triangle/triangle.yaml
  spectra localize examples/triangle/triangle.yaml
  spectra view <session>`

// rootCmd represents the base command when called without any subcommands.
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "spectra",
		Short:        "Coverage-guided test generation and fault localization for C/C++",
		Long:         rootLongDescription,
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			configureLogger(viper.GetString(logFilenameKey), viper.GetBool(logVerboseKey))
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	configureRootFlags(cmd)

	return cmd
}

func configureRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&formatFlag, formatFlagName, viper.GetString(outputConfigKey), "output format: text, json or yaml")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(formatFlagName), outputConfigKey)

	cmd.PersistentFlags().StringVar(&storePathFlag, storeFlagName, viper.GetString(storePathKey), "session store path")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(storeFlagName), storePathKey)

	cmd.PersistentFlags().StringVar(&storeKindFlag, storeKindFlagName, viper.GetString(storeKindKey), "session store backend: sqlite or memory")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(storeKindFlagName), storeKindKey)

	cmd.PersistentFlags().BoolVarP(&verboseFlag, verboseFlagName, "v", viper.GetBool(logVerboseKey), "log at debug level")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(verboseFlagName), logVerboseKey)

	cmd.PersistentFlags().StringVar(&logFileFlag, logFileFlagName, viper.GetString(logFilenameKey), "log file path")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(logFileFlagName), logFilenameKey)
}

// bindFlagToConfig wires a Cobra flag to a Viper key so config/env values feed the flag.
func bindFlagToConfig(flag *pflag.Flag, key string) {
	if flag == nil {
		cobra.CheckErr(fmt.Errorf("flag for config key %q not found", key))
		return
	}

	cobra.CheckErr(viper.BindPFlag(key, flag))
}

type flagBinding struct {
	flag string
	key  string
}

// bindCommandFlags binds the flags of the running command to their config
// keys. Subcommands share keys such as run.parallel, so binding happens when
// the command runs rather than when it is built.
func bindCommandFlags(cmd *cobra.Command, bindings ...flagBinding) error {
	for _, binding := range bindings {
		flag := cmd.Flags().Lookup(binding.flag)
		if flag == nil {
			return fmt.Errorf("flag %q not found", binding.flag)
		}

		if err := viper.BindPFlag(binding.key, flag); err != nil {
			return fmt.Errorf("bind flag %q: %w", binding.flag, err)
		}
	}

	return nil
}

// Execute runs the root command and exits 1 on error. Interrupts cancel the
// running command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)

	err := rootCmd.ExecuteContext(ctx)

	stop()

	if err != nil {
		os.Exit(1)
	}
}

// workflowFor returns the injected workflow or builds one from the current
// configuration. The returned func releases the session store.
func workflowFor(cmd *cobra.Command) (domain.Workflow, func(), error) {
	if workflow != nil {
		return workflow, func() {}, nil
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	format := strings.ToLower(viper.GetString(outputConfigKey))
	switch format {
	case controller.FormatText, controller.FormatJSON, controller.FormatYAML:
	default:
		return nil, nil, fmt.Errorf("unsupported output format %q", format)
	}

	fitness, err := domain.NewFitnessEvaluator(domain.FitnessConfig{
		NoveltyWeight:  viper.GetFloat64(fitnessNoveltyWeightKey),
		FailurePenalty: viper.GetFloat64(fitnessFailurePenaltyKey),
	})
	if err != nil {
		return nil, nil, err
	}

	seed := viper.GetInt64(gaSeedKey)
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	manager, err := domain.NewPopulationManager(rand.New(rand.NewSource(seed)), domain.GAConfig{
		TournamentSize: viper.GetInt(gaTournamentSizeKey),
		EliteCount:     viper.GetInt(gaEliteCountKey),
		BoundaryBias:   viper.GetFloat64(gaBoundaryBiasKey),
		DeltaRange:     viper.GetInt(gaDeltaRangeKey),
	}, fitness)
	if err != nil {
		return nil, nil, err
	}

	store, err := adapter.NewSessionStore(ctx, viper.GetString(storeKindKey), viper.GetString(storePathKey))
	if err != nil {
		return nil, nil, fmt.Errorf("open session store: %w", err)
	}

	fsAdapter := adapter.NewLocalSourceFSAdapter("")
	testAdapter := adapter.NewLocalTestRunnerAdapter(adapter.RunnerConfig{
		Compiler: viper.GetString(execCompilerKey),
		Flags:    viper.GetStringSlice(execFlagsKey),
		Gcov:     viper.GetString(execGcovKey),
		Timeout:  viper.GetDuration(runTimeoutKey),
	})

	ui := controller.NewUI(cmd, controller.IsTTY(cmd.OutOrStdout()), format)

	wf := domain.NewWorkflow(
		adapter.NewLocalTargetAdapter(fsAdapter),
		store,
		ui,
		domain.NewOrchestrator(fsAdapter, testAdapter),
		manager,
		fitness,
	)

	release := func() {
		if err := store.Close(); err != nil {
			cmd.PrintErrln("close session store:", err)
		}
	}

	return wf, release, nil
}

// runWorkflow resolves the workflow for cmd and hands it to fn.
func runWorkflow(cmd *cobra.Command, fn func(ctx context.Context, wf domain.Workflow) error) error {
	wf, release, err := workflowFor(cmd)
	if err != nil {
		return err
	}

	defer release()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	err = fn(ctx, wf)
	if errors.Is(err, context.Canceled) {
		return errors.New("interrupted")
	}

	return err
}

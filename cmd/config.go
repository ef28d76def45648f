package cmd

import (
	"errors"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"

	"spectra.dev/pkg/spectra/internal/adapter"
	"spectra.dev/pkg/spectra/internal/controller"
	"spectra.dev/pkg/spectra/internal/domain"
	"spectra.dev/pkg/spectra/internal/domain/mutagens"
)

const (
	configVersionKey     = "version"
	currentConfigVersion = 1

	configBaseName   = "spectra"
	configFileName   = configBaseName + ".yaml"
	configFolderPath = "."

	envPrefix = "SPECTRA"

	outputConfigKey = "output"

	gaPopulationKey     = "ga.population"
	gaGenerationsKey    = "ga.generations"
	gaMutationRateKey   = "ga.mutation_rate"
	gaCrossoverRateKey  = "ga.crossover_rate"
	gaTournamentSizeKey = "ga.tournament_size"
	gaEliteCountKey     = "ga.elite_count"
	gaBoundaryBiasKey   = "ga.boundary_bias"
	gaDeltaRangeKey     = "ga.delta_range"
	gaSeedKey           = "ga.seed"
	gaTargetFitnessKey  = "ga.target_fitness"

	fitnessNoveltyWeightKey  = "fitness.novelty_weight"
	fitnessFailurePenaltyKey = "fitness.failure_penalty"

	runParallelKey = "run.parallel"
	runTimeoutKey  = "run.timeout"
	runSpillDirKey = "run.spill_dir"

	execCompilerKey = "exec.compiler"
	execFlagsKey    = "exec.flags"
	execGcovKey     = "exec.gcov"

	localizeFormulaKey = "localize.formula"
	localizeTopKey     = "localize.top"

	storeKindKey = "store.kind"
	storePathKey = "store.path"

	defaultPopulation    = 50
	defaultGenerations   = 100
	defaultMutationRate  = 0.3
	defaultCrossoverRate = 0.8
	defaultRunParallel   = 4
	defaultRunTimeout    = 10 * time.Second
	defaultStorePath     = ".spectra.db"

	logFilenameKey   = "log.filename"
	logLevelKey      = "log.level"
	logVerboseKey    = "log.verbose"
	logMaxSizeKey    = "log.max_size"
	logMaxBackupsKey = "log.max_backups"
	logMaxAgeKey     = "log.max_age"
	logCompressKey   = "log.compress"

	defaultLogFilename   = ".spectra.log"
	defaultLogLevel      = "info"
	defaultLogMaxSize    = 10
	defaultLogMaxBackups = 3
	defaultLogMaxAge     = 28
	defaultLogCompress   = true
)

var globalLogger *slog.Logger

func init() {
	viper.SetConfigName(configBaseName)
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configFolderPath)
	viper.SetConfigFile(filepath.Join(configFolderPath, configFileName))
	viper.AutomaticEnv()
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return
		}

		slog.Warn("Ignoring unreadable config file", "file", configFileName, "error", err)
	}
}

func setDefaults() {
	viper.SetDefault(configVersionKey, currentConfigVersion)
	viper.SetDefault(outputConfigKey, controller.FormatText)

	viper.SetDefault(gaPopulationKey, defaultPopulation)
	viper.SetDefault(gaGenerationsKey, defaultGenerations)
	viper.SetDefault(gaMutationRateKey, defaultMutationRate)
	viper.SetDefault(gaCrossoverRateKey, defaultCrossoverRate)
	viper.SetDefault(gaTournamentSizeKey, domain.DefaultTournamentSize)
	viper.SetDefault(gaEliteCountKey, domain.DefaultEliteCount)
	viper.SetDefault(gaBoundaryBiasKey, domain.DefaultBoundaryBias)
	viper.SetDefault(gaDeltaRangeKey, mutagens.DefaultDeltaRange)
	viper.SetDefault(gaSeedKey, 0)
	viper.SetDefault(gaTargetFitnessKey, 0.0)

	viper.SetDefault(fitnessNoveltyWeightKey, domain.DefaultNoveltyWeight)
	viper.SetDefault(fitnessFailurePenaltyKey, domain.DefaultFailurePenalty)

	viper.SetDefault(runParallelKey, defaultRunParallel)
	viper.SetDefault(runTimeoutKey, defaultRunTimeout.String())
	viper.SetDefault(runSpillDirKey, "")

	viper.SetDefault(execCompilerKey, adapter.DefaultCompiler)
	viper.SetDefault(execFlagsKey, adapter.DefaultCompilerFlags)
	viper.SetDefault(execGcovKey, adapter.DefaultGcov)

	viper.SetDefault(localizeFormulaKey, domain.FormulaTarantula)
	viper.SetDefault(localizeTopKey, domain.DefaultTopLines)

	viper.SetDefault(storeKindKey, adapter.StoreSQLite)
	viper.SetDefault(storePathKey, defaultStorePath)

	viper.SetDefault(logFilenameKey, defaultLogFilename)
	viper.SetDefault(logLevelKey, defaultLogLevel)
	viper.SetDefault(logVerboseKey, false)
	viper.SetDefault(logMaxSizeKey, defaultLogMaxSize)
	viper.SetDefault(logMaxBackupsKey, defaultLogMaxBackups)
	viper.SetDefault(logMaxAgeKey, defaultLogMaxAge)
	viper.SetDefault(logCompressKey, defaultLogCompress)
}

func parseSlogLevel(value string, defaultLevel slog.Level) slog.Level {
	level := strings.ToLower(strings.TrimSpace(value))
	if level == "" {
		return defaultLevel
	}

	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}

	// numeric slog levels, e.g. -4 for debug
	if n, err := strconv.Atoi(level); err == nil {
		return slog.Level(n)
	}

	return defaultLevel
}

// configureLogger points the default slog logger at a rotating log file.
// verbose forces the debug level.
func configureLogger(logPath string, verbose bool) {
	if strings.TrimSpace(logPath) == "" {
		logPath = defaultLogFilename
	}

	logLevel := parseSlogLevel(viper.GetString(logLevelKey), slog.LevelInfo)
	if verbose {
		logLevel = slog.LevelDebug
	}

	logWriter := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    viper.GetInt(logMaxSizeKey),
		MaxBackups: viper.GetInt(logMaxBackupsKey),
		MaxAge:     viper.GetInt(logMaxAgeKey),
		Compress:   viper.GetBool(logCompressKey),
	}

	handler := slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		AddSource: true,
		Level:     logLevel,
	})

	globalLogger = slog.New(handler)
	slog.SetDefault(globalLogger)
}

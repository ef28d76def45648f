package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"spectra.dev/pkg/spectra/internal/adapter"
	"spectra.dev/pkg/spectra/internal/controller"
	m "spectra.dev/pkg/spectra/internal/model"
	"spectra.dev/pkg/spectra/pkg"
)

// EvolveArgs contains the arguments for an evolution run.
type EvolveArgs struct {
	Target        m.Path
	SessionID     string
	Population    int
	Generations   int
	MutationRate  float64
	CrossoverRate float64
	// TargetFitness stops the run once the best fitness reaches it. Zero
	// disables early stopping.
	TargetFitness float64
	Threads       int
	SpillDir      string
}

// LocalizeArgs contains the arguments for a localization pass. When
// SessionID is set the session's stored executions are ranked instead of
// running the target's labelled tests.
type LocalizeArgs struct {
	Target    m.Path
	SessionID string
	Formula   string
	Top       int
	Threads   int
	// Out, when set, also writes the report to a .json or .yaml file.
	Out m.Path
}

// ViewArgs selects a stored analysis. AnalysisID wins over SessionID.
type ViewArgs struct {
	SessionID  string
	AnalysisID string
	Top        int
	Out        m.Path
}

// Workflow drives the spectra commands end to end.
type Workflow interface {
	Evolve(ctx context.Context, args EvolveArgs) error
	Localize(ctx context.Context, args LocalizeArgs) error
	View(ctx context.Context, args ViewArgs) error
	Sessions(ctx context.Context) error
	DeleteSession(ctx context.Context, sessionID string) error
}

type workflow struct {
	adapter.TargetAdapter
	controller.UI
	Executor
	PopulationManager

	store   adapter.SessionStore
	fitness FitnessEvaluator
}

// NewWorkflow creates a new Workflow with the provided dependencies.
func NewWorkflow(
	targets adapter.TargetAdapter,
	store adapter.SessionStore,
	ui controller.UI,
	executor Executor,
	manager PopulationManager,
	fitness FitnessEvaluator,
) Workflow {
	return &workflow{
		TargetAdapter:     targets,
		UI:                ui,
		Executor:          executor,
		PopulationManager: manager,
		store:             store,
		fitness:           fitness,
	}
}

func (w *workflow) Evolve(ctx context.Context, args EvolveArgs) error {
	if err := validateEvolveArgs(args); err != nil {
		return err
	}

	target, err := w.Load(ctx, args.Target)
	if err != nil {
		return fmt.Errorf("load target: %w", err)
	}

	pop, resumed, err := w.startPopulation(ctx, target, args)
	if err != nil {
		return err
	}

	spill, err := pkg.NewFileSpill[m.TestExecutionResult](args.SpillDir)
	if err != nil {
		return fmt.Errorf("create execution spill: %w", err)
	}

	defer func() {
		if err := spill.Remove(); err != nil {
			slog.Warn("Failed to remove execution spill", "path", spill.Path(), "error", err)
		}
	}()

	if err := w.Start(ctx, controller.WithEvolveMode(), controller.WithTitle("spectra evolve "+target.Name)); err != nil {
		slog.Error("Failed to start workflow UI", "error", err)
		return err
	}

	result, err := w.evolve(ctx, target, pop, resumed, spill, args)
	if err != nil {
		w.Close(ctx)
		return err
	}

	if err := w.DisplayEvolutionResult(ctx, result); err != nil {
		w.Close(ctx)
		slog.Error("Failed to display evolution result", "error", err)

		return fmt.Errorf("display: %w", err)
	}

	w.Wait(ctx)
	w.Close(ctx)

	return nil
}

func validateEvolveArgs(args EvolveArgs) error {
	if args.Generations < 1 {
		return newConfigurationError("ga.generations", args.Generations, "must be at least 1")
	}

	if err := validateRate("ga.mutation_rate", args.MutationRate); err != nil {
		return err
	}

	if err := validateRate("ga.crossover_rate", args.CrossoverRate); err != nil {
		return err
	}

	if args.TargetFitness < 0 || args.TargetFitness > 1 {
		return newConfigurationError("ga.target_fitness", args.TargetFitness, "must be within [0, 1]")
	}

	return nil
}

// startPopulation resumes the stored population of args.SessionID or seeds
// a new one.
func (w *workflow) startPopulation(ctx context.Context, target *m.Target, args EvolveArgs) (*m.Population, bool, error) {
	sessionID := args.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	} else {
		pop, ok, err := w.store.GetPopulation(ctx, sessionID)
		if err != nil {
			return nil, false, fmt.Errorf("load session %s: %w", sessionID, err)
		}

		if ok {
			if len(pop.Spec) != len(target.Parameters) {
				return nil, false, newConfigurationError("session", sessionID,
					fmt.Sprintf("stored population has %d genes, target takes %d parameters", len(pop.Spec), len(target.Parameters)))
			}

			if pop.TargetHash != "" && target.Hash != "" && pop.TargetHash != target.Hash {
				slog.Error("Target changed since session was created", "session", sessionID, "stored", pop.TargetHash, "current", target.Hash)
				return nil, false, newConfigurationError("session", sessionID, "target source changed since the session was created")
			}

			slog.Info("Resuming session", "session", sessionID, "generation", pop.Generation)

			return pop, true, nil
		}
	}

	pop, err := w.Initialize(sessionID, target.Parameters, args.Population)
	if err != nil {
		return nil, false, err
	}

	pop.TargetHash = target.Hash

	slog.Info("Starting session", "session", sessionID, "target", target.Name, "population", pop.Size())

	return pop, false, nil
}

func (w *workflow) evolve(
	ctx context.Context,
	target *m.Target,
	pop *m.Population,
	resumed bool,
	spill pkg.FileSpill[m.TestExecutionResult],
	args EvolveArgs,
) (m.EvolutionResult, error) {
	started := time.Now()
	batch := NewBatchEvaluator(w.Executor, w.PopulationManager, args.Threads)

	var err error

	if resumed && fullyEvaluated(pop) {
		if pop, err = w.AdvanceGeneration(pop, args.MutationRate, args.CrossoverRate); err != nil {
			return m.EvolutionResult{}, fmt.Errorf("advance generation: %w", err)
		}
	}

	result := m.EvolutionResult{SessionID: pop.SessionID, Target: target.Name, Complexity: target.Complexity}

	for i := 0; i < args.Generations; i++ {
		results, err := batch.EvaluateBatch(ctx, target, pop)
		if err != nil {
			return m.EvolutionResult{}, fmt.Errorf("evaluate generation %d: %w", pop.Generation, err)
		}

		if err := spill.AppendBatch(results); err != nil {
			return m.EvolutionResult{}, fmt.Errorf("spill executions: %w", err)
		}

		if err := w.store.SaveExecutions(ctx, pop.SessionID, results); err != nil {
			return m.EvolutionResult{}, fmt.Errorf("save executions: %w", err)
		}

		if err := w.store.SavePopulation(ctx, pop); err != nil {
			return m.EvolutionResult{}, fmt.Errorf("save population: %w", err)
		}

		stats := w.generationStats(pop, results)
		result.History = append(result.History, stats)
		result.Generations++

		w.DisplayGeneration(ctx, stats)

		if args.TargetFitness > 0 && stats.Best >= args.TargetFitness {
			result.StoppedEarly = true
			break
		}

		if i == args.Generations-1 {
			break
		}

		if pop, err = w.AdvanceGeneration(pop, args.MutationRate, args.CrossoverRate); err != nil {
			return m.EvolutionResult{}, fmt.Errorf("advance generation: %w", err)
		}
	}

	summary, err := summarizeExecutions(spill)
	if err != nil {
		return m.EvolutionResult{}, fmt.Errorf("summarize executions: %w", err)
	}

	slog.Info("Evolution finished", "session", pop.SessionID, "generations", result.Generations,
		"executions", summary.Total, "failure_rate", summary.FailureRate())

	if best := pop.Best(); best != nil {
		result.Best = best.Clone()
	}

	result.Frontier = pop.Frontier.Sorted()
	result.TotalBranches = pop.TotalBranches
	result.Executions = summary.Total
	result.Failing = summary.Failing
	result.Duration = time.Since(started)

	return result, nil
}

func (w *workflow) generationStats(pop *m.Population, results []m.TestExecutionResult) m.GenerationStats {
	summary := w.fitness.Aggregate(pop.Individuals)

	stats := m.GenerationStats{
		SessionID:     pop.SessionID,
		Generation:    pop.Generation,
		Best:          summary.Best,
		Mean:          summary.Mean,
		Min:           summary.Min,
		Executed:      len(results),
		Frontier:      pop.Frontier.Len(),
		TotalBranches: pop.TotalBranches,
	}

	if best := pop.Best(); best != nil {
		stats.BestGenes = append([]float64(nil), best.Genes...)
	}

	for _, r := range results {
		if !r.Status.IsPassed() {
			stats.Failures++
		}
	}

	return stats
}

func fullyEvaluated(pop *m.Population) bool {
	for _, ind := range pop.Individuals {
		if !ind.Evaluated {
			return false
		}
	}

	return pop.Size() > 0
}

func (w *workflow) Localize(ctx context.Context, args LocalizeArgs) error {
	formula, err := FormulaByName(args.Formula)
	if err != nil {
		return err
	}

	target, err := w.Load(ctx, args.Target)
	if err != nil {
		return fmt.Errorf("load target: %w", err)
	}

	sessionID := args.SessionID

	var results []m.TestExecutionResult

	if sessionID != "" {
		results, err = w.store.GetExecutions(ctx, sessionID)
		if err != nil {
			return fmt.Errorf("load executions of session %s: %w", sessionID, err)
		}

		if len(results) == 0 {
			return fmt.Errorf("session %s has no stored executions", sessionID)
		}
	} else {
		if len(target.Tests) == 0 {
			return newConfigurationError("tests", 0, "target has no labelled tests; run evolve and pass --session")
		}

		sessionID = uuid.NewString()

		results, err = w.runLabelledTests(ctx, target, args.Threads)
		if err != nil {
			return err
		}

		if err := w.store.SaveExecutions(ctx, sessionID, results); err != nil {
			return fmt.Errorf("save executions: %w", err)
		}
	}

	if err := w.Start(ctx, controller.WithLocalizeMode(), controller.WithTitle("spectra localize "+target.Name)); err != nil {
		slog.Error("Failed to start workflow UI", "error", err)
		return err
	}

	analysis := NewLocalizer(formula).Localize(LocalizeInput{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Target:    target,
		Results:   results,
	})
	analysis.CreatedAt = time.Now().UTC()

	if err := w.store.SaveAnalysis(ctx, analysis); err != nil {
		w.Close(ctx)
		return fmt.Errorf("save analysis: %w", err)
	}

	slog.Info("Localized faults", "session", sessionID, "analysis", analysis.ID, "formula", analysis.Formula,
		"passed", analysis.TotalPassed, "failed", analysis.TotalFailed, "degenerate", analysis.Degenerate)

	return w.show(ctx, BuildReport(analysis, args.Top), args.Out)
}

// runLabelledTests executes the target's tests on a bounded pool. Results
// keep the order of target.Tests.
func (w *workflow) runLabelledTests(ctx context.Context, target *m.Target, threads int) ([]m.TestExecutionResult, error) {
	results := make([]m.TestExecutionResult, len(target.Tests))

	var group errgroup.Group
	if threads > 0 {
		group.SetLimit(threads)
	}

	for i, test := range target.Tests {
		group.Go(func() error {
			res, err := w.Execute(ctx, target, test)
			if err != nil {
				evalErr := &EvaluationError{IndividualID: test.Name, Err: err}
				slog.Warn("Labelled test could not run", "error", evalErr)

				res = m.TestExecutionResult{Status: m.StatusError, Error: evalErr.Error(), Coverage: emptyCoverage("")}
			}

			res.TestID = test.Name
			res.Genes = append([]float64(nil), test.Inputs...)
			results[i] = res

			return nil
		})
	}

	_ = group.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return results, nil
}

func (w *workflow) View(ctx context.Context, args ViewArgs) error {
	var (
		analysis m.FaultLocalizationAnalysis
		found    bool
		err      error
	)

	switch {
	case args.AnalysisID != "":
		analysis, found, err = w.store.GetAnalysis(ctx, args.AnalysisID)
	case args.SessionID != "":
		analysis, found, err = w.store.LatestAnalysis(ctx, args.SessionID)
	default:
		return errors.New("view needs a session or an analysis id")
	}

	if err != nil {
		return fmt.Errorf("load analysis: %w", err)
	}

	if !found {
		return fmt.Errorf("no stored analysis for session %q analysis %q", args.SessionID, args.AnalysisID)
	}

	if err := w.Start(ctx, controller.WithViewMode(), controller.WithTitle("spectra view "+analysis.Source)); err != nil {
		slog.Error("Failed to start workflow UI", "error", err)
		return err
	}

	return w.show(ctx, BuildReport(analysis, args.Top), args.Out)
}

func (w *workflow) show(ctx context.Context, report m.Report, out m.Path) error {
	if out != "" {
		if err := adapter.WriteReport(out, report); err != nil {
			w.Close(ctx)
			return err
		}

		slog.Info("Wrote report", "path", out, "analysis", report.AnalysisID)
	}

	if err := w.DisplayReport(ctx, report); err != nil {
		w.Close(ctx)
		slog.Error("Failed to display report", "error", err)

		return fmt.Errorf("display: %w", err)
	}

	w.Wait(ctx)
	w.Close(ctx)

	return nil
}

func (w *workflow) Sessions(ctx context.Context) error {
	sessions, err := w.store.ListSessions(ctx)
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}

	if err := w.Start(ctx, controller.WithViewMode(), controller.WithTitle("spectra sessions")); err != nil {
		slog.Error("Failed to start workflow UI", "error", err)
		return err
	}

	if err := w.DisplaySessions(ctx, sessions); err != nil {
		w.Close(ctx)
		return fmt.Errorf("display: %w", err)
	}

	w.Wait(ctx)
	w.Close(ctx)

	return nil
}

func (w *workflow) DeleteSession(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return newConfigurationError("session", sessionID, "must not be empty")
	}

	deleted, err := w.store.DeleteSession(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("delete session %s: %w", sessionID, err)
	}

	if !deleted {
		return fmt.Errorf("session %s not found", sessionID)
	}

	slog.Info("Deleted session", "session", sessionID)

	return nil
}

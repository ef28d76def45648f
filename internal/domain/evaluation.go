package domain

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	m "spectra.dev/pkg/spectra/internal/model"
)

// BatchEvaluator evaluates one generation.
type BatchEvaluator interface {
	EvaluateBatch(ctx context.Context, target *m.Target, pop *m.Population) ([]m.TestExecutionResult, error)
}

type batchEvaluator struct {
	executor Executor
	manager  PopulationManager
	threads  int
}

// NewBatchEvaluator runs executions on at most threads goroutines; zero
// means unbounded.
func NewBatchEvaluator(executor Executor, manager PopulationManager, threads int) BatchEvaluator {
	return &batchEvaluator{executor: executor, manager: manager, threads: threads}
}

// EvaluateBatch executes every individual that has no score yet, then scores
// them in population order against the frontier as it was before the batch.
// Failed executions are scored, not returned; only cancellation aborts.
func (b *batchEvaluator) EvaluateBatch(ctx context.Context, target *m.Target, pop *m.Population) ([]m.TestExecutionResult, error) {
	snapshot := pop.Frontier.Copy()

	pending := make([]*m.Individual, 0, len(pop.Individuals))
	for _, ind := range pop.Individuals {
		if !ind.Evaluated {
			pending = append(pending, ind)
		}
	}

	results := make([]m.TestExecutionResult, len(pending))

	var group errgroup.Group
	if b.threads > 0 {
		group.SetLimit(b.threads)
	}

	for i, ind := range pending {
		group.Go(func() error {
			results[i] = b.execute(ctx, target, ind)
			return nil
		})
	}

	_ = group.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if pop.TotalBranches == 0 {
		pop.TotalBranches = discoverBranches(target, results)
	}

	for i, ind := range pending {
		b.manager.Evaluate(ind, results[i], pop.TotalBranches, snapshot)
	}

	if pop.Frontier == nil {
		pop.Frontier = m.NewBranchSet()
	}

	for _, ind := range pending {
		pop.Frontier.Merge(ind.CoveredBranches)
	}

	slog.Debug("Evaluated batch", "session", pop.SessionID, "generation", pop.Generation,
		"executed", len(pending), "frontier", pop.Frontier.Len(), "total", pop.TotalBranches)

	return results, nil
}

func (b *batchEvaluator) execute(ctx context.Context, target *m.Target, ind *m.Individual) m.TestExecutionResult {
	res, err := b.executor.Execute(ctx, target, m.LabelledTest{Name: ind.ID, Inputs: ind.Genes})
	if err != nil {
		evalErr := &EvaluationError{IndividualID: ind.ID, Err: err}
		slog.Warn("Execution failed, scoring as failure", "error", evalErr)

		res = m.TestExecutionResult{Status: m.StatusError, Error: evalErr.Error(), Coverage: emptyCoverage("")}
	}

	if res.Status == m.StatusTimeout {
		res.Coverage = emptyCoverage(res.Coverage.Output)
	}

	// A descriptor branch list is the universe coverage is measured against.
	if target != nil && target.Branches.Len() > 0 {
		res.Coverage.BranchesHit = res.Coverage.BranchesHit.Intersect(target.Branches)
	}

	res.TestID = ind.ID
	res.Genes = append([]float64(nil), ind.Genes...)

	return res
}

// discoverBranches sizes the branch universe from the descriptor, or from
// the branches gcov reported when the descriptor lists none.
func discoverBranches(target *m.Target, results []m.TestExecutionResult) int {
	if target != nil && target.Branches.Len() > 0 {
		return target.Branches.Len()
	}

	known := m.NewBranchSet()
	for _, r := range results {
		known.Merge(r.Coverage.BranchesKnown)
	}

	return known.Len()
}

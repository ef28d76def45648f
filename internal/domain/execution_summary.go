package domain

import (
	"strconv"
	"strings"

	m "spectra.dev/pkg/spectra/internal/model"
	pkg "spectra.dev/pkg/spectra/pkg"
)

// executionSummary aggregates every execution of an evolution run.
type executionSummary struct {
	Total    uint64
	ByStatus map[m.ExecutionStatus]uint64
	// Failing holds one entry per distinct failing input vector, in the
	// order the inputs were first seen.
	Failing []m.Individual
}

// FailureRate is the share of executions that did not pass.
func (s executionSummary) FailureRate() float64 {
	if s.Total == 0 {
		return 0
	}

	return float64(s.Total-s.ByStatus[m.StatusPassed]) / float64(s.Total)
}

func summarizeExecutions(spill pkg.FileSpill[m.TestExecutionResult]) (executionSummary, error) {
	summary := executionSummary{ByStatus: map[m.ExecutionStatus]uint64{}}
	seen := map[string]struct{}{}

	err := spill.Range(func(_ uint64, res m.TestExecutionResult) error {
		summary.Total++
		summary.ByStatus[res.Status]++

		switch res.Status {
		case m.StatusFailed, m.StatusCrash:
			key := genesKey(res.Genes)
			if _, ok := seen[key]; ok {
				return nil
			}

			seen[key] = struct{}{}
			summary.Failing = append(summary.Failing, m.Individual{
				ID:              res.TestID,
				Genes:           res.Genes,
				Status:          res.Status,
				CoveredBranches: res.Coverage.BranchesHit,
			})
		case m.StatusPassed, m.StatusError, m.StatusCompileError, m.StatusTimeout:
			// Only wrong answers and crashes are reported as failing inputs.
		}

		return nil
	})
	if err != nil {
		return executionSummary{}, err
	}

	return summary, nil
}

func genesKey(genes []float64) string {
	parts := make([]string, len(genes))
	for i, g := range genes {
		parts[i] = strconv.FormatFloat(g, 'g', -1, 64)
	}

	return strings.Join(parts, ",")
}

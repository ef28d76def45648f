package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "spectra.dev/pkg/spectra/internal/model"
)

func resultWith(status m.ExecutionStatus, branches ...string) m.TestExecutionResult {
	return m.TestExecutionResult{
		Status:   status,
		Coverage: m.CoverageReport{BranchesHit: m.NewBranchSet(branches...)},
	}
}

func TestFitnessScore(t *testing.T) {
	eval, err := NewFitnessEvaluator(DefaultFitnessConfig())
	require.NoError(t, err)

	frontier := m.NewBranchSet("L1:b0", "L1:b1")

	tests := []struct {
		name   string
		result m.TestExecutionResult
		total  int
		want   float64
	}{
		{"zero total branches", resultWith(m.StatusPassed, "L1:b0"), 0, 0},
		{"only known branches", resultWith(m.StatusPassed, "L1:b0", "L1:b1"), 8, 0.25},
		{"new branches earn novelty", resultWith(m.StatusPassed, "L1:b0", "L2:b0"), 8, 0.375},
		{"failure is penalized", resultWith(m.StatusFailed, "L1:b0", "L2:b0"), 8, 0.1875},
		{"crash is penalized", resultWith(m.StatusCrash, "L2:b0", "L2:b1"), 4, 0.5},
		{"clamped to one", resultWith(m.StatusPassed, "L3:b0", "L3:b1"), 2, 1},
		{"no coverage", resultWith(m.StatusTimeout), 8, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, eval.Score(tt.result, tt.total, frontier), 1e-9)
		})
	}

	t.Run("failing never beats passing with equal coverage", func(t *testing.T) {
		pass := eval.Score(resultWith(m.StatusPassed, "L5:b0"), 10, frontier)
		fail := eval.Score(resultWith(m.StatusFailed, "L5:b0"), 10, frontier)

		assert.Less(t, fail, pass)
	})

	t.Run("frontier is not modified", func(t *testing.T) {
		eval.Score(resultWith(m.StatusPassed, "L9:b0"), 10, frontier)

		assert.Equal(t, 2, frontier.Len())
	})
}

func TestNewFitnessEvaluatorValidation(t *testing.T) {
	_, err := NewFitnessEvaluator(FitnessConfig{NoveltyWeight: -1, FailurePenalty: 0.5})
	require.ErrorIs(t, err, ErrConfiguration)

	_, err = NewFitnessEvaluator(FitnessConfig{NoveltyWeight: 1, FailurePenalty: 1.5})
	require.ErrorIs(t, err, ErrConfiguration)
}

func TestFitnessAggregate(t *testing.T) {
	eval, err := NewFitnessEvaluator(DefaultFitnessConfig())
	require.NoError(t, err)

	a := &m.Individual{ID: "a", Fitness: 0.2}
	b := &m.Individual{ID: "b", Fitness: 0.8}
	c := &m.Individual{ID: "c", Fitness: 0.2}
	d := &m.Individual{ID: "d", Fitness: 0.4}

	summary := eval.Aggregate([]*m.Individual{a, b, c, d})

	assert.InDelta(t, 0.8, summary.Best, 1e-9)
	assert.InDelta(t, 0.4, summary.Mean, 1e-9)
	assert.InDelta(t, 0.2, summary.Min, 1e-9)

	ids := make([]string, 0, len(summary.Ranking))
	for _, ind := range summary.Ranking {
		ids = append(ids, ind.ID)
	}

	assert.Equal(t, []string{"b", "d", "a", "c"}, ids)
	assert.Equal(t, FitnessSummary{}, eval.Aggregate(nil))
}

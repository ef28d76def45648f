package domain

import (
	"sort"

	m "spectra.dev/pkg/spectra/internal/model"
)

// Fitness defaults.
const (
	DefaultNoveltyWeight  = 1.0
	DefaultFailurePenalty = 0.5
)

// FitnessConfig tunes the fitness evaluator.
type FitnessConfig struct {
	// NoveltyWeight scales the bonus for branches missing from the frontier.
	NoveltyWeight float64
	// FailurePenalty multiplies the score of any non-passing execution.
	FailurePenalty float64
}

// DefaultFitnessConfig returns the standard weights.
func DefaultFitnessConfig() FitnessConfig {
	return FitnessConfig{
		NoveltyWeight:  DefaultNoveltyWeight,
		FailurePenalty: DefaultFailurePenalty,
	}
}

// FitnessSummary aggregates one generation. Ranking is fitness descending
// with the original order kept on ties.
type FitnessSummary struct {
	Best    float64
	Mean    float64
	Min     float64
	Ranking []*m.Individual
}

// FitnessEvaluator turns execution results into fitness values.
type FitnessEvaluator interface {
	Score(result m.TestExecutionResult, totalBranches int, frontier m.BranchSet) float64
	Aggregate(individuals []*m.Individual) FitnessSummary
}

type fitnessEvaluator struct {
	cfg FitnessConfig
}

// NewFitnessEvaluator validates cfg and returns an evaluator.
func NewFitnessEvaluator(cfg FitnessConfig) (FitnessEvaluator, error) {
	if cfg.NoveltyWeight < 0 {
		return nil, newConfigurationError("fitness.novelty_weight", cfg.NoveltyWeight, "must not be negative")
	}

	if err := validateRate("fitness.failure_penalty", cfg.FailurePenalty); err != nil {
		return nil, err
	}

	return &fitnessEvaluator{cfg: cfg}, nil
}

// Score computes coverage plus novelty, penalized for non-passing runs and
// clamped to [0, 1]. frontier is only read.
func (f *fitnessEvaluator) Score(result m.TestExecutionResult, totalBranches int, frontier m.BranchSet) float64 {
	if totalBranches <= 0 {
		return 0
	}

	hit := result.Coverage.BranchesHit
	total := float64(totalBranches)

	base := float64(hit.Len()) / total
	novelty := f.cfg.NoveltyWeight * float64(hit.Diff(frontier).Len()) / total

	score := base + novelty
	if !result.Status.IsPassed() {
		score *= f.cfg.FailurePenalty
	}

	return clamp01(score)
}

func (f *fitnessEvaluator) Aggregate(individuals []*m.Individual) FitnessSummary {
	if len(individuals) == 0 {
		return FitnessSummary{}
	}

	ranking := append([]*m.Individual(nil), individuals...)
	sort.SliceStable(ranking, func(i, j int) bool {
		return ranking[i].Fitness > ranking[j].Fitness
	})

	sum := 0.0
	low := ranking[len(ranking)-1].Fitness

	for _, ind := range ranking {
		sum += ind.Fitness
	}

	return FitnessSummary{
		Best:    ranking[0].Fitness,
		Mean:    sum / float64(len(ranking)),
		Min:     low,
		Ranking: ranking,
	}
}

func clamp01(v float64) float64 {
	switch {
	case v != v || v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

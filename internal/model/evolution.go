package model

import "time"

// GenerationStats summarizes one evaluated generation.
type GenerationStats struct {
	SessionID     string    `json:"session_id" yaml:"session_id"`
	Generation    int       `json:"generation" yaml:"generation"`
	Best          float64   `json:"best" yaml:"best"`
	Mean          float64   `json:"mean" yaml:"mean"`
	Min           float64   `json:"min" yaml:"min"`
	BestGenes     []float64 `json:"best_genes" yaml:"best_genes"`
	Executed      int       `json:"executed" yaml:"executed"`
	Failures      int       `json:"failures" yaml:"failures"`
	Frontier      int       `json:"frontier" yaml:"frontier"`
	TotalBranches int       `json:"total_branches" yaml:"total_branches"`
}

// Coverage is the fraction of known branches in the frontier.
func (s GenerationStats) Coverage() float64 {
	if s.TotalBranches == 0 {
		return 0
	}

	return float64(s.Frontier) / float64(s.TotalBranches)
}

// EvolutionResult is the outcome of an evolve run.
type EvolutionResult struct {
	SessionID     string            `json:"session_id" yaml:"session_id"`
	Target        string            `json:"target" yaml:"target"`
	Complexity    int               `json:"complexity" yaml:"complexity"`
	Generations   int               `json:"generations" yaml:"generations"`
	Best          *Individual       `json:"best" yaml:"best"`
	Frontier      []string          `json:"frontier" yaml:"frontier"`
	TotalBranches int               `json:"total_branches" yaml:"total_branches"`
	Executions    uint64            `json:"executions" yaml:"executions"`
	Failing       []Individual      `json:"failing,omitempty" yaml:"failing,omitempty"`
	History       []GenerationStats `json:"history" yaml:"history"`
	StoppedEarly  bool              `json:"stopped_early" yaml:"stopped_early"`
	Duration      time.Duration     `json:"duration" yaml:"duration"`
}

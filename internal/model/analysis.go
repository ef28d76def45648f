package model

import (
	"fmt"
	"time"
)

// SuspiciousLine is one ranked line of a localization analysis.
type SuspiciousLine struct {
	Line        int     `json:"line" yaml:"line"`
	Text        string  `json:"text" yaml:"text"`
	Score       float64 `json:"score" yaml:"score"`
	FailedCount int     `json:"failed_count" yaml:"failed_count"`
	PassedCount int     `json:"passed_count" yaml:"passed_count"`
}

// FaultLocalizationAnalysis is the result of one localization pass. Lines are
// ordered by score descending, then line ascending. Degenerate is set when
// no test failed, so no fault evidence exists.
type FaultLocalizationAnalysis struct {
	ID          string           `json:"id" yaml:"id"`
	SessionID   string           `json:"session_id" yaml:"session_id"`
	Source      string           `json:"source" yaml:"source"`
	Formula     string           `json:"formula" yaml:"formula"`
	TotalTests  int              `json:"total_tests" yaml:"total_tests"`
	TotalPassed int              `json:"total_passed" yaml:"total_passed"`
	TotalFailed int              `json:"total_failed" yaml:"total_failed"`
	Skipped     int              `json:"skipped" yaml:"skipped"`
	Degenerate  bool             `json:"degenerate" yaml:"degenerate"`
	Lines       []SuspiciousLine `json:"lines" yaml:"lines"`
	CreatedAt   time.Time        `json:"created_at" yaml:"created_at"`
}

// Priority classifies how urgently a line deserves inspection.
type Priority string

// Recommendation priorities.
const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Recommendation is one actionable hint derived from an analysis.
type Recommendation struct {
	Priority Priority `json:"priority" yaml:"priority"`
	Message  string   `json:"message" yaml:"message"`
	Lines    []int    `json:"lines,omitempty" yaml:"lines,omitempty"`
}

// ReportSummary condenses the totals of an analysis.
type ReportSummary struct {
	Source         string  `json:"source" yaml:"source"`
	Formula        string  `json:"formula" yaml:"formula"`
	TotalTests     int     `json:"total_tests" yaml:"total_tests"`
	PassedTests    int     `json:"passed_tests" yaml:"passed_tests"`
	FailedTests    int     `json:"failed_tests" yaml:"failed_tests"`
	SkippedTests   int     `json:"skipped_tests" yaml:"skipped_tests"`
	SuspiciousLine int     `json:"suspicious_lines" yaml:"suspicious_lines"`
	MaxScore       float64 `json:"max_score" yaml:"max_score"`
	Degenerate     bool    `json:"degenerate" yaml:"degenerate"`
}

// Report is the human-facing rendering of an analysis.
type Report struct {
	ID              string           `json:"id" yaml:"id"`
	GeneratedAt     time.Time        `json:"generated_at" yaml:"generated_at"`
	AnalysisID      string           `json:"analysis_id" yaml:"analysis_id"`
	Summary         ReportSummary    `json:"summary" yaml:"summary"`
	TopLines        []SuspiciousLine `json:"top_lines" yaml:"top_lines"`
	Recommendations []Recommendation `json:"recommendations" yaml:"recommendations"`
}

// SessionInfo describes a stored session.
type SessionInfo struct {
	ID          string    `json:"id" yaml:"id"`
	Generation  int       `json:"generation" yaml:"generation"`
	BestFitness float64   `json:"best_fitness" yaml:"best_fitness"`
	Executions  int       `json:"executions" yaml:"executions"`
	Analyses    int       `json:"analyses" yaml:"analyses"`
	UpdatedAt   time.Time `json:"updated_at" yaml:"updated_at"`
}

func placeholderLine(line int) string {
	return fmt.Sprintf("<line %d>", line)
}

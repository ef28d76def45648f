package model

import (
	"sort"
	"strings"
	"time"
)

// NotExecutable marks a line that carries no executable code.
const NotExecutable = -1

// ExecutionStatus is the outcome of one program execution.
type ExecutionStatus string

// Execution statuses reported by the execution backend.
const (
	StatusPassed       ExecutionStatus = "passed"
	StatusFailed       ExecutionStatus = "failed"
	StatusError        ExecutionStatus = "error"
	StatusCompileError ExecutionStatus = "compile_error"
	StatusTimeout      ExecutionStatus = "timeout"
	StatusCrash        ExecutionStatus = "crash"
)

// IsPassed reports whether the status counts as a passing execution.
func (s ExecutionStatus) IsPassed() bool {
	return s == StatusPassed
}

// CoverageReport is the coverage of one execution. It is not modified after
// the execution backend returns it.
type CoverageReport struct {
	LineCounts    map[int]int   `json:"line_counts"`
	BranchesHit   BranchSet     `json:"branches_hit"`
	BranchesKnown BranchSet     `json:"branches_known"`
	Output        string        `json:"output"`
	Duration      time.Duration `json:"duration"`
}

// CoveredLines returns the lines executed at least once, ascending.
func (c CoverageReport) CoveredLines() []int {
	lines := make([]int, 0, len(c.LineCounts))
	for line, count := range c.LineCounts {
		if count > 0 {
			lines = append(lines, line)
		}
	}

	sort.Ints(lines)

	return lines
}

// TestExecutionResult ties an execution outcome to the test or individual
// that produced it.
type TestExecutionResult struct {
	TestID   string          `json:"test_id"`
	Status   ExecutionStatus `json:"status"`
	Coverage CoverageReport  `json:"coverage"`
	Genes    []float64       `json:"genes"`
	Error    string          `json:"error,omitempty"`
}

func splitLines(code []byte) []string {
	if len(code) == 0 {
		return nil
	}

	return strings.Split(strings.TrimRight(string(code), "\n"), "\n")
}

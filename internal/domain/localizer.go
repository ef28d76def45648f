package domain

import (
	"sort"

	m "spectra.dev/pkg/spectra/internal/model"
)

// LocalizeInput carries the labelled executions of one localization pass.
type LocalizeInput struct {
	ID        string
	SessionID string
	Target    *m.Target
	Results   []m.TestExecutionResult
}

// Localizer ranks source lines by suspiciousness. It is pure and
// synchronous.
type Localizer interface {
	Localize(input LocalizeInput) m.FaultLocalizationAnalysis
}

type localizer struct {
	formula Formula
}

// NewLocalizer returns a Localizer scoring with formula.
func NewLocalizer(formula Formula) Localizer {
	return &localizer{formula: formula}
}

// lineCounts is the shared counting step behind every formula.
type lineCounts struct {
	failed      map[int]int
	passed      map[int]int
	totalFailed int
	totalPassed int
	skipped     int
}

func countSpectra(results []m.TestExecutionResult) lineCounts {
	c := lineCounts{failed: map[int]int{}, passed: map[int]int{}}

	for _, r := range results {
		var bucket map[int]int

		switch r.Status {
		case m.StatusPassed:
			c.totalPassed++
			bucket = c.passed
		case m.StatusFailed, m.StatusCrash:
			c.totalFailed++
			bucket = c.failed
		default:
			// error, compile_error and timeout carry no fault evidence
			c.skipped++
			continue
		}

		for _, line := range r.Coverage.CoveredLines() {
			bucket[line]++
		}
	}

	return c
}

func (l *localizer) Localize(input LocalizeInput) m.FaultLocalizationAnalysis {
	counts := countSpectra(input.Results)

	analysis := m.FaultLocalizationAnalysis{
		ID:          input.ID,
		SessionID:   input.SessionID,
		Formula:     l.formula.Name(),
		TotalTests:  len(input.Results),
		TotalPassed: counts.totalPassed,
		TotalFailed: counts.totalFailed,
		Skipped:     counts.skipped,
		Lines:       []m.SuspiciousLine{},
	}

	if input.Target != nil {
		analysis.Source = input.Target.Name
	}

	if counts.totalFailed == 0 {
		analysis.Degenerate = true
		return analysis
	}

	seen := map[int]struct{}{}
	for line := range counts.failed {
		seen[line] = struct{}{}
	}

	for line := range counts.passed {
		seen[line] = struct{}{}
	}

	for line := range seen {
		spectrum := Spectrum{
			Failed:      counts.failed[line],
			Passed:      counts.passed[line],
			TotalFailed: counts.totalFailed,
			TotalPassed: counts.totalPassed,
		}

		analysis.Lines = append(analysis.Lines, m.SuspiciousLine{
			Line:        line,
			Text:        lineText(input.Target, line),
			Score:       l.formula.Score(spectrum),
			FailedCount: spectrum.Failed,
			PassedCount: spectrum.Passed,
		})
	}

	sort.Slice(analysis.Lines, func(i, j int) bool {
		a, b := analysis.Lines[i], analysis.Lines[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}

		return a.Line < b.Line
	})

	return analysis
}

func lineText(target *m.Target, line int) string {
	if target == nil {
		return (&m.Target{}).LineText(line)
	}

	return target.LineText(line)
}

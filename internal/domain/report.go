package domain

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	m "spectra.dev/pkg/spectra/internal/model"
)

// Report tuning.
const (
	DefaultTopLines   = 10
	clusterGap        = 5
	clusterWindow     = 5
	smallSuite        = 5
	onlyFailedPreview = 3
)

// BuildReport condenses analysis into its topN lines plus recommendations.
// topN <= 0 uses DefaultTopLines.
func BuildReport(analysis m.FaultLocalizationAnalysis, topN int) m.Report {
	if topN <= 0 {
		topN = DefaultTopLines
	}

	top := analysis.Lines
	if len(top) > topN {
		top = top[:topN]
	}

	top = slices.Clone(top)
	if top == nil {
		top = []m.SuspiciousLine{}
	}

	summary := m.ReportSummary{
		Source:         analysis.Source,
		Formula:        analysis.Formula,
		TotalTests:     analysis.TotalTests,
		PassedTests:    analysis.TotalPassed,
		FailedTests:    analysis.TotalFailed,
		SkippedTests:   analysis.Skipped,
		SuspiciousLine: len(analysis.Lines),
		Degenerate:     analysis.Degenerate,
	}

	if len(top) > 0 {
		summary.MaxScore = top[0].Score
	}

	return m.Report{
		ID:              uuid.NewString(),
		GeneratedAt:     time.Now().UTC(),
		AnalysisID:      analysis.ID,
		Summary:         summary,
		TopLines:        top,
		Recommendations: recommend(analysis, top),
	}
}

func recommend(analysis m.FaultLocalizationAnalysis, top []m.SuspiciousLine) []m.Recommendation {
	if analysis.Degenerate {
		return []m.Recommendation{{
			Priority: m.PriorityLow,
			Message:  "No test failed, so there is no fault evidence. Add a failing test case to localize.",
		}}
	}

	if len(top) == 0 {
		return []m.Recommendation{{
			Priority: m.PriorityLow,
			Message:  "No covered lines were reported. Check that the target was built with coverage.",
		}}
	}

	recs := []m.Recommendation{topLineRecommendation(top[0])}

	var onlyFailed []int

	for _, line := range top {
		if line.PassedCount == 0 && line.FailedCount > 0 {
			onlyFailed = append(onlyFailed, line.Line)
		}
	}

	if len(onlyFailed) > 0 {
		preview := onlyFailed[:min(len(onlyFailed), onlyFailedPreview)]
		recs = append(recs, m.Recommendation{
			Priority: m.PriorityHigh,
			Message:  fmt.Sprintf("%d line(s) run only in failing tests: %v", len(onlyFailed), preview),
			Lines:    preview,
		})
	}

	if lo, hi, ok := cluster(top); ok {
		recs = append(recs, m.Recommendation{
			Priority: m.PriorityMedium,
			Message:  fmt.Sprintf("Suspicious lines cluster around lines %d-%d; the fault is likely in that region.", lo, hi),
			Lines:    []int{lo, hi},
		})
	}

	if analysis.TotalTests < smallSuite {
		recs = append(recs, m.Recommendation{
			Priority: m.PriorityLow,
			Message:  fmt.Sprintf("Only %d test(s) ran. More tests sharpen the ranking.", analysis.TotalTests),
		})
	}

	switch {
	case analysis.TotalPassed == 0:
		recs = append(recs, m.Recommendation{
			Priority: m.PriorityHigh,
			Message:  "No passing tests. Every covered line scores alike without passing runs; add passing test cases.",
		})
	case analysis.TotalFailed > 2*analysis.TotalPassed:
		recs = append(recs, m.Recommendation{
			Priority: m.PriorityMedium,
			Message: fmt.Sprintf("Suite is skewed (%d failed vs %d passed). Add passing tests.",
				analysis.TotalFailed, analysis.TotalPassed),
		})
	}

	return recs
}

func topLineRecommendation(line m.SuspiciousLine) m.Recommendation {
	rec := m.Recommendation{Lines: []int{line.Line}}

	switch {
	case line.Score > 0.8:
		rec.Priority = m.PriorityHigh
		rec.Message = fmt.Sprintf("Line %d is highly suspicious (%.2f). Start debugging here.", line.Line, line.Score)
	case line.Score > 0.5:
		rec.Priority = m.PriorityMedium
		rec.Message = fmt.Sprintf("Line %d is moderately suspicious (%.2f). Review it carefully.", line.Line, line.Score)
	default:
		rec.Priority = m.PriorityLow
		rec.Message = fmt.Sprintf("Top line %d only scores %.2f. The fault may be subtle.", line.Line, line.Score)
	}

	return rec
}

// cluster reports the span of the first top lines when at least three of
// them lie no more than clusterGap lines apart from each other.
func cluster(top []m.SuspiciousLine) (int, int, bool) {
	if len(top) < 3 {
		return 0, 0, false
	}

	window := top[:min(len(top), clusterWindow)]

	lines := make([]int, len(window))
	for i, l := range window {
		lines[i] = l.Line
	}

	slices.Sort(lines)

	for i := 1; i < len(lines); i++ {
		if lines[i]-lines[i-1] > clusterGap {
			return 0, 0, false
		}
	}

	return lines[0], lines[len(lines)-1], true
}

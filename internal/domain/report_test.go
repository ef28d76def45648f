package domain

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "spectra.dev/pkg/spectra/internal/model"
)

func analysisWith(lines ...m.SuspiciousLine) m.FaultLocalizationAnalysis {
	return m.FaultLocalizationAnalysis{
		ID:          "analysis-1",
		Source:      "triangle",
		Formula:     FormulaTarantula,
		TotalTests:  8,
		TotalPassed: 6,
		TotalFailed: 2,
		Lines:       lines,
	}
}

func priorities(recs []m.Recommendation) []m.Priority {
	out := make([]m.Priority, len(recs))
	for i, r := range recs {
		out[i] = r.Priority
	}

	return out
}

func TestBuildReport_Summary(t *testing.T) {
	analysis := analysisWith(
		m.SuspiciousLine{Line: 12, Score: 0.9, FailedCount: 2, PassedCount: 1},
		m.SuspiciousLine{Line: 30, Score: 0.4, FailedCount: 2, PassedCount: 4},
		m.SuspiciousLine{Line: 60, Score: 0.1, FailedCount: 1, PassedCount: 6},
	)

	report := BuildReport(analysis, 2)

	_, err := uuid.Parse(report.ID)
	require.NoError(t, err)
	assert.Equal(t, "analysis-1", report.AnalysisID)
	assert.False(t, report.GeneratedAt.IsZero())

	require.Len(t, report.TopLines, 2)
	assert.Equal(t, 12, report.TopLines[0].Line)
	assert.Equal(t, 3, report.Summary.SuspiciousLine)
	assert.InDelta(t, 0.9, report.Summary.MaxScore, 1e-9)
	assert.Equal(t, 6, report.Summary.PassedTests)
	assert.Equal(t, 2, report.Summary.FailedTests)

	report.TopLines[0].Line = 99
	assert.Equal(t, 12, analysis.Lines[0].Line)
}

func TestBuildReport_DefaultTopN(t *testing.T) {
	lines := make([]m.SuspiciousLine, 25)
	for i := range lines {
		lines[i] = m.SuspiciousLine{Line: i*10 + 1, Score: 0.3, FailedCount: 1, PassedCount: 1}
	}

	report := BuildReport(analysisWith(lines...), 0)

	assert.Len(t, report.TopLines, DefaultTopLines)
}

func TestBuildReport_Recommendations(t *testing.T) {
	tests := []struct {
		name     string
		analysis m.FaultLocalizationAnalysis
		want     []m.Priority
		contains string
	}{
		{
			name:     "high top line run only by failing tests",
			analysis: analysisWith(m.SuspiciousLine{Line: 12, Score: 1, FailedCount: 2}),
			want:     []m.Priority{m.PriorityHigh, m.PriorityHigh},
			contains: "run only in failing tests: [12]",
		},
		{
			name:     "medium top line",
			analysis: analysisWith(m.SuspiciousLine{Line: 7, Score: 0.6, FailedCount: 2, PassedCount: 3}),
			want:     []m.Priority{m.PriorityMedium},
			contains: "moderately suspicious",
		},
		{
			name:     "low top line",
			analysis: analysisWith(m.SuspiciousLine{Line: 7, Score: 0.5, FailedCount: 2, PassedCount: 6}),
			want:     []m.Priority{m.PriorityLow},
			contains: "may be subtle",
		},
		{
			name: "clustered lines",
			analysis: analysisWith(
				m.SuspiciousLine{Line: 20, Score: 0.7, FailedCount: 2, PassedCount: 2},
				m.SuspiciousLine{Line: 24, Score: 0.6, FailedCount: 2, PassedCount: 3},
				m.SuspiciousLine{Line: 18, Score: 0.55, FailedCount: 2, PassedCount: 3},
			),
			want:     []m.Priority{m.PriorityMedium, m.PriorityMedium},
			contains: "cluster around lines 18-24",
		},
		{
			name: "spread lines do not cluster",
			analysis: analysisWith(
				m.SuspiciousLine{Line: 20, Score: 0.7, FailedCount: 2, PassedCount: 2},
				m.SuspiciousLine{Line: 40, Score: 0.6, FailedCount: 2, PassedCount: 3},
				m.SuspiciousLine{Line: 18, Score: 0.55, FailedCount: 2, PassedCount: 3},
			),
			want: []m.Priority{m.PriorityMedium},
		},
		{
			name: "small skewed suite",
			analysis: m.FaultLocalizationAnalysis{
				TotalTests: 4, TotalPassed: 1, TotalFailed: 3,
				Lines: []m.SuspiciousLine{{Line: 3, Score: 0.6, FailedCount: 3, PassedCount: 1}},
			},
			want:     []m.Priority{m.PriorityMedium, m.PriorityLow, m.PriorityMedium},
			contains: "skewed (3 failed vs 1 passed)",
		},
		{
			name: "no passing tests",
			analysis: m.FaultLocalizationAnalysis{
				TotalTests: 6, TotalFailed: 6,
				Lines: []m.SuspiciousLine{{Line: 3, Score: 0.5, FailedCount: 6}},
			},
			want:     []m.Priority{m.PriorityLow, m.PriorityHigh, m.PriorityHigh},
			contains: "No passing tests",
		},
		{
			name:     "degenerate",
			analysis: m.FaultLocalizationAnalysis{TotalTests: 6, TotalPassed: 6, Degenerate: true, Lines: []m.SuspiciousLine{}},
			want:     []m.Priority{m.PriorityLow},
			contains: "No test failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := BuildReport(tt.analysis, 10)

			assert.Equal(t, tt.want, priorities(report.Recommendations))

			if tt.contains == "" {
				return
			}

			found := false
			for _, r := range report.Recommendations {
				if strings.Contains(r.Message, tt.contains) {
					found = true
				}
			}

			assert.True(t, found, "no recommendation mentions %q", tt.contains)
		})
	}
}

func TestBuildReport_DegenerateHasEmptyTopLines(t *testing.T) {
	report := BuildReport(m.FaultLocalizationAnalysis{Degenerate: true}, 5)

	require.NotNil(t, report.TopLines)
	assert.Empty(t, report.TopLines)
	assert.True(t, report.Summary.Degenerate)
	assert.Zero(t, report.Summary.MaxScore)
}

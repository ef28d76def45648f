package controller

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"

	m "spectra.dev/pkg/spectra/internal/model"
)

const maxLineTextWidth = 60

func renderGenerationLine(stats m.GenerationStats) string {
	return fmt.Sprintf("gen %3d  best %.4f  mean %.4f  min %.4f  branches %d/%d (%.1f%%)  runs %s  failures %d",
		stats.Generation, stats.Best, stats.Mean, stats.Min,
		stats.Frontier, stats.TotalBranches, stats.Coverage()*100,
		humanize.Comma(int64(stats.Executed)), stats.Failures)
}

func renderEvolutionTable(result m.EvolutionResult) string {
	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{"Generation", "Best", "Mean", "Min", "Branches"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnAlignment([]int{tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT})

	for _, stats := range result.History {
		table.Append([]string{
			fmt.Sprintf("%d", stats.Generation),
			fmt.Sprintf("%.4f", stats.Best),
			fmt.Sprintf("%.4f", stats.Mean),
			fmt.Sprintf("%.4f", stats.Min),
			fmt.Sprintf("%d/%d", stats.Frontier, stats.TotalBranches),
		})
	}

	table.SetFooter([]string{
		fmt.Sprintf("Generations %d", result.Generations),
		"", "", "",
		fmt.Sprintf("%d/%d", len(result.Frontier), result.TotalBranches),
	})

	table.Render()

	return tableBuffer.String()
}

func renderEvolutionSummary(result m.EvolutionResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Session %s (%s, complexity %d)\n", result.SessionID, result.Target, result.Complexity)
	fmt.Fprintf(&b, "Executions: %s in %s\n", humanize.Comma(int64(result.Executions)), result.Duration.Round(time.Millisecond))

	if result.Best != nil {
		fmt.Fprintf(&b, "Best individual: %v fitness %.4f\n", result.Best.Genes, result.Best.Fitness)
	}

	if result.StoppedEarly {
		b.WriteString("Stopped early: target fitness reached\n")
	}

	if len(result.Failing) > 0 {
		fmt.Fprintf(&b, "Failing inputs found: %d\n", len(result.Failing))

		for _, ind := range result.Failing {
			fmt.Fprintf(&b, "  %v -> %s\n", ind.Genes, ind.Status)
		}
	}

	return b.String()
}

func renderReportTable(report m.Report) string {
	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{"Rank", "Line", "Score", "Failed", "Passed", "Source"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetAutoWrapText(false)
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_LEFT,
	})

	for i, line := range report.TopLines {
		table.Append([]string{
			fmt.Sprintf("%d", i+1),
			fmt.Sprintf("%d", line.Line),
			fmt.Sprintf("%.3f", line.Score),
			fmt.Sprintf("%d", line.FailedCount),
			fmt.Sprintf("%d", line.PassedCount),
			truncate(strings.TrimSpace(line.Text), maxLineTextWidth),
		})
	}

	table.Render()

	return tableBuffer.String()
}

func renderReportSummary(report m.Report) string {
	s := report.Summary

	var b strings.Builder

	fmt.Fprintf(&b, "Fault localization for %s (%s)\n", s.Source, s.Formula)
	fmt.Fprintf(&b, "Tests: %d total, %d passed, %d failed, %d skipped\n", s.TotalTests, s.PassedTests, s.FailedTests, s.SkippedTests)

	if s.Degenerate {
		b.WriteString("No failing tests: nothing to localize\n")
	} else {
		fmt.Fprintf(&b, "Suspicious lines: %d (max score %.3f)\n", s.SuspiciousLine, s.MaxScore)
	}

	return b.String()
}

func renderRecommendations(report m.Report) string {
	if len(report.Recommendations) == 0 {
		return ""
	}

	var b strings.Builder

	b.WriteString("Recommendations:\n")

	for _, rec := range report.Recommendations {
		fmt.Fprintf(&b, "  [%s] %s\n", rec.Priority, rec.Message)
	}

	return b.String()
}

func renderSessionsTable(sessions []m.SessionInfo) string {
	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{"Session", "Generation", "Best", "Executions", "Analyses", "Updated"})
	table.SetBorder(false)
	table.SetCenterSeparator("")

	for _, s := range sessions {
		table.Append([]string{
			s.ID,
			fmt.Sprintf("%d", s.Generation),
			fmt.Sprintf("%.4f", s.BestFitness),
			humanize.Comma(int64(s.Executions)),
			fmt.Sprintf("%d", s.Analyses),
			humanize.Time(s.UpdatedAt),
		})
	}

	table.SetFooter([]string{fmt.Sprintf("Total %d", len(sessions)), "", "", "", "", ""})
	table.Render()

	return tableBuffer.String()
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}

	return string(r[:width-1]) + "…"
}

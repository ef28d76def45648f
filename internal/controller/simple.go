package controller

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	m "spectra.dev/pkg/spectra/internal/model"
)

// SimpleUI implements UI by printing to the command output.
type SimpleUI struct {
	cmd *cobra.Command
}

// NewSimpleUI creates a new SimpleUI.
func NewSimpleUI(cmd *cobra.Command) *SimpleUI {
	return &SimpleUI{cmd: cmd}
}

// Start initializes the UI.
func (s *SimpleUI) Start(ctx context.Context, _ ...StartOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return nil
}

// Close finalizes the UI.
func (s *SimpleUI) Close(ctx context.Context) {
	if err := ctx.Err(); err != nil {
		return
	}
}

// Wait blocks until the UI is closed (no-op for SimpleUI).
func (s *SimpleUI) Wait(ctx context.Context) {
	if err := ctx.Err(); err != nil {
		return
	}
	// SimpleUI doesn't block - it just prints and continues
}

// DisplayGeneration prints one progress line.
func (s *SimpleUI) DisplayGeneration(ctx context.Context, stats m.GenerationStats) {
	if err := ctx.Err(); err != nil {
		return
	}

	s.printf("%s\n", renderGenerationLine(stats))
}

// DisplayEvolutionResult prints the per-generation table and the summary.
func (s *SimpleUI) DisplayEvolutionResult(ctx context.Context, result m.EvolutionResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.printf("\n%s\n%s", renderEvolutionTable(result), renderEvolutionSummary(result))

	return nil
}

// DisplayReport prints the ranked lines and recommendations.
func (s *SimpleUI) DisplayReport(ctx context.Context, report m.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.printf("%s", renderReportSummary(report))

	if len(report.TopLines) > 0 {
		s.printf("\n%s", renderReportTable(report))
	}

	if recs := renderRecommendations(report); recs != "" {
		s.printf("\n%s", recs)
	}

	return nil
}

// DisplaySessions prints the stored sessions.
func (s *SimpleUI) DisplaySessions(ctx context.Context, sessions []m.SessionInfo) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if len(sessions) == 0 {
		s.printf("No stored sessions\n")
		return nil
	}

	s.printf("%s", renderSessionsTable(sessions))

	return nil
}

func (s *SimpleUI) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(s.cmd.OutOrStdout(), format, args...)
}

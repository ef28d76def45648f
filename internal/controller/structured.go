package controller

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	m "spectra.dev/pkg/spectra/internal/model"
)

// StructuredUI writes final results as JSON or YAML documents and stays
// silent about progress, so its output can be piped.
type StructuredUI struct {
	cmd    *cobra.Command
	format string
}

// NewStructuredUI creates a StructuredUI for format json or yaml.
func NewStructuredUI(cmd *cobra.Command, format string) *StructuredUI {
	return &StructuredUI{cmd: cmd, format: format}
}

// Start initializes the UI.
func (s *StructuredUI) Start(ctx context.Context, _ ...StartOption) error {
	return ctx.Err()
}

// Close is a no-op.
func (s *StructuredUI) Close(context.Context) {}

// Wait is a no-op.
func (s *StructuredUI) Wait(context.Context) {}

// DisplayGeneration is a no-op; only final documents are written.
func (s *StructuredUI) DisplayGeneration(context.Context, m.GenerationStats) {}

// DisplayEvolutionResult writes the result document.
func (s *StructuredUI) DisplayEvolutionResult(ctx context.Context, result m.EvolutionResult) error {
	return s.encode(ctx, result)
}

// DisplayReport writes the report document.
func (s *StructuredUI) DisplayReport(ctx context.Context, report m.Report) error {
	return s.encode(ctx, report)
}

// DisplaySessions writes the session list.
func (s *StructuredUI) DisplaySessions(ctx context.Context, sessions []m.SessionInfo) error {
	return s.encode(ctx, sessions)
}

func (s *StructuredUI) encode(ctx context.Context, v any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	out := s.cmd.OutOrStdout()

	switch s.format {
	case FormatYAML:
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)

		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}

		return enc.Close()
	default:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")

		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}

		return nil
	}
}

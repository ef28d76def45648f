// Package controller provides output adapters for displaying evolution
// progress, localization reports and stored sessions.
package controller

import (
	"context"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	m "spectra.dev/pkg/spectra/internal/model"
)

// StartMode defines the mode of operation for the UI.
type StartMode int

// Available StartMode values.
const (
	ModeEvolve StartMode = iota
	ModeLocalize
	ModeView
)

// StartOption is a functional option for Start method.
type StartOption func(*StartConfig)

// StartConfig holds configuration for starting the UI.
type StartConfig struct {
	mode  StartMode
	title string
}

// WithEvolveMode sets the UI to evolution mode.
func WithEvolveMode() StartOption {
	return func(c *StartConfig) {
		c.mode = ModeEvolve
	}
}

// WithLocalizeMode sets the UI to localization mode.
func WithLocalizeMode() StartOption {
	return func(c *StartConfig) {
		c.mode = ModeLocalize
	}
}

// WithViewMode sets the UI to read-only browsing of stored results.
func WithViewMode() StartOption {
	return func(c *StartConfig) {
		c.mode = ModeView
	}
}

// WithTitle sets the heading shown by interactive UIs.
func WithTitle(title string) StartOption {
	return func(c *StartConfig) {
		c.title = title
	}
}

func newStartConfig(options ...StartOption) StartConfig {
	cfg := StartConfig{mode: ModeEvolve}
	for _, opt := range options {
		opt(&cfg)
	}

	return cfg
}

// UI defines the interface for displaying workflow output.
// Implementations can use different output methods (simple text, TUI, etc).
type UI interface {
	Start(ctx context.Context, options ...StartOption) error
	Close(ctx context.Context)
	Wait(ctx context.Context) // Wait for UI to finish (user closes it)
	DisplayGeneration(ctx context.Context, stats m.GenerationStats)
	DisplayEvolutionResult(ctx context.Context, result m.EvolutionResult) error
	DisplayReport(ctx context.Context, report m.Report) error
	DisplaySessions(ctx context.Context, sessions []m.SessionInfo) error
}

// Output formats accepted by NewUI.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// NewUI picks the UI for cmd: structured output for json/yaml formats, the
// interactive TUI on a terminal, plain text otherwise.
func NewUI(cmd *cobra.Command, useTTY bool, format string) UI {
	switch format {
	case FormatJSON, FormatYAML:
		return NewStructuredUI(cmd, format)
	}

	if useTTY {
		return NewTUI(cmd.OutOrStdout())
	}

	return NewSimpleUI(cmd)
}

// IsTTY reports whether w is an interactive terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}

	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

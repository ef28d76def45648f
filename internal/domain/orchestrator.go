package domain

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"spectra.dev/pkg/spectra/internal/adapter"
	m "spectra.dev/pkg/spectra/internal/model"
)

const binaryName = "target.bin"

// Executor runs one input vector against a target and reports the
// resulting coverage. A returned error means the run could not be carried
// out at all; program failures are reported through the result status.
type Executor interface {
	Execute(ctx context.Context, target *m.Target, test m.LabelledTest) (m.TestExecutionResult, error)
}

type orchestrator struct {
	fsAdapter   adapter.SourceFSAdapter
	testAdapter adapter.TestRunnerAdapter
}

// NewOrchestrator constructs an Executor that stages the target in a
// scratch directory, compiles it with coverage, runs it and parses gcov.
func NewOrchestrator(fsAdapter adapter.SourceFSAdapter, testAdapter adapter.TestRunnerAdapter) Executor {
	return &orchestrator{
		fsAdapter:   fsAdapter,
		testAdapter: testAdapter,
	}
}

func (o *orchestrator) Execute(ctx context.Context, target *m.Target, test m.LabelledTest) (m.TestExecutionResult, error) {
	result := m.TestExecutionResult{
		TestID: test.Name,
		Genes:  append([]float64(nil), test.Inputs...),
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}

	tmpDir, err := o.fsAdapter.CreateTempDir(ctx, "spectra-run-*")
	if err != nil {
		slog.Error("Failed to create temp dir", "error", err)
		return result, fmt.Errorf("failed to create temp dir: %w", err)
	}

	defer o.cleanupTempDir(ctx, tmpDir)

	source := filepath.Base(string(target.Source))
	workDir := string(tmpDir)

	if err := o.fsAdapter.WriteFile(ctx, o.fsAdapter.JoinPath(ctx, workDir, source), target.Code, 0o600); err != nil {
		slog.Error("Failed to write target source", "tmpDir", tmpDir, "error", err)
		return result, fmt.Errorf("failed to write target source: %w", err)
	}

	binary := string(o.fsAdapter.JoinPath(ctx, workDir, binaryName))

	if out, err := o.testAdapter.Compile(ctx, workDir, source, binary); err != nil {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}

		slog.Debug("Target failed to compile", "target", target.Name, "error", err)

		result.Status = m.StatusCompileError
		result.Error = strings.TrimSpace(out)
		result.Coverage = emptyCoverage(out)

		return result, nil
	}

	run, err := o.testAdapter.Run(ctx, workDir, binary, FormatInputs(target.Parameters, test.Inputs))
	if ctx.Err() != nil {
		return result, ctx.Err()
	}

	if err != nil {
		slog.Error("Failed to run target", "target", target.Name, "test", test.Name, "error", err)
		return result, fmt.Errorf("failed to run target: %w", err)
	}

	result.Status = statusOf(run, test.Expected)
	result.Coverage = emptyCoverage(run.Stdout)
	result.Coverage.Duration = run.Duration

	if result.Status != m.StatusPassed {
		result.Error = strings.TrimSpace(run.Stderr)
	}

	if run.TimedOut {
		return result, nil
	}

	report, err := o.testAdapter.Coverage(ctx, workDir, source)
	if err != nil {
		slog.Warn("Failed to collect coverage", "target", target.Name, "test", test.Name, "error", err)
		return result, nil
	}

	cov := adapter.ParseGcov(report)
	result.Coverage.LineCounts = cov.LineCounts
	result.Coverage.BranchesHit = cov.BranchesHit
	result.Coverage.BranchesKnown = cov.BranchesKnown

	return result, nil
}

func statusOf(run adapter.RunResult, expected *string) m.ExecutionStatus {
	switch {
	case run.TimedOut:
		return m.StatusTimeout
	case run.Signaled:
		return m.StatusCrash
	case run.ExitCode != 0:
		return m.StatusFailed
	case expected != nil && strings.TrimSpace(run.Stdout) != strings.TrimSpace(*expected):
		return m.StatusFailed
	default:
		return m.StatusPassed
	}
}

func emptyCoverage(output string) m.CoverageReport {
	return m.CoverageReport{
		LineCounts:    map[int]int{},
		BranchesHit:   m.NewBranchSet(),
		BranchesKnown: m.NewBranchSet(),
		Output:        output,
	}
}

// FormatInputs renders inputs one per line as the program reads them.
func FormatInputs(spec m.ParameterSpec, inputs []float64) string {
	var sb strings.Builder

	for i, v := range inputs {
		p := m.Parameter{Kind: m.KindInt}
		if i < len(spec) {
			p = spec[i]
		}

		sb.WriteString(p.Format(v))
		sb.WriteByte('\n')
	}

	return sb.String()
}

// cleanupTempDir removes the temporary directory, logging errors if cleanup fails.
func (o *orchestrator) cleanupTempDir(ctx context.Context, tmpDir m.Path) {
	if err := o.fsAdapter.RemoveAll(ctx, tmpDir); err != nil {
		slog.Error("Failed to cleanup temp dir", "tmpDir", tmpDir, "error", err)
	}
}

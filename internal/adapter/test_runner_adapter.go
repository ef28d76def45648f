package adapter

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// Runner defaults.
const (
	DefaultCompiler = "g++"
	DefaultGcov     = "gcov"
	DefaultTimeout  = 10 * time.Second
)

// DefaultCompilerFlags instrument a build for line and branch coverage.
var DefaultCompilerFlags = []string{"--coverage", "-g", "-O0"}

// RunResult describes one run of a compiled target.
type RunResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Signaled bool
	TimedOut bool
	Duration time.Duration
}

// TestRunnerAdapter compiles a target with coverage instrumentation, runs it
// and collects the gcov report. Every call works inside workDir.
type TestRunnerAdapter interface {
	// Compile builds source into binary. Returns the compiler diagnostics.
	Compile(ctx context.Context, workDir, source, binary string) (output string, err error)

	// Run executes binary with stdin. The error is only set when the process
	// could not be started; exit codes and timeouts are part of RunResult.
	Run(ctx context.Context, workDir, binary, stdin string) (RunResult, error)

	// Coverage runs gcov for source and returns the annotated report.
	Coverage(ctx context.Context, workDir, source string) (report []byte, err error)
}

// RunnerConfig configures LocalTestRunnerAdapter.
type RunnerConfig struct {
	Compiler string
	Flags    []string
	Gcov     string
	Timeout  time.Duration
}

// LocalTestRunnerAdapter provides a concrete implementation using os/exec.
type LocalTestRunnerAdapter struct {
	cfg RunnerConfig
}

// NewLocalTestRunnerAdapter constructs a LocalTestRunnerAdapter, filling
// unset fields with the g++/gcov defaults.
func NewLocalTestRunnerAdapter(cfg RunnerConfig) *LocalTestRunnerAdapter {
	if cfg.Compiler == "" {
		cfg.Compiler = DefaultCompiler
	}

	if len(cfg.Flags) == 0 {
		cfg.Flags = DefaultCompilerFlags
	}

	if cfg.Gcov == "" {
		cfg.Gcov = DefaultGcov
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &LocalTestRunnerAdapter{cfg: cfg}
}

// Compile builds in two steps so the gcno/gcda files are named after the
// source file rather than the binary.
func (a *LocalTestRunnerAdapter) Compile(ctx context.Context, workDir, source, binary string) (string, error) {
	object := strings.TrimSuffix(source, filepath.Ext(source)) + ".o"

	compileArgs := append(append([]string{}, a.cfg.Flags...), "-c", source, "-o", object)

	out, err := a.exec(ctx, workDir, a.cfg.Compiler, compileArgs...)
	if err != nil {
		return out, err
	}

	linkArgs := append(append([]string{}, a.cfg.Flags...), object, "-o", binary)

	linkOut, err := a.exec(ctx, workDir, a.cfg.Compiler, linkArgs...)

	return out + linkOut, err
}

// Run executes the binary under the configured timeout.
func (a *LocalTestRunnerAdapter) Run(ctx context.Context, workDir, binary, stdin string) (RunResult, error) {
	runCtx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, binary)
	cmd.Dir = workDir
	cmd.Stdin = strings.NewReader(stdin)
	cmd.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer

	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()

	result := RunResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	if runCtx.Err() != nil && ctx.Err() == nil {
		result.TimedOut = true
		result.ExitCode = -1

		return result, nil
	}

	if err == nil {
		return result, nil
	}

	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return result, err
	}

	result.ExitCode = exitErr.ExitCode()
	result.Signaled = result.ExitCode == -1

	return result, nil
}

// Coverage runs gcov with branch counts next to the source.
func (a *LocalTestRunnerAdapter) Coverage(ctx context.Context, workDir, source string) ([]byte, error) {
	out, err := a.exec(ctx, workDir, a.cfg.Gcov, "-b", "-c", source)
	if err != nil {
		return []byte(out), err
	}

	// gcov writes the annotated file rather than printing it.
	// #nosec G304 - report path is derived from the staged source
	return os.ReadFile(filepath.Join(workDir, source+".gcov"))
}

func (a *LocalTestRunnerAdapter) exec(ctx context.Context, workDir, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = workDir

	var stdout, stderr bytes.Buffer

	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	return stdout.String() + stderr.String(), err
}

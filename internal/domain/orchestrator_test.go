package domain

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"spectra.dev/pkg/spectra/internal/adapter"
	adaptermocks "spectra.dev/pkg/spectra/internal/adapter/mocks"
	m "spectra.dev/pkg/spectra/internal/model"
)

const signGcov = `        -:    0:Source:sign.c
        1:    3:int main(void) {
        1:    5:    if (x > 0) {
branch  0 taken 1 (fallthrough)
branch  1 taken 0
        1:    6:        puts("positive");
    #####:    8:        puts("non-positive");
`

func signTarget() *m.Target {
	expected := "positive"

	return &m.Target{
		Name:       "sign",
		Source:     "examples/sign/sign.c",
		Code:       []byte("int main(void) { return 0; }\n"),
		Parameters: m.ParameterSpec{{Name: "x", Kind: m.KindInt}},
		Tests:      []m.LabelledTest{{Name: "positive", Inputs: []float64{5}, Expected: &expected}},
	}
}

func newOrchestratorUnderTest(t *testing.T) (Executor, *adaptermocks.MockTestRunnerAdapter, string) {
	t.Helper()

	root := t.TempDir()
	runner := adaptermocks.NewMockTestRunnerAdapter(t)

	return NewOrchestrator(adapter.NewLocalSourceFSAdapter(root), runner), runner, root
}

func TestOrchestrator_Execute(t *testing.T) {
	target := signTarget()

	tests := []struct {
		name        string
		run         adapter.RunResult
		expected    *string
		wantStatus  m.ExecutionStatus
		wantBranch  bool
		wantErrText string
	}{
		{
			name:       "passed",
			run:        adapter.RunResult{Stdout: "positive\n"},
			expected:   target.Tests[0].Expected,
			wantStatus: m.StatusPassed,
			wantBranch: true,
		},
		{
			name:        "expected output mismatch",
			run:         adapter.RunResult{Stdout: "negative\n", Stderr: "oops\n"},
			expected:    target.Tests[0].Expected,
			wantStatus:  m.StatusFailed,
			wantBranch:  true,
			wantErrText: "oops",
		},
		{
			name:       "no expectation only checks exit code",
			run:        adapter.RunResult{Stdout: "whatever"},
			wantStatus: m.StatusPassed,
			wantBranch: true,
		},
		{
			name:       "non-zero exit",
			run:        adapter.RunResult{ExitCode: 3},
			wantStatus: m.StatusFailed,
			wantBranch: true,
		},
		{
			name:       "signal",
			run:        adapter.RunResult{ExitCode: -1, Signaled: true},
			wantStatus: m.StatusCrash,
			wantBranch: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec, runner, _ := newOrchestratorUnderTest(t)

			runner.On("Compile", mock.Anything, mock.Anything, "sign.c", mock.Anything).Return("", nil).Once()
			runner.On("Run", mock.Anything, mock.Anything, mock.Anything, "5\n").Return(tt.run, nil).Once()
			runner.On("Coverage", mock.Anything, mock.Anything, "sign.c").Return([]byte(signGcov), nil).Once()

			res, err := exec.Execute(context.Background(), target, m.LabelledTest{Name: "t", Inputs: []float64{5}, Expected: tt.expected})
			require.NoError(t, err)

			assert.Equal(t, tt.wantStatus, res.Status)
			assert.Equal(t, "t", res.TestID)
			assert.Equal(t, []float64{5}, res.Genes)
			assert.Equal(t, tt.wantBranch, res.Coverage.BranchesHit.Has("L5:b0"))
			assert.Equal(t, 2, res.Coverage.BranchesKnown.Len())
			assert.Equal(t, []int{3, 5, 6}, res.Coverage.CoveredLines())

			if tt.wantErrText != "" {
				assert.Equal(t, tt.wantErrText, res.Error)
			}
		})
	}
}

func TestOrchestrator_CompileError(t *testing.T) {
	exec, runner, _ := newOrchestratorUnderTest(t)

	runner.On("Compile", mock.Anything, mock.Anything, "sign.c", mock.Anything).
		Return("sign.c:1:1: error: expected ';'\n", errors.New("exit status 1")).Once()

	res, err := exec.Execute(context.Background(), signTarget(), m.LabelledTest{Name: "t", Inputs: []float64{1}})
	require.NoError(t, err)

	assert.Equal(t, m.StatusCompileError, res.Status)
	assert.Contains(t, res.Error, "expected ';'")
	assert.Empty(t, res.Coverage.CoveredLines())
	runner.AssertNotCalled(t, "Run", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestOrchestrator_TimeoutSkipsCoverage(t *testing.T) {
	exec, runner, _ := newOrchestratorUnderTest(t)

	runner.On("Compile", mock.Anything, mock.Anything, "sign.c", mock.Anything).Return("", nil).Once()
	runner.On("Run", mock.Anything, mock.Anything, mock.Anything, "1\n").
		Return(adapter.RunResult{ExitCode: -1, Signaled: true, TimedOut: true}, nil).Once()

	res, err := exec.Execute(context.Background(), signTarget(), m.LabelledTest{Name: "t", Inputs: []float64{1}})
	require.NoError(t, err)

	assert.Equal(t, m.StatusTimeout, res.Status)
	assert.Equal(t, 0, res.Coverage.BranchesHit.Len())
	runner.AssertNotCalled(t, "Coverage", mock.Anything, mock.Anything, mock.Anything)
}

func TestOrchestrator_CoverageFailureKeepsStatus(t *testing.T) {
	exec, runner, _ := newOrchestratorUnderTest(t)

	runner.On("Compile", mock.Anything, mock.Anything, "sign.c", mock.Anything).Return("", nil).Once()
	runner.On("Run", mock.Anything, mock.Anything, mock.Anything, "1\n").Return(adapter.RunResult{}, nil).Once()
	runner.On("Coverage", mock.Anything, mock.Anything, "sign.c").Return(nil, errors.New("gcov: not found")).Once()

	res, err := exec.Execute(context.Background(), signTarget(), m.LabelledTest{Name: "t", Inputs: []float64{1}})
	require.NoError(t, err)

	assert.Equal(t, m.StatusPassed, res.Status)
	assert.Empty(t, res.Coverage.CoveredLines())
}

func TestOrchestrator_RunStartFailure(t *testing.T) {
	exec, runner, _ := newOrchestratorUnderTest(t)

	runner.On("Compile", mock.Anything, mock.Anything, "sign.c", mock.Anything).Return("", nil).Once()
	runner.On("Run", mock.Anything, mock.Anything, mock.Anything, "1\n").
		Return(adapter.RunResult{}, errors.New("exec format error")).Once()

	_, err := exec.Execute(context.Background(), signTarget(), m.LabelledTest{Name: "t", Inputs: []float64{1}})
	assert.ErrorContains(t, err, "exec format error")
}

func TestOrchestrator_StagesSourceAndCleansUp(t *testing.T) {
	exec, runner, root := newOrchestratorUnderTest(t)
	target := signTarget()

	runner.On("Compile", mock.Anything, mock.Anything, "sign.c", mock.Anything).
		Run(func(args mock.Arguments) {
			workDir := args.String(1)

			data, err := os.ReadFile(filepath.Join(workDir, "sign.c"))
			require.NoError(t, err)
			assert.Equal(t, target.Code, data)
			assert.Equal(t, filepath.Join(workDir, binaryName), args.String(3))
		}).
		Return("", nil).Once()
	runner.On("Run", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(adapter.RunResult{}, nil).Once()
	runner.On("Coverage", mock.Anything, mock.Anything, "sign.c").Return([]byte(signGcov), nil).Once()

	_, err := exec.Execute(context.Background(), target, m.LabelledTest{Name: "t", Inputs: []float64{2}})
	require.NoError(t, err)

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestOrchestrator_TempDirFailure(t *testing.T) {
	fs := adaptermocks.NewMockSourceFSAdapter(t)
	runner := adaptermocks.NewMockTestRunnerAdapter(t)

	fs.On("CreateTempDir", mock.Anything, "spectra-run-*").Return(m.Path(""), errors.New("read-only file system")).Once()

	_, err := NewOrchestrator(fs, runner).Execute(context.Background(), signTarget(), m.LabelledTest{Name: "t", Inputs: []float64{1}})
	assert.ErrorContains(t, err, "read-only file system")
}

func TestOrchestrator_Cancelled(t *testing.T) {
	exec, _, _ := newOrchestratorUnderTest(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := exec.Execute(ctx, signTarget(), m.LabelledTest{Name: "t", Inputs: []float64{1}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFormatInputs(t *testing.T) {
	spec := m.ParameterSpec{
		{Name: "n", Kind: m.KindInt},
		{Name: "f", Kind: m.KindFloat},
		{Name: "c", Kind: m.KindChar},
	}

	assert.Equal(t, "3\n2.5\nA\n7\n", FormatInputs(spec, []float64{3, 2.5, 65, 7}))
}

package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "spectra.dev/pkg/spectra/internal/model"
	spectrapkg "spectra.dev/pkg/spectra/pkg"
)

type errSpill[T any] struct {
	err error
}

func (e errSpill[T]) Len() uint64                                    { return 0 }
func (e errSpill[T]) Path() string                                   { return "" }
func (e errSpill[T]) Append(_ T) error                               { return nil }
func (e errSpill[T]) AppendBatch(_ []T) error                        { return nil }
func (e errSpill[T]) Get(_ uint64) (T, error)                        { var zero T; return zero, errors.New("not implemented") }
func (e errSpill[T]) Range(_ func(index uint64, item T) error) error { return e.err }
func (e errSpill[T]) Close() error                                   { return nil }
func (e errSpill[T]) Remove() error                                  { return nil }

func TestSummarizeExecutions(t *testing.T) {
	spill, err := spectrapkg.NewFileSpill[m.TestExecutionResult](t.TempDir())
	require.NoError(t, err)
	defer spill.Remove()

	require.NoError(t, spill.AppendBatch([]m.TestExecutionResult{
		{TestID: "a", Status: m.StatusPassed, Genes: []float64{1, 2, 3}},
		{TestID: "b", Status: m.StatusFailed, Genes: []float64{3, 4, 3}, Coverage: m.CoverageReport{BranchesHit: m.NewBranchSet("L9:b1")}},
		{TestID: "c", Status: m.StatusFailed, Genes: []float64{3, 4, 3}},
		{TestID: "d", Status: m.StatusCrash, Genes: []float64{0, 0, 0}},
		{TestID: "e", Status: m.StatusTimeout, Genes: []float64{5, 5, 5}},
	}))

	summary, err := summarizeExecutions(spill)
	require.NoError(t, err)

	assert.Equal(t, uint64(5), summary.Total)
	assert.Equal(t, uint64(2), summary.ByStatus[m.StatusFailed])
	assert.InDelta(t, 0.8, summary.FailureRate(), 1e-9)

	require.Len(t, summary.Failing, 2)
	assert.Equal(t, "b", summary.Failing[0].ID)
	assert.True(t, summary.Failing[0].CoveredBranches.Has("L9:b1"))
	assert.Equal(t, m.StatusCrash, summary.Failing[1].Status)
}

func TestSummarizeExecutions_Empty(t *testing.T) {
	spill, err := spectrapkg.NewFileSpill[m.TestExecutionResult](t.TempDir())
	require.NoError(t, err)
	defer spill.Remove()

	summary, err := summarizeExecutions(spill)
	require.NoError(t, err)
	assert.Zero(t, summary.Total)
	assert.Zero(t, summary.FailureRate())
	assert.Empty(t, summary.Failing)
}

func TestSummarizeExecutions_RangeError(t *testing.T) {
	_, err := summarizeExecutions(errSpill[m.TestExecutionResult]{err: errors.New("disk gone")})
	assert.EqualError(t, err, "disk gone")
}

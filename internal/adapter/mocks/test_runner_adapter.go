package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"spectra.dev/pkg/spectra/internal/adapter"
)

// MockTestRunnerAdapter is a mock of adapter.TestRunnerAdapter.
type MockTestRunnerAdapter struct {
	mock.Mock
}

// NewMockTestRunnerAdapter creates a mock that asserts its expectations on cleanup.
func NewMockTestRunnerAdapter(t testingT) *MockTestRunnerAdapter {
	mock := &MockTestRunnerAdapter{}
	mock.Mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}

func (_m *MockTestRunnerAdapter) Compile(ctx context.Context, workDir, source, binary string) (string, error) {
	ret := _m.Called(ctx, workDir, source, binary)
	return ret.String(0), errorAt(ret, 1)
}

func (_m *MockTestRunnerAdapter) Run(ctx context.Context, workDir, binary, stdin string) (adapter.RunResult, error) {
	ret := _m.Called(ctx, workDir, binary, stdin)
	return ret.Get(0).(adapter.RunResult), errorAt(ret, 1)
}

func (_m *MockTestRunnerAdapter) Coverage(ctx context.Context, workDir, source string) ([]byte, error) {
	ret := _m.Called(ctx, workDir, source)

	var r0 []byte
	if v := ret.Get(0); v != nil {
		r0 = v.([]byte)
	}

	return r0, errorAt(ret, 1)
}

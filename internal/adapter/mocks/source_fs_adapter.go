package mocks

import (
	"context"
	"os"

	"github.com/stretchr/testify/mock"

	m "spectra.dev/pkg/spectra/internal/model"
)

// MockSourceFSAdapter is a mock of adapter.SourceFSAdapter.
type MockSourceFSAdapter struct {
	mock.Mock
}

// NewMockSourceFSAdapter creates a mock that asserts its expectations on cleanup.
func NewMockSourceFSAdapter(t testingT) *MockSourceFSAdapter {
	mock := &MockSourceFSAdapter{}
	mock.Mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}

func (_m *MockSourceFSAdapter) ReadFile(ctx context.Context, path m.Path) ([]byte, error) {
	ret := _m.Called(ctx, path)

	var r0 []byte
	if v := ret.Get(0); v != nil {
		r0 = v.([]byte)
	}

	return r0, errorAt(ret, 1)
}

func (_m *MockSourceFSAdapter) HashFile(ctx context.Context, path m.Path) (string, error) {
	ret := _m.Called(ctx, path)
	return ret.String(0), errorAt(ret, 1)
}

func (_m *MockSourceFSAdapter) CreateTempDir(ctx context.Context, pattern string) (m.Path, error) {
	ret := _m.Called(ctx, pattern)
	return ret.Get(0).(m.Path), errorAt(ret, 1)
}

func (_m *MockSourceFSAdapter) RemoveAll(ctx context.Context, path m.Path) error {
	ret := _m.Called(ctx, path)
	return errorAt(ret, 0)
}

func (_m *MockSourceFSAdapter) WriteFile(ctx context.Context, path m.Path, content []byte, perm os.FileMode) error {
	ret := _m.Called(ctx, path, content, perm)
	return errorAt(ret, 0)
}

func (_m *MockSourceFSAdapter) JoinPath(ctx context.Context, elem ...string) m.Path {
	args := []interface{}{ctx}
	for _, e := range elem {
		args = append(args, e)
	}

	ret := _m.Called(args...)

	return ret.Get(0).(m.Path)
}

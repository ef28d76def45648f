package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	m "spectra.dev/pkg/spectra/internal/model"
)

// MockTargetAdapter is a mock of adapter.TargetAdapter.
type MockTargetAdapter struct {
	mock.Mock
}

// NewMockTargetAdapter creates a mock that asserts its expectations on cleanup.
func NewMockTargetAdapter(t testingT) *MockTargetAdapter {
	mock := &MockTargetAdapter{}
	mock.Mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}

func (_m *MockTargetAdapter) Load(ctx context.Context, path m.Path) (*m.Target, error) {
	ret := _m.Called(ctx, path)

	var r0 *m.Target
	if v := ret.Get(0); v != nil {
		r0 = v.(*m.Target)
	}

	return r0, errorAt(ret, 1)
}

// Package mocks provides testify mocks of the domain interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"spectra.dev/pkg/spectra/internal/domain"
)

// MockWorkflow is a mock of domain.Workflow.
type MockWorkflow struct {
	mock.Mock
}

// NewMockWorkflow creates a mock that asserts its expectations on cleanup.
func NewMockWorkflow(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockWorkflow {
	mock := &MockWorkflow{}
	mock.Mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}

func (_m *MockWorkflow) Evolve(ctx context.Context, args domain.EvolveArgs) error {
	ret := _m.Called(ctx, args)
	return ret.Error(0)
}

func (_m *MockWorkflow) Localize(ctx context.Context, args domain.LocalizeArgs) error {
	ret := _m.Called(ctx, args)
	return ret.Error(0)
}

func (_m *MockWorkflow) View(ctx context.Context, args domain.ViewArgs) error {
	ret := _m.Called(ctx, args)
	return ret.Error(0)
}

func (_m *MockWorkflow) Sessions(ctx context.Context) error {
	ret := _m.Called(ctx)
	return ret.Error(0)
}

func (_m *MockWorkflow) DeleteSession(ctx context.Context, sessionID string) error {
	ret := _m.Called(ctx, sessionID)
	return ret.Error(0)
}

// Package mocks provides testify mocks of the controller interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"spectra.dev/pkg/spectra/internal/controller"
	m "spectra.dev/pkg/spectra/internal/model"
)

// MockUI is a mock of controller.UI.
type MockUI struct {
	mock.Mock
}

// NewMockUI creates a mock that asserts its expectations on cleanup.
func NewMockUI(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockUI {
	mock := &MockUI{}
	mock.Mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}

func (_m *MockUI) Start(ctx context.Context, options ...controller.StartOption) error {
	ret := _m.Called(ctx, len(options))
	return ret.Error(0)
}

func (_m *MockUI) Close(ctx context.Context) {
	_m.Called(ctx)
}

func (_m *MockUI) Wait(ctx context.Context) {
	_m.Called(ctx)
}

func (_m *MockUI) DisplayGeneration(ctx context.Context, stats m.GenerationStats) {
	_m.Called(ctx, stats)
}

func (_m *MockUI) DisplayEvolutionResult(ctx context.Context, result m.EvolutionResult) error {
	ret := _m.Called(ctx, result)
	return ret.Error(0)
}

func (_m *MockUI) DisplayReport(ctx context.Context, report m.Report) error {
	ret := _m.Called(ctx, report)
	return ret.Error(0)
}

func (_m *MockUI) DisplaySessions(ctx context.Context, sessions []m.SessionInfo) error {
	ret := _m.Called(ctx, sessions)
	return ret.Error(0)
}

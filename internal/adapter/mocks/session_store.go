package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	m "spectra.dev/pkg/spectra/internal/model"
)

// MockSessionStore is a mock of adapter.SessionStore.
type MockSessionStore struct {
	mock.Mock
}

// NewMockSessionStore creates a mock that asserts its expectations on cleanup.
func NewMockSessionStore(t testingT) *MockSessionStore {
	mock := &MockSessionStore{}
	mock.Mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}

func (_m *MockSessionStore) SavePopulation(ctx context.Context, pop *m.Population) error {
	ret := _m.Called(ctx, pop)
	return errorAt(ret, 0)
}

func (_m *MockSessionStore) GetPopulation(ctx context.Context, sessionID string) (*m.Population, bool, error) {
	ret := _m.Called(ctx, sessionID)

	var r0 *m.Population
	if v := ret.Get(0); v != nil {
		r0 = v.(*m.Population)
	}

	return r0, ret.Bool(1), errorAt(ret, 2)
}

func (_m *MockSessionStore) SaveAnalysis(ctx context.Context, analysis m.FaultLocalizationAnalysis) error {
	ret := _m.Called(ctx, analysis)
	return errorAt(ret, 0)
}

func (_m *MockSessionStore) GetAnalysis(ctx context.Context, id string) (m.FaultLocalizationAnalysis, bool, error) {
	ret := _m.Called(ctx, id)
	return ret.Get(0).(m.FaultLocalizationAnalysis), ret.Bool(1), errorAt(ret, 2)
}

func (_m *MockSessionStore) LatestAnalysis(ctx context.Context, sessionID string) (m.FaultLocalizationAnalysis, bool, error) {
	ret := _m.Called(ctx, sessionID)
	return ret.Get(0).(m.FaultLocalizationAnalysis), ret.Bool(1), errorAt(ret, 2)
}

func (_m *MockSessionStore) SaveExecutions(ctx context.Context, sessionID string, results []m.TestExecutionResult) error {
	ret := _m.Called(ctx, sessionID, results)
	return errorAt(ret, 0)
}

func (_m *MockSessionStore) GetExecutions(ctx context.Context, sessionID string) ([]m.TestExecutionResult, error) {
	ret := _m.Called(ctx, sessionID)

	var r0 []m.TestExecutionResult
	if v := ret.Get(0); v != nil {
		r0 = v.([]m.TestExecutionResult)
	}

	return r0, errorAt(ret, 1)
}

func (_m *MockSessionStore) ListSessions(ctx context.Context) ([]m.SessionInfo, error) {
	ret := _m.Called(ctx)

	var r0 []m.SessionInfo
	if v := ret.Get(0); v != nil {
		r0 = v.([]m.SessionInfo)
	}

	return r0, errorAt(ret, 1)
}

func (_m *MockSessionStore) Close() error {
	ret := _m.Called()
	return errorAt(ret, 0)
}

func (_m *MockSessionStore) DeleteSession(ctx context.Context, sessionID string) (bool, error) {
	ret := _m.Called(ctx, sessionID)
	return ret.Bool(0), errorAt(ret, 1)
}

package cmd

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	domainmocks "spectra.dev/pkg/spectra/internal/domain/mocks"
)

func TestSessionsCmd(t *testing.T) {
	mockWorkflow := domainmocks.NewMockWorkflow(t)
	useWorkflow(t, mockWorkflow)

	mockWorkflow.On("Sessions", mock.Anything).Return(nil)

	_, err := executeCommand(t, newSessionsCmd(), "sessions")
	require.NoError(t, err)
}

func TestSessionsCmd_RejectsArgs(t *testing.T) {
	useWorkflow(t, domainmocks.NewMockWorkflow(t))

	_, err := executeCommand(t, newSessionsCmd(), "sessions", "extra")
	require.Error(t, err)
}

func TestSessionsRmCmd(t *testing.T) {
	mockWorkflow := domainmocks.NewMockWorkflow(t)
	useWorkflow(t, mockWorkflow)

	mockWorkflow.On("DeleteSession", mock.Anything, "s-1").Return(nil).Once()
	mockWorkflow.On("DeleteSession", mock.Anything, "s-2").Return(nil).Once()

	output, err := executeCommand(t, newSessionsCmd(), "sessions", "rm", "s-1", "s-2")
	require.NoError(t, err)
	assert.Contains(t, output, "Deleted session s-1")
	assert.Contains(t, output, "Deleted session s-2")
}

func TestSessionsRmCmd_Errors(t *testing.T) {
	t.Run("missing id", func(t *testing.T) {
		useWorkflow(t, domainmocks.NewMockWorkflow(t))

		_, err := executeCommand(t, newSessionsCmd(), "sessions", "rm")
		require.Error(t, err)
	})

	t.Run("unknown session", func(t *testing.T) {
		mockWorkflow := domainmocks.NewMockWorkflow(t)
		useWorkflow(t, mockWorkflow)

		mockWorkflow.On("DeleteSession", mock.Anything, "gone").Return(errors.New("session gone not found")).Once()

		output, err := executeCommand(t, newSessionsCmd(), "sessions", "rm", "gone")
		require.Error(t, err)
		assert.Contains(t, output, "session gone not found")
	})
}

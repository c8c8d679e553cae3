package mocks

import (
	"github.com/stretchr/testify/mock"

	"github.com/vytor/sillychess/internal/models"
)

// MockJobQueue is a mock implementation of jobs.JobQueue
type MockJobQueue struct {
	mock.Mock
}

func (m *MockJobQueue) EnqueueArchive(game models.ArchivedGame) error {
	args := m.Called(game)
	return args.Error(0)
}

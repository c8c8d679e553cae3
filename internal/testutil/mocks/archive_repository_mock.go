package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/vytor/sillychess/internal/models"
)

// MockArchiveRepository is a mock implementation of repository.ArchiveRepository
type MockArchiveRepository struct {
	mock.Mock
}

func (m *MockArchiveRepository) Get(ctx context.Context, id string) (*models.ArchivedGame, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ArchivedGame), args.Error(1)
}

func (m *MockArchiveRepository) List(ctx context.Context, filter models.ArchiveFilter) ([]models.ArchivedGame, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ArchivedGame), args.Error(1)
}

func (m *MockArchiveRepository) Count(ctx context.Context, filter models.ArchiveFilter) (int, error) {
	args := m.Called(ctx, filter)
	return args.Int(0), args.Error(1)
}

func (m *MockArchiveRepository) Insert(ctx context.Context, game models.ArchivedGame) error {
	args := m.Called(ctx, game)
	return args.Error(0)
}

package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/vytor/sillychess/internal/engine"
)

// MockBestMover is a mock implementation of engine.BestMover
type MockBestMover struct {
	mock.Mock
}

func (m *MockBestMover) BestMove(ctx context.Context, fen string, depth int) (engine.SearchResult, error) {
	args := m.Called(ctx, fen, depth)
	return args.Get(0).(engine.SearchResult), args.Error(1)
}

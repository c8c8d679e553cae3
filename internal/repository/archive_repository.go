package repository

import (
	"context"

	"github.com/vytor/sillychess/internal/models"
)

// ArchiveRepository stores finished games.
type ArchiveRepository interface {
	Get(ctx context.Context, id string) (*models.ArchivedGame, error)
	List(ctx context.Context, filter models.ArchiveFilter) ([]models.ArchivedGame, error)
	Count(ctx context.Context, filter models.ArchiveFilter) (int, error)
	Insert(ctx context.Context, game models.ArchivedGame) error
}

package worker

import (
	"context"
	"fmt"

	"github.com/vytor/sillychess/internal/logger"
	"github.com/vytor/sillychess/internal/models"
	"github.com/vytor/sillychess/internal/repository"
)

// ArchiveGameJob writes a finished game to the archive.
type ArchiveGameJob struct {
	Repo repository.ArchiveRepository
	Game models.ArchivedGame
}

func (j *ArchiveGameJob) Name() string { return "archive_game" }

func (j *ArchiveGameJob) Run(ctx context.Context) error {
	log := logger.FromContext(ctx).WithFields(map[string]any{
		"game_id": j.Game.ID,
		"result":  j.Game.Outcome,
	})
	if err := j.Repo.Insert(ctx, j.Game); err != nil {
		return fmt.Errorf("archive game %s: %w", j.Game.ID, err)
	}
	log.Info("game archived after %d plies", j.Game.MoveCount)
	return nil
}

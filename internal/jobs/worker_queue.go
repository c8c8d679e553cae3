package jobs

import (
	"github.com/vytor/sillychess/internal/models"
	"github.com/vytor/sillychess/internal/repository"
	"github.com/vytor/sillychess/internal/worker"
)

// WorkerQueue implements JobQueue using a worker pool
type WorkerQueue struct {
	archivePool *worker.Pool
	archiveRepo repository.ArchiveRepository
}

func NewWorkerQueue(archivePool *worker.Pool, archiveRepo repository.ArchiveRepository) JobQueue {
	return &WorkerQueue{
		archivePool: archivePool,
		archiveRepo: archiveRepo,
	}
}

func (q *WorkerQueue) EnqueueArchive(game models.ArchivedGame) error {
	return q.archivePool.Submit(&worker.ArchiveGameJob{
		Repo: q.archiveRepo,
		Game: game,
	})
}

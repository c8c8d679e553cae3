package jobs

import "github.com/vytor/sillychess/internal/models"

// JobQueue provides an abstraction for enqueueing background jobs
type JobQueue interface {
	EnqueueArchive(game models.ArchivedGame) error
}

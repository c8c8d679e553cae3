package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/vytor/sillychess/internal/models"
	"github.com/vytor/sillychess/internal/testutil/mocks"
)

type funcJob struct {
	name string
	fn   func(context.Context) error
}

func (j funcJob) Name() string                  { return j.name }
func (j funcJob) Run(ctx context.Context) error { return j.fn(ctx) }

func TestPool_DrainsQueuedJobsOnStop(t *testing.T) {
	p := NewPool(2, 16)
	p.Start(context.Background())

	var ran atomic.Int32
	for i := 0; i < 10; i++ {
		require.NoError(t, p.Submit(funcJob{name: "count", fn: func(context.Context) error {
			ran.Add(1)
			return nil
		}}))
	}
	p.Stop()

	assert.Equal(t, int32(10), ran.Load())
	assert.ErrorIs(t, p.Submit(funcJob{name: "late"}), ErrPoolStopped)
	p.Stop()
}

func TestPool_QueueFull(t *testing.T) {
	p := NewPool(1, 1)
	block := make(chan struct{})
	started := make(chan struct{})
	p.Start(context.Background())

	require.NoError(t, p.Submit(funcJob{name: "block", fn: func(context.Context) error {
		close(started)
		<-block
		return nil
	}}))
	<-started
	require.NoError(t, p.Submit(funcJob{name: "queued", fn: func(context.Context) error { return nil }}))
	assert.ErrorIs(t, p.Submit(funcJob{name: "dropped"}), ErrQueueFull)
	assert.Equal(t, 1, p.QueueSize())

	close(block)
	p.Stop()
}

func TestPool_SurvivesFailingAndPanickingJobs(t *testing.T) {
	p := NewPool(1, 4)
	p.Start(context.Background())

	var wg sync.WaitGroup
	wg.Add(1)
	require.NoError(t, p.Submit(funcJob{name: "fail", fn: func(context.Context) error { return errors.New("boom") }}))
	require.NoError(t, p.Submit(funcJob{name: "panic", fn: func(context.Context) error { panic("oops") }}))
	require.NoError(t, p.Submit(funcJob{name: "after", fn: func(context.Context) error {
		wg.Done()
		return nil
	}}))

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not survive failing jobs")
	}
	p.Stop()
}

func TestArchiveGameJob(t *testing.T) {
	repo := &mocks.MockArchiveRepository{}
	game := models.ArchivedGame{ID: "g1", Outcome: "1-0", MoveCount: 7}
	repo.On("Insert", mock.Anything, game).Return(nil).Once()
	repo.On("Insert", mock.Anything, mock.Anything).Return(errors.New("disk full")).Once()

	job := &ArchiveGameJob{Repo: repo, Game: game}
	assert.Equal(t, "archive_game", job.Name())
	assert.NoError(t, job.Run(context.Background()))

	err := (&ArchiveGameJob{Repo: repo, Game: models.ArchivedGame{ID: "g2"}}).Run(context.Background())
	assert.ErrorContains(t, err, "archive game g2")
	repo.AssertExpectations(t)
}

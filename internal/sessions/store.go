// Package sessions keeps live games between requests, keyed by game id.
package sessions

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/vytor/sillychess/internal/models"
)

var ErrEmptyID = errors.New("sessions: empty game id")

// Store persists live game records. Get returns (nil, nil) for an unknown
// or expired id.
type Store interface {
	Get(ctx context.Context, id string) (*models.GameRecord, error)
	Save(ctx context.Context, rec models.GameRecord) error
	Delete(ctx context.Context, id string) error
}

type memoryEntry struct {
	rec       models.GameRecord
	expiresAt time.Time
}

// MemoryStore is a process-local Store, used when no Redis is configured.
type MemoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:     ttl,
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (s *MemoryStore) Get(_ context.Context, id string) (*models.GameRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return nil, nil
	}
	if s.ttl > 0 && s.now().After(e.expiresAt) {
		delete(s.entries, id)
		return nil, nil
	}
	rec := e.rec
	rec.Moves = append([]string(nil), e.rec.Moves...)
	return &rec, nil
}

func (s *MemoryStore) Save(_ context.Context, rec models.GameRecord) error {
	if rec.ID == "" {
		return ErrEmptyID
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rec.Moves = append([]string(nil), rec.Moves...)
	s.entries[rec.ID] = memoryEntry{rec: rec, expiresAt: s.now().Add(s.ttl)}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.entries, id)
	s.mu.Unlock()
	return nil
}

// Len reports the number of stored games, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Package session persists per-player progress. The engine treats the store
// as an opaque key-value collaborator; the Redis implementation is the
// production path and the memory implementation backs tests and
// single-process deployments without Redis.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/ananyabshetty/SQL-Detective-Game/internal/models"
)

// Store persists Progress records keyed by player id. Get returns a fresh
// record for unknown players; it never fails on absence.
type Store interface {
	Get(ctx context.Context, playerID string) (*models.Progress, error)
	Save(ctx context.Context, progress *models.Progress) error
	Delete(ctx context.Context, playerID string) error
	Ping(ctx context.Context) error
	Close() error
}

// MemoryStore is an in-process Store for tests and redis-less deployments.
type MemoryStore struct {
	mu       sync.RWMutex
	progress map[string]*models.Progress
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{progress: make(map[string]*models.Progress)}
}

func (s *MemoryStore) Get(ctx context.Context, playerID string) (*models.Progress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.progress[playerID]; ok {
		return clone(p), nil
	}
	return models.NewProgress(playerID), nil
}

func (s *MemoryStore) Save(ctx context.Context, progress *models.Progress) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress[progress.PlayerID] = clone(progress)
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, playerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.progress, playerID)
	return nil
}

func (s *MemoryStore) Ping(ctx context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }

// clone keeps callers from mutating shared state through returned pointers.
func clone(p *models.Progress) *models.Progress {
	out := *p
	out.CompletedLevels = append([]int(nil), p.CompletedLevels...)
	out.Attempts = make(map[int]int, len(p.Attempts))
	for k, v := range p.Attempts {
		out.Attempts[k] = v
	}
	out.LevelStartTimes = make(map[int]time.Time, len(p.LevelStartTimes))
	for k, v := range p.LevelStartTimes {
		out.LevelStartTimes[k] = v
	}
	return &out
}

package runstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/localrank/backend/internal/domain"
)

// entry represents a single run in the store with expiration
type entry struct {
	run        *domain.Run
	expiration time.Time
}

// MemoryStore is a thread-safe in-memory run store with TTL support.
// Runs are kept so their results can be downloaded after the stream ends.
type MemoryStore struct {
	data  map[string]entry
	mutex sync.RWMutex
	now   func() time.Time
}

// NewMemoryStore creates a new in-memory run store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]entry),
		now:  time.Now,
	}
}

// Save stores a copy of the run for ttl
func (s *MemoryStore) Save(ctx context.Context, run *domain.Run, ttl time.Duration) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	stored := *run
	s.data[run.ID] = entry{
		run:        &stored,
		expiration: s.now().Add(ttl),
	}
	return nil
}

// Get retrieves a run by ID
func (s *MemoryStore) Get(ctx context.Context, id string) (*domain.Run, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	e, exists := s.data[id]
	if !exists || s.now().After(e.expiration) {
		return nil, domain.ErrRunNotFound
	}

	run := *e.run
	return &run, nil
}

// List returns live runs, newest first, at most limit of them (0 = all)
func (s *MemoryStore) List(ctx context.Context, limit int) ([]*domain.Run, error) {
	s.mutex.RLock()
	now := s.now()
	runs := make([]*domain.Run, 0, len(s.data))
	for _, e := range s.data {
		if now.After(e.expiration) {
			continue
		}
		run := *e.run
		runs = append(runs, &run)
	}
	s.mutex.RUnlock()

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].StartedAt.After(runs[j].StartedAt)
	})

	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

// Delete removes a run
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	delete(s.data, id)
	return nil
}

// Sweep removes expired runs and returns how many were dropped
func (s *MemoryStore) Sweep() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	now := s.now()
	removed := 0
	for id, e := range s.data {
		if now.After(e.expiration) {
			delete(s.data, id)
			removed++
		}
	}
	return removed
}

// Size returns the current number of stored runs, expired ones included
func (s *MemoryStore) Size() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.data)
}

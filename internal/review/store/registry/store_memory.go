package registry

import (
	"context"
	"sync"

	"concord/internal/review/models"
)

// InMemoryStore keeps reviewer sets in process memory.
type InMemoryStore struct {
	mu     sync.RWMutex
	scopes map[string]map[string]struct{}
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{scopes: make(map[string]map[string]struct{})}
}

func (s *InMemoryStore) Ensure(_ context.Context, scope models.Scope, reviewerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.scopes[scope.Key()]
	if !ok {
		set = make(map[string]struct{})
		s.scopes[scope.Key()] = set
	}
	set[reviewerID] = struct{}{}
	return nil
}

func (s *InMemoryStore) Remove(_ context.Context, scope models.Scope, reviewerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.scopes[scope.Key()], reviewerID)
	return nil
}

func (s *InMemoryStore) List(_ context.Context, scope models.Scope) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	set := s.scopes[scope.Key()]
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out, nil
}

func (s *InMemoryStore) Count(_ context.Context, scope models.Scope) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.scopes[scope.Key()]), nil
}

package submission

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"concord/internal/review/models"
	"concord/pkg/platform/sentinel"
)

// InMemoryStore keeps submissions in process memory. Suitable for tests and
// single-node deployments; use PostgresStore for anything durable.
type InMemoryStore struct {
	mu   sync.RWMutex
	subs map[string]*models.Submission
	// order preserves insertion sequence so equal-timestamp listings are stable.
	order []string

	now func() time.Time
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		subs: make(map[string]*models.Submission),
		now:  time.Now,
	}
}

func (s *InMemoryStore) Create(_ context.Context, scope models.Scope, payload json.RawMessage) (*models.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub := &models.Submission{
		ID:        uuid.NewString(),
		Region:    scope.Region,
		Module:    scope.Module,
		Payload:   append(json.RawMessage(nil), payload...),
		Status:    models.StatusPending,
		CreatedAt: s.now(),
	}
	s.subs[sub.ID] = sub
	s.order = append(s.order, sub.ID)
	return copySubmission(sub), nil
}

func (s *InMemoryStore) Get(_ context.Context, id string) (*models.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sub, ok := s.subs[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return copySubmission(sub), nil
}

func (s *InMemoryStore) ListByStatus(_ context.Context, scope models.Scope, status models.Status) ([]*models.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Submission
	for _, id := range s.order {
		sub := s.subs[id]
		if sub.Region == scope.Region && sub.Module == scope.Module && sub.Status == status {
			out = append(out, copySubmission(sub))
		}
	}
	// Stable sort keeps insertion order among equal timestamps.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *InMemoryStore) SetStatus(_ context.Context, id string, status models.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub, ok := s.subs[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	if sub.Status == status {
		return nil
	}
	if sub.Status.Terminal() {
		return sentinel.ErrInvalidState
	}
	sub.Status = status
	return nil
}

func copySubmission(sub *models.Submission) *models.Submission {
	out := *sub
	out.Payload = append(json.RawMessage(nil), sub.Payload...)
	return &out
}

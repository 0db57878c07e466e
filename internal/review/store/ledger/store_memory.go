package ledger

import (
	"context"
	"sync"

	"concord/internal/review/models"
)

// InMemoryStore keeps votes in process memory, keyed by submission then
// reviewer so overwrites are natural map writes.
type InMemoryStore struct {
	mu    sync.RWMutex
	votes map[string]map[string]models.Vote
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{votes: make(map[string]map[string]models.Vote)}
}

func (s *InMemoryStore) Cast(_ context.Context, vote models.Vote) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	bySubmission, ok := s.votes[vote.SubmissionID]
	if !ok {
		bySubmission = make(map[string]models.Vote)
		s.votes[vote.SubmissionID] = bySubmission
	}
	bySubmission[vote.ReviewerID] = vote
	return nil
}

func (s *InMemoryStore) List(_ context.Context, submissionID string) ([]models.Vote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bySubmission := s.votes[submissionID]
	out := make([]models.Vote, 0, len(bySubmission))
	for _, v := range bySubmission {
		out = append(out, v)
	}
	return out, nil
}

func (s *InMemoryStore) Tally(_ context.Context, submissionID string, eligible map[string]struct{}) (models.Tally, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var tally models.Tally
	for reviewerID, vote := range s.votes[submissionID] {
		if _, ok := eligible[reviewerID]; !ok {
			continue
		}
		switch vote.Decision {
		case models.DecisionApprove:
			tally.Approve++
		case models.DecisionReject:
			tally.Reject++
		}
	}
	return tally, nil
}

//go:build integration

package submission_test

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/suite"

	"concord/internal/review/models"
	"concord/internal/review/store/submission"
	"concord/pkg/platform/sentinel"
	"concord/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *submission.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = submission.NewPostgres(s.postgres.Pool)
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	// Truncate in dependency order
	err := s.postgres.TruncateTables(ctx, "review_votes", "review_submissions")
	s.Require().NoError(err)
}

var indoreEvents = models.Scope{Region: "Indore", Module: "events"}

func (s *PostgresStoreSuite) TestCreateGetAndList() {
	ctx := context.Background()

	first, err := s.store.Create(ctx, indoreEvents, json.RawMessage(`{"n":1}`))
	s.Require().NoError(err)
	second, err := s.store.Create(ctx, indoreEvents, json.RawMessage(`{"n":2}`))
	s.Require().NoError(err)

	found, err := s.store.Get(ctx, first.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusPending, found.Status)
	s.JSONEq(`{"n":1}`, string(found.Payload))

	listed, err := s.store.ListByStatus(ctx, indoreEvents, models.StatusPending)
	s.Require().NoError(err)
	s.Require().Len(listed, 2)
	// Newest first; equal timestamps fall back to insertion order.
	if listed[0].CreatedAt.Equal(listed[1].CreatedAt) {
		s.Equal(first.ID, listed[0].ID)
		s.Equal(second.ID, listed[1].ID)
	} else {
		s.Equal(second.ID, listed[0].ID)
	}

	_, err = s.store.Get(ctx, "11111111-2222-3333-4444-555555555555")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestSetStatusLifecycle() {
	ctx := context.Background()

	sub, err := s.store.Create(ctx, indoreEvents, json.RawMessage(`{}`))
	s.Require().NoError(err)

	s.Require().NoError(s.store.SetStatus(ctx, sub.ID, models.StatusApproved))
	s.Require().NoError(s.store.SetStatus(ctx, sub.ID, models.StatusApproved), "same terminal status is a no-op")

	err = s.store.SetStatus(ctx, sub.ID, models.StatusRejected)
	s.Require().ErrorIs(err, sentinel.ErrInvalidState)
}

// TestConcurrentFinalization verifies that racing writers agree on one
// terminal status: exactly one conditional update wins.
func (s *PostgresStoreSuite) TestConcurrentFinalization() {
	ctx := context.Background()

	sub, err := s.store.Create(ctx, indoreEvents, json.RawMessage(`{}`))
	s.Require().NoError(err)

	const goroutines = 20
	var wg sync.WaitGroup
	var approvals, conflicts atomic.Int32

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		status := models.StatusApproved
		if i%2 == 1 {
			status = models.StatusRejected
		}
		go func() {
			defer wg.Done()
			err := s.store.SetStatus(ctx, sub.ID, status)
			switch {
			case err == nil && status == models.StatusApproved:
				approvals.Add(1)
			case err != nil:
				conflicts.Add(1)
			}
		}()
	}
	wg.Wait()

	final, err := s.store.Get(ctx, sub.ID)
	s.Require().NoError(err)
	s.True(final.Status.Terminal())

	// Every opposite-direction writer must have seen ErrInvalidState; the
	// same-direction ones either won or no-opped.
	s.Equal(int32(goroutines/2), conflicts.Load())
	if final.Status == models.StatusApproved {
		s.Equal(int32(goroutines/2), approvals.Load())
	} else {
		s.Zero(approvals.Load())
	}
}

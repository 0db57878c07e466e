//go:build integration

package ledger_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"concord/internal/review/models"
	"concord/internal/review/store/ledger"
	"concord/internal/review/store/submission"
	"concord/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres    *containers.PostgresContainer
	store       *ledger.PostgresStore
	submissions *submission.PostgresStore
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
	s.store = ledger.NewPostgres(s.postgres.Pool)
	s.submissions = submission.NewPostgres(s.postgres.Pool)
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	err := s.postgres.TruncateTables(ctx, "review_votes", "review_submissions")
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) newSubmission() string {
	s.T().Helper()
	sub, err := s.submissions.Create(context.Background(),
		models.Scope{Region: "Indore", Module: "events"}, json.RawMessage(`{}`))
	s.Require().NoError(err)
	return sub.ID
}

func (s *PostgresStoreSuite) cast(submissionID, reviewerID string, decision models.Decision) {
	s.T().Helper()
	err := s.store.Cast(context.Background(), models.Vote{
		SubmissionID: submissionID,
		ReviewerID:   reviewerID,
		Decision:     decision,
		CastAt:       time.Now(),
	})
	s.Require().NoError(err)
}

func eligible(ids ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func (s *PostgresStoreSuite) TestCastUpsertsPerReviewer() {
	ctx := context.Background()
	subID := s.newSubmission()

	s.cast(subID, "alice", models.DecisionApprove)
	s.cast(subID, "alice", models.DecisionReject)
	s.cast(subID, "bob", models.DecisionApprove)

	votes, err := s.store.List(ctx, subID)
	s.Require().NoError(err)
	s.Len(votes, 2)

	tally, err := s.store.Tally(ctx, subID, eligible("alice", "bob"))
	s.Require().NoError(err)
	s.Equal(models.Tally{Approve: 1, Reject: 1}, tally)
}

func (s *PostgresStoreSuite) TestTallyHonorsEligibleSet() {
	ctx := context.Background()
	subID := s.newSubmission()

	s.cast(subID, "alice", models.DecisionApprove)
	s.cast(subID, "mallory", models.DecisionApprove)

	tally, err := s.store.Tally(ctx, subID, eligible("alice"))
	s.Require().NoError(err)
	s.Equal(models.Tally{Approve: 1, Reject: 0}, tally)

	tally, err = s.store.Tally(ctx, subID, eligible())
	s.Require().NoError(err)
	s.Equal(models.Tally{}, tally, "empty eligible set counts nothing")
}

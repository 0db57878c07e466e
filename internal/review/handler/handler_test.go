package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"concord/internal/review/audit"
	"concord/internal/review/metrics"
	"concord/internal/review/models"
	"concord/internal/review/quorum"
	"concord/internal/review/service"
	"concord/internal/review/store/ledger"
	"concord/internal/review/store/registry"
	"concord/internal/review/store/submission"
	"concord/pkg/testutil"
)

var testMetrics = metrics.New()

type HandlerSuite struct {
	suite.Suite
	router chi.Router
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	svc := service.NewService(
		submission.NewInMemoryStore(),
		registry.NewInMemoryStore(),
		ledger.NewInMemoryStore(),
		quorum.New(),
		testMetrics,
		audit.NewPublisher(audit.NewInMemoryStore()),
	)
	h := New(svc, slog.New(slog.DiscardHandler), testMetrics)
	s.router = chi.NewRouter()
	h.Register(s.router)
}

func (s *HandlerSuite) submit(region, module string) *models.Submission {
	s.T().Helper()
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/review/"+module+"/submissions", SubmitRequest{
		Region:  region,
		Payload: json.RawMessage(`{"title":"weekend flea market"}`),
	})
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rr, http.StatusCreated)
	return testutil.UnmarshalResponse[models.Submission](s.T(), rr)
}

func (s *HandlerSuite) ensureReviewer(region, module, reviewerID string) {
	s.T().Helper()
	req := testutil.NewRequest(s.T(), http.MethodPut, "/review/"+region+"/"+module+"/reviewers/"+reviewerID)
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rr, http.StatusNoContent)
}

func (s *HandlerSuite) vote(module, submissionID, reviewerID string, approve bool) *httptest.ResponseRecorder {
	s.T().Helper()
	req := testutil.NewJSONRequest(s.T(), http.MethodPost,
		"/review/"+module+"/submissions/"+submissionID+"/votes",
		VoteRequest{ReviewerID: reviewerID, Approve: approve})
	return testutil.DoRequest(s.router, req)
}

func (s *HandlerSuite) finalize(module, submissionID string) *finalizeResponse {
	s.T().Helper()
	req := testutil.NewRequest(s.T(), http.MethodPost,
		"/review/"+module+"/submissions/"+submissionID+"/finalize")
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	return testutil.UnmarshalResponse[finalizeResponse](s.T(), rr)
}

func (s *HandlerSuite) TestSubmitAndList() {
	sub := s.submit("Indore", "events")
	s.Equal("Indore", sub.Region)
	s.Equal(models.StatusPending, sub.Status)

	req := testutil.NewRequest(s.T(), http.MethodGet, "/review/Indore/events/submissions?status=pending")
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	list := testutil.UnmarshalResponse[submissionListResponse](s.T(), rr)
	s.Require().Len(list.Submissions, 1)
	s.Equal(sub.ID, list.Submissions[0].ID)
}

func (s *HandlerSuite) TestSubmitRejectsMissingRegion() {
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/review/events/submissions", SubmitRequest{
		Payload: json.RawMessage(`{}`),
	})
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
	testutil.AssertErrorCode(s.T(), rr, "bad_request")
}

func (s *HandlerSuite) TestReviewersEndpointReportsQuorum() {
	for _, id := range []string{"alice", "bob", "carol", "dave", "erin"} {
		s.ensureReviewer("Indore", "events", id)
	}

	req := testutil.NewRequest(s.T(), http.MethodGet, "/review/Indore/events/reviewers")
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rr, http.StatusOK)

	resp := testutil.UnmarshalResponse[reviewersResponse](s.T(), rr)
	s.Equal(5, resp.Count)
	s.Equal(4, resp.QuorumNeeded)
	s.Equal([]string{"alice", "bob", "carol", "dave", "erin"}, resp.Reviewers)
}

func (s *HandlerSuite) TestVoteAndFinalizeFlow() {
	for _, id := range []string{"alice", "bob", "carol", "dave", "erin"} {
		s.ensureReviewer("Indore", "events", id)
	}
	sub := s.submit("Indore", "events")

	for _, id := range []string{"alice", "bob", "carol"} {
		rr := s.vote("events", sub.ID, id, true)
		testutil.AssertStatus(s.T(), rr, http.StatusNoContent)
	}

	resp := s.finalize("events", sub.ID)
	s.False(resp.Finalized)
	s.Nil(resp.Submission)

	rr := s.vote("events", sub.ID, "dave", true)
	testutil.AssertStatus(s.T(), rr, http.StatusNoContent)

	resp = s.finalize("events", sub.ID)
	s.True(resp.Finalized)
	s.Require().NotNil(resp.Submission)
	s.Equal(models.StatusApproved, resp.Submission.Status)

	// Late vote on the finalized submission conflicts.
	rr = s.vote("events", sub.ID, "erin", false)
	testutil.AssertStatus(s.T(), rr, http.StatusConflict)
	testutil.AssertErrorCode(s.T(), rr, "already_finalized")
}

func (s *HandlerSuite) TestVoteOnUnknownSubmission() {
	rr := s.vote("events", "no-such-id", "alice", true)
	testutil.AssertStatus(s.T(), rr, http.StatusNotFound)
	testutil.AssertErrorCode(s.T(), rr, "not_found")
}

func (s *HandlerSuite) TestRemoveReviewer() {
	s.ensureReviewer("Indore", "events", "alice")

	req := testutil.NewRequest(s.T(), http.MethodDelete, "/review/Indore/events/reviewers/alice")
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rr, http.StatusNoContent)

	listReq := testutil.NewRequest(s.T(), http.MethodGet, "/review/Indore/events/reviewers")
	listRR := testutil.DoRequest(s.router, listReq)
	resp := testutil.UnmarshalResponse[reviewersResponse](s.T(), listRR)
	s.Zero(resp.Count)
}

func (s *HandlerSuite) TestListRejectsUnknownStatus() {
	req := testutil.NewRequest(s.T(), http.MethodGet, "/review/Indore/events/submissions?status=bogus")
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
}

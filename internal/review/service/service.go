// Package service implements the review engine: submission lifecycle, vote
// bookkeeping, and quorum finalization. All business rules live here; stores
// only persist, and transports only translate.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"concord/internal/review/audit"
	"concord/internal/review/metrics"
	"concord/internal/review/models"
	"concord/internal/review/quorum"
	"concord/internal/review/store/ledger"
	"concord/internal/review/store/registry"
	"concord/internal/review/store/submission"
	dErrors "concord/pkg/domain-errors"
	"concord/pkg/platform/sentinel"
)

// Service orchestrates the submission store, reviewer registry, and vote
// ledger. Reviewer counts and tallies are always recomputed from current
// state, never cached, so a registry change between votes cannot leave a
// stale quorum behind.
type Service struct {
	submissions submission.Store
	registry    registry.Store
	ledger      ledger.Store
	calc        quorum.Calculator
	metrics     *metrics.Metrics
	audit       *audit.Publisher

	// finalizing serializes the read-tally-transition sequence per submission.
	finalizing *keyedMutex
}

func NewService(
	submissions submission.Store,
	reg registry.Store,
	led ledger.Store,
	calc quorum.Calculator,
	m *metrics.Metrics,
	auditlog *audit.Publisher,
) *Service {
	return &Service{
		submissions: submissions,
		registry:    reg,
		ledger:      led,
		calc:        calc,
		metrics:     m,
		audit:       auditlog,
		finalizing:  newKeyedMutex(),
	}
}

// Submit creates a pending submission. The payload is opaque to the engine;
// the caller supplies the region it belongs to.
func (s *Service) Submit(ctx context.Context, module, region string, payload json.RawMessage) (*models.Submission, error) {
	scope := models.Scope{Region: region, Module: module}
	if err := scope.Validate(); err != nil {
		return nil, err
	}
	if len(payload) == 0 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "payload must not be empty")
	}

	sub, err := s.submissions.Create(ctx, scope, payload)
	if err != nil {
		return nil, storageErr("create submission", err)
	}

	s.metrics.IncrementSubmissions()
	s.emit(ctx, audit.Event{
		Action:       audit.ActionSubmissionCreated,
		Region:       sub.Region,
		Module:       sub.Module,
		SubmissionID: sub.ID,
	})
	return sub, nil
}

// Vote records a reviewer's decision on a pending submission. Casting again
// overwrites the reviewer's prior decision. The vote is stored regardless of
// the reviewer's registration; only currently registered reviewers count at
// finalization time.
func (s *Service) Vote(ctx context.Context, module, submissionID, reviewerID string, approve bool) error {
	if reviewerID == "" {
		return dErrors.New(dErrors.CodeBadRequest, "reviewer id must not be empty")
	}

	sub, err := s.getInModule(ctx, module, submissionID)
	if err != nil {
		return err
	}
	if sub.Status.Terminal() {
		return dErrors.Wrap(dErrors.CodeAlreadyFinalized, "submission is finalized", sentinel.ErrAlreadyFinalized)
	}

	decision := models.DecisionReject
	if approve {
		decision = models.DecisionApprove
	}
	vote := models.Vote{
		SubmissionID: sub.ID,
		ReviewerID:   reviewerID,
		Decision:     decision,
		CastAt:       time.Now(),
	}
	if err := s.ledger.Cast(ctx, vote); err != nil {
		return storageErr("cast vote", err)
	}

	s.metrics.IncrementVotes(string(decision))
	s.emit(ctx, audit.Event{
		Action:       audit.ActionVoteCast,
		Region:       sub.Region,
		Module:       sub.Module,
		SubmissionID: sub.ID,
		ReviewerID:   reviewerID,
		Decision:     string(decision),
	})
	return nil
}

// TryFinalize checks whether the submission has reached quorum and, if so,
// transitions it to its terminal status. It returns (nil, nil) when the
// submission is unknown or still pending, and the unchanged record when it
// is already terminal, so callers can probe after every vote without
// guarding.
func (s *Service) TryFinalize(ctx context.Context, module, submissionID string) (*models.Submission, error) {
	sub, err := s.getInModule(ctx, module, submissionID)
	if err != nil {
		if dErrors.Is(err, dErrors.CodeNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if sub.Status.Terminal() {
		return sub, nil
	}

	s.finalizing.Lock(sub.ID)
	defer s.finalizing.Unlock(sub.ID)

	// Re-read under the lock: a racing finalizer may have won.
	sub, err = s.getInModule(ctx, module, submissionID)
	if err != nil {
		return nil, err
	}
	if sub.Status.Terminal() {
		return sub, nil
	}

	// Reviewer count and tally come from live state at this moment, not from
	// anything cached at submission or vote time.
	reviewers, err := s.registry.List(ctx, sub.Scope())
	if err != nil {
		return nil, storageErr("list reviewers", err)
	}
	eligible := make(map[string]struct{}, len(reviewers))
	for _, id := range reviewers {
		eligible[id] = struct{}{}
	}

	tally, err := s.ledger.Tally(ctx, sub.ID, eligible)
	if err != nil {
		return nil, storageErr("tally votes", err)
	}

	needed := s.calc.Needed(len(reviewers))
	status, reached := s.calc.Resolve(tally, needed)
	if !reached {
		return nil, nil
	}

	if err := s.submissions.SetStatus(ctx, sub.ID, status); err != nil {
		if errors.Is(err, sentinel.ErrInvalidState) {
			// Lost the race to a writer outside this process; report what won.
			return s.getInModule(ctx, module, submissionID)
		}
		return nil, storageErr("finalize submission", err)
	}
	sub.Status = status

	s.metrics.IncrementFinalizations(string(status))
	s.emit(ctx, audit.Event{
		Action:       audit.ActionSubmissionFinalized,
		Region:       sub.Region,
		Module:       sub.Module,
		SubmissionID: sub.ID,
		Status:       string(status),
	})
	return sub, nil
}

// ListPending returns pending submissions for the scope, newest first.
func (s *Service) ListPending(ctx context.Context, region, module string) ([]*models.Submission, error) {
	return s.listByStatus(ctx, region, module, models.StatusPending)
}

// ListApproved returns approved submissions for the scope, newest first.
func (s *Service) ListApproved(ctx context.Context, region, module string) ([]*models.Submission, error) {
	return s.listByStatus(ctx, region, module, models.StatusApproved)
}

// EnsureReviewer registers a reviewer for the scope. Registering twice is a
// no-op.
func (s *Service) EnsureReviewer(ctx context.Context, region, module, reviewerID string) error {
	scope := models.Scope{Region: region, Module: module}
	if err := scope.Validate(); err != nil {
		return err
	}
	if reviewerID == "" {
		return dErrors.New(dErrors.CodeBadRequest, "reviewer id must not be empty")
	}
	if err := s.registry.Ensure(ctx, scope, reviewerID); err != nil {
		return storageErr("register reviewer", err)
	}
	return nil
}

// RemoveReviewer withdraws a reviewer's standing in the scope. Votes the
// reviewer already cast stay in the ledger but stop counting toward quorum.
func (s *Service) RemoveReviewer(ctx context.Context, region, module, reviewerID string) error {
	scope := models.Scope{Region: region, Module: module}
	if err := scope.Validate(); err != nil {
		return err
	}
	if err := s.registry.Remove(ctx, scope, reviewerID); err != nil {
		return storageErr("remove reviewer", err)
	}
	return nil
}

// Reviewers returns the reviewer ids registered for the scope, unordered.
func (s *Service) Reviewers(ctx context.Context, region, module string) ([]string, error) {
	scope := models.Scope{Region: region, Module: module}
	if err := scope.Validate(); err != nil {
		return nil, err
	}
	reviewers, err := s.registry.List(ctx, scope)
	if err != nil {
		return nil, storageErr("list reviewers", err)
	}
	return reviewers, nil
}

// QuorumNeeded returns the same-direction vote count currently required to
// finalize a submission in the scope.
func (s *Service) QuorumNeeded(ctx context.Context, region, module string) (int, error) {
	scope := models.Scope{Region: region, Module: module}
	if err := scope.Validate(); err != nil {
		return 0, err
	}
	count, err := s.registry.Count(ctx, scope)
	if err != nil {
		return 0, storageErr("count reviewers", err)
	}
	return s.calc.Needed(count), nil
}

func (s *Service) listByStatus(ctx context.Context, region, module string, status models.Status) ([]*models.Submission, error) {
	scope := models.Scope{Region: region, Module: module}
	if err := scope.Validate(); err != nil {
		return nil, err
	}
	subs, err := s.submissions.ListByStatus(ctx, scope, status)
	if err != nil {
		return nil, storageErr("list submissions", err)
	}
	return subs, nil
}

// getInModule resolves a submission and hides ones filed under a different
// module, so callers cannot reach across scopes by guessing ids.
func (s *Service) getInModule(ctx context.Context, module, submissionID string) (*models.Submission, error) {
	sub, err := s.submissions.Get(ctx, submissionID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(dErrors.CodeNotFound, "submission not found", err)
		}
		return nil, storageErr("get submission", err)
	}
	if sub.Module != module {
		return nil, dErrors.New(dErrors.CodeNotFound, "submission not found")
	}
	return sub, nil
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Emit(ctx, event)
}

func storageErr(op string, err error) error {
	return dErrors.Wrap(dErrors.CodeUnavailable, op+" failed", err)
}

package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"

	"concord/internal/platform/middleware"
	"concord/internal/review/metrics"
	"concord/internal/review/models"
	dErrors "concord/pkg/domain-errors"
	"concord/pkg/platform/httputil"
)

// Service defines the review engine operations the transport needs.
type Service interface {
	Submit(ctx context.Context, module, region string, payload json.RawMessage) (*models.Submission, error)
	Vote(ctx context.Context, module, submissionID, reviewerID string, approve bool) error
	TryFinalize(ctx context.Context, module, submissionID string) (*models.Submission, error)
	ListPending(ctx context.Context, region, module string) ([]*models.Submission, error)
	ListApproved(ctx context.Context, region, module string) ([]*models.Submission, error)
	EnsureReviewer(ctx context.Context, region, module, reviewerID string) error
	RemoveReviewer(ctx context.Context, region, module, reviewerID string) error
	Reviewers(ctx context.Context, region, module string) ([]string, error)
	QuorumNeeded(ctx context.Context, region, module string) (int, error)
}

// Handler exposes the review engine over HTTP.
type Handler struct {
	logger  *slog.Logger
	review  Service
	metrics *metrics.Metrics
}

// New creates a new review Handler.
func New(review Service, logger *slog.Logger, metrics *metrics.Metrics) *Handler {
	return &Handler{
		logger:  logger,
		review:  review,
		metrics: metrics,
	}
}

// Register registers the review routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	reviewRouter := chi.NewRouter()
	reviewRouter.Use(middleware.Recovery(h.logger))
	reviewRouter.Use(middleware.RequestID)
	reviewRouter.Use(middleware.Logger(h.logger))
	reviewRouter.Use(middleware.Timeout(30 * time.Second))
	reviewRouter.Use(middleware.ContentTypeJSON)
	reviewRouter.Use(middleware.Latency(h.metrics))

	reviewRouter.Post("/{module}/submissions", h.handleSubmit)
	reviewRouter.Post("/{module}/submissions/{submissionID}/votes", h.handleVote)
	reviewRouter.Post("/{module}/submissions/{submissionID}/finalize", h.handleFinalize)
	reviewRouter.Put("/{region}/{module}/reviewers/{reviewerID}", h.handleEnsureReviewer)
	reviewRouter.Delete("/{region}/{module}/reviewers/{reviewerID}", h.handleRemoveReviewer)
	reviewRouter.Get("/{region}/{module}/reviewers", h.handleListReviewers)
	reviewRouter.Get("/{region}/{module}/submissions", h.handleListSubmissions)

	r.Mount("/review", reviewRouter)
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	module := chi.URLParam(r, "module")

	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.warn(ctx, "invalid submit request", err)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	sub, err := h.review.Submit(ctx, module, req.Region, req.Payload)
	if err != nil {
		h.writeServiceError(w, r, "submit failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, sub)
}

func (h *Handler) handleVote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	module := chi.URLParam(r, "module")
	submissionID := chi.URLParam(r, "submissionID")

	var req VoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.warn(ctx, "invalid vote request", err)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	if err := h.review.Vote(ctx, module, submissionID, req.ReviewerID, req.Approve); err != nil {
		h.writeServiceError(w, r, "vote failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) handleFinalize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	module := chi.URLParam(r, "module")
	submissionID := chi.URLParam(r, "submissionID")

	sub, err := h.review.TryFinalize(ctx, module, submissionID)
	if err != nil {
		h.writeServiceError(w, r, "finalize failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, finalizeResponse{
		Finalized:  sub != nil && sub.Status.Terminal(),
		Submission: sub,
	})
}

func (h *Handler) handleEnsureReviewer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	region := chi.URLParam(r, "region")
	module := chi.URLParam(r, "module")
	reviewerID := chi.URLParam(r, "reviewerID")

	if err := h.review.EnsureReviewer(ctx, region, module, reviewerID); err != nil {
		h.writeServiceError(w, r, "register reviewer failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) handleRemoveReviewer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	region := chi.URLParam(r, "region")
	module := chi.URLParam(r, "module")
	reviewerID := chi.URLParam(r, "reviewerID")

	if err := h.review.RemoveReviewer(ctx, region, module, reviewerID); err != nil {
		h.writeServiceError(w, r, "remove reviewer failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) handleListReviewers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	region := chi.URLParam(r, "region")
	module := chi.URLParam(r, "module")

	reviewers, err := h.review.Reviewers(ctx, region, module)
	if err != nil {
		h.writeServiceError(w, r, "list reviewers failed", err)
		return
	}
	needed, err := h.review.QuorumNeeded(ctx, region, module)
	if err != nil {
		h.writeServiceError(w, r, "quorum lookup failed", err)
		return
	}

	// Registry order is unspecified; sort for a stable API surface.
	sort.Strings(reviewers)
	httputil.WriteJSON(w, http.StatusOK, reviewersResponse{
		Region:       region,
		Module:       module,
		Reviewers:    reviewers,
		Count:        len(reviewers),
		QuorumNeeded: needed,
	})
}

func (h *Handler) handleListSubmissions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	region := chi.URLParam(r, "region")
	module := chi.URLParam(r, "module")

	status := r.URL.Query().Get("status")
	if status == "" {
		status = string(models.StatusPending)
	}

	var (
		subs []*models.Submission
		err  error
	)
	switch models.Status(status) {
	case models.StatusPending:
		subs, err = h.review.ListPending(ctx, region, module)
	case models.StatusApproved:
		subs, err = h.review.ListApproved(ctx, region, module)
	default:
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "status must be pending or approved"))
		return
	}
	if err != nil {
		h.writeServiceError(w, r, "list submissions failed", err)
		return
	}
	if subs == nil {
		subs = []*models.Submission{}
	}
	httputil.WriteJSON(w, http.StatusOK, submissionListResponse{Submissions: subs})
}

func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	ctx := r.Context()
	if dErrors.Is(err, dErrors.CodeInternal) || dErrors.Is(err, dErrors.CodeUnavailable) {
		h.logger.ErrorContext(ctx, msg,
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
	} else {
		h.warn(ctx, msg, err)
	}
	httputil.WriteError(w, err)
}

func (h *Handler) warn(ctx context.Context, msg string, err error) {
	h.logger.WarnContext(ctx, msg,
		"request_id", middleware.GetRequestID(ctx),
		"error", err.Error(),
	)
}

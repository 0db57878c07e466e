// Package submission persists review submissions. Stores return sentinel
// errors; the engine translates them into domain errors.
package submission

import (
	"context"
	"encoding/json"

	"concord/internal/review/models"
)

// Store is the submission persistence contract.
//
// SetStatus enforces the lifecycle: pending → approved|rejected only. Setting
// a terminal submission to the status it already has is a no-op, so repeated
// finalization calls stay safe; setting it to a different status returns
// sentinel.ErrInvalidState.
type Store interface {
	Create(ctx context.Context, scope models.Scope, payload json.RawMessage) (*models.Submission, error)
	Get(ctx context.Context, id string) (*models.Submission, error)
	ListByStatus(ctx context.Context, scope models.Scope, status models.Status) ([]*models.Submission, error)
	SetStatus(ctx context.Context, id string, status models.Status) error
}

// Package registry tracks which reviewers have standing in each
// (region, module) scope. Membership is a set: registering twice is a no-op.
package registry

import (
	"context"

	"concord/internal/review/models"
)

// Store is the reviewer membership contract. List is unordered; callers
// that need determinism sort the result. Remove never touches votes the
// reviewer has already cast — the engine simply stops counting them.
type Store interface {
	Ensure(ctx context.Context, scope models.Scope, reviewerID string) error
	Remove(ctx context.Context, scope models.Scope, reviewerID string) error
	List(ctx context.Context, scope models.Scope) ([]string, error)
	Count(ctx context.Context, scope models.Scope) (int, error)
}

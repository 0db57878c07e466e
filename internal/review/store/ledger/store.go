// Package ledger records reviewer votes. One live vote per
// (submission, reviewer) pair; casting again overwrites the prior decision.
//
// The ledger stores every cast vote, including ones from reviewers who have
// since lost their registration. Eligibility is applied at tally time: the
// engine passes the currently registered set and only those votes count.
package ledger

import (
	"context"

	"concord/internal/review/models"
)

// Store is the vote persistence contract. Freezing the ledger once a
// submission is terminal is the engine's job; stores only upsert and count.
type Store interface {
	Cast(ctx context.Context, vote models.Vote) error
	List(ctx context.Context, submissionID string) ([]models.Vote, error)
	Tally(ctx context.Context, submissionID string, eligible map[string]struct{}) (models.Tally, error)
}

package ledger

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"concord/internal/review/models"
)

// PostgresStore persists votes in PostgreSQL with an upsert per
// (submission, reviewer) pair.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgres constructs a PostgreSQL-backed vote ledger.
func NewPostgres(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Cast(ctx context.Context, vote models.Vote) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO review_votes (submission_id, reviewer_id, decision, cast_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (submission_id, reviewer_id)
		 DO UPDATE SET decision = EXCLUDED.decision, cast_at = EXCLUDED.cast_at`,
		vote.SubmissionID, vote.ReviewerID, string(vote.Decision), vote.CastAt)
	if err != nil {
		return fmt.Errorf("cast vote: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, submissionID string) ([]models.Vote, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT submission_id, reviewer_id, decision, cast_at
		 FROM review_votes WHERE submission_id = $1`, submissionID)
	if err != nil {
		return nil, fmt.Errorf("list votes: %w", err)
	}
	defer rows.Close()

	var out []models.Vote
	for rows.Next() {
		var (
			vote     models.Vote
			decision string
		)
		if err := rows.Scan(&vote.SubmissionID, &vote.ReviewerID, &decision, &vote.CastAt); err != nil {
			return nil, fmt.Errorf("scan vote: %w", err)
		}
		vote.Decision = models.Decision(decision)
		out = append(out, vote)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list votes: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Tally(ctx context.Context, submissionID string, eligible map[string]struct{}) (models.Tally, error) {
	reviewers := make([]string, 0, len(eligible))
	for id := range eligible {
		reviewers = append(reviewers, id)
	}

	var tally models.Tally
	if len(reviewers) == 0 {
		return tally, nil
	}

	row := s.pool.QueryRow(ctx,
		`SELECT
		   COUNT(*) FILTER (WHERE decision = $3),
		   COUNT(*) FILTER (WHERE decision = $4)
		 FROM review_votes
		 WHERE submission_id = $1 AND reviewer_id = ANY($2)`,
		submissionID, reviewers,
		string(models.DecisionApprove), string(models.DecisionReject))
	if err := row.Scan(&tally.Approve, &tally.Reject); err != nil {
		return models.Tally{}, fmt.Errorf("tally votes: %w", err)
	}
	return tally, nil
}

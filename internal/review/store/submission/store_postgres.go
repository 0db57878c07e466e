package submission

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"concord/internal/review/models"
	"concord/pkg/platform/sentinel"
)

// PostgresStore persists submissions in PostgreSQL. The seq column breaks
// created_at ties so listings stay stable across reads.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgres constructs a PostgreSQL-backed submission store.
func NewPostgres(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Create(ctx context.Context, scope models.Scope, payload json.RawMessage) (*models.Submission, error) {
	sub := &models.Submission{
		ID:      uuid.NewString(),
		Region:  scope.Region,
		Module:  scope.Module,
		Payload: append(json.RawMessage(nil), payload...),
		Status:  models.StatusPending,
	}
	row := s.pool.QueryRow(ctx,
		`INSERT INTO review_submissions (id, region, module, payload, status)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at`,
		sub.ID, sub.Region, sub.Module, sub.Payload, string(sub.Status))
	if err := row.Scan(&sub.CreatedAt); err != nil {
		return nil, fmt.Errorf("create submission: %w", err)
	}
	return sub, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*models.Submission, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, region, module, payload, status, created_at
		 FROM review_submissions WHERE id = $1`, id)

	sub, err := scanSubmission(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get submission: %w", err)
	}
	return sub, nil
}

func (s *PostgresStore) ListByStatus(ctx context.Context, scope models.Scope, status models.Status) ([]*models.Submission, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, region, module, payload, status, created_at
		 FROM review_submissions
		 WHERE region = $1 AND module = $2 AND status = $3
		 ORDER BY created_at DESC, seq ASC`,
		scope.Region, scope.Module, string(status))
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	defer rows.Close()

	var out []*models.Submission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		out = append(out, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	return out, nil
}

// SetStatus transitions pending submissions only. The conditional UPDATE is
// the at-most-once guard: racing finalizers see zero rows and fall through
// to the current-status check.
func (s *PostgresStore) SetStatus(ctx context.Context, id string, status models.Status) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE review_submissions SET status = $2
		 WHERE id = $1 AND status = $3`,
		id, string(status), string(models.StatusPending))
	if err != nil {
		return fmt.Errorf("set submission status: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var current string
	row := s.pool.QueryRow(ctx, `SELECT status FROM review_submissions WHERE id = $1`, id)
	if err := row.Scan(&current); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return sentinel.ErrNotFound
		}
		return fmt.Errorf("read submission status: %w", err)
	}
	if models.Status(current) == status {
		return nil
	}
	return sentinel.ErrInvalidState
}

func scanSubmission(row pgx.Row) (*models.Submission, error) {
	var (
		sub    models.Submission
		status string
	)
	if err := row.Scan(&sub.ID, &sub.Region, &sub.Module, &sub.Payload, &status, &sub.CreatedAt); err != nil {
		return nil, err
	}
	sub.Status = models.Status(status)
	return &sub, nil
}

//go:build integration

package containers

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

// schema mirrors migrations/0001_init.sql; applied once per container.
const schema = `
CREATE TABLE IF NOT EXISTS review_submissions (
    id         UUID PRIMARY KEY,
    region     TEXT NOT NULL,
    module     TEXT NOT NULL,
    payload    JSONB NOT NULL,
    status     TEXT NOT NULL DEFAULT 'pending',
    seq        BIGSERIAL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_review_submissions_scope_status
    ON review_submissions (region, module, status, created_at DESC);

CREATE TABLE IF NOT EXISTS review_votes (
    submission_id UUID NOT NULL REFERENCES review_submissions (id),
    reviewer_id   TEXT NOT NULL,
    decision      TEXT NOT NULL,
    cast_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (submission_id, reviewer_id)
);
`

// PostgresContainer wraps a testcontainers Postgres instance with an open pool.
type PostgresContainer struct {
	Container testcontainers.Container
	Pool      *pgxpool.Pool
}

// NewPostgresContainer starts a new Postgres container and applies the schema.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("concord"),
		tcpostgres.WithUsername("concord"),
		tcpostgres.WithPassword("concord"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	url, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get postgres connection string: %v", err)
	}

	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to open postgres pool: %v", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to apply schema: %v", err)
	}

	// Cleanup is left to Ryuk; the container is shared across suites.
	return &PostgresContainer{Container: container, Pool: pool}
}

// TruncateTables empties the given tables between tests.
func (p *PostgresContainer) TruncateTables(ctx context.Context, tables ...string) error {
	if len(tables) == 0 {
		return nil
	}
	_, err := p.Pool.Exec(ctx,
		fmt.Sprintf("TRUNCATE TABLE %s CASCADE", strings.Join(tables, ", ")))
	return err
}

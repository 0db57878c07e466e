package registry

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"concord/internal/review/models"
)

const keyPrefix = "concord:reviewers:"

// RedisStore keeps reviewer sets in Redis so registrations survive restarts
// and are shared across nodes. One Redis set per scope.
type RedisStore struct {
	client *redis.Client
}

// NewRedis constructs a Redis-backed registry store.
func NewRedis(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func scopeKey(scope models.Scope) string {
	return keyPrefix + scope.Key()
}

func (s *RedisStore) Ensure(ctx context.Context, scope models.Scope, reviewerID string) error {
	if err := s.client.SAdd(ctx, scopeKey(scope), reviewerID).Err(); err != nil {
		return fmt.Errorf("register reviewer: %w", err)
	}
	return nil
}

func (s *RedisStore) Remove(ctx context.Context, scope models.Scope, reviewerID string) error {
	if err := s.client.SRem(ctx, scopeKey(scope), reviewerID).Err(); err != nil {
		return fmt.Errorf("remove reviewer: %w", err)
	}
	return nil
}

func (s *RedisStore) List(ctx context.Context, scope models.Scope) ([]string, error) {
	members, err := s.client.SMembers(ctx, scopeKey(scope)).Result()
	if err != nil {
		return nil, fmt.Errorf("list reviewers: %w", err)
	}
	return members, nil
}

func (s *RedisStore) Count(ctx context.Context, scope models.Scope) (int, error) {
	n, err := s.client.SCard(ctx, scopeKey(scope)).Result()
	if err != nil {
		return 0, fmt.Errorf("count reviewers: %w", err)
	}
	return int(n), nil
}

//go:build integration

package registry_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"concord/internal/review/models"
	"concord/internal/review/store/registry"
	"concord/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *registry.RedisStore
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.redis = mgr.GetRedis(s.T())
	s.store = registry.NewRedis(s.redis.Client)
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisStoreSuite) TestMembershipRoundTrip() {
	ctx := context.Background()
	scope := models.Scope{Region: "Indore", Module: "events"}

	s.Require().NoError(s.store.Ensure(ctx, scope, "alice"))
	s.Require().NoError(s.store.Ensure(ctx, scope, "alice"), "re-registering is a no-op")
	s.Require().NoError(s.store.Ensure(ctx, scope, "bob"))

	count, err := s.store.Count(ctx, scope)
	s.Require().NoError(err)
	s.Equal(2, count)

	members, err := s.store.List(ctx, scope)
	s.Require().NoError(err)
	s.ElementsMatch([]string{"alice", "bob"}, members)

	s.Require().NoError(s.store.Remove(ctx, scope, "alice"))
	count, err = s.store.Count(ctx, scope)
	s.Require().NoError(err)
	s.Equal(1, count)
}

func (s *RedisStoreSuite) TestScopesAreIsolated() {
	ctx := context.Background()

	s.Require().NoError(s.store.Ensure(ctx, models.Scope{Region: "Mumbai", Module: "events"}, "alice"))

	count, err := s.store.Count(ctx, models.Scope{Region: "Mumbai", Module: "deals"})
	s.Require().NoError(err)
	s.Zero(count, "standing in one module grants none in another")
}

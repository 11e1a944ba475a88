//go:build integration

package pdl

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"punsj/internal/platform/config"
	platformredis "punsj/internal/platform/redis"
	"punsj/pkg/domain"
	"punsj/pkg/testutil/containers"
)

type CacheIntegrationSuite struct {
	suite.Suite
	redis  *containers.RedisContainer
	client *platformredis.Client
}

func TestCacheIntegrationSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(CacheIntegrationSuite))
}

func (s *CacheIntegrationSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
	client, err := platformredis.New(context.Background(), config.RedisConfig{
		URL:         s.redis.URL,
		PoolSize:    4,
		DialTimeout: 2 * time.Second,
		ReadTimeout: time.Second,
	})
	s.Require().NoError(err)
	s.client = client
}

func (s *CacheIntegrationSuite) TearDownSuite() {
	if s.client != nil {
		_ = s.client.Close()
	}
}

func (s *CacheIntegrationSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *CacheIntegrationSuite) TestLookupIsCachedWithTTL() {
	ctx := context.Background()
	next := &countingResolver{}
	cached := NewCachedResolver(next, s.client.Client, 10*time.Minute)

	for i := 0; i < 3; i++ {
		got, err := cached.ActorID(ctx, "01010050053")
		s.Require().NoError(err)
		s.Equal(domain.ActorID("aktor-01010050053"), got)
	}
	s.Equal(int32(1), next.calls.Load())

	ttl, err := s.redis.Client.TTL(ctx, cacheKey("01010050053")).Result()
	s.Require().NoError(err)
	s.InDelta(10*time.Minute, ttl, float64(5*time.Second))
}

func (s *CacheIntegrationSuite) TestHealth() {
	s.NoError(s.client.Health(context.Background()))
}

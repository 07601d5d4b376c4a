//go:build integration

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/itbi-consulta/internal/model"
)

type RedisCacheSuite struct {
	suite.Suite
	container *tcredis.RedisContainer
	client    *redis.Client
	cache     *Redis[model.Transaction]
}

func TestRedisCacheSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisCacheSuite))
}

func (s *RedisCacheSuite) SetupSuite() {
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	s.Require().NoError(err)
	s.container = container

	url, err := container.ConnectionString(ctx)
	s.Require().NoError(err)

	client, err := NewRedisClient(ctx, url)
	s.Require().NoError(err)
	s.client = client
	s.cache = NewRedis[model.Transaction](client, time.Minute)
}

func (s *RedisCacheSuite) TearDownSuite() {
	if s.client != nil {
		s.client.Close()
	}
	if s.container != nil {
		_ = s.container.Terminate(context.Background())
	}
}

func (s *RedisCacheSuite) SetupTest() {
	s.Require().NoError(s.client.FlushAll(context.Background()).Err())
}

func (s *RedisCacheSuite) TestRoundTripAndSignatureChange() {
	ctx := context.Background()
	rows := []model.Transaction{{StreetName: "RUA A", HouseNumber: 10, TransactionValue: 1, BuiltArea: 1, TransferredSharePct: 100}}

	s.Require().NoError(s.cache.Set(ctx, Key{Dataset: "itbi", Signature: "v1"}, rows))

	got, ok, err := s.cache.Get(ctx, Key{Dataset: "itbi", Signature: "v1"})
	s.Require().NoError(err)
	s.True(ok)
	s.Equal(rows, got)

	s.Require().NoError(s.cache.Set(ctx, Key{Dataset: "itbi", Signature: "v2"}, rows[:0]))

	_, ok, err = s.cache.Get(ctx, Key{Dataset: "itbi", Signature: "v1"})
	s.Require().NoError(err)
	s.False(ok, "older signatures are dropped on Set")
}

func (s *RedisCacheSuite) TestInvalidate() {
	ctx := context.Background()
	key := Key{Dataset: "itbi", Signature: "v1"}
	s.Require().NoError(s.cache.Set(ctx, key, []model.Transaction{{StreetName: "RUA B"}}))
	s.Require().NoError(s.cache.Invalidate(ctx, "itbi"))

	_, ok, err := s.cache.Get(ctx, key)
	s.Require().NoError(err)
	s.False(ok)
}

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "itbi:dataset:"

// Redis stores snapshots as JSON so several server processes share them.
type Redis[T any] struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisClient connects to url and pings it. An empty url returns nil.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	if url == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

// NewRedis creates a Redis-backed cache. ttl <= 0 keeps entries until
// invalidated.
func NewRedis[T any](client *redis.Client, ttl time.Duration) *Redis[T] {
	if ttl < 0 {
		ttl = 0
	}
	return &Redis[T]{client: client, ttl: ttl}
}

func redisKey(key Key) string {
	return keyPrefix + key.Dataset + ":" + key.Signature
}

// Get loads the snapshot stored under key.
func (r *Redis[T]) Get(ctx context.Context, key Key) ([]T, bool, error) {
	data, err := r.client.Get(ctx, redisKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}

	var rows []T
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, false, fmt.Errorf("decode cached %s: %w", key, err)
	}
	return rows, true, nil
}

// Set stores the snapshot after dropping entries of older signatures.
func (r *Redis[T]) Set(ctx context.Context, key Key, rows []T) error {
	if err := r.Invalidate(ctx, key.Dataset); err != nil {
		return err
	}

	data, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := r.client.Set(ctx, redisKey(key), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Invalidate deletes every key of the dataset.
func (r *Redis[T]) Invalidate(ctx context.Context, dataset string) error {
	iter := r.client.Scan(ctx, 0, keyPrefix+dataset+":*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan %s: %w", dataset, err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", dataset, err)
	}
	return nil
}

package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySignatureInvalidation(t *testing.T) {
	ctx := context.Background()
	c := NewMemory[int]()

	rows, ok, err := c.Get(ctx, Key{Dataset: "itbi", Signature: "a"})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, rows)

	require.NoError(t, c.Set(ctx, Key{Dataset: "itbi", Signature: "a"}, []int{1, 2}))

	rows, ok, err = c.Get(ctx, Key{Dataset: "itbi", Signature: "a"})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []int{1, 2}, rows)

	_, ok, err = c.Get(ctx, Key{Dataset: "itbi", Signature: "b"})
	require.NoError(t, err)
	assert.False(t, ok, "a new source signature must miss")
}

func TestMemoryInvalidate(t *testing.T) {
	ctx := context.Background()
	c := NewMemory[string]()
	key := Key{Dataset: "itbi", Signature: "a"}

	require.NoError(t, c.Set(ctx, key, []string{"x"}))
	require.NoError(t, c.Set(ctx, Key{Dataset: "iptu", Signature: "a"}, []string{"y"}))
	require.NoError(t, c.Invalidate(ctx, "itbi"))

	_, ok, _ := c.Get(ctx, key)
	assert.False(t, ok)

	_, ok, _ = c.Get(ctx, Key{Dataset: "iptu", Signature: "a"})
	assert.True(t, ok, "other datasets are untouched")
}

func TestKeyString(t *testing.T) {
	assert.Equal(t, "itbi:abc", Key{Dataset: "itbi", Signature: "abc"}.String())
	assert.Equal(t, "itbi:dataset:itbi:abc", redisKey(Key{Dataset: "itbi", Signature: "abc"}))
}

func TestNewRedisClientEmptyURL(t *testing.T) {
	client, err := NewRedisClient(context.Background(), "")
	require.NoError(t, err)
	assert.Nil(t, client)
}

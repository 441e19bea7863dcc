package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheService_TTL(t *testing.T) {
	cs := NewCacheService(0)
	defer cs.Close()

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	cs.now = func() time.Time { return now }

	cs.Set("disputes:stats", 42, time.Minute)
	v, ok := cs.Get("disputes:stats")
	require.True(t, ok)
	assert.Equal(t, 42, v)

	now = now.Add(2 * time.Minute)
	_, ok = cs.Get("disputes:stats")
	assert.False(t, ok)
}

func TestCacheService_InvalidateDisputeCache(t *testing.T) {
	cs := NewCacheService(0)
	defer cs.Close()

	cs.Set(DisputeStatsCacheKey, 1, time.Hour)
	cs.Set("other:key", 2, time.Hour)
	cs.InvalidateDisputeCache()

	_, ok := cs.Get(DisputeStatsCacheKey)
	assert.False(t, ok)
	_, ok = cs.Get("other:key")
	assert.True(t, ok)
}

func TestCacheService_GetOrSet(t *testing.T) {
	cs := NewCacheService(0)
	defer cs.Close()
	ctx := context.Background()

	calls := 0
	load := func(context.Context) (interface{}, error) {
		calls++
		return calls, nil
	}

	v, err := cs.GetOrSet(ctx, "k", time.Hour, load)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	v, err = cs.GetOrSet(ctx, "k", time.Hour, load)
	require.NoError(t, err)
	assert.Equal(t, 1, v)
	assert.Equal(t, 1, calls)

	_, err = cs.GetOrSet(ctx, "failing", time.Hour, func(context.Context) (interface{}, error) {
		return nil, errors.New("db down")
	})
	assert.Error(t, err)
	_, ok := cs.Get("failing")
	assert.False(t, ok)
}

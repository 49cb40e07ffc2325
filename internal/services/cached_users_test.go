package services

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"task-manager/api/internal/cache"
	"task-manager/api/internal/logging"
	"task-manager/api/internal/models"
)

func TestCachedProfileLookup_ReadThrough(t *testing.T) {
	store, _ := newTestCredentials(t)
	alice := registerUser(t, store, "alice")

	counter := &countingLookup{next: store}
	lookup := NewCachedProfileLookup(counter, cache.NewMultiLevelCache(nil), time.Minute, logging.Discard())
	ctx := context.Background()

	first, err := lookup.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	second, err := lookup.FindByUsername(ctx, "alice")
	require.NoError(t, err)

	assert.Equal(t, int32(1), counter.calls.Load())
	assert.Equal(t, alice.ID, second.ID)
	assert.Equal(t, first.Username, second.Username)
	assert.True(t, first.CreatedAt.Equal(second.CreatedAt))
}

func TestCachedProfileLookup_MissesAreNotCached(t *testing.T) {
	store, _ := newTestCredentials(t)
	counter := &countingLookup{next: store}
	lookup := NewCachedProfileLookup(counter, cache.NewMultiLevelCache(nil), time.Minute, logging.Discard())
	ctx := context.Background()

	_, err := lookup.FindByUsername(ctx, "bob")
	assert.ErrorIs(t, err, models.ErrUserNotFound)

	registerUser(t, store, "bob")

	profile, err := lookup.FindByUsername(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, "bob", profile.Username)
	assert.Equal(t, int32(2), counter.calls.Load())
}

func TestCachedProfileLookup_SharedThroughRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	store, _ := newTestCredentials(t)
	registerUser(t, store, "alice")

	newLookup := func(next ProfileLookup) *CachedProfileLookup {
		config := cache.DefaultCacheConfig()
		config.Addr = mr.Addr()
		c := cache.NewMultiLevelCache(cache.NewRedisCache(config), cache.WithLogger(logging.Discard()))
		t.Cleanup(func() { _ = c.Close() })
		return NewCachedProfileLookup(next, c, time.Minute, logging.Discard())
	}

	first := &countingLookup{next: store}
	_, err := newLookup(first).FindByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.True(t, mr.Exists("taskmgr:user_profile:alice"))

	second := &countingLookup{next: store}
	profile, err := newLookup(second).FindByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", profile.Username)
	assert.Equal(t, int32(0), second.calls.Load(), "served from L2")
}

func TestCachedProfileLookup_RedisDownFallsBackToStore(t *testing.T) {
	mr := miniredis.RunT(t)
	store, _ := newTestCredentials(t)
	registerUser(t, store, "alice")

	config := cache.DefaultCacheConfig()
	config.Addr = mr.Addr()
	config.MaxRetries = -1
	c := cache.NewMultiLevelCache(cache.NewRedisCache(config), cache.WithLogger(logging.Discard()))
	defer c.Close()
	mr.Close()

	lookup := NewCachedProfileLookup(store, c, time.Minute, logging.Discard())
	profile, err := lookup.FindByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", profile.Username)
}

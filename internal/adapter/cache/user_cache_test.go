package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	domain "user-calc-service/internal/domain/user"
)

// setupTestCache creates a miniredis-backed cache for testing
func setupTestCache(t *testing.T, ttl time.Duration) (UserCache, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() {
		_ = client.Close()
	})
	return NewRedisUserCache(client, ttl, zaptest.NewLogger(t)), mr
}

func TestKey(t *testing.T) {
	assert.Equal(t, "user:42", Key(42))
}

func TestRedisUserCache_SetAndGet(t *testing.T) {
	cache, mr := setupTestCache(t, 5*time.Minute)
	ctx := context.Background()

	jane := domain.Seed()[1]
	stored, err := cache.SetIfVersion(ctx, &jane, 0)
	require.NoError(t, err)
	require.True(t, stored)

	raw, err := mr.Get(Key(jane.ID))
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":2,"name":"Jane","email":"jane@example.com"}`, raw)

	cached, err := cache.Get(ctx, jane.ID)
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, jane, *cached)
}

func TestRedisUserCache_SetIfVersion_NilUser(t *testing.T) {
	cache, _ := setupTestCache(t, 5*time.Minute)

	_, err := cache.SetIfVersion(context.Background(), nil, 0)
	assert.EqualError(t, err, "cannot cache nil user")
}

func TestRedisUserCache_Get_CacheMiss(t *testing.T) {
	cache, _ := setupTestCache(t, 5*time.Minute)

	cached, err := cache.Get(context.Background(), 999)
	require.NoError(t, err)
	assert.Nil(t, cached)
}

func TestRedisUserCache_Get_CorruptEntry(t *testing.T) {
	cache, mr := setupTestCache(t, 5*time.Minute)
	require.NoError(t, mr.Set(Key(1), "not json"))

	cached, err := cache.Get(context.Background(), 1)
	assert.Error(t, err)
	assert.Nil(t, cached)
}

func TestRedisUserCache_Delete(t *testing.T) {
	cache, mr := setupTestCache(t, 5*time.Minute)
	ctx := context.Background()

	john := domain.Seed()[0]
	_, err := cache.SetIfVersion(ctx, &john, 0)
	require.NoError(t, err)
	require.NoError(t, cache.Delete(ctx, john.ID))

	assert.False(t, mr.Exists(Key(john.ID)))
	version, err := cache.Version(ctx, john.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)
	assert.Equal(t, versionTTL, mr.TTL(VersionKey(john.ID)))

	// deleting a missing key is not an error
	assert.NoError(t, cache.Delete(ctx, 12345))
}

func TestRedisUserCache_TTL(t *testing.T) {
	cache, mr := setupTestCache(t, 2*time.Second)
	ctx := context.Background()

	john := domain.Seed()[0]
	_, err := cache.SetIfVersion(ctx, &john, 0)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, mr.TTL(Key(john.ID)))

	mr.FastForward(3 * time.Second)

	cached, err := cache.Get(ctx, john.ID)
	require.NoError(t, err)
	assert.Nil(t, cached)
}

func TestRedisUserCache_SetIfVersion_StaleVersion(t *testing.T) {
	cache, mr := setupTestCache(t, 5*time.Minute)
	ctx := context.Background()
	john := domain.Seed()[0]

	version, err := cache.Version(ctx, john.ID)
	require.NoError(t, err)
	assert.Zero(t, version)

	// a mutation invalidates between the version read and the fill
	require.NoError(t, cache.Delete(ctx, john.ID))

	stored, err := cache.SetIfVersion(ctx, &john, version)
	require.NoError(t, err)
	assert.False(t, stored)
	assert.False(t, mr.Exists(Key(john.ID)))

	version, err = cache.Version(ctx, john.ID)
	require.NoError(t, err)
	stored, err = cache.SetIfVersion(ctx, &john, version)
	require.NoError(t, err)
	assert.True(t, stored)
	assert.True(t, mr.Exists(Key(john.ID)))
}

func TestRedisUserCache_Version_Error(t *testing.T) {
	cache, mr := setupTestCache(t, 5*time.Minute)
	mr.SetError("LOADING")

	_, err := cache.Version(context.Background(), 1)
	assert.Error(t, err)
}

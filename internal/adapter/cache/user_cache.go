package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	domain "user-calc-service/internal/domain/user"
)

// UserCache defines the interface for user caching operations.
//
// Every id has a version that Delete bumps. A reader takes the version
// before it reads the store and fills with SetIfVersion, so a fill that
// raced a mutation is dropped instead of resurrecting stale data.
type UserCache interface {
	// Get retrieves a user from cache by ID.
	// Returns nil if user is not found in cache.
	Get(ctx context.Context, id int64) (*domain.User, error)

	// Version returns the invalidation counter of id, 0 if never bumped.
	Version(ctx context.Context, id int64) (int64, error)

	// SetIfVersion stores user with the configured TTL only while its
	// version still equals version. It reports whether the entry was written.
	SetIfVersion(ctx context.Context, user *domain.User, version int64) (bool, error)

	// Delete bumps the version of id and removes its entry.
	Delete(ctx context.Context, id int64) error
}

// versionTTL outlives any in-flight fill; it is refreshed on every bump.
const versionTTL = 24 * time.Hour

// RedisUserCache implements UserCache using Redis as the backing store.
type RedisUserCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

// NewRedisUserCache creates a new Redis-backed user cache.
func NewRedisUserCache(client *redis.Client, ttl time.Duration, log *zap.Logger) UserCache {
	return &RedisUserCache{
		client: client,
		ttl:    ttl,
		log:    log,
	}
}

// Key generates the Redis key for a user ID.
func Key(id int64) string {
	return fmt.Sprintf("user:%d", id)
}

// VersionKey generates the Redis key holding the version of a user ID.
func VersionKey(id int64) string {
	return fmt.Sprintf("user:%d:version", id)
}

// Get retrieves a user from Redis cache.
func (c *RedisUserCache) Get(ctx context.Context, id int64) (*domain.User, error) {
	key := Key(id)

	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		// Cache miss - not an error
		c.log.Debug("cache miss", zap.Int64("user_id", id))
		return nil, nil
	}
	if err != nil {
		c.log.Error("failed to get from cache", zap.Int64("user_id", id), zap.Error(err))
		return nil, err
	}

	var user domain.User
	if err := json.Unmarshal(data, &user); err != nil {
		c.log.Error("failed to unmarshal cached user", zap.Int64("user_id", id), zap.Error(err))
		return nil, err
	}

	c.log.Debug("cache hit", zap.Int64("user_id", id))
	return &user, nil
}

// Version reads the invalidation counter of id.
func (c *RedisUserCache) Version(ctx context.Context, id int64) (int64, error) {
	v, err := c.client.Get(ctx, VersionKey(id)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		c.log.Error("failed to read cache version", zap.Int64("user_id", id), zap.Error(err))
		return 0, err
	}
	return v, nil
}

// SetIfVersion writes user under WATCH on its version key, so a Delete
// landing between the check and the write aborts the transaction.
func (c *RedisUserCache) SetIfVersion(ctx context.Context, user *domain.User, version int64) (bool, error) {
	if user == nil {
		return false, errors.New("cannot cache nil user")
	}

	data, err := json.Marshal(user)
	if err != nil {
		c.log.Error("failed to marshal user for cache", zap.Int64("user_id", user.ID), zap.Error(err))
		return false, err
	}

	versionKey := VersionKey(user.ID)
	stored := false
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, versionKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != version {
			return nil
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, Key(user.ID), data, c.ttl)
			return nil
		})
		stored = err == nil
		return err
	}, versionKey)

	if errors.Is(err, redis.TxFailedErr) {
		c.log.Debug("cache fill lost to invalidation", zap.Int64("user_id", user.ID))
		return false, nil
	}
	if err != nil {
		c.log.Error("failed to set cache", zap.Int64("user_id", user.ID), zap.Error(err))
		return false, err
	}
	if !stored {
		c.log.Debug("cache fill skipped, version changed", zap.Int64("user_id", user.ID), zap.Int64("version", version))
		return false, nil
	}

	c.log.Debug("cached user", zap.Int64("user_id", user.ID), zap.Duration("ttl", c.ttl))
	return true, nil
}

// Delete bumps the version and removes the entry in one transaction.
func (c *RedisUserCache) Delete(ctx context.Context, id int64) error {
	versionKey := VersionKey(id)

	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, versionKey)
		pipe.Expire(ctx, versionKey, versionTTL)
		pipe.Del(ctx, Key(id))
		return nil
	})
	if err != nil {
		c.log.Error("failed to delete from cache", zap.Int64("user_id", id), zap.Error(err))
		return err
	}

	c.log.Debug("deleted from cache", zap.Int64("user_id", id))
	return nil
}

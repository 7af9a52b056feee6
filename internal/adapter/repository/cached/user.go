package cached

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"user-calc-service/internal/adapter/cache"
	domain "user-calc-service/internal/domain/user"
	"user-calc-service/internal/usecase/user"
)

// CachedUserRepository implements user.Repository with caching support.
// It wraps the authoritative store (memory or DB) and a cache implementation.
type CachedUserRepository struct {
	store user.Repository
	cache cache.UserCache
	log   *zap.Logger
	group singleflight.Group
}

// NewCachedUserRepository creates a new instance of CachedUserRepository.
func NewCachedUserRepository(store user.Repository, cache cache.UserCache, log *zap.Logger) *CachedUserRepository {
	return &CachedUserRepository{
		store: store,
		cache: cache,
		log:   log,
	}
}

// Create delegates to the store, then drops any stale entry for the new id.
// Under max+1 allocation the id may belong to a user deleted earlier.
func (r *CachedUserRepository) Create(ctx context.Context, u *domain.User) (*domain.User, error) {
	created, err := r.store.Create(ctx, u)
	if err != nil {
		return nil, err
	}
	r.invalidate(ctx, created.ID, "create")
	return created, nil
}

// GetByID retrieves a user by ID using Cache-Aside pattern. The cache
// version is read before the store, and the fill only lands if no mutation
// bumped it in between.
func (r *CachedUserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	var version int64
	fill := false
	if r.cache != nil {
		cachedUser, err := r.cache.Get(ctx, id)
		if err != nil {
			r.log.Warn("cache get error, falling back to store", zap.Int64("id", id), zap.Error(err))
		} else if cachedUser != nil {
			r.log.Debug("user retrieved from cache", zap.Int64("id", id))
			return cachedUser, nil
		}

		if version, err = r.cache.Version(ctx, id); err != nil {
			r.log.Warn("cache version error, skipping fill", zap.Int64("id", id), zap.Error(err))
		} else {
			fill = true
		}
	}

	// Cache miss or cache disabled - use single-flight to prevent stampede.
	// Flights are per version so a read issued after a mutation never joins
	// one that started before it.
	flight := fmt.Sprintf("%s@%d", cache.Key(id), version)
	result, err, _ := r.group.Do(flight, func() (any, error) {
		u, err := r.store.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}

		if fill {
			if _, err := r.cache.SetIfVersion(ctx, u, version); err != nil {
				r.log.Warn("failed to cache user", zap.Int64("id", id), zap.Error(err))
			}
		}

		return u, nil
	})
	if err != nil {
		return nil, err
	}

	// callers sharing a flight must not share the pointer
	u := *result.(*domain.User)
	return &u, nil
}

// Update updates the user in the store and invalidates the cache.
func (r *CachedUserRepository) Update(ctx context.Context, id int64, patch domain.Patch) (*domain.User, error) {
	updated, err := r.store.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	r.invalidate(ctx, id, "update")
	return updated, nil
}

// Delete deletes the user from the store and invalidates the cache.
func (r *CachedUserRepository) Delete(ctx context.Context, id int64) error {
	if err := r.store.Delete(ctx, id); err != nil {
		return err
	}
	r.invalidate(ctx, id, "delete")
	return nil
}

func (r *CachedUserRepository) invalidate(ctx context.Context, id int64, op string) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Delete(ctx, id); err != nil {
		r.log.Warn(fmt.Sprintf("failed to invalidate cache after %s", op), zap.Int64("id", id), zap.Error(err))
	}
}

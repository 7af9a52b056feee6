package memory

import (
	"context"
	"sync"

	"go.uber.org/zap"

	domain "user-calc-service/internal/domain/user"
	apperrors "user-calc-service/pkg/errors"
	"user-calc-service/pkg/logger"
)

// UserRepo is a mutex-guarded in-memory user store.
type UserRepo struct {
	mu        sync.RWMutex
	users     map[int64]domain.User
	policy    domain.IDPolicy
	highWater int64 // highest id ever assigned
	log       *zap.Logger
}

// NewUserRepo creates an empty store, optionally seeded with domain.Seed().
func NewUserRepo(policy domain.IDPolicy, seed bool, log *zap.Logger) *UserRepo {
	r := &UserRepo{
		users:  make(map[int64]domain.User),
		policy: policy,
		log:    log,
	}
	if seed {
		for _, u := range domain.Seed() {
			r.users[u.ID] = u
			r.highWater = max(r.highWater, u.ID)
		}
	}
	return r
}

// Create assigns the next id and stores a copy of u.
func (r *UserRepo) Create(ctx context.Context, u *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.nextID()
	if id <= r.highWater {
		logger.WithContext(ctx, r.log).Warn("user id reused",
			zap.Int64("id", id),
			zap.Int64("highest_assigned", r.highWater),
		)
	}

	created := domain.User{ID: id, Name: u.Name, Email: u.Email}
	r.users[id] = created
	r.highWater = max(r.highWater, id)

	r.log.Debug("user created in memory", zap.Int64("id", id))
	return &created, nil
}

// nextID must be called with r.mu held.
func (r *UserRepo) nextID() int64 {
	if r.policy == domain.IDPolicyMonotonic {
		return r.highWater + 1
	}
	var maxID int64
	for id := range r.users {
		maxID = max(maxID, id)
	}
	return maxID + 1
}

// GetByID returns a copy of the stored user.
func (r *UserRepo) GetByID(_ context.Context, id int64) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	return &u, nil
}

// Update applies patch to the stored user under the write lock.
func (r *UserRepo) Update(_ context.Context, id int64, patch domain.Patch) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	patch.Apply(&u)
	r.users[id] = u

	r.log.Debug("user updated in memory", zap.Int64("id", id))
	return &u, nil
}

// Delete removes the user.
func (r *UserRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return apperrors.ErrUserNotFound
	}
	delete(r.users, id)

	r.log.Debug("user deleted in memory", zap.Int64("id", id))
	return nil
}

// Len returns the number of stored users.
func (r *UserRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}

package postgres

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"user-calc-service/internal/domain/user"
	apperrors "user-calc-service/pkg/errors"
)

// UserRepoPG implements the user Repository on top of GORM. It runs against
// PostgreSQL in deployments and SQLite in tests or single-node setups.
type UserRepoPG struct {
	db     *gorm.DB      // GORM database connection
	policy user.IDPolicy // how new ids are chosen
	log    *zap.Logger   // Structured logger for database operations
}

// NewUserRepoPG creates a new instance of UserRepoPG.
func NewUserRepoPG(db *gorm.DB, policy user.IDPolicy, log *zap.Logger) *UserRepoPG {
	return &UserRepoPG{db: db, policy: policy, log: log}
}

// UserSchema represents the database schema for the users table.
type UserSchema struct {
	ID    int64  `gorm:"primaryKey;autoIncrement"` // Unique identifier
	Name  string `gorm:"not null"`                 // User's display name (required)
	Email string `gorm:"not null"`                 // User's email address (required, not unique)
}

// TableName specifies the table name for the UserSchema model.
func (UserSchema) TableName() string {
	return "users"
}

// Migrate creates the users table and inserts the seed users into an empty table.
func (r *UserRepoPG) Migrate(ctx context.Context, seed bool) error {
	db := r.db.WithContext(ctx)
	if err := db.AutoMigrate(&UserSchema{}); err != nil {
		return fmt.Errorf("failed to migrate users table: %w", err)
	}
	if !seed {
		return nil
	}

	return db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&UserSchema{}).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to count users: %w", err)
		}
		if count > 0 {
			return nil
		}

		for _, u := range user.Seed() {
			model := UserSchema{ID: u.ID, Name: u.Name, Email: u.Email}
			if err := tx.Create(&model).Error; err != nil {
				return fmt.Errorf("failed to seed user %d: %w", u.ID, err)
			}
		}
		r.log.Info("seeded users table", zap.Int("count", len(user.Seed())))
		return syncSequence(tx)
	})
}

// Create inserts a new user and returns it with the assigned id.
func (r *UserRepoPG) Create(ctx context.Context, u *user.User) (*user.User, error) {
	if u == nil {
		return nil, errors.New("user cannot be nil")
	}

	model := UserSchema{
		Name:  u.Name,
		Email: u.Email,
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if r.policy == user.IDPolicyMonotonic {
			return tx.Create(&model).Error
		}

		if tx.Dialector.Name() == "postgres" {
			if err := tx.Exec("LOCK TABLE users IN SHARE ROW EXCLUSIVE MODE").Error; err != nil {
				return err
			}
		}

		var maxID int64
		if err := tx.Model(&UserSchema{}).Select("COALESCE(MAX(id), 0)").Scan(&maxID).Error; err != nil {
			return err
		}
		model.ID = maxID + 1

		if err := tx.Create(&model).Error; err != nil {
			return err
		}
		return syncSequence(tx)
	})
	if err != nil {
		r.log.Error("failed to create user in db", zap.Error(err), zap.String("email", u.Email))
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	r.log.Info("user created in db", zap.Int64("id", model.ID))
	return toDomain(model), nil
}

// Update applies a partial update to an existing user.
func (r *UserRepoPG) Update(ctx context.Context, id int64, patch user.Patch) (*user.User, error) {
	var model UserSchema

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&model, id).Error; err != nil {
			return err
		}

		updates := make(map[string]any, 2)
		if patch.Name != nil {
			updates["name"] = *patch.Name
		}
		if patch.Email != nil {
			updates["email"] = *patch.Email
		}
		if len(updates) == 0 {
			return nil
		}
		return tx.Model(&model).Updates(updates).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			r.log.Warn("user not found", zap.Int64("id", id))
			return nil, apperrors.ErrUserNotFound
		}
		r.log.Error("failed to update user in db", zap.Error(err), zap.Int64("id", id))
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	updated := toDomain(model)
	patch.Apply(updated)

	r.log.Info("user updated in db", zap.Int64("id", id))
	return updated, nil
}

// Delete removes a user from the database by ID.
func (r *UserRepoPG) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&UserSchema{}, id)
	if res.Error != nil {
		r.log.Error("failed to delete user in db", zap.Error(res.Error), zap.Int64("id", id))
		return fmt.Errorf("failed to delete user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrUserNotFound
	}

	r.log.Info("user deleted in db", zap.Int64("id", id))
	return nil
}

// GetByID retrieves a user from the database by their unique ID.
func (r *UserRepoPG) GetByID(ctx context.Context, id int64) (*user.User, error) {
	var model UserSchema
	if err := r.db.WithContext(ctx).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			r.log.Debug("user not found", zap.Int64("id", id))
			return nil, apperrors.ErrUserNotFound
		}
		r.log.Error("failed to get user from db", zap.Error(err), zap.Int64("id", id))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return toDomain(model), nil
}

// syncSequence moves the PostgreSQL id sequence past explicitly inserted ids
// so later monotonic inserts do not collide. Other dialects need nothing.
func syncSequence(tx *gorm.DB) error {
	if tx.Dialector.Name() != "postgres" {
		return nil
	}
	return tx.Exec("SELECT setval(pg_get_serial_sequence('users', 'id'), (SELECT COALESCE(MAX(id), 1) FROM users))").Error
}

func toDomain(m UserSchema) *user.User {
	return &user.User{
		ID:    m.ID,
		Name:  m.Name,
		Email: m.Email,
	}
}

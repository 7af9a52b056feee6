package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	domain "user-calc-service/internal/domain/user"
	apperrors "user-calc-service/pkg/errors"
	"user-calc-service/pkg/logger"
)

// MissingFieldsMessage is returned when a create request lacks name or email.
const MissingFieldsMessage = "Missing required fields (name, email)"

// Repository defines the interface for user data access operations.
// Implementations own id assignment and return apperrors.ErrUserNotFound
// for absent ids.
type Repository interface {
	Create(ctx context.Context, u *domain.User) (*domain.User, error)               // Create a user and assign its id
	GetByID(ctx context.Context, id int64) (*domain.User, error)                    // Retrieve user by ID
	Update(ctx context.Context, id int64, patch domain.Patch) (*domain.User, error) // Apply a partial update
	Delete(ctx context.Context, id int64) error                                     // Delete user by ID
}

// UserUsecase implements the business logic for user management operations.
// It provides a clean separation between the transport layer and data layer.
type UserUsecase struct {
	repo     Repository          // Repository for data access
	log      *zap.Logger         // Logger for structured logging
	validate *validator.Validate // Validator for request validation
}

// New creates a new instance of UserUsecase with the provided repository and logger.
func New(r Repository, log *zap.Logger) *UserUsecase {
	return &UserUsecase{repo: r, log: log, validate: validator.New()}
}

// formatValidationError converts validator.ValidationErrors into the client-facing
// validation error. Any missing field yields the same message.
func formatValidationError(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	field := ""
	for _, e := range validationErrors {
		if field != "" {
			field += ", "
		}
		field += e.Field()
	}
	return apperrors.NewValidationError(field, MissingFieldsMessage)
}

// CreateUser creates a new user after validating the request.
func (uc *UserUsecase) CreateUser(ctx context.Context, in CreateUserRequest) (*CreateUserResponse, error) {
	log := logger.WithContext(ctx, uc.log)
	log.Info("creating user", zap.String("name", in.Name), zap.String("email", in.Email))

	if err := uc.validate.Struct(in); err != nil {
		log.Warn("validate failed", zap.Error(err))
		return nil, formatValidationError(err)
	}

	created, err := uc.repo.Create(ctx, &domain.User{
		Name:  in.Name,
		Email: in.Email,
	})
	if err != nil {
		log.Error("failed to create user", zap.Error(err))
		return nil, fmt.Errorf("create user: %w", err)
	}

	return &CreateUserResponse{User: toDTO(created)}, nil
}

// UpdateUser applies a partial update to an existing user.
func (uc *UserUsecase) UpdateUser(ctx context.Context, in UpdateUserRequest) (*UpdateUserResponse, error) {
	log := logger.WithContext(ctx, uc.log)
	log.Info("updating user", zap.Int64("id", in.ID), zap.Bool("name_set", in.Name != nil), zap.Bool("email_set", in.Email != nil))

	updated, err := uc.repo.Update(ctx, in.ID, domain.Patch{Name: in.Name, Email: in.Email})
	if err != nil {
		return nil, uc.repoError(log, "failed to update user", in.ID, err)
	}

	return &UpdateUserResponse{User: toDTO(updated)}, nil
}

// DeleteUser removes a user.
func (uc *UserUsecase) DeleteUser(ctx context.Context, in DeleteUserRequest) (*DeleteUserResponse, error) {
	log := logger.WithContext(ctx, uc.log)
	log.Info("deleting user", zap.Int64("id", in.ID))

	if err := uc.repo.Delete(ctx, in.ID); err != nil {
		return nil, uc.repoError(log, "failed to delete user", in.ID, err)
	}

	return &DeleteUserResponse{ID: in.ID}, nil
}

// GetUser retrieves a user by ID.
func (uc *UserUsecase) GetUser(ctx context.Context, in GetUserRequest) (*GetUserResponse, error) {
	log := logger.WithContext(ctx, uc.log)

	u, err := uc.repo.GetByID(ctx, in.ID)
	if err != nil {
		return nil, uc.repoError(log, "failed to get user", in.ID, err)
	}

	return &GetUserResponse{User: toDTO(u)}, nil
}

// repoError logs a repository failure at a level matching its kind.
// Not-found is an expected outcome and is passed through unwrapped.
func (uc *UserUsecase) repoError(log *zap.Logger, msg string, id int64, err error) error {
	var notFound *apperrors.NotFoundError
	if errors.As(err, &notFound) {
		log.Warn("user not found", zap.Int64("id", id))
		return err
	}
	log.Error(msg, zap.Int64("id", id), zap.Error(err))
	return fmt.Errorf("%s: %w", msg, err)
}

func toDTO(u *domain.User) User {
	return User{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
	}
}

package services

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"nyumbakumi/internal/adapters/persistence/models"
	"nyumbakumi/internal/adapters/persistence/repositories"
	"nyumbakumi/internal/core/domain"
	"nyumbakumi/internal/pkg/password"
)

// UserService handles the current user's profile
type UserService struct {
	users repositories.UserRepository
	log   *zap.Logger
}

// NewUserService creates a new user service
func NewUserService(users repositories.UserRepository, log *zap.Logger) *UserService {
	return &UserService{users: users, log: log}
}

// UpdateProfileInput represents update profile input (for self).
// Role and password are not part of the profile.
type UpdateProfileInput struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=100"`
	Email       *string `json:"email" validate:"omitempty,email"`
	PhoneNumber *string `json:"phoneNumber" validate:"omitempty,max=30"`
}

// ChangePasswordInput represents change password input
type ChangePasswordInput struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8"`
}

// GetProfile gets the current user's profile
func (s *UserService) GetProfile(ctx context.Context, actor domain.Actor) (*models.User, error) {
	user, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		return nil, orNotFound(err, domain.ErrUserNotFound)
	}
	return user, nil
}

// UpdateProfile updates the current user's profile
func (s *UserService) UpdateProfile(ctx context.Context, actor domain.Actor, input *UpdateProfileInput) (*models.User, error) {
	user, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		return nil, orNotFound(err, domain.ErrUserNotFound)
	}
	if err := applyProfile(user, input.Name, input.Email, input.PhoneNumber); err != nil {
		return nil, err
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, orConflict(err, domain.ErrEmailTaken)
	}
	return user, nil
}

// ChangePassword changes the current user's password
func (s *UserService) ChangePassword(ctx context.Context, actor domain.Actor, input *ChangePasswordInput) error {
	user, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		return orNotFound(err, domain.ErrUserNotFound)
	}

	if !password.Verify(input.OldPassword, user.Password) {
		return domain.ErrOldPasswordWrong
	}
	if !password.ValidatePassword(input.NewPassword) {
		return domain.Validationf("password must be at least %d characters", password.MinLength)
	}

	hashed, err := password.Hash(input.NewPassword)
	if err != nil {
		return err
	}
	user.Password = hashed
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}

	s.log.Info("password changed", zap.String("user_id", user.ID))
	return nil
}

// applyProfile copies the editable profile fields; nothing changed is NO_OP
func applyProfile(user *models.User, name, email, phone *string) error {
	changed := false
	if name != nil {
		v := strings.TrimSpace(*name)
		if v == "" {
			return domain.Validationf("name cannot be empty")
		}
		changed = changed || v != user.Name
		user.Name = v
	}
	if email != nil {
		v := strings.ToLower(strings.TrimSpace(*email))
		changed = changed || v != user.Email
		user.Email = v
	}
	if phone != nil {
		v := strings.TrimSpace(*phone)
		changed = changed || v != user.PhoneNumber
		user.PhoneNumber = v
	}
	if !changed {
		return domain.ErrNothingToUpdate
	}
	return nil
}

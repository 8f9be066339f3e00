package service

import (
	"context"
	"fmt"

	"github.com/ironloft/gymapp/internal/hash"
	"github.com/ironloft/gymapp/internal/logging"
	"github.com/ironloft/gymapp/internal/models"
	"github.com/ironloft/gymapp/internal/repo"
	"github.com/ironloft/gymapp/internal/transport"
)

type UserService struct {
	Repo *repo.GormRepo
}

func (s *UserService) Profile(ctx context.Context, id uint) (*models.User, error) {
	return s.Repo.UserByID(ctx, id)
}

func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	return s.Repo.Users(ctx)
}

// UpdateProfile applies only the allow-listed profile fields. Role and the
// password columns have dedicated privileged paths and can never be set
// through this one.
func (s *UserService) UpdateProfile(ctx context.Context, id uint, req transport.UpdateProfileRequest) (*models.User, error) {
	fields := map[string]any{}
	if req.FirstName != nil {
		if l := len(*req.FirstName); l < 4 || l > 40 {
			return nil, fmt.Errorf("%w: first_name must be 4-40 characters", ErrValidation)
		}
		fields["first_name"] = *req.FirstName
	}
	if req.LastName != nil {
		if l := len(*req.LastName); l < 4 || l > 40 {
			return nil, fmt.Errorf("%w: last_name must be 4-40 characters", ErrValidation)
		}
		fields["last_name"] = *req.LastName
	}
	if req.Address != nil {
		fields["address"] = *req.Address
	}
	if req.Bio != nil {
		fields["bio"] = *req.Bio
	}

	return s.Repo.UpdateProfile(ctx, id, fields)
}

func (s *UserService) ChangePassword(ctx context.Context, id uint, req transport.ChangePasswordRequest) error {
	l := logging.FromContext(ctx).With("svc", "user.change_password")

	if len(req.NewPassword) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", ErrValidation)
	}

	user, err := s.Repo.UserByID(ctx, id)
	if err != nil {
		return err
	}
	if !hash.Verify(req.CurrentPassword, user.PasswordHash, user.Salt) {
		l.Warn("change_password_failed", "reason", "current password mismatch", "userID", id)
		return repo.ErrInvalidCredentials
	}

	salt, err := hash.NewSalt()
	if err != nil {
		return err
	}
	return s.Repo.UpdatePassword(ctx, id, hash.Password(req.NewPassword, salt), salt)
}

func (s *UserService) ChangeRole(ctx context.Context, id uint, role string) error {
	if !models.ValidRole(role) {
		return fmt.Errorf("%w: role must be one of member, coach, admin", ErrValidation)
	}
	return s.Repo.UpdateRole(ctx, id, role)
}

func (s *UserService) Delete(ctx context.Context, id uint) error {
	return s.Repo.DeleteUser(ctx, id)
}

func (s *UserService) Classes(ctx context.Context, userID uint) ([]models.Class, error) {
	return s.Repo.ClassesForUser(ctx, userID)
}

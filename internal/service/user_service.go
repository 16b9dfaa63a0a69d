package service

import (
	"context"
	"strings"

	"unihub/internal/models"
	"unihub/internal/repository"
)

type UserService struct {
	userRepo repository.UserRepository
}

type UpdateProfileInput struct {
	UserID    uint
	Bio       string
	AvatarURL string
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

func (s *UserService) GetProfile(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

func (s *UserService) ListUsers(ctx context.Context, limit, offset int) ([]models.User, error) {
	return s.userRepo.List(ctx, limit, offset)
}

func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	const maxBioLen = 500

	bio := strings.TrimSpace(in.Bio)
	avatarURL := strings.TrimSpace(in.AvatarURL)

	if len(bio) > maxBioLen {
		return nil, models.NewValidationError("Bio too long (max 500 characters)")
	}

	if err := s.userRepo.UpdateProfile(ctx, in.UserID, bio, avatarURL); err != nil {
		return nil, err
	}
	return s.userRepo.GetByID(ctx, in.UserID)
}

// IsAdmin is the authorization hook handed to the community and post
// services.
func (s *UserService) IsAdmin(ctx context.Context, userID uint) (bool, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return false, err
	}
	return user.IsAdmin(), nil
}

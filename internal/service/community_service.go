package service

import (
	"context"
	"strings"

	"unihub/internal/models"
	"unihub/internal/repository"
	"unihub/internal/validation"
)

type CommunityService struct {
	communityRepo repository.CommunityRepository
	isAdmin       func(ctx context.Context, userID uint) (bool, error)
}

type CreateCommunityInput struct {
	UserID        uint
	Name          string
	Description   string
	CommunityType string
}

func NewCommunityService(
	communityRepo repository.CommunityRepository,
	isAdmin func(ctx context.Context, userID uint) (bool, error),
) *CommunityService {
	return &CommunityService{
		communityRepo: communityRepo,
		isAdmin:       isAdmin,
	}
}

// CreateCommunity makes the caller the first member. A duplicate name comes
// back as a DUPLICATE error carrying the existing community so the client can
// offer joining it instead.
func (s *CommunityService) CreateCommunity(ctx context.Context, in CreateCommunityInput) (*models.Community, error) {
	name := strings.TrimSpace(in.Name)
	if err := validation.ValidateCommunityName(name); err != nil {
		return nil, err
	}

	community := &models.Community{
		Name:          name,
		Description:   strings.TrimSpace(in.Description),
		CommunityType: strings.TrimSpace(in.CommunityType),
		CreatedByID:   in.UserID,
	}

	if err := s.communityRepo.Create(ctx, community); err != nil {
		appErr, ok := err.(*models.AppError)
		if ok && appErr.Code == "DUPLICATE" {
			existing, lookupErr := s.communityRepo.GetByName(ctx, name)
			if lookupErr == nil && existing != nil {
				return nil, models.NewDuplicateError("Community name already exists", existing)
			}
		}
		return nil, err
	}

	return s.communityRepo.GetByID(ctx, community.ID, in.UserID)
}

func (s *CommunityService) GetCommunity(ctx context.Context, id, currentUserID uint) (*models.Community, error) {
	return s.communityRepo.GetByID(ctx, id, currentUserID)
}

func (s *CommunityService) ListCommunities(ctx context.Context, currentUserID uint) ([]*models.Community, error) {
	return s.communityRepo.List(ctx, currentUserID)
}

// Explore lists the communities the user has not joined yet.
func (s *CommunityService) Explore(ctx context.Context, userID uint) ([]*models.Community, error) {
	return s.communityRepo.ListNotJoined(ctx, userID)
}

func (s *CommunityService) JoinCommunity(ctx context.Context, userID, communityID uint) error {
	if _, err := s.communityRepo.GetByID(ctx, communityID, 0); err != nil {
		return err
	}
	return s.communityRepo.Join(ctx, userID, communityID)
}

func (s *CommunityService) LeaveCommunity(ctx context.Context, userID, communityID uint) error {
	if _, err := s.communityRepo.GetByID(ctx, communityID, 0); err != nil {
		return err
	}
	return s.communityRepo.Leave(ctx, userID, communityID)
}

// DeleteCommunity is restricted to the creator and admins.
func (s *CommunityService) DeleteCommunity(ctx context.Context, userID, communityID uint) error {
	community, err := s.communityRepo.GetByID(ctx, communityID, 0)
	if err != nil {
		return err
	}

	if community.CreatedByID != userID {
		admin, err := s.isAdmin(ctx, userID)
		if err != nil {
			return err
		}
		if !admin {
			return models.NewForbiddenError("Only the creator or an admin can delete a community")
		}
	}

	return s.communityRepo.Delete(ctx, communityID)
}

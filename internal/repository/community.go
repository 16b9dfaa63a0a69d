package repository

import (
	"context"
	"errors"

	"unihub/internal/cache"
	"unihub/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CommunityRepository defines persistence operations for communities and memberships.
type CommunityRepository interface {
	Create(ctx context.Context, community *models.Community) error
	GetByID(ctx context.Context, id uint, currentUserID uint) (*models.Community, error)
	GetByName(ctx context.Context, name string) (*models.Community, error)
	List(ctx context.Context, currentUserID uint) ([]*models.Community, error)
	// ListNotJoined returns the communities the user has not joined.
	ListNotJoined(ctx context.Context, userID uint) ([]*models.Community, error)
	// Delete removes the community and everything hanging off it, in
	// foreign-key dependency order, inside one transaction.
	Delete(ctx context.Context, id uint) error
	Join(ctx context.Context, userID, communityID uint) error
	Leave(ctx context.Context, userID, communityID uint) error
	IsMember(ctx context.Context, userID, communityID uint) (bool, error)
}

type communityRepository struct {
	db *gorm.DB
}

// NewCommunityRepository returns a new CommunityRepository implementation.
func NewCommunityRepository(db *gorm.DB) CommunityRepository {
	return &communityRepository{db: db}
}

// applyCommunityDetails selects communities with a live member count and a
// joined flag for the requesting user.
func (r *communityRepository) applyCommunityDetails(db *gorm.DB, currentUserID uint) *gorm.DB {
	selectQuery := "communities.*, " +
		"(SELECT COUNT(*) FROM memberships WHERE memberships.community_id = communities.id) as member_count"

	if currentUserID != 0 {
		return db.Select(selectQuery+", EXISTS(SELECT 1 FROM memberships WHERE memberships.community_id = communities.id AND memberships.user_id = ?) as joined", currentUserID)
	}

	return db.Select(selectQuery + ", false as joined")
}

// Create inserts the community and its creator's membership in one
// transaction; the creator is always a member.
func (r *communityRepository) Create(ctx context.Context, community *models.Community) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(community).Error; err != nil {
			return err
		}
		return tx.Create(&models.Membership{
			UserID:      community.CreatedByID,
			CommunityID: community.ID,
		}).Error
	})

	if err != nil {
		if IsUniqueConstraintError(err) {
			return models.NewDuplicateError("Community name already exists", nil)
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *communityRepository) GetByID(ctx context.Context, id uint, currentUserID uint) (*models.Community, error) {
	var community models.Community
	fetch := func() error {
		err := r.applyCommunityDetails(r.db.WithContext(ctx), currentUserID).
			Preload("CreatedBy").
			First(&community, id).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Community", id)
			}
			return models.NewInternalError(err)
		}
		return nil
	}

	// The joined flag makes per-user reads uncacheable; only the anonymous
	// view goes through Redis. Join, Leave and Delete invalidate it.
	if currentUserID == 0 {
		if err := cache.Aside(ctx, cache.CommunityKey(id), &community, cache.CommunityTTL, fetch); err != nil {
			return nil, err
		}
		return &community, nil
	}

	if err := fetch(); err != nil {
		return nil, err
	}
	return &community, nil
}

func (r *communityRepository) GetByName(ctx context.Context, name string) (*models.Community, error) {
	var community models.Community
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&community).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &community, nil
}

func (r *communityRepository) List(ctx context.Context, currentUserID uint) ([]*models.Community, error) {
	var communities []*models.Community
	err := r.applyCommunityDetails(r.db.WithContext(ctx), currentUserID).
		Order("created_at DESC").
		Find(&communities).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return communities, nil
}

func (r *communityRepository) ListNotJoined(ctx context.Context, userID uint) ([]*models.Community, error) {
	var communities []*models.Community
	err := r.applyCommunityDetails(r.db.WithContext(ctx), userID).
		Where("communities.id NOT IN (SELECT community_id FROM memberships WHERE user_id = ?)", userID).
		Order("created_at DESC").
		Find(&communities).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return communities, nil
}

func (r *communityRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Likes depend on posts, posts and memberships on the community.
		if err := tx.Where("post_id IN (SELECT id FROM posts WHERE community_id = ?)", id).
			Delete(&models.PostLike{}).Error; err != nil {
			return err
		}
		if err := tx.Where("community_id = ?", id).Delete(&models.Post{}).Error; err != nil {
			return err
		}
		if err := tx.Where("community_id = ?", id).Delete(&models.Membership{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Community{}, id).Error
	})

	if err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateCommunity(ctx, id)
	return nil
}

// Join is idempotent: joining a community twice leaves a single membership row.
func (r *communityRepository) Join(ctx context.Context, userID, communityID uint) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.Membership{UserID: userID, CommunityID: communityID}).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateCommunity(ctx, communityID)
	return nil
}

// Leave is idempotent: leaving a community the user never joined is a no-op.
func (r *communityRepository) Leave(ctx context.Context, userID, communityID uint) error {
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND community_id = ?", userID, communityID).
		Delete(&models.Membership{}).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateCommunity(ctx, communityID)
	return nil
}

func (r *communityRepository) IsMember(ctx context.Context, userID, communityID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Membership{}).
		Where("user_id = ? AND community_id = ?", userID, communityID).
		Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

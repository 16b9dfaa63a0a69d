package service

import (
	"context"
	"strings"

	"unihub/internal/models"
	"unihub/internal/repository"
)

// homeFeedLimit is how many recent posts the home page shows; the activity
// feed has no limit.
const homeFeedLimit = 3

type PostService struct {
	postRepo      repository.PostRepository
	communityRepo repository.CommunityRepository
	isAdmin       func(ctx context.Context, userID uint) (bool, error)
}

type CreatePostInput struct {
	UserID      uint
	CommunityID uint
	Text        string
	ImageURL    string
}

func NewPostService(
	postRepo repository.PostRepository,
	communityRepo repository.CommunityRepository,
	isAdmin func(ctx context.Context, userID uint) (bool, error),
) *PostService {
	return &PostService{
		postRepo:      postRepo,
		communityRepo: communityRepo,
		isAdmin:       isAdmin,
	}
}

// CreatePost requires membership in the target community.
func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	const maxTextLen = 10000

	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, models.NewValidationError("Post text is required")
	}
	if len(text) > maxTextLen {
		return nil, models.NewValidationError("Post text too long (max 10000 characters)")
	}

	if _, err := s.communityRepo.GetByID(ctx, in.CommunityID, 0); err != nil {
		return nil, err
	}

	member, err := s.communityRepo.IsMember(ctx, in.UserID, in.CommunityID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, models.NewForbiddenError("Join the community before posting in it")
	}

	post := &models.Post{
		Text:        text,
		ImageURL:    in.ImageURL,
		UserID:      in.UserID,
		CommunityID: in.CommunityID,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}

	return s.postRepo.GetByID(ctx, post.ID, in.UserID)
}

// LikePost records the like and returns the post's live like count. Liking a
// post twice leaves the count unchanged.
func (s *PostService) LikePost(ctx context.Context, userID, postID uint) (int64, error) {
	if _, err := s.postRepo.GetByID(ctx, postID, 0); err != nil {
		return 0, err
	}
	if err := s.postRepo.Like(ctx, userID, postID); err != nil {
		return 0, err
	}
	return s.postRepo.LikeCount(ctx, postID)
}

// HomeFeed returns the newest posts across the user's communities.
func (s *PostService) HomeFeed(ctx context.Context, userID uint) ([]*models.Post, error) {
	return s.postRepo.ListForUser(ctx, userID, homeFeedLimit)
}

// Activity is the home feed without the limit.
func (s *PostService) Activity(ctx context.Context, userID uint) ([]*models.Post, error) {
	return s.postRepo.ListForUser(ctx, userID, 0)
}

func (s *PostService) CommunityPosts(ctx context.Context, communityID, currentUserID uint) ([]*models.Post, error) {
	return s.postRepo.ListByCommunity(ctx, communityID, currentUserID)
}

// DeletePost is restricted to the author and admins.
func (s *PostService) DeletePost(ctx context.Context, userID, postID uint) error {
	post, err := s.postRepo.GetByID(ctx, postID, 0)
	if err != nil {
		return err
	}

	if post.UserID != userID {
		admin, err := s.isAdmin(ctx, userID)
		if err != nil {
			return err
		}
		if !admin {
			return models.NewForbiddenError("Only the author or an admin can delete a post")
		}
	}

	return s.postRepo.Delete(ctx, postID)
}

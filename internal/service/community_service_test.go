package service

import (
	"context"
	"testing"

	"unihub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// communityRepoStub is a stub for repository.CommunityRepository.
type communityRepoStub struct {
	createFn        func(context.Context, *models.Community) error
	getByIDFn       func(context.Context, uint, uint) (*models.Community, error)
	getByNameFn     func(context.Context, string) (*models.Community, error)
	listFn          func(context.Context, uint) ([]*models.Community, error)
	listNotJoinedFn func(context.Context, uint) ([]*models.Community, error)
	deleteFn        func(context.Context, uint) error
	joinFn          func(context.Context, uint, uint) error
	leaveFn         func(context.Context, uint, uint) error
	isMemberFn      func(context.Context, uint, uint) (bool, error)
}

func (s *communityRepoStub) Create(ctx context.Context, community *models.Community) error {
	return s.createFn(ctx, community)
}
func (s *communityRepoStub) GetByID(ctx context.Context, id, currentUserID uint) (*models.Community, error) {
	return s.getByIDFn(ctx, id, currentUserID)
}
func (s *communityRepoStub) GetByName(ctx context.Context, name string) (*models.Community, error) {
	return s.getByNameFn(ctx, name)
}
func (s *communityRepoStub) List(ctx context.Context, currentUserID uint) ([]*models.Community, error) {
	return s.listFn(ctx, currentUserID)
}
func (s *communityRepoStub) ListNotJoined(ctx context.Context, userID uint) ([]*models.Community, error) {
	return s.listNotJoinedFn(ctx, userID)
}
func (s *communityRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}
func (s *communityRepoStub) Join(ctx context.Context, userID, communityID uint) error {
	return s.joinFn(ctx, userID, communityID)
}
func (s *communityRepoStub) Leave(ctx context.Context, userID, communityID uint) error {
	return s.leaveFn(ctx, userID, communityID)
}
func (s *communityRepoStub) IsMember(ctx context.Context, userID, communityID uint) (bool, error) {
	return s.isMemberFn(ctx, userID, communityID)
}

func noopCommunityRepo() *communityRepoStub {
	return &communityRepoStub{
		createFn: func(_ context.Context, _ *models.Community) error { return nil },
		getByIDFn: func(_ context.Context, id, _ uint) (*models.Community, error) {
			return &models.Community{ID: id}, nil
		},
		getByNameFn:     func(_ context.Context, _ string) (*models.Community, error) { return nil, nil },
		listFn:          func(_ context.Context, _ uint) ([]*models.Community, error) { return nil, nil },
		listNotJoinedFn: func(_ context.Context, _ uint) ([]*models.Community, error) { return nil, nil },
		deleteFn:        func(_ context.Context, _ uint) error { return nil },
		joinFn:          func(_ context.Context, _, _ uint) error { return nil },
		leaveFn:         func(_ context.Context, _, _ uint) error { return nil },
		isMemberFn:      func(_ context.Context, _, _ uint) (bool, error) { return true, nil },
	}
}

func neverAdmin(_ context.Context, _ uint) (bool, error) { return false, nil }
func alwaysAdmin(_ context.Context, _ uint) (bool, error) { return true, nil }

func TestCommunityService_CreateCommunity(t *testing.T) {
	communities := noopCommunityRepo()
	var created *models.Community
	communities.createFn = func(_ context.Context, c *models.Community) error {
		c.ID = 42
		created = c
		return nil
	}
	svc := NewCommunityService(communities, neverAdmin)

	community, err := svc.CreateCommunity(t.Context(), CreateCommunityInput{
		UserID:      1,
		Name:        "  Golang Gophers  ",
		Description: " weekly meetups ",
	})
	require.NoError(t, err)
	assert.EqualValues(t, 42, community.ID)
	assert.Equal(t, "Golang Gophers", created.Name)
	assert.Equal(t, "weekly meetups", created.Description)
	assert.EqualValues(t, 1, created.CreatedByID)
}

func TestCommunityService_CreateCommunityBlankName(t *testing.T) {
	svc := NewCommunityService(noopCommunityRepo(), neverAdmin)

	_, err := svc.CreateCommunity(t.Context(), CreateCommunityInput{UserID: 1, Name: "   "})
	assert.Equal(t, "VALIDATION_ERROR", appErrCode(t, err))
}

func TestCommunityService_CreateCommunityDuplicateCarriesExisting(t *testing.T) {
	existing := &models.Community{ID: 9, Name: "Golang Gophers"}
	communities := noopCommunityRepo()
	communities.createFn = func(_ context.Context, _ *models.Community) error {
		return models.NewDuplicateError("Community name already exists", nil)
	}
	communities.getByNameFn = func(_ context.Context, _ string) (*models.Community, error) {
		return existing, nil
	}
	svc := NewCommunityService(communities, neverAdmin)

	_, err := svc.CreateCommunity(t.Context(), CreateCommunityInput{UserID: 1, Name: "Golang Gophers"})
	require.Equal(t, "DUPLICATE", appErrCode(t, err))
	assert.Equal(t, existing, err.(*models.AppError).Context)
}

func TestCommunityService_JoinMissingCommunity(t *testing.T) {
	communities := noopCommunityRepo()
	communities.getByIDFn = func(_ context.Context, id, _ uint) (*models.Community, error) {
		return nil, models.NewNotFoundError("Community", id)
	}
	joined := false
	communities.joinFn = func(_ context.Context, _, _ uint) error {
		joined = true
		return nil
	}
	svc := NewCommunityService(communities, neverAdmin)

	err := svc.JoinCommunity(t.Context(), 1, 99)
	assert.Equal(t, "NOT_FOUND", appErrCode(t, err))
	assert.False(t, joined)
}

func TestCommunityService_DeleteCommunity(t *testing.T) {
	newStub := func() (*communityRepoStub, *bool) {
		deleted := false
		communities := noopCommunityRepo()
		communities.getByIDFn = func(_ context.Context, id, _ uint) (*models.Community, error) {
			return &models.Community{ID: id, CreatedByID: 1}, nil
		}
		communities.deleteFn = func(_ context.Context, _ uint) error {
			deleted = true
			return nil
		}
		return communities, &deleted
	}

	t.Run("creator may delete", func(t *testing.T) {
		communities, deleted := newStub()
		svc := NewCommunityService(communities, neverAdmin)
		require.NoError(t, svc.DeleteCommunity(t.Context(), 1, 5))
		assert.True(t, *deleted)
	})

	t.Run("admin may delete", func(t *testing.T) {
		communities, deleted := newStub()
		svc := NewCommunityService(communities, alwaysAdmin)
		require.NoError(t, svc.DeleteCommunity(t.Context(), 2, 5))
		assert.True(t, *deleted)
	})

	t.Run("stranger may not", func(t *testing.T) {
		communities, deleted := newStub()
		svc := NewCommunityService(communities, neverAdmin)
		err := svc.DeleteCommunity(t.Context(), 2, 5)
		assert.Equal(t, "FORBIDDEN", appErrCode(t, err))
		assert.False(t, *deleted)
	})
}

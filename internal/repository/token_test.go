package repository

import (
	"testing"

	"unihub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pendingToken(username, email string) *models.VerificationToken {
	return &models.VerificationToken{
		Token:        "tok-" + username,
		Email:        email,
		Username:     username,
		PasswordHash: "hash",
		FirstName:    "Test",
		LastName:     "User",
	}
}

func TestTokenRepository_RedeemCreatesUser(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTokenRepository(db)
	ctx := t.Context()

	require.NoError(t, repo.Create(ctx, pendingToken("alice", "alice@example.edu")))

	user, err := repo.Redeem(ctx, "tok-alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "alice@example.edu", user.Email)
	assert.Equal(t, models.RoleMember, user.Role)

	var users int64
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	assert.EqualValues(t, 1, users)

	// The token row is consumed with the redeem.
	var tokens int64
	require.NoError(t, db.Model(&models.VerificationToken{}).Count(&tokens).Error)
	assert.EqualValues(t, 0, tokens)
}

func TestTokenRepository_RedeemTwice(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTokenRepository(db)
	ctx := t.Context()

	require.NoError(t, repo.Create(ctx, pendingToken("alice", "alice@example.edu")))

	_, err := repo.Redeem(ctx, "tok-alice")
	require.NoError(t, err)

	_, err = repo.Redeem(ctx, "tok-alice")
	assert.ErrorIs(t, err, ErrInvalidToken)

	var users int64
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	assert.EqualValues(t, 1, users)
}

func TestTokenRepository_RedeemUnknownToken(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTokenRepository(db)

	_, err := repo.Redeem(t.Context(), "no-such-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenRepository_RedeemUsernameTaken(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTokenRepository(db)
	ctx := t.Context()

	createTestUser(t, db, "alice")
	require.NoError(t, repo.Create(ctx, pendingToken("alice", "second@example.edu")))

	_, err := repo.Redeem(ctx, "tok-alice")
	require.Error(t, err)
	appErr, ok := err.(*models.AppError)
	require.True(t, ok)
	assert.Equal(t, "DUPLICATE", appErr.Code)

	// The failed redeem rolls back, leaving the token intact.
	var tokens int64
	require.NoError(t, db.Model(&models.VerificationToken{}).Count(&tokens).Error)
	assert.EqualValues(t, 1, tokens)
}

func TestTokenRepository_PendingExists(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTokenRepository(db)
	ctx := t.Context()

	require.NoError(t, repo.Create(ctx, pendingToken("alice", "alice@example.edu")))

	byUsername, byEmail, err := repo.PendingExists(ctx, "alice", "other@example.edu")
	require.NoError(t, err)
	assert.True(t, byUsername)
	assert.False(t, byEmail)

	byUsername, byEmail, err = repo.PendingExists(ctx, "bob", "alice@example.edu")
	require.NoError(t, err)
	assert.False(t, byUsername)
	assert.True(t, byEmail)

	byUsername, byEmail, err = repo.PendingExists(ctx, "bob", "bob@example.edu")
	require.NoError(t, err)
	assert.False(t, byUsername)
	assert.False(t, byEmail)
}

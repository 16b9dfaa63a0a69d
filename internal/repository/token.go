package repository

import (
	"context"
	"errors"

	"unihub/internal/models"

	"gorm.io/gorm"
)

// ErrInvalidToken is returned when a verification token does not exist or was
// already redeemed.
var ErrInvalidToken = models.NewValidationError("Invalid or expired verification token")

// TokenRepository defines persistence operations for verification tokens.
type TokenRepository interface {
	Create(ctx context.Context, token *models.VerificationToken) error
	// PendingExists reports whether a pending registration already claims the
	// username or email.
	PendingExists(ctx context.Context, username, email string) (bool, bool, error)
	// Redeem consumes the token exactly once and returns the user created from
	// its stored fields. Concurrent redemption of the same token yields
	// ErrInvalidToken for all but one caller.
	Redeem(ctx context.Context, token string) (*models.User, error)
}

type tokenRepository struct {
	db *gorm.DB
}

// NewTokenRepository returns a new TokenRepository implementation.
func NewTokenRepository(db *gorm.DB) TokenRepository {
	return &tokenRepository{db: db}
}

func (r *tokenRepository) Create(ctx context.Context, token *models.VerificationToken) error {
	if err := r.db.WithContext(ctx).Create(token).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *tokenRepository) PendingExists(ctx context.Context, username, email string) (bool, bool, error) {
	var usernameCount, emailCount int64
	if err := r.db.WithContext(ctx).Model(&models.VerificationToken{}).
		Where("username = ?", username).Count(&usernameCount).Error; err != nil {
		return false, false, models.NewInternalError(err)
	}
	if err := r.db.WithContext(ctx).Model(&models.VerificationToken{}).
		Where("email = ?", email).Count(&emailCount).Error; err != nil {
		return false, false, models.NewInternalError(err)
	}
	return usernameCount > 0, emailCount > 0, nil
}

func (r *tokenRepository) Redeem(ctx context.Context, token string) (*models.User, error) {
	var user *models.User

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var pending models.VerificationToken
		if err := tx.Where("token = ?", token).First(&pending).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvalidToken
			}
			return models.NewInternalError(err)
		}

		// Deleting first claims the row: a concurrent redeemer's delete
		// matches zero rows and the whole transaction reports the token as
		// spent instead of minting a second user.
		result := tx.Where("token = ?", token).Delete(&models.VerificationToken{})
		if result.Error != nil {
			return models.NewInternalError(result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrInvalidToken
		}

		user = &models.User{
			Username:     pending.Username,
			Email:        pending.Email,
			PasswordHash: pending.PasswordHash,
			FirstName:    pending.FirstName,
			LastName:     pending.LastName,
			Role:         models.RoleMember,
		}
		if err := tx.Create(user).Error; err != nil {
			// The users table's unique constraints are the backstop should a
			// duplicate registration ever slip past the pending checks.
			if IsUniqueConstraintError(err) {
				return models.NewDuplicateError("Account already exists for this username or email", nil)
			}
			return models.NewInternalError(err)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}
	return user, nil
}

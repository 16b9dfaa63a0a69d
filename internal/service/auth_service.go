// Package service holds the business rules between the HTTP handlers and the
// repositories.
package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"strings"

	"unihub/internal/mail"
	"unihub/internal/middleware"
	"unihub/internal/models"
	"unihub/internal/repository"
	"unihub/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

type AuthService struct {
	userRepo  repository.UserRepository
	tokenRepo repository.TokenRepository
	mailer    mail.Mailer
}

type RegisterInput struct {
	Email     string
	Username  string
	Password  string
	FirstName string
	LastName  string
}

func NewAuthService(userRepo repository.UserRepository, tokenRepo repository.TokenRepository, mailer mail.Mailer) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		mailer:    mailer,
	}
}

// newVerificationToken returns 256 bits of entropy as 64 hex characters.
func newVerificationToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// Register validates the submission, stores a pending verification token and
// dispatches the verification mail in the background. The caller gets a
// success as soon as the token row is durable; mail delivery failures are
// logged and counted, never surfaced to the registrant.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) error {
	in.Email = strings.TrimSpace(in.Email)
	in.Username = strings.TrimSpace(in.Username)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)

	if err := validation.ValidateUsername(in.Username); err != nil {
		return err
	}
	if err := validation.ValidateEmail(in.Email); err != nil {
		return err
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return err
	}

	existing, err := s.userRepo.GetByUsername(ctx, in.Username)
	if err != nil {
		return err
	}
	if existing != nil {
		return models.NewDuplicateError("Username already exists. Please try again.", nil)
	}

	existing, err = s.userRepo.GetByEmail(ctx, in.Email)
	if err != nil {
		return err
	}
	if existing != nil {
		return models.NewDuplicateError("Email already registered. Please try again.", nil)
	}

	// A pending, unverified registration claims the name just as hard as a
	// finished one.
	usernamePending, emailPending, err := s.tokenRepo.PendingExists(ctx, in.Username, in.Email)
	if err != nil {
		return err
	}
	if usernamePending {
		return models.NewDuplicateError("Username already exists. Please try again.", nil)
	}
	if emailPending {
		return models.NewDuplicateError("Email already registered. Please try again.", nil)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.NewInternalError(err)
	}

	token, err := newVerificationToken()
	if err != nil {
		return models.NewInternalError(err)
	}

	if err := s.tokenRepo.Create(ctx, &models.VerificationToken{
		Token:        token,
		Email:        in.Email,
		Username:     in.Username,
		PasswordHash: string(hash),
		FirstName:    in.FirstName,
		LastName:     in.LastName,
	}); err != nil {
		return err
	}

	go s.sendVerification(in.Email, in.Username, token)

	return nil
}

// sendVerification runs detached from the request; the token row stays valid
// either way, so the user can ask for the link again through support.
func (s *AuthService) sendVerification(email, username, token string) {
	if err := s.mailer.SendVerification(email, username, token); err != nil {
		middleware.EmailsFailed.Inc()
		middleware.Logger.Error("verification mail failed",
			"email", email,
			"username", username,
			"error", err)
		return
	}
	middleware.EmailsSent.Inc()
}

// VerifyEmail exchanges the token for a real user account.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) (*models.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, repository.ErrInvalidToken
	}
	return s.tokenRepo.Redeem(ctx, token)
}

// Login checks the credentials and returns the user. A missing user and a
// wrong password produce the same error so usernames cannot be enumerated.
func (s *AuthService) Login(ctx context.Context, username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, models.NewUnauthorizedError("Invalid username or password")
	}

	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil || user.PasswordHash == "" {
		return nil, models.NewUnauthorizedError("Invalid username or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, models.NewUnauthorizedError("Invalid username or password")
	}

	return user, nil
}

func (s *AuthService) ChangePassword(ctx context.Context, userID uint, current, newPassword, confirm string) error {
	if current == "" || newPassword == "" || confirm == "" {
		return models.NewValidationError("All password fields are required")
	}
	if newPassword != confirm {
		return models.NewValidationError("New passwords do not match")
	}
	if err := validation.ValidatePassword(newPassword); err != nil {
		return err
	}

	// The cached user projection has no password hash; read it fresh.
	user, err := s.userRepo.GetCredentials(ctx, userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)); err != nil {
		return models.NewValidationError("Current password is incorrect")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return models.NewInternalError(err)
	}

	return s.userRepo.UpdatePassword(ctx, userID, string(hash))
}

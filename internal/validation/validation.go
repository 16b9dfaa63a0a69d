// Package validation provides input validation utilities
package validation

import (
	"regexp"
	"strings"

	"unihub/internal/models"
)

var (
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
)

// ValidateUsername checks if a username meets requirements
func ValidateUsername(username string) error {
	if len(username) < 3 {
		return models.NewValidationError("Username must be at least 3 characters long")
	}

	if len(username) > 30 {
		return models.NewValidationError("Username must not exceed 30 characters")
	}

	if !usernameRegex.MatchString(username) {
		return models.NewValidationError("Username can only contain letters, numbers, underscores, and hyphens")
	}

	// Cannot start or end with underscore/hyphen
	if username[0] == '_' || username[0] == '-' || username[len(username)-1] == '_' || username[len(username)-1] == '-' {
		return models.NewValidationError("Username cannot start or end with underscore or hyphen")
	}

	return nil
}

// ValidateEmail checks basic email format
func ValidateEmail(email string) error {
	if !emailRegex.MatchString(email) {
		return models.NewValidationError("Invalid email format")
	}

	if len(email) > 254 {
		return models.NewValidationError("Email must not exceed 254 characters")
	}

	return nil
}

// ValidatePassword checks basic password requirements. The cap matches
// bcrypt's 72-byte input limit.
func ValidatePassword(password string) error {
	if password == "" {
		return models.NewValidationError("Password is required")
	}

	if len(password) > 72 {
		return models.NewValidationError("Password must not exceed 72 characters")
	}

	return nil
}

// ValidateCommunityName checks a trimmed community name.
func ValidateCommunityName(name string) error {
	if strings.TrimSpace(name) == "" {
		return models.NewValidationError("Community name is required")
	}

	if len(name) > 120 {
		return models.NewValidationError("Community name must not exceed 120 characters")
	}

	return nil
}

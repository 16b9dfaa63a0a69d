// Package models contains data structures for the application's domain models.
package models

import (
	"strings"
	"time"
)

// Role defines a user's site-wide role.
type Role string

const (
	// RoleMember is the default role for verified users.
	RoleMember Role = "member"
	// RoleModerator can moderate content inside communities.
	RoleModerator Role = "moderator"
	// RoleAdmin can manage any community or post.
	RoleAdmin Role = "admin"
)

// User represents a registered, email-verified account.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"size:30;uniqueIndex;not null" json:"username"`
	Email        string    `gorm:"size:254;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	Role         Role      `gorm:"type:varchar(20);not null;default:'member'" json:"role"`
	FirstName    string    `gorm:"size:60" json:"first_name"`
	LastName     string    `gorm:"size:60" json:"last_name"`
	AvatarURL    string    `json:"avatar_url"`
	Bio          string    `gorm:"type:text" json:"bio"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// DisplayName concatenates first and last name, falling back to the username
// when both are empty.
func (u *User) DisplayName() string {
	name := strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
	if name == "" {
		return u.Username
	}
	return name
}

package models

import "time"

// VerificationToken holds a pending registration until its email link is
// redeemed. The token value itself is 32 random bytes, hex encoded. Redemption
// consumes the row exactly once; the user row is created from the stored fields.
type VerificationToken struct {
	Token        string    `gorm:"primaryKey;size:64" json:"-"`
	Email        string    `gorm:"size:254;not null;index" json:"email"`
	Username     string    `gorm:"size:30;not null;index" json:"username"`
	PasswordHash string    `gorm:"not null" json:"-"`
	FirstName    string    `gorm:"size:60" json:"first_name"`
	LastName     string    `gorm:"size:60" json:"last_name"`
	CreatedAt    time.Time `json:"created_at"`
}

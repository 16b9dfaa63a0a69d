package models

import "time"

// Community represents a named group users join to post into.
type Community struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Name          string    `gorm:"size:120;uniqueIndex;not null" json:"name"`
	Description   string    `gorm:"type:text" json:"description"`
	CommunityType string    `gorm:"size:40" json:"community_type"`
	CreatedByID   uint      `gorm:"not null;index" json:"created_by_id"`
	CreatedBy     *User     `gorm:"foreignKey:CreatedByID" json:"created_by,omitempty"`
	// MemberCount is not persisted; computed at query time from membership rows.
	MemberCount int `gorm:"->" json:"member_count"`
	// Joined indicates whether the current requesting user is a member (computed).
	Joined    bool      `gorm:"->" json:"joined"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Membership maps users to communities. A row's existence means the user
// belongs to the community; the pair is unique.
type Membership struct {
	UserID      uint      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	CommunityID uint      `gorm:"primaryKey;autoIncrement:false" json:"community_id"`
	CreatedAt   time.Time `json:"created_at"`
}

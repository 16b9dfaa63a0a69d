package models

import "time"

// Post represents a post inside a community.
type Post struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Text        string     `gorm:"type:text;not null" json:"text"`
	ImageURL    string     `json:"image_url,omitempty"`
	UserID      uint       `gorm:"not null;index" json:"user_id"`
	User        *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	CommunityID uint       `gorm:"not null;index" json:"community_id"`
	Community   *Community `gorm:"foreignKey:CommunityID" json:"community,omitempty"`
	// LikeCount is not persisted; computed at query time as a live aggregate
	// over like rows so the count never drifts.
	LikeCount int `gorm:"->" json:"like_count"`
	// Liked indicates whether the current requesting user liked this post (computed).
	Liked     bool      `gorm:"->" json:"liked"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PostLike maps users to posts they liked; the pair is unique.
type PostLike struct {
	UserID    uint      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	PostID    uint      `gorm:"primaryKey;autoIncrement:false" json:"post_id"`
	CreatedAt time.Time `json:"created_at"`
}

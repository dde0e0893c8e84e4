package models

import "time"

// BlogLike links a user to a blog they liked; a user likes a blog at most once
type BlogLike struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	BlogID    uint      `json:"blog_id" gorm:"not null;uniqueIndex:idx_blog_like_user"`
	UserID    uint      `json:"user_id" gorm:"not null;uniqueIndex:idx_blog_like_user;index"`
	CreatedAt time.Time `json:"created_at"`

	Blog *Blog `json:"-" gorm:"foreignKey:BlogID;constraint:OnDelete:CASCADE"`
}

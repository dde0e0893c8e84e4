package models

import "gorm.io/gorm"

// Comment represents a comment on a blog
type Comment struct {
	gorm.Model
	BlogID  uint   `json:"blog_id" gorm:"index"`
	UserID  uint   `json:"user_id" gorm:"index"`
	Content string `json:"content"`
}

// CreateCommentRequest defines the request body for creating a new comment
type CreateCommentRequest struct {
	Content string `json:"content" validate:"required,min=1,max=500"`
}

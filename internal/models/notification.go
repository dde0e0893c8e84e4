package models

import "time"

// NotificationType is the closed set of notification kinds
type NotificationType string

const (
	NotificationGeneral NotificationType = "general"
	NotificationLike    NotificationType = "like"
	NotificationNewBlog NotificationType = "new_blog"
	NotificationFollow  NotificationType = "follow"
	NotificationComment NotificationType = "comment"
)

// Valid reports whether t is one of the known notification types
func (t NotificationType) Valid() bool {
	switch t {
	case NotificationGeneral, NotificationLike, NotificationNewBlog, NotificationFollow, NotificationComment:
		return true
	}
	return false
}

// Notification represents a durable user notification.
// Content is write-once; only IsRead ever changes, and only from false to true.
type Notification struct {
	ID                uint             `json:"id" gorm:"primaryKey"`
	OwnerID           uint             `json:"owner_id" gorm:"not null;index"`
	TriggeredByUserID uint             `json:"triggered_by_user_id" gorm:"not null;index"`
	BlogID            *uint            `json:"blog_id" gorm:"index"`
	Type              NotificationType `json:"notification_type" gorm:"column:notification_type;size:20;not null;default:general;index"`
	Message           string           `json:"message" gorm:"not null"`
	CreatedAt         time.Time        `json:"created_at" gorm:"index"`
	IsRead            bool             `json:"is_read" gorm:"default:false;index"`

	Owner *User `json:"-" gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE"`
	Blog  *Blog `json:"-" gorm:"foreignKey:BlogID;constraint:OnDelete:CASCADE"`
}

// NotificationPayload is the projection published on the broker and streamed to clients
type NotificationPayload struct {
	ID                uint             `json:"id"`
	Type              NotificationType `json:"type"`
	Message           string           `json:"message"`
	TriggeredByUserID uint             `json:"triggered_by_user_id"`
	BlogID            *uint            `json:"blog_id"`
	CreatedAt         string           `json:"created_at"`
	IsRead            bool             `json:"is_read"`
}

// ToPayload builds the real-time projection of n
func (n *Notification) ToPayload() NotificationPayload {
	return NotificationPayload{
		ID:                n.ID,
		Type:              n.Type,
		Message:           n.Message,
		TriggeredByUserID: n.TriggeredByUserID,
		BlogID:            n.BlogID,
		CreatedAt:         n.CreatedAt.UTC().Format(time.RFC3339Nano),
		IsRead:            n.IsRead,
	}
}

// PaginatedResponse wraps a page of results with its total count
type PaginatedResponse[T any] struct {
	Total  int64 `json:"total"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
	Data   []T   `json:"data"`
}

// ListNotificationsQuery holds the query parameters of the notification list endpoint
type ListNotificationsQuery struct {
	Search string `query:"search" validate:"omitempty,max=100"`
	Limit  int    `query:"limit" validate:"min=1"`
	Offset int    `query:"offset" validate:"min=0"`
}

package repositories

import (
	"errors"

	"github.com/anonto42/inkwell/backend/internal/models"
	"gorm.io/gorm"
)

// ErrLikeNotFound is returned when deleting a like that does not exist
var ErrLikeNotFound = errors.New("like not found")

// LikeRepository defines the interface for blog like operations
type LikeRepository interface {
	CreateLike(like *models.BlogLike) error
	DeleteLikeAndNotification(blogID, userID, authorID uint) error
	HasUserLikedBlog(blogID, userID uint) (bool, error)
	GetLikesCountByBlogID(blogID uint) (int64, error)
}

// PostgresLikeRepository implements LikeRepository for PostgreSQL
type PostgresLikeRepository struct {
	db *gorm.DB
}

// NewPostgresLikeRepository creates a new PostgresLikeRepository
func NewPostgresLikeRepository(db *gorm.DB) *PostgresLikeRepository {
	return &PostgresLikeRepository{db: db}
}

// CreateLike creates a new like
func (r *PostgresLikeRepository) CreateLike(like *models.BlogLike) error {
	return r.db.Create(like).Error
}

// DeleteLikeAndNotification removes a like together with the like notification it
// produced for the blog author. Both rows go or neither does.
func (r *PostgresLikeRepository) DeleteLikeAndNotification(blogID, userID, authorID uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("blog_id = ? AND user_id = ?", blogID, userID).Delete(&models.BlogLike{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrLikeNotFound
		}
		if authorID == userID {
			return nil
		}
		return NewPostgresNotificationRepository(tx).DeleteByRelation(authorID, &blogID, models.NotificationLike, userID)
	})
}

// HasUserLikedBlog checks if a user has liked a specific blog
func (r *PostgresLikeRepository) HasUserLikedBlog(blogID, userID uint) (bool, error) {
	var count int64
	if err := r.db.Model(&models.BlogLike{}).Where("blog_id = ? AND user_id = ?", blogID, userID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetLikesCountByBlogID retrieves the count of likes for a blog
func (r *PostgresLikeRepository) GetLikesCountByBlogID(blogID uint) (int64, error) {
	var count int64
	if err := r.db.Model(&models.BlogLike{}).Where("blog_id = ?", blogID).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

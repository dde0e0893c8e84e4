package repositories

import (
	"github.com/anonto42/inkwell/backend/internal/models"
	"gorm.io/gorm"
)

// CommentRepository defines the interface for comment data operations
type CommentRepository interface {
	CreateComment(comment *models.Comment) error
	GetCommentsByBlogID(blogID uint) ([]models.Comment, error)
}

// PostgresCommentRepository implements CommentRepository for PostgreSQL
type PostgresCommentRepository struct {
	db *gorm.DB
}

// NewPostgresCommentRepository creates a new PostgresCommentRepository
func NewPostgresCommentRepository(db *gorm.DB) *PostgresCommentRepository {
	return &PostgresCommentRepository{db: db}
}

// CreateComment creates a new comment
func (r *PostgresCommentRepository) CreateComment(comment *models.Comment) error {
	return r.db.Create(comment).Error
}

// GetCommentsByBlogID retrieves all comments for a blog, oldest first
func (r *PostgresCommentRepository) GetCommentsByBlogID(blogID uint) ([]models.Comment, error) {
	var comments []models.Comment
	if err := r.db.Where("blog_id = ?", blogID).Order("created_at").Find(&comments).Error; err != nil {
		return nil, err
	}
	return comments, nil
}

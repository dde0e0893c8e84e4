package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/anonto42/inkwell/backend/internal/models"
	"github.com/anonto42/inkwell/backend/internal/repositories"
	"github.com/anonto42/inkwell/backend/internal/services"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// CommentHandler handles HTTP requests related to comments
type CommentHandler struct {
	commentRepository repositories.CommentRepository
	blogRepository    repositories.BlogRepository
	userRepository    repositories.UserRepository
	notifications     *services.NotificationService
	log               *logrus.Logger
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(commentRepo repositories.CommentRepository, blogRepo repositories.BlogRepository, userRepo repositories.UserRepository, notifications *services.NotificationService, log *logrus.Logger) *CommentHandler {
	return &CommentHandler{
		commentRepository: commentRepo,
		blogRepository:    blogRepo,
		userRepository:    userRepo,
		notifications:     notifications,
		log:               log,
	}
}

// RegisterCommentRoutes registers comment-related routes
func (h *CommentHandler) RegisterCommentRoutes(g *echo.Group) {
	g.POST("/blogs/:id/comments", h.CreateComment)
	g.GET("/blogs/:id/comments", h.GetCommentsByBlogID)
}

// CreateComment creates a new comment on a blog and notifies its author
func (h *CommentHandler) CreateComment(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	blog, err := h.loadBlog(c)
	if err != nil {
		return err
	}

	var req models.CreateCommentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	comment := &models.Comment{
		BlogID:  blog.ID,
		UserID:  currentUserID,
		Content: req.Content,
	}
	if err := h.commentRepository.CreateComment(comment); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if blog.AuthorID != currentUserID {
		commenter, err := h.userRepository.GetUserByID(currentUserID)
		if err != nil {
			h.log.WithField("user_id", currentUserID).WithError(err).Error("failed to load commenter")
		} else {
			message := fmt.Sprintf("%s commented on your blog %s", commenter.FullName, blog.Title)
			h.notifications.Notify(c.Request().Context(), blog.AuthorID, currentUserID, models.NotificationComment, &blog.ID, message)
		}
	}

	return c.JSON(http.StatusCreated, comment)
}

// GetCommentsByBlogID retrieves all comments for a blog
func (h *CommentHandler) GetCommentsByBlogID(c echo.Context) error {
	blog, err := h.loadBlog(c)
	if err != nil {
		return err
	}

	comments, err := h.commentRepository.GetCommentsByBlogID(blog.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, comments)
}

func (h *CommentHandler) loadBlog(c echo.Context) (*models.Blog, error) {
	blogID, err := parseIDParam(c, "id")
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "Invalid blog ID")
	}
	blog, err := h.blogRepository.GetBlogByID(blogID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, echo.NewHTTPError(http.StatusNotFound, "Blog doesn't exist")
		}
		return nil, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return blog, nil
}

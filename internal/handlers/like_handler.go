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

// LikeHandler handles HTTP requests related to blog likes
type LikeHandler struct {
	likeRepository repositories.LikeRepository
	blogRepository repositories.BlogRepository
	userRepository repositories.UserRepository
	notifications  *services.NotificationService
	log            *logrus.Logger
}

// NewLikeHandler creates a new LikeHandler
func NewLikeHandler(likeRepo repositories.LikeRepository, blogRepo repositories.BlogRepository, userRepo repositories.UserRepository, notifications *services.NotificationService, log *logrus.Logger) *LikeHandler {
	return &LikeHandler{
		likeRepository: likeRepo,
		blogRepository: blogRepo,
		userRepository: userRepo,
		notifications:  notifications,
		log:            log,
	}
}

// RegisterLikeRoutes registers like-related routes
func (h *LikeHandler) RegisterLikeRoutes(g *echo.Group) {
	g.POST("/blogs/:id/like", h.ToggleLike)
	g.GET("/blogs/:id/likes/count", h.GetLikesCount)
}

// ToggleLike likes the blog, or removes the like and its notification when
// the caller already liked it.
func (h *LikeHandler) ToggleLike(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	blogID, err := parseIDParam(c, "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid blog ID")
	}

	blog, err := h.blogRepository.GetBlogByID(blogID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Blog doesn't exist")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	hasLiked, err := h.likeRepository.HasUserLikedBlog(blog.ID, currentUserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if hasLiked {
		return h.unlike(c, blog, currentUserID)
	}

	if err := h.likeRepository.CreateLike(&models.BlogLike{BlogID: blog.ID, UserID: currentUserID}); err != nil {
		// another request for the same like won the race
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.JSON(http.StatusOK, echo.Map{"detail": "already liked"})
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if blog.AuthorID != currentUserID {
		liker, err := h.userRepository.GetUserByID(currentUserID)
		if err != nil {
			h.log.WithField("user_id", currentUserID).WithError(err).Error("failed to load liker")
		} else {
			message := fmt.Sprintf("%s liked your blog %s", liker.FullName, blog.Title)
			h.notifications.NotifyOnce(c.Request().Context(), blog.AuthorID, currentUserID, models.NotificationLike, &blog.ID, message)
		}
	}

	return c.JSON(http.StatusOK, echo.Map{"detail": "added to liked blogs"})
}

func (h *LikeHandler) unlike(c echo.Context, blog *models.Blog, userID uint) error {
	err := h.likeRepository.DeleteLikeAndNotification(blog.ID, userID, blog.AuthorID)
	if err != nil && !errors.Is(err, repositories.ErrLikeNotFound) {
		h.log.WithError(err).WithField("blog_id", blog.ID).Error("failed to remove like")
		return echo.NewHTTPError(http.StatusInternalServerError, "Something went wrong while removing like")
	}

	return c.JSON(http.StatusOK, echo.Map{"detail": "removed from liked blogs"})
}

// GetLikesCount retrieves the total number of likes for a blog
func (h *LikeHandler) GetLikesCount(c echo.Context) error {
	blogID, err := parseIDParam(c, "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid blog ID")
	}

	count, err := h.likeRepository.GetLikesCountByBlogID(blogID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"blog_id": blogID, "likes_count": count})
}

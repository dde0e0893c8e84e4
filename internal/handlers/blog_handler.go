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

// BlogHandler handles HTTP requests related to blogs
type BlogHandler struct {
	blogRepository   repositories.BlogRepository
	userRepository   repositories.UserRepository
	followRepository repositories.FollowRepository
	notifications    *services.NotificationService
	log              *logrus.Logger
}

// NewBlogHandler creates a new BlogHandler
func NewBlogHandler(blogRepo repositories.BlogRepository, userRepo repositories.UserRepository, followRepo repositories.FollowRepository, notifications *services.NotificationService, log *logrus.Logger) *BlogHandler {
	return &BlogHandler{
		blogRepository:   blogRepo,
		userRepository:   userRepo,
		followRepository: followRepo,
		notifications:    notifications,
		log:              log,
	}
}

// RegisterBlogRoutes registers blog-related routes
func (h *BlogHandler) RegisterBlogRoutes(g *echo.Group) {
	g.POST("/blogs", h.CreateBlog)
	g.GET("/blogs/:id", h.GetBlog)
}

// CreateBlog publishes a blog and notifies every follower of the author
func (h *BlogHandler) CreateBlog(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var req models.CreateBlogRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	author, err := h.userRepository.GetUserByID(currentUserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Authenticated user not found in database")
	}

	blog := &models.Blog{
		Title:    req.Title,
		Content:  req.Content,
		AuthorID: author.ID,
		IsPublic: true,
	}
	if err := h.blogRepository.CreateBlog(blog); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	followerIDs, err := h.followRepository.GetFollowerIDs(author.ID)
	if err != nil {
		h.log.WithField("user_id", author.ID).WithError(err).Error("failed to load followers")
	} else if len(followerIDs) > 0 {
		message := fmt.Sprintf("%s uploaded new blog %s", author.FullName, blog.Title)
		h.notifications.NotifyMany(c.Request().Context(), followerIDs, author.ID, models.NotificationNewBlog, &blog.ID, message)
	}

	return c.JSON(http.StatusCreated, blog)
}

func (h *BlogHandler) GetBlog(c echo.Context) error {
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
	return c.JSON(http.StatusOK, blog)
}

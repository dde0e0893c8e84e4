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

// FollowHandler handles follow/unfollow HTTP requests
type FollowHandler struct {
	followRepository repositories.FollowRepository
	userRepository   repositories.UserRepository
	notifications    *services.NotificationService
	log              *logrus.Logger
}

// NewFollowHandler creates a new FollowHandler
func NewFollowHandler(followRepo repositories.FollowRepository, userRepo repositories.UserRepository, notifications *services.NotificationService, log *logrus.Logger) *FollowHandler {
	return &FollowHandler{
		followRepository: followRepo,
		userRepository:   userRepo,
		notifications:    notifications,
		log:              log,
	}
}

// RegisterFollowRoutes registers follow-related routes
func (h *FollowHandler) RegisterFollowRoutes(g *echo.Group) {
	g.POST("/users/:id/follow", h.FollowUser)
	g.DELETE("/users/:id/follow", h.UnfollowUser)
}

// FollowUser follows a user
func (h *FollowHandler) FollowUser(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	target, err := h.loadTarget(c)
	if err != nil {
		return err
	}
	if target.ID == currentUserID {
		return echo.NewHTTPError(http.StatusBadRequest, "Cannot follow yourself")
	}

	isFollowing, err := h.followRepository.IsFollowing(currentUserID, target.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if isFollowing {
		return echo.NewHTTPError(http.StatusConflict, "Already following")
	}

	follow := &models.Follow{FollowerID: currentUserID, FollowingID: target.ID}
	if err := h.followRepository.CreateFollow(follow); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return echo.NewHTTPError(http.StatusConflict, "Already following")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	follower, err := h.userRepository.GetUserByID(currentUserID)
	if err != nil {
		h.log.WithField("user_id", currentUserID).WithError(err).Error("failed to load follower")
	} else {
		message := fmt.Sprintf("%s started following you", follower.FullName)
		h.notifications.NotifyOnce(c.Request().Context(), target.ID, currentUserID, models.NotificationFollow, nil, message)
	}

	return c.JSON(http.StatusOK, echo.Map{"message": fmt.Sprintf("You are now following %s", target.FullName)})
}

// UnfollowUser unfollows a user. The follow notification already delivered is kept.
func (h *FollowHandler) UnfollowUser(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	target, err := h.loadTarget(c)
	if err != nil {
		return err
	}
	if target.ID == currentUserID {
		return echo.NewHTTPError(http.StatusBadRequest, "Cannot unfollow yourself")
	}

	if err := h.followRepository.DeleteFollow(currentUserID, target.ID); err != nil {
		if errors.Is(err, repositories.ErrFollowNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Not following this user")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"message": fmt.Sprintf("You have successfully unfollowed %s", target.FullName)})
}

func (h *FollowHandler) loadTarget(c echo.Context) (*models.User, error) {
	targetID, err := parseIDParam(c, "id")
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "Invalid user ID")
	}
	target, err := h.userRepository.GetUserByID(targetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, echo.NewHTTPError(http.StatusNotFound, "User doesn't exist")
		}
		return nil, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return target, nil
}

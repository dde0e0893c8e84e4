package router

import (
	"fmt"
	"time"

	"github.com/anonto42/inkwell/backend/internal/handlers"
	"github.com/anonto42/inkwell/backend/internal/middleware"
	"github.com/anonto42/inkwell/backend/internal/models"
	"github.com/anonto42/inkwell/backend/internal/realtime"
	"github.com/anonto42/inkwell/backend/internal/repositories"
	"github.com/anonto42/inkwell/backend/internal/services"
	"github.com/anonto42/inkwell/backend/pkg/broker"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Dependencies are the long-lived components the routes are wired to
type Dependencies struct {
	DB         *gorm.DB
	Broker     *broker.Manager
	Registry   *realtime.Registry
	Publisher  services.Publisher
	StreamAuth middleware.StreamAuthenticator
	JWTSecret  string
	Heartbeat  time.Duration
	QueueSize  int
	Log        *logrus.Logger
}

// Migrate creates or updates the schema for all models
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Blog{},
		&models.BlogLike{},
		&models.Follow{},
		&models.Comment{},
		&models.Notification{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, deps Dependencies) {
	log := deps.Log

	e.GET("/health", handlers.NewHealthHandler(deps.Broker).HealthCheck)

	// --- Initialize Repositories ---
	userRepo := repositories.NewPostgresUserRepository(deps.DB)
	blogRepo := repositories.NewPostgresBlogRepository(deps.DB)
	likeRepo := repositories.NewPostgresLikeRepository(deps.DB)
	followRepo := repositories.NewPostgresFollowRepository(deps.DB)
	commentRepo := repositories.NewPostgresCommentRepository(deps.DB)
	notificationRepo := repositories.NewPostgresNotificationRepository(deps.DB)

	notifications := services.NewNotificationService(notificationRepo, deps.Publisher, log)

	api := e.Group("/api/v1")

	// The event stream authenticates with a query token, so it sits outside the JWT header group.
	streamHandler := handlers.NewStreamHandler(deps.Registry, deps.Heartbeat, deps.QueueSize, log)
	streamHandler.RegisterStreamRoutes(api, middleware.StreamAuthMiddleware(deps.StreamAuth, log))
	log.Debug("Stream routes configured.")

	// --- Protected routes (require JWT authentication) ---
	protected := api.Group("", middleware.JWTAuthMiddleware(deps.JWTSecret))

	handlers.NewUserHandler(userRepo).RegisterProfileRoutes(protected)
	handlers.NewBlogHandler(blogRepo, userRepo, followRepo, notifications, log).RegisterBlogRoutes(protected)
	handlers.NewLikeHandler(likeRepo, blogRepo, userRepo, notifications, log).RegisterLikeRoutes(protected)
	handlers.NewFollowHandler(followRepo, userRepo, notifications, log).RegisterFollowRoutes(protected)
	handlers.NewCommentHandler(commentRepo, blogRepo, userRepo, notifications, log).RegisterCommentRoutes(protected)
	handlers.NewNotificationHandler(notificationRepo).RegisterNotificationRoutes(protected)

	log.Info("All routes configured.")
}

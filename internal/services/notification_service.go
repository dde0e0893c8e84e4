package services

import (
	"context"

	"github.com/anonto42/inkwell/backend/internal/models"
	"github.com/anonto42/inkwell/backend/internal/repositories"
	"github.com/sirupsen/logrus"
)

// Publisher delivers persisted notifications to live clients
type Publisher interface {
	Publish(ctx context.Context, n *models.Notification)
	PublishAll(ctx context.Context, notifications []models.Notification)
}

// NotificationService is what domain actions call after their own write has
// committed. Creation and delivery are best-effort: failures are logged and
// never fail the triggering action.
type NotificationService struct {
	repo      repositories.NotificationRepository
	publisher Publisher
	log       *logrus.Logger
}

// NewNotificationService creates a NotificationService
func NewNotificationService(repo repositories.NotificationRepository, publisher Publisher, log *logrus.Logger) *NotificationService {
	return &NotificationService{repo: repo, publisher: publisher, log: log}
}

// Notify persists a notification and publishes it. It returns nil when the
// notification could not be stored.
func (s *NotificationService) Notify(ctx context.Context, ownerID, actorID uint, notificationType models.NotificationType, blogID *uint, message string) *models.Notification {
	n, err := s.repo.CreateNotification(ownerID, actorID, notificationType, blogID, message)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"owner_id": ownerID,
			"actor_id": actorID,
			"type":     notificationType,
		}).WithError(err).Error("Something went wrong while creating notification")
		return nil
	}

	s.publisher.Publish(ctx, n)
	return n
}

// NotifyOnce is Notify guarded by a duplicate check on (owner, blog, type, actor).
// The check and the insert are not atomic; two racing requests may both insert.
func (s *NotificationService) NotifyOnce(ctx context.Context, ownerID, actorID uint, notificationType models.NotificationType, blogID *uint, message string) *models.Notification {
	exists, err := s.repo.ExistsDuplicate(ownerID, blogID, notificationType, actorID)
	if err != nil {
		s.log.WithField("owner_id", ownerID).WithError(err).Error("duplicate notification check failed")
		return nil
	}
	if exists {
		return nil
	}
	return s.Notify(ctx, ownerID, actorID, notificationType, blogID, message)
}

// NotifyMany stores one notification per owner in a single insert, then
// publishes each of them.
func (s *NotificationService) NotifyMany(ctx context.Context, ownerIDs []uint, actorID uint, notificationType models.NotificationType, blogID *uint, message string) []models.Notification {
	notifications, err := s.repo.CreateNotificationsBulk(ownerIDs, actorID, notificationType, blogID, message)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"recipients": len(ownerIDs),
			"actor_id":   actorID,
			"type":       notificationType,
		}).WithError(err).Error("Something went wrong while creating notifications")
		return nil
	}

	s.publisher.PublishAll(ctx, notifications)
	return notifications
}

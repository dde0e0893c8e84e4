package repositories

import (
	"errors"
	"strings"

	"github.com/anonto42/inkwell/backend/internal/models"
	"gorm.io/gorm"
)

var (
	// ErrNotificationNotFound is returned when no notification has the requested id
	ErrNotificationNotFound = errors.New("notification not found")
	// ErrNotificationForbidden is returned when the caller does not own the notification
	ErrNotificationForbidden = errors.New("not the owner of the notification")
)

// NotificationRepository defines the interface for notification operations
type NotificationRepository interface {
	CreateNotification(ownerID, triggeredByUserID uint, notificationType models.NotificationType, blogID *uint, message string) (*models.Notification, error)
	CreateNotificationsBulk(ownerIDs []uint, triggeredByUserID uint, notificationType models.NotificationType, blogID *uint, message string) ([]models.Notification, error)
	ExistsDuplicate(ownerID uint, blogID *uint, notificationType models.NotificationType, triggeredByUserID uint) (bool, error)
	MarkAsRead(notificationID, requestingUserID uint) (alreadyRead bool, err error)
	DeleteByRelation(ownerID uint, blogID *uint, notificationType models.NotificationType, triggeredByUserID uint) error
	GetByOwnerID(ownerID uint, search string, limit, offset int) ([]models.Notification, int64, error)
	GetUnreadCount(ownerID uint) (int64, error)
	MarkAllAsRead(ownerID uint) error
}

// notificationBatchSize keeps each bulk INSERT well under the Postgres
// 65535 bind-parameter limit (7 columns per row).
const notificationBatchSize = 1000

type postgresNotificationRepository struct {
	db *gorm.DB
}

func NewPostgresNotificationRepository(db *gorm.DB) NotificationRepository {
	return &postgresNotificationRepository{db: db}
}

func (r *postgresNotificationRepository) CreateNotification(ownerID, triggeredByUserID uint, notificationType models.NotificationType, blogID *uint, message string) (*models.Notification, error) {
	notification := &models.Notification{
		OwnerID:           ownerID,
		TriggeredByUserID: triggeredByUserID,
		Type:              notificationType,
		BlogID:            blogID,
		Message:           message,
	}
	if err := r.db.Create(notification).Error; err != nil {
		return nil, err
	}
	return notification, nil
}

// CreateNotificationsBulk inserts one notification per owner in batched statements
func (r *postgresNotificationRepository) CreateNotificationsBulk(ownerIDs []uint, triggeredByUserID uint, notificationType models.NotificationType, blogID *uint, message string) ([]models.Notification, error) {
	if len(ownerIDs) == 0 {
		return []models.Notification{}, nil
	}

	notifications := make([]models.Notification, len(ownerIDs))
	for i, ownerID := range ownerIDs {
		notifications[i] = models.Notification{
			OwnerID:           ownerID,
			TriggeredByUserID: triggeredByUserID,
			Type:              notificationType,
			BlogID:            blogID,
			Message:           message,
		}
	}

	if err := r.db.CreateInBatches(&notifications, notificationBatchSize).Error; err != nil {
		return nil, err
	}
	return notifications, nil
}

// relation scopes a query to the (owner, blog, type, actor) tuple; a nil blog matches NULL
func relation(db *gorm.DB, ownerID uint, blogID *uint, notificationType models.NotificationType, triggeredByUserID uint) *gorm.DB {
	q := db.Where("owner_id = ? AND notification_type = ? AND triggered_by_user_id = ?", ownerID, notificationType, triggeredByUserID)
	if blogID == nil {
		return q.Where("blog_id IS NULL")
	}
	return q.Where("blog_id = ?", *blogID)
}

func (r *postgresNotificationRepository) ExistsDuplicate(ownerID uint, blogID *uint, notificationType models.NotificationType, triggeredByUserID uint) (bool, error) {
	var count int64
	err := relation(r.db.Model(&models.Notification{}), ownerID, blogID, notificationType, triggeredByUserID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *postgresNotificationRepository) MarkAsRead(notificationID, requestingUserID uint) (bool, error) {
	var notification models.Notification
	if err := r.db.First(&notification, notificationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, ErrNotificationNotFound
		}
		return false, err
	}

	if notification.OwnerID != requestingUserID {
		return false, ErrNotificationForbidden
	}
	if notification.IsRead {
		return true, nil
	}

	err := r.db.Model(&models.Notification{}).
		Where("id = ? AND is_read = ?", notification.ID, false).
		Update("is_read", true).Error
	return false, err
}

func (r *postgresNotificationRepository) DeleteByRelation(ownerID uint, blogID *uint, notificationType models.NotificationType, triggeredByUserID uint) error {
	return relation(r.db, ownerID, blogID, notificationType, triggeredByUserID).
		Delete(&models.Notification{}).Error
}

func (r *postgresNotificationRepository) GetByOwnerID(ownerID uint, search string, limit, offset int) ([]models.Notification, int64, error) {
	var notifications []models.Notification
	var total int64

	q := r.db.Model(&models.Notification{}).Where("owner_id = ?", ownerID)
	if search = strings.TrimSpace(search); search != "" {
		q = q.Where("LOWER(message) LIKE ?", "%"+strings.ToLower(search)+"%")
	}
	q = q.Session(&gorm.Session{})

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Order("created_at DESC").Order("id DESC").
		Offset(offset).Limit(limit).
		Find(&notifications).Error

	return notifications, total, err
}

func (r *postgresNotificationRepository) GetUnreadCount(ownerID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Notification{}).Where("owner_id = ? AND is_read = ?", ownerID, false).Count(&count).Error
	return count, err
}

func (r *postgresNotificationRepository) MarkAllAsRead(ownerID uint) error {
	return r.db.Model(&models.Notification{}).Where("owner_id = ? AND is_read = ?", ownerID, false).Update("is_read", true).Error
}

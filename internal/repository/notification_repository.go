package repository

import (
	"time"

	"coursegate_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type NotificationRepository struct {
	DB *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{DB: db}
}

func (r *NotificationRepository) CreateRecord(record *model.NotificationRecord) error {
	return r.DB.Create(record).Error
}

func (r *NotificationRepository) FindRecord(id string) (*model.NotificationRecord, error) {
	var record model.NotificationRecord
	err := r.DB.Where("id = ?", id).First(&record).Error
	return &record, err
}

// CreateUserNotification writes one delivery row; an existing
// (user, notification) pair is left alone so fan-out retries only fill
// gaps instead of resending.
func (r *NotificationRepository) CreateUserNotification(userID uint, notificationID string) (bool, error) {
	un := model.UserNotification{UserID: userID, NotificationID: notificationID}
	res := r.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "notification_id"}},
		DoNothing: true,
	}).Create(&un)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *NotificationRepository) CountByNotification(notificationID string) (int64, error) {
	var count int64
	err := r.DB.Model(&model.UserNotification{}).
		Where("notification_id = ?", notificationID).
		Count(&count).Error
	return count, err
}

// UserInbox pairs each delivery row with its record.
type UserInbox struct {
	model.UserNotification
	Title  string              `json:"title"`
	Body   string              `json:"body"`
	Kind   model.RecipientKind `json:"kind"`
	SentAt time.Time           `json:"sentAt"`
}

func (r *NotificationRepository) ListByUser(userID uint, limit int) ([]UserInbox, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []UserInbox
	err := r.DB.Model(&model.UserNotification{}).
		Select("user_notifications.*, notification_records.title AS title, notification_records.body AS body, notification_records.recipient_type AS kind, notification_records.created_at AS sent_at").
		Joins("JOIN notification_records ON notification_records.id = user_notifications.notification_id").
		Where("user_notifications.user_id = ?", userID).
		Order("user_notifications.id DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

func (r *NotificationRepository) UnreadCount(userID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.UserNotification{}).
		Where("user_id = ? AND read_at IS NULL", userID).
		Count(&count).Error
	return count, err
}

// MarkRead sets read_at once; re-reading keeps the original timestamp.
func (r *NotificationRepository) MarkRead(userID uint, notificationID string, at time.Time) (bool, error) {
	res := r.DB.Model(&model.UserNotification{}).
		Where("user_id = ? AND notification_id = ? AND read_at IS NULL", userID, notificationID).
		Update("read_at", at)
	return res.RowsAffected > 0, res.Error
}

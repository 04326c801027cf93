package model

import "time"

type RecipientKind string

const (
	RecipientSingle RecipientKind = "single"
	RecipientAll    RecipientKind = "all"
	RecipientCourse RecipientKind = "course"
)

// NotificationRecord is the immutable broadcast intent. TargetID carries a
// user id for kind=single and a course slug for kind=course; empty for all.
type NotificationRecord struct {
	UUIDBase
	RecipientType RecipientKind `gorm:"size:20;not null" json:"recipientType"`
	TargetID      string        `gorm:"size:100" json:"targetId,omitempty"`
	Title         string        `gorm:"size:255;not null" json:"title"`
	Body          string        `gorm:"type:text" json:"body"`
	CreatedBy     uint          `gorm:"index;not null" json:"createdBy"`
}

func (NotificationRecord) TableName() string {
	return "notification_records"
}

// UserNotification is the per-recipient delivery row produced by fan-out.
// ReadAt flips unset→set exactly once.
type UserNotification struct {
	BaseModel
	UserID         uint       `gorm:"uniqueIndex:idx_user_notification;not null" json:"userId"`
	NotificationID string     `gorm:"size:36;uniqueIndex:idx_user_notification;not null" json:"notificationId"`
	ReadAt         *time.Time `json:"readAt,omitempty"`
}

func (UserNotification) TableName() string {
	return "user_notifications"
}

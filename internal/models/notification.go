package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NotificationType string

const (
	NotificationLike    NotificationType = "like"
	NotificationComment NotificationType = "comment"
	NotificationFollow  NotificationType = "follow"
)

type Notification struct {
	ID         uuid.UUID        `json:"id" gorm:"type:uuid;primaryKey"`
	Type       NotificationType `json:"type" gorm:"size:20;not null"`
	FromUserID uuid.UUID        `json:"from_user_id" gorm:"type:uuid;not null;index"`
	ToUserID   uuid.UUID        `json:"to_user_id" gorm:"type:uuid;not null;index:idx_notifications_to_read"`
	PostID     *uuid.UUID       `json:"post_id" gorm:"type:uuid;index"`
	IsRead     bool             `json:"is_read" gorm:"not null;index:idx_notifications_to_read"`
	CreatedAt  time.Time        `json:"created_at"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}

func (Notification) TableName() string {
	return "notifications"
}

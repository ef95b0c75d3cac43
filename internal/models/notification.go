package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NotificationKind string

const (
	NotificationFollow NotificationKind = "follow"
	NotificationPhoto  NotificationKind = "photo"
)

type Notification struct {
	ID        uuid.UUID        `json:"id" gorm:"type:varchar(36);primaryKey"`
	UserID    uuid.UUID        `json:"user_id" gorm:"type:varchar(36);not null;uniqueIndex:idx_notification_dedup,priority:1;index:idx_notification_user_created,priority:1"`
	ActorID   uuid.UUID        `json:"actor_id" gorm:"type:varchar(36);not null;uniqueIndex:idx_notification_dedup,priority:2"`
	Kind      NotificationKind `json:"kind" gorm:"type:varchar(16);not null;uniqueIndex:idx_notification_dedup,priority:3"`
	PhotoID   uuid.UUID        `json:"photo_id" gorm:"type:varchar(36);not null;uniqueIndex:idx_notification_dedup,priority:4"`
	CreatedAt time.Time        `json:"created_at" gorm:"index:idx_notification_user_created,priority:2"`

	User User `json:"-" gorm:"foreignKey:UserID"`
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

package repository

import (
	"context"
	"fmt"

	"github.com/2am33m/kinect/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type NotificationRepository interface {
	CreateBatch(ctx context.Context, notifications []*models.Notification) error
	DeleteFollow(ctx context.Context, userID, actorID uuid.UUID) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*models.Notification, error)
}

type notificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

// CreateBatch 重复投递的事件不会产生重复通知
func (r *notificationRepository) CreateBatch(ctx context.Context, notifications []*models.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(notifications, 100).Error; err != nil {
		return fmt.Errorf("failed to create notifications: %w", err)
	}
	return nil
}

func (r *notificationRepository) DeleteFollow(ctx context.Context, userID, actorID uuid.UUID) error {
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND actor_id = ? AND kind = ?", userID, actorID, models.NotificationFollow).
		Delete(&models.Notification{}).Error; err != nil {
		return fmt.Errorf("failed to delete follow notification: %w", err)
	}
	return nil
}

func (r *notificationRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*models.Notification, error) {
	var notifications []*models.Notification
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&notifications).Error; err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}

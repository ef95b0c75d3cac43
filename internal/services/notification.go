package services

import (
	"context"

	"github.com/2am33m/kinect/internal/models"
	"github.com/2am33m/kinect/internal/repository"
	"github.com/2am33m/kinect/pkg/logger"
	"github.com/google/uuid"
)

// NotificationService 由 worker 根据事件写入通知，处理都是幂等的
type NotificationService struct {
	notificationRepo repository.NotificationRepository
	followRepo       repository.FollowRepository
	logger           *logger.Logger
}

func NewNotificationService(notificationRepo repository.NotificationRepository, followRepo repository.FollowRepository, logger *logger.Logger) *NotificationService {
	return &NotificationService{
		notificationRepo: notificationRepo,
		followRepo:       followRepo,
		logger:           logger,
	}
}

func (s *NotificationService) HandleFollowCreated(ctx context.Context, followerID, followeeID uuid.UUID) error {
	n := &models.Notification{
		UserID:  followeeID,
		ActorID: followerID,
		Kind:    models.NotificationFollow,
	}
	if err := s.notificationRepo.CreateBatch(ctx, []*models.Notification{n}); err != nil {
		return storageError(err)
	}
	return nil
}

func (s *NotificationService) HandleFollowDeleted(ctx context.Context, followerID, followeeID uuid.UUID) error {
	if err := s.notificationRepo.DeleteFollow(ctx, followeeID, followerID); err != nil {
		return storageError(err)
	}
	return nil
}

// HandlePhotoCreated 通知作者的每个粉丝
func (s *NotificationService) HandlePhotoCreated(ctx context.Context, ownerID, photoID uuid.UUID) error {
	followerIDs, err := s.followRepo.ListFollowerIDs(ctx, ownerID)
	if err != nil {
		return storageError(err)
	}
	if len(followerIDs) == 0 {
		return nil
	}

	batch := make([]*models.Notification, 0, len(followerIDs))
	for _, id := range followerIDs {
		batch = append(batch, &models.Notification{
			UserID:  id,
			ActorID: ownerID,
			Kind:    models.NotificationPhoto,
			PhotoID: photoID,
		})
	}
	if err := s.notificationRepo.CreateBatch(ctx, batch); err != nil {
		return storageError(err)
	}

	s.logger.WithFields(map[string]interface{}{
		"photo_id":  photoID,
		"user_id":   ownerID,
		"followers": len(followerIDs),
	}).Info("Photo notifications created")
	return nil
}

func (s *NotificationService) List(ctx context.Context, userID uuid.UUID, limit int) ([]*models.Notification, int, error) {
	limit = clampLimit(limit, 20)
	list, err := s.notificationRepo.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, 0, storageError(err)
	}
	return list, limit, nil
}

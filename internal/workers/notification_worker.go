package workers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/2am33m/kinect/internal/services"
	"github.com/2am33m/kinect/pkg/logger"
	"github.com/2am33m/kinect/pkg/queue"
	"github.com/google/uuid"
)

type NotificationWorker struct {
	notificationService *services.NotificationService
	consumer            *queue.KafkaConsumer
	logger              *logger.Logger
}

func NewNotificationWorker(notificationService *services.NotificationService, consumer *queue.KafkaConsumer, logger *logger.Logger) *NotificationWorker {
	return &NotificationWorker{
		notificationService: notificationService,
		consumer:            consumer,
		logger:              logger,
	}
}

// Start 阻塞直到 ctx 取消
func (w *NotificationWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting notification worker...")
	return w.consumer.Subscribe(ctx, w.HandleMessage)
}

func (w *NotificationWorker) Stop() error {
	return w.consumer.Close()
}

func (w *NotificationWorker) HandleMessage(ctx context.Context, msg queue.Message) error {
	event, err := queue.DecodeEvent(msg)
	if err != nil {
		return err
	}

	w.logger.WithFields(map[string]interface{}{
		"event_type": event.Type,
		"timestamp":  event.Timestamp,
	}).Debug("Processing event")

	switch event.Type {
	case queue.EventFollowCreated:
		return w.handleFollow(ctx, event, w.notificationService.HandleFollowCreated)
	case queue.EventFollowDeleted:
		return w.handleFollow(ctx, event, w.notificationService.HandleFollowDeleted)
	case queue.EventPhotoCreated:
		return w.handlePhotoCreated(ctx, event)
	case queue.EventUserCreated:
		return nil
	default:
		w.logger.WithField("event_type", event.Type).Warn("Unknown event type")
		return nil
	}
}

func (w *NotificationWorker) handleFollow(ctx context.Context, event *queue.RawEvent, apply func(context.Context, uuid.UUID, uuid.UUID) error) error {
	var data queue.FollowEventData
	if err := json.Unmarshal(event.Data, &data); err != nil {
		return fmt.Errorf("invalid %s event data: %w", event.Type, err)
	}

	followerID, err := uuid.Parse(data.FollowerID)
	if err != nil {
		return fmt.Errorf("invalid follower_id in event data: %w", err)
	}
	followeeID, err := uuid.Parse(data.FolloweeID)
	if err != nil {
		return fmt.Errorf("invalid followee_id in event data: %w", err)
	}

	return apply(ctx, followerID, followeeID)
}

func (w *NotificationWorker) handlePhotoCreated(ctx context.Context, event *queue.RawEvent) error {
	var data queue.PhotoEventData
	if err := json.Unmarshal(event.Data, &data); err != nil {
		return fmt.Errorf("invalid photo created event data: %w", err)
	}

	photoID, err := uuid.Parse(data.PhotoID)
	if err != nil {
		return fmt.Errorf("invalid photo_id in event data: %w", err)
	}
	ownerID, err := uuid.Parse(data.OwnerID)
	if err != nil {
		return fmt.Errorf("invalid owner_id in event data: %w", err)
	}

	return w.notificationService.HandlePhotoCreated(ctx, ownerID, photoID)
}

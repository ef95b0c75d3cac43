package services

import (
	"context"
	"errors"
	"time"

	"github.com/2am33m/kinect/internal/models"
	"github.com/2am33m/kinect/internal/repository"
	"github.com/2am33m/kinect/pkg/logger"
	"github.com/2am33m/kinect/pkg/queue"
	"github.com/google/uuid"
)

type FollowService struct {
	followRepo repository.FollowRepository
	userRepo   repository.UserRepository
	stats      *StatsCache
	producer   queue.Publisher
	logger     *logger.Logger
}

// stats 可以为 nil，此时不做缓存失效
func NewFollowService(followRepo repository.FollowRepository, userRepo repository.UserRepository, stats *StatsCache, producer queue.Publisher, logger *logger.Logger) *FollowService {
	return &FollowService{
		followRepo: followRepo,
		userRepo:   userRepo,
		stats:      stats,
		producer:   producer,
		logger:     logger,
	}
}

// Follow 幂等：已关注时返回已有关系
func (s *FollowService) Follow(ctx context.Context, followerID, followeeID uuid.UUID) (*models.FollowEdge, error) {
	if followerID == followeeID {
		return nil, newError(ErrInvalidOperation, "cannot follow yourself")
	}

	if err := requireUser(ctx, s.userRepo, followerID); err != nil {
		return nil, err
	}
	if err := requireUser(ctx, s.userRepo, followeeID); err != nil {
		return nil, err
	}

	created, err := s.followRepo.Create(ctx, followerID, followeeID)
	if err != nil {
		return nil, storageError(err)
	}

	edge, err := s.followRepo.Get(ctx, followerID, followeeID)
	if err != nil {
		return nil, storageError(err)
	}
	if edge == nil {
		// 并发的取消关注已删除该记录
		return nil, storageError(errors.New("follow edge disappeared after insert"))
	}

	if !created {
		return edge, nil
	}

	s.stats.Invalidate(ctx, followerID, followeeID)

	event := queue.Event{
		Type:      queue.EventFollowCreated,
		Timestamp: edge.CreatedAt,
		Data: queue.FollowEventData{
			FollowerID: followerID.String(),
			FolloweeID: followeeID.String(),
			CreatedAt:  edge.CreatedAt.Format(time.RFC3339Nano),
		},
	}
	if err := s.producer.Publish(ctx, followerID.String(), event); err != nil {
		s.logger.WithError(err).Error("Failed to publish follow created event")
	}

	s.logger.WithFields(map[string]interface{}{
		"follower_id": followerID,
		"followee_id": followeeID,
	}).Info("User followed successfully")

	return edge, nil
}

// Unfollow 关系不存在时直接返回
func (s *FollowService) Unfollow(ctx context.Context, followerID, followeeID uuid.UUID) error {
	if err := requireUser(ctx, s.userRepo, followeeID); err != nil {
		return err
	}

	deleted, err := s.followRepo.Delete(ctx, followerID, followeeID)
	if err != nil {
		return storageError(err)
	}
	if !deleted {
		return nil
	}

	s.stats.Invalidate(ctx, followerID, followeeID)

	event := queue.Event{
		Type:      queue.EventFollowDeleted,
		Timestamp: time.Now(),
		Data: queue.FollowEventData{
			FollowerID: followerID.String(),
			FolloweeID: followeeID.String(),
		},
	}
	if err := s.producer.Publish(ctx, followerID.String(), event); err != nil {
		s.logger.WithError(err).Error("Failed to publish follow deleted event")
	}

	s.logger.WithFields(map[string]interface{}{
		"follower_id": followerID,
		"followee_id": followeeID,
	}).Info("User unfollowed successfully")

	return nil
}

func (s *FollowService) IsFollowing(ctx context.Context, followerID, followeeID uuid.UUID) (bool, error) {
	ok, err := s.followRepo.IsFollowing(ctx, followerID, followeeID)
	if err != nil {
		return false, storageError(err)
	}
	return ok, nil
}

func (s *FollowService) FollowerCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	n, err := s.followRepo.CountFollowers(ctx, userID)
	if err != nil {
		return 0, storageError(err)
	}
	return n, nil
}

func (s *FollowService) FollowingCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	n, err := s.followRepo.CountFollowing(ctx, userID)
	if err != nil {
		return 0, storageError(err)
	}
	return n, nil
}

func (s *FollowService) FolloweeIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	ids, err := s.followRepo.ListFolloweeIDs(ctx, userID)
	if err != nil {
		return nil, storageError(err)
	}
	return ids, nil
}

func (s *FollowService) ListFollowers(ctx context.Context, userID uuid.UUID, offset, limit int) ([]*models.User, error) {
	if err := requireUser(ctx, s.userRepo, userID); err != nil {
		return nil, err
	}

	followers, err := s.followRepo.GetFollowers(ctx, userID, max(offset, 0), clampLimit(limit, 20))
	if err != nil {
		return nil, storageError(err)
	}
	return followers, nil
}

func (s *FollowService) ListFollowing(ctx context.Context, userID uuid.UUID, offset, limit int) ([]*models.User, error) {
	if err := requireUser(ctx, s.userRepo, userID); err != nil {
		return nil, err
	}

	following, err := s.followRepo.GetFollowing(ctx, userID, max(offset, 0), clampLimit(limit, 20))
	if err != nil {
		return nil, storageError(err)
	}
	return following, nil
}

package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/2am33m/kinect/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type FollowRepository interface {
	Create(ctx context.Context, followerID, followeeID uuid.UUID) (bool, error)
	Get(ctx context.Context, followerID, followeeID uuid.UUID) (*models.FollowEdge, error)
	Delete(ctx context.Context, followerID, followeeID uuid.UUID) (bool, error)
	IsFollowing(ctx context.Context, followerID, followeeID uuid.UUID) (bool, error)
	CountFollowers(ctx context.Context, userID uuid.UUID) (int64, error)
	CountFollowing(ctx context.Context, userID uuid.UUID) (int64, error)
	ListFolloweeIDs(ctx context.Context, followerID uuid.UUID) ([]uuid.UUID, error)
	ListFollowerIDs(ctx context.Context, followeeID uuid.UUID) ([]uuid.UUID, error)
	GetFollowers(ctx context.Context, userID uuid.UUID, offset, limit int) ([]*models.User, error)
	GetFollowing(ctx context.Context, userID uuid.UUID, offset, limit int) ([]*models.User, error)
}

type followRepository struct {
	db *gorm.DB
}

func NewFollowRepository(db *gorm.DB) FollowRepository {
	return &followRepository{db: db}
}

// Create 幂等：关系已存在时不报错，返回值表示是否新建
func (r *followRepository) Create(ctx context.Context, followerID, followeeID uuid.UUID) (bool, error) {
	edge := &models.FollowEdge{FollowerID: followerID, FolloweeID: followeeID}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "follower_id"}, {Name: "followee_id"}},
			DoNothing: true,
		}).
		Create(edge)
	if res.Error != nil {
		return false, fmt.Errorf("failed to create follow edge: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *followRepository) Get(ctx context.Context, followerID, followeeID uuid.UUID) (*models.FollowEdge, error) {
	var edge models.FollowEdge
	if err := r.db.WithContext(ctx).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		First(&edge).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get follow edge: %w", err)
	}
	return &edge, nil
}

// Delete 关系不存在时不报错，返回值表示是否删除了记录
func (r *followRepository) Delete(ctx context.Context, followerID, followeeID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		Delete(&models.FollowEdge{})
	if res.Error != nil {
		return false, fmt.Errorf("failed to delete follow edge: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *followRepository) IsFollowing(ctx context.Context, followerID, followeeID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.FollowEdge{}).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check follow status: %w", err)
	}
	return count > 0, nil
}

func (r *followRepository) CountFollowers(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.FollowEdge{}).
		Where("followee_id = ?", userID).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count followers: %w", err)
	}
	return count, nil
}

func (r *followRepository) CountFollowing(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.FollowEdge{}).
		Where("follower_id = ?", userID).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count following: %w", err)
	}
	return count, nil
}

func (r *followRepository) ListFolloweeIDs(ctx context.Context, followerID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&models.FollowEdge{}).
		Where("follower_id = ?", followerID).
		Pluck("followee_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to list followees: %w", err)
	}
	return ids, nil
}

func (r *followRepository) ListFollowerIDs(ctx context.Context, followeeID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&models.FollowEdge{}).
		Where("followee_id = ?", followeeID).
		Pluck("follower_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to list followers: %w", err)
	}
	return ids, nil
}

func (r *followRepository) GetFollowers(ctx context.Context, userID uuid.UUID, offset, limit int) ([]*models.User, error) {
	var users []*models.User
	if err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Joins("JOIN follow_edges ON follow_edges.follower_id = users.id").
		Where("follow_edges.followee_id = ?", userID).
		Order("follow_edges.created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to get followers: %w", err)
	}
	return users, nil
}

func (r *followRepository) GetFollowing(ctx context.Context, userID uuid.UUID, offset, limit int) ([]*models.User, error) {
	var users []*models.User
	if err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Joins("JOIN follow_edges ON follow_edges.followee_id = users.id").
		Where("follow_edges.follower_id = ?", userID).
		Order("follow_edges.created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to get following: %w", err)
	}
	return users, nil
}

package services

import (
	"context"
	"sort"

	"github.com/2am33m/kinect/internal/models"
	"github.com/2am33m/kinect/internal/repository"
	"github.com/2am33m/kinect/pkg/logger"
	"github.com/google/uuid"
)

type FeedService struct {
	photos   *PhotoService
	follows  *FollowService
	userRepo repository.UserRepository
	logger   *logger.Logger
}

func NewFeedService(photos *PhotoService, follows *FollowService, userRepo repository.UserRepository, logger *logger.Logger) *FeedService {
	return &FeedService{
		photos:   photos,
		follows:  follows,
		userRepo: userRepo,
		logger:   logger,
	}
}

// BuildHomeFeed 返回自己和关注对象的全部照片，按时间倒序，不分页
func (s *FeedService) BuildHomeFeed(ctx context.Context, viewerID uuid.UUID) ([]*models.Photo, error) {
	if err := requireUser(ctx, s.userRepo, viewerID); err != nil {
		return nil, err
	}

	followeeIDs, err := s.follows.FolloweeIDs(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	fromFollowing, err := s.photos.ListByOwners(ctx, followeeIDs)
	if err != nil {
		return nil, err
	}

	own, err := s.photos.ListByOwner(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	feed := mergePhotos(own, fromFollowing)

	s.logger.WithFields(map[string]interface{}{
		"user_id":   viewerID,
		"followees": len(followeeIDs),
		"photos":    len(feed),
	}).Debug("Home feed built")

	return feed, nil
}

// mergePhotos 按 id 去重后排序
func mergePhotos(sets ...[]*models.Photo) []*models.Photo {
	seen := make(map[uuid.UUID]struct{})
	merged := make([]*models.Photo, 0)
	for _, set := range sets {
		for _, p := range set {
			if _, ok := seen[p.ID]; ok {
				continue
			}
			seen[p.ID] = struct{}{}
			merged = append(merged, p)
		}
	}
	sortNewestFirst(merged)
	return merged
}

func sortNewestFirst(photos []*models.Photo) {
	sort.Slice(photos, func(i, j int) bool {
		return photos[i].Newer(photos[j])
	})
}

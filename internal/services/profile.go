package services

import (
	"context"
	"errors"
	"time"

	"github.com/2am33m/kinect/internal/models"
	"github.com/2am33m/kinect/pkg/cache"
	"github.com/2am33m/kinect/pkg/logger"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

type ProfileStats struct {
	FollowerCount  int64 `json:"followerCount"`
	FollowingCount int64 `json:"followingCount"`
}

type Profile struct {
	User           *models.User    `json:"user"`
	Photos         []*models.Photo `json:"photos"`
	FollowerCount  int64           `json:"followerCount"`
	FollowingCount int64           `json:"followingCount"`
	IsFollowing    bool            `json:"isFollowing"`
}

// StatsCache 缓存主页的关注计数。nil 或未配置 client 时所有操作为空。
// 每个用户带一个版本号，失效时递增，回源结果只在版本未变时写回。
// Redis 出错只记录日志，调用方回源数据库。
type StatsCache struct {
	client     *cache.RedisClient
	ttl        time.Duration
	retryDelay time.Duration
	logger     *logger.Logger
}

// versionTTL 远大于一次回源的耗时
const versionTTL = 24 * time.Hour

func NewStatsCache(client *cache.RedisClient, ttl time.Duration, logger *logger.Logger) *StatsCache {
	return &StatsCache{client: client, ttl: ttl, retryDelay: time.Second, logger: logger}
}

func statsKey(userID uuid.UUID) string {
	return "profile:stats:" + userID.String()
}

func statsVersionKey(userID uuid.UUID) string {
	return "profile:stats:version:" + userID.String()
}

func (c *StatsCache) enabled() bool {
	return c != nil && c.client != nil && c.ttl > 0
}

func (c *StatsCache) get(ctx context.Context, userID uuid.UUID) (*ProfileStats, bool) {
	if !c.enabled() {
		return nil, false
	}
	var stats ProfileStats
	if err := c.client.GetJSON(ctx, statsKey(userID), &stats); err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			c.logger.WithError(err).Warn("Failed to read profile stats cache")
		}
		return nil, false
	}
	return &stats, true
}

// version 读取失败时返回 false，本次回源不写缓存
func (c *StatsCache) version(ctx context.Context, userID uuid.UUID) (int64, bool) {
	if !c.enabled() {
		return 0, false
	}
	v, err := c.client.Version(ctx, statsVersionKey(userID))
	if err != nil {
		c.logger.WithError(err).Warn("Failed to read profile stats version")
		return 0, false
	}
	return v, true
}

func (c *StatsCache) setIfVersion(ctx context.Context, userID uuid.UUID, version int64, stats *ProfileStats) {
	if !c.enabled() {
		return
	}
	err := c.client.SetJSONIfVersion(ctx, statsVersionKey(userID), version, statsKey(userID), stats, c.ttl)
	switch {
	case errors.Is(err, cache.ErrStale):
		c.logger.WithField("user_id", userID).Debug("Discarded stale profile stats")
	case err != nil:
		c.logger.WithError(err).Warn("Failed to write profile stats cache")
	}
}

// Invalidate 失败时延迟重试一次，避免旧计数留到 TTL 过期
func (c *StatsCache) Invalidate(ctx context.Context, userIDs ...uuid.UUID) {
	if !c.enabled() || len(userIDs) == 0 {
		return
	}
	if err := c.invalidate(ctx, userIDs); err != nil {
		c.logger.WithError(err).Error("Failed to invalidate profile stats cache, retrying")
		retryCtx := context.WithoutCancel(ctx)
		time.AfterFunc(c.retryDelay, func() {
			if err := c.invalidate(retryCtx, userIDs); err != nil {
				c.logger.WithError(err).Error("Failed to invalidate profile stats cache")
			}
		})
	}
}

func (c *StatsCache) invalidate(ctx context.Context, userIDs []uuid.UUID) error {
	versionKeys := make([]string, 0, len(userIDs))
	keys := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		versionKeys = append(versionKeys, statsVersionKey(id))
		keys = append(keys, statsKey(id))
	}
	return c.client.Invalidate(ctx, versionTTL, versionKeys, keys...)
}

type ProfileService struct {
	users   *UserService
	photos  *PhotoService
	follows *FollowService
	stats   *StatsCache
	sf      singleflight.Group
	logger  *logger.Logger
}

func NewProfileService(users *UserService, photos *PhotoService, follows *FollowService, stats *StatsCache, logger *logger.Logger) *ProfileService {
	return &ProfileService{
		users:   users,
		photos:  photos,
		follows: follows,
		stats:   stats,
		logger:  logger,
	}
}

// GetProfile viewerID 为 uuid.Nil 表示未登录
func (s *ProfileService) GetProfile(ctx context.Context, viewerID, targetID uuid.UUID) (*Profile, error) {
	user, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}

	photos, err := s.photos.ListByOwner(ctx, targetID)
	if err != nil {
		return nil, err
	}
	sortNewestFirst(photos)

	stats, err := s.Stats(ctx, targetID)
	if err != nil {
		return nil, err
	}

	isFollowing := false
	if viewerID != uuid.Nil && viewerID != targetID {
		isFollowing, err = s.follows.IsFollowing(ctx, viewerID, targetID)
		if err != nil {
			return nil, err
		}
	}

	return &Profile{
		User:           user,
		Photos:         photos,
		FollowerCount:  stats.FollowerCount,
		FollowingCount: stats.FollowingCount,
		IsFollowing:    isFollowing,
	}, nil
}

// Stats 先查缓存，未命中时合并并发请求回源。
// 回源不受单个调用方取消的影响，调用方取消时只是不再等待结果。
func (s *ProfileService) Stats(ctx context.Context, userID uuid.UUID) (*ProfileStats, error) {
	if stats, ok := s.stats.get(ctx, userID); ok {
		return stats, nil
	}

	loadCtx := context.WithoutCancel(ctx)
	ch := s.sf.DoChan(statsKey(userID), func() (interface{}, error) {
		version, cacheable := s.stats.version(loadCtx, userID)

		followers, err := s.follows.FollowerCount(loadCtx, userID)
		if err != nil {
			return nil, err
		}
		following, err := s.follows.FollowingCount(loadCtx, userID)
		if err != nil {
			return nil, err
		}

		stats := &ProfileStats{FollowerCount: followers, FollowingCount: following}
		if cacheable {
			s.stats.setIfVersion(loadCtx, userID, version, stats)
		}
		return stats, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*ProfileStats), nil
	}
}

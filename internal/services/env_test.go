package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/2am33m/kinect/internal/models"
	"github.com/2am33m/kinect/internal/repository"
	"github.com/2am33m/kinect/internal/repository/repotest"
	"github.com/2am33m/kinect/pkg/cache"
	"github.com/2am33m/kinect/pkg/logger"
	"github.com/2am33m/kinect/pkg/queue"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.Event
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, key string, value interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if event, ok := value.(queue.Event); ok {
		p.events = append(p.events, event)
	}
	return p.err
}

func (p *recordingPublisher) types() []queue.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]queue.EventType, 0, len(p.events))
	for _, e := range p.events {
		types = append(types, e.Type)
	}
	return types
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type testEnv struct {
	db        *gorm.DB
	redis     *miniredis.Miniredis
	publisher *recordingPublisher
	clock     *fakeClock
	stats     *StatsCache

	users         *UserService
	photos        *PhotoService
	follows       *FollowService
	feed          *FeedService
	profiles      *ProfileService
	notifications *NotificationService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWith(t, nil)
}

// newTestEnvWith 允许包装关注关系仓库，用于在查询中途插入并发操作
func newTestEnvWith(t *testing.T, wrapFollows func(repository.FollowRepository) repository.FollowRepository) *testEnv {
	t.Helper()

	db := repotest.NewDB(t)
	mr := miniredis.RunT(t)
	log := logger.NewNopLogger()
	redisClient := cache.NewFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), log.Logger)
	t.Cleanup(func() { _ = redisClient.Close() })

	userRepo := repository.NewUserRepository(db)
	photoRepo := repository.NewPhotoRepository(db)
	followRepo := repository.NewFollowRepository(db)
	if wrapFollows != nil {
		followRepo = wrapFollows(followRepo)
	}
	notificationRepo := repository.NewNotificationRepository(db)

	env := &testEnv{
		db:        db,
		redis:     mr,
		publisher: &recordingPublisher{},
		clock:     &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
	}

	stats := NewStatsCache(redisClient, time.Minute, log)
	env.stats = stats
	env.users = NewUserService(userRepo, env.publisher, log)
	env.photos = NewPhotoService(photoRepo, userRepo, env.publisher, log).WithClock(env.clock.Now)
	env.follows = NewFollowService(followRepo, userRepo, stats, env.publisher, log)
	env.feed = NewFeedService(env.photos, env.follows, userRepo, log)
	env.profiles = NewProfileService(env.users, env.photos, env.follows, stats, log)
	env.notifications = NewNotificationService(notificationRepo, followRepo, log)
	return env
}

// seedUser 直接写库，跳过 bcrypt
func (e *testEnv) seedUser(t *testing.T, username string) uuid.UUID {
	t.Helper()
	u := &models.User{Username: username, Email: username + "@example.com", Password: "x", FirstName: username}
	require.NoError(t, repository.NewUserRepository(e.db).Create(context.Background(), u))
	return u.ID
}

func (e *testEnv) post(t *testing.T, owner uuid.UUID, at time.Time, ref string) *models.Photo {
	t.Helper()
	e.clock.Set(at)
	p, err := e.photos.CreatePhoto(context.Background(), owner, &CreatePhotoRequest{ImageRef: ref})
	require.NoError(t, err)
	return p
}

func photoIDs(photos []*models.Photo) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(photos))
	for _, p := range photos {
		ids = append(ids, p.ID)
	}
	return ids
}

// gatedFollowRepo 第一次 CountFollowers 查询完成后暂停，直到 release 关闭
type gatedFollowRepo struct {
	repository.FollowRepository
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func newGatedFollowRepo() *gatedFollowRepo {
	return &gatedFollowRepo{entered: make(chan struct{}), release: make(chan struct{})}
}

func (r *gatedFollowRepo) wrap(inner repository.FollowRepository) repository.FollowRepository {
	r.FollowRepository = inner
	return r
}

func (r *gatedFollowRepo) CountFollowers(ctx context.Context, userID uuid.UUID) (int64, error) {
	n, err := r.FollowRepository.CountFollowers(ctx, userID)
	gated := false
	r.once.Do(func() { gated = true })
	if gated {
		close(r.entered)
		<-r.release
	}
	return n, err
}

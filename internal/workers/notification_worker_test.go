package workers

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/2am33m/kinect/internal/models"
	"github.com/2am33m/kinect/internal/repository"
	"github.com/2am33m/kinect/internal/repository/repotest"
	"github.com/2am33m/kinect/internal/services"
	"github.com/2am33m/kinect/pkg/logger"
	"github.com/2am33m/kinect/pkg/queue"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setup(t *testing.T) (*NotificationWorker, *gorm.DB) {
	t.Helper()
	db := repotest.NewDB(t)
	svc := services.NewNotificationService(
		repository.NewNotificationRepository(db),
		repository.NewFollowRepository(db),
		logger.NewNopLogger(),
	)
	return NewNotificationWorker(svc, nil, logger.NewNopLogger()), db
}

func seed(t *testing.T, db *gorm.DB, name string) uuid.UUID {
	t.Helper()
	u := &models.User{Username: name, Email: name + "@example.com", Password: "x"}
	require.NoError(t, repository.NewUserRepository(db).Create(context.Background(), u))
	return u.ID
}

func message(t *testing.T, typ queue.EventType, data interface{}) queue.Message {
	t.Helper()
	b, err := json.Marshal(queue.Event{Type: typ, Timestamp: time.Now(), Data: data})
	require.NoError(t, err)
	return queue.Message{Value: b}
}

func countNotifications(t *testing.T, db *gorm.DB, userID uuid.UUID) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.Notification{}).Where("user_id = ?", userID).Count(&n).Error)
	return n
}

func TestHandleMessage_FollowLifecycle(t *testing.T) {
	w, db := setup(t)
	ctx := context.Background()
	a, b := seed(t, db, "alice"), seed(t, db, "bob")
	data := queue.FollowEventData{FollowerID: a.String(), FolloweeID: b.String()}

	require.NoError(t, w.HandleMessage(ctx, message(t, queue.EventFollowCreated, data)))
	require.NoError(t, w.HandleMessage(ctx, message(t, queue.EventFollowCreated, data)))
	assert.Equal(t, int64(1), countNotifications(t, db, b))

	require.NoError(t, w.HandleMessage(ctx, message(t, queue.EventFollowDeleted, data)))
	assert.Equal(t, int64(0), countNotifications(t, db, b))
}

func TestHandleMessage_PhotoCreated(t *testing.T) {
	w, db := setup(t)
	ctx := context.Background()
	a, b := seed(t, db, "alice"), seed(t, db, "bob")
	_, err := repository.NewFollowRepository(db).Create(ctx, b, a)
	require.NoError(t, err)

	photo := &models.Photo{OwnerID: a, ImageRef: "a.jpg"}
	require.NoError(t, repository.NewPhotoRepository(db).Create(ctx, photo))

	msg := message(t, queue.EventPhotoCreated, queue.PhotoEventData{PhotoID: photo.ID.String(), OwnerID: a.String()})
	require.NoError(t, w.HandleMessage(ctx, msg))
	assert.Equal(t, int64(1), countNotifications(t, db, b))
	assert.Equal(t, int64(0), countNotifications(t, db, a))
}

func TestHandleMessage_BadInput(t *testing.T) {
	w, _ := setup(t)
	ctx := context.Background()

	assert.Error(t, w.HandleMessage(ctx, queue.Message{Value: []byte("nope")}))
	assert.Error(t, w.HandleMessage(ctx, message(t, queue.EventFollowCreated, queue.FollowEventData{FollowerID: "x", FolloweeID: "y"})))
	assert.NoError(t, w.HandleMessage(ctx, message(t, "something_else", nil)))
	assert.NoError(t, w.HandleMessage(ctx, message(t, queue.EventUserCreated, queue.UserEventData{UserID: uuid.NewString()})))
}

package services

import (
	"context"
	"testing"
	"time"

	"github.com/2am33m/kinect/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifications_Follow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a, b := env.seedUser(t, "alice"), env.seedUser(t, "bob")

	require.NoError(t, env.notifications.HandleFollowCreated(ctx, a, b))
	// 重复投递
	require.NoError(t, env.notifications.HandleFollowCreated(ctx, a, b))

	list, limit, err := env.notifications.List(ctx, b, 0)
	require.NoError(t, err)
	assert.Equal(t, 20, limit)
	require.Len(t, list, 1)
	assert.Equal(t, a, list[0].ActorID)
	assert.Equal(t, models.NotificationFollow, list[0].Kind)

	require.NoError(t, env.notifications.HandleFollowDeleted(ctx, a, b))
	list, _, err = env.notifications.List(ctx, b, 10)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestNotifications_PhotoFansOut(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a, b, c := env.seedUser(t, "alice"), env.seedUser(t, "bob"), env.seedUser(t, "carol")

	_, err := env.follows.Follow(ctx, b, a)
	require.NoError(t, err)
	_, err = env.follows.Follow(ctx, c, a)
	require.NoError(t, err)

	photo := env.post(t, a, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), "a.jpg")
	require.NoError(t, env.notifications.HandlePhotoCreated(ctx, a, photo.ID))
	require.NoError(t, env.notifications.HandlePhotoCreated(ctx, a, photo.ID))

	for _, recipient := range []uuid.UUID{b, c} {
		list, _, err := env.notifications.List(ctx, recipient, 10)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, models.NotificationPhoto, list[0].Kind)
		assert.Equal(t, photo.ID, list[0].PhotoID)
	}

	list, _, err := env.notifications.List(ctx, a, 10)
	require.NoError(t, err)
	assert.Empty(t, list)
}

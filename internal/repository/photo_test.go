package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/2am33m/kinect/internal/models"
	"github.com/2am33m/kinect/internal/repository"
	"github.com/2am33m/kinect/internal/repository/repotest"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPhotoRepository_ListByOwner(t *testing.T) {
	db := repotest.NewDB(t)
	repo := repository.NewPhotoRepository(db)
	ctx := context.Background()
	a, b := seedUser(t, db, "alice"), seedUser(t, db, "bob")
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	p1 := &models.Photo{OwnerID: a.ID, ImageRef: "a1.jpg", CreatedAt: base}
	p2 := &models.Photo{OwnerID: a.ID, ImageRef: "a2.jpg", CreatedAt: base.Add(time.Hour)}
	p3 := &models.Photo{OwnerID: b.ID, ImageRef: "b1.jpg", CreatedAt: base}
	for _, p := range []*models.Photo{p1, p2, p3} {
		require.NoError(t, repo.Create(ctx, p))
		assert.NotEqual(t, uuid.Nil, p.ID)
	}

	photos, err := repo.ListByOwner(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, photos, 2)
	assert.Equal(t, p2.ID, photos[0].ID)
	assert.Equal(t, p1.ID, photos[1].ID)

	photos, err = repo.ListByOwner(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, photos)
}

func TestPhotoRepository_ListByOwners(t *testing.T) {
	db := repotest.NewDB(t)
	repo := repository.NewPhotoRepository(db)
	ctx := context.Background()
	a, b, c := seedUser(t, db, "alice"), seedUser(t, db, "bob"), seedUser(t, db, "carol")

	for _, u := range []*models.User{a, b, c} {
		require.NoError(t, repo.Create(ctx, &models.Photo{OwnerID: u.ID, ImageRef: u.Username + ".jpg"}))
	}

	photos, err := repo.ListByOwners(ctx, []uuid.UUID{a.ID, c.ID})
	require.NoError(t, err)
	require.Len(t, photos, 2)
	owners := []uuid.UUID{photos[0].OwnerID, photos[1].OwnerID}
	assert.ElementsMatch(t, []uuid.UUID{a.ID, c.ID}, owners)

	photos, err = repo.ListByOwners(ctx, nil)
	require.NoError(t, err)
	assert.NotNil(t, photos)
	assert.Empty(t, photos)
}

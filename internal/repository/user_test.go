package repository_test

import (
	"context"
	"testing"

	"github.com/2am33m/kinect/internal/models"
	"github.com/2am33m/kinect/internal/repository"
	"github.com/2am33m/kinect/internal/repository/repotest"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestUserRepository_Lookups(t *testing.T) {
	db := repotest.NewDB(t)
	repo := repository.NewUserRepository(db)
	ctx := context.Background()
	u := seedUser(t, db, "alice")

	got, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "alice", got.Username)

	got, err = repo.GetByEmail(ctx, "ALICE@example.com")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, u.ID, got.ID)

	got, err = repo.GetByUsername(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, got)

	ok, err := repo.Exists(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Exists(ctx, uuid.New())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUserRepository_UniqueUsername(t *testing.T) {
	db := repotest.NewDB(t)
	repo := repository.NewUserRepository(db)
	seedUser(t, db, "alice")

	err := repo.Create(context.Background(), &models.User{Username: "alice", Email: "other@example.com", Password: "x"})
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestUserRepository_Search(t *testing.T) {
	db := repotest.NewDB(t)
	repo := repository.NewUserRepository(db)
	ctx := context.Background()

	users := []*models.User{
		{Username: "jdoe", Email: "john@example.com", FirstName: "John", LastName: "Doe"},
		{Username: "jane_s", Email: "jane@example.com", FirstName: "Jane", LastName: "Smith"},
		{Username: "bob", Email: "bob@corp.io", FirstName: "Bob", LastName: "Stone"},
	}
	for _, u := range users {
		u.Password = "x"
		require.NoError(t, repo.Create(ctx, u))
	}

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"first name case insensitive", "JOHN", []string{"jdoe"}},
		{"last name prefix", "st", []string{"bob"}},
		{"email domain", "example.com", []string{"jane_s", "jdoe"}},
		{"underscore is literal", "_", []string{"jane_s"}},
		{"percent is literal", "%", nil},
		{"empty query lists all", "", []string{"bob", "jane_s", "jdoe"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.Search(ctx, tt.query, 50)
			require.NoError(t, err)
			var names []string
			for _, u := range got {
				names = append(names, u.Username)
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

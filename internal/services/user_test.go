package services

import (
	"context"
	"testing"

	"github.com/2am33m/kinect/internal/models"
	"github.com/2am33m/kinect/internal/repository"
	"github.com/2am33m/kinect/pkg/logger"
	"github.com/2am33m/kinect/pkg/queue"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registerReq(username string) *RegisterRequest {
	return &RegisterRequest{
		Username:  username,
		Email:     username + "@example.com",
		Password:  "secret123",
		FirstName: "First",
		LastName:  "Last",
	}
}

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user, err := env.users.Register(ctx, registerReq("alice"))
	require.NoError(t, err)
	assert.NotEqual(t, "secret123", user.Password)
	assert.Equal(t, []queue.EventType{queue.EventUserCreated}, env.publisher.types())

	got, err := env.users.Login(ctx, &LoginRequest{Email: "alice@example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = env.users.Login(ctx, &LoginRequest{Email: "alice@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrUnauthenticated)
	assert.Equal(t, "invalid email or password", err.Error())

	_, err = env.users.Login(ctx, &LoginRequest{Email: "nobody@example.com", Password: "secret123"})
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestRegister_Duplicates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, err := env.users.Register(ctx, registerReq("alice"))
	require.NoError(t, err)

	_, err = env.users.Register(ctx, registerReq("alice"))
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "username already exists", err.Error())

	req := registerReq("alice2")
	req.Email = "ALICE@example.com"
	_, err = env.users.Register(ctx, req)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "email already exists", err.Error())
}

// laggingUserRepo 前 n 次按用户名/邮箱查询时看不到已存在的用户，模拟并发注册
type laggingUserRepo struct {
	repository.UserRepository
	blind int
}

func (r *laggingUserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	if r.blind > 0 {
		r.blind--
		return nil, nil
	}
	return r.UserRepository.GetByUsername(ctx, username)
}

func (r *laggingUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if r.blind > 0 {
		r.blind--
		return nil, nil
	}
	return r.UserRepository.GetByEmail(ctx, email)
}

func TestRegister_ConcurrentDuplicateIsValidationError(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, err := env.users.Register(ctx, registerReq("alice"))
	require.NoError(t, err)

	repo := &laggingUserRepo{UserRepository: repository.NewUserRepository(env.db), blind: 2}
	users := NewUserService(repo, env.publisher, logger.NewNopLogger())

	_, err = users.Register(ctx, registerReq("alice"))
	assert.ErrorIs(t, err, ErrValidation)
	assert.NotErrorIs(t, err, ErrStorage)
	assert.Equal(t, "username already exists", err.Error())
}

func TestGetByID(t *testing.T) {
	env := newTestEnv(t)
	id := env.seedUser(t, "alice")

	user, err := env.users.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)

	_, err = env.users.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSearch(t *testing.T) {
	env := newTestEnv(t)
	alice := env.seedUser(t, "alice")
	env.seedUser(t, "bob")

	results, err := env.users.Search(context.Background(), "ALI")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, alice, results[0].ID)
	assert.Equal(t, "alice", results[0].FirstName)
	assert.Equal(t, "/api/v1/users/"+alice.String(), results[0].ProfileURL)

	results, err = env.users.Search(context.Background(), "zzz")
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/2am33m/kinect/internal/models"
	"github.com/2am33m/kinect/internal/repository"
	"github.com/2am33m/kinect/pkg/logger"
	"github.com/2am33m/kinect/pkg/queue"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const searchLimit = 50

type UserService struct {
	userRepo repository.UserRepository
	producer queue.Publisher
	logger   *logger.Logger
}

func NewUserService(userRepo repository.UserRepository, producer queue.Publisher, logger *logger.Logger) *UserService {
	return &UserService{
		userRepo: userRepo,
		producer: producer,
		logger:   logger,
	}
}

type RegisterRequest struct {
	Username  string `json:"username" binding:"required,min=3,max=30"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=6,max=50"`
	FirstName string `json:"first_name" binding:"max=64"`
	LastName  string `json:"last_name" binding:"max=64"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// SearchResult 搜索结果只暴露公开字段
type SearchResult struct {
	ID         uuid.UUID `json:"id"`
	FirstName  string    `json:"firstName"`
	LastName   string    `json:"lastName"`
	ProfileURL string    `json:"profileUrl"`
}

func (s *UserService) checkAvailable(ctx context.Context, req *RegisterRequest) error {
	// 检查用户名是否已存在
	existingUser, err := s.userRepo.GetByUsername(ctx, req.Username)
	if err != nil {
		return storageError(err)
	}
	if existingUser != nil {
		return newError(ErrValidation, "username already exists")
	}

	// 检查邮箱是否已存在
	existingUser, err = s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return storageError(err)
	}
	if existingUser != nil {
		return newError(ErrValidation, "email already exists")
	}
	return nil
}

func (s *UserService) Register(ctx context.Context, req *RegisterRequest) (*models.User, error) {
	if err := s.checkAvailable(ctx, req); err != nil {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:  req.Username,
		Email:     req.Email,
		Password:  string(hashedPassword),
		FirstName: req.FirstName,
		LastName:  req.LastName,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// 并发注册在检查之后抢先写入
			if err := s.checkAvailable(ctx, req); err != nil {
				return nil, err
			}
			return nil, newError(ErrValidation, "username or email already exists")
		}
		return nil, storageError(err)
	}

	event := queue.Event{
		Type:      queue.EventUserCreated,
		Timestamp: user.CreatedAt,
		Data: queue.UserEventData{
			UserID:   user.ID.String(),
			Username: user.Username,
		},
	}
	if err := s.producer.Publish(ctx, user.ID.String(), event); err != nil {
		s.logger.WithError(err).Error("Failed to publish user created event")
	}

	s.logger.WithField("user_id", user.ID).Info("User registered successfully")
	return user, nil
}

func (s *UserService) Login(ctx context.Context, req *LoginRequest) (*models.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, storageError(err)
	}
	if user == nil {
		return nil, newError(ErrUnauthenticated, "invalid email or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, newError(ErrUnauthenticated, "invalid email or password")
	}

	s.logger.WithField("user_id", user.ID).Info("User logged in successfully")
	return user, nil
}

func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, storageError(err)
	}
	if user == nil {
		return nil, newError(ErrNotFound, "user not found")
	}
	return user, nil
}

// Search 按用户名、姓名、邮箱做子串匹配，最多返回 50 条
func (s *UserService) Search(ctx context.Context, query string) ([]*SearchResult, error) {
	users, err := s.userRepo.Search(ctx, query, searchLimit)
	if err != nil {
		return nil, storageError(err)
	}

	results := make([]*SearchResult, 0, len(users))
	for _, u := range users {
		results = append(results, &SearchResult{
			ID:         u.ID,
			FirstName:  u.FirstName,
			LastName:   u.LastName,
			ProfileURL: "/api/v1/users/" + u.ID.String(),
		})
	}
	return results, nil
}

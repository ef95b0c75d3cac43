package services

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"
	"unicode"

	"github.com/2am33m/kinect/internal/models"
	"github.com/2am33m/kinect/internal/repository"
	"github.com/2am33m/kinect/pkg/logger"
	"github.com/2am33m/kinect/pkg/queue"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type PhotoService struct {
	photoRepo repository.PhotoRepository
	userRepo  repository.UserRepository
	producer  queue.Publisher
	validate  *validator.Validate
	logger    *logger.Logger
	now       func() time.Time
}

func NewPhotoService(photoRepo repository.PhotoRepository, userRepo repository.UserRepository, producer queue.Publisher, logger *logger.Logger) *PhotoService {
	return &PhotoService{
		photoRepo: photoRepo,
		userRepo:  userRepo,
		producer:  producer,
		validate:  newValidator(),
		logger:    logger,
		now:       time.Now,
	}
}

// WithClock 替换创建时间来源
func (s *PhotoService) WithClock(now func() time.Time) *PhotoService {
	s.now = now
	return s
}

type CreatePhotoRequest struct {
	ImageRef string `json:"image_ref" validate:"required,max=2048,printable"`
	Caption  string `json:"caption" validate:"max=2200"`
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	})
	_ = v.RegisterValidation("printable", func(fl validator.FieldLevel) bool {
		return strings.IndexFunc(fl.Field().String(), func(r rune) bool {
			return !unicode.IsPrint(r)
		}) < 0
	})
	return v
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid input"
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "printable":
		return fmt.Sprintf("%s is unreadable", fe.Field())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}

func (s *PhotoService) CreatePhoto(ctx context.Context, ownerID uuid.UUID, req *CreatePhotoRequest) (*models.Photo, error) {
	req.ImageRef = strings.TrimSpace(req.ImageRef)
	if err := s.validate.Struct(req); err != nil {
		return nil, newError(ErrValidation, validationMessage(err))
	}

	if err := requireUser(ctx, s.userRepo, ownerID); err != nil {
		return nil, err
	}

	photo := &models.Photo{
		OwnerID:   ownerID,
		ImageRef:  req.ImageRef,
		Caption:   req.Caption,
		CreatedAt: s.now(),
	}
	if err := s.photoRepo.Create(ctx, photo); err != nil {
		return nil, storageError(err)
	}

	event := queue.Event{
		Type:      queue.EventPhotoCreated,
		Timestamp: photo.CreatedAt,
		Data: queue.PhotoEventData{
			PhotoID:   photo.ID.String(),
			OwnerID:   ownerID.String(),
			CreatedAt: photo.CreatedAt.Format(time.RFC3339Nano),
		},
	}
	if err := s.producer.Publish(ctx, ownerID.String(), event); err != nil {
		s.logger.WithError(err).Error("Failed to publish photo created event")
	}

	s.logger.WithFields(map[string]interface{}{
		"photo_id": photo.ID,
		"user_id":  ownerID,
	}).Info("Photo created successfully")

	return photo, nil
}

func (s *PhotoService) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.Photo, error) {
	photos, err := s.photoRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, storageError(err)
	}
	return photos, nil
}

func (s *PhotoService) ListByOwners(ctx context.Context, ownerIDs []uuid.UUID) ([]*models.Photo, error) {
	photos, err := s.photoRepo.ListByOwners(ctx, ownerIDs)
	if err != nil {
		return nil, storageError(err)
	}
	return photos, nil
}

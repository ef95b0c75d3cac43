package repository

import (
	"context"
	"fmt"

	"github.com/2am33m/kinect/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PhotoRepository interface {
	Create(ctx context.Context, photo *models.Photo) error
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.Photo, error)
	ListByOwners(ctx context.Context, ownerIDs []uuid.UUID) ([]*models.Photo, error)
}

type photoRepository struct {
	db *gorm.DB
}

func NewPhotoRepository(db *gorm.DB) PhotoRepository {
	return &photoRepository{db: db}
}

func (r *photoRepository) Create(ctx context.Context, photo *models.Photo) error {
	if err := r.db.WithContext(ctx).Create(photo).Error; err != nil {
		return fmt.Errorf("failed to create photo: %w", err)
	}
	return nil
}

func (r *photoRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.Photo, error) {
	var photos []*models.Photo
	if err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&photos).Error; err != nil {
		return nil, fmt.Errorf("failed to list photos by owner: %w", err)
	}
	return photos, nil
}

func (r *photoRepository) ListByOwners(ctx context.Context, ownerIDs []uuid.UUID) ([]*models.Photo, error) {
	if len(ownerIDs) == 0 {
		return []*models.Photo{}, nil
	}

	var photos []*models.Photo
	if err := r.db.WithContext(ctx).
		Where("owner_id IN ?", ownerIDs).
		Order("created_at DESC").
		Find(&photos).Error; err != nil {
		return nil, fmt.Errorf("failed to list photos by owners: %w", err)
	}
	return photos, nil
}

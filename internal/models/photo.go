package models

import (
	"bytes"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Photo 创建后不可修改
type Photo struct {
	ID        uuid.UUID `json:"id" gorm:"type:varchar(36);primaryKey"`
	OwnerID   uuid.UUID `json:"owner_id" gorm:"type:varchar(36);not null;index:idx_photo_owner_created,priority:1"`
	ImageRef  string    `json:"image_ref" gorm:"type:varchar(2048);not null"`
	Caption   string    `json:"caption" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at" gorm:"index:idx_photo_owner_created,priority:2"`

	Owner User `json:"-" gorm:"foreignKey:OwnerID"`
}

func (p *Photo) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		// v7 按时间有序，id 倒序与创建顺序一致
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		p.ID = id
	}
	return nil
}

// Newer 按 created_at 倒序，相同时间按 id 倒序
func (p *Photo) Newer(other *Photo) bool {
	if !p.CreatedAt.Equal(other.CreatedAt) {
		return p.CreatedAt.After(other.CreatedAt)
	}
	return bytes.Compare(p.ID[:], other.ID[:]) > 0
}

func (Photo) TableName() string {
	return "photos"
}

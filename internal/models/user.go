package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID        uuid.UUID `json:"id" gorm:"type:varchar(36);primaryKey"`
	Username  string    `json:"username" gorm:"type:varchar(64);uniqueIndex;not null"`
	Email     string    `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	Password  string    `json:"-" gorm:"not null"`
	FirstName string    `json:"first_name" gorm:"type:varchar(64)"`
	LastName  string    `json:"last_name" gorm:"type:varchar(64)"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FollowEdge follower 关注 followee，(follower_id, followee_id) 唯一
type FollowEdge struct {
	ID         uuid.UUID `json:"id" gorm:"type:varchar(36);primaryKey"`
	FollowerID uuid.UUID `json:"follower_id" gorm:"type:varchar(36);not null;uniqueIndex:idx_follow_pair,priority:1"`
	FolloweeID uuid.UUID `json:"followee_id" gorm:"type:varchar(36);not null;index:idx_follow_followee;uniqueIndex:idx_follow_pair,priority:2;check:chk_follow_not_self,follower_id <> followee_id"`
	CreatedAt  time.Time `json:"created_at"`

	Follower User `json:"-" gorm:"foreignKey:FollowerID"`
	Followee User `json:"-" gorm:"foreignKey:FolloweeID"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

func (f *FollowEdge) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}

func (User) TableName() string {
	return "users"
}

func (FollowEdge) TableName() string {
	return "follow_edges"
}

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID              uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Name            string    `json:"name" gorm:"size:100;not null"`
	Username        string    `json:"username" gorm:"size:50;uniqueIndex;not null"`
	Email           string    `json:"email" gorm:"size:255;uniqueIndex;not null"`
	Password        string    `json:"-" gorm:"not null"`
	Bio             string    `json:"bio" gorm:"size:500"`
	ProfileImageURL string    `json:"profile_image_url"`
	BannerImageURL  string    `json:"banner_image_url"`
	FollowersCount  int64     `json:"followers_count" gorm:"not null"`
	FollowingCount  int64     `json:"following_count" gorm:"not null"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Follow 关注关系，一行同时表示 follower 的 following 和 following 的 followers
type Follow struct {
	FollowerID  uuid.UUID `json:"follower_id" gorm:"type:uuid;primaryKey"`
	FollowingID uuid.UUID `json:"following_id" gorm:"type:uuid;primaryKey;index"`
	CreatedAt   time.Time `json:"created_at"`
}

// Bookmark 收藏，created_at 记录收藏顺序
type Bookmark struct {
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;primaryKey"`
	PostID    uuid.UUID `json:"post_id" gorm:"type:uuid;primaryKey;index"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

func (User) TableName() string {
	return "users"
}

func (Follow) TableName() string {
	return "follows"
}

func (Bookmark) TableName() string {
	return "bookmarks"
}

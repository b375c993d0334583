package repository

import (
	"context"
	"fmt"

	"github.com/Soumabha100/X-clone-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BookmarkRepository struct {
	db *gorm.DB
}

func NewBookmarkRepository(db *gorm.DB) *BookmarkRepository {
	return &BookmarkRepository{db: db}
}

func (r *BookmarkRepository) Add(ctx context.Context, userID, postID uuid.UUID) (bool, error) {
	result := conn(ctx, r.db).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.Bookmark{UserID: userID, PostID: postID})
	if result.Error != nil {
		return false, fmt.Errorf("failed to create bookmark: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *BookmarkRepository) Remove(ctx context.Context, userID, postID uuid.UUID) (bool, error) {
	result := conn(ctx, r.db).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Delete(&models.Bookmark{})
	if result.Error != nil {
		return false, fmt.Errorf("failed to delete bookmark: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// PostIDs 按收藏顺序返回
func (r *BookmarkRepository) PostIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := conn(ctx, r.db).
		Model(&models.Bookmark{}).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Order("post_id ASC").
		Pluck("post_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to get bookmarks: %w", err)
	}
	return ids, nil
}

// RecentPosts 最近收藏在前，已删除的帖子被过滤
func (r *BookmarkRepository) RecentPosts(ctx context.Context, userID uuid.UUID) ([]*models.Post, error) {
	var posts []*models.Post
	if err := conn(ctx, r.db).
		Table("posts").
		Select("posts.*").
		Joins("JOIN bookmarks ON bookmarks.post_id = posts.id").
		Where("bookmarks.user_id = ?", userID).
		Order("bookmarks.created_at DESC").
		Order("bookmarks.post_id DESC").
		Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("failed to get bookmarked posts: %w", err)
	}
	return posts, nil
}

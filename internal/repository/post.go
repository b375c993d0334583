package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Soumabha100/X-clone-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PostRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) *PostRepository {
	return &PostRepository{db: db}
}

func (r *PostRepository) Create(ctx context.Context, post *models.Post) error {
	if err := conn(ctx, r.db).Create(post).Error; err != nil {
		return fmt.Errorf("failed to create post: %w", err)
	}
	return nil
}

func (r *PostRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	var post models.Post
	if err := conn(ctx, r.db).First(&post, "id = ?", id).Error; err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get post by ID: %w", err)
	}
	return &post, nil
}

// UpdateDescription 编辑内容，标记 is_edited 并刷新 updated_at
func (r *PostRepository) UpdateDescription(ctx context.Context, id uuid.UUID, description string) (bool, error) {
	db := conn(ctx, r.db)
	result := db.Model(&models.Post{}).
		Where("id = ?", id).
		UpdateColumns(map[string]interface{}{
			"description": description,
			"is_edited":   true,
			"updated_at":  db.NowFunc(),
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to update post: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// Touch 刷新 updated_at，返回 false 表示帖子不存在
func (r *PostRepository) Touch(ctx context.Context, id uuid.UUID) (bool, error) {
	db := conn(ctx, r.db)
	result := db.Model(&models.Post{}).
		Where("id = ?", id).
		UpdateColumn("updated_at", db.NowFunc())
	if result.Error != nil {
		return false, fmt.Errorf("failed to touch post: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *PostRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.Post, error) {
	var posts []*models.Post
	if len(ids) == 0 {
		return posts, nil
	}
	if err := conn(ctx, r.db).Where("id IN ?", ids).Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("failed to get posts by IDs: %w", err)
	}
	return posts, nil
}

// PersonalFeed 关注的人发布的帖子，加上自己或关注的人转发的帖子，按最近活跃排序。
// 自己发布且无人转发的帖子不在其中。
func (r *PostRepository) PersonalFeed(ctx context.Context, viewerID uuid.UUID) ([]*models.Post, error) {
	var posts []*models.Post
	if err := conn(ctx, r.db).
		Where(`posts.user_id IN (SELECT following_id FROM follows WHERE follower_id = @viewer)
			OR posts.id IN (
				SELECT post_id FROM post_retweets
				WHERE user_id = @viewer
				   OR user_id IN (SELECT following_id FROM follows WHERE follower_id = @viewer)
			)`, sql.Named("viewer", viewerID)).
		Order("posts.updated_at DESC").
		Order("posts.id DESC").
		Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("failed to get personal feed: %w", err)
	}
	return posts, nil
}

// FollowingFeed 只包含关注的人发布的帖子，按发布时间排序
func (r *PostRepository) FollowingFeed(ctx context.Context, viewerID uuid.UUID) ([]*models.Post, error) {
	var posts []*models.Post
	if err := conn(ctx, r.db).
		Where("posts.user_id IN (SELECT following_id FROM follows WHERE follower_id = ?)", viewerID).
		Order("posts.created_at DESC").
		Order("posts.id DESC").
		Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("failed to get following feed: %w", err)
	}
	return posts, nil
}

func (r *PostRepository) GetByUserID(ctx context.Context, userID uuid.UUID) ([]*models.Post, error) {
	var posts []*models.Post
	if err := conn(ctx, r.db).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("failed to get posts by user ID: %w", err)
	}
	return posts, nil
}

func (r *PostRepository) List(ctx context.Context) ([]*models.Post, error) {
	var posts []*models.Post
	if err := conn(ctx, r.db).
		Order("updated_at DESC").
		Order("id DESC").
		Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	return posts, nil
}

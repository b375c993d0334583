package repository

import (
	"context"
	"fmt"

	"github.com/Soumabha100/X-clone-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CommentRepository struct {
	db *gorm.DB
}

func NewCommentRepository(db *gorm.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

func (r *CommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	if err := conn(ctx, r.db).Create(comment).Error; err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}
	return nil
}

// ListByPosts 每个帖子的评论按追加顺序排列
func (r *CommentRepository) ListByPosts(ctx context.Context, postIDs []uuid.UUID) (map[uuid.UUID][]*models.Comment, error) {
	comments := make(map[uuid.UUID][]*models.Comment)
	if len(postIDs) == 0 {
		return comments, nil
	}

	var rows []*models.Comment
	if err := conn(ctx, r.db).
		Where("post_id IN ?", postIDs).
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to get comments: %w", err)
	}
	for _, c := range rows {
		comments[c.PostID] = append(comments[c.PostID], c)
	}
	return comments, nil
}


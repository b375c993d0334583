package repository

import (
	"context"
	"fmt"

	"github.com/Soumabha100/X-clone-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EngagementRepository 点赞和转发集合
type EngagementRepository struct {
	db *gorm.DB
}

func NewEngagementRepository(db *gorm.DB) *EngagementRepository {
	return &EngagementRepository{db: db}
}

func (r *EngagementRepository) AddLike(ctx context.Context, userID, postID uuid.UUID) (bool, error) {
	return r.insert(ctx, &models.Like{UserID: userID, PostID: postID}, "like")
}

func (r *EngagementRepository) RemoveLike(ctx context.Context, userID, postID uuid.UUID) (bool, error) {
	return r.remove(ctx, &models.Like{}, userID, postID, "like")
}

func (r *EngagementRepository) AddRetweet(ctx context.Context, userID, postID uuid.UUID) (bool, error) {
	return r.insert(ctx, &models.Retweet{UserID: userID, PostID: postID}, "retweet")
}

func (r *EngagementRepository) RemoveRetweet(ctx context.Context, userID, postID uuid.UUID) (bool, error) {
	return r.remove(ctx, &models.Retweet{}, userID, postID, "retweet")
}

// LikersByPosts 按点赞顺序返回每个帖子的点赞用户
func (r *EngagementRepository) LikersByPosts(ctx context.Context, postIDs []uuid.UUID) (map[uuid.UUID][]uuid.UUID, error) {
	var rows []models.Like
	if err := r.membersByPosts(ctx, &models.Like{}, postIDs, &rows); err != nil {
		return nil, fmt.Errorf("failed to get likes: %w", err)
	}
	members := make(map[uuid.UUID][]uuid.UUID)
	for _, row := range rows {
		members[row.PostID] = append(members[row.PostID], row.UserID)
	}
	return members, nil
}

func (r *EngagementRepository) RetweetersByPosts(ctx context.Context, postIDs []uuid.UUID) (map[uuid.UUID][]uuid.UUID, error) {
	var rows []models.Retweet
	if err := r.membersByPosts(ctx, &models.Retweet{}, postIDs, &rows); err != nil {
		return nil, fmt.Errorf("failed to get retweets: %w", err)
	}
	members := make(map[uuid.UUID][]uuid.UUID)
	for _, row := range rows {
		members[row.PostID] = append(members[row.PostID], row.UserID)
	}
	return members, nil
}

func (r *EngagementRepository) insert(ctx context.Context, row interface{}, kind string) (bool, error) {
	result := conn(ctx, r.db).Clauses(clause.OnConflict{DoNothing: true}).Create(row)
	if result.Error != nil {
		return false, fmt.Errorf("failed to create %s: %w", kind, result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *EngagementRepository) remove(ctx context.Context, model interface{}, userID, postID uuid.UUID, kind string) (bool, error) {
	result := conn(ctx, r.db).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Delete(model)
	if result.Error != nil {
		return false, fmt.Errorf("failed to delete %s: %w", kind, result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *EngagementRepository) membersByPosts(ctx context.Context, model interface{}, postIDs []uuid.UUID, dest interface{}) error {
	if len(postIDs) == 0 {
		return nil
	}
	return conn(ctx, r.db).
		Model(model).
		Where("post_id IN ?", postIDs).
		Order("created_at ASC").
		Find(dest).Error
}

package repository

import (
	"context"
	"fmt"

	"github.com/Soumabha100/X-clone-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CascadeRepository 删除帖子或账号时清理所有引用，所有步骤在同一事务中执行且可重复执行
type CascadeRepository struct {
	db *Database
}

func NewCascadeRepository(db *Database) *CascadeRepository {
	return &CascadeRepository{db: db}
}

// PurgeResult 各类记录的删除数量
type PurgeResult struct {
	Posts         int64       `json:"posts"`
	Notifications int64       `json:"notifications"`
	Follows       int64       `json:"follows"`
	Likes         int64       `json:"likes"`
	Retweets      int64       `json:"retweets"`
	Bookmarks     int64       `json:"bookmarks"`
	UserDeleted   bool        `json:"user_deleted"`
	Recounted     []uuid.UUID `json:"-"`
}

func (p *PurgeResult) Total() int64 {
	total := p.Posts + p.Notifications + p.Follows + p.Likes + p.Retweets + p.Bookmarks
	if p.UserDeleted {
		total++
	}
	return total
}

// PurgePost 删除帖子及其点赞、转发、评论、收藏和通知
func (r *CascadeRepository) PurgePost(ctx context.Context, postID uuid.UUID) (bool, error) {
	var deleted bool
	err := r.db.WithinTransaction(ctx, func(ctx context.Context) error {
		db := conn(ctx, r.db.DB)
		if _, err := purgePostDependents(db, []uuid.UUID{postID}); err != nil {
			return err
		}
		result := db.Where("id = ?", postID).Delete(&models.Post{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete post: %w", result.Error)
		}
		deleted = result.RowsAffected > 0
		return nil
	})
	return deleted, err
}

// PurgeAccount 删除用户及其帖子、通知、关注关系、点赞、转发和收藏。
// 用户在他人帖子下的评论保留，作者信息读取时为空。
func (r *CascadeRepository) PurgeAccount(ctx context.Context, userID uuid.UUID) (*PurgeResult, error) {
	res := &PurgeResult{}
	err := r.db.WithinTransaction(ctx, func(ctx context.Context) error {
		db := conn(ctx, r.db.DB)

		// 排他锁，等待持有共享锁的点赞、评论等写入提交
		var locked []uuid.UUID
		if err := db.Model(&models.User{}).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", userID).
			Pluck("id", &locked).Error; err != nil {
			return fmt.Errorf("failed to lock user: %w", err)
		}

		// 1. 帖子
		var postIDs []uuid.UUID
		if err := db.Model(&models.Post{}).Where("user_id = ?", userID).Pluck("id", &postIDs).Error; err != nil {
			return fmt.Errorf("failed to list posts: %w", err)
		}
		if len(postIDs) > 0 {
			if _, err := purgePostDependents(db, postIDs); err != nil {
				return err
			}
			result := db.Where("id IN ?", postIDs).Delete(&models.Post{})
			if result.Error != nil {
				return fmt.Errorf("failed to delete posts: %w", result.Error)
			}
			res.Posts = result.RowsAffected
		}

		// 2. 通知
		result := db.Where("from_user_id = ? OR to_user_id = ?", userID, userID).Delete(&models.Notification{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete notifications: %w", result.Error)
		}
		res.Notifications = result.RowsAffected

		// 3. 关注关系，两端计数重新统计
		var following, followers []uuid.UUID
		if err := db.Model(&models.Follow{}).Where("follower_id = ?", userID).Pluck("following_id", &following).Error; err != nil {
			return fmt.Errorf("failed to list following: %w", err)
		}
		if err := db.Model(&models.Follow{}).Where("following_id = ?", userID).Pluck("follower_id", &followers).Error; err != nil {
			return fmt.Errorf("failed to list followers: %w", err)
		}
		counterparts := append(following, followers...)
		result = db.Where("follower_id = ? OR following_id = ?", userID, userID).Delete(&models.Follow{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete follows: %w", result.Error)
		}
		res.Follows = result.RowsAffected
		if len(counterparts) > 0 {
			if _, err := recountFollows(db, counterparts); err != nil {
				return err
			}
			res.Recounted = counterparts
		}

		// 4. 点赞和转发
		result = db.Where("user_id = ?", userID).Delete(&models.Like{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete likes: %w", result.Error)
		}
		res.Likes = result.RowsAffected

		result = db.Where("user_id = ?", userID).Delete(&models.Retweet{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete retweets: %w", result.Error)
		}
		res.Retweets = result.RowsAffected

		result = db.Where("user_id = ?", userID).Delete(&models.Bookmark{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete bookmarks: %w", result.Error)
		}
		res.Bookmarks = result.RowsAffected

		result = db.Where("id = ?", userID).Delete(&models.User{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete user: %w", result.Error)
		}
		res.UserDeleted = result.RowsAffected > 0
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// RecountFollows 按 follows 表重新计算计数，ids 为空时检查所有用户。返回修正的用户数。
func (r *CascadeRepository) RecountFollows(ctx context.Context, ids ...uuid.UUID) (int64, error) {
	return recountFollows(conn(ctx, r.db.DB), ids)
}

// SweepDangling 删除引用了不存在的用户或帖子的记录
func (r *CascadeRepository) SweepDangling(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithinTransaction(ctx, func(ctx context.Context) error {
		db := conn(ctx, r.db.DB)
		sweeps := []struct {
			model interface{}
			where string
		}{
			{&models.Post{}, "user_id NOT IN (SELECT id FROM users)"},
			{&models.Follow{}, "follower_id NOT IN (SELECT id FROM users) OR following_id NOT IN (SELECT id FROM users)"},
			{&models.Like{}, "user_id NOT IN (SELECT id FROM users) OR post_id NOT IN (SELECT id FROM posts)"},
			{&models.Retweet{}, "user_id NOT IN (SELECT id FROM users) OR post_id NOT IN (SELECT id FROM posts)"},
			{&models.Bookmark{}, "user_id NOT IN (SELECT id FROM users) OR post_id NOT IN (SELECT id FROM posts)"},
			{&models.Comment{}, "post_id NOT IN (SELECT id FROM posts)"},
			{&models.Notification{}, "from_user_id NOT IN (SELECT id FROM users) OR to_user_id NOT IN (SELECT id FROM users) OR (post_id IS NOT NULL AND post_id NOT IN (SELECT id FROM posts))"},
		}
		for _, s := range sweeps {
			result := db.Where(s.where).Delete(s.model)
			if result.Error != nil {
				return fmt.Errorf("failed to sweep dangling references: %w", result.Error)
			}
			total += result.RowsAffected
		}
		if total > 0 {
			if _, err := r.RecountFollows(ctx); err != nil {
				return err
			}
		}
		return nil
	})
	return total, err
}

func purgePostDependents(db *gorm.DB, postIDs []uuid.UUID) (int64, error) {
	var total int64
	for _, model := range []interface{}{
		&models.Like{},
		&models.Retweet{},
		&models.Comment{},
		&models.Bookmark{},
		&models.Notification{},
	} {
		result := db.Where("post_id IN ?", postIDs).Delete(model)
		if result.Error != nil {
			return 0, fmt.Errorf("failed to delete post dependents: %w", result.Error)
		}
		total += result.RowsAffected
	}
	return total, nil
}

// recountFollows 只更新计数与关注表不一致的用户
func recountFollows(db *gorm.DB, ids []uuid.UUID) (int64, error) {
	query := db.Model(&models.User{}).Where(`(followers_count <> (SELECT COUNT(*) FROM follows WHERE follows.following_id = users.id)
		OR following_count <> (SELECT COUNT(*) FROM follows WHERE follows.follower_id = users.id))`)
	if len(ids) > 0 {
		query = query.Where("id IN ?", ids)
	}
	result := query.UpdateColumns(followCountColumns())
	if result.Error != nil {
		return 0, fmt.Errorf("failed to recount follows: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func followCountColumns() map[string]interface{} {
	return map[string]interface{}{
		"followers_count": gorm.Expr("(SELECT COUNT(*) FROM follows WHERE follows.following_id = users.id)"),
		"following_count": gorm.Expr("(SELECT COUNT(*) FROM follows WHERE follows.follower_id = users.id)"),
	}
}

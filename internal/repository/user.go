package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/Soumabha100/X-clone-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if err := conn(ctx, r.db).Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := conn(ctx, r.db).First(&user, "id = ?", id).Error; err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}
	return &user, nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := conn(ctx, r.db).First(&user, "username = ?", username).Error; err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}
	return &user, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := conn(ctx, r.db).First(&user, "email = ?", strings.ToLower(email)).Error; err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return &user, nil
}

// GetByLogin 按邮箱或用户名查找
func (r *UserRepository) GetByLogin(ctx context.Context, identifier string) (*models.User, error) {
	var user models.User
	if err := conn(ctx, r.db).
		Where("email = ? OR username = ?", strings.ToLower(identifier), identifier).
		First(&user).Error; err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by login: %w", err)
	}
	return &user, nil
}

func (r *UserRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.User, error) {
	var users []*models.User
	if len(ids) == 0 {
		return users, nil
	}
	if err := conn(ctx, r.db).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to get users by IDs: %w", err)
	}
	return users, nil
}

func (r *UserRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	if err := conn(ctx, r.db).Model(&models.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}
	return count > 0, nil
}

// LockShared 事务中对用户行加共享锁并返回是否存在。
// 与 CascadeRepository.PurgeAccount 的排他锁互斥。
func (r *UserRepository) LockShared(ctx context.Context, id uuid.UUID) (bool, error) {
	var found []uuid.UUID
	if err := conn(ctx, r.db).Model(&models.User{}).
		Clauses(clause.Locking{Strength: "SHARE"}).
		Where("id = ?", id).
		Limit(1).
		Pluck("id", &found).Error; err != nil {
		return false, fmt.Errorf("failed to lock user: %w", err)
	}
	return len(found) > 0, nil
}

// ListExcept 推荐关注列表，排除当前用户
func (r *UserRepository) ListExcept(ctx context.Context, exclude uuid.UUID, limit int) ([]*models.User, error) {
	var users []*models.User
	if err := conn(ctx, r.db).
		Where("id <> ?", exclude).
		Order("created_at DESC").
		Limit(limit).
		Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// UpdateProfile 只更新给定列并刷新 updated_at
func (r *UserRepository) UpdateProfile(ctx context.Context, id uuid.UUID, fields map[string]interface{}) (bool, error) {
	db := conn(ctx, r.db)
	updates := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		updates[k] = v
	}
	updates["updated_at"] = db.NowFunc()

	result := db.Model(&models.User{}).Where("id = ?", id).UpdateColumns(updates)
	if result.Error != nil {
		return false, fmt.Errorf("failed to update user profile: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *UserRepository) Touch(ctx context.Context, id uuid.UUID) error {
	db := conn(ctx, r.db)
	if err := db.Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("updated_at", db.NowFunc()).Error; err != nil {
		return fmt.Errorf("failed to touch user: %w", err)
	}
	return nil
}

// AdjustFollowCounts follower 的 following_count 和 following 的 followers_count 同时加 delta
func (r *UserRepository) AdjustFollowCounts(ctx context.Context, followerID, followingID uuid.UUID, delta int64) error {
	db := conn(ctx, r.db)
	now := db.NowFunc()
	if err := db.Model(&models.User{}).
		Where("id = ?", followerID).
		UpdateColumns(map[string]interface{}{
			"following_count": gorm.Expr("following_count + ?", delta),
			"updated_at":      now,
		}).Error; err != nil {
		return fmt.Errorf("failed to update following count: %w", err)
	}
	if err := db.Model(&models.User{}).
		Where("id = ?", followingID).
		UpdateColumns(map[string]interface{}{
			"followers_count": gorm.Expr("followers_count + ?", delta),
			"updated_at":      now,
		}).Error; err != nil {
		return fmt.Errorf("failed to update followers count: %w", err)
	}
	return nil
}

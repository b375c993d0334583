package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const cascadeStatusPrefix = "cascade_status:"

const (
	CascadeStarted   = "cascade_started"
	CascadeCompleted = "cascade_completed"
)

// CascadeStatus 账号删除进度
type CascadeStatus struct {
	UserID    string `json:"user_id"`
	Status    string `json:"status"`
	Timestamp int64  `json:"timestamp"`
}

// CascadeStatusStore 记录进行中的账号删除，供恢复任务扫描
type CascadeStatusStore struct {
	cache *RedisClient
}

func NewCascadeStatusStore(cache *RedisClient) *CascadeStatusStore {
	return &CascadeStatusStore{cache: cache}
}

func CascadeStatusKey(userID uuid.UUID) string {
	return cascadeStatusPrefix + userID.String()
}

func (s *CascadeStatusStore) Mark(ctx context.Context, userID uuid.UUID, status string, at time.Time) error {
	// 已完成的保留较短时间用于监控
	ttl := 24 * time.Hour
	if status == CascadeCompleted {
		ttl = time.Hour
	}
	record := CascadeStatus{UserID: userID.String(), Status: status, Timestamp: at.Unix()}
	if err := s.cache.SetJSON(ctx, CascadeStatusKey(userID), record, ttl); err != nil {
		return fmt.Errorf("failed to set cascade status: %w", err)
	}
	return nil
}

func (s *CascadeStatusStore) Get(ctx context.Context, userID uuid.UUID) (*CascadeStatus, error) {
	var status CascadeStatus
	if err := s.cache.GetJSON(ctx, CascadeStatusKey(userID), &status); err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get cascade status: %w", err)
	}
	return &status, nil
}

func (s *CascadeStatusStore) Clear(ctx context.Context, userID uuid.UUID) error {
	return s.cache.Delete(ctx, CascadeStatusKey(userID))
}

// List 扫描所有删除记录
func (s *CascadeStatusStore) List(ctx context.Context) ([]*CascadeStatus, error) {
	keys, err := s.cache.ScanKeys(ctx, cascadeStatusPrefix+"*", 100)
	if err != nil {
		return nil, err
	}

	statuses := make([]*CascadeStatus, 0, len(keys))
	for _, key := range keys {
		id, err := uuid.Parse(strings.TrimPrefix(key, cascadeStatusPrefix))
		if err != nil {
			continue
		}
		status, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if status != nil {
			statuses = append(statuses, status)
		}
	}
	return statuses, nil
}

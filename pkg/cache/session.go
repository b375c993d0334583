package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

const revokedKeyPrefix = "auth:revoked:"

// SessionStore 记录用户令牌的吊销时间，早于该时间签发的令牌全部失效
type SessionStore struct {
	cache *RedisClient
	ttl   time.Duration
}

// NewSessionStore ttl 应不短于令牌有效期
func NewSessionStore(cache *RedisClient, ttl time.Duration) *SessionStore {
	return &SessionStore{cache: cache, ttl: ttl}
}

func (s *SessionStore) Revoke(ctx context.Context, userID uuid.UUID, at time.Time) error {
	if err := s.cache.Set(ctx, revokedKeyPrefix+userID.String(), at.Unix(), s.ttl); err != nil {
		return fmt.Errorf("failed to revoke sessions: %w", err)
	}
	return nil
}

// RevokedAt 返回吊销时间，未吊销时 ok 为 false
func (s *SessionStore) RevokedAt(ctx context.Context, userID uuid.UUID) (time.Time, bool, error) {
	val, err := s.cache.Get(ctx, revokedKeyPrefix+userID.String())
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, fmt.Errorf("failed to get revocation: %w", err)
	}
	unix, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("invalid revocation value: %w", err)
	}
	return time.Unix(unix, 0), true, nil
}

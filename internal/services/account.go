package services

import (
	"context"
	"time"

	"github.com/Soumabha100/X-clone-backend/internal/apperr"
	"github.com/Soumabha100/X-clone-backend/internal/metrics"
	"github.com/Soumabha100/X-clone-backend/internal/repository"
	"github.com/Soumabha100/X-clone-backend/pkg/cache"
	"github.com/Soumabha100/X-clone-backend/pkg/logger"
	"github.com/Soumabha100/X-clone-backend/pkg/queue"
)

// AccountService 账号删除。数据清理在一个事务中完成，
// Redis 中的进度记录供恢复任务在吊销会话失败时重试。
type AccountService struct {
	userRepo    *repository.UserRepository
	cascadeRepo *repository.CascadeRepository
	sessions    *cache.SessionStore
	statuses    *cache.CascadeStatusStore
	producer    EventPublisher
	logger      *logger.Logger
	timeout     time.Duration
}

func NewAccountService(
	userRepo *repository.UserRepository,
	cascadeRepo *repository.CascadeRepository,
	sessions *cache.SessionStore,
	statuses *cache.CascadeStatusStore,
	producer EventPublisher,
	logger *logger.Logger,
	timeout time.Duration,
) *AccountService {
	return &AccountService{
		userRepo:    userRepo,
		cascadeRepo: cascadeRepo,
		sessions:    sessions,
		statuses:    statuses,
		producer:    producer,
		logger:      logger,
		timeout:     timeout,
	}
}

// DeleteAccount 只能删除自己的账号
func (s *AccountService) DeleteAccount(ctx context.Context, actorID, targetID string) (*repository.PurgeResult, error) {
	actor, err := parseUserID(actorID)
	if err != nil {
		return nil, err
	}
	target, err := parseUserID(targetID)
	if err != nil {
		return nil, err
	}
	if actor != target {
		return nil, apperr.Forbidden("you can only delete your own account")
	}

	opCtx, cancel := operationContext(ctx, s.timeout)
	defer cancel()

	exists, err := s.userRepo.Exists(opCtx, target)
	if err != nil {
		return nil, classify(err, "failed to get user")
	}
	if !exists {
		return nil, apperr.ErrUserNotFound
	}

	if err := s.statuses.Mark(opCtx, target, cache.CascadeStarted, time.Now()); err != nil {
		metrics.CascadeDeletions.WithLabelValues("failed").Inc()
		return nil, classify(err, "failed to start account deletion")
	}

	result, err := s.cascadeRepo.PurgeAccount(opCtx, target)
	if err != nil {
		metrics.CascadeDeletions.WithLabelValues("failed").Inc()
		// 事务已回滚，账号仍然存在
		if clearErr := s.statuses.Clear(context.Background(), target); clearErr != nil {
			s.logger.WithError(clearErr).WithField("user_id", target).Error("Failed to clear cascade status")
		}
		return nil, classify(err, "failed to delete account")
	}

	// 会话吊销失败时保留 started 状态，由恢复任务重试
	if err := s.sessions.Revoke(opCtx, target, time.Now()); err != nil {
		s.logger.WithError(err).WithField("user_id", target).Error("Failed to revoke sessions, leaving cascade for recovery")
	} else if err := s.statuses.Mark(opCtx, target, cache.CascadeCompleted, time.Now()); err != nil {
		s.logger.WithError(err).WithField("user_id", target).Error("Failed to mark cascade completed")
	}

	metrics.CascadeDeletions.WithLabelValues("completed").Inc()
	publishEvent(ctx, s.producer, s.logger, queue.EventAccountDeleted, target.String(), queue.AccountDeletedEventData{
		UserID: target.String(),
	})

	s.logger.WithFields(map[string]interface{}{
		"user_id":       target,
		"posts":         result.Posts,
		"notifications": result.Notifications,
		"follows":       result.Follows,
	}).Info("Account deleted successfully")
	return result, nil
}

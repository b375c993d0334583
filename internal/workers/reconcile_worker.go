package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/Soumabha100/X-clone-backend/internal/repository"
	"github.com/Soumabha100/X-clone-backend/internal/services"
	"github.com/Soumabha100/X-clone-backend/pkg/logger"
	"github.com/Soumabha100/X-clone-backend/pkg/queue"
	"github.com/google/uuid"
)

// Subscriber 消费消息，KafkaConsumer 实现了该接口
type Subscriber interface {
	Subscribe(ctx context.Context, handler func(queue.Message) error) error
	Close() error
}

// ReconcileWorker 根据领域事件修复派生数据，并定期执行恢复任务
type ReconcileWorker struct {
	recovery *services.RecoveryService
	userRepo *repository.UserRepository
	consumer Subscriber
	logger   *logger.Logger
	interval time.Duration
}

func NewReconcileWorker(
	recovery *services.RecoveryService,
	userRepo *repository.UserRepository,
	consumer Subscriber,
	logger *logger.Logger,
	interval time.Duration,
) *ReconcileWorker {
	return &ReconcileWorker{
		recovery: recovery,
		userRepo: userRepo,
		consumer: consumer,
		logger:   logger,
		interval: interval,
	}
}

func (w *ReconcileWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting reconcile worker...")

	if w.interval > 0 {
		go w.recovery.StartRecoveryJob(ctx, w.interval)
	}

	return w.consumer.Subscribe(ctx, func(msg queue.Message) error {
		return w.HandleMessage(ctx, msg)
	})
}

func (w *ReconcileWorker) Stop() error {
	return w.consumer.Close()
}

func (w *ReconcileWorker) HandleMessage(ctx context.Context, msg queue.Message) error {
	event, err := queue.DecodeEvent(msg)
	if err != nil {
		return err
	}

	w.logger.WithFields(map[string]interface{}{
		"event_type": event.Type,
		"timestamp":  event.Timestamp,
	}).Debug("Processing event")

	switch event.Type {
	case queue.EventAccountDeleted:
		return w.handleAccountDeleted(ctx, event)
	case queue.EventFollowCreated, queue.EventFollowDeleted:
		return w.handleFollowChanged(ctx, event)
	default:
		return nil
	}
}

// handleAccountDeleted 清理删除期间并发请求写入的残留记录
func (w *ReconcileWorker) handleAccountDeleted(ctx context.Context, event *queue.Event) error {
	var data queue.AccountDeletedEventData
	if err := event.DecodeData(&data); err != nil {
		return err
	}
	userID, err := uuid.Parse(data.UserID)
	if err != nil {
		return fmt.Errorf("invalid user_id in event data: %w", err)
	}

	exists, err := w.userRepo.Exists(ctx, userID)
	if err != nil {
		return err
	}
	if exists {
		w.logger.WithField("user_id", userID).Warn("Account deleted event for existing user, skipping")
		return nil
	}

	result, err := w.recovery.ResumeAccountPurge(ctx, userID)
	if err != nil {
		return err
	}
	if result.Total() > 0 {
		w.logger.WithFields(map[string]interface{}{
			"user_id":  userID,
			"repaired": result.Total(),
		}).Warn("Leftover records removed after account deletion")
	}
	return nil
}

func (w *ReconcileWorker) handleFollowChanged(ctx context.Context, event *queue.Event) error {
	var data queue.FollowEventData
	if err := event.DecodeData(&data); err != nil {
		return err
	}
	followerID, err := uuid.Parse(data.FollowerID)
	if err != nil {
		return fmt.Errorf("invalid follower_id in event data: %w", err)
	}
	followingID, err := uuid.Parse(data.FollowingID)
	if err != nil {
		return fmt.Errorf("invalid following_id in event data: %w", err)
	}

	repaired, err := w.recovery.RepairFollowCounts(ctx, followerID, followingID)
	if err != nil {
		return err
	}
	w.logger.WithFields(map[string]interface{}{
		"follower_id":  followerID,
		"following_id": followingID,
		"repaired":     repaired,
	}).Debug("Follow counts reconciled")
	return nil
}

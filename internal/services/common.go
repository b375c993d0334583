package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Soumabha100/X-clone-backend/internal/apperr"
	"github.com/Soumabha100/X-clone-backend/internal/metrics"
	"github.com/Soumabha100/X-clone-backend/internal/repository"
	"github.com/Soumabha100/X-clone-backend/pkg/logger"
	"github.com/Soumabha100/X-clone-backend/pkg/queue"
	"github.com/Soumabha100/X-clone-backend/pkg/storage"
	"github.com/google/uuid"
)

const defaultOperationTimeout = 5 * time.Second

// EventPublisher 领域事件发布，生产环境为 Kafka
type EventPublisher interface {
	Publish(ctx context.Context, key string, value interface{}) error
}

func parseUserID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, apperr.Validation("invalid user ID")
	}
	return id, nil
}

func parsePostID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, apperr.Validation("invalid post ID")
	}
	return id, nil
}

// classify 已分类的错误原样返回，其余包装为内部错误
func classify(err error, message string) error {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}
	return apperr.Internal(message, err)
}

func operationContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = defaultOperationTimeout
	}
	return context.WithTimeout(ctx, timeout)
}

// publishEvent 事务提交后发布事件，失败只记录日志
func publishEvent(ctx context.Context, producer EventPublisher, log *logger.Logger, eventType queue.EventType, key string, data interface{}) {
	if producer == nil {
		return
	}
	event, err := queue.NewEvent(eventType, time.Now(), data)
	if err == nil {
		err = producer.Publish(ctx, key, event)
	}
	if err != nil {
		metrics.EventPublishFailures.WithLabelValues(string(eventType)).Inc()
		log.WithError(err).WithField("event_type", eventType).Error("Failed to publish event")
	}
}

// requireUsers 在事务中对用户行加共享锁。删除账号会先锁住用户行，
// 所以写入要么在删除前提交并被清理，要么等删除提交后发现用户不存在。
func requireUsers(ctx context.Context, users *repository.UserRepository, ids ...uuid.UUID) error {
	for _, id := range ids {
		ok, err := users.LockShared(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.ErrUserNotFound
		}
	}
	return nil
}

type membershipFunc func(ctx context.Context, userID, postID uuid.UUID) (bool, error)

// toggleMembership 先条件删除，没有删除时条件插入。
// 插入没有生效说明同一行刚被并发写入，此时再删除一次，保证每次调用都翻转状态。
func toggleMembership(ctx context.Context, userID, postID uuid.UUID, remove, add membershipFunc) (bool, error) {
	removed, err := remove(ctx, userID, postID)
	if err != nil || removed {
		return false, err
	}
	added, err := add(ctx, userID, postID)
	if err != nil || added {
		return added, err
	}
	_, err = remove(ctx, userID, postID)
	return false, err
}

// discardUploads 数据写入失败时删除已上传的对象
func discardUploads(store storage.ObjectStore, log *logger.Logger, urls ...string) {
	for _, url := range urls {
		if url == "" {
			continue
		}
		if err := store.Delete(context.Background(), url); err != nil {
			log.WithError(err).WithField("url", url).Error("Failed to delete orphaned upload")
		}
	}
}

package services

import (
	"context"

	"github.com/Soumabha100/X-clone-backend/internal/metrics"
	"github.com/Soumabha100/X-clone-backend/internal/models"
	"github.com/Soumabha100/X-clone-backend/internal/repository"
	"github.com/Soumabha100/X-clone-backend/pkg/logger"
	"github.com/google/uuid"
)

// NotificationService 通知扇出与读取
type NotificationService struct {
	db               *repository.Database
	notificationRepo *repository.NotificationRepository
	projector        *Projector
	logger           *logger.Logger
}

func NewNotificationService(db *repository.Database, notificationRepo *repository.NotificationRepository, projector *Projector, logger *logger.Logger) *NotificationService {
	return &NotificationService{
		db:               db,
		notificationRepo: notificationRepo,
		projector:        projector,
		logger:           logger,
	}
}

// HandleEvent 自己对自己的操作直接丢弃
func (s *NotificationService) HandleEvent(ctx context.Context, event Event) error {
	if event.Actor == event.Owner {
		metrics.NotificationsSuppressed.WithLabelValues(string(event.Kind)).Inc()
		return nil
	}

	n := &models.Notification{
		Type:       event.Kind,
		FromUserID: event.Actor,
		ToUserID:   event.Owner,
	}
	if event.Kind != models.NotificationFollow {
		n.PostID = event.PostID
	}
	if err := s.notificationRepo.Create(ctx, n); err != nil {
		return err
	}

	metrics.NotificationsCreated.WithLabelValues(string(event.Kind)).Inc()
	return nil
}

// List 只读取，不修改已读状态
func (s *NotificationService) List(ctx context.Context, userID string) ([]*NotificationView, error) {
	id, err := parseUserID(userID)
	if err != nil {
		return nil, err
	}

	notifications, err := s.notificationRepo.ListForUser(ctx, id)
	if err != nil {
		return nil, classify(err, "failed to list notifications")
	}
	return s.projector.Notifications(ctx, notifications)
}

// MarkRead 将指定通知标记为已读，返回实际标记的数量
func (s *NotificationService) MarkRead(ctx context.Context, userID string, ids []uuid.UUID) (int64, error) {
	id, err := parseUserID(userID)
	if err != nil {
		return 0, err
	}

	n, err := s.notificationRepo.MarkRead(ctx, id, ids)
	if err != nil {
		return 0, classify(err, "failed to mark notifications read")
	}
	return n, nil
}

// ListAndMarkRead 返回所有通知并在同一事务中标记为已读。
// 返回的快照保留标记前的已读状态。
func (s *NotificationService) ListAndMarkRead(ctx context.Context, userID string) ([]*NotificationView, error) {
	id, err := parseUserID(userID)
	if err != nil {
		return nil, err
	}

	var notifications []*models.Notification
	err = s.db.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		notifications, err = s.notificationRepo.ListForUser(ctx, id)
		if err != nil {
			return err
		}

		unread := make([]uuid.UUID, 0, len(notifications))
		for _, n := range notifications {
			if !n.IsRead {
				unread = append(unread, n.ID)
			}
		}
		_, err = s.notificationRepo.MarkRead(ctx, id, unread)
		return err
	})
	if err != nil {
		return nil, classify(err, "failed to read notifications")
	}

	return s.projector.Notifications(ctx, notifications)
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	id, err := parseUserID(userID)
	if err != nil {
		return 0, err
	}

	count, err := s.notificationRepo.CountUnread(ctx, id)
	if err != nil {
		return 0, classify(err, "failed to count notifications")
	}
	return count, nil
}

// Clear 删除发给该用户的所有通知
func (s *NotificationService) Clear(ctx context.Context, userID string) (int64, error) {
	id, err := parseUserID(userID)
	if err != nil {
		return 0, err
	}

	deleted, err := s.notificationRepo.DeleteForUser(ctx, id)
	if err != nil {
		return 0, classify(err, "failed to clear notifications")
	}

	s.logger.WithFields(map[string]interface{}{
		"user_id": id,
		"deleted": deleted,
	}).Info("Notifications cleared successfully")
	return deleted, nil
}

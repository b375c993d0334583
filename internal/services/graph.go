package services

import (
	"context"
	"time"

	"github.com/Soumabha100/X-clone-backend/internal/apperr"
	"github.com/Soumabha100/X-clone-backend/internal/metrics"
	"github.com/Soumabha100/X-clone-backend/internal/repository"
	"github.com/Soumabha100/X-clone-backend/pkg/logger"
	"github.com/Soumabha100/X-clone-backend/pkg/queue"
	"github.com/google/uuid"
)

// GraphService 关注关系。关注边只有一行记录，两端计数在同一事务中更新。
type GraphService struct {
	db         *repository.Database
	userRepo   *repository.UserRepository
	followRepo *repository.FollowRepository
	notifier   EventHandler
	producer   EventPublisher
	projector  *Projector
	logger     *logger.Logger
	timeout    time.Duration
}

func NewGraphService(
	db *repository.Database,
	userRepo *repository.UserRepository,
	followRepo *repository.FollowRepository,
	notifier EventHandler,
	producer EventPublisher,
	projector *Projector,
	logger *logger.Logger,
	timeout time.Duration,
) *GraphService {
	return &GraphService{
		db:         db,
		userRepo:   userRepo,
		followRepo: followRepo,
		notifier:   notifier,
		producer:   producer,
		projector:  projector,
		logger:     logger,
		timeout:    timeout,
	}
}

// Follow 返回关注者更新后的视图
func (s *GraphService) Follow(ctx context.Context, actorID, targetID string) (*UserView, error) {
	actor, target, err := s.parsePair(actorID, targetID)
	if err != nil {
		return nil, err
	}

	opCtx, cancel := operationContext(ctx, s.timeout)
	defer cancel()

	err = s.db.WithinTransaction(opCtx, func(ctx context.Context) error {
		if err := requireUsers(ctx, s.userRepo, actor, target); err != nil {
			return err
		}

		added, err := s.followRepo.Add(ctx, actor, target)
		if err != nil {
			return err
		}
		if !added {
			return apperr.ErrAlreadyFollowing
		}

		if err := s.userRepo.AdjustFollowCounts(ctx, actor, target, 1); err != nil {
			return err
		}
		return s.notifier.HandleEvent(ctx, FollowEvent(actor, target))
	})
	if err != nil {
		return nil, classify(err, "failed to follow user")
	}

	metrics.GraphOperations.WithLabelValues("follow").Inc()
	publishEvent(ctx, s.producer, s.logger, queue.EventFollowCreated, actor.String(), queue.FollowEventData{
		FollowerID:  actor.String(),
		FollowingID: target.String(),
	})

	s.logger.WithFields(map[string]interface{}{
		"follower_id":  actor,
		"following_id": target,
	}).Info("User followed successfully")

	return s.projector.UserByID(ctx, actor, true)
}

func (s *GraphService) Unfollow(ctx context.Context, actorID, targetID string) (*UserView, error) {
	actor, target, err := s.parsePair(actorID, targetID)
	if err != nil {
		return nil, err
	}

	opCtx, cancel := operationContext(ctx, s.timeout)
	defer cancel()

	err = s.db.WithinTransaction(opCtx, func(ctx context.Context) error {
		removed, err := s.followRepo.Remove(ctx, actor, target)
		if err != nil {
			return err
		}
		if !removed {
			if err := requireUsers(ctx, s.userRepo, actor, target); err != nil {
				return err
			}
			return apperr.ErrNotFollowing
		}
		return s.userRepo.AdjustFollowCounts(ctx, actor, target, -1)
	})
	if err != nil {
		return nil, classify(err, "failed to unfollow user")
	}

	metrics.GraphOperations.WithLabelValues("unfollow").Inc()
	publishEvent(ctx, s.producer, s.logger, queue.EventFollowDeleted, actor.String(), queue.FollowEventData{
		FollowerID:  actor.String(),
		FollowingID: target.String(),
	})

	s.logger.WithFields(map[string]interface{}{
		"follower_id":  actor,
		"following_id": target,
	}).Info("User unfollowed successfully")

	return s.projector.UserByID(ctx, actor, true)
}

func (s *GraphService) IsFollowing(ctx context.Context, actorID, targetID string) (bool, error) {
	actor, target, err := s.parsePair(actorID, targetID)
	if err != nil {
		return false, err
	}
	following, err := s.followRepo.IsFollowing(ctx, actor, target)
	if err != nil {
		return false, classify(err, "failed to check follow status")
	}
	return following, nil
}

func (s *GraphService) parsePair(actorID, targetID string) (uuid.UUID, uuid.UUID, error) {
	actor, err := parseUserID(actorID)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	target, err := parseUserID(targetID)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	if actor == target {
		return uuid.Nil, uuid.Nil, apperr.ErrSelfReference
	}
	return actor, target, nil
}

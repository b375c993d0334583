package services

import (
	"context"
	"strings"

	"github.com/Soumabha100/X-clone-backend/internal/apperr"
	"github.com/Soumabha100/X-clone-backend/internal/metrics"
	"github.com/Soumabha100/X-clone-backend/internal/models"
	"github.com/Soumabha100/X-clone-backend/internal/repository"
	"github.com/Soumabha100/X-clone-backend/pkg/logger"
	"github.com/Soumabha100/X-clone-backend/pkg/queue"
	"github.com/google/uuid"
)

// EngagementService 点赞、转发、收藏和评论。
// 切换操作见 toggleMembership，不读取整条记录后覆盖。
type EngagementService struct {
	db             *repository.Database
	postRepo       *repository.PostRepository
	userRepo       *repository.UserRepository
	engagementRepo *repository.EngagementRepository
	bookmarkRepo   *repository.BookmarkRepository
	commentRepo    *repository.CommentRepository
	notifier       EventHandler
	producer       EventPublisher
	projector      *Projector
	logger         *logger.Logger
}

func NewEngagementService(
	db *repository.Database,
	postRepo *repository.PostRepository,
	userRepo *repository.UserRepository,
	engagementRepo *repository.EngagementRepository,
	bookmarkRepo *repository.BookmarkRepository,
	commentRepo *repository.CommentRepository,
	notifier EventHandler,
	producer EventPublisher,
	projector *Projector,
	logger *logger.Logger,
) *EngagementService {
	return &EngagementService{
		db:             db,
		postRepo:       postRepo,
		userRepo:       userRepo,
		engagementRepo: engagementRepo,
		bookmarkRepo:   bookmarkRepo,
		commentRepo:    commentRepo,
		notifier:       notifier,
		producer:       producer,
		projector:      projector,
		logger:         logger,
	}
}

type CreateCommentRequest struct {
	Content string `json:"content" binding:"required,notblank,max=1000"`
}

// ToggleLike 只有新增点赞时通知帖子作者
func (s *EngagementService) ToggleLike(ctx context.Context, actorID, postID string) (*PostView, error) {
	actor, pid, err := parseActorAndPost(actorID, postID)
	if err != nil {
		return nil, err
	}

	var (
		post  *models.Post
		liked bool
	)
	err = s.db.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		if post, err = s.requireActorAndPost(ctx, actor, pid); err != nil {
			return err
		}
		if liked, err = toggleMembership(ctx, actor, pid, s.engagementRepo.RemoveLike, s.engagementRepo.AddLike); err != nil {
			return err
		}

		if _, err := s.postRepo.Touch(ctx, pid); err != nil {
			return err
		}
		if liked {
			return s.notifier.HandleEvent(ctx, LikeEvent(actor, post.UserID, pid))
		}
		return nil
	})
	if err != nil {
		return nil, classify(err, "failed to toggle like")
	}

	eventType := queue.EventLikeDeleted
	if liked {
		eventType = queue.EventLikeCreated
	}
	s.afterToggle(ctx, "like", liked, eventType, actor, post)

	return s.reloadPost(ctx, pid)
}

// ToggleRetweet 两个方向都会刷新 updated_at，转发不产生通知
func (s *EngagementService) ToggleRetweet(ctx context.Context, actorID, postID string) (*PostView, error) {
	actor, pid, err := parseActorAndPost(actorID, postID)
	if err != nil {
		return nil, err
	}

	var (
		post      *models.Post
		retweeted bool
	)
	err = s.db.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		if post, err = s.requireActorAndPost(ctx, actor, pid); err != nil {
			return err
		}
		if retweeted, err = toggleMembership(ctx, actor, pid, s.engagementRepo.RemoveRetweet, s.engagementRepo.AddRetweet); err != nil {
			return err
		}

		_, err = s.postRepo.Touch(ctx, pid)
		return err
	})
	if err != nil {
		return nil, classify(err, "failed to toggle retweet")
	}

	eventType := queue.EventRetweetDeleted
	if retweeted {
		eventType = queue.EventRetweetCreated
	}
	s.afterToggle(ctx, "retweet", retweeted, eventType, actor, post)

	return s.reloadPost(ctx, pid)
}

// ToggleBookmark 返回用户更新后的视图
func (s *EngagementService) ToggleBookmark(ctx context.Context, actorID, postID string) (*UserView, error) {
	actor, pid, err := parseActorAndPost(actorID, postID)
	if err != nil {
		return nil, err
	}

	var bookmarked bool
	err = s.db.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.requireActorAndPost(ctx, actor, pid); err != nil {
			return err
		}
		var err error
		if bookmarked, err = toggleMembership(ctx, actor, pid, s.bookmarkRepo.Remove, s.bookmarkRepo.Add); err != nil {
			return err
		}
		return s.userRepo.Touch(ctx, actor)
	})
	if err != nil {
		return nil, classify(err, "failed to toggle bookmark")
	}

	metrics.EngagementToggles.WithLabelValues("bookmark", direction(bookmarked)).Inc()
	s.logger.WithFields(map[string]interface{}{
		"user_id":    actor,
		"post_id":    pid,
		"bookmarked": bookmarked,
	}).Info("Bookmark toggled successfully")

	return s.projector.UserByID(ctx, actor, true)
}

// AddComment 追加评论并通知帖子作者
func (s *EngagementService) AddComment(ctx context.Context, actorID, postID string, req *CreateCommentRequest) (*PostView, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, apperr.Validation("comment content is required")
	}
	actor, pid, err := parseActorAndPost(actorID, postID)
	if err != nil {
		return nil, err
	}

	var (
		post    *models.Post
		comment *models.Comment
	)
	err = s.db.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		if post, err = s.requireActorAndPost(ctx, actor, pid); err != nil {
			return err
		}

		comment = &models.Comment{PostID: pid, UserID: actor, Content: content}
		if err := s.commentRepo.Create(ctx, comment); err != nil {
			return err
		}
		if _, err := s.postRepo.Touch(ctx, pid); err != nil {
			return err
		}
		return s.notifier.HandleEvent(ctx, CommentEvent(actor, post.UserID, pid))
	})
	if err != nil {
		return nil, classify(err, "failed to add comment")
	}

	publishEvent(ctx, s.producer, s.logger, queue.EventCommentCreated, pid.String(), queue.CommentEventData{
		CommentID: comment.ID.String(),
		UserID:    actor.String(),
		PostID:    pid.String(),
		OwnerID:   post.UserID.String(),
	})

	s.logger.WithFields(map[string]interface{}{
		"comment_id": comment.ID,
		"post_id":    pid,
		"user_id":    actor,
	}).Info("Comment created successfully")

	return s.reloadPost(ctx, pid)
}

func (s *EngagementService) afterToggle(ctx context.Context, kind string, added bool, eventType queue.EventType, actor uuid.UUID, post *models.Post) {
	metrics.EngagementToggles.WithLabelValues(kind, direction(added)).Inc()
	publishEvent(ctx, s.producer, s.logger, eventType, post.ID.String(), queue.EngagementEventData{
		UserID:  actor.String(),
		PostID:  post.ID.String(),
		OwnerID: post.UserID.String(),
	})

	s.logger.WithFields(map[string]interface{}{
		"user_id": actor,
		"post_id": post.ID,
		"kind":    kind,
		"added":   added,
	}).Info("Engagement toggled successfully")
}

// requireActorAndPost 已删除账号的令牌可能仍在有效期内，写入前确认操作者存在
func (s *EngagementService) requireActorAndPost(ctx context.Context, actor, pid uuid.UUID) (*models.Post, error) {
	if err := requireUsers(ctx, s.userRepo, actor); err != nil {
		return nil, err
	}
	return s.requirePost(ctx, pid)
}

func (s *EngagementService) requirePost(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, apperr.ErrPostNotFound
	}
	return post, nil
}

func (s *EngagementService) reloadPost(ctx context.Context, id uuid.UUID) (*PostView, error) {
	post, err := s.requirePost(ctx, id)
	if err != nil {
		return nil, classify(err, "failed to get post")
	}
	return s.projector.Post(ctx, post)
}

func parseActorAndPost(actorID, postID string) (uuid.UUID, uuid.UUID, error) {
	actor, err := parseUserID(actorID)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	pid, err := parsePostID(postID)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return actor, pid, nil
}

func direction(added bool) string {
	if added {
		return "add"
	}
	return "remove"
}

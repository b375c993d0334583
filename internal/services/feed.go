package services

import (
	"context"
	"time"

	"github.com/Soumabha100/X-clone-backend/internal/apperr"
	"github.com/Soumabha100/X-clone-backend/internal/metrics"
	"github.com/Soumabha100/X-clone-backend/internal/models"
	"github.com/Soumabha100/X-clone-backend/internal/repository"
	"github.com/Soumabha100/X-clone-backend/pkg/logger"
)

// FeedService 只读的 feed 组装，直接查询数据库
type FeedService struct {
	postRepo     *repository.PostRepository
	userRepo     *repository.UserRepository
	bookmarkRepo *repository.BookmarkRepository
	projector    *Projector
	logger       *logger.Logger
}

func NewFeedService(
	postRepo *repository.PostRepository,
	userRepo *repository.UserRepository,
	bookmarkRepo *repository.BookmarkRepository,
	projector *Projector,
	logger *logger.Logger,
) *FeedService {
	return &FeedService{
		postRepo:     postRepo,
		userRepo:     userRepo,
		bookmarkRepo: bookmarkRepo,
		projector:    projector,
		logger:       logger,
	}
}

// PersonalFeed 关注的人的帖子以及自己或关注的人转发的帖子，按 updated_at 倒序。
// 不包含自己发布且未被转发的帖子。
func (s *FeedService) PersonalFeed(ctx context.Context, viewerID string) ([]*PostView, error) {
	viewer, err := parseUserID(viewerID)
	if err != nil {
		return nil, err
	}
	return s.compose(ctx, "personal", func() ([]*models.Post, error) {
		return s.postRepo.PersonalFeed(ctx, viewer)
	})
}

// FollowingFeed 只包含关注的人发布的帖子，按 created_at 倒序
func (s *FeedService) FollowingFeed(ctx context.Context, viewerID string) ([]*PostView, error) {
	viewer, err := parseUserID(viewerID)
	if err != nil {
		return nil, err
	}
	return s.compose(ctx, "following", func() ([]*models.Post, error) {
		return s.postRepo.FollowingFeed(ctx, viewer)
	})
}

func (s *FeedService) AuthorFeed(ctx context.Context, authorID string) ([]*PostView, error) {
	author, err := parseUserID(authorID)
	if err != nil {
		return nil, err
	}

	exists, err := s.userRepo.Exists(ctx, author)
	if err != nil {
		return nil, classify(err, "failed to get user")
	}
	if !exists {
		return nil, apperr.ErrUserNotFound
	}

	return s.compose(ctx, "author", func() ([]*models.Post, error) {
		return s.postRepo.GetByUserID(ctx, author)
	})
}

func (s *FeedService) PublicFeed(ctx context.Context) ([]*PostView, error) {
	return s.compose(ctx, "public", func() ([]*models.Post, error) {
		return s.postRepo.List(ctx)
	})
}

func (s *FeedService) GetPostByID(ctx context.Context, postID string) (*PostView, error) {
	id, err := parsePostID(postID)
	if err != nil {
		return nil, err
	}

	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		return nil, classify(err, "failed to get post")
	}
	if post == nil {
		return nil, apperr.ErrPostNotFound
	}
	return s.projector.Post(ctx, post)
}

// BookmarkedPosts 最近收藏在前，已删除的帖子不返回
func (s *FeedService) BookmarkedPosts(ctx context.Context, userID string) ([]*PostView, error) {
	id, err := parseUserID(userID)
	if err != nil {
		return nil, err
	}
	return s.compose(ctx, "bookmarks", func() ([]*models.Post, error) {
		return s.bookmarkRepo.RecentPosts(ctx, id)
	})
}

func (s *FeedService) compose(ctx context.Context, feed string, load func() ([]*models.Post, error)) ([]*PostView, error) {
	start := time.Now()
	defer func() {
		metrics.FeedDuration.WithLabelValues(feed).Observe(time.Since(start).Seconds())
	}()

	posts, err := load()
	if err != nil {
		return nil, classify(err, "failed to load feed")
	}

	views, err := s.projector.Posts(ctx, posts)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"feed":  feed,
		"count": len(views),
	}).Debug("Feed composed")
	return views, nil
}

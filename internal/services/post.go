package services

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/Soumabha100/X-clone-backend/internal/apperr"
	"github.com/Soumabha100/X-clone-backend/internal/models"
	"github.com/Soumabha100/X-clone-backend/internal/repository"
	"github.com/Soumabha100/X-clone-backend/pkg/logger"
	"github.com/Soumabha100/X-clone-backend/pkg/queue"
	"github.com/Soumabha100/X-clone-backend/pkg/storage"
)

// Upload 上传的图片文件
type Upload struct {
	Filename string
	Reader   io.Reader
}

type PostService struct {
	postRepo    *repository.PostRepository
	userRepo    *repository.UserRepository
	cascadeRepo *repository.CascadeRepository
	store       storage.ObjectStore
	producer    EventPublisher
	projector   *Projector
	logger      *logger.Logger
}

func NewPostService(
	postRepo *repository.PostRepository,
	userRepo *repository.UserRepository,
	cascadeRepo *repository.CascadeRepository,
	store storage.ObjectStore,
	producer EventPublisher,
	projector *Projector,
	logger *logger.Logger,
) *PostService {
	return &PostService{
		postRepo:    postRepo,
		userRepo:    userRepo,
		cascadeRepo: cascadeRepo,
		store:       store,
		producer:    producer,
		projector:   projector,
		logger:      logger,
	}
}

type CreatePostRequest struct {
	Description string `json:"description" form:"description" binding:"required,notblank,max=280"`
}

type EditPostRequest struct {
	Description string `json:"description" binding:"max=280"`
}

func (s *PostService) CreatePost(ctx context.Context, userID string, req *CreatePostRequest, image *Upload) (*PostView, error) {
	description := strings.TrimSpace(req.Description)
	if description == "" {
		return nil, apperr.Validation("description is required")
	}
	author, err := parseUserID(userID)
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

	post := &models.Post{
		UserID:      author,
		Description: description,
	}
	if image != nil {
		url, err := s.store.Put(ctx, "posts", image.Filename, image.Reader)
		if err != nil {
			return nil, uploadError(err)
		}
		post.ImageURL = url
	}

	if err := s.postRepo.Create(ctx, post); err != nil {
		discardUploads(s.store, s.logger, post.ImageURL)
		return nil, classify(err, "failed to create post")
	}

	publishEvent(ctx, s.producer, s.logger, queue.EventPostCreated, author.String(), queue.PostEventData{
		PostID: post.ID.String(),
		UserID: author.String(),
	})

	s.logger.WithFields(map[string]interface{}{
		"post_id": post.ID,
		"user_id": author,
	}).Info("Post created successfully")

	return s.projector.Post(ctx, post)
}

// EditPost 检查顺序：帖子不存在、不是作者、内容为空
func (s *PostService) EditPost(ctx context.Context, userID, postID string, req *EditPostRequest) (*PostView, error) {
	actor, pid, err := parseActorAndPost(userID, postID)
	if err != nil {
		return nil, err
	}

	post, err := s.postRepo.GetByID(ctx, pid)
	if err != nil {
		return nil, classify(err, "failed to get post")
	}
	if post == nil {
		return nil, apperr.ErrPostNotFound
	}
	if post.UserID != actor {
		return nil, apperr.Forbidden("you can only edit your own posts")
	}

	description := strings.TrimSpace(req.Description)
	if description == "" {
		return nil, apperr.Validation("description is required")
	}

	updated, err := s.postRepo.UpdateDescription(ctx, pid, description)
	if err != nil {
		return nil, classify(err, "failed to update post")
	}
	if !updated {
		return nil, apperr.ErrPostNotFound
	}

	publishEvent(ctx, s.producer, s.logger, queue.EventPostUpdated, actor.String(), queue.PostEventData{
		PostID: pid.String(),
		UserID: actor.String(),
	})

	s.logger.WithField("post_id", pid).Info("Post updated successfully")

	post, err = s.postRepo.GetByID(ctx, pid)
	if err != nil {
		return nil, classify(err, "failed to get post")
	}
	if post == nil {
		return nil, apperr.ErrPostNotFound
	}
	return s.projector.Post(ctx, post)
}

// DeletePost 作者删除帖子，同时清理点赞、转发、评论、收藏和通知
func (s *PostService) DeletePost(ctx context.Context, userID, postID string) error {
	actor, pid, err := parseActorAndPost(userID, postID)
	if err != nil {
		return err
	}

	post, err := s.postRepo.GetByID(ctx, pid)
	if err != nil {
		return classify(err, "failed to get post")
	}
	if post == nil {
		return apperr.ErrPostNotFound
	}
	if post.UserID != actor {
		return apperr.Forbidden("you can only delete your own posts")
	}

	deleted, err := s.cascadeRepo.PurgePost(ctx, pid)
	if err != nil {
		return classify(err, "failed to delete post")
	}
	if !deleted {
		return apperr.ErrPostNotFound
	}

	publishEvent(ctx, s.producer, s.logger, queue.EventPostDeleted, actor.String(), queue.PostEventData{
		PostID: pid.String(),
		UserID: actor.String(),
	})

	s.logger.WithFields(map[string]interface{}{
		"post_id": pid,
		"user_id": actor,
	}).Info("Post deleted successfully")
	return nil
}

func uploadError(err error) error {
	if errors.Is(err, storage.ErrUnsupportedType) {
		return apperr.Validation("only jpg, jpeg and png images are allowed")
	}
	return apperr.Internal("failed to upload image", err)
}

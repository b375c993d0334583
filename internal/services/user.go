package services

import (
	"context"
	"errors"
	"strings"

	"github.com/Soumabha100/X-clone-backend/internal/apperr"
	"github.com/Soumabha100/X-clone-backend/internal/models"
	"github.com/Soumabha100/X-clone-backend/internal/repository"
	"github.com/Soumabha100/X-clone-backend/pkg/logger"
	"github.com/Soumabha100/X-clone-backend/pkg/queue"
	"github.com/Soumabha100/X-clone-backend/pkg/storage"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const suggestionLimit = 20

type UserService struct {
	userRepo  *repository.UserRepository
	store     storage.ObjectStore
	producer  EventPublisher
	projector *Projector
	logger    *logger.Logger
}

func NewUserService(userRepo *repository.UserRepository, store storage.ObjectStore, producer EventPublisher, projector *Projector, logger *logger.Logger) *UserService {
	return &UserService{
		userRepo:  userRepo,
		store:     store,
		producer:  producer,
		projector: projector,
		logger:    logger,
	}
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required,notblank,max=100"`
	Username string `json:"username" binding:"required,notblank,min=3,max=30"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6,max=72"`
}

// LoginRequest identifier 可以是邮箱或用户名
type LoginRequest struct {
	Identifier string `json:"identifier" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

// EditProfileRequest 只更新非空字段
type EditProfileRequest struct {
	Name *string `json:"name" form:"name" binding:"omitempty,notblank,max=100"`
	Bio  *string `json:"bio" form:"bio" binding:"omitempty,max=500"`
}

func (s *UserService) Register(ctx context.Context, req *RegisterRequest) (*UserView, error) {
	username := strings.TrimSpace(req.Username)
	email := strings.ToLower(strings.TrimSpace(req.Email))

	// 检查用户名是否已存在
	existingUser, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, classify(err, "failed to check username")
	}
	if existingUser != nil {
		return nil, apperr.Conflict("username already exists")
	}

	// 检查邮箱是否已存在
	existingUser, err = s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, classify(err, "failed to check email")
	}
	if existingUser != nil {
		return nil, apperr.Conflict("email already exists")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Internal("failed to hash password", err)
	}

	user := &models.User{
		Name:     strings.TrimSpace(req.Name),
		Username: username,
		Email:    email,
		Password: string(hashedPassword),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		// 并发注册时由唯一索引兜底
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.Conflict("username or email already exists")
		}
		return nil, classify(err, "failed to create user")
	}

	publishEvent(ctx, s.producer, s.logger, queue.EventUserCreated, user.ID.String(), queue.UserEventData{
		UserID:   user.ID.String(),
		Username: user.Username,
	})

	s.logger.WithField("user_id", user.ID).Info("User registered successfully")
	return s.projector.User(ctx, user, true)
}

func (s *UserService) Login(ctx context.Context, req *LoginRequest) (*UserView, error) {
	user, err := s.userRepo.GetByLogin(ctx, strings.TrimSpace(req.Identifier))
	if err != nil {
		return nil, classify(err, "failed to get user")
	}
	if user == nil {
		return nil, apperr.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, apperr.ErrInvalidCredentials
	}

	s.logger.WithField("user_id", user.ID).Info("User logged in successfully")
	return s.projector.User(ctx, user, true)
}

// GetProfile viewer 与目标相同时返回邮箱和收藏
func (s *UserService) GetProfile(ctx context.Context, viewerID, userID string) (*UserView, error) {
	id, err := parseUserID(userID)
	if err != nil {
		return nil, err
	}
	return s.projector.UserByID(ctx, id, viewerID == id.String())
}

// Suggestions 除自己以外的用户
func (s *UserService) Suggestions(ctx context.Context, viewerID string) ([]*UserView, error) {
	viewer, err := parseUserID(viewerID)
	if err != nil {
		return nil, err
	}

	users, err := s.userRepo.ListExcept(ctx, viewer, suggestionLimit)
	if err != nil {
		return nil, classify(err, "failed to list users")
	}

	views := make([]*UserView, 0, len(users))
	for _, u := range users {
		view, err := s.projector.User(ctx, u, false)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

// EditProfile 头像和横幅先上传，再只更新有变化的列
func (s *UserService) EditProfile(ctx context.Context, userID string, req *EditProfileRequest, profileImage, bannerImage *Upload) (*UserView, error) {
	id, err := parseUserID(userID)
	if err != nil {
		return nil, err
	}

	fields := make(map[string]interface{})
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, apperr.Validation("name cannot be empty")
		}
		fields["name"] = name
	}
	if req.Bio != nil {
		fields["bio"] = strings.TrimSpace(*req.Bio)
	}
	if profileImage != nil {
		url, err := s.store.Put(ctx, "profiles", profileImage.Filename, profileImage.Reader)
		if err != nil {
			return nil, uploadError(err)
		}
		fields["profile_image_url"] = url
	}
	if bannerImage != nil {
		url, err := s.store.Put(ctx, "banners", bannerImage.Filename, bannerImage.Reader)
		if err != nil {
			return nil, uploadError(err)
		}
		fields["banner_image_url"] = url
	}

	updated, err := s.userRepo.UpdateProfile(ctx, id, fields)
	if err != nil || !updated {
		discardUploads(s.store, s.logger, imageURL(fields, "profile_image_url"), imageURL(fields, "banner_image_url"))
	}
	if err != nil {
		return nil, classify(err, "failed to update profile")
	}
	if !updated {
		return nil, apperr.ErrUserNotFound
	}

	publishEvent(ctx, s.producer, s.logger, queue.EventUserUpdated, id.String(), queue.UserEventData{
		UserID: id.String(),
	})

	s.logger.WithField("user_id", id).Info("User updated successfully")
	return s.projector.UserByID(ctx, id, true)
}

func imageURL(fields map[string]interface{}, column string) string {
	url, _ := fields[column].(string)
	return url
}

package services

import (
	"context"
	"time"

	"github.com/Soumabha100/X-clone-backend/internal/apperr"
	"github.com/Soumabha100/X-clone-backend/internal/models"
	"github.com/Soumabha100/X-clone-backend/internal/repository"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// AuthorProjection 读取时解析的作者信息，作者已删除时各字段为 null
type AuthorProjection struct {
	ID              uuid.UUID `json:"id"`
	Name            *string   `json:"name"`
	Username        *string   `json:"username"`
	ProfileImageURL *string   `json:"profile_image_url"`
}

type CommentView struct {
	ID        uuid.UUID        `json:"id"`
	Author    AuthorProjection `json:"author"`
	Content   string           `json:"content"`
	CreatedAt time.Time        `json:"created_at"`
}

type PostView struct {
	ID          uuid.UUID        `json:"id"`
	Author      AuthorProjection `json:"author"`
	Description string           `json:"description"`
	ImageURL    string           `json:"image_url"`
	LikedBy     []uuid.UUID      `json:"liked_by"`
	RetweetedBy []uuid.UUID      `json:"retweeted_by"`
	IsEdited    bool             `json:"is_edited"`
	Comments    []CommentView    `json:"comments"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

type UserView struct {
	ID              uuid.UUID   `json:"id"`
	Name            string      `json:"name"`
	Username        string      `json:"username"`
	Email           string      `json:"email,omitempty"`
	Bio             string      `json:"bio"`
	ProfileImageURL string      `json:"profile_image_url"`
	BannerImageURL  string      `json:"banner_image_url"`
	Followers       []uuid.UUID `json:"followers"`
	Following       []uuid.UUID `json:"following"`
	Bookmarks       []uuid.UUID `json:"bookmarks,omitempty"`
	FollowersCount  int64       `json:"followers_count"`
	FollowingCount  int64       `json:"following_count"`
	IsFollowing     *bool       `json:"is_following,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

type NotificationView struct {
	ID        uuid.UUID               `json:"id"`
	Type      models.NotificationType `json:"type"`
	From      AuthorProjection        `json:"from"`
	ToUserID  uuid.UUID               `json:"to_user_id"`
	PostID    *uuid.UUID              `json:"post_id"`
	IsRead    bool                    `json:"is_read"`
	CreatedAt time.Time               `json:"created_at"`
}

// Projector 将存储记录组装为返回给调用方的视图，不能在事务中调用
type Projector struct {
	userRepo       *repository.UserRepository
	followRepo     *repository.FollowRepository
	bookmarkRepo   *repository.BookmarkRepository
	engagementRepo *repository.EngagementRepository
	commentRepo    *repository.CommentRepository
}

func NewProjector(
	userRepo *repository.UserRepository,
	followRepo *repository.FollowRepository,
	bookmarkRepo *repository.BookmarkRepository,
	engagementRepo *repository.EngagementRepository,
	commentRepo *repository.CommentRepository,
) *Projector {
	return &Projector{
		userRepo:       userRepo,
		followRepo:     followRepo,
		bookmarkRepo:   bookmarkRepo,
		engagementRepo: engagementRepo,
		commentRepo:    commentRepo,
	}
}

// Authors 批量读取作者，缺失的 id 对应空投影
func (p *Projector) Authors(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]AuthorProjection, error) {
	users, err := p.userRepo.GetByIDs(ctx, uniqueIDs(ids))
	if err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]*models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	authors := make(map[uuid.UUID]AuthorProjection, len(ids))
	for _, id := range ids {
		authors[id] = projectAuthor(id, byID[id])
	}
	return authors, nil
}

// Posts 并发加载点赞、转发和评论，再一次性解析所有作者
func (p *Projector) Posts(ctx context.Context, posts []*models.Post) ([]*PostView, error) {
	views := make([]*PostView, 0, len(posts))
	if len(posts) == 0 {
		return views, nil
	}

	postIDs := make([]uuid.UUID, len(posts))
	for i, post := range posts {
		postIDs[i] = post.ID
	}

	var (
		likers     map[uuid.UUID][]uuid.UUID
		retweeters map[uuid.UUID][]uuid.UUID
		comments   map[uuid.UUID][]*models.Comment
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		likers, err = p.engagementRepo.LikersByPosts(gctx, postIDs)
		return err
	})
	g.Go(func() error {
		var err error
		retweeters, err = p.engagementRepo.RetweetersByPosts(gctx, postIDs)
		return err
	})
	g.Go(func() error {
		var err error
		comments, err = p.commentRepo.ListByPosts(gctx, postIDs)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, classify(err, "failed to load post details")
	}

	authorIDs := make([]uuid.UUID, 0, len(posts))
	for _, post := range posts {
		authorIDs = append(authorIDs, post.UserID)
		for _, c := range comments[post.ID] {
			authorIDs = append(authorIDs, c.UserID)
		}
	}
	authors, err := p.Authors(ctx, authorIDs)
	if err != nil {
		return nil, classify(err, "failed to load authors")
	}

	for _, post := range posts {
		view := &PostView{
			ID:          post.ID,
			Author:      authors[post.UserID],
			Description: post.Description,
			ImageURL:    post.ImageURL,
			LikedBy:     nonNil(likers[post.ID]),
			RetweetedBy: nonNil(retweeters[post.ID]),
			IsEdited:    post.IsEdited,
			Comments:    make([]CommentView, 0, len(comments[post.ID])),
			CreatedAt:   post.CreatedAt,
			UpdatedAt:   post.UpdatedAt,
		}
		for _, c := range comments[post.ID] {
			view.Comments = append(view.Comments, CommentView{
				ID:        c.ID,
				Author:    authors[c.UserID],
				Content:   c.Content,
				CreatedAt: c.CreatedAt,
			})
		}
		views = append(views, view)
	}
	return views, nil
}

func (p *Projector) Post(ctx context.Context, post *models.Post) (*PostView, error) {
	views, err := p.Posts(ctx, []*models.Post{post})
	if err != nil {
		return nil, err
	}
	return views[0], nil
}

// User self 为 true 时包含邮箱和收藏
func (p *Projector) User(ctx context.Context, user *models.User, self bool) (*UserView, error) {
	view := &UserView{
		ID:              user.ID,
		Name:            user.Name,
		Username:        user.Username,
		Bio:             user.Bio,
		ProfileImageURL: user.ProfileImageURL,
		BannerImageURL:  user.BannerImageURL,
		FollowersCount:  user.FollowersCount,
		FollowingCount:  user.FollowingCount,
		CreatedAt:       user.CreatedAt,
		UpdatedAt:       user.UpdatedAt,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ids, err := p.followRepo.FollowerIDs(gctx, user.ID)
		view.Followers = nonNil(ids)
		return err
	})
	g.Go(func() error {
		ids, err := p.followRepo.FollowingIDs(gctx, user.ID)
		view.Following = nonNil(ids)
		return err
	})
	if self {
		view.Email = user.Email
		g.Go(func() error {
			ids, err := p.bookmarkRepo.PostIDs(gctx, user.ID)
			view.Bookmarks = nonNil(ids)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, classify(err, "failed to load user relations")
	}
	return view, nil
}

// UserByID 重新读取用户后组装视图
func (p *Projector) UserByID(ctx context.Context, id uuid.UUID, self bool) (*UserView, error) {
	user, err := p.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, classify(err, "failed to get user")
	}
	if user == nil {
		return nil, apperr.ErrUserNotFound
	}
	return p.User(ctx, user, self)
}

func (p *Projector) Notifications(ctx context.Context, notifications []*models.Notification) ([]*NotificationView, error) {
	views := make([]*NotificationView, 0, len(notifications))
	if len(notifications) == 0 {
		return views, nil
	}

	fromIDs := make([]uuid.UUID, len(notifications))
	for i, n := range notifications {
		fromIDs[i] = n.FromUserID
	}
	authors, err := p.Authors(ctx, fromIDs)
	if err != nil {
		return nil, classify(err, "failed to load notification senders")
	}

	for _, n := range notifications {
		views = append(views, &NotificationView{
			ID:        n.ID,
			Type:      n.Type,
			From:      authors[n.FromUserID],
			ToUserID:  n.ToUserID,
			PostID:    n.PostID,
			IsRead:    n.IsRead,
			CreatedAt: n.CreatedAt,
		})
	}
	return views, nil
}

func projectAuthor(id uuid.UUID, user *models.User) AuthorProjection {
	if user == nil {
		return AuthorProjection{ID: id}
	}
	name, username, avatar := user.Name, user.Username, user.ProfileImageURL
	return AuthorProjection{ID: id, Name: &name, Username: &username, ProfileImageURL: &avatar}
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func nonNil(ids []uuid.UUID) []uuid.UUID {
	if ids == nil {
		return []uuid.UUID{}
	}
	return ids
}

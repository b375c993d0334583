package services

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/Soumabha100/X-clone-backend/internal/models"
	"github.com/Soumabha100/X-clone-backend/internal/repository"
	"github.com/Soumabha100/X-clone-backend/internal/testutil"
	"github.com/Soumabha100/X-clone-backend/pkg/cache"
	"github.com/Soumabha100/X-clone-backend/pkg/logger"
	"github.com/Soumabha100/X-clone-backend/pkg/storage"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	db            *repository.Database
	clock         *testutil.Clock
	redis         *miniredis.Miniredis
	publisher     *testutil.RecordingPublisher
	users         *repository.UserRepository
	follows       *repository.FollowRepository
	posts         *repository.PostRepository
	notifications *repository.NotificationRepository
	sessions      *cache.SessionStore
	statuses      *cache.CascadeStatusStore
	projector     *Projector
	uploadDir     string

	userService         *UserService
	graphService        *GraphService
	engagementService   *EngagementService
	notificationService *NotificationService
	feedService         *FeedService
	postService         *PostService
	accountService      *AccountService
	recoveryService     *RecoveryService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, clock := testutil.NewDatabase(t)
	mr := miniredis.RunT(t)
	redisClient := cache.NewRedisClient(mr.Addr(), "", 0, 10, 1)
	t.Cleanup(func() { _ = redisClient.Close() })

	uploadDir := t.TempDir()
	store, err := storage.NewLocalStore(uploadDir, "/uploads")
	require.NoError(t, err)

	log := logger.NewNopLogger()
	publisher := &testutil.RecordingPublisher{}

	userRepo := repository.NewUserRepository(db.DB)
	followRepo := repository.NewFollowRepository(db.DB)
	bookmarkRepo := repository.NewBookmarkRepository(db.DB)
	postRepo := repository.NewPostRepository(db.DB)
	engagementRepo := repository.NewEngagementRepository(db.DB)
	commentRepo := repository.NewCommentRepository(db.DB)
	notificationRepo := repository.NewNotificationRepository(db.DB)
	cascadeRepo := repository.NewCascadeRepository(db)

	sessions := cache.NewSessionStore(redisClient, 24*time.Hour)
	statuses := cache.NewCascadeStatusStore(redisClient)

	projector := NewProjector(userRepo, followRepo, bookmarkRepo, engagementRepo, commentRepo)
	notificationService := NewNotificationService(db, notificationRepo, projector, log)

	return &testEnv{
		db:            db,
		clock:         clock,
		redis:         mr,
		publisher:     publisher,
		users:         userRepo,
		follows:       followRepo,
		posts:         postRepo,
		notifications: notificationRepo,
		sessions:      sessions,
		statuses:      statuses,
		projector:     projector,
		uploadDir:     uploadDir,

		userService:         NewUserService(userRepo, store, publisher, projector, log),
		graphService:        NewGraphService(db, userRepo, followRepo, notificationService, publisher, projector, log, time.Second),
		engagementService:   NewEngagementService(db, postRepo, userRepo, engagementRepo, bookmarkRepo, commentRepo, notificationService, publisher, projector, log),
		notificationService: notificationService,
		feedService:         NewFeedService(postRepo, userRepo, bookmarkRepo, projector, log),
		postService:         NewPostService(postRepo, userRepo, cascadeRepo, store, publisher, projector, log),
		accountService:      NewAccountService(userRepo, cascadeRepo, sessions, statuses, publisher, log, time.Second),
		recoveryService:     NewRecoveryService(userRepo, cascadeRepo, sessions, statuses, log, time.Minute),
	}
}

func (e *testEnv) register(t *testing.T, username string) *UserView {
	t.Helper()
	view, err := e.userService.Register(context.Background(), &RegisterRequest{
		Name:     username,
		Username: username,
		Email:    username + "@example.com",
		Password: "secret123",
	})
	require.NoError(t, err)
	return view
}

func (e *testEnv) createPost(t *testing.T, author *UserView, description string) *PostView {
	t.Helper()
	view, err := e.postService.CreatePost(context.Background(), author.ID.String(), &CreatePostRequest{Description: description}, nil)
	require.NoError(t, err)
	return view
}

func (e *testEnv) follow(t *testing.T, actor, target *UserView) {
	t.Helper()
	_, err := e.graphService.Follow(context.Background(), actor.ID.String(), target.ID.String())
	require.NoError(t, err)
}

func (e *testEnv) unreadCount(t *testing.T, user *UserView) int64 {
	t.Helper()
	count, err := e.notificationService.UnreadCount(context.Background(), user.ID.String())
	require.NoError(t, err)
	return count
}

func (e *testEnv) reloadUser(t *testing.T, id uuid.UUID) *models.User {
	t.Helper()
	user, err := e.users.GetByID(context.Background(), id)
	require.NoError(t, err)
	return user
}

func ids(views []*PostView) []uuid.UUID {
	out := make([]uuid.UUID, len(views))
	for i, v := range views {
		out[i] = v.ID
	}
	return out
}

func (e *testEnv) uploads(t *testing.T, folder string) []string {
	t.Helper()
	files, err := filepath.Glob(filepath.Join(e.uploadDir, folder, "*"))
	require.NoError(t, err)
	return files
}

package workers

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/Soumabha100/X-clone-backend/internal/models"
	"github.com/Soumabha100/X-clone-backend/internal/repository"
	"github.com/Soumabha100/X-clone-backend/internal/services"
	"github.com/Soumabha100/X-clone-backend/internal/testutil"
	"github.com/Soumabha100/X-clone-backend/pkg/cache"
	"github.com/Soumabha100/X-clone-backend/pkg/logger"
	"github.com/Soumabha100/X-clone-backend/pkg/queue"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type workerEnv struct {
	db       *repository.Database
	users    *repository.UserRepository
	follows  *repository.FollowRepository
	sessions *cache.SessionStore
	worker   *ReconcileWorker
}

// stubSubscriber 按顺序投递预置消息
type stubSubscriber struct {
	messages []queue.Message
	closed   bool
}

func (s *stubSubscriber) Subscribe(ctx context.Context, handler func(queue.Message) error) error {
	for _, msg := range s.messages {
		_ = handler(msg)
	}
	return nil
}

func (s *stubSubscriber) Close() error {
	s.closed = true
	return nil
}

func newWorkerEnv(t *testing.T, consumer Subscriber) *workerEnv {
	t.Helper()

	db, _ := testutil.NewDatabase(t)
	mr := miniredis.RunT(t)
	redisClient := cache.NewRedisClient(mr.Addr(), "", 0, 10, 1)
	t.Cleanup(func() { _ = redisClient.Close() })

	log := logger.NewNopLogger()
	users := repository.NewUserRepository(db.DB)
	sessions := cache.NewSessionStore(redisClient, time.Hour)
	recovery := services.NewRecoveryService(users, repository.NewCascadeRepository(db), sessions,
		cache.NewCascadeStatusStore(redisClient), log, time.Minute)

	return &workerEnv{
		db:       db,
		users:    users,
		follows:  repository.NewFollowRepository(db.DB),
		sessions: sessions,
		worker:   NewReconcileWorker(recovery, users, consumer, log, 0),
	}
}

func (e *workerEnv) user(t *testing.T, username string) *models.User {
	t.Helper()
	u := &models.User{Name: username, Username: username, Email: username + "@example.com", Password: "x"}
	require.NoError(t, e.users.Create(context.Background(), u))
	return u
}

func message(t *testing.T, eventType queue.EventType, data interface{}) queue.Message {
	t.Helper()
	event, err := queue.NewEvent(eventType, time.Now(), data)
	require.NoError(t, err)
	raw, err := json.Marshal(event)
	require.NoError(t, err)
	return queue.Message{Value: raw, Topic: "social-events"}
}

func TestHandleAccountDeleted_RemovesLeftovers(t *testing.T) {
	env := newWorkerEnv(t, &stubSubscriber{})
	ctx := context.Background()
	alice, bob := env.user(t, "alice"), env.user(t, "bob")

	// 删除提交后并发请求写入的关注关系
	require.NoError(t, env.db.DB.Where("id = ?", bob.ID).Delete(&models.User{}).Error)
	_, err := env.follows.Add(ctx, bob.ID, alice.ID)
	require.NoError(t, err)

	err = env.worker.HandleMessage(ctx, message(t, queue.EventAccountDeleted, queue.AccountDeletedEventData{UserID: bob.ID.String()}))
	require.NoError(t, err)

	following, err := env.follows.IsFollowing(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.False(t, following)

	_, revoked, err := env.sessions.RevokedAt(ctx, bob.ID)
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestHandleAccountDeleted_SkipsExistingUser(t *testing.T) {
	env := newWorkerEnv(t, &stubSubscriber{})
	ctx := context.Background()
	alice := env.user(t, "alice")

	err := env.worker.HandleMessage(ctx, message(t, queue.EventAccountDeleted, queue.AccountDeletedEventData{UserID: alice.ID.String()}))
	require.NoError(t, err)

	exists, err := env.users.Exists(ctx, alice.ID)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestHandleFollowChanged_RepairsCounts(t *testing.T) {
	env := newWorkerEnv(t, &stubSubscriber{})
	ctx := context.Background()
	alice, bob := env.user(t, "alice"), env.user(t, "bob")

	// 只写入关注记录，计数未更新
	_, err := env.follows.Add(ctx, bob.ID, alice.ID)
	require.NoError(t, err)

	err = env.worker.HandleMessage(ctx, message(t, queue.EventFollowCreated, queue.FollowEventData{
		FollowerID:  bob.ID.String(),
		FollowingID: alice.ID.String(),
	}))
	require.NoError(t, err)

	reloaded, err := env.users.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, reloaded.FollowersCount)
	reloaded, err = env.users.GetByID(ctx, bob.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, reloaded.FollowingCount)
}

func TestHandleMessage_BadInput(t *testing.T) {
	env := newWorkerEnv(t, &stubSubscriber{})
	ctx := context.Background()

	assert.Error(t, env.worker.HandleMessage(ctx, queue.Message{Value: []byte("not json")}))
	assert.Error(t, env.worker.HandleMessage(ctx, message(t, queue.EventFollowDeleted, queue.FollowEventData{FollowerID: "x"})))
	assert.NoError(t, env.worker.HandleMessage(ctx, message(t, queue.EventPostCreated, queue.PostEventData{PostID: uuid.NewString()})))
}

func TestStartConsumesAndStopCloses(t *testing.T) {
	sub := &stubSubscriber{}
	env := newWorkerEnv(t, sub)
	ctx := context.Background()
	alice, bob := env.user(t, "alice"), env.user(t, "bob")
	_, err := env.follows.Add(ctx, bob.ID, alice.ID)
	require.NoError(t, err)

	sub.messages = []queue.Message{message(t, queue.EventFollowCreated, queue.FollowEventData{
		FollowerID:  bob.ID.String(),
		FollowingID: alice.ID.String(),
	})}

	require.NoError(t, env.worker.Start(ctx))
	reloaded, err := env.users.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, reloaded.FollowersCount)

	require.NoError(t, env.worker.Stop())
	assert.True(t, sub.closed)
}

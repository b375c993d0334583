package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Soumabha100/X-clone-backend/internal/apperr"
	"github.com/Soumabha100/X-clone-backend/internal/models"
	"github.com/Soumabha100/X-clone-backend/pkg/logger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFollow_IsSymmetric(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice, bob := env.register(t, "alice"), env.register(t, "bob")

	view, err := env.graphService.Follow(ctx, alice.ID.String(), bob.ID.String())
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{bob.ID}, view.Following)
	assert.EqualValues(t, 1, view.FollowingCount)

	bobView, err := env.userService.GetProfile(ctx, alice.ID.String(), bob.ID.String())
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{alice.ID}, bobView.Followers)
	assert.EqualValues(t, 1, bobView.FollowersCount)
	assert.Empty(t, bobView.Email)

	view, err = env.graphService.Unfollow(ctx, alice.ID.String(), bob.ID.String())
	require.NoError(t, err)
	assert.Empty(t, view.Following)
	assert.Zero(t, view.FollowingCount)

	bobView, err = env.userService.GetProfile(ctx, bob.ID.String(), bob.ID.String())
	require.NoError(t, err)
	assert.Empty(t, bobView.Followers)
	assert.Zero(t, bobView.FollowersCount)
}

func TestFollow_SelfReference(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "alice")

	_, err := env.graphService.Follow(context.Background(), alice.ID.String(), alice.ID.String())
	assert.ErrorIs(t, err, apperr.ErrSelfReference)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	_, err = env.graphService.Unfollow(context.Background(), alice.ID.String(), alice.ID.String())
	assert.ErrorIs(t, err, apperr.ErrSelfReference)

	assert.Zero(t, env.unreadCount(t, alice))
}

func TestFollow_Conflicts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice, bob := env.register(t, "alice"), env.register(t, "bob")

	_, err := env.graphService.Unfollow(ctx, alice.ID.String(), bob.ID.String())
	assert.ErrorIs(t, err, apperr.ErrNotFollowing)

	env.follow(t, alice, bob)
	_, err = env.graphService.Follow(ctx, alice.ID.String(), bob.ID.String())
	assert.ErrorIs(t, err, apperr.ErrAlreadyFollowing)

	// 冲突不会产生第二条通知
	assert.EqualValues(t, 1, env.unreadCount(t, bob))
	assert.EqualValues(t, 1, env.reloadUser(t, bob.ID).FollowersCount)
}

func TestFollow_UnknownTarget(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "alice")

	_, err := env.graphService.Follow(context.Background(), alice.ID.String(), uuid.NewString())
	assert.ErrorIs(t, err, apperr.ErrUserNotFound)

	_, err = env.graphService.Follow(context.Background(), alice.ID.String(), "not-a-uuid")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestFollow_NotifiesAndPublishes(t *testing.T) {
	env := newTestEnv(t)
	alice, bob := env.register(t, "alice"), env.register(t, "bob")
	before := env.publisher.Count()

	env.follow(t, bob, alice)

	notifications, err := env.notificationService.List(context.Background(), alice.ID.String())
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, "follow", string(notifications[0].Type))
	assert.Equal(t, bob.ID, notifications[0].From.ID)
	require.NotNil(t, notifications[0].From.Username)
	assert.Equal(t, "bob", *notifications[0].From.Username)
	assert.Nil(t, notifications[0].PostID)

	assert.Equal(t, before+1, env.publisher.Count())
}

func TestFollow_DeadlineIsRetryable(t *testing.T) {
	env := newTestEnv(t)
	alice, bob := env.register(t, "alice"), env.register(t, "bob")

	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	time.Sleep(time.Millisecond)

	_, err := env.graphService.Follow(ctx, alice.ID.String(), bob.ID.String())
	require.Error(t, err)
	assert.True(t, apperr.IsRetryable(err))

	following, err := env.graphService.IsFollowing(context.Background(), alice.ID.String(), bob.ID.String())
	require.NoError(t, err)
	assert.False(t, following)
}

type failingHandler struct{}

func (failingHandler) HandleEvent(ctx context.Context, event Event) error {
	return errors.New("notifications table unavailable")
}

func TestFollow_NotificationFailureRollsBackEdgeAndCounts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice, bob := env.register(t, "alice"), env.register(t, "bob")
	graph := NewGraphService(env.db, env.users, env.follows, failingHandler{}, env.publisher, env.projector, logger.NewNopLogger(), time.Second)
	before := env.publisher.Count()

	_, err := graph.Follow(ctx, bob.ID.String(), alice.ID.String())
	require.Error(t, err)
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))

	var edges int64
	require.NoError(t, env.db.DB.Model(&models.Follow{}).Count(&edges).Error)
	assert.Zero(t, edges)
	assert.Zero(t, env.reloadUser(t, alice.ID).FollowersCount)
	assert.Zero(t, env.reloadUser(t, bob.ID).FollowingCount)
	assert.Equal(t, before, env.publisher.Count())

	// 通知恢复后同一关注可以正常完成
	env.follow(t, bob, alice)
	assert.EqualValues(t, 1, env.reloadUser(t, alice.ID).FollowersCount)
}

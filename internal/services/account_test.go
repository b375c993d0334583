package services

import (
	"context"
	"testing"

	"github.com/Soumabha100/X-clone-backend/internal/apperr"
	"github.com/Soumabha100/X-clone-backend/internal/models"
	"github.com/Soumabha100/X-clone-backend/pkg/cache"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeleteAccount_OnlySelf(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice, bob := env.register(t, "alice"), env.register(t, "bob")

	_, err := env.accountService.DeleteAccount(ctx, bob.ID.String(), alice.ID.String())
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
	assert.NotNil(t, env.reloadUser(t, alice.ID))

	_, err = env.accountService.DeleteAccount(ctx, bob.ID.String(), "not-a-uuid")
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	ghost := uuid.NewString()
	_, err = env.accountService.DeleteAccount(ctx, ghost, ghost)
	assert.ErrorIs(t, err, apperr.ErrUserNotFound)
}

func TestDeleteAccount_RemovesEveryReference(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice, bob, carol := env.register(t, "alice"), env.register(t, "bob"), env.register(t, "carol")

	bobPost := env.createPost(t, bob, "bob's post")
	alicePost := env.createPost(t, alice, "alice's post")

	env.follow(t, bob, alice)
	env.follow(t, carol, bob)
	env.follow(t, alice, carol)
	for _, p := range []*PostView{bobPost, alicePost} {
		_, err := env.engagementService.ToggleLike(ctx, carol.ID.String(), p.ID.String())
		require.NoError(t, err)
	}
	_, err := env.engagementService.ToggleLike(ctx, bob.ID.String(), alicePost.ID.String())
	require.NoError(t, err)
	_, err = env.engagementService.ToggleRetweet(ctx, bob.ID.String(), alicePost.ID.String())
	require.NoError(t, err)
	_, err = env.engagementService.ToggleBookmark(ctx, bob.ID.String(), alicePost.ID.String())
	require.NoError(t, err)
	_, err = env.engagementService.ToggleBookmark(ctx, alice.ID.String(), bobPost.ID.String())
	require.NoError(t, err)
	_, err = env.engagementService.AddComment(ctx, bob.ID.String(), alicePost.ID.String(), &CreateCommentRequest{Content: "from bob"})
	require.NoError(t, err)

	result, err := env.accountService.DeleteAccount(ctx, bob.ID.String(), bob.ID.String())
	require.NoError(t, err)
	assert.True(t, result.UserDeleted)
	assert.EqualValues(t, 1, result.Posts)
	assert.EqualValues(t, 2, result.Follows)

	checks := []struct {
		model interface{}
		where string
	}{
		{&models.User{}, "id = ?"},
		{&models.Post{}, "user_id = ?"},
		{&models.Follow{}, "follower_id = ? OR following_id = ?"},
		{&models.Like{}, "user_id = ?"},
		{&models.Retweet{}, "user_id = ?"},
		{&models.Bookmark{}, "user_id = ?"},
		{&models.Notification{}, "from_user_id = ? OR to_user_id = ?"},
	}
	for _, c := range checks {
		args := []interface{}{bob.ID}
		if c.where == "follower_id = ? OR following_id = ?" || c.where == "from_user_id = ? OR to_user_id = ?" {
			args = append(args, bob.ID)
		}
		var n int64
		require.NoError(t, env.db.DB.Model(c.model).Where(c.where, args...).Count(&n).Error)
		assert.Zero(t, n, "%T still references the deleted user", c.model)
	}

	// bob 帖子上的点赞和 alice 对它的收藏也被清理
	var n int64
	require.NoError(t, env.db.DB.Model(&models.Like{}).Where("post_id = ?", bobPost.ID).Count(&n).Error)
	assert.Zero(t, n)
	aliceView, err := env.userService.GetProfile(ctx, alice.ID.String(), alice.ID.String())
	require.NoError(t, err)
	assert.Empty(t, aliceView.Bookmarks)
	assert.Empty(t, aliceView.Followers)
	assert.Equal(t, []uuid.UUID{carol.ID}, aliceView.Following)
	assert.EqualValues(t, 0, aliceView.FollowersCount)

	carolView, err := env.userService.GetProfile(ctx, carol.ID.String(), carol.ID.String())
	require.NoError(t, err)
	assert.Empty(t, carolView.Following)
	assert.EqualValues(t, 0, carolView.FollowingCount)

	post, err := env.feedService.GetPostByID(ctx, alicePost.ID.String())
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{carol.ID}, post.LikedBy)
	assert.Empty(t, post.RetweetedBy)
	require.Len(t, post.Comments, 1)
	assert.Nil(t, post.Comments[0].Author.Username)
}

func TestDeleteAccount_RevokesSessionsAndRecordsStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	bob := env.register(t, "bob")

	_, err := env.accountService.DeleteAccount(ctx, bob.ID.String(), bob.ID.String())
	require.NoError(t, err)

	_, revoked, err := env.sessions.RevokedAt(ctx, bob.ID)
	require.NoError(t, err)
	assert.True(t, revoked)

	status, err := env.statuses.Get(ctx, bob.ID)
	require.NoError(t, err)
	require.NotNil(t, status)
	assert.Equal(t, cache.CascadeCompleted, status.Status)

	_, err = env.accountService.DeleteAccount(ctx, bob.ID.String(), bob.ID.String())
	assert.ErrorIs(t, err, apperr.ErrUserNotFound)
}

package services

import (
	"context"
	"testing"

	"github.com/Soumabha100/X-clone-backend/internal/apperr"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedRecency_RetweetResurfacesInPersonalFeedOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	viewer, author, retweeter := env.register(t, "viewer"), env.register(t, "author"), env.register(t, "retweeter")
	env.follow(t, viewer, author)
	env.follow(t, viewer, retweeter)

	p1 := env.createPost(t, author, "older")
	p2 := env.createPost(t, author, "newer")

	_, err := env.engagementService.ToggleRetweet(ctx, retweeter.ID.String(), p1.ID.String())
	require.NoError(t, err)

	personal, err := env.feedService.PersonalFeed(ctx, viewer.ID.String())
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{p1.ID, p2.ID}, ids(personal))

	following, err := env.feedService.FollowingFeed(ctx, viewer.ID.String())
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{p2.ID, p1.ID}, ids(following))

	public, err := env.feedService.PublicFeed(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{p1.ID, p2.ID}, ids(public))

	byAuthor, err := env.feedService.AuthorFeed(ctx, author.ID.String())
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{p2.ID, p1.ID}, ids(byAuthor))
}

func TestPersonalFeed_UnionAndOwnPostExclusion(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	viewer, followee, stranger := env.register(t, "viewer"), env.register(t, "followee"), env.register(t, "stranger")
	env.follow(t, viewer, followee)

	own := env.createPost(t, viewer, "mine")
	strangerPost := env.createPost(t, stranger, "stranger")
	viewerRetweet := env.createPost(t, stranger, "viewer retweets this")
	followeePost := env.createPost(t, followee, "followee")

	_, err := env.engagementService.ToggleRetweet(ctx, viewer.ID.String(), viewerRetweet.ID.String())
	require.NoError(t, err)

	feed, err := env.feedService.PersonalFeed(ctx, viewer.ID.String())
	require.NoError(t, err)
	got := ids(feed)
	assert.Equal(t, []uuid.UUID{viewerRetweet.ID, followeePost.ID}, got)
	assert.NotContains(t, got, own.ID)
	assert.NotContains(t, got, strangerPost.ID)
}

func TestFeed_MissingAuthorDegradesToNullProjection(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice, bob := env.register(t, "alice"), env.register(t, "bob")
	post := env.createPost(t, alice, "hello")

	_, err := env.engagementService.AddComment(ctx, bob.ID.String(), post.ID.String(), &CreateCommentRequest{Content: "hi alice"})
	require.NoError(t, err)

	_, err = env.accountService.DeleteAccount(ctx, bob.ID.String(), bob.ID.String())
	require.NoError(t, err)

	view, err := env.feedService.GetPostByID(ctx, post.ID.String())
	require.NoError(t, err)
	require.NotNil(t, view.Author.Name)
	assert.Equal(t, "alice", *view.Author.Name)

	require.Len(t, view.Comments, 1)
	assert.Equal(t, bob.ID, view.Comments[0].Author.ID)
	assert.Nil(t, view.Comments[0].Author.Name)
	assert.Nil(t, view.Comments[0].Author.Username)
	assert.Nil(t, view.Comments[0].Author.ProfileImageURL)
}

func TestAuthorFeed_UnknownAuthor(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.feedService.AuthorFeed(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, apperr.ErrUserNotFound)

	_, err = env.feedService.GetPostByID(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, apperr.ErrPostNotFound)
}

func TestFeeds_EmptyAreNonNil(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "alice")

	feed, err := env.feedService.PersonalFeed(context.Background(), alice.ID.String())
	require.NoError(t, err)
	assert.NotNil(t, feed)
	assert.Empty(t, feed)
}

package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/social-core/internal/model"
)

func TestCreatePostValidation(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	alice := e.addUser(t, "alice")

	_, err := e.postSvc.Create(ctx, nil, CreatePostInput{Message: "hi", Privacy: model.PrivacyPublic})
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = e.postSvc.Create(ctx, &alice, CreatePostInput{Message: "   ", Privacy: model.PrivacyPublic})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = e.postSvc.Create(ctx, &alice, CreatePostInput{Message: "hi", Privacy: "everyone"})
	assert.ErrorIs(t, err, ErrValidation)

	id, err := e.postSvc.Create(ctx, &alice, CreatePostInput{Message: "hi", Privacy: model.PrivacyPublic})
	require.NoError(t, err)
	assert.NotEmpty(t, id)
}

// 点赞开关:计数始终等于边的数量
func TestToggleLikeCounter(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	alice := e.addUser(t, "alice")
	bob := e.addUser(t, "bob")
	carol := e.addUser(t, "carol")
	postID := e.addPost(t, alice, model.PrivacyPublic, "hello")

	liked, err := e.postSvc.ToggleLike(ctx, &bob, postID)
	require.NoError(t, err)
	assert.True(t, liked)
	assert.EqualValues(t, 1, e.likesCount(t, postID))

	liked, err = e.postSvc.ToggleLike(ctx, &carol, postID)
	require.NoError(t, err)
	assert.True(t, liked)
	assert.EqualValues(t, 2, e.likesCount(t, postID))

	// second toggle from the same user removes the like
	liked, err = e.postSvc.ToggleLike(ctx, &bob, postID)
	require.NoError(t, err)
	assert.False(t, liked)
	assert.EqualValues(t, 1, e.likesCount(t, postID))

	liked, err = e.postSvc.ToggleLike(ctx, &bob, postID)
	require.NoError(t, err)
	assert.True(t, liked)
	assert.EqualValues(t, 2, e.likesCount(t, postID))

	edges := e.rowCount(t, &model.PostLike{}, "post_id = ?", postID)
	assert.EqualValues(t, e.likesCount(t, postID), edges)
}

func TestToggleLikePrivatePost(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	alice := e.addUser(t, "alice")
	bob := e.addUser(t, "bob")
	postID := e.addPost(t, alice, model.PrivacyPrivate, "secret")

	_, err := e.postSvc.ToggleLike(ctx, &bob, postID)
	assert.ErrorIs(t, err, ErrNotAuthorized)

	liked, err := e.postSvc.ToggleLike(ctx, &alice, postID)
	require.NoError(t, err)
	assert.True(t, liked)

	_, err = e.postSvc.ToggleLike(ctx, &bob, "no-such-post")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeletePostCascade(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	alice := e.addUser(t, "alice")
	bob := e.addUser(t, "bob")
	postID := e.addPost(t, alice, model.PrivacyPublic, "doomed")
	keptID := e.addPost(t, alice, model.PrivacyPublic, "kept")

	_, err := e.postSvc.ToggleLike(ctx, &bob, postID)
	require.NoError(t, err)

	rootID, err := e.commentSvc.Add(ctx, &bob, AddCommentInput{PostID: postID, Content: "root"})
	require.NoError(t, err)
	replyID, err := e.commentSvc.Add(ctx, &alice, AddCommentInput{PostID: postID, Content: "reply", ParentCommentID: &rootID})
	require.NoError(t, err)
	_, err = e.commentSvc.ToggleLike(ctx, &alice, replyID)
	require.NoError(t, err)

	keptCommentID, err := e.commentSvc.Add(ctx, &bob, AddCommentInput{PostID: keptID, Content: "survives"})
	require.NoError(t, err)

	// only the author may delete
	err = e.postSvc.Delete(ctx, &bob, postID)
	assert.ErrorIs(t, err, ErrNotAuthorized)

	require.NoError(t, e.postSvc.Delete(ctx, &alice, postID))

	p, err := e.posts.GetByID(ctx, postID)
	require.NoError(t, err)
	assert.Nil(t, p)
	assert.EqualValues(t, 0, e.rowCount(t, &model.PostLike{}, "post_id = ?", postID))
	assert.EqualValues(t, 0, e.rowCount(t, &model.Comment{}, "post_id = ?", postID))
	assert.EqualValues(t, 0, e.rowCount(t, &model.CommentLike{}, "comment_id IN ?", []string{rootID, replyID}))

	// unrelated post untouched
	assert.EqualValues(t, 1, e.rowCount(t, &model.Comment{}, "id = ?", keptCommentID))
	assert.EqualValues(t, 1, e.commentsCount(t, keptID))
}

func TestFeedPrivacyFiltering(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	alice := e.addUser(t, "alice")
	bob := e.addUser(t, "bob")
	stranger := e.addUser(t, "carol")

	pubID := e.addPost(t, alice, model.PrivacyPublic, "public")
	friendsID := e.addPost(t, alice, model.PrivacyFriends, "friends only")
	privID := e.addPost(t, alice, model.PrivacyPrivate, "private")

	ids := func(page *PostPage) map[string]bool {
		out := map[string]bool{}
		for _, v := range page.Items {
			out[v.ID] = true
		}
		return out
	}

	// anonymous: public only
	page, err := e.postSvc.Feed(ctx, nil, "", 50)
	require.NoError(t, err)
	got := ids(page)
	assert.True(t, got[pubID])
	assert.False(t, got[friendsID])
	assert.False(t, got[privID])

	// stranger: public only
	page, err = e.postSvc.Feed(ctx, &stranger, "", 50)
	require.NoError(t, err)
	got = ids(page)
	assert.True(t, got[pubID])
	assert.False(t, got[friendsID])
	assert.False(t, got[privID])

	// accepted friend: public + friends, never private
	e.befriend(t, bob, alice)
	page, err = e.postSvc.Feed(ctx, &bob, "", 50)
	require.NoError(t, err)
	got = ids(page)
	assert.True(t, got[pubID])
	assert.True(t, got[friendsID])
	assert.False(t, got[privID])

	// the author sees everything of their own
	page, err = e.postSvc.Feed(ctx, &alice, "", 50)
	require.NoError(t, err)
	got = ids(page)
	assert.True(t, got[pubID] && got[friendsID] && got[privID])
}

func TestFeedPaginationStable(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	alice := e.addUser(t, "alice")
	want := make([]string, 0, 7)
	for i := 0; i < 7; i++ {
		want = append(want, e.addPost(t, alice, model.PrivacyPublic, uniqueName("post", i)))
	}

	var walked []string
	cursor := ""
	for {
		page, err := e.postSvc.Feed(ctx, &alice, cursor, 3)
		require.NoError(t, err)
		for _, v := range page.Items {
			walked = append(walked, v.ID)
		}
		if !page.HasMore {
			assert.Nil(t, page.NextCursor)
			break
		}
		require.NotNil(t, page.NextCursor)
		cursor = *page.NextCursor
	}

	single, err := e.postSvc.Feed(ctx, &alice, "", 100)
	require.NoError(t, err)
	require.Len(t, walked, len(want))
	require.Len(t, single.Items, len(want))
	for i, v := range single.Items {
		assert.Equal(t, v.ID, walked[i])
	}
	// newest first
	assert.Equal(t, want[len(want)-1], walked[0])

	_, err = e.postSvc.Feed(ctx, &alice, "not-a-cursor", 3)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestDeepViewPrivacy(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	alice := e.addUser(t, "alice")
	bob := e.addUser(t, "bob")
	privID := e.addPost(t, alice, model.PrivacyPrivate, "secret")

	// invisible and missing are indistinguishable
	view, err := e.postSvc.DeepView(ctx, &bob, privID)
	require.NoError(t, err)
	assert.Nil(t, view)
	view, err = e.postSvc.DeepView(ctx, &bob, "no-such-post")
	require.NoError(t, err)
	assert.Nil(t, view)

	view, err = e.postSvc.DeepView(ctx, &alice, privID)
	require.NoError(t, err)
	require.NotNil(t, view)
	assert.Equal(t, "secret", view.Message)
	require.NotNil(t, view.Author)
	assert.Equal(t, "alice", view.Author.Username)
}

func TestDeepViewSharedPost(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	alice := e.addUser(t, "alice")
	bob := e.addUser(t, "bob")
	carol := e.addUser(t, "carol")
	privID := e.addPost(t, alice, model.PrivacyPrivate, "inner")

	shareID, err := e.postSvc.Create(ctx, &bob, CreatePostInput{
		Message:      "look at this",
		Privacy:      model.PrivacyPublic,
		SharedPostID: &privID,
	})
	require.NoError(t, err)

	// the wrapper is public but the shared target stays gated per viewer
	view, err := e.postSvc.DeepView(ctx, &carol, shareID)
	require.NoError(t, err)
	require.NotNil(t, view)
	assert.Nil(t, view.SharedPost)

	view, err = e.postSvc.DeepView(ctx, &alice, shareID)
	require.NoError(t, err)
	require.NotNil(t, view)
	require.NotNil(t, view.SharedPost)
	assert.Equal(t, "inner", view.SharedPost.Message)

	// dangling reference resolves to nothing
	require.NoError(t, e.postSvc.Delete(ctx, &alice, privID))
	view, err = e.postSvc.DeepView(ctx, &alice, shareID)
	require.NoError(t, err)
	require.NotNil(t, view)
	assert.Nil(t, view.SharedPost)
}

func TestUpdatePost(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	alice := e.addUser(t, "alice")
	bob := e.addUser(t, "bob")
	postID := e.addPost(t, alice, model.PrivacyPublic, "v1")

	err := e.postSvc.Update(ctx, &bob, postID, "v2", model.PrivacyPublic)
	assert.ErrorIs(t, err, ErrNotAuthorized)

	require.NoError(t, e.postSvc.Update(ctx, &alice, postID, "v2", model.PrivacyFriends))
	p, err := e.posts.GetByID(ctx, postID)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "v2", p.Message)
	assert.Equal(t, model.PrivacyFriends, p.Privacy)

	err = e.postSvc.Update(ctx, &alice, "no-such-post", "v3", model.PrivacyPublic)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestFeedIsLikedFlag(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	alice := e.addUser(t, "alice")
	bob := e.addUser(t, "bob")
	likedID := e.addPost(t, alice, model.PrivacyPublic, "liked one")
	e.addPost(t, alice, model.PrivacyPublic, "plain one")

	_, err := e.postSvc.ToggleLike(ctx, &bob, likedID)
	require.NoError(t, err)

	page, err := e.postSvc.Feed(ctx, &bob, "", 10)
	require.NoError(t, err)
	for _, v := range page.Items {
		assert.Equal(t, v.ID == likedID, v.IsLiked)
	}
}

func TestUserPosts(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	alice := e.addUser(t, "alice")
	bob := e.addUser(t, "bob")
	e.addPost(t, alice, model.PrivacyPublic, "a public")
	e.addPost(t, alice, model.PrivacyPrivate, "a private")
	e.addPost(t, bob, model.PrivacyPublic, "b public")

	page, err := e.postSvc.UserPosts(ctx, &bob, alice, "", 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "a public", page.Items[0].Message)

	page, err = e.postSvc.UserPosts(ctx, &alice, alice, "", 10)
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
}

package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/d60-Lab/social-core/internal/model"
	"github.com/d60-Lab/social-core/internal/repository"
)

type testEnv struct {
	db          *gorm.DB
	users       repository.UserRepository
	posts       repository.PostRepository
	comments    repository.CommentRepository
	friendships repository.FriendshipRepository
	chat        repository.ChatRepository

	userSvc       UserService
	postSvc       PostService
	commentSvc    CommentService
	friendshipSvc FriendshipService
	chatSvc       ChatService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// one shared connection so every query sees the same in-memory DB
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.Post{}, &model.PostLike{},
		&model.Comment{}, &model.CommentLike{},
		&model.Friendship{},
		&model.ChatRoom{}, &model.ChatRoomMember{}, &model.ChatMessage{}, &model.LastMessageSeen{},
	))

	e := &testEnv{
		db:          db,
		users:       repository.NewUserRepository(db),
		posts:       repository.NewPostRepository(db),
		comments:    repository.NewCommentRepository(db),
		friendships: repository.NewFriendshipRepository(db),
		chat:        repository.NewChatRepository(db),
	}
	e.userSvc = NewUserService(e.users)
	e.postSvc = NewPostService(e.posts, e.users, e.friendships)
	e.commentSvc = NewCommentService(e.comments, e.posts, e.users, e.friendships)
	e.friendshipSvc = NewFriendshipService(e.friendships, e.users, nil)
	e.chatSvc = NewChatService(e.chat, e.users)
	return e
}

func (e *testEnv) addUser(t *testing.T, username string) string {
	t.Helper()
	u := &model.User{
		Name:            username,
		Email:           username + "@example.com",
		Username:        username,
		TokenIdentifier: "token|" + username,
		ActivityStatus:  model.ActivityVisible,
	}
	require.NoError(t, e.users.Create(context.Background(), u))
	return u.ID
}

func (e *testEnv) addPost(t *testing.T, authorID, privacy, message string) string {
	t.Helper()
	id, err := e.postSvc.Create(context.Background(), &authorID, CreatePostInput{
		Message: message,
		Privacy: privacy,
	})
	require.NoError(t, err)
	return id
}

// befriend drives both sides of the toggle so the pair ends up accepted.
func (e *testEnv) befriend(t *testing.T, a, b string) {
	t.Helper()
	require.NoError(t, e.friendshipSvc.Toggle(context.Background(), &a, b))
	require.NoError(t, e.friendshipSvc.Toggle(context.Background(), &b, a))
}

func (e *testEnv) likesCount(t *testing.T, postID string) int64 {
	t.Helper()
	p, err := e.posts.GetByID(context.Background(), postID)
	require.NoError(t, err)
	require.NotNil(t, p)
	return p.LikesCount
}

func (e *testEnv) commentsCount(t *testing.T, postID string) int64 {
	t.Helper()
	p, err := e.posts.GetByID(context.Background(), postID)
	require.NoError(t, err)
	require.NotNil(t, p)
	return p.CommentsCount
}

func (e *testEnv) rowCount(t *testing.T, mdl interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var cnt int64
	require.NoError(t, e.db.Model(mdl).Where(query, args...).Count(&cnt).Error)
	return cnt
}

func uniqueName(prefix string, i int) string { return fmt.Sprintf("%s%02d", prefix, i) }

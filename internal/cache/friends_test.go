package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/d60-Lab/social-core/internal/model"
	"github.com/d60-Lab/social-core/internal/repository"
)

func setupFriendCache(t *testing.T) (*FriendSetCache, repository.FriendshipRepository, *miniredis.Miniredis) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&model.User{}, &model.Friendship{}))

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	repo := repository.NewFriendshipRepository(db)
	return NewFriendSetCache(repo, client, time.Minute), repo, mr
}

func accept(t *testing.T, repo repository.FriendshipRepository, a, b string) {
	t.Helper()
	ctx := context.Background()
	edge, _, err := repo.Create(ctx, a, b)
	require.NoError(t, err)
	require.NoError(t, repo.Accept(ctx, edge.ID, time.Now()))
}

func TestFriendSetCacheHit(t *testing.T) {
	c, repo, _ := setupFriendCache(t)
	ctx := context.Background()
	accept(t, repo, "alice", "bob")

	ids, err := c.AcceptedFriendIDs(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, ids)

	// a DB write without invalidation is not observed: the set is cached
	accept(t, repo, "alice", "carol")
	ids, err = c.AcceptedFriendIDs(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, ids)

	require.NoError(t, c.Invalidate(ctx, "alice"))
	ids, err = c.AcceptedFriendIDs(ctx, "alice")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"bob", "carol"}, ids)
}

func TestFriendSetCacheEmptySet(t *testing.T) {
	c, repo, mr := setupFriendCache(t)
	ctx := context.Background()

	ids, err := c.AcceptedFriendIDs(ctx, "loner")
	require.NoError(t, err)
	assert.Empty(t, ids)
	// the empty result is cached via the sentinel, not re-queried
	assert.True(t, mr.Exists("friends:accepted:loner"))

	accept(t, repo, "loner", "newfriend")
	ids, err = c.AcceptedFriendIDs(ctx, "loner")
	require.NoError(t, err)
	assert.Empty(t, ids)

	require.NoError(t, c.Invalidate(ctx, "loner"))
	ids, err = c.AcceptedFriendIDs(ctx, "loner")
	require.NoError(t, err)
	assert.Equal(t, []string{"newfriend"}, ids)
}

func TestFriendSetCacheExpiry(t *testing.T) {
	c, repo, mr := setupFriendCache(t)
	ctx := context.Background()
	accept(t, repo, "alice", "bob")

	_, err := c.AcceptedFriendIDs(ctx, "alice")
	require.NoError(t, err)

	accept(t, repo, "alice", "carol")
	mr.FastForward(2 * time.Minute)

	ids, err := c.AcceptedFriendIDs(ctx, "alice")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"bob", "carol"}, ids)
}

func TestInvalidateNoop(t *testing.T) {
	c, _, _ := setupFriendCache(t)
	assert.NoError(t, c.Invalidate(context.Background()))
}

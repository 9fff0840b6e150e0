package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/social-core/internal/model"
	"github.com/d60-Lab/social-core/internal/repository"
)

// 好友关系状态机:none -> pending -> (取消|接受) -> accepted -> removed
func TestFriendshipStateMachine(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	alice := e.addUser(t, "alice")
	bob := e.addUser(t, "bob")

	// none -> pending, alice is the requester
	require.NoError(t, e.friendshipSvc.Toggle(ctx, &alice, bob))
	edge, err := e.friendshipSvc.Get(ctx, &alice, bob)
	require.NoError(t, err)
	require.NotNil(t, edge)
	assert.Equal(t, model.FriendshipPending, edge.Status)
	assert.Equal(t, alice, edge.UserID)
	assert.Nil(t, edge.AcceptedAt)

	// requester toggles again: request cancelled
	require.NoError(t, e.friendshipSvc.Toggle(ctx, &alice, bob))
	edge, err = e.friendshipSvc.Get(ctx, &alice, bob)
	require.NoError(t, err)
	assert.Nil(t, edge)

	// pending again, then the recipient accepts
	require.NoError(t, e.friendshipSvc.Toggle(ctx, &alice, bob))
	require.NoError(t, e.friendshipSvc.Toggle(ctx, &bob, alice))
	edge, err = e.friendshipSvc.Get(ctx, &bob, alice)
	require.NoError(t, err)
	require.NotNil(t, edge)
	assert.Equal(t, model.FriendshipAccepted, edge.Status)
	assert.NotNil(t, edge.AcceptedAt)

	// accepted pairs reject further toggles from either side
	assert.ErrorIs(t, e.friendshipSvc.Toggle(ctx, &alice, bob), ErrAlreadyFriends)
	assert.ErrorIs(t, e.friendshipSvc.Toggle(ctx, &bob, alice), ErrAlreadyFriends)

	// either side may remove
	require.NoError(t, e.friendshipSvc.Remove(ctx, &bob, alice))
	edge, err = e.friendshipSvc.Get(ctx, &alice, bob)
	require.NoError(t, err)
	assert.Nil(t, edge)
	assert.ErrorIs(t, e.friendshipSvc.Remove(ctx, &alice, bob), ErrNotFound)
}

func TestFriendshipToggleValidation(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	alice := e.addUser(t, "alice")

	assert.ErrorIs(t, e.friendshipSvc.Toggle(ctx, nil, alice), ErrUnauthenticated)
	assert.ErrorIs(t, e.friendshipSvc.Toggle(ctx, &alice, alice), ErrValidation)
	assert.ErrorIs(t, e.friendshipSvc.Toggle(ctx, &alice, "no-such-user"), ErrNotFound)
}

func TestFriendshipList(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	alice := e.addUser(t, "alice")
	bob := e.addUser(t, "bob")
	carol := e.addUser(t, "carol")
	dave := e.addUser(t, "dave")

	e.befriend(t, alice, bob)
	e.befriend(t, carol, alice) // accepted works from either direction
	// dave stays pending and must not show up
	require.NoError(t, e.friendshipSvc.Toggle(ctx, &dave, alice))

	list, err := e.friendshipSvc.List(ctx, &alice)
	require.NoError(t, err)
	assert.Equal(t, model.ActivityVisible, list.SelfStatus)
	require.Len(t, list.Friends, 2)
	names := map[string]bool{}
	for _, f := range list.Friends {
		require.NotNil(t, f.User)
		names[f.User.Username] = true
		assert.NotNil(t, f.AcceptedAt)
	}
	assert.True(t, names["bob"])
	assert.True(t, names["carol"])
}

// 自己隐身时,看到的所有好友也显示为隐身(对等可见性)
func TestFriendshipListActivityMasking(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	alice := e.addUser(t, "alice")
	bob := e.addUser(t, "bob")
	e.befriend(t, alice, bob)

	list, err := e.friendshipSvc.List(ctx, &alice)
	require.NoError(t, err)
	require.Len(t, list.Friends, 1)
	assert.Equal(t, model.ActivityVisible, list.Friends[0].User.ActivityStatus)

	require.NoError(t, e.userSvc.ToggleActivityStatus(ctx, &alice))

	list, err = e.friendshipSvc.List(ctx, &alice)
	require.NoError(t, err)
	assert.Equal(t, model.ActivityHidden, list.SelfStatus)
	require.Len(t, list.Friends, 1)
	// bob is still visible, but a hidden viewer reads everyone as hidden
	assert.Equal(t, model.ActivityHidden, list.Friends[0].User.ActivityStatus)

	listBob, err := e.friendshipSvc.List(ctx, &bob)
	require.NoError(t, err)
	assert.Equal(t, model.ActivityVisible, listBob.SelfStatus)
	require.Len(t, listBob.Friends, 1)
	assert.Equal(t, model.ActivityHidden, listBob.Friends[0].User.ActivityStatus)
}

// stalePairRepo hides the edge from the first FindPair call, reproducing
// the window where the other side inserts between the lookup and the
// insert. Every other call goes to the real repository.
type stalePairRepo struct {
	repository.FriendshipRepository
	missed bool
}

func (r *stalePairRepo) FindPair(ctx context.Context, a, b string) (*model.Friendship, error) {
	if !r.missed {
		r.missed = true
		return nil, nil
	}
	return r.FriendshipRepository.FindPair(ctx, a, b)
}

// 双方同时发起好友请求:唯一索引仲裁,最终收敛为一条 accepted 边
func TestFriendshipToggleConcurrentBothSides(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	alice := e.addUser(t, "alice")
	bob := e.addUser(t, "bob")

	// each side runs against its own stale view of the pair
	svcA := NewFriendshipService(&stalePairRepo{FriendshipRepository: e.friendships}, e.users, nil)
	svcB := NewFriendshipService(&stalePairRepo{FriendshipRepository: e.friendships}, e.users, nil)

	require.NoError(t, svcA.Toggle(ctx, &alice, bob))
	require.NoError(t, svcB.Toggle(ctx, &bob, alice))

	assert.EqualValues(t, 1, e.rowCount(t, &model.Friendship{}, "pair_key = ?", model.PairKey(alice, bob)))
	edge, err := e.friendshipSvc.Get(ctx, &alice, bob)
	require.NoError(t, err)
	require.NotNil(t, edge)
	assert.Equal(t, model.FriendshipAccepted, edge.Status)
	assert.Equal(t, alice, edge.UserID)
}

package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/social-core/internal/model"
	"github.com/d60-Lab/social-core/internal/repository"
)

func TestEnsureUser(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	_, err := e.userSvc.EnsureUser(ctx, "  ", Profile{})
	assert.ErrorIs(t, err, ErrUnauthenticated)

	// first contact creates the row
	u, err := e.userSvc.EnsureUser(ctx, "idp|alice", Profile{
		Name: "Alice", Email: "alice@example.com", Username: "alice",
	})
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, model.ActivityVisible, u.ActivityStatus)
	assert.NotNil(t, u.LastActivity)

	// same token resolves to the same user
	again, err := e.userSvc.EnsureUser(ctx, "idp|alice", Profile{
		Name: "Alice", Email: "alice@example.com", Username: "alice",
	})
	require.NoError(t, err)
	assert.Equal(t, u.ID, again.ID)
	assert.EqualValues(t, 1, e.rowCount(t, &model.User{}, "token_identifier = ?", "idp|alice"))

	// drifted identity-provider fields get synced down
	synced, err := e.userSvc.EnsureUser(ctx, "idp|alice", Profile{
		Name: "Alice Liddell", Email: "alice@example.com", Username: "alice", Pfp: "http://img/alice.png",
	})
	require.NoError(t, err)
	assert.Equal(t, u.ID, synced.ID)
	assert.Equal(t, "Alice Liddell", synced.Name)
	assert.Equal(t, "http://img/alice.png", synced.Pfp)
}

func TestGetProfile(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	e.addUser(t, "alice")

	p, err := e.userSvc.GetProfile(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", p.Username)

	_, err = e.userSvc.GetProfile(ctx, "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestToggleActivityStatus(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	alice := e.addUser(t, "alice")

	require.NoError(t, e.userSvc.ToggleActivityStatus(ctx, &alice))
	u, err := e.users.GetByID(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, model.ActivityHidden, u.ActivityStatus)

	require.NoError(t, e.userSvc.ToggleActivityStatus(ctx, &alice))
	u, err = e.users.GetByID(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, model.ActivityVisible, u.ActivityStatus)

	assert.ErrorIs(t, e.userSvc.ToggleActivityStatus(ctx, nil), ErrUnauthenticated)
}

func TestHeartbeat(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	alice := e.addUser(t, "alice")

	// anonymous heartbeats are dropped silently
	require.NoError(t, e.userSvc.Heartbeat(ctx, nil))

	require.NoError(t, e.userSvc.Heartbeat(ctx, &alice))
	u, err := e.users.GetByID(ctx, alice)
	require.NoError(t, err)
	require.NotNil(t, u.LastActivity)
}

// staleTokenRepo hides the user from the first GetByToken call,
// reproducing the window where another first contact creates the row
// between the lookup and the insert.
type staleTokenRepo struct {
	repository.UserRepository
	missed bool
}

func (r *staleTokenRepo) GetByToken(ctx context.Context, token string) (*model.User, error) {
	if !r.missed {
		r.missed = true
		return nil, nil
	}
	return r.UserRepository.GetByToken(ctx, token)
}

// 两个首次请求同时到达:输掉插入的一方收敛到已有行,而不是报错
func TestEnsureUserConcurrentFirstContact(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	winner, err := e.userSvc.EnsureUser(ctx, "idp|dana", Profile{
		Name: "Dana", Email: "dana@example.com", Username: "dana",
	})
	require.NoError(t, err)

	svc := NewUserService(&staleTokenRepo{UserRepository: e.users})
	loser, err := svc.EnsureUser(ctx, "idp|dana", Profile{
		Name: "Dana", Email: "dana@example.com", Username: "dana",
	})
	require.NoError(t, err)
	require.NotNil(t, loser)
	assert.Equal(t, winner.ID, loser.ID)
	assert.EqualValues(t, 1, e.rowCount(t, &model.User{}, "token_identifier = ?", "idp|dana"))
}

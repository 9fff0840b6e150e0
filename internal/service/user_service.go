package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/d60-Lab/social-core/internal/model"
	"github.com/d60-Lab/social-core/internal/repository"
	"github.com/d60-Lab/social-core/pkg/logger"
)

// Profile carries the identity provider's view of a user; EnsureUser keeps
// the local row in sync with it.
type Profile struct {
	Name     string
	Email    string
	Username string
	Pfp      string
}

type UserService interface {
	// EnsureUser resolves the local user for an external identity token,
	// creating the row on first authenticated contact and syncing drifted
	// profile fields afterwards.
	EnsureUser(ctx context.Context, tokenIdentifier string, p Profile) (*model.User, error)
	GetProfile(ctx context.Context, username string) (*UserSummary, error)
	ToggleActivityStatus(ctx context.Context, callerID *string) error
	// Heartbeat stamps last activity; silently no-ops without identity.
	Heartbeat(ctx context.Context, callerID *string) error
}

type userService struct {
	users repository.UserRepository
}

func NewUserService(users repository.UserRepository) UserService {
	return &userService{users: users}
}

func (s *userService) EnsureUser(ctx context.Context, tokenIdentifier string, p Profile) (*model.User, error) {
	if strings.TrimSpace(tokenIdentifier) == "" {
		return nil, ErrUnauthenticated
	}
	u, err := s.users.GetByToken(ctx, tokenIdentifier)
	if err != nil {
		return nil, err
	}
	if u != nil {
		fields := map[string]interface{}{}
		if p.Name != "" && p.Name != u.Name {
			fields["name"] = p.Name
		}
		if p.Email != "" && p.Email != u.Email {
			fields["email"] = p.Email
		}
		if p.Username != "" && p.Username != u.Username {
			fields["username"] = p.Username
		}
		if p.Pfp != "" && p.Pfp != u.Pfp {
			fields["pfp"] = p.Pfp
		}
		if len(fields) > 0 {
			if err := s.users.UpdateFields(ctx, u.ID, fields); err != nil {
				return nil, err
			}
			return s.users.GetByID(ctx, u.ID)
		}
		return u, nil
	}

	now := time.Now()
	u = &model.User{
		Name:            p.Name,
		Email:           p.Email,
		Username:        p.Username,
		TokenIdentifier: tokenIdentifier,
		Pfp:             p.Pfp,
		ActivityStatus:  model.ActivityVisible,
		LastActivity:    &now,
	}
	if err := s.users.Create(ctx, u); err != nil {
		// two first contacts can race past the lookup; the token unique
		// index rejects the loser, whose call converges on the winner's row
		existing, lookupErr := s.users.GetByToken(ctx, tokenIdentifier)
		if lookupErr == nil && existing != nil {
			return existing, nil
		}
		return nil, err
	}
	logger.Info("user created on first contact", zap.String("user_id", u.ID), zap.String("username", u.Username))
	return u, nil
}

func (s *userService) GetProfile(ctx context.Context, username string) (*UserSummary, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrNotFound
	}
	return summarize(u), nil
}

func (s *userService) ToggleActivityStatus(ctx context.Context, callerID *string) error {
	if callerID == nil {
		return ErrUnauthenticated
	}
	u, err := s.users.GetByID(ctx, *callerID)
	if err != nil {
		return err
	}
	if u == nil {
		return ErrNotFound
	}
	next := model.ActivityHidden
	if u.ActivityStatus == model.ActivityHidden {
		next = model.ActivityVisible
	}
	return s.users.UpdateFields(ctx, u.ID, map[string]interface{}{"activity_status": next})
}

func (s *userService) Heartbeat(ctx context.Context, callerID *string) error {
	if callerID == nil {
		return nil
	}
	now := time.Now()
	return s.users.UpdateFields(ctx, *callerID, map[string]interface{}{"last_activity": &now})
}

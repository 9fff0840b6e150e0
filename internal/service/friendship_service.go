package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/d60-Lab/social-core/internal/model"
	"github.com/d60-Lab/social-core/internal/repository"
	"github.com/d60-Lab/social-core/pkg/logger"
)

// FriendCacheInvalidator drops cached friend sets after an edge mutation.
// Optional; a nil invalidator is skipped.
type FriendCacheInvalidator interface {
	Invalidate(ctx context.Context, userIDs ...string) error
}

type FriendshipService interface {
	// Toggle drives the pair through the 4-state machine:
	// none -> pending(caller); pending+caller-is-requester -> none;
	// pending+caller-is-recipient -> accepted; accepted -> ErrAlreadyFriends.
	Toggle(ctx context.Context, callerID *string, targetID string) error
	Remove(ctx context.Context, callerID *string, targetID string) error
	Get(ctx context.Context, callerID *string, targetID string) (*model.Friendship, error)
	List(ctx context.Context, callerID *string) (*FriendshipList, error)
}

type friendshipService struct {
	friendships repository.FriendshipRepository
	users       repository.UserRepository
	invalidator FriendCacheInvalidator
}

func NewFriendshipService(friendships repository.FriendshipRepository, users repository.UserRepository, invalidator FriendCacheInvalidator) FriendshipService {
	return &friendshipService{friendships: friendships, users: users, invalidator: invalidator}
}

func (s *friendshipService) Toggle(ctx context.Context, callerID *string, targetID string) error {
	if callerID == nil {
		return ErrUnauthenticated
	}
	if *callerID == targetID {
		return fmt.Errorf("%w: cannot send a friend request to yourself", ErrValidation)
	}
	target, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		return err
	}
	if target == nil {
		return ErrNotFound
	}

	edge, err := s.friendships.FindPair(ctx, *callerID, targetID)
	if err != nil {
		return err
	}
	switch {
	case edge == nil:
		if err := s.createOrConverge(ctx, *callerID, targetID); err != nil {
			return err
		}
	case edge.Status == model.FriendshipAccepted:
		return ErrAlreadyFriends
	case edge.UserID == *callerID:
		// caller is the requester: toggling a pending request cancels it
		if err := s.friendships.DeleteByID(ctx, edge.ID); err != nil {
			return err
		}
	default:
		// caller is the recipient: accept
		if err := s.friendships.Accept(ctx, edge.ID, time.Now()); err != nil {
			return err
		}
		logger.Info("friendship accepted",
			zap.String("requester", edge.UserID), zap.String("recipient", *callerID))
	}
	return s.invalidate(ctx, *callerID, targetID)
}

// createOrConverge requests the friendship. When the insert loses to a
// concurrent request from the other side, both users pressed the button
// at once, so the pair converges to accepted instead of erroring.
func (s *friendshipService) createOrConverge(ctx context.Context, callerID, targetID string) error {
	edge, created, err := s.friendships.Create(ctx, callerID, targetID)
	if err != nil {
		return err
	}
	if created || edge == nil {
		return nil
	}
	if edge.Status == model.FriendshipPending && edge.UserID != callerID {
		return s.friendships.Accept(ctx, edge.ID, time.Now())
	}
	return nil
}

func (s *friendshipService) Remove(ctx context.Context, callerID *string, targetID string) error {
	if callerID == nil {
		return ErrUnauthenticated
	}
	edge, err := s.friendships.FindPair(ctx, *callerID, targetID)
	if err != nil {
		return err
	}
	if edge == nil {
		return ErrNotFound
	}
	if err := s.friendships.DeleteByID(ctx, edge.ID); err != nil {
		return err
	}
	return s.invalidate(ctx, *callerID, targetID)
}

func (s *friendshipService) Get(ctx context.Context, callerID *string, targetID string) (*model.Friendship, error) {
	if callerID == nil {
		return nil, ErrUnauthenticated
	}
	return s.friendships.FindPair(ctx, *callerID, targetID)
}

// List returns accepted friendships resolved to the other party. When the
// caller hides their own activity, every friend's status reads hidden too
// (reciprocity: you cannot watch others while invisible yourself).
func (s *friendshipService) List(ctx context.Context, callerID *string) (*FriendshipList, error) {
	if callerID == nil {
		return nil, ErrUnauthenticated
	}
	self, err := s.users.GetByID(ctx, *callerID)
	if err != nil {
		return nil, err
	}
	if self == nil {
		return nil, ErrNotFound
	}
	edges, err := s.friendships.ListAccepted(ctx, *callerID)
	if err != nil {
		return nil, err
	}

	otherIDs := make([]string, 0, len(edges))
	for _, e := range edges {
		if e.UserID == *callerID {
			otherIDs = append(otherIDs, e.FriendID)
		} else {
			otherIDs = append(otherIDs, e.UserID)
		}
	}
	others, err := s.users.GetByIDs(ctx, otherIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*model.User, len(others))
	for _, u := range others {
		byID[u.ID] = u
	}

	list := &FriendshipList{SelfStatus: self.ActivityStatus, Friends: make([]*FriendView, 0, len(edges))}
	for i, e := range edges {
		u := byID[otherIDs[i]]
		if u == nil {
			continue
		}
		summary := summarize(u)
		if self.ActivityStatus == model.ActivityHidden {
			summary.ActivityStatus = model.ActivityHidden
		}
		list.Friends = append(list.Friends, &FriendView{
			FriendshipID: e.ID,
			User:         summary,
			AcceptedAt:   e.AcceptedAt,
		})
	}
	return list, nil
}

func (s *friendshipService) invalidate(ctx context.Context, userIDs ...string) error {
	if s.invalidator == nil {
		return nil
	}
	if err := s.invalidator.Invalidate(ctx, userIDs...); err != nil {
		logger.Warn("friend cache invalidation failed", zap.Error(err))
	}
	return nil
}

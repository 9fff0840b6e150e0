package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/d60-Lab/social-core/internal/model"
	"github.com/d60-Lab/social-core/internal/repository"
	"github.com/d60-Lab/social-core/pkg/pagination"
)

type ChatService interface {
	// GetOrCreateDirectRoom returns the existing 2-party room for
	// {caller, target} or creates one. Calling it repeatedly, from either
	// side, yields the same room id.
	GetOrCreateDirectRoom(ctx context.Context, callerID *string, targetID string) (string, error)
	// CreateRoom makes a group room (2+ parties including the caller),
	// deduplicated on the exact party set.
	CreateRoom(ctx context.Context, callerID *string, targetIDs []string) (string, error)
	SendMessage(ctx context.Context, callerID *string, roomID, content string) (string, error)
	// MarkSeen advances the caller's read marker to messageID. Markers only
	// move forward: pointing at a message older than the current marker is
	// a no-op.
	MarkSeen(ctx context.Context, callerID *string, roomID, messageID string) error
	ListRooms(ctx context.Context, callerID *string) ([]*RoomView, error)
	GetRoom(ctx context.Context, callerID *string, roomID string) (*RoomView, error)
	Messages(ctx context.Context, callerID *string, roomID, cursor string, size int) (*MessagePage, error)
	LastSeen(ctx context.Context, callerID *string, roomID string, partyIDs []string) ([]*model.LastMessageSeen, error)
}

type chatService struct {
	chat  repository.ChatRepository
	users repository.UserRepository
}

func NewChatService(chat repository.ChatRepository, users repository.UserRepository) ChatService {
	return &chatService{chat: chat, users: users}
}

func (s *chatService) GetOrCreateDirectRoom(ctx context.Context, callerID *string, targetID string) (string, error) {
	if callerID == nil {
		return "", ErrUnauthenticated
	}
	if *callerID == targetID {
		return "", fmt.Errorf("%w: cannot open a chat with yourself", ErrValidation)
	}
	target, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		return "", err
	}
	if target == nil {
		return "", ErrNotFound
	}

	room, err := s.chat.GetDirectRoom(ctx, *callerID, targetID)
	if err != nil {
		return "", err
	}
	if room == nil {
		room, err = s.chat.CreateDirectRoom(ctx, *callerID, targetID)
		if err != nil {
			return "", err
		}
	}
	return room.ID, nil
}

func (s *chatService) CreateRoom(ctx context.Context, callerID *string, targetIDs []string) (string, error) {
	if callerID == nil {
		return "", ErrUnauthenticated
	}
	if len(targetIDs) == 0 {
		return "", fmt.Errorf("%w: at least one other party is required", ErrValidation)
	}
	parties := dedupe(append([]string{*callerID}, targetIDs...))
	if len(parties) < 2 {
		return "", fmt.Errorf("%w: at least one other party is required", ErrValidation)
	}
	// a 2-party room is a direct room and must carry the pair key,
	// otherwise a later GetOrCreateDirectRoom for the same pair forks it
	if len(parties) == 2 {
		other := parties[0]
		if other == *callerID {
			other = parties[1]
		}
		return s.GetOrCreateDirectRoom(ctx, callerID, other)
	}

	roomIDs, err := s.chat.RoomIDsOfUser(ctx, *callerID)
	if err != nil {
		return "", err
	}
	for _, roomID := range roomIDs {
		room, err := s.chat.GetRoom(ctx, roomID)
		if err != nil {
			return "", err
		}
		if room == nil || room.PartyCount != len(parties) {
			continue
		}
		members, err := s.chat.MemberIDs(ctx, roomID)
		if err != nil {
			return "", err
		}
		if containsAll(members, parties...) {
			return roomID, nil
		}
	}

	room, err := s.chat.CreateRoom(ctx, parties)
	if err != nil {
		return "", err
	}
	return room.ID, nil
}

func (s *chatService) SendMessage(ctx context.Context, callerID *string, roomID, content string) (string, error) {
	if callerID == nil {
		return "", ErrUnauthenticated
	}
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("%w: content is required", ErrValidation)
	}
	if err := s.requireMember(ctx, roomID, *callerID); err != nil {
		return "", err
	}
	m := &model.ChatMessage{RoomID: roomID, AuthorID: *callerID, Content: content}
	if err := s.chat.CreateMessage(ctx, m); err != nil {
		return "", err
	}
	return m.ID, nil
}

func (s *chatService) MarkSeen(ctx context.Context, callerID *string, roomID, messageID string) error {
	if callerID == nil {
		return ErrUnauthenticated
	}
	if err := s.requireMember(ctx, roomID, *callerID); err != nil {
		return err
	}
	msg, err := s.chat.GetMessage(ctx, messageID)
	if err != nil {
		return err
	}
	if msg == nil || msg.RoomID != roomID {
		return ErrNotFound
	}
	current, err := s.chat.GetLastSeen(ctx, roomID, *callerID)
	if err != nil {
		return err
	}
	if current != nil {
		cur, err := s.chat.GetMessage(ctx, current.MessageID)
		if err != nil {
			return err
		}
		// read markers never regress to an older message
		if cur != nil && newerThan(cur, msg) {
			return nil
		}
	}
	return s.chat.UpsertLastSeen(ctx, roomID, *callerID, messageID)
}

func (s *chatService) ListRooms(ctx context.Context, callerID *string) ([]*RoomView, error) {
	if callerID == nil {
		return nil, ErrUnauthenticated
	}
	roomIDs, err := s.chat.RoomIDsOfUser(ctx, *callerID)
	if err != nil {
		return nil, err
	}
	views := make([]*RoomView, 0, len(roomIDs))
	for _, roomID := range roomIDs {
		view, err := s.roomView(ctx, *callerID, roomID)
		if err != nil {
			return nil, err
		}
		if view != nil {
			views = append(views, view)
		}
	}
	return views, nil
}

func (s *chatService) GetRoom(ctx context.Context, callerID *string, roomID string) (*RoomView, error) {
	if callerID == nil {
		return nil, ErrUnauthenticated
	}
	room, err := s.chat.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, ErrNotFound
	}
	if err := s.requireMember(ctx, roomID, *callerID); err != nil {
		return nil, err
	}
	return s.roomView(ctx, *callerID, roomID)
}

func (s *chatService) Messages(ctx context.Context, callerID *string, roomID, cursor string, size int) (*MessagePage, error) {
	if callerID == nil {
		return nil, ErrUnauthenticated
	}
	room, err := s.chat.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, ErrNotFound
	}
	if err := s.requireMember(ctx, roomID, *callerID); err != nil {
		return nil, err
	}
	cur, err := pagination.Decode(cursor)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	size = pagination.NormalizeSize(size, defaultPageSize, maxPageSize)
	msgs, err := s.chat.ListMessages(ctx, roomID, cur, size)
	if err != nil {
		return nil, err
	}
	hasMore := len(msgs) > size
	if hasMore {
		msgs = msgs[:size]
	}
	page := &MessagePage{Items: make([]*MessageView, 0, len(msgs)), HasMore: hasMore}
	for _, m := range msgs {
		page.Items = append(page.Items, messageView(m))
	}
	if hasMore && len(msgs) > 0 {
		last := msgs[len(msgs)-1]
		token := pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}.Encode()
		page.NextCursor = &token
	}
	return page, nil
}

func (s *chatService) LastSeen(ctx context.Context, callerID *string, roomID string, partyIDs []string) ([]*model.LastMessageSeen, error) {
	if callerID == nil {
		return nil, ErrUnauthenticated
	}
	if err := s.requireMember(ctx, roomID, *callerID); err != nil {
		return nil, err
	}
	res := make([]*model.LastMessageSeen, 0, len(partyIDs))
	for _, partyID := range partyIDs {
		seen, err := s.chat.GetLastSeen(ctx, roomID, partyID)
		if err != nil {
			return nil, err
		}
		if seen != nil {
			res = append(res, seen)
		}
	}
	return res, nil
}

func (s *chatService) roomView(ctx context.Context, viewerID, roomID string) (*RoomView, error) {
	room, err := s.chat.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, nil
	}
	members, err := s.chat.MemberIDs(ctx, roomID)
	if err != nil {
		return nil, err
	}
	otherIDs := make([]string, 0, len(members))
	for _, id := range members {
		if id != viewerID {
			otherIDs = append(otherIDs, id)
		}
	}
	others, err := s.users.GetByIDs(ctx, otherIDs)
	if err != nil {
		return nil, err
	}
	parties := make([]*UserSummary, 0, len(others))
	for _, u := range others {
		parties = append(parties, summarize(u))
	}

	latest, err := s.chat.LatestMessage(ctx, roomID)
	if err != nil {
		return nil, err
	}
	seen := true
	if latest != nil {
		marker, err := s.chat.GetLastSeen(ctx, roomID, viewerID)
		if err != nil {
			return nil, err
		}
		seen = marker != nil && marker.MessageID == latest.ID
	}
	return &RoomView{
		ID:            room.ID,
		Parties:       parties,
		LatestMessage: messageView(latest),
		LatestSeen:    seen,
	}, nil
}

func (s *chatService) requireMember(ctx context.Context, roomID, userID string) error {
	room, err := s.chat.GetRoom(ctx, roomID)
	if err != nil {
		return err
	}
	if room == nil {
		return ErrNotFound
	}
	ok, err := s.chat.IsMember(ctx, roomID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotAuthorized
	}
	return nil
}

func newerThan(a, b *model.ChatMessage) bool {
	if a.CreatedAt.Equal(b.CreatedAt) {
		return a.ID > b.ID
	}
	return a.CreatedAt.After(b.CreatedAt)
}

func containsAll(haystack []string, needles ...string) bool {
	set := make(map[string]bool, len(haystack))
	for _, h := range haystack {
		set[h] = true
	}
	for _, n := range needles {
		if !set[n] {
			return false
		}
	}
	return true
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/d60-Lab/social-core/internal/model"
	"github.com/d60-Lab/social-core/internal/repository"
	"github.com/d60-Lab/social-core/pkg/logger"
	"github.com/d60-Lab/social-core/pkg/pagination"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// FriendIDSource yields the accepted-friend ids used by the privacy
// predicate. FriendshipRepository satisfies it directly; the redis cache
// wraps it in front.
type FriendIDSource interface {
	AcceptedFriendIDs(ctx context.Context, userID string) ([]string, error)
}

type CreatePostInput struct {
	Message      string
	Privacy      string
	SharedPostID *string
}

type PostService interface {
	Create(ctx context.Context, callerID *string, in CreatePostInput) (string, error)
	Update(ctx context.Context, callerID *string, postID, message, privacy string) error
	Delete(ctx context.Context, callerID *string, postID string) error
	ToggleLike(ctx context.Context, callerID *string, postID string) (liked bool, err error)
	Feed(ctx context.Context, callerID *string, cursor string, size int) (*PostPage, error)
	UserPosts(ctx context.Context, callerID *string, authorID, cursor string, size int) (*PostPage, error)
	// DeepView returns (nil, nil) when the post exists but fails the
	// privacy predicate, so callers cannot tell hidden from absent.
	DeepView(ctx context.Context, callerID *string, postID string) (*PostView, error)
}

type postService struct {
	posts   repository.PostRepository
	users   repository.UserRepository
	friends FriendIDSource
}

func NewPostService(posts repository.PostRepository, users repository.UserRepository, friends FriendIDSource) PostService {
	return &postService{posts: posts, users: users, friends: friends}
}

func validPrivacy(p string) bool {
	return p == model.PrivacyPublic || p == model.PrivacyPrivate || p == model.PrivacyFriends
}

func (s *postService) Create(ctx context.Context, callerID *string, in CreatePostInput) (string, error) {
	if callerID == nil {
		return "", ErrUnauthenticated
	}
	if strings.TrimSpace(in.Message) == "" {
		return "", fmt.Errorf("%w: message is required", ErrValidation)
	}
	if !validPrivacy(in.Privacy) {
		return "", fmt.Errorf("%w: unknown privacy %q", ErrValidation, in.Privacy)
	}
	// SharedPostID is deliberately not checked here; dangling or invisible
	// references resolve to nothing on read.
	p := &model.Post{
		AuthorID:     *callerID,
		Message:      in.Message,
		Privacy:      in.Privacy,
		SharedPostID: in.SharedPostID,
	}
	if err := s.posts.Create(ctx, p); err != nil {
		return "", err
	}
	logger.Info("post created", zap.String("post_id", p.ID), zap.String("author_id", p.AuthorID))
	return p.ID, nil
}

func (s *postService) Update(ctx context.Context, callerID *string, postID, message, privacy string) error {
	if callerID == nil {
		return ErrUnauthenticated
	}
	if strings.TrimSpace(message) == "" {
		return fmt.Errorf("%w: message is required", ErrValidation)
	}
	if !validPrivacy(privacy) {
		return fmt.Errorf("%w: unknown privacy %q", ErrValidation, privacy)
	}
	p, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if p == nil {
		return ErrNotFound
	}
	if p.AuthorID != *callerID {
		return ErrNotAuthorized
	}
	return s.posts.UpdateContent(ctx, postID, message, privacy)
}

func (s *postService) Delete(ctx context.Context, callerID *string, postID string) error {
	if callerID == nil {
		return ErrUnauthenticated
	}
	p, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if p == nil {
		return ErrNotFound
	}
	if p.AuthorID != *callerID {
		return ErrNotAuthorized
	}
	if err := s.posts.DeleteCascade(ctx, postID); err != nil {
		return err
	}
	logger.Info("post deleted", zap.String("post_id", postID))
	return nil
}

func (s *postService) ToggleLike(ctx context.Context, callerID *string, postID string) (bool, error) {
	if callerID == nil {
		return false, ErrUnauthenticated
	}
	p, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return false, err
	}
	if p == nil {
		return false, ErrNotFound
	}
	if p.Privacy == model.PrivacyPrivate && p.AuthorID != *callerID {
		return false, ErrNotAuthorized
	}
	return s.posts.ToggleLike(ctx, postID, *callerID)
}

func (s *postService) Feed(ctx context.Context, callerID *string, cursor string, size int) (*PostPage, error) {
	cur, err := pagination.Decode(cursor)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	size = pagination.NormalizeSize(size, defaultPageSize, maxPageSize)

	var friendIDs []string
	if callerID != nil {
		if friendIDs, err = s.friends.AcceptedFriendIDs(ctx, *callerID); err != nil {
			return nil, err
		}
	}
	posts, err := s.posts.ListFeed(ctx, callerID, friendIDs, cur, size)
	if err != nil {
		return nil, err
	}
	return s.buildPage(ctx, callerID, posts, size)
}

func (s *postService) UserPosts(ctx context.Context, callerID *string, authorID, cursor string, size int) (*PostPage, error) {
	cur, err := pagination.Decode(cursor)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	size = pagination.NormalizeSize(size, defaultPageSize, maxPageSize)
	posts, err := s.posts.ListByAuthor(ctx, authorID, callerID, cur, size)
	if err != nil {
		return nil, err
	}
	return s.buildPage(ctx, callerID, posts, size)
}

func (s *postService) DeepView(ctx context.Context, callerID *string, postID string) (*PostView, error) {
	p, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, nil
	}
	visible, err := s.visibleTo(ctx, p, callerID)
	if err != nil {
		return nil, err
	}
	if !visible {
		return nil, nil
	}
	view, err := s.view(ctx, p, callerID)
	if err != nil {
		return nil, err
	}
	if p.SharedPostID != nil {
		shared, err := s.posts.GetByID(ctx, *p.SharedPostID)
		if err != nil {
			return nil, err
		}
		if shared != nil {
			if ok, err := s.visibleTo(ctx, shared, callerID); err != nil {
				return nil, err
			} else if ok {
				if view.SharedPost, err = s.view(ctx, shared, callerID); err != nil {
					return nil, err
				}
			}
		}
	}
	return view, nil
}

// visibleTo is the privacy predicate: public, own, or friends-privacy by
// an accepted friend of the viewer.
func (s *postService) visibleTo(ctx context.Context, p *model.Post, viewerID *string) (bool, error) {
	if p.Privacy == model.PrivacyPublic {
		return true, nil
	}
	if viewerID == nil {
		return false, nil
	}
	if p.AuthorID == *viewerID {
		return true, nil
	}
	if p.Privacy != model.PrivacyFriends {
		return false, nil
	}
	friendIDs, err := s.friends.AcceptedFriendIDs(ctx, *viewerID)
	if err != nil {
		return false, err
	}
	for _, id := range friendIDs {
		if id == p.AuthorID {
			return true, nil
		}
	}
	return false, nil
}

func (s *postService) view(ctx context.Context, p *model.Post, viewerID *string) (*PostView, error) {
	author, err := s.users.GetByID(ctx, p.AuthorID)
	if err != nil {
		return nil, err
	}
	isLiked := false
	if viewerID != nil {
		if isLiked, err = s.posts.IsLiked(ctx, p.ID, *viewerID); err != nil {
			return nil, err
		}
	}
	return &PostView{
		ID:            p.ID,
		Author:        summarize(author),
		Message:       p.Message,
		Privacy:       p.Privacy,
		LikesCount:    p.LikesCount,
		CommentsCount: p.CommentsCount,
		IsLiked:       isLiked,
		SharedPostID:  p.SharedPostID,
		CreatedAt:     p.CreatedAt,
	}, nil
}

func (s *postService) buildPage(ctx context.Context, viewerID *string, posts []*model.Post, size int) (*PostPage, error) {
	hasMore := len(posts) > size
	if hasMore {
		posts = posts[:size]
	}

	authorIDs := make([]string, 0, len(posts))
	postIDs := make([]string, 0, len(posts))
	seen := map[string]bool{}
	for _, p := range posts {
		postIDs = append(postIDs, p.ID)
		if !seen[p.AuthorID] {
			seen[p.AuthorID] = true
			authorIDs = append(authorIDs, p.AuthorID)
		}
	}
	authors, err := s.users.GetByIDs(ctx, authorIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*model.User, len(authors))
	for _, u := range authors {
		byID[u.ID] = u
	}

	liked := map[string]bool{}
	if viewerID != nil {
		if liked, err = s.posts.LikedSet(ctx, postIDs, *viewerID); err != nil {
			return nil, err
		}
	}

	page := &PostPage{Items: make([]*PostView, 0, len(posts)), HasMore: hasMore}
	for _, p := range posts {
		page.Items = append(page.Items, &PostView{
			ID:            p.ID,
			Author:        summarize(byID[p.AuthorID]),
			Message:       p.Message,
			Privacy:       p.Privacy,
			LikesCount:    p.LikesCount,
			CommentsCount: p.CommentsCount,
			IsLiked:       liked[p.ID],
			SharedPostID:  p.SharedPostID,
			CreatedAt:     p.CreatedAt,
		})
	}
	if hasMore && len(posts) > 0 {
		last := posts[len(posts)-1]
		token := pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}.Encode()
		page.NextCursor = &token
	}
	return page, nil
}

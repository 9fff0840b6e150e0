package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/d60-Lab/social-core/internal/model"
	"github.com/d60-Lab/social-core/internal/repository"
	"github.com/d60-Lab/social-core/pkg/logger"
	"github.com/d60-Lab/social-core/pkg/pagination"
)

const maxCommentLength = 500

type AddCommentInput struct {
	PostID          string
	Content         string
	ParentCommentID *string
}

type CommentService interface {
	Add(ctx context.Context, callerID *string, in AddCommentInput) (string, error)
	Remove(ctx context.Context, callerID *string, commentID, postID string, parentCommentID *string) error
	ToggleLike(ctx context.Context, callerID *string, commentID string) (liked bool, err error)
	Roots(ctx context.Context, callerID *string, postID, cursor string, size int) (*CommentPage, error)
	Replies(ctx context.Context, callerID *string, postID, parentID, cursor string, size int) (*CommentPage, error)
}

type commentService struct {
	comments repository.CommentRepository
	posts    repository.PostRepository
	users    repository.UserRepository
	friends  FriendIDSource
}

func NewCommentService(comments repository.CommentRepository, posts repository.PostRepository, users repository.UserRepository, friends FriendIDSource) CommentService {
	return &commentService{comments: comments, posts: posts, users: users, friends: friends}
}

func (s *commentService) Add(ctx context.Context, callerID *string, in AddCommentInput) (string, error) {
	if callerID == nil {
		return "", ErrUnauthenticated
	}
	if strings.TrimSpace(in.Content) == "" {
		return "", fmt.Errorf("%w: content is required", ErrValidation)
	}
	if utf8.RuneCountInString(in.Content) > maxCommentLength {
		return "", fmt.Errorf("%w: content exceeds %d characters", ErrValidation, maxCommentLength)
	}
	post, err := s.posts.GetByID(ctx, in.PostID)
	if err != nil {
		return "", err
	}
	if post == nil {
		return "", ErrNotFound
	}
	if post.Privacy != model.PrivacyPublic && post.AuthorID != *callerID {
		return "", ErrNotAuthorized
	}
	if in.ParentCommentID != nil {
		parent, err := s.comments.GetByID(ctx, *in.ParentCommentID)
		if err != nil {
			return "", err
		}
		if parent == nil || parent.PostID != in.PostID {
			return "", fmt.Errorf("%w: parent comment does not belong to this post", ErrValidation)
		}
	}
	c := &model.Comment{
		PostID:          in.PostID,
		ParentCommentID: in.ParentCommentID,
		AuthorID:        *callerID,
		Content:         in.Content,
	}
	if err := s.comments.Create(ctx, c); err != nil {
		return "", err
	}
	return c.ID, nil
}

func (s *commentService) Remove(ctx context.Context, callerID *string, commentID, postID string, parentCommentID *string) error {
	if callerID == nil {
		return ErrUnauthenticated
	}
	c, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return err
	}
	if c == nil {
		return ErrNotFound
	}
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if post == nil {
		return ErrNotFound
	}
	// comment author or post author may delete
	if c.AuthorID != *callerID && post.AuthorID != *callerID {
		return ErrNotAuthorized
	}
	removed, err := s.comments.RemoveSubtree(ctx, commentID, postID, parentCommentID)
	if err != nil {
		return err
	}
	logger.Info("comment subtree removed",
		zap.String("comment_id", commentID), zap.Int("nodes", removed))
	return nil
}

// ToggleLike re-validates the owning post's visibility the way post likes
// do, so learning a comment id is not enough to interact with a private
// post.
func (s *commentService) ToggleLike(ctx context.Context, callerID *string, commentID string) (bool, error) {
	if callerID == nil {
		return false, ErrUnauthenticated
	}
	c, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return false, err
	}
	if c == nil {
		return false, ErrNotFound
	}
	post, err := s.posts.GetByID(ctx, c.PostID)
	if err != nil {
		return false, err
	}
	if post != nil && post.Privacy == model.PrivacyPrivate && post.AuthorID != *callerID {
		return false, ErrNotAuthorized
	}
	return s.comments.ToggleLike(ctx, commentID, *callerID)
}

func (s *commentService) Roots(ctx context.Context, callerID *string, postID, cursor string, size int) (*CommentPage, error) {
	post, err := s.gatePost(ctx, callerID, postID)
	if err != nil {
		return nil, err
	}
	cur, err := pagination.Decode(cursor)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	size = pagination.NormalizeSize(size, defaultPageSize, maxPageSize)
	comments, err := s.comments.ListRoots(ctx, postID, cur, size)
	if err != nil {
		return nil, err
	}
	return s.buildPage(ctx, callerID, post, comments, size)
}

func (s *commentService) Replies(ctx context.Context, callerID *string, postID, parentID, cursor string, size int) (*CommentPage, error) {
	post, err := s.gatePost(ctx, callerID, postID)
	if err != nil {
		return nil, err
	}
	cur, err := pagination.Decode(cursor)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	size = pagination.NormalizeSize(size, defaultPageSize, maxPageSize)
	comments, err := s.comments.ListReplies(ctx, postID, parentID, cur, size)
	if err != nil {
		return nil, err
	}
	return s.buildPage(ctx, callerID, post, comments, size)
}

// gatePost applies the deep-view privacy predicate to comment reads.
func (s *commentService) gatePost(ctx context.Context, callerID *string, postID string) (*model.Post, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrNotFound
	}
	if post.Privacy == model.PrivacyPublic {
		return post, nil
	}
	if callerID != nil && post.AuthorID == *callerID {
		return post, nil
	}
	if post.Privacy == model.PrivacyFriends && callerID != nil {
		friendIDs, err := s.friends.AcceptedFriendIDs(ctx, *callerID)
		if err != nil {
			return nil, err
		}
		for _, id := range friendIDs {
			if id == post.AuthorID {
				return post, nil
			}
		}
	}
	return nil, ErrNotAuthorized
}

func (s *commentService) buildPage(ctx context.Context, viewerID *string, post *model.Post, comments []*model.Comment, size int) (*CommentPage, error) {
	hasMore := len(comments) > size
	if hasMore {
		comments = comments[:size]
	}

	authorIDs := make([]string, 0, len(comments))
	commentIDs := make([]string, 0, len(comments))
	seen := map[string]bool{}
	for _, c := range comments {
		commentIDs = append(commentIDs, c.ID)
		if !seen[c.AuthorID] {
			seen[c.AuthorID] = true
			authorIDs = append(authorIDs, c.AuthorID)
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
		if liked, err = s.comments.LikedSet(ctx, commentIDs, *viewerID); err != nil {
			return nil, err
		}
	}

	isMyPost := viewerID != nil && post.AuthorID == *viewerID
	page := &CommentPage{Items: make([]*CommentView, 0, len(comments)), HasMore: hasMore}
	for _, c := range comments {
		page.Items = append(page.Items, &CommentView{
			ID:              c.ID,
			PostID:          c.PostID,
			ParentCommentID: c.ParentCommentID,
			Author:          summarize(byID[c.AuthorID]),
			Content:         c.Content,
			LikesCount:      c.LikesCount,
			CommentsCount:   c.CommentsCount,
			IsLiked:         liked[c.ID],
			IsMyComment:     viewerID != nil && c.AuthorID == *viewerID,
			IsMyPost:        isMyPost,
			CreatedAt:       c.CreatedAt,
		})
	}
	if hasMore && len(comments) > 0 {
		last := comments[len(comments)-1]
		token := pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}.Encode()
		page.NextCursor = &token
	}
	return page, nil
}

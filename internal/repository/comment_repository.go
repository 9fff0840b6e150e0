package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/social-core/internal/model"
	"github.com/d60-Lab/social-core/pkg/pagination"
)

type CommentRepository interface {
	Create(ctx context.Context, c *model.Comment) error
	GetByID(ctx context.Context, id string) (*model.Comment, error)
	ListRoots(ctx context.Context, postID string, cur *pagination.Cursor, limit int) ([]*model.Comment, error)
	ListReplies(ctx context.Context, postID, parentID string, cur *pagination.Cursor, limit int) ([]*model.Comment, error)
	RemoveSubtree(ctx context.Context, commentID, postID string, parentID *string) (removed int, err error)
	ToggleLike(ctx context.Context, commentID, userID string) (liked bool, err error)
	LikedSet(ctx context.Context, commentIDs []string, userID string) (map[string]bool, error)
	CountForPost(ctx context.Context, postID string) (int64, error)
}

type commentRepository struct {
	db *gorm.DB
}

func NewCommentRepository(db *gorm.DB) CommentRepository { return &commentRepository{db: db} }

// Create inserts the comment and bumps the post counter (and the parent
// comment counter for replies) in the same transaction.
func (r *commentRepository) Create(ctx context.Context, c *model.Comment) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(c).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.Post{}).Where("id = ?", c.PostID).
			UpdateColumn("comments_count", gorm.Expr("comments_count + 1")).Error; err != nil {
			return err
		}
		if c.ParentCommentID != nil {
			return tx.Model(&model.Comment{}).Where("id = ?", *c.ParentCommentID).
				UpdateColumn("comments_count", gorm.Expr("comments_count + 1")).Error
		}
		return nil
	})
}

func (r *commentRepository) GetByID(ctx context.Context, id string) (*model.Comment, error) {
	var c model.Comment
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *commentRepository) ListRoots(ctx context.Context, postID string, cur *pagination.Cursor, limit int) ([]*model.Comment, error) {
	q := r.db.WithContext(ctx).Model(&model.Comment{}).
		Where("post_id = ? AND parent_comment_id IS NULL", postID)
	q = applyCursor(q, cur)
	var res []*model.Comment
	err := q.Order("created_at DESC, id DESC").Limit(limit + 1).Find(&res).Error
	return res, err
}

func (r *commentRepository) ListReplies(ctx context.Context, postID, parentID string, cur *pagination.Cursor, limit int) ([]*model.Comment, error) {
	q := r.db.WithContext(ctx).Model(&model.Comment{}).
		Where("post_id = ? AND parent_comment_id = ?", postID, parentID)
	q = applyCursor(q, cur)
	var res []*model.Comment
	err := q.Order("created_at DESC, id DESC").Limit(limit + 1).Find(&res).Error
	return res, err
}

// RemoveSubtree deletes the comment, its entire reply subtree and every
// like on any removed node, then settles the counters: parent -1 when a
// parent was given, post -(nodes removed), both floored at zero.
// Descendants are collected breadth-first with an explicit frontier;
// the tree is insert-only so no cycle protection is needed.
func (r *commentRepository) RemoveSubtree(ctx context.Context, commentID, postID string, parentID *string) (int, error) {
	var removed int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ids := []string{commentID}
		frontier := []string{commentID}
		for len(frontier) > 0 {
			var children []string
			if err := tx.Model(&model.Comment{}).
				Where("parent_comment_id IN ?", frontier).
				Pluck("id", &children).Error; err != nil {
				return err
			}
			ids = append(ids, children...)
			frontier = children
		}
		if err := tx.Where("comment_id IN ?", ids).Delete(&model.CommentLike{}).Error; err != nil {
			return err
		}
		if err := tx.Where("id IN ?", ids).Delete(&model.Comment{}).Error; err != nil {
			return err
		}
		if parentID != nil {
			if err := tx.Model(&model.Comment{}).Where("id = ?", *parentID).
				UpdateColumn("comments_count", commentsFloorDecrement).Error; err != nil {
				return err
			}
		}
		removed = len(ids)
		return tx.Model(&model.Post{}).Where("id = ?", postID).
			UpdateColumn("comments_count",
				gorm.Expr("CASE WHEN comments_count > ? THEN comments_count - ? ELSE 0 END", removed, removed)).Error
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// ToggleLike mirrors PostRepository.ToggleLike for comment edges.
func (r *commentRepository) ToggleLike(ctx context.Context, commentID, userID string) (bool, error) {
	var liked bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		like := &model.CommentLike{ID: uuid.New().String(), CommentID: commentID, UserID: userID}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(like)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			liked = true
			return tx.Model(&model.Comment{}).Where("id = ?", commentID).
				UpdateColumn("likes_count", gorm.Expr("likes_count + 1")).Error
		}
		del := tx.Where("comment_id = ? AND user_id = ?", commentID, userID).Delete(&model.CommentLike{})
		if del.Error != nil {
			return del.Error
		}
		if del.RowsAffected == 0 {
			return nil
		}
		return tx.Model(&model.Comment{}).Where("id = ?", commentID).
			UpdateColumn("likes_count", likesFloorDecrement).Error
	})
	return liked, err
}

func (r *commentRepository) LikedSet(ctx context.Context, commentIDs []string, userID string) (map[string]bool, error) {
	res := make(map[string]bool, len(commentIDs))
	if len(commentIDs) == 0 {
		return res, nil
	}
	var likedIDs []string
	err := r.db.WithContext(ctx).Model(&model.CommentLike{}).
		Where("comment_id IN ? AND user_id = ?", commentIDs, userID).
		Pluck("comment_id", &likedIDs).Error
	if err != nil {
		return nil, err
	}
	for _, id := range likedIDs {
		res[id] = true
	}
	return res, nil
}

func (r *commentRepository) CountForPost(ctx context.Context, postID string) (int64, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&model.Comment{}).Where("post_id = ?", postID).Count(&cnt).Error
	return cnt, err
}

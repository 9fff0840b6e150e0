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

// likesFloorDecrement / commentsFloorDecrement 带下界的原子列更新，
// 计数永不为负。
var (
	likesFloorDecrement    = gorm.Expr("CASE WHEN likes_count > 0 THEN likes_count - 1 ELSE 0 END")
	commentsFloorDecrement = gorm.Expr("CASE WHEN comments_count > 0 THEN comments_count - 1 ELSE 0 END")
)

type PostRepository interface {
	Create(ctx context.Context, p *model.Post) error
	GetByID(ctx context.Context, id string) (*model.Post, error)
	UpdateContent(ctx context.Context, id, message, privacy string) error
	DeleteCascade(ctx context.Context, id string) error
	ToggleLike(ctx context.Context, postID, userID string) (liked bool, err error)
	IsLiked(ctx context.Context, postID, userID string) (bool, error)
	LikedSet(ctx context.Context, postIDs []string, userID string) (map[string]bool, error)
	CountLikes(ctx context.Context, postID string) (int64, error)
	ListFeed(ctx context.Context, viewerID *string, friendIDs []string, cur *pagination.Cursor, limit int) ([]*model.Post, error)
	ListByAuthor(ctx context.Context, authorID string, viewerID *string, cur *pagination.Cursor, limit int) ([]*model.Post, error)
}

type postRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) PostRepository { return &postRepository{db: db} }

func (r *postRepository) Create(ctx context.Context, p *model.Post) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *postRepository) GetByID(ctx context.Context, id string) (*model.Post, error) {
	var p model.Post
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *postRepository) UpdateContent(ctx context.Context, id, message, privacy string) error {
	return r.db.WithContext(ctx).Model(&model.Post{}).Where("id = ?", id).
		Updates(map[string]interface{}{"message": message, "privacy": privacy}).Error
}

// DeleteCascade removes the post together with every row that exists only
// in relation to it: post likes, comments and their likes. One transaction,
// so a failed delete leaves no partial cascade behind.
func (r *postRepository) DeleteCascade(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&model.PostLike{}).Error; err != nil {
			return err
		}
		var commentIDs []string
		if err := tx.Model(&model.Comment{}).Where("post_id = ?", id).Pluck("id", &commentIDs).Error; err != nil {
			return err
		}
		if len(commentIDs) > 0 {
			if err := tx.Where("comment_id IN ?", commentIDs).Delete(&model.CommentLike{}).Error; err != nil {
				return err
			}
			if err := tx.Where("post_id = ?", id).Delete(&model.Comment{}).Error; err != nil {
				return err
			}
		}
		return tx.Where("id = ?", id).Delete(&model.Post{}).Error
	})
}

// ToggleLike flips the (post, user) like edge and keeps likes_count in step
// inside one transaction. The unique pair index arbitrates concurrent
// toggles: the insert reports 0 affected rows when the edge already exists,
// so the counter moves exactly once per surviving edge write.
func (r *postRepository) ToggleLike(ctx context.Context, postID, userID string) (bool, error) {
	var liked bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		like := &model.PostLike{ID: uuid.New().String(), PostID: postID, UserID: userID}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(like)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			liked = true
			return tx.Model(&model.Post{}).Where("id = ?", postID).
				UpdateColumn("likes_count", gorm.Expr("likes_count + 1")).Error
		}
		del := tx.Where("post_id = ? AND user_id = ?", postID, userID).Delete(&model.PostLike{})
		if del.Error != nil {
			return del.Error
		}
		if del.RowsAffected == 0 {
			// edge vanished between insert attempt and delete
			return nil
		}
		return tx.Model(&model.Post{}).Where("id = ?", postID).
			UpdateColumn("likes_count", likesFloorDecrement).Error
	})
	return liked, err
}

func (r *postRepository) IsLiked(ctx context.Context, postID, userID string) (bool, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&model.PostLike{}).
		Where("post_id = ? AND user_id = ?", postID, userID).Count(&cnt).Error
	return cnt > 0, err
}

// LikedSet 批量查询 viewer 对一页帖子的点赞状态，避免逐行查询。
func (r *postRepository) LikedSet(ctx context.Context, postIDs []string, userID string) (map[string]bool, error) {
	res := make(map[string]bool, len(postIDs))
	if len(postIDs) == 0 {
		return res, nil
	}
	var likedIDs []string
	err := r.db.WithContext(ctx).Model(&model.PostLike{}).
		Where("post_id IN ? AND user_id = ?", postIDs, userID).
		Pluck("post_id", &likedIDs).Error
	if err != nil {
		return nil, err
	}
	for _, id := range likedIDs {
		res[id] = true
	}
	return res, nil
}

func (r *postRepository) CountLikes(ctx context.Context, postID string) (int64, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&model.PostLike{}).Where("post_id = ?", postID).Count(&cnt).Error
	return cnt, err
}

// ListFeed pages posts newest-first under the privacy predicate:
// public, the viewer's own, and friends-privacy posts by accepted friends.
// Fetches limit+1 rows so the caller can tell whether another page exists.
func (r *postRepository) ListFeed(ctx context.Context, viewerID *string, friendIDs []string, cur *pagination.Cursor, limit int) ([]*model.Post, error) {
	q := r.db.WithContext(ctx).Model(&model.Post{})
	switch {
	case viewerID == nil:
		q = q.Where("privacy = ?", model.PrivacyPublic)
	case len(friendIDs) > 0:
		q = q.Where("privacy = ? OR author_id = ? OR (privacy = ? AND author_id IN ?)",
			model.PrivacyPublic, *viewerID, model.PrivacyFriends, friendIDs)
	default:
		q = q.Where("privacy = ? OR author_id = ?", model.PrivacyPublic, *viewerID)
	}
	q = applyCursor(q, cur)
	var posts []*model.Post
	err := q.Order("created_at DESC, id DESC").Limit(limit + 1).Find(&posts).Error
	return posts, err
}

// ListByAuthor pages a single author's posts: public ones, plus everything
// when the viewer is the author.
func (r *postRepository) ListByAuthor(ctx context.Context, authorID string, viewerID *string, cur *pagination.Cursor, limit int) ([]*model.Post, error) {
	q := r.db.WithContext(ctx).Model(&model.Post{}).Where("author_id = ?", authorID)
	if viewerID == nil || *viewerID != authorID {
		q = q.Where("privacy = ?", model.PrivacyPublic)
	}
	q = applyCursor(q, cur)
	var posts []*model.Post
	err := q.Order("created_at DESC, id DESC").Limit(limit + 1).Find(&posts).Error
	return posts, err
}

func applyCursor(q *gorm.DB, cur *pagination.Cursor) *gorm.DB {
	if cur == nil {
		return q
	}
	return q.Where("created_at < ? OR (created_at = ? AND id < ?)", cur.CreatedAt, cur.CreatedAt, cur.ID)
}

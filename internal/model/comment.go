package model

import "time"

// Comment 自引用评论树：根评论 parent_comment_id 为空，回复指向同一帖子内的父评论。
// 边只增不改，树形结构无环。
type Comment struct {
	ID              string  `gorm:"primaryKey;type:varchar(36)"`
	PostID          string  `gorm:"type:varchar(36);index:idx_comment_post;index:idx_comment_parent_post;not null"`
	ParentCommentID *string `gorm:"type:varchar(36);index:idx_comment_parent_post"`
	AuthorID        string  `gorm:"type:varchar(36);index:idx_comment_author;not null"`
	Content         string  `gorm:"type:varchar(500);not null"`
	LikesCount      int64   `gorm:"not null;default:0"`
	CommentsCount   int64   `gorm:"not null;default:0"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (Comment) TableName() string { return "post_comments" }

// CommentLike 评论点赞边，(comment_id, user_id) 复合唯一。
type CommentLike struct {
	ID        string `gorm:"primaryKey;type:varchar(36)"`
	CommentID string `gorm:"type:varchar(36);index:idx_comment_like_comment;index:idx_comment_like_pair,unique;not null"`
	UserID    string `gorm:"type:varchar(36);not null;index:idx_comment_like_pair,unique"`
	CreatedAt time.Time
}

func (CommentLike) TableName() string { return "post_comment_likes" }

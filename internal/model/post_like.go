package model

import "time"

// PostLike 点赞边。(post_id, user_id) 复合唯一键是 "liked" 的唯一事实来源。
// idx_post_like_pair = (post_id, user_id)
type PostLike struct {
	ID        string `gorm:"primaryKey;type:varchar(36)"`
	PostID    string `gorm:"type:varchar(36);index:idx_post_like_post;index:idx_post_like_pair,unique;not null"`
	UserID    string `gorm:"type:varchar(36);not null;index:idx_post_like_pair,unique"`
	CreatedAt time.Time
}

func (PostLike) TableName() string { return "post_likes" }

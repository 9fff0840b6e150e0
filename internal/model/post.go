package model

import "time"

const (
	PrivacyPublic  = "public"
	PrivacyPrivate = "private"
	PrivacyFriends = "friends"
)

// Post 内容主体。likes_count / comments_count 是边表的缓存投影，
// 只在边写入的同一事务内以列表达式更新。
type Post struct {
	ID            string `gorm:"primaryKey;type:varchar(36)"`
	AuthorID      string `gorm:"type:varchar(36);index:idx_post_author;not null"`
	Message       string `gorm:"type:text;not null"`
	Privacy       string `gorm:"type:varchar(16);not null;default:public"`
	LikesCount    int64  `gorm:"not null;default:0"`
	CommentsCount int64  `gorm:"not null;default:0"`
	// SharedPostID references another post (repost). Not validated on
	// write; visibility is resolved lazily on read.
	SharedPostID *string   `gorm:"type:varchar(36)"`
	CreatedAt    time.Time `gorm:"index:idx_post_created"`
	UpdatedAt    time.Time
}

func (Post) TableName() string { return "posts" }

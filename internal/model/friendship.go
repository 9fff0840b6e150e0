package model

import "time"

const (
	FriendshipPending  = "pending"
	FriendshipAccepted = "accepted"
)

// PairKey 无序用户对的归一化键：小 id 在前，竖线分隔。
// 唯一索引压在这个键上，让并发的双向写入在存储层仲裁。
func PairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "|" + b
}

// Friendship 好友边：无向关系用单条有向行表示，user_id 是发起方。
// 每个无序用户对至多一行，由 ux_friendship_pair_key 保证：
// 有向索引挡不住 (A,B) 与 (B,A) 并发各插一行。
type Friendship struct {
	ID         string `gorm:"primaryKey;type:varchar(36)"`
	UserID     string `gorm:"type:varchar(36);index:idx_friendship_user;not null"`
	FriendID   string `gorm:"type:varchar(36);index:idx_friendship_friend;not null"`
	PairKey    string `gorm:"type:varchar(80);uniqueIndex:ux_friendship_pair_key;not null"`
	Status     string `gorm:"type:varchar(16);not null;default:pending"`
	AcceptedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (Friendship) TableName() string { return "friendships" }

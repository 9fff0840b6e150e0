package model

import "time"

// ChatRoom 会话。成员关系不可变，冗余 party_count 便于按人数精确去重。
// 双人房写入归一化对键，唯一索引让并发 getOrCreate 收敛到同一行；群聊为空。
type ChatRoom struct {
	ID         string  `gorm:"primaryKey;type:varchar(36)"`
	PartyCount int     `gorm:"not null"`
	DirectKey  *string `gorm:"type:varchar(80);uniqueIndex:ux_chat_room_direct"`
	CreatedAt  time.Time
}

func (ChatRoom) TableName() string { return "chat_rooms" }

// ChatRoomMember 成员索引（userId -> roomIds），避免全表扫房间。
// idx_room_member_pair = (room_id, user_id)
type ChatRoomMember struct {
	ID        string `gorm:"primaryKey;type:varchar(36)"`
	RoomID    string `gorm:"type:varchar(36);index:idx_room_member_room;index:idx_room_member_pair,unique;not null"`
	UserID    string `gorm:"type:varchar(36);index:idx_room_member_user;not null;index:idx_room_member_pair,unique"`
	CreatedAt time.Time
}

func (ChatRoomMember) TableName() string { return "chat_room_members" }

// ChatMessage 追加写消息行。
type ChatMessage struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)"`
	RoomID    string    `gorm:"type:varchar(36);index:idx_chat_message_room;not null"`
	AuthorID  string    `gorm:"type:varchar(36);not null"`
	Content   string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"index:idx_chat_message_room"`
}

func (ChatMessage) TableName() string { return "chat_messages" }

// LastMessageSeen 每 (room, user) 一行：该用户确认过的最新消息。
// idx_last_seen_pair = (room_id, user_id)
type LastMessageSeen struct {
	ID        string `gorm:"primaryKey;type:varchar(36)"`
	RoomID    string `gorm:"type:varchar(36);index:idx_last_seen_pair,unique;not null"`
	UserID    string `gorm:"type:varchar(36);not null;index:idx_last_seen_pair,unique"`
	MessageID string `gorm:"type:varchar(36);not null"`
	UpdatedAt time.Time
}

func (LastMessageSeen) TableName() string { return "last_message_seen" }

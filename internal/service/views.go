package service

import (
	"time"

	"github.com/d60-Lab/social-core/internal/model"
)

// UserSummary is the author/party projection attached to read views.
type UserSummary struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Username       string     `json:"username"`
	Pfp            string     `json:"pfp,omitempty"`
	ActivityStatus string     `json:"activity_status"`
	LastActivity   *time.Time `json:"last_activity,omitempty"`
}

func summarize(u *model.User) *UserSummary {
	if u == nil {
		return nil
	}
	return &UserSummary{
		ID:             u.ID,
		Name:           u.Name,
		Username:       u.Username,
		Pfp:            u.Pfp,
		ActivityStatus: u.ActivityStatus,
		LastActivity:   u.LastActivity,
	}
}

type PostView struct {
	ID            string       `json:"id"`
	Author        *UserSummary `json:"author,omitempty"`
	Message       string       `json:"message"`
	Privacy       string       `json:"privacy"`
	LikesCount    int64        `json:"likes_count"`
	CommentsCount int64        `json:"comments_count"`
	IsLiked       bool         `json:"is_liked"`
	SharedPostID  *string      `json:"shared_post_id,omitempty"`
	// SharedPost is resolved lazily and only on deep views; nil when the
	// referenced post is gone or not visible to the viewer.
	SharedPost *PostView `json:"shared_post,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type PostPage struct {
	Items      []*PostView `json:"items"`
	NextCursor *string     `json:"next_cursor,omitempty"`
	HasMore    bool        `json:"has_more"`
}

type CommentView struct {
	ID              string       `json:"id"`
	PostID          string       `json:"post_id"`
	ParentCommentID *string      `json:"parent_comment_id,omitempty"`
	Author          *UserSummary `json:"author,omitempty"`
	Content         string       `json:"content"`
	LikesCount      int64        `json:"likes_count"`
	CommentsCount   int64        `json:"comments_count"`
	IsLiked         bool         `json:"is_liked"`
	IsMyComment     bool         `json:"is_my_comment"`
	IsMyPost        bool         `json:"is_my_post"`
	CreatedAt       time.Time    `json:"created_at"`
}

type CommentPage struct {
	Items      []*CommentView `json:"items"`
	NextCursor *string        `json:"next_cursor,omitempty"`
	HasMore    bool           `json:"has_more"`
}

type FriendView struct {
	FriendshipID string       `json:"friendship_id"`
	User         *UserSummary `json:"user"`
	AcceptedAt   *time.Time   `json:"accepted_at,omitempty"`
}

type FriendshipList struct {
	Friends    []*FriendView `json:"friends"`
	SelfStatus string        `json:"self_status"`
}

type MessageView struct {
	ID        string    `json:"id"`
	RoomID    string    `json:"room_id"`
	AuthorID  string    `json:"author_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type MessagePage struct {
	Items      []*MessageView `json:"items"`
	NextCursor *string        `json:"next_cursor,omitempty"`
	HasMore    bool           `json:"has_more"`
}

type RoomView struct {
	ID            string         `json:"id"`
	Parties       []*UserSummary `json:"parties"`
	LatestMessage *MessageView   `json:"latest_message,omitempty"`
	// LatestSeen reports whether the viewer has acknowledged the room's
	// newest message. True for rooms with no messages.
	LatestSeen bool `json:"latest_seen"`
}

func messageView(m *model.ChatMessage) *MessageView {
	if m == nil {
		return nil
	}
	return &MessageView{
		ID:        m.ID,
		RoomID:    m.RoomID,
		AuthorID:  m.AuthorID,
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
	}
}

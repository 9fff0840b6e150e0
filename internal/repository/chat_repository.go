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

type ChatRepository interface {
	CreateRoom(ctx context.Context, partyIDs []string) (*model.ChatRoom, error)
	// CreateDirectRoom makes the 2-party room for the unordered pair, or
	// returns the existing one when a concurrent caller won the insert.
	CreateDirectRoom(ctx context.Context, userA, userB string) (*model.ChatRoom, error)
	GetDirectRoom(ctx context.Context, userA, userB string) (*model.ChatRoom, error)
	GetRoom(ctx context.Context, roomID string) (*model.ChatRoom, error)
	RoomIDsOfUser(ctx context.Context, userID string) ([]string, error)
	MemberIDs(ctx context.Context, roomID string) ([]string, error)
	IsMember(ctx context.Context, roomID, userID string) (bool, error)
	CreateMessage(ctx context.Context, m *model.ChatMessage) error
	GetMessage(ctx context.Context, id string) (*model.ChatMessage, error)
	LatestMessage(ctx context.Context, roomID string) (*model.ChatMessage, error)
	ListMessages(ctx context.Context, roomID string, cur *pagination.Cursor, limit int) ([]*model.ChatMessage, error)
	GetLastSeen(ctx context.Context, roomID, userID string) (*model.LastMessageSeen, error)
	UpsertLastSeen(ctx context.Context, roomID, userID, messageID string) error
}

type chatRepository struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) ChatRepository { return &chatRepository{db: db} }

// CreateRoom writes the room and its membership index rows in one
// transaction. Membership is immutable afterwards.
func (r *chatRepository) CreateRoom(ctx context.Context, partyIDs []string) (*model.ChatRoom, error) {
	room := &model.ChatRoom{ID: uuid.New().String(), PartyCount: len(partyIDs)}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(room).Error; err != nil {
			return err
		}
		members := make([]*model.ChatRoomMember, 0, len(partyIDs))
		for _, uid := range partyIDs {
			members = append(members, &model.ChatRoomMember{
				ID:     uuid.New().String(),
				RoomID: room.ID,
				UserID: uid,
			})
		}
		return tx.Create(&members).Error
	})
	if err != nil {
		return nil, err
	}
	return room, nil
}

// CreateDirectRoom writes the room under the normalized pair key. The
// unique index arbitrates concurrent calls for the same pair: the loser's
// insert affects zero rows, its membership rows are skipped, and the
// winner's row is fetched back. The winner commits before the conflict is
// reported, so the re-fetch always sees it.
func (r *chatRepository) CreateDirectRoom(ctx context.Context, userA, userB string) (*model.ChatRoom, error) {
	key := model.PairKey(userA, userB)
	room := &model.ChatRoom{ID: uuid.New().String(), PartyCount: 2, DirectKey: &key}
	won := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "direct_key"}},
			DoNothing: true,
		}).Create(room)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		won = true
		members := []*model.ChatRoomMember{
			{ID: uuid.New().String(), RoomID: room.ID, UserID: userA},
			{ID: uuid.New().String(), RoomID: room.ID, UserID: userB},
		}
		return tx.Create(&members).Error
	})
	if err != nil {
		return nil, err
	}
	if won {
		return room, nil
	}
	existing, err := r.GetDirectRoom(ctx, userA, userB)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, errors.New("direct room missing after insert conflict")
	}
	return existing, nil
}

func (r *chatRepository) GetDirectRoom(ctx context.Context, userA, userB string) (*model.ChatRoom, error) {
	var room model.ChatRoom
	err := r.db.WithContext(ctx).Where("direct_key = ?", model.PairKey(userA, userB)).First(&room).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *chatRepository) GetRoom(ctx context.Context, roomID string) (*model.ChatRoom, error) {
	var room model.ChatRoom
	err := r.db.WithContext(ctx).Where("id = ?", roomID).First(&room).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *chatRepository) RoomIDsOfUser(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&model.ChatRoomMember{}).
		Where("user_id = ?", userID).Order("created_at").Pluck("room_id", &ids).Error
	return ids, err
}

func (r *chatRepository) MemberIDs(ctx context.Context, roomID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&model.ChatRoomMember{}).
		Where("room_id = ?", roomID).Pluck("user_id", &ids).Error
	return ids, err
}

func (r *chatRepository) IsMember(ctx context.Context, roomID, userID string) (bool, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&model.ChatRoomMember{}).
		Where("room_id = ? AND user_id = ?", roomID, userID).Count(&cnt).Error
	return cnt > 0, err
}

func (r *chatRepository) CreateMessage(ctx context.Context, m *model.ChatMessage) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *chatRepository) GetMessage(ctx context.Context, id string) (*model.ChatMessage, error) {
	var m model.ChatMessage
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *chatRepository) LatestMessage(ctx context.Context, roomID string) (*model.ChatMessage, error) {
	var m model.ChatMessage
	err := r.db.WithContext(ctx).Where("room_id = ?", roomID).
		Order("created_at DESC, id DESC").First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *chatRepository) ListMessages(ctx context.Context, roomID string, cur *pagination.Cursor, limit int) ([]*model.ChatMessage, error) {
	q := r.db.WithContext(ctx).Model(&model.ChatMessage{}).Where("room_id = ?", roomID)
	q = applyCursor(q, cur)
	var res []*model.ChatMessage
	err := q.Order("created_at DESC, id DESC").Limit(limit + 1).Find(&res).Error
	return res, err
}

func (r *chatRepository) GetLastSeen(ctx context.Context, roomID, userID string) (*model.LastMessageSeen, error) {
	var s model.LastMessageSeen
	err := r.db.WithContext(ctx).Where("room_id = ? AND user_id = ?", roomID, userID).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// UpsertLastSeen relies on the (room_id, user_id) unique index so a repeat
// call converges instead of inserting a second row.
func (r *chatRepository) UpsertLastSeen(ctx context.Context, roomID, userID, messageID string) error {
	row := &model.LastMessageSeen{
		ID:        uuid.New().String(),
		RoomID:    roomID,
		UserID:    userID,
		MessageID: messageID,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "room_id"}, {Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"message_id": messageID}),
	}).Create(row).Error
}

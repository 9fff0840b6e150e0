package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/social-core/internal/model"
)

type FriendshipRepository interface {
	// Create inserts a pending edge for the unordered pair. When a
	// concurrent writer got there first, created is false and the
	// surviving edge is returned instead.
	Create(ctx context.Context, requesterID, targetID string) (edge *model.Friendship, created bool, err error)
	FindPair(ctx context.Context, userA, userB string) (*model.Friendship, error)
	Accept(ctx context.Context, id string, at time.Time) error
	DeleteByID(ctx context.Context, id string) error
	ListAccepted(ctx context.Context, userID string) ([]*model.Friendship, error)
	AcceptedFriendIDs(ctx context.Context, userID string) ([]string, error)
}

type friendshipRepository struct {
	db *gorm.DB
}

func NewFriendshipRepository(db *gorm.DB) FriendshipRepository {
	return &friendshipRepository{db: db}
}

// Create lets the pair-key unique index arbitrate concurrent inserts from
// both directions: the loser's insert affects zero rows and the edge that
// won is fetched back.
func (r *friendshipRepository) Create(ctx context.Context, requesterID, targetID string) (*model.Friendship, bool, error) {
	f := &model.Friendship{
		ID:       uuid.New().String(),
		UserID:   requesterID,
		FriendID: targetID,
		PairKey:  model.PairKey(requesterID, targetID),
		Status:   model.FriendshipPending,
	}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "pair_key"}},
		DoNothing: true,
	}).Create(f)
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected > 0 {
		return f, true, nil
	}
	existing, err := r.FindPair(ctx, requesterID, targetID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

// FindPair looks the edge up by the normalized pair key; at most one row
// exists per unordered pair.
func (r *friendshipRepository) FindPair(ctx context.Context, userA, userB string) (*model.Friendship, error) {
	var f model.Friendship
	err := r.db.WithContext(ctx).
		Where("pair_key = ?", model.PairKey(userA, userB)).
		First(&f).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *friendshipRepository) Accept(ctx context.Context, id string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&model.Friendship{}).Where("id = ?", id).
		Updates(map[string]interface{}{"status": model.FriendshipAccepted, "accepted_at": at}).Error
}

func (r *friendshipRepository) DeleteByID(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Friendship{}).Error
}

func (r *friendshipRepository) ListAccepted(ctx context.Context, userID string) ([]*model.Friendship, error) {
	var res []*model.Friendship
	err := r.db.WithContext(ctx).
		Where("(user_id = ? OR friend_id = ?) AND status = ?", userID, userID, model.FriendshipAccepted).
		Find(&res).Error
	return res, err
}

// AcceptedFriendIDs 返回对方一侧的 id 列表，用于喂 feed 的隐私过滤。
func (r *friendshipRepository) AcceptedFriendIDs(ctx context.Context, userID string) ([]string, error) {
	edges, err := r.ListAccepted(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(edges))
	for _, e := range edges {
		if e.UserID == userID {
			ids = append(ids, e.FriendID)
		} else {
			ids = append(ids, e.UserID)
		}
	}
	return ids, nil
}

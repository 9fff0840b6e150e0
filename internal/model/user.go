package model

import "time"

const (
	ActivityVisible = "visible"
	ActivityHidden  = "hidden"
)

// User is created on first authenticated contact and synced from the
// external identity provider afterwards. Never hard-deleted.
type User struct {
	ID              string `gorm:"primaryKey;type:varchar(36)"`
	Name            string `gorm:"type:varchar(128);not null"`
	Email           string `gorm:"type:varchar(255);not null"`
	Username        string `gorm:"type:varchar(64);uniqueIndex:ux_user_username;not null"`
	TokenIdentifier string `gorm:"type:varchar(255);uniqueIndex:ux_user_token;not null"`
	Pfp             string `gorm:"type:text"`
	ActivityStatus  string `gorm:"type:varchar(16);not null;default:visible"`
	LastActivity    *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (User) TableName() string { return "users" }

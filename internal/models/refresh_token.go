package models

import (
	"time"
)

// RefreshToken is the single current refresh token of a user.
// UserID is unique: a new login replaces Token instead of adding a row.
type RefreshToken struct {
	ID     uint   `gorm:"primaryKey"`
	UserID uint   `gorm:"uniqueIndex;not null"`
	Token  string `gorm:"type:text;not null;index"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

package models

import (
	"time"
)

// Auth source constants
const (
	AuthSourceLocal = "local"
)

type User struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	Email        string `gorm:"uniqueIndex;not null" json:"email"` // Token subject
	Nickname     string `json:"nickname"`                          // Display name, refreshed on every OAuth login
	PasswordHash string `json:"-"`                                 // OAuth-only users have empty password
	AuthSource   string `gorm:"not null;default:'local'" json:"authSource"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// IsExternal returns true if user signed up through an OAuth provider
func (u *User) IsExternal() bool {
	return u.AuthSource != AuthSourceLocal && u.AuthSource != ""
}

// HasPassword reports whether the user can log in with a local password
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}

package models

import (
	"time"
)

// Article is a blog post owned by the user whose email is stored in Author
type Article struct {
	ID      uint   `gorm:"primaryKey"         json:"id"`
	Author  string `gorm:"not null;index"     json:"author"`
	Title   string `gorm:"not null"           json:"title"`
	Content string `gorm:"type:text;not null" json:"content"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

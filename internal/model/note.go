package model

import (
	"time"
)

// Note length bounds
const (
	MaxTitleLength   = 200
	MaxContentLength = 10000
)

// Note represents a note within a tenant. TenantID is denormalized from the
// author at creation time and never changes afterwards.
type Note struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Title     string    `json:"title" gorm:"type:varchar(200);not null"`
	Content   string    `json:"content" gorm:"type:text;not null"`
	AuthorID  uint      `json:"author_id" gorm:"index;not null"`
	TenantID  uint      `json:"tenant_id" gorm:"index;not null"`
	IsSticky  bool      `json:"is_sticky" gorm:"default:false"`
	BgColor   *string   `json:"bg_color,omitempty" gorm:"type:varchar(30)"`
	TextColor *string   `json:"text_color,omitempty" gorm:"type:varchar(30)"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

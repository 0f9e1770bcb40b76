// File: internal/domain/chat.go
package domain

import "time"

// Chat visibility values.
const (
	VisibilityPrivate = "private"
	VisibilityPublic  = "public"
)

// Chat represents a single conversation thread. The ID is an opaque UUID
// assigned at creation time.
type Chat struct {
	ID         string    `json:"id" gorm:"primarykey;size:36"`
	UserID     uint      `json:"user_id" gorm:"not null;index"` // The ID of the user who owns the chat
	Title      string    `json:"title"`
	Visibility string    `json:"visibility" gorm:"default:private"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	Messages []Message `json:"-" gorm:"constraint:OnDelete:CASCADE"`
}

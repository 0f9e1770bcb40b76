// File: internal/domain/attachment.go
package domain

import "time"

// Attachment is a file uploaded alongside a user message. Type holds the
// MIME type reported by the client; Content is the stored file's URL or path.
type Attachment struct {
	ID        uint      `json:"id" gorm:"primarykey"`
	MessageID uint      `json:"message_id" gorm:"not null;index"`
	Type      string    `json:"type"`
	Content   string    `json:"content" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
}

// File: internal/domain/message.go
package domain

import "time"

// Message roles understood by the interaction pipeline.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message represents a single turn within a chat. IDs are auto-incremented,
// so ordering by ID matches ordering by creation time.
type Message struct {
	ID         uint      `json:"id" gorm:"primarykey"`
	ChatID     string    `json:"chat_id" gorm:"not null;size:36;index"` // The ID of the chat this message belongs to
	Role       string    `json:"role" gorm:"not null"`                  // "user", "assistant" or "tool"
	Content    string    `json:"content" gorm:"not null"`
	ToolCallID string    `json:"tool_call_id,omitempty"` // set only for role "tool"
	Name       string    `json:"name,omitempty"`         // set only for role "tool"
	Date       string    `json:"date"`                   // logical date, YYYY-MM-DD
	CreatedAt  time.Time `json:"created_at"`

	Attachments []Attachment `json:"attachments,omitempty" gorm:"constraint:OnDelete:CASCADE"`
}

// HasAttachments reports whether the message carries uploaded files.
func (m *Message) HasAttachments() bool {
	return len(m.Attachments) > 0
}

// File: internal/domain/document.go
package domain

import "time"

// Document processing statuses. A document is created as "processing" and
// transitions terminally once the ingestion service answers.
const (
	DocumentStatusProcessing = "processing"
	DocumentStatusCompleted  = "completed"
	DocumentStatusFailed     = "failed"
)

// Document is a knowledge-base file owned by a user. Chunking and embedding
// happen in the external ingestion service; this side only tracks the file
// and its processing status.
type Document struct {
	ID        string    `json:"id" gorm:"primarykey;size:36"`
	UserID    uint      `json:"user_id" gorm:"not null;index"`
	Name      string    `json:"name" gorm:"not null"`
	Path      string    `json:"path" gorm:"not null"`
	Type      string    `json:"type"`
	Size      int64     `json:"size"`
	Status    string    `json:"status" gorm:"not null;default:processing"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Terminal reports whether the document has reached a final processing state.
func (d *Document) Terminal() bool {
	return d.Status == DocumentStatusCompleted || d.Status == DocumentStatusFailed
}

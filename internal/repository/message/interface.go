// File: internal/repository/message/interface.go
package message

import (
	"context"

	"github.com/navidsh/go-ragchat/internal/domain"
)

type MessageRepository interface {
	Create(ctx context.Context, message *domain.Message) (*domain.Message, error)
	CreateWithTitle(ctx context.Context, message *domain.Message, title string) (*domain.Message, error)
	FindByID(ctx context.Context, messageID uint) (*domain.Message, error)
	FindByChatID(ctx context.Context, chatID string) ([]domain.Message, error)
	FindRecentBefore(ctx context.Context, chatID string, beforeID uint, limit int) ([]domain.Message, error)
	Update(ctx context.Context, message *domain.Message) error
	Delete(ctx context.Context, messageID uint, chatID string) error
	CountByChatID(ctx context.Context, chatID string) (int64, error)
	CountByRole(ctx context.Context, chatID, role string) (int64, error)
	AddAttachment(ctx context.Context, attachment *domain.Attachment) error
}

package document

import (
	"context"

	"github.com/navidsh/go-ragchat/internal/domain"
)

// DocumentRepository handles knowledge-base document metadata.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) (*domain.Document, error)
	FindByID(ctx context.Context, id string) (*domain.Document, error)
	FindByUserID(ctx context.Context, userID uint) ([]domain.Document, error)
	FindByPath(ctx context.Context, userID uint, path string) (*domain.Document, error)
	UpdateStatus(ctx context.Context, id, status string) error
	Delete(ctx context.Context, id string, userID uint) error
}

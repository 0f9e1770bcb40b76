// File: internal/repository/document/document_repository.go

package document

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/navidsh/go-ragchat/internal/domain"
	"gorm.io/gorm"
)

var ErrDocumentNotFound = errors.New("document not found")
var ErrUnauthorizedDocumentAccess = errors.New("unauthorized access to document")

type gormDocumentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &gormDocumentRepository{db: db}
}

// Create stores document metadata after validation.
func (r *gormDocumentRepository) Create(ctx context.Context, doc *domain.Document) (*domain.Document, error) {
	if err := r.validateDocumentInput(doc); err != nil {
		log.Printf("[DocumentRepository] Validation failed: %v", err)
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	if err := r.db.WithContext(ctx).Create(doc).Error; err != nil {
		log.Printf("[DocumentRepository] Database error during document creation for user ID %d: %v", doc.UserID, err)
		return nil, errors.New("database error creating document")
	}

	log.Printf("[DocumentRepository] Document created successfully with ID: %s for user: %d", doc.ID, doc.UserID)
	return doc, nil
}

// FindByID - secure error handling, no data leakage on failure.
func (r *gormDocumentRepository) FindByID(ctx context.Context, id string) (*domain.Document, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errors.New("invalid document ID")
	}

	var doc domain.Document
	err := r.db.WithContext(ctx).First(&doc, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDocumentNotFound
		}
		log.Printf("[DocumentRepository] FindByID database error: %v", err)
		return nil, errors.New("database query failed")
	}

	return &doc, nil
}

// FindByUserID returns all documents of a user, newest first.
func (r *gormDocumentRepository) FindByUserID(ctx context.Context, userID uint) ([]domain.Document, error) {
	if userID == 0 {
		return nil, errors.New("invalid user ID")
	}

	var docs []domain.Document
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&docs).Error

	if err != nil {
		log.Printf("[DocumentRepository] Database error finding documents for user ID %d: %v", userID, err)
		return nil, errors.New("database error fetching documents")
	}

	return docs, nil
}

// FindByPath looks up a user's document by its storage path.
func (r *gormDocumentRepository) FindByPath(ctx context.Context, userID uint, path string) (*domain.Document, error) {
	if userID == 0 || strings.TrimSpace(path) == "" {
		return nil, errors.New("invalid user ID or path")
	}

	var doc domain.Document
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND path = ?", userID, path).
		First(&doc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDocumentNotFound
		}
		log.Printf("[DocumentRepository] FindByPath database error for user ID %d: %v", userID, err)
		return nil, errors.New("database query failed")
	}

	return &doc, nil
}

// UpdateStatus moves the document through its processing state machine.
func (r *gormDocumentRepository) UpdateStatus(ctx context.Context, id, status string) error {
	if strings.TrimSpace(id) == "" {
		return errors.New("invalid document ID")
	}

	if err := r.validateStatus(status); err != nil {
		return err
	}

	result := r.db.WithContext(ctx).
		Model(&domain.Document{}).
		Where("id = ?", id).
		Update("status", status)

	if result.Error != nil {
		log.Printf("[DocumentRepository] Database error updating status for document ID %s: %v", id, result.Error)
		return errors.New("database error updating document status")
	}

	if result.RowsAffected == 0 {
		return ErrDocumentNotFound
	}

	log.Printf("[DocumentRepository] Document %s status updated to %s", id, status)
	return nil
}

// Delete removes a document owned by the given user.
func (r *gormDocumentRepository) Delete(ctx context.Context, id string, userID uint) error {
	if strings.TrimSpace(id) == "" || userID == 0 {
		return errors.New("invalid document ID or user ID")
	}

	result := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&domain.Document{})

	if result.Error != nil {
		log.Printf("[DocumentRepository] Database error deleting document ID %s for user ID %d: %v", id, userID, result.Error)
		return errors.New("database error deleting document")
	}

	if result.RowsAffected == 0 {
		return ErrUnauthorizedDocumentAccess
	}

	log.Printf("[DocumentRepository] Document deleted successfully: ID %s for user %d", id, userID)
	return nil
}

// validateDocumentInput - input validation shared by write paths.
func (r *gormDocumentRepository) validateDocumentInput(doc *domain.Document) error {
	if doc == nil {
		return errors.New("document cannot be nil")
	}

	if strings.TrimSpace(doc.ID) == "" {
		return errors.New("document ID is required")
	}

	if doc.UserID == 0 {
		return errors.New("user ID is required")
	}

	if strings.TrimSpace(doc.Name) == "" {
		return errors.New("document name is required")
	}

	if strings.TrimSpace(doc.Path) == "" {
		return errors.New("document path is required")
	}

	if doc.Status != "" {
		if err := r.validateStatus(doc.Status); err != nil {
			return err
		}
	}

	return nil
}

// validateStatus - status state machine values only.
func (r *gormDocumentRepository) validateStatus(status string) error {
	allowed := map[string]bool{
		domain.DocumentStatusProcessing: true,
		domain.DocumentStatusCompleted:  true,
		domain.DocumentStatusFailed:     true,
	}

	if !allowed[status] {
		return errors.New("invalid document status")
	}

	return nil
}

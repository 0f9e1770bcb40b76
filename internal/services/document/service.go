// File: internal/services/document/service.go
package document

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/navidsh/go-ragchat/internal/domain"
	docrepo "github.com/navidsh/go-ragchat/internal/repository/document"
)

// Logger defines the logging interface used by document services
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
}

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9_.-]`)

// Upload is one inbound document with its buffered contents.
type Upload struct {
	Name string
	Type string
	Size int64
	Data []byte
}

// Stats summarises a user's document library.
type Stats struct {
	Total     int64 `json:"total"`
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
	Pending   int64 `json:"pending"`
}

// Service owns the document lifecycle: validate, store on disk, record
// metadata, hand off to the retrieval service for indexing and flip the
// status when ingestion settles.
type Service struct {
	config *Config
	repo   docrepo.DocumentRepository
	ingest *IngestClient
	logger Logger
}

func NewService(config *Config, repo docrepo.DocumentRepository, logger Logger) (*Service, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if repo == nil {
		return nil, NewValidationError("document repository is required")
	}
	return &Service{
		config: config,
		repo:   repo,
		ingest: NewIngestClient(config, logger),
		logger: logger,
	}, nil
}

// Store validates and persists an upload, then kicks off ingestion in the
// background. The returned document is in processing state; its status
// settles asynchronously.
func (s *Service) Store(ctx context.Context, userID uint, upload *Upload) (*domain.Document, error) {
	if err := s.validateUpload(upload); err != nil {
		return nil, err
	}

	name := unsafeFilenameChars.ReplaceAllString(filepath.Base(upload.Name), "_")
	id := uuid.NewString()
	dir := filepath.Join(s.config.StorageDir, "documents", fmt.Sprintf("%d", userID))

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, NewStorageError("could not create document directory", err)
	}
	path := filepath.Join(dir, id+"_"+name)
	if err := os.WriteFile(path, upload.Data, 0o644); err != nil {
		return nil, NewStorageError("could not write document file", err)
	}

	doc := &domain.Document{
		ID:     id,
		UserID: userID,
		Name:   name,
		Path:   path,
		Type:   upload.Type,
		Size:   upload.Size,
		Status: domain.DocumentStatusProcessing,
	}
	created, err := s.repo.Create(ctx, doc)
	if err != nil {
		os.Remove(path)
		return nil, NewStorageError("could not record document", err)
	}

	go s.runIngestion(created.ID, path, userID)

	s.logger.Info("document stored", "document_id", created.ID, "user_id", userID, "name", name)
	return created, nil
}

// runIngestion drives one background ingestion pass under its own
// deadline and records the terminal status.
func (s *Service) runIngestion(docID, path string, userID uint) {
	deadline := s.config.Timeout*time.Duration(s.config.MaxRetries) +
		s.config.RetryDelay*time.Duration(s.config.MaxRetries)
	ctx, cancel := context.WithTimeout(context.Background(), deadline)
	defer cancel()

	status := domain.DocumentStatusCompleted
	if err := s.ingest.Ingest(ctx, path, userID); err != nil {
		s.logger.Error("document ingestion failed", "document_id", docID, "error", err)
		status = domain.DocumentStatusFailed
	}

	if err := s.repo.UpdateStatus(ctx, docID, status); err != nil {
		s.logger.Error("failed to record ingestion status",
			"document_id", docID, "status", status, "error", err)
		return
	}
	s.logger.Info("document ingestion settled", "document_id", docID, "status", status)
}

// List returns the user's documents with library stats.
func (s *Service) List(ctx context.Context, userID uint) ([]domain.Document, *Stats, error) {
	docs, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, nil, NewStorageError("could not list documents", err)
	}

	stats := &Stats{Total: int64(len(docs))}
	for i := range docs {
		switch docs[i].Status {
		case domain.DocumentStatusCompleted:
			stats.Completed++
		case domain.DocumentStatusFailed:
			stats.Failed++
		default:
			stats.Pending++
		}
	}
	return docs, stats, nil
}

// Get returns one document after an ownership check.
func (s *Service) Get(ctx context.Context, userID uint, docID string) (*domain.Document, error) {
	doc, err := s.repo.FindByID(ctx, docID)
	if err != nil {
		return nil, NewNotFoundError("document not found")
	}
	if doc.UserID != userID {
		return nil, NewUnauthorizedError("document not found or unauthorized")
	}
	return doc, nil
}

// GetAny returns one document without an ownership check. Used by the
// keyed download endpoint, which authenticates with the shared access key
// rather than a user token.
func (s *Service) GetAny(ctx context.Context, docID string) (*domain.Document, error) {
	doc, err := s.repo.FindByID(ctx, docID)
	if err != nil {
		return nil, NewNotFoundError("document not found")
	}
	return doc, nil
}

// Delete removes the record and the stored file. File removal is
// best-effort once the record is gone.
func (s *Service) Delete(ctx context.Context, userID uint, docID string) error {
	doc, err := s.Get(ctx, userID, docID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, docID, userID); err != nil {
		return NewStorageError("could not delete document", err)
	}
	if err := os.Remove(doc.Path); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("failed to remove document file", "document_id", docID, "error", err)
	}
	s.logger.Info("document deleted", "document_id", docID, "user_id", userID)
	return nil
}

func (s *Service) validateUpload(upload *Upload) error {
	if upload == nil || upload.Name == "" {
		return NewValidationError("a file is required")
	}
	if upload.Size <= 0 || int64(len(upload.Data)) != upload.Size {
		return NewValidationError("file contents are empty or truncated")
	}
	if upload.Size > s.config.MaxFileSize {
		return NewValidationError(fmt.Sprintf("file exceeds the %d MB limit", s.config.MaxFileSize>>20))
	}

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(upload.Name)), ".")
	for _, allowed := range s.config.AllowedTypes {
		if ext == allowed {
			return nil
		}
	}
	return NewValidationError(fmt.Sprintf("file type %q is not supported", ext))
}

// File: internal/repository/chat/chat_repository.go

package chat

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/navidsh/go-ragchat/internal/domain"
	"gorm.io/gorm"
)

var ErrChatNotFound = errors.New("chat not found")
var ErrUnauthorizedAccess = errors.New("unauthorized access to chat")

type gormChatRepository struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) ChatRepository {
	return &gormChatRepository{db: db}
}

// Create - validates input and stores a new chat.
func (r *gormChatRepository) Create(ctx context.Context, chat *domain.Chat) (*domain.Chat, error) {
	if err := r.validateChatInput(chat); err != nil {
		log.Printf("[ChatRepository] Validation failed: %v", err)
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	err := r.db.WithContext(ctx).Create(chat).Error
	if err != nil {
		// Secure logging - no chat content exposed
		log.Printf("[ChatRepository] Database error during chat creation for user ID %d: %v", chat.UserID, err)
		return nil, errors.New("database error creating chat")
	}

	log.Printf("[ChatRepository] Chat created successfully with ID: %s for user: %d", chat.ID, chat.UserID)
	return chat, nil
}

// FindByID - secure error handling, no data leakage on failure.
func (r *gormChatRepository) FindByID(ctx context.Context, id string) (*domain.Chat, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errors.New("invalid chat ID")
	}

	var chat domain.Chat
	err := r.db.WithContext(ctx).First(&chat, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrChatNotFound
		}
		log.Printf("[ChatRepository] FindByID database error: %v", err)
		return nil, errors.New("database query failed")
	}

	return &chat, nil
}

// FindByUserID returns all chats of a user, most recently active first.
func (r *gormChatRepository) FindByUserID(ctx context.Context, userID uint) ([]domain.Chat, error) {
	if userID == 0 {
		return nil, errors.New("invalid user ID")
	}

	var chats []domain.Chat
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC, id DESC").
		Find(&chats).Error

	if err != nil {
		log.Printf("[ChatRepository] Database error finding chats for user ID %d: %v", userID, err)
		return nil, errors.New("database error fetching chats")
	}

	return chats, nil
}

// UpdateTitle replaces the chat title.
func (r *gormChatRepository) UpdateTitle(ctx context.Context, chatID, title string) error {
	if strings.TrimSpace(chatID) == "" {
		return errors.New("invalid chat ID")
	}

	result := r.db.WithContext(ctx).
		Model(&domain.Chat{}).
		Where("id = ?", chatID).
		Update("title", title)

	if result.Error != nil {
		log.Printf("[ChatRepository] Database error updating title for chat ID %s: %v", chatID, result.Error)
		return errors.New("database error updating chat title")
	}

	if result.RowsAffected == 0 {
		return ErrChatNotFound
	}

	return nil
}

// Delete removes a chat owned by the given user. Messages and attachments
// go with it via cascade constraints.
func (r *gormChatRepository) Delete(ctx context.Context, chatID string, userID uint) error {
	if strings.TrimSpace(chatID) == "" || userID == 0 {
		return errors.New("invalid chat ID or user ID")
	}

	result := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", chatID, userID).
		Delete(&domain.Chat{})

	if result.Error != nil {
		log.Printf("[ChatRepository] Database error deleting chat ID %s for user ID %d: %v", chatID, userID, result.Error)
		return errors.New("database error deleting chat")
	}

	if result.RowsAffected == 0 {
		return ErrUnauthorizedAccess
	}

	log.Printf("[ChatRepository] Chat deleted successfully: ID %s for user %d", chatID, userID)
	return nil
}

// TouchUpdatedAt bumps the chat's updated_at so it sorts to the top.
func (r *gormChatRepository) TouchUpdatedAt(ctx context.Context, chatID string) error {
	if strings.TrimSpace(chatID) == "" {
		return errors.New("invalid chat ID")
	}

	result := r.db.WithContext(ctx).
		Model(&domain.Chat{}).
		Where("id = ?", chatID).
		Update("updated_at", gorm.Expr("CURRENT_TIMESTAMP"))

	if result.Error != nil {
		log.Printf("[ChatRepository] Database error updating timestamp for chat ID %s: %v", chatID, result.Error)
		return errors.New("database error updating chat timestamp")
	}

	if result.RowsAffected == 0 {
		return ErrChatNotFound
	}

	return nil
}

// validateChatInput - input validation shared by write paths.
func (r *gormChatRepository) validateChatInput(chat *domain.Chat) error {
	if chat == nil {
		return errors.New("chat cannot be nil")
	}

	if strings.TrimSpace(chat.ID) == "" {
		return errors.New("chat ID is required")
	}

	if chat.UserID == 0 {
		return errors.New("user ID is required")
	}

	if len(chat.Title) > 200 {
		return errors.New("chat title too long (max 200 characters)")
	}

	return nil
}

// File: internal/repository/message/message_repository.go

package message

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/navidsh/go-ragchat/internal/domain"
	"gorm.io/gorm"
)

var ErrMessageNotFound = errors.New("message not found")
var ErrUnauthorizedMessageAccess = errors.New("unauthorized access to message")

type gormMessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &gormMessageRepository{db: db}
}

// Create stores a single message after validation.
func (r *gormMessageRepository) Create(ctx context.Context, message *domain.Message) (*domain.Message, error) {
	if err := r.validateMessageInput(message); err != nil {
		log.Printf("[MessageRepository] Validation failed: %v", err)
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	err := r.db.WithContext(ctx).Create(message).Error
	if err != nil {
		// Secure logging - no message content exposed
		log.Printf("[MessageRepository] Database error during message creation for chat ID %s: %v", message.ChatID, err)
		return nil, errors.New("database error creating message")
	}

	log.Printf("[MessageRepository] Message created successfully with ID: %d for chat: %s", message.ID, message.ChatID)
	return message, nil
}

// CreateWithTitle stores the message and updates the owning chat's title in
// one transaction: both rows commit or neither does.
func (r *gormMessageRepository) CreateWithTitle(ctx context.Context, message *domain.Message, title string) (*domain.Message, error) {
	if err := r.validateMessageInput(message); err != nil {
		log.Printf("[MessageRepository] Validation failed: %v", err)
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(message).Error; err != nil {
			return err
		}

		result := tx.Model(&domain.Chat{}).
			Where("id = ?", message.ChatID).
			Updates(map[string]interface{}{
				"title":      title,
				"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("[MessageRepository] Chat %s not found during turn save", message.ChatID)
			return nil, errors.New("chat not found")
		}
		log.Printf("[MessageRepository] Database error saving turn for chat ID %s: %v", message.ChatID, err)
		return nil, errors.New("database error saving message")
	}

	log.Printf("[MessageRepository] Turn saved: message ID %d for chat %s", message.ID, message.ChatID)
	return message, nil
}

// FindByID - complete CRUD operation.
func (r *gormMessageRepository) FindByID(ctx context.Context, messageID uint) (*domain.Message, error) {
	if messageID == 0 {
		return nil, errors.New("invalid message ID")
	}

	var message domain.Message
	err := r.db.WithContext(ctx).Preload("Attachments").First(&message, messageID).Error
	return r.handleFindError(err, &message, "FindByID")
}

// FindByChatID returns the full chronological log of a chat.
func (r *gormMessageRepository) FindByChatID(ctx context.Context, chatID string) ([]domain.Message, error) {
	if strings.TrimSpace(chatID) == "" {
		return nil, errors.New("invalid chat ID")
	}

	var messages []domain.Message
	err := r.db.WithContext(ctx).
		Preload("Attachments").
		Where("chat_id = ?", chatID).
		Order("id asc").
		Find(&messages).Error

	if err != nil {
		log.Printf("[MessageRepository] Database error finding messages for chat ID %s: %v", chatID, err)
		return nil, errors.New("database error fetching messages")
	}

	return messages, nil
}

// FindRecentBefore returns up to limit messages with IDs strictly below
// beforeID, in chronological order. This is the conversational-memory read:
// newest-first selection, then reversed.
func (r *gormMessageRepository) FindRecentBefore(ctx context.Context, chatID string, beforeID uint, limit int) ([]domain.Message, error) {
	if strings.TrimSpace(chatID) == "" || beforeID == 0 {
		return nil, errors.New("invalid parameters")
	}

	if limit <= 0 || limit > 100 {
		limit = 20
	}

	var messages []domain.Message
	err := r.db.WithContext(ctx).
		Preload("Attachments").
		Where("chat_id = ? AND id < ?", chatID, beforeID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&messages).Error

	if err != nil {
		log.Printf("[MessageRepository] Database error finding recent messages for chat ID %s: %v", chatID, err)
		return nil, errors.New("database error finding recent messages")
	}

	// Reverse to chronological order (oldest first).
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}

// Update - complete CRUD operation with validation.
func (r *gormMessageRepository) Update(ctx context.Context, message *domain.Message) error {
	if message.ID == 0 {
		return errors.New("invalid message ID")
	}

	if err := r.validateMessageInput(message); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	result := r.db.WithContext(ctx).Save(message)
	if result.Error != nil {
		log.Printf("[MessageRepository] Database error updating message ID %d: %v", message.ID, result.Error)
		return errors.New("database error updating message")
	}

	if result.RowsAffected == 0 {
		return ErrMessageNotFound
	}

	return nil
}

// Delete removes a message, scoped to its chat so callers cannot cross chats.
func (r *gormMessageRepository) Delete(ctx context.Context, messageID uint, chatID string) error {
	if messageID == 0 || strings.TrimSpace(chatID) == "" {
		return errors.New("invalid message ID or chat ID")
	}

	result := r.db.WithContext(ctx).
		Where("id = ? AND chat_id = ?", messageID, chatID).
		Delete(&domain.Message{})

	if result.Error != nil {
		log.Printf("[MessageRepository] Database error deleting message ID %d for chat ID %s: %v", messageID, chatID, result.Error)
		return errors.New("database error deleting message")
	}

	if result.RowsAffected == 0 {
		return ErrUnauthorizedMessageAccess
	}

	log.Printf("[MessageRepository] Message deleted successfully: ID %d for chat %s", messageID, chatID)
	return nil
}

// CountByChatID - efficient message counting.
func (r *gormMessageRepository) CountByChatID(ctx context.Context, chatID string) (int64, error) {
	if strings.TrimSpace(chatID) == "" {
		return 0, errors.New("invalid chat ID")
	}

	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Message{}).Where("chat_id = ?", chatID).Count(&count).Error
	if err != nil {
		log.Printf("[MessageRepository] Database error counting messages for chat ID %s: %v", chatID, err)
		return 0, errors.New("database error counting chat messages")
	}

	return count, nil
}

// CountByRole counts messages of a given role within a chat.
func (r *gormMessageRepository) CountByRole(ctx context.Context, chatID, role string) (int64, error) {
	if strings.TrimSpace(chatID) == "" {
		return 0, errors.New("invalid chat ID")
	}

	if err := r.validateRole(role); err != nil {
		return 0, err
	}

	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Message{}).
		Where("chat_id = ? AND role = ?", chatID, role).
		Count(&count).Error

	if err != nil {
		log.Printf("[MessageRepository] Database error counting messages by role for chat ID %s: %v", chatID, err)
		return 0, errors.New("database error counting messages by role")
	}

	return count, nil
}

// AddAttachment stores an attachment row for an existing message.
func (r *gormMessageRepository) AddAttachment(ctx context.Context, attachment *domain.Attachment) error {
	if attachment == nil || attachment.MessageID == 0 {
		return errors.New("invalid attachment")
	}

	if strings.TrimSpace(attachment.Content) == "" {
		return errors.New("attachment content reference is required")
	}

	if err := r.db.WithContext(ctx).Create(attachment).Error; err != nil {
		log.Printf("[MessageRepository] Database error creating attachment for message ID %d: %v", attachment.MessageID, err)
		return errors.New("database error creating attachment")
	}

	return nil
}

// ===== VALIDATION HELPERS =====

// validateMessageInput - input validation shared by write paths.
func (r *gormMessageRepository) validateMessageInput(message *domain.Message) error {
	if message == nil {
		return errors.New("message cannot be nil")
	}

	if strings.TrimSpace(message.ChatID) == "" {
		return errors.New("chat ID is required")
	}

	if strings.TrimSpace(message.Content) == "" {
		return errors.New("message content cannot be empty")
	}

	if message.Role != "" {
		if err := r.validateRole(message.Role); err != nil {
			return fmt.Errorf("role validation: %w", err)
		}
	}

	return nil
}

// validateRole - role validation.
func (r *gormMessageRepository) validateRole(role string) error {
	allowedRoles := map[string]bool{
		domain.RoleUser:      true,
		domain.RoleAssistant: true,
		domain.RoleTool:      true,
	}

	if role != "" && !allowedRoles[role] {
		return errors.New("invalid message role")
	}

	return nil
}

// ===== ERROR HANDLING HELPERS =====

// handleFindError - secure error handling without data leakage.
func (r *gormMessageRepository) handleFindError(err error, message *domain.Message, operation string) (*domain.Message, error) {
	if err == nil {
		return message, nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrMessageNotFound
	}

	log.Printf("[MessageRepository] %s database error: %v", operation, err)

	return nil, errors.New("database query failed")
}

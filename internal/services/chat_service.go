// File: internal/services/chat_service.go
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/navidsh/go-ragchat/internal/domain"
	"github.com/navidsh/go-ragchat/internal/repository/chat"
	"github.com/navidsh/go-ragchat/internal/repository/message"
	chatservice "github.com/navidsh/go-ragchat/internal/services/chat"
)

// ChatService is the façade over the interaction pipeline and chat CRUD.
// Handlers talk to this type only; the pipeline internals live in
// services/chat.
type ChatService struct {
	config        *chatservice.Config
	chatRepo      chat.ChatRepository
	messageRepo   message.MessageRepository
	streamService *chatservice.StreamingService
	logger        Logger
}

func NewChatService(
	config *chatservice.Config,
	chatRepo chat.ChatRepository,
	messageRepo message.MessageRepository,
	storageDir string,
	logger Logger,
) (*ChatService, error) {
	if chatRepo == nil {
		return nil, chatservice.NewValidationError("constructor", "chat repository is required")
	}
	if messageRepo == nil {
		return nil, chatservice.NewValidationError("constructor", "message repository is required")
	}
	if config == nil {
		config = chatservice.DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, chatservice.NewValidationError("config", err.Error())
	}
	if logger == nil {
		logger = &NoOpLogger{}
	}

	turns := chatservice.NewTurnService(messageRepo, chatRepo, storageDir, logger)
	assembler := chatservice.NewContextAssembler(config, messageRepo, logger)
	retrieval := chatservice.NewRetrievalClient(config, logger)
	composer := chatservice.NewPromptComposer(config, logger)
	relay := chatservice.NewCompletionRelay(config, logger)

	streamService, err := chatservice.NewStreamingService(
		config, chatRepo, turns, assembler, retrieval, composer, relay, logger)
	if err != nil {
		return nil, err
	}

	return &ChatService{
		config:        config,
		chatRepo:      chatRepo,
		messageRepo:   messageRepo,
		streamService: streamService,
		logger:        logger,
	}, nil
}

// StreamTurn runs one interaction turn; see chatservice.StreamingService.
func (s *ChatService) StreamTurn(ctx context.Context, userID uint, req *chatservice.TurnRequest, ev chatservice.StreamEvents) error {
	return s.streamService.StreamTurn(ctx, userID, req, ev)
}

// CreateChat starts a new private conversation with a dated placeholder
// title.
func (s *ChatService) CreateChat(ctx context.Context, userID uint, title string) (*domain.Chat, error) {
	if title == "" {
		title = fmt.Sprintf("%s - New Chat", time.Now().Format("1/2"))
	}
	record := &domain.Chat{
		ID:         uuid.NewString(),
		UserID:     userID,
		Title:      title,
		Visibility: domain.VisibilityPrivate,
	}
	created, err := s.chatRepo.Create(ctx, record)
	if err != nil {
		s.logger.Error("failed to create chat", "user_id", userID, "error", err)
		return nil, chatservice.NewPersistenceError("create_chat", "could not create chat", "", err)
	}
	s.logger.Info("chat created", "chat_id", created.ID, "user_id", userID)
	return created, nil
}

// GetUserChats lists the user's conversations, most recently active first.
func (s *ChatService) GetUserChats(ctx context.Context, userID uint) ([]domain.Chat, error) {
	chats, err := s.chatRepo.FindByUserID(ctx, userID)
	if err != nil {
		s.logger.Error("failed to list chats", "user_id", userID, "error", err)
		return nil, chatservice.NewPersistenceError("list_chats", "could not list chats", "", err)
	}
	return chats, nil
}

// GetChatMessages returns a chat's full message history in order, after an
// ownership check.
func (s *ChatService) GetChatMessages(ctx context.Context, userID uint, chatID string) ([]domain.Message, error) {
	record, err := s.chatRepo.FindByID(ctx, chatID)
	if err != nil || record.UserID != userID {
		return nil, chatservice.NewUnauthorizedError(userID, chatID)
	}
	messages, err := s.messageRepo.FindByChatID(ctx, chatID)
	if err != nil {
		s.logger.Error("failed to load messages", "chat_id", chatID, "error", err)
		return nil, chatservice.NewPersistenceError("list_messages", "could not load messages", chatID, err)
	}
	return messages, nil
}

// DeleteChat removes a conversation and its messages. The repository
// enforces ownership.
func (s *ChatService) DeleteChat(ctx context.Context, userID uint, chatID string) error {
	if err := s.chatRepo.Delete(ctx, chatID, userID); err != nil {
		if err == chat.ErrChatNotFound || err == chat.ErrUnauthorizedAccess {
			return chatservice.NewUnauthorizedError(userID, chatID)
		}
		s.logger.Error("failed to delete chat", "chat_id", chatID, "error", err)
		return chatservice.NewPersistenceError("delete_chat", "could not delete chat", chatID, err)
	}
	s.logger.Info("chat deleted", "chat_id", chatID, "user_id", userID)
	return nil
}

// RenameChat updates a chat's title, after an ownership check.
func (s *ChatService) RenameChat(ctx context.Context, userID uint, chatID, title string) error {
	if title == "" {
		return chatservice.NewValidationError("rename_chat", "title is required")
	}
	record, err := s.chatRepo.FindByID(ctx, chatID)
	if err != nil || record.UserID != userID {
		return chatservice.NewUnauthorizedError(userID, chatID)
	}
	if err := s.chatRepo.UpdateTitle(ctx, chatID, title); err != nil {
		s.logger.Error("failed to rename chat", "chat_id", chatID, "error", err)
		return chatservice.NewPersistenceError("rename_chat", "could not rename chat", chatID, err)
	}
	return nil
}

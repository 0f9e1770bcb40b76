// File: internal/services/chat/turns.go
package chat

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/navidsh/go-ragchat/internal/domain"
	"github.com/navidsh/go-ragchat/internal/repository/chat"
	"github.com/navidsh/go-ragchat/internal/repository/message"
)

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9_.-]`)

// TurnService persists the two halves of an interaction turn. The user
// half is atomic: message insert and chat-title update share one
// transaction. The attachment files are stored best-effort afterwards so
// a failed disk write never loses the message itself.
type TurnService struct {
	messageRepo message.MessageRepository
	chatRepo    chat.ChatRepository
	storageDir  string
	logger      Logger
}

func NewTurnService(
	messageRepo message.MessageRepository,
	chatRepo chat.ChatRepository,
	storageDir string,
	logger Logger,
) *TurnService {
	return &TurnService{
		messageRepo: messageRepo,
		chatRepo:    chatRepo,
		storageDir:  storageDir,
		logger:      logger,
	}
}

// DeriveTitle builds a chat title from the first three whitespace-separated
// words of the prompt.
func DeriveTitle(prompt string) string {
	words := strings.Fields(prompt)
	if len(words) > 3 {
		words = words[:3]
	}
	return strings.Join(words, " ")
}

// SaveUserTurn stores the user message and retitles the chat in one
// transaction, then stores any uploaded files.
//
// TODO: the title is recomputed on every user message, matching current
// client expectations; restrict to the first message once the web client
// stops relying on it.
func (s *TurnService) SaveUserTurn(ctx context.Context, req *TurnRequest) (*domain.Message, error) {
	role := req.Role
	if role == "" {
		role = domain.RoleUser
	}
	msg := &domain.Message{
		ChatID:  req.ChatID,
		Role:    role,
		Content: req.Prompt,
		Date:    req.Date,
	}

	title := DeriveTitle(req.Prompt)
	if _, err := s.messageRepo.CreateWithTitle(ctx, msg, title); err != nil {
		s.logger.Error("failed to persist user turn", "chat_id", req.ChatID, "error", err)
		return nil, NewPersistenceError("save_user_turn", "could not save user message", req.ChatID, err)
	}

	for _, file := range req.Files {
		s.storeAttachment(ctx, msg, file)
	}

	return msg, nil
}

// SaveAssistantTurn stores the completed assistant reply and bumps the
// chat's updated_at so listings sort by recency.
func (s *TurnService) SaveAssistantTurn(ctx context.Context, chatID, content, date string) (*domain.Message, error) {
	msg := &domain.Message{
		ChatID:  chatID,
		Role:    domain.RoleAssistant,
		Content: content,
		Date:    date,
	}

	if _, err := s.messageRepo.Create(ctx, msg); err != nil {
		s.logger.Error("failed to persist assistant turn", "chat_id", chatID, "error", err)
		return nil, NewPersistenceError("save_assistant_turn", "could not save assistant message", chatID, err)
	}

	if err := s.chatRepo.TouchUpdatedAt(ctx, chatID); err != nil {
		s.logger.Warn("failed to touch chat timestamp", "chat_id", chatID, "error", err)
	}

	return msg, nil
}

// storeAttachment writes one uploaded file to disk and records it against
// the message. Failures are logged and swallowed.
func (s *TurnService) storeAttachment(ctx context.Context, msg *domain.Message, file IncomingFile) {
	name := unsafeFilenameChars.ReplaceAllString(filepath.Base(file.Name), "_")
	dir := filepath.Join(s.storageDir, "attachments", fmt.Sprintf("%d", msg.ID))

	if err := os.MkdirAll(dir, 0o755); err != nil {
		s.logger.Warn("failed to create attachment directory", "message_id", msg.ID, "error", err)
		return
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, file.Data, 0o644); err != nil {
		s.logger.Warn("failed to write attachment file", "message_id", msg.ID, "name", name, "error", err)
		return
	}

	attachment := &domain.Attachment{
		MessageID: msg.ID,
		Type:      file.Type,
		Content:   path,
	}
	if err := s.messageRepo.AddAttachment(ctx, attachment); err != nil {
		s.logger.Warn("failed to record attachment", "message_id", msg.ID, "name", name, "error", err)
		return
	}

	msg.Attachments = append(msg.Attachments, *attachment)
}

// File: internal/services/chat/context.go
package chat

import (
	"context"

	openai "github.com/sashabaranov/go-openai"

	"github.com/navidsh/go-ragchat/internal/domain"
	"github.com/navidsh/go-ragchat/internal/repository/message"
)

// ContextAssembler builds the bounded conversational window that precedes a
// new user turn. It is a pure read over the message log.
type ContextAssembler struct {
	config      *Config
	messageRepo message.MessageRepository
	logger      Logger
}

// NewContextAssembler creates a new context assembler with configuration
func NewContextAssembler(config *Config, messageRepo message.MessageRepository, logger Logger) *ContextAssembler {
	return &ContextAssembler{
		config:      config,
		messageRepo: messageRepo,
		logger:      logger,
	}
}

// Assemble returns the prior turns of a chat as completion-API messages,
// in chronological order, limited to the configured window and restricted to
// messages with IDs strictly below beforeID (the just-saved user message).
//
// Consecutive user-role messages are collapsed: when the previously emitted
// entry was a user turn, further user turns are skipped until an assistant
// or tool message passes through. The output therefore never contains two
// user entries in a row.
func (a *ContextAssembler) Assemble(ctx context.Context, chatID string, beforeID uint) ([]openai.ChatCompletionMessage, error) {
	recent, err := a.messageRepo.FindRecentBefore(ctx, chatID, beforeID, a.config.HistoryWindow)
	if err != nil {
		return nil, NewPersistenceError("assemble_context", "could not load recent messages", chatID, err)
	}

	history := make([]openai.ChatCompletionMessage, 0, len(recent))
	lastRole := ""

	for i := range recent {
		msg := &recent[i]
		switch msg.Role {
		case domain.RoleUser:
			if lastRole == domain.RoleUser {
				continue
			}
			history = append(history, openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleUser,
				Content: FormatUserContent(msg),
			})
		case domain.RoleAssistant:
			history = append(history, openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleAssistant,
				Content: msg.Content,
			})
		case domain.RoleTool:
			history = append(history, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    msg.Content,
				ToolCallID: msg.ToolCallID,
				Name:       msg.Name,
			})
		default:
			a.logger.Warn("skipping message with unknown role", "message_id", msg.ID, "role", msg.Role)
			continue
		}
		lastRole = msg.Role
	}

	a.logger.Debug("context assembled", "chat_id", chatID, "window", len(recent), "emitted", len(history))
	return history, nil
}

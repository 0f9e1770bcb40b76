// File: internal/services/chat/composer.go
package chat

import (
	"fmt"
	"path/filepath"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/navidsh/go-ragchat/internal/domain"
)

const baseSystemPrompt = "You are a helpful assistant. Maintain a conversational flow based on recent interactions."

const citationInstructions = "When the knowledge base above contains relevant information, ground your answer in it " +
	"and cite the source name for every fact you take from it. " +
	"If the knowledge base does not cover the question, say so before answering from general knowledge."

// PromptComposer merges the system instruction, retrieved context, history
// and the new user turn into the ordered message list for the completion
// API. Pure transformation; no persisted state is touched.
type PromptComposer struct {
	config *Config
	logger Logger
}

func NewPromptComposer(config *Config, logger Logger) *PromptComposer {
	return &PromptComposer{
		config: config,
		logger: logger,
	}
}

// Compose builds the final message list: one system message (extended with
// the knowledge-base block when retrieval produced content), the assembled
// history in chronological order, then the new user message.
func (c *PromptComposer) Compose(
	history []openai.ChatCompletionMessage,
	userMessage *domain.Message,
	retrieved *RetrievedContext,
) []openai.ChatCompletionMessage {
	messages := make([]openai.ChatCompletionMessage, 0, len(history)+2)

	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: c.systemPrompt(retrieved),
	})

	messages = append(messages, history...)

	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: FormatUserContent(userMessage),
	})

	c.logger.Debug("prompt composed",
		"messages", len(messages), "augmented", retrieved.HasContent())
	return messages
}

// systemPrompt extends the base instruction with the knowledge-base block
// and citation guidance, but only when retrieval actually produced content.
func (c *PromptComposer) systemPrompt(retrieved *RetrievedContext) string {
	if !retrieved.HasContent() {
		return baseSystemPrompt
	}

	var b strings.Builder
	b.WriteString(baseSystemPrompt)
	b.WriteString("\n\n")
	b.WriteString(retrieved.Block)
	b.WriteString("\n\n")
	b.WriteString(citationInstructions)
	if len(retrieved.Sources) > 0 {
		b.WriteString("\nAvailable sources: ")
		b.WriteString(strings.Join(retrieved.Sources, ", "))
	}

	return b.String()
}

// FormatUserContent decorates a user message with its uploaded-file manifest
// when attachments are present; otherwise the raw content passes through.
func FormatUserContent(msg *domain.Message) string {
	if !msg.HasAttachments() {
		return msg.Content
	}

	names := make([]string, 0, len(msg.Attachments))
	for _, att := range msg.Attachments {
		names = append(names, filepath.Base(att.Content))
	}

	return fmt.Sprintf("User has uploaded the following files: [%s].\nUser's message: %s",
		strings.Join(names, ", "), msg.Content)
}

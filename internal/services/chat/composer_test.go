// File: internal/services/chat/composer_test.go
package chat

import (
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/navidsh/go-ragchat/internal/domain"
)

func TestComposeWithoutRetrieval(t *testing.T) {
	composer := NewPromptComposer(testConfig(), nopLogger{})
	history := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleUser, Content: "earlier question"},
		{Role: openai.ChatMessageRoleAssistant, Content: "earlier answer"},
	}
	userMsg := &domain.Message{Role: domain.RoleUser, Content: "new question"}

	messages := composer.Compose(history, userMsg, nil)

	require.Len(t, messages, 4)
	assert.Equal(t, openai.ChatMessageRoleSystem, messages[0].Role)
	assert.Equal(t, baseSystemPrompt, messages[0].Content)
	assert.Equal(t, "earlier question", messages[1].Content)
	assert.Equal(t, "earlier answer", messages[2].Content)
	assert.Equal(t, openai.ChatMessageRoleUser, messages[3].Role)
	assert.Equal(t, "new question", messages[3].Content)
}

func TestComposeWithRetrievedContext(t *testing.T) {
	composer := NewPromptComposer(testConfig(), nopLogger{})
	retrieved := &RetrievedContext{
		Excerpts: []Excerpt{{Source: "notes.pdf", Text: "excerpt text"}},
		Block:    knowledgeBaseHeader + "\n\nexcerpt text\n\n" + knowledgeBaseFooter,
		Sources:  []string{"notes.pdf", "guide.pdf"},
	}
	userMsg := &domain.Message{Role: domain.RoleUser, Content: "question"}

	messages := composer.Compose(nil, userMsg, retrieved)

	require.Len(t, messages, 2)
	system := messages[0].Content
	assert.Contains(t, system, baseSystemPrompt)
	assert.Contains(t, system, knowledgeBaseHeader)
	assert.Contains(t, system, knowledgeBaseFooter)
	assert.Contains(t, system, citationInstructions)
	assert.Contains(t, system, "Available sources: notes.pdf, guide.pdf")
}

func TestComposeEmptyRetrievedContextLeavesSystemPromptAlone(t *testing.T) {
	composer := NewPromptComposer(testConfig(), nopLogger{})
	userMsg := &domain.Message{Role: domain.RoleUser, Content: "question"}

	messages := composer.Compose(nil, userMsg, &RetrievedContext{})

	require.Len(t, messages, 2)
	assert.Equal(t, baseSystemPrompt, messages[0].Content)
}

func TestFormatUserContentWithAttachments(t *testing.T) {
	msg := &domain.Message{
		Role:    domain.RoleUser,
		Content: "what is in these files?",
		Attachments: []domain.Attachment{
			{Content: "/storage/attachments/9/scan.png"},
			{Content: "/storage/attachments/9/report.pdf"},
		},
	}

	content := FormatUserContent(msg)

	assert.Equal(t,
		"User has uploaded the following files: [scan.png, report.pdf].\nUser's message: what is in these files?",
		content)
}

func TestFormatUserContentPlain(t *testing.T) {
	msg := &domain.Message{Role: domain.RoleUser, Content: "plain question"}
	assert.Equal(t, "plain question", FormatUserContent(msg))
}

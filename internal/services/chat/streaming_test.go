// File: internal/services/chat/streaming_test.go
package chat

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/navidsh/go-ragchat/internal/domain"
	chatrepo "github.com/navidsh/go-ragchat/internal/repository/chat"
	messagerepo "github.com/navidsh/go-ragchat/internal/repository/message"
)

func newStreamingService(t *testing.T, db *gorm.DB, cfg *Config) *StreamingService {
	t.Helper()

	chatRepo := chatrepo.NewChatRepository(db)
	messageRepo := messagerepo.NewMessageRepository(db)
	logger := nopLogger{}

	turns := NewTurnService(messageRepo, chatRepo, t.TempDir(), logger)
	assembler := NewContextAssembler(cfg, messageRepo, logger)
	retrieval := NewRetrievalClient(cfg, logger)
	composer := NewPromptComposer(cfg, logger)
	relay := NewCompletionRelay(cfg, logger)

	svc, err := NewStreamingService(cfg, chatRepo, turns, assembler, retrieval, composer, relay, logger)
	require.NoError(t, err)
	return svc
}

func completionServer(t *testing.T, lines ...string) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, l := range lines {
			w.Write([]byte(l + "\n"))
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func TestStreamTurnPersistsExactlyOneAssistantMessage(t *testing.T) {
	db := newTestDB(t)
	seedChat(t, db, "chat-1", 1)

	server := completionServer(t,
		deltaLine("The "),
		deltaLine("streamed "),
		deltaLine("answer."),
		"data: [DONE]",
	)

	cfg := testConfig()
	cfg.CompletionURL = server.URL
	svc := newStreamingService(t, db, cfg)

	var streamed strings.Builder
	err := svc.StreamTurn(context.Background(), 1, &TurnRequest{
		ChatID: "chat-1",
		Prompt: "a question",
		Date:   "2026-08-28",
	}, StreamEvents{
		OnDelta: func(d string) error { streamed.WriteString(d); return nil },
	})
	require.NoError(t, err)

	messageRepo := messagerepo.NewMessageRepository(db)
	assistantCount, err := messageRepo.CountByRole(context.Background(), "chat-1", domain.RoleAssistant)
	require.NoError(t, err)
	assert.Equal(t, int64(1), assistantCount)

	messages, err := messageRepo.FindByChatID(context.Background(), "chat-1")
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, domain.RoleUser, messages[0].Role)
	assert.Equal(t, domain.RoleAssistant, messages[1].Role)

	// The persisted reply is byte-identical to what the client saw.
	assert.Equal(t, "The streamed answer.", streamed.String())
	assert.Equal(t, streamed.String(), messages[1].Content)
}

func TestStreamTurnUpstreamFailureSendsApology(t *testing.T) {
	db := newTestDB(t)
	seedChat(t, db, "chat-1", 1)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	t.Cleanup(server.Close)

	cfg := testConfig()
	cfg.CompletionURL = server.URL
	svc := newStreamingService(t, db, cfg)

	var apology string
	err := svc.StreamTurn(context.Background(), 1, &TurnRequest{
		ChatID: "chat-1",
		Prompt: "a question",
		Date:   "2026-08-28",
	}, StreamEvents{
		OnDelta: func(string) error { return nil },
		OnError: func(msg string) { apology = msg },
	})
	require.NoError(t, err)

	assert.Equal(t, ApologyUpstreamFailed, apology)

	// The user turn survives; no assistant message is written.
	messageRepo := messagerepo.NewMessageRepository(db)
	userCount, err := messageRepo.CountByRole(context.Background(), "chat-1", domain.RoleUser)
	require.NoError(t, err)
	assert.Equal(t, int64(1), userCount)

	assistantCount, err := messageRepo.CountByRole(context.Background(), "chat-1", domain.RoleAssistant)
	require.NoError(t, err)
	assert.Zero(t, assistantCount)
}

func TestStreamTurnRejectsForeignChat(t *testing.T) {
	db := newTestDB(t)
	seedChat(t, db, "chat-1", 1)

	cfg := testConfig()
	svc := newStreamingService(t, db, cfg)

	err := svc.StreamTurn(context.Background(), 2, &TurnRequest{
		ChatID: "chat-1",
		Prompt: "not my chat",
	}, StreamEvents{OnDelta: func(string) error { return nil }})

	require.Error(t, err)
	chatErr, ok := err.(*ChatError)
	require.True(t, ok)
	assert.Equal(t, ErrTypeUnauthorized, chatErr.Type)
}

func TestStreamTurnRejectsEmptyPrompt(t *testing.T) {
	db := newTestDB(t)
	svc := newStreamingService(t, db, testConfig())

	err := svc.StreamTurn(context.Background(), 1, &TurnRequest{ChatID: "chat-1"},
		StreamEvents{OnDelta: func(string) error { return nil }})

	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}

func TestStreamTurnEmitsSourcesWhenRetrievalEnabled(t *testing.T) {
	db := newTestDB(t)
	seedChat(t, db, "chat-1", 1)

	retrievalSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(retrievalPayload(
			[]string{"relevant excerpt"},
			[]excerptMetadata{{Source: "handbook.pdf"}},
			[]float64{0.3},
		))
	}))
	t.Cleanup(retrievalSrv.Close)

	completionSrv := completionServer(t, deltaLine("grounded answer"), "data: [DONE]")

	cfg := testConfig()
	cfg.CompletionURL = completionSrv.URL
	cfg.EnableRetrieval = true
	cfg.RetrievalURL = retrievalSrv.URL
	svc := newStreamingService(t, db, cfg)

	var sources []string
	err := svc.StreamTurn(context.Background(), 1, &TurnRequest{
		ChatID: "chat-1",
		Prompt: "a question",
		Date:   "2026-08-28",
	}, StreamEvents{
		OnDelta:   func(string) error { return nil },
		OnSources: func(s []string) { sources = s },
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"handbook.pdf"}, sources)
}

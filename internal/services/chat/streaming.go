// File: internal/services/chat/streaming.go
package chat

import (
	"context"
	"errors"
	"time"

	"github.com/navidsh/go-ragchat/internal/repository/chat"
)

const dbSaveTimeout = 10 * time.Second

// StreamingService runs one interaction turn end to end: ownership check,
// user-turn persistence, history assembly, optional knowledge-base
// retrieval, prompt composition, the streamed completion relay and finally
// assistant-turn persistence. Turns on the same chat are serialised by the
// gate; different chats run concurrently.
type StreamingService struct {
	config    *Config
	chatRepo  chat.ChatRepository
	turns     *TurnService
	assembler *ContextAssembler
	retrieval *RetrievalClient
	composer  *PromptComposer
	relay     *CompletionRelay
	gate      *ChatGate
	logger    Logger
}

func NewStreamingService(
	config *Config,
	chatRepo chat.ChatRepository,
	turns *TurnService,
	assembler *ContextAssembler,
	retrieval *RetrievalClient,
	composer *PromptComposer,
	relay *CompletionRelay,
	logger Logger,
) (*StreamingService, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &StreamingService{
		config:    config,
		chatRepo:  chatRepo,
		turns:     turns,
		assembler: assembler,
		retrieval: retrieval,
		composer:  composer,
		relay:     relay,
		gate:      NewChatGate(),
		logger:    logger,
	}, nil
}

// StreamTurn processes a user turn and streams the assistant reply through
// ev. Errors before the stream opens are returned so the transport can
// fail fast with a proper status; once streaming has begun, failures are
// reported in-stream via ev.OnError instead.
//
// A client disconnect mid-stream abandons the turn: the partial reply is
// discarded and nothing assistant-side is persisted.
func (s *StreamingService) StreamTurn(ctx context.Context, userID uint, req *TurnRequest, ev StreamEvents) error {
	if req.Prompt == "" {
		return NewValidationError("stream_turn", "prompt is required")
	}
	if req.Date == "" {
		req.Date = time.Now().Format("2006-01-02")
	}

	record, err := s.chatRepo.FindByID(ctx, req.ChatID)
	if err != nil || record.UserID != userID {
		return NewUnauthorizedError(userID, req.ChatID)
	}

	unlock := s.gate.Lock(req.ChatID)
	defer unlock()

	userMsg, err := s.turns.SaveUserTurn(ctx, req)
	if err != nil {
		return err
	}

	history, err := s.assembler.Assemble(ctx, req.ChatID, userMsg.ID)
	if err != nil {
		s.logger.Warn("history assembly failed, continuing without history",
			"chat_id", req.ChatID, "error", err)
		history = nil
	}

	var retrieved *RetrievedContext
	if s.config.EnableRetrieval {
		retrieved = s.retrieval.Retrieve(ctx, req.Prompt, userID)
		if retrieved.HasContent() && ev.OnSources != nil {
			ev.OnSources(retrieved.Sources)
		}
	}

	messages := s.composer.Compose(history, userMsg, retrieved)

	reply, err := s.relay.Stream(ctx, messages, ev.OnDelta)
	if err != nil {
		if ctx.Err() != nil {
			s.logger.Info("client disconnected mid-stream, turn abandoned",
				"chat_id", req.ChatID)
			return nil
		}
		s.logger.Error("completion relay failed", "chat_id", req.ChatID, "error", err)
		if ev.OnError != nil {
			ev.OnError(ApologyFor(err))
		}
		return nil
	}

	s.persistReply(req.ChatID, reply, req.Date)
	return nil
}

// persistReply saves the assistant turn under its own deadline, detached
// from the request context so a disconnect after stream completion cannot
// lose the reply.
func (s *StreamingService) persistReply(chatID, reply, date string) {
	saveCtx, cancel := context.WithTimeout(context.Background(), dbSaveTimeout)
	defer cancel()

	if _, err := s.turns.SaveAssistantTurn(saveCtx, chatID, reply, date); err != nil {
		s.logger.Error("failed to persist assistant reply", "chat_id", chatID, "error", err)
	}
}

// IsValidationError reports whether err is a pre-stream validation or
// authorization failure the transport should map to a client error status.
func IsValidationError(err error) bool {
	var chatErr *ChatError
	if !errors.As(err, &chatErr) {
		return false
	}
	return chatErr.Type == ErrTypeValidation || chatErr.Type == ErrTypeUnauthorized
}

// File: internal/handlers/interaction_handler.go
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/navidsh/go-ragchat/internal/middleware"
	"github.com/navidsh/go-ragchat/internal/services"
	chatservice "github.com/navidsh/go-ragchat/internal/services/chat"
)

// maxInteractionBody caps a multipart interaction request; attachments are
// buffered in memory before storage.
const maxInteractionBody = 32 << 20

// InteractionHandler serves the streaming interaction endpoint. A request
// is JSON for plain turns or multipart when files ride along; the response
// is always an event stream once validation passes.
type InteractionHandler struct {
	ChatService *services.ChatService
}

func NewInteractionHandler(cs *services.ChatService) *InteractionHandler {
	return &InteractionHandler{ChatService: cs}
}

// Interact handles POST /api/interact.
func (h *InteractionHandler) Interact(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	req, err := h.parseRequest(r)
	if err != nil {
		writeError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	if req.ChatID == "" || req.Prompt == "" {
		writeError(w, "chat_id and prompt are required", http.StatusUnprocessableEntity)
		return
	}

	stream, err := newEventStreamWriter(w)
	if err != nil {
		writeError(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	ev := chatservice.StreamEvents{
		OnDelta:   stream.sendDelta,
		OnSources: func(sources []string) { stream.sendSources(sources) },
		OnError:   func(message string) { stream.sendError(message) },
	}

	if err := h.ChatService.StreamTurn(r.Context(), userID, req, ev); err != nil {
		log.Printf("[InteractionHandler] turn failed: %v", err)
		if !stream.Opened() {
			// Nothing streamed yet; fail fast with a proper status.
			writeError(w, errorMessageFor(err), statusFor(err))
			return
		}
		stream.sendError(errorMessageFor(err))
		return
	}

	stream.sendDone()
}

// parseRequest decodes either a JSON body or a multipart form with files.
func (h *InteractionHandler) parseRequest(r *http.Request) (*chatservice.TurnRequest, error) {
	contentType := r.Header.Get("Content-Type")

	if strings.HasPrefix(contentType, "multipart/form-data") {
		return h.parseMultipart(r)
	}

	var body struct {
		ChatID string `json:"chat_id"`
		Prompt string `json:"prompt"`
		Role   string `json:"role"`
		Date   string `json:"date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return nil, chatservice.NewValidationError("interact", "invalid request body")
	}
	return &chatservice.TurnRequest{
		ChatID: body.ChatID,
		Prompt: body.Prompt,
		Role:   body.Role,
		Date:   body.Date,
	}, nil
}

func (h *InteractionHandler) parseMultipart(r *http.Request) (*chatservice.TurnRequest, error) {
	if err := r.ParseMultipartForm(maxInteractionBody); err != nil {
		return nil, chatservice.NewValidationError("interact", "invalid multipart form")
	}

	req := &chatservice.TurnRequest{
		ChatID: r.FormValue("chat_id"),
		Prompt: r.FormValue("prompt"),
		Role:   r.FormValue("role"),
		Date:   r.FormValue("date"),
	}

	if r.MultipartForm != nil {
		for _, header := range r.MultipartForm.File["files"] {
			f, err := header.Open()
			if err != nil {
				return nil, chatservice.NewValidationError("interact", "could not read uploaded file")
			}
			data, err := io.ReadAll(f)
			f.Close()
			if err != nil {
				return nil, chatservice.NewValidationError("interact", "could not read uploaded file")
			}
			req.Files = append(req.Files, chatservice.IncomingFile{
				Name: header.Filename,
				Type: header.Header.Get("Content-Type"),
				Data: data,
			})
		}
	}

	return req, nil
}

func errorMessageFor(err error) string {
	if chatservice.IsValidationError(err) {
		return err.Error()
	}
	return "An error occurred while processing your request."
}

func statusFor(err error) int {
	var chatErr *chatservice.ChatError
	if errors.As(err, &chatErr) {
		switch chatErr.Type {
		case chatservice.ErrTypeUnauthorized:
			return http.StatusForbidden
		case chatservice.ErrTypeValidation:
			return http.StatusUnprocessableEntity
		}
	}
	return http.StatusInternalServerError
}

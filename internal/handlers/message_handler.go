// File: internal/handlers/message_handler.go
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/navidsh/go-ragchat/internal/domain"
	"github.com/navidsh/go-ragchat/internal/middleware"
	chatrepo "github.com/navidsh/go-ragchat/internal/repository/chat"
	messagerepo "github.com/navidsh/go-ragchat/internal/repository/message"
)

// MessageHandler exposes plain CRUD over individual messages, outside the
// streaming pipeline. Every operation resolves the owning chat first so a
// user can only touch messages in their own conversations.
type MessageHandler struct {
	MessageRepo messagerepo.MessageRepository
	ChatRepo    chatrepo.ChatRepository
}

func NewMessageHandler(messageRepo messagerepo.MessageRepository, chatRepo chatrepo.ChatRepository) *MessageHandler {
	return &MessageHandler{MessageRepo: messageRepo, ChatRepo: chatRepo}
}

// ownsChat reports whether the user owns the given chat.
func (h *MessageHandler) ownsChat(r *http.Request, userID uint, chatID string) bool {
	record, err := h.ChatRepo.FindByID(r.Context(), chatID)
	return err == nil && record.UserID == userID
}

// Create handles POST /api/messages.
func (h *MessageHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		ChatID  string `json:"chat_id"`
		Role    string `json:"role"`
		Content string `json:"content"`
		Date    string `json:"date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ChatID == "" || req.Content == "" {
		writeError(w, "chat_id and content are required", http.StatusUnprocessableEntity)
		return
	}
	if !h.ownsChat(r, userID, req.ChatID) {
		writeError(w, "Chat not found", http.StatusNotFound)
		return
	}

	if req.Role == "" {
		req.Role = domain.RoleUser
	}
	msg, err := h.MessageRepo.Create(r.Context(), &domain.Message{
		ChatID:  req.ChatID,
		Role:    req.Role,
		Content: req.Content,
		Date:    req.Date,
	})
	if err != nil {
		writeError(w, "Could not store message", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

// Show handles GET /api/messages/{id}.
func (h *MessageHandler) Show(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	msg, ok := h.loadOwned(w, r, userID)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

// Update handles PUT /api/messages/{id}.
func (h *MessageHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	msg, ok := h.loadOwned(w, r, userID)
	if !ok {
		return
	}

	var req struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Content == "" {
		writeError(w, "content is required", http.StatusUnprocessableEntity)
		return
	}

	msg.Content = req.Content
	if err := h.MessageRepo.Update(r.Context(), msg); err != nil {
		writeError(w, "Could not update message", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

// Delete handles DELETE /api/messages/{id}.
func (h *MessageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	msg, ok := h.loadOwned(w, r, userID)
	if !ok {
		return
	}

	if err := h.MessageRepo.Delete(r.Context(), msg.ID, msg.ChatID); err != nil {
		writeError(w, "Could not delete message", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// loadOwned fetches the path message and verifies chat ownership, writing
// the error response itself when either step fails.
func (h *MessageHandler) loadOwned(w http.ResponseWriter, r *http.Request, userID uint) (*domain.Message, bool) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 32)
	if err != nil {
		writeError(w, "Invalid message ID", http.StatusBadRequest)
		return nil, false
	}

	msg, err := h.MessageRepo.FindByID(r.Context(), uint(id))
	if err != nil {
		writeError(w, "Message not found", http.StatusNotFound)
		return nil, false
	}
	if !h.ownsChat(r, userID, msg.ChatID) {
		writeError(w, "Message not found", http.StatusNotFound)
		return nil, false
	}
	return msg, true
}

// File: internal/handlers/chat_handler_test.go
package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/navidsh/go-ragchat/internal/auth"
	"github.com/navidsh/go-ragchat/internal/domain"
	"github.com/navidsh/go-ragchat/internal/middleware"
)

const testSecret = "test-secret"

func newTestRouter(t *testing.T) (*mux.Router, *ChatHandler) {
	t.Helper()

	svc, _ := newTestChatService(t, func(w http.ResponseWriter, r *http.Request) {})
	handler := NewChatHandler(svc)

	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()
	api.Use(middleware.NewJWTMiddleware(testSecret))
	api.HandleFunc("/chats", handler.GetUserChats).Methods("GET")
	api.HandleFunc("/chats", handler.CreateChat).Methods("POST")
	api.HandleFunc("/chats/{id}/messages", handler.GetChatMessages).Methods("GET")
	api.HandleFunc("/chats/{id}", handler.RenameChat).Methods("PUT")
	api.HandleFunc("/chats/{id}", handler.DeleteChat).Methods("DELETE")
	return r, handler
}

func authedRequest(t *testing.T, method, target string, body []byte, userID uint) *http.Request {
	t.Helper()

	token, err := auth.GenerateJWT(userID, []byte(testSecret))
	require.NoError(t, err)

	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestChatLifecycle(t *testing.T) {
	router, _ := newTestRouter(t)

	// Create with an explicit title.
	payload, _ := json.Marshal(map[string]string{"title": "cardiology notes"})
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, authedRequest(t, http.MethodPost, "/api/chats", payload, 1))
	require.Equal(t, http.StatusCreated, resp.Code)

	var created domain.Chat
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "cardiology notes", created.Title)
	assert.Equal(t, domain.VisibilityPrivate, created.Visibility)

	// List shows it.
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, authedRequest(t, http.MethodGet, "/api/chats", nil, 1))
	require.Equal(t, http.StatusOK, resp.Code)

	var chats []domain.Chat
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &chats))
	require.Len(t, chats, 1)

	// Rename.
	payload, _ = json.Marshal(map[string]string{"title": "renamed"})
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, authedRequest(t, http.MethodPut, "/api/chats/"+created.ID, payload, 1))
	assert.Equal(t, http.StatusNoContent, resp.Code)

	// Empty message log.
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, authedRequest(t, http.MethodGet, "/api/chats/"+created.ID+"/messages", nil, 1))
	assert.Equal(t, http.StatusOK, resp.Code)

	// Delete.
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, authedRequest(t, http.MethodDelete, "/api/chats/"+created.ID, nil, 1))
	assert.Equal(t, http.StatusNoContent, resp.Code)

	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, authedRequest(t, http.MethodGet, "/api/chats", nil, 1))
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &chats))
	assert.Empty(t, chats)
}

func TestCreateChatDefaultTitle(t *testing.T) {
	router, _ := newTestRouter(t)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, authedRequest(t, http.MethodPost, "/api/chats", []byte(`{}`), 1))
	require.Equal(t, http.StatusCreated, resp.Code)

	var created domain.Chat
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &created))
	assert.Contains(t, created.Title, " - New Chat")
}

func TestChatAccessIsScopedToOwner(t *testing.T) {
	router, _ := newTestRouter(t)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, authedRequest(t, http.MethodPost, "/api/chats", []byte(`{}`), 1))
	require.Equal(t, http.StatusCreated, resp.Code)

	var created domain.Chat
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &created))

	// Another user cannot read or delete it.
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, authedRequest(t, http.MethodGet, "/api/chats/"+created.ID+"/messages", nil, 2))
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, authedRequest(t, http.MethodDelete, "/api/chats/"+created.ID, nil, 2))
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestMissingOrInvalidToken(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/chats", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/chats", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

// File: internal/handlers/document_handler.go
package handlers

import (
	"crypto/subtle"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/navidsh/go-ragchat/internal/middleware"
	docservice "github.com/navidsh/go-ragchat/internal/services/document"
)

// maxUploadBody caps a document upload request body.
const maxUploadBody = 12 << 20

// DocumentHandler serves the knowledge-base document endpoints: upload,
// listing with library stats, deletion and keyed raw-file download for the
// retrieval service.
type DocumentHandler struct {
	Documents *docservice.Service
	AccessKey string // shared key for the download endpoint
}

func NewDocumentHandler(documents *docservice.Service, accessKey string) *DocumentHandler {
	return &DocumentHandler{Documents: documents, AccessKey: accessKey}
}

// Upload handles POST /api/documents.
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBody)
	if err := r.ParseMultipartForm(maxUploadBody); err != nil {
		writeError(w, "Invalid upload", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, "A file is required", http.StatusUnprocessableEntity)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, "Could not read uploaded file", http.StatusBadRequest)
		return
	}

	doc, err := h.Documents.Store(r.Context(), userID, &docservice.Upload{
		Name: header.Filename,
		Type: header.Header.Get("Content-Type"),
		Size: int64(len(data)),
		Data: data,
	})
	if err != nil {
		writeError(w, errMessage(err), statusForDocError(err))
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

// List handles GET /api/documents.
func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	docs, stats, err := h.Documents.List(r.Context(), userID)
	if err != nil {
		writeError(w, "Could not list documents", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"documents": docs,
		"stats":     stats,
	})
}

// Delete handles DELETE /api/documents/{id}.
func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	docID := mux.Vars(r)["id"]
	if err := h.Documents.Delete(r.Context(), userID, docID); err != nil {
		writeError(w, errMessage(err), statusForDocError(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Download handles GET /api/documents/{id}/raw. The retrieval service
// fetches stored files with a shared key instead of a user token.
func (h *DocumentHandler) Download(w http.ResponseWriter, r *http.Request) {
	key := r.Header.Get("X-API-Key")
	if h.AccessKey == "" || subtle.ConstantTimeCompare([]byte(key), []byte(h.AccessKey)) != 1 {
		writeError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	docID := mux.Vars(r)["id"]
	doc, err := h.Documents.GetAny(r.Context(), docID)
	if err != nil {
		writeError(w, "Document not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", doc.Type)
	http.ServeFile(w, r, doc.Path)
}

func errMessage(err error) string {
	var docErr *docservice.DocumentError
	if errors.As(err, &docErr) {
		return docErr.Message
	}
	return "Could not process document"
}

func statusForDocError(err error) int {
	var docErr *docservice.DocumentError
	if !errors.As(err, &docErr) {
		return http.StatusInternalServerError
	}
	switch docErr.Type {
	case docservice.ErrTypeValidation:
		return http.StatusUnprocessableEntity
	case docservice.ErrTypeNotFound, docservice.ErrTypeUnauthorized:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

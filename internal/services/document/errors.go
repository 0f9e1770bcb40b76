// File: internal/services/document/errors.go
package document

import "fmt"

type ErrorType string

const (
	ErrTypeConfig      ErrorType = "CONFIG"
	ErrTypeValidation  ErrorType = "VALIDATION"
	ErrTypeStorage     ErrorType = "STORAGE"
	ErrTypeIngest      ErrorType = "INGEST"
	ErrTypeNotFound    ErrorType = "NOT_FOUND"
	ErrTypeUnauthorized ErrorType = "UNAUTHORIZED"
)

type DocumentError struct {
	Type    ErrorType
	Message string
	Cause   error
}

func (e *DocumentError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("Document %s error: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("Document %s error: %s", e.Type, e.Message)
}

func (e *DocumentError) Unwrap() error {
	return e.Cause
}

func NewValidationError(msg string) *DocumentError {
	return &DocumentError{Type: ErrTypeValidation, Message: msg}
}

func NewStorageError(msg string, cause error) *DocumentError {
	return &DocumentError{Type: ErrTypeStorage, Message: msg, Cause: cause}
}

func NewIngestError(msg string, cause error) *DocumentError {
	return &DocumentError{Type: ErrTypeIngest, Message: msg, Cause: cause}
}

func NewNotFoundError(msg string) *DocumentError {
	return &DocumentError{Type: ErrTypeNotFound, Message: msg}
}

func NewUnauthorizedError(msg string) *DocumentError {
	return &DocumentError{Type: ErrTypeUnauthorized, Message: msg}
}

package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     nil,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain error codes
const (
	ErrCodeValidation    = "VALIDATION_ERROR"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeUpstream      = "UPSTREAM_ERROR"
	ErrCodeProcessing    = "PROCESSING_ERROR"
	ErrCodeInternalError = "INTERNAL_ERROR"
)

// Validation errors
var (
	ErrMissingProjectID = NewDomainError(ErrCodeValidation, "project id is required")
	ErrMissingMessages  = NewDomainError(ErrCodeValidation, "messages are required")
	ErrNoUserMessage    = NewDomainError(ErrCodeValidation, "no user message found")
	ErrEmptyContent     = NewDomainError(ErrCodeValidation, "no content to index")
	ErrInvalidItemType  = NewDomainError(ErrCodeValidation, "invalid knowledge item type")
)

// IsNotFound reports whether err carries the NOT_FOUND error code.
func IsNotFound(err error) bool {
	var de *DomainError
	return errors.As(err, &de) && de.Code == ErrCodeNotFound
}

// Not found errors
var (
	ErrProjectNotFound       = NewDomainError(ErrCodeNotFound, "project not found")
	ErrKnowledgeItemNotFound = NewDomainError(ErrCodeNotFound, "knowledge item not found")
	ErrChatNotFound          = NewDomainError(ErrCodeNotFound, "chat not found")
)

// Upstream errors; the cause carries the provider detail.
var (
	ErrEmbeddingFailed     = NewDomainError(ErrCodeUpstream, "embedding generation failed")
	ErrCompletionFailed    = NewDomainError(ErrCodeUpstream, "chat completion failed")
	ErrTranscriptionFailed = NewDomainError(ErrCodeUpstream, "audio transcription failed")
	ErrSpeechFailed        = NewDomainError(ErrCodeUpstream, "speech synthesis failed")
	ErrStorageFailed       = NewDomainError(ErrCodeUpstream, "storage operation failed")
)

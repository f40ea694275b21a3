// Package errors provides the standardized error taxonomy shared by the HTTP
// handlers and the prompt pipeline.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"
	"sync/atomic"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeValidation       ErrorCode = "VALIDATION_ERROR"
	ErrCodeNotFound         ErrorCode = "NOT_FOUND"
	ErrCodeUpstreamTimeout  ErrorCode = "UPSTREAM_TIMEOUT"
	ErrCodeUpstreamRejected ErrorCode = "UPSTREAM_REJECTED"
	ErrCodeUpstreamFailed   ErrorCode = "UPSTREAM_FAILED"
	ErrCodeGenerationFormat ErrorCode = "GENERATION_FORMAT_ERROR"
	ErrCodeLLMGeneration    ErrorCode = "LLM_GENERATION_FAILED"
	ErrCodeStoreQuery       ErrorCode = "STORE_QUERY_FAILED"
	ErrCodeTransaction      ErrorCode = "TRANSACTION_FAILURE"
	ErrCodeDuplicate        ErrorCode = "DUPLICATE_RESOURCE"
	ErrCodeUnauthorized     ErrorCode = "UNAUTHORIZED"
	ErrCodeInternal         ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code        ErrorCode              `json:"code"`
	Message     string                 `json:"message"`
	Details     string                 `json:"details,omitempty"`
	Retryable   bool                   `json:"retryable"`
	Suggestions []string               `json:"suggestions,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	Timestamp   time.Time              `json:"timestamp"`
	cause       error
	stack       []byte
}

var captureStacks atomic.Bool

// CaptureStacks toggles recording the creation stack of new errors.
// Enabled in development only.
func CaptureStacks(enabled bool) {
	captureStacks.Store(enabled)
}

// Stack returns the stack captured when the error was created, if any.
func (e *StandardError) Stack() string {
	return string(e.stack)
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// WithSuggestions attaches follow-up prompts shown to the caller.
func (e *StandardError) WithSuggestions(suggestions ...string) *StandardError {
	e.Suggestions = append([]string(nil), suggestions...)
	return e
}

// WithMetadata adds a metadata entry.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

func newError(code ErrorCode, message string, cause error, retryable bool) *StandardError {
	e := &StandardError{
		Code:      code,
		Message:   message,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
	if cause != nil {
		e.Details = cause.Error()
	}
	if captureStacks.Load() {
		e.stack = debug.Stack()
	}
	return e
}

// ==========================
// 2. Error Constructors
// ==========================

// NewValidationError reports missing or malformed caller input.
func NewValidationError(message string) *StandardError {
	return newError(ErrCodeValidation, message, nil, false)
}

// NewNotFoundError reports a missing follow-up record or resource.
func NewNotFoundError(message string) *StandardError {
	return newError(ErrCodeNotFound, message, nil, false)
}

// NewUpstreamTimeoutError reports that a downstream call exceeded its deadline.
func NewUpstreamTimeoutError(service string, cause error) *StandardError {
	return newError(ErrCodeUpstreamTimeout, fmt.Sprintf("%s request timed out", service), cause, true).
		WithSuggestions("Try a simpler query", "Ask for fewer products")
}

// NewUpstreamRejectedError carries the upstream error list joined into one message.
func NewUpstreamRejectedError(service string, messages []string) *StandardError {
	e := newError(ErrCodeUpstreamRejected, strings.Join(messages, "; "), nil, false)
	return e.WithMetadata("service", service)
}

// NewUpstreamFailedError reports a generic transport failure.
func NewUpstreamFailedError(service string, cause error) *StandardError {
	return newError(ErrCodeUpstreamFailed, fmt.Sprintf("%s request failed", service), cause, true)
}

// NewGenerationFormatError reports generated text that failed structural validation.
func NewGenerationFormatError(message string, cause error) *StandardError {
	return newError(ErrCodeGenerationFormat, message, cause, false).
		WithSuggestions("Try rephrasing your question")
}

// NewLLMGenerationError reports a failed text-completion call.
func NewLLMGenerationError(cause error) *StandardError {
	return newError(ErrCodeLLMGeneration, "text generation failed", cause, true)
}

// NewStoreQueryError reports a failed structured-store call.
func NewStoreQueryError(operation string, cause error) *StandardError {
	return newError(ErrCodeStoreQuery, fmt.Sprintf("%s query failed", operation), cause, true)
}

// NewTransactionError reports a rolled-back transaction.
func NewTransactionError(message string, cause error) *StandardError {
	return newError(ErrCodeTransaction, message, cause, false)
}

// NewDuplicateError reports a unique-key conflict.
func NewDuplicateError(message string) *StandardError {
	return newError(ErrCodeDuplicate, message, nil, false)
}

// NewUnauthorizedError reports failed authentication.
func NewUnauthorizedError(message string) *StandardError {
	return newError(ErrCodeUnauthorized, message, nil, false)
}

// NewInternalError wraps an unexpected failure.
func NewInternalError(cause error) *StandardError {
	return newError(ErrCodeInternal, "unexpected error", cause, false)
}

// ==========================
// 3. Utility Functions
// ==========================

// As returns the first StandardError in err's chain.
func As(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// Normalize converts any error into a StandardError.
func Normalize(err error) *StandardError {
	if stdErr, ok := As(err); ok {
		return stdErr
	}
	return NewInternalError(err)
}

// CodeOf returns the error code of err, or INTERNAL_ERROR.
func CodeOf(err error) ErrorCode {
	if stdErr, ok := As(err); ok {
		return stdErr.Code
	}
	return ErrCodeInternal
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}

// HTTPStatus maps an error code to its response status.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeValidation, ErrCodeUpstreamRejected, ErrCodeDuplicate:
		return http.StatusBadRequest
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeUpstreamTimeout:
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	switch code {
	case ErrCodeValidation, ErrCodeNotFound, ErrCodeDuplicate:
		return "CLIENT"
	case ErrCodeUnauthorized:
		return "AUTH"
	case ErrCodeUpstreamTimeout, ErrCodeUpstreamRejected, ErrCodeUpstreamFailed:
		return "COMMERCE"
	case ErrCodeGenerationFormat, ErrCodeLLMGeneration:
		return "AI"
	case ErrCodeStoreQuery, ErrCodeTransaction:
		return "DATABASE"
	default:
		return "SYSTEM"
	}
}

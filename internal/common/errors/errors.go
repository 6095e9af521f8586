// Package errors provides standardized error handling for the HTTP API.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeInvalidRequest   ErrorCode = "INVALID_REQUEST"
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodePayloadTooLarge  ErrorCode = "PAYLOAD_TOO_LARGE"

	ErrCodeClientNotFound           ErrorCode = "CLIENT_NOT_FOUND"
	ErrCodeDuplicateClient          ErrorCode = "DUPLICATE_CLIENT"
	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeDatabaseInsertFailed     ErrorCode = "DATABASE_INSERT_FAILED"

	ErrCodeDocumentNotFound         ErrorCode = "DOCUMENT_NOT_FOUND"
	ErrCodeObjectStoreNotConfigured ErrorCode = "OBJECT_STORE_NOT_CONFIGURED"
	ErrCodeObjectStoreRequestFailed ErrorCode = "OBJECT_STORE_REQUEST_FAILED"
	ErrCodeTextExtractionFailed     ErrorCode = "TEXT_EXTRACTION_FAILED"
	ErrCodeNoResults                ErrorCode = "NO_RESULTS"
	ErrCodeReasoningUnavailable     ErrorCode = "REASONING_UNAVAILABLE"
	ErrCodeAnalysisDeadlineExceeded ErrorCode = "ANALYSIS_DEADLINE_EXCEEDED"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// WithMetadata attaches a key/value pair and returns the same error.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// ==========================
// 2. Error Constructors
// ==========================

// NewInvalidRequestError creates a non-retryable malformed-request error.
func NewInvalidRequestError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidRequest,
		Message:   "Invalid request",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewValidationFailedError creates a non-retryable schema validation error.
func NewValidationFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   "Request validation failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewPayloadTooLargeError(limit int64) *StandardError {
	return &StandardError{
		Code:      ErrCodePayloadTooLarge,
		Message:   "Upload exceeds the configured size limit",
		Details:   fmt.Sprintf("limitBytes: %d", limit),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewClientNotFoundError creates a non-retryable missing-client error.
func NewClientNotFoundError(clientID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeClientNotFound,
		Message:   "Client not found",
		Details:   fmt.Sprintf("clientId: %s", clientID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewDuplicateClientError(clientID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeDuplicateClient,
		Message:   "Client already exists",
		Details:   fmt.Sprintf("clientId: %s", clientID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseConnectionFailedError creates a retryable database connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseConnectionFailed,
		Message:   "Database connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueryExecutionFailedError creates a retryable query execution error.
func NewQueryExecutionFailedError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryExecutionFailed,
		Message:   "Database query execution error",
		Details:   fmt.Sprintf("operation: %s, error: %s", operation, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseInsertFailedError creates a retryable database insert error.
func NewDatabaseInsertFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseInsertFailed,
		Message:   "Database insert operation failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewDocumentNotFoundError reports a key that is missing from the bucket.
func NewDocumentNotFoundError(key string, err error) *StandardError {
	details := fmt.Sprintf("key: %s", key)
	if err != nil {
		details = fmt.Sprintf("key: %s, error: %s", key, err.Error())
	}
	return &StandardError{
		Code:      ErrCodeDocumentNotFound,
		Message:   fmt.Sprintf("File not found in MinIO: %s", key),
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewObjectStoreNotConfiguredError() *StandardError {
	return &StandardError{
		Code:      ErrCodeObjectStoreNotConfigured,
		Message:   "MinIO bucket name is not configured",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewObjectStoreRequestFailedError wraps a transport or service failure of the object store.
func NewObjectStoreRequestFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeObjectStoreRequestFailed,
		Message:   "Error retrieving files from MinIO",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewTextExtractionFailedError is returned when either document yields no text.
func NewTextExtractionFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeTextExtractionFailed,
		Message:   "Failed to extract text from one or both PDFs",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewNoResultsError() *StandardError {
	return &StandardError{
		Code:      ErrCodeNoResults,
		Message:   "No results generated",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewReasoningUnavailableError reports that no correlation call reached the reasoning service.
func NewReasoningUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeReasoningUnavailable,
		Message:   "Reasoning service unreachable",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewAnalysisDeadlineExceededError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeAnalysisDeadlineExceeded,
		Message:   "Analysis did not finish before the deadline",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewInternalError wraps an unexpected error.
func NewInternalError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Utility Functions
// ==========================

// AsStandardError unwraps err to a *StandardError, normalizing foreign
// errors to INTERNAL_ERROR.
func AsStandardError(err error) *StandardError {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	return NewInternalError(err)
}

// HTTPStatus maps an error code to the status code the API responds with.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeInvalidRequest,
		ErrCodeValidationFailed,
		ErrCodeTextExtractionFailed:
		return http.StatusBadRequest

	case ErrCodePayloadTooLarge:
		return http.StatusRequestEntityTooLarge

	case ErrCodeClientNotFound,
		ErrCodeDocumentNotFound:
		return http.StatusNotFound

	case ErrCodeDuplicateClient:
		return http.StatusConflict

	case ErrCodeReasoningUnavailable:
		return http.StatusBadGateway

	case ErrCodeAnalysisDeadlineExceeded:
		return http.StatusGatewayTimeout

	default:
		return http.StatusInternalServerError
	}
}

// IsRetryableErrorCode reports whether a client may retry the same request.
func IsRetryableErrorCode(code ErrorCode) bool {
	switch code {
	case ErrCodeDatabaseConnectionFailed,
		ErrCodeQueryExecutionFailed,
		ErrCodeDatabaseInsertFailed,
		ErrCodeObjectStoreRequestFailed,
		ErrCodeReasoningUnavailable,
		ErrCodeAnalysisDeadlineExceeded:
		return true
	default:
		return false
	}
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY") || strings.Contains(codeStr, "CLIENT"):
		return "DATABASE"
	case strings.Contains(codeStr, "OBJECT_STORE") || strings.Contains(codeStr, "DOCUMENT"):
		return "STORAGE"
	case strings.Contains(codeStr, "REASONING") || strings.Contains(codeStr, "ANALYSIS") ||
		strings.Contains(codeStr, "EXTRACTION") || strings.Contains(codeStr, "RESULTS"):
		return "ANALYSIS"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "VALIDATION") || strings.Contains(codeStr, "PAYLOAD"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}

// internal/common/errors/handler.go
package errors

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the JSON body of every non-2xx API response. Detail keeps
// the human readable reason at the top level.
type ErrorResponse struct {
	Detail    string                 `json:"detail"`
	Code      ErrorCode              `json:"code"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// ErrorHandler logs and renders request errors with standardized handling
type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Error(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// HandleRequestError normalizes err, logs it and writes the response.
func (h *ErrorHandler) HandleRequestError(w http.ResponseWriter, r *http.Request, err error) {
	stdErr := AsStandardError(err)
	status := HTTPStatus(stdErr.Code)
	h.logError(r, stdErr, status)
	WriteError(w, stdErr)
}

func (h *ErrorHandler) logError(r *http.Request, stdErr *StandardError, status int) {
	if h.logger == nil {
		return
	}
	fields := map[string]interface{}{
		"method":        r.Method,
		"path":          r.URL.Path,
		"status":        status,
		"errorCode":     string(stdErr.Code),
		"message":       stdErr.Message,
		"details":       stdErr.Details,
		"retryable":     stdErr.Retryable,
		"errorCategory": GetErrorCategory(stdErr.Code),
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed", fields)
		return
	}
	h.logger.Warn("Request rejected", fields)
}

// WriteError renders err as an ErrorResponse with the status mapped from its code.
func WriteError(w http.ResponseWriter, err error) {
	stdErr := AsStandardError(err)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(HTTPStatus(stdErr.Code))
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Detail:    stdErr.Message,
		Code:      stdErr.Code,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Metadata:  stdErr.Metadata,
	})
}

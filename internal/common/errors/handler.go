// internal/common/errors/handler.go
package errors

import (
	"encoding/json"
	"net/http"
)

// ErrorHandler converts errors into HTTP responses with standardized bodies.
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

// errorBody is the JSON envelope every failed request gets.
type errorBody struct {
	Success bool                   `json:"success"`
	Error   string                 `json:"error"`
	Code    ErrorCode              `json:"code"`
	Details string                 `json:"details,omitempty"`
	Fields  map[string]interface{} `json:"fields,omitempty"`
}

// WriteError normalizes err to a StandardError and writes it as JSON.
func (h *ErrorHandler) WriteError(w http.ResponseWriter, r *http.Request, err error) {
	stdErr := AsStandard(err)
	status := stdErr.HTTPStatus()

	fields := map[string]interface{}{
		"code":    string(stdErr.Code),
		"status":  status,
		"path":    r.URL.Path,
		"method":  r.Method,
		"details": stdErr.Details,
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", fields)
	} else {
		h.logger.Warn("request rejected", fields)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{
		Success: false,
		Error:   stdErr.Message,
		Code:    stdErr.Code,
		Details: stdErr.Details,
		Fields:  stdErr.Metadata,
	})
}

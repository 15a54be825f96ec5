package httpx

import (
	"fmt"
	"net/http"
)

// Error is a wire-level error response carrying a stable machine-readable
// code and a human message. It implements the error interface and is used
// both by HTTP handlers and by clients of the service.
type Error struct {
	// StatusCode is the HTTP status code for this error.
	StatusCode int `json:"-"`

	// Code is the machine-readable error code (e.g. "invalid_credentials").
	Code string `json:"error"`

	// Message is a human-readable description of the error.
	Message string `json:"error_description"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// WriteError writes this Error to an HTTP response writer.
func (e *Error) WriteError(w http.ResponseWriter) {
	WriteJSON(w, e.StatusCode, map[string]string{
		"error":             e.Code,
		"error_description": e.Message,
	})
}

// NewError creates an Error with the given status code, machine code, and
// message. Useful for one-off messages while keeping the standard wire shape.
func NewError(statusCode int, code, message string) *Error {
	return &Error{
		StatusCode: statusCode,
		Code:       code,
		Message:    message,
	}
}

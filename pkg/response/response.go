package response

import (
	"encoding/json"
	"net/http"
)

// Response represents a standard API error response.
type Response struct {
	Success bool       `json:"success"`
	Error   *ErrorInfo `json:"error,omitempty"`
}

// ErrorInfo contains error details.
type ErrorInfo struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

// JSON writes v as the response body with the given status.
func JSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
}

// Status writes an empty response with the given status.
func Status(w http.ResponseWriter, statusCode int) {
	w.WriteHeader(statusCode)
}

// Error sends an error response.
func Error(w http.ResponseWriter, statusCode int, code, message string, details ...string) {
	JSON(w, statusCode, Response{
		Success: false,
		Error: &ErrorInfo{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// Unauthorized sends a 401 error response.
func Unauthorized(w http.ResponseWriter, message string) {
	Error(w, http.StatusUnauthorized, "UNAUTHORIZED", message)
}

// NotFound sends a 404 error response.
func NotFound(w http.ResponseWriter, message string) {
	Error(w, http.StatusNotFound, "NOT_FOUND", message)
}

// Conflict sends a 409 error response.
func Conflict(w http.ResponseWriter, message string) {
	Error(w, http.StatusConflict, "CONFLICT", message)
}

// PayloadTooLarge sends a 413 error response.
func PayloadTooLarge(w http.ResponseWriter, message string) {
	Error(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", message)
}

// Unprocessable sends a 422 error response.
func Unprocessable(w http.ResponseWriter, message string, details ...string) {
	Error(w, http.StatusUnprocessableEntity, "UNPROCESSABLE_ENTITY", message, details...)
}

// InternalError sends a 500 error response.
func InternalError(w http.ResponseWriter, message string) {
	Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", message)
}

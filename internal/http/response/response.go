// Package response provides standardized HTTP response formatting and error handling utilities.
package response

import (
	"encoding/json/v2"
	"log/slog"
	"net/http"

	"github.com/querydeckapp/querydeck-server/internal/errors"
)

// Envelope provides a consistent JSON response structure.
// Successful responses carry Data; failures carry Message, Code and
// optionally Details.
type Envelope struct {
	Success bool        `json:"success"`
	Data    any         `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
	Code    errors.Code `json:"code,omitempty"`
	Details any         `json:"details,omitempty"`
}

// JSON writes a successful JSON response with the given status code using json/v2.
func JSON(w http.ResponseWriter, status int, data any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	envelope := Envelope{
		Success: true,
		Data:    data,
	}

	// json/v2 MarshalWrite doesn't add a newline, but that's fine for HTTP responses.
	if err := json.MarshalWrite(w, envelope); err != nil {
		if logger != nil {
			logger.Error("Failed to encode JSON response", "error", err)
		}
	}
}

// Success writes a successful JSON response (200 OK).
func Success(w http.ResponseWriter, data any, logger *slog.Logger) {
	JSON(w, http.StatusOK, data, logger)
}

// Created writes a created response (201 Created).
func Created(w http.ResponseWriter, data any, logger *slog.Logger) {
	JSON(w, http.StatusCreated, data, logger)
}

// NoContent writes a no content response (204 No Content).
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Fail writes a failure envelope with the given status, message and code.
func Fail(w http.ResponseWriter, status int, message string, code errors.Code, details any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	envelope := Envelope{
		Success: false,
		Message: message,
		Code:    code,
		Details: details,
	}

	if err := json.MarshalWrite(w, envelope); err != nil {
		if logger != nil {
			logger.Error("Failed to encode error response", "error", err)
		}
	}
}

// BadRequest writes a 400 Bad Request response.
func BadRequest(w http.ResponseWriter, message string, logger *slog.Logger) {
	Fail(w, http.StatusBadRequest, message, errors.CodeValidation, nil, logger)
}

// Unauthorized writes a 401 Unauthorized response.
func Unauthorized(w http.ResponseWriter, message string, logger *slog.Logger) {
	Fail(w, http.StatusUnauthorized, message, errors.CodeUnauthorized, nil, logger)
}

// Forbidden writes a 403 Forbidden response.
func Forbidden(w http.ResponseWriter, message string, logger *slog.Logger) {
	Fail(w, http.StatusForbidden, message, errors.CodeForbidden, nil, logger)
}

// NotFound writes a 404 Not Found response.
func NotFound(w http.ResponseWriter, message string, logger *slog.Logger) {
	Fail(w, http.StatusNotFound, message, errors.CodeNotFound, nil, logger)
}

// TooManyRequests writes a 429 response for rate-limited clients.
func TooManyRequests(w http.ResponseWriter, message string, logger *slog.Logger) {
	Fail(w, http.StatusTooManyRequests, message, errors.CodeInternal, nil, logger)
}

// InternalError writes a 500 Internal Server Error response.
func InternalError(w http.ResponseWriter, message string, logger *slog.Logger) {
	Fail(w, http.StatusInternalServerError, message, errors.CodeInternal, nil, logger)
}

// HandleError writes an appropriate HTTP response based on the error type.
// Domain errors carry their own code-to-status mapping; unknown errors
// become 500 without leaking internals.
func HandleError(w http.ResponseWriter, err error, logger *slog.Logger) {
	var domainErr *errors.Error
	if errors.As(err, &domainErr) {
		status := domainErr.HTTPStatus()
		if status == http.StatusInternalServerError && logger != nil {
			logger.Error("Internal error", "code", domainErr.Code, "error", err)
		}
		Fail(w, status, domainErr.Message, domainErr.Code, domainErr.Details, logger)
		return
	}

	// Unknown error = 500
	if logger != nil {
		logger.Error("Unhandled error", "error", err)
	}
	InternalError(w, "internal server error", logger)
}

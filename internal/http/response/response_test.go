package response

import (
	"encoding/json/v2"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/querydeckapp/querydeck-server/internal/errors"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func decode(t *testing.T, w *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var result Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	return result
}

func TestJSON_Success(t *testing.T) {
	w := httptest.NewRecorder()

	data := map[string]string{"message": "test"}
	JSON(w, http.StatusOK, data, discardLogger())

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))

	result := decode(t, w)
	assert.True(t, result.Success)
	assert.NotNil(t, result.Data)
	assert.Empty(t, result.Message)
	assert.Empty(t, result.Code)
}

func TestJSON_NilLogger(t *testing.T) {
	w := httptest.NewRecorder()

	JSON(w, http.StatusOK, map[string]string{"message": "test"}, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode(t, w).Success)
}

func TestSuccess(t *testing.T) {
	w := httptest.NewRecorder()

	data := map[string]any{
		"id":    "qry-123",
		"title": "test",
	}
	Success(w, data, discardLogger())

	assert.Equal(t, http.StatusOK, w.Code)

	result := decode(t, w)
	assert.True(t, result.Success)

	dataMap, ok := result.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "qry-123", dataMap["id"])
	assert.Equal(t, "test", dataMap["title"])
}

func TestCreated(t *testing.T) {
	w := httptest.NewRecorder()

	Created(w, map[string]string{"id": "qry-new"}, discardLogger())

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, decode(t, w).Success)
}

func TestNoContent(t *testing.T) {
	w := httptest.NewRecorder()

	NoContent(w)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestFail(t *testing.T) {
	w := httptest.NewRecorder()

	Fail(w, http.StatusConflict, "already starred", errors.CodeConflict, nil, discardLogger())

	assert.Equal(t, http.StatusConflict, w.Code)

	result := decode(t, w)
	assert.False(t, result.Success)
	assert.Nil(t, result.Data)
	assert.Equal(t, "already starred", result.Message)
	assert.Equal(t, errors.CodeConflict, result.Code)
}

func TestStatusHelpers(t *testing.T) {
	tests := []struct {
		name   string
		write  func(w http.ResponseWriter)
		status int
		code   errors.Code
	}{
		{"bad request", func(w http.ResponseWriter) { BadRequest(w, "m", nil) }, http.StatusBadRequest, errors.CodeValidation},
		{"unauthorized", func(w http.ResponseWriter) { Unauthorized(w, "m", nil) }, http.StatusUnauthorized, errors.CodeUnauthorized},
		{"forbidden", func(w http.ResponseWriter) { Forbidden(w, "m", nil) }, http.StatusForbidden, errors.CodeForbidden},
		{"not found", func(w http.ResponseWriter) { NotFound(w, "m", nil) }, http.StatusNotFound, errors.CodeNotFound},
		{"too many requests", func(w http.ResponseWriter) { TooManyRequests(w, "m", nil) }, http.StatusTooManyRequests, errors.CodeInternal},
		{"internal", func(w http.ResponseWriter) { InternalError(w, "m", nil) }, http.StatusInternalServerError, errors.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.write(w)

			assert.Equal(t, tt.status, w.Code)

			result := decode(t, w)
			assert.False(t, result.Success)
			assert.Equal(t, "m", result.Message)
			assert.Equal(t, tt.code, result.Code)
		})
	}
}

func TestHandleError_DomainError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   errors.Code
	}{
		{"not found", errors.NotFound("query not found"), http.StatusNotFound, errors.CodeNotFound},
		{"conflict", errors.Conflict("already starred"), http.StatusConflict, errors.CodeConflict},
		{"validation", errors.Validation("bad page"), http.StatusBadRequest, errors.CodeValidation},
		{"db insert", errors.Wrap(assert.AnError, errors.CodeDBInsert, "insert failed"), http.StatusInternalServerError, errors.CodeDBInsert},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			HandleError(w, tt.err, discardLogger())

			assert.Equal(t, tt.status, w.Code)

			result := decode(t, w)
			assert.False(t, result.Success)
			assert.Equal(t, tt.code, result.Code)
		})
	}
}

func TestHandleError_WithDetails(t *testing.T) {
	w := httptest.NewRecorder()

	err := errors.ValidationWithDetails("validation failed", map[string]string{"title": "is required"})
	HandleError(w, err, discardLogger())

	assert.Equal(t, http.StatusBadRequest, w.Code)

	result := decode(t, w)
	details, ok := result.Details.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "is required", details["title"])
}

func TestHandleError_UnknownError(t *testing.T) {
	w := httptest.NewRecorder()

	HandleError(w, assert.AnError, discardLogger())

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	result := decode(t, w)
	assert.False(t, result.Success)
	// Internals never leak into the message.
	assert.Equal(t, "internal server error", result.Message)
}

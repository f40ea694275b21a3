package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Error(string, map[string]interface{}) {}
func (nopLogger) Warn(string, map[string]interface{})  {}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want int
	}{
		{ErrCodeValidation, http.StatusBadRequest},
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeUpstreamTimeout, http.StatusRequestTimeout},
		{ErrCodeUpstreamRejected, http.StatusBadRequest},
		{ErrCodeGenerationFormat, http.StatusInternalServerError},
		{ErrCodeTransaction, http.StatusInternalServerError},
		{ErrCodeUnauthorized, http.StatusUnauthorized},
		{ErrCodeDuplicate, http.StatusBadRequest},
		{ErrCodeInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.code))
		})
	}
}

func TestAs_FindsWrappedStandardError(t *testing.T) {
	base := NewNotFoundError("no stored result")
	wrapped := fmt.Errorf("follow-up: %w", base)

	got, ok := As(wrapped)
	require.True(t, ok)
	assert.Equal(t, ErrCodeNotFound, got.Code)
	assert.Equal(t, ErrCodeNotFound, CodeOf(wrapped))
	assert.True(t, IsCode(wrapped, ErrCodeNotFound))
}

func TestNormalize_PlainError(t *testing.T) {
	got := Normalize(stderrors.New("boom"))
	assert.Equal(t, ErrCodeInternal, got.Code)
	assert.Equal(t, "boom", got.Details)
}

func TestUnwrap_ExposesCause(t *testing.T) {
	cause := stderrors.New("deadline")
	err := NewUpstreamTimeoutError("commerce", cause)
	assert.True(t, stderrors.Is(err, cause))
	assert.NotEmpty(t, err.Suggestions)
}

func TestUpstreamRejected_JoinsMessages(t *testing.T) {
	err := NewUpstreamRejectedError("commerce", []string{"Field 'foo' doesn't exist", "Parse error"})
	assert.Equal(t, "Field 'foo' doesn't exist; Parse error", err.Message)
	assert.Equal(t, "commerce", err.Metadata["service"])
}

func formatError() error {
	return NewGenerationFormatError("invalid generated query format", stderrors.New("no braces"))
}

func TestCaptureStacks_RecordsCreationSite(t *testing.T) {
	CaptureStacks(true)
	defer CaptureStacks(false)

	err := formatError().(*StandardError)
	assert.Contains(t, err.Stack(), "formatError")

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/products", nil)
	NewErrorHandler(nopLogger{}, true).Respond(c, err)

	var body FailureResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body.Stack, "formatError")
	assert.NotContains(t, body.Stack, "(*ErrorHandler).Respond")
}

func TestCaptureStacks_DisabledByDefault(t *testing.T) {
	assert.Empty(t, NewValidationError("prompt is required").Stack())
}

func TestErrorHandler_Respond(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name        string
		development bool
		err         func() error
		wantStatus  int
		wantDetails bool
	}{
		{name: "production hides details", err: formatError, wantStatus: 500},
		{name: "development shows details", development: true, err: formatError, wantStatus: 500, wantDetails: true},
		{name: "timeout maps to 408", err: func() error { return NewUpstreamTimeoutError("commerce", stderrors.New("deadline")) }, wantStatus: 408},
		{name: "plain error maps to 500", err: func() error { return stderrors.New("boom") }, wantStatus: 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			CaptureStacks(tt.development)
			defer CaptureStacks(false)

			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodPost, "/chat", nil)

			NewErrorHandler(nopLogger{}, tt.development).Respond(c, tt.err())

			assert.Equal(t, tt.wantStatus, w.Code)
			var body FailureResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.False(t, body.Success)
			assert.NotEmpty(t, body.Message)
			if tt.wantDetails {
				assert.NotEmpty(t, body.Details)
				assert.NotEmpty(t, body.Stack)
			} else {
				assert.Empty(t, body.Details)
				assert.Empty(t, body.Stack)
			}
		})
	}
}

package errors

import "github.com/gin-gonic/gin"

// Logger is the subset of the logging interface the handler needs.
type Logger interface {
	Error(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
}

// FailureResponse is the envelope written for every failed request.
type FailureResponse struct {
	Success     bool     `json:"success"`
	Message     string   `json:"message"`
	Error       string   `json:"error"`
	Suggestions []string `json:"suggestions,omitempty"`
	Details     string   `json:"details,omitempty"`
	Stack       string   `json:"stack,omitempty"`
}

// ErrorHandler renders errors as failure envelopes.
type ErrorHandler struct {
	logger      Logger
	development bool
}

func NewErrorHandler(logger Logger, development bool) *ErrorHandler {
	return &ErrorHandler{logger: logger, development: development}
}

// Respond logs err and aborts the request with the mapped status.
func (h *ErrorHandler) Respond(c *gin.Context, err error) {
	stdErr := Normalize(err)
	status := HTTPStatus(stdErr.Code)

	fields := map[string]interface{}{
		"path":          c.FullPath(),
		"status":        status,
		"errorCode":     string(stdErr.Code),
		"errorCategory": GetErrorCategory(stdErr.Code),
		"message":       stdErr.Message,
		"details":       stdErr.Details,
	}
	if requestID, ok := c.Get("requestId"); ok {
		fields["requestId"] = requestID
	}
	if status >= 500 {
		h.logger.Error("request failed", fields)
	} else {
		h.logger.Warn("request rejected", fields)
	}

	c.AbortWithStatusJSON(status, h.Build(stdErr))
}

// Build produces the failure envelope; internals are only exposed in
// development. The stack is the one captured where the error was created.
func (h *ErrorHandler) Build(stdErr *StandardError) FailureResponse {
	resp := FailureResponse{
		Success:     false,
		Message:     stdErr.Message,
		Error:       string(stdErr.Code),
		Suggestions: stdErr.Suggestions,
	}
	if h.development {
		resp.Details = stdErr.Details
		resp.Stack = stdErr.Stack()
	}
	return resp
}

// internal/handlers/chat/handler.go
package chat

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "shop-assistant/internal/common/errors"
	"shop-assistant/internal/common/logger"
	"shop-assistant/internal/models"
	"shop-assistant/internal/pipeline/assistant"
)

const (
	Route = "/chat"
	Name  = "chat"
)

type Assistant interface {
	Handle(ctx context.Context, mode assistant.Mode, req models.PromptRequest) (models.ResponseEnvelope, error)
}

// Handler serves the conversational endpoint with per-user follow-up memory.
type Handler struct {
	config    *Config
	assistant Assistant
	errors    *apperrors.ErrorHandler
	logger    logger.Logger
}

func NewHandler(config *Config, a Assistant, errs *apperrors.ErrorHandler, log logger.Logger) *Handler {
	return &Handler{
		config:    config,
		assistant: a,
		errors:    errs,
		logger:    log.With(map[string]interface{}{"handler": Name}),
	}
}

func (h *Handler) Handle(c *gin.Context) {
	var input Input
	if err := c.ShouldBindJSON(&input); err != nil {
		h.errors.Respond(c, apperrors.NewValidationError("message is required"))
		return
	}
	req := input.toRequest()
	if strings.TrimSpace(req.Text) == "" {
		h.errors.Respond(c, apperrors.NewValidationError("message is required"))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.config.Timeout)
	defer cancel()

	envelope, err := h.assistant.Handle(ctx, assistant.ModeChat, req)
	if err != nil {
		h.errors.Respond(c, err)
		return
	}

	h.logger.Debug("chat reply sent", map[string]interface{}{
		"userId": req.UserID,
		"intent": string(envelope.Intent),
	})
	c.JSON(http.StatusOK, envelope)
}

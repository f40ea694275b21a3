// internal/handlers/product-query/handler.go
package productquery

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
	Route = "/products"
	Name  = "product-query"
)

type Assistant interface {
	Handle(ctx context.Context, mode assistant.Mode, req models.PromptRequest) (models.ResponseEnvelope, error)
}

// Handler answers catalog questions. Compiled queries are cached per
// conversation.
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
	if err := c.ShouldBindJSON(&input); err != nil || strings.TrimSpace(input.Prompt) == "" {
		h.errors.Respond(c, apperrors.NewValidationError("prompt is required"))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.config.Timeout)
	defer cancel()

	envelope, err := h.assistant.Handle(ctx, assistant.ModeProducts, models.PromptRequest{
		Text:           input.Prompt,
		ConversationID: strings.TrimSpace(input.ConversationID),
	})
	if err != nil {
		h.errors.Respond(c, err)
		return
	}

	h.logger.Info("product query answered", map[string]interface{}{
		"conversationId": input.ConversationID,
		"results":        len(envelope.Data),
	})
	c.JSON(http.StatusOK, envelope)
}

// internal/handlers/coupon-dispatch/handler.go
package coupondispatch

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "shop-assistant/internal/common/errors"
	"shop-assistant/internal/common/logger"
	"shop-assistant/internal/coupon"
)

const (
	Route = "/coupons"
	Name  = "coupon-dispatch"
)

type Dispatcher interface {
	Dispatch(ctx context.Context, prompt string) (*coupon.Outcome, error)
}

type Handler struct {
	config     *Config
	dispatcher Dispatcher
	errors     *apperrors.ErrorHandler
	logger     logger.Logger
}

func NewHandler(config *Config, d Dispatcher, errs *apperrors.ErrorHandler, log logger.Logger) *Handler {
	return &Handler{
		config:     config,
		dispatcher: d,
		errors:     errs,
		logger:     log.With(map[string]interface{}{"handler": Name}),
	}
}

// Handle credits every matching customer or none of them.
func (h *Handler) Handle(c *gin.Context) {
	var input Input
	if err := c.ShouldBindJSON(&input); err != nil || strings.TrimSpace(input.Prompt) == "" {
		h.errors.Respond(c, apperrors.NewValidationError("prompt is required"))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.config.Timeout)
	defer cancel()

	outcome, err := h.dispatcher.Dispatch(ctx, strings.TrimSpace(input.Prompt))
	if err != nil {
		h.errors.Respond(c, err)
		return
	}

	if by, ok := c.Get("userId"); ok {
		h.logger.Info("campaign dispatched", map[string]interface{}{
			"dispatchedBy": by,
			"credited":     outcome.Credited,
		})
	}
	c.JSON(http.StatusOK, Output{
		Success:  true,
		Credited: outcome.Credited,
		Campaign: &outcome.Campaign,
	})
}

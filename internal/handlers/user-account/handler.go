// internal/handlers/user-account/handler.go
package useraccount

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "shop-assistant/internal/common/errors"
	"shop-assistant/internal/common/logger"
)

const (
	RegisterRoute = "/users/register"
	LoginRoute    = "/users/login"
	Name          = "user-account"
)

type Handler struct {
	config  *Config
	service *Service
	errors  *apperrors.ErrorHandler
	logger  logger.Logger
}

func NewHandler(config *Config, service *Service, errs *apperrors.ErrorHandler, log logger.Logger) *Handler {
	return &Handler{
		config:  config,
		service: service,
		errors:  errs,
		logger:  log.With(map[string]interface{}{"handler": Name}),
	}
}

func (h *Handler) Register(c *gin.Context) {
	var input RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.errors.Respond(c, apperrors.NewValidationError("invalid registration body"))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.config.Timeout)
	defer cancel()

	out, err := h.service.Register(ctx, &input)
	if err != nil {
		h.errors.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

func (h *Handler) Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.errors.Respond(c, apperrors.NewValidationError("email and password are required"))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.config.Timeout)
	defer cancel()

	out, err := h.service.Login(ctx, &input)
	if err != nil {
		h.errors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

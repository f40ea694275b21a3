// internal/handlers/prompt-query/handler.go
package promptquery

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "shop-assistant/internal/common/errors"
	"shop-assistant/internal/common/logger"
	"shop-assistant/internal/common/validation"
	"shop-assistant/internal/models"
	"shop-assistant/internal/pipeline/sanitizer"
)

const (
	Route = "/prompt"
	Name  = "prompt-query"
)

type Compiler interface {
	Compile(ctx context.Context, kind models.TemplateKind, rawText string, prior *models.RawResult) (models.CompiledQuery, error)
}

type Executor interface {
	Execute(ctx context.Context, q models.CompiledQuery) (*models.RawResult, error)
}

// Handler translates a prompt into a user-store operation and runs it.
type Handler struct {
	config   *Config
	compiler Compiler
	executor Executor
	errors   *apperrors.ErrorHandler
	logger   logger.Logger
}

func NewHandler(config *Config, compiler Compiler, executor Executor, errs *apperrors.ErrorHandler, log logger.Logger) *Handler {
	return &Handler{
		config:   config,
		compiler: compiler,
		executor: executor,
		errors:   errs,
		logger:   log.With(map[string]interface{}{"handler": Name}),
	}
}

func (h *Handler) Handle(c *gin.Context) {
	var input Input
	if err := c.ShouldBindJSON(&input); err != nil {
		h.errors.Respond(c, apperrors.NewValidationError("prompt is required"))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.config.Timeout)
	defer cancel()

	output, err := h.Execute(ctx, &input)
	if err != nil {
		h.errors.Respond(c, err)
		return
	}

	h.logger.Info("store query completed", map[string]interface{}{
		"operation": string(output.Operation),
		"count":     output.Count,
	})
	c.JSON(http.StatusOK, output.Body())
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	compiled, err := h.compiler.Compile(ctx, models.TemplateStoreQuery, input.Prompt, nil)
	if err != nil {
		return nil, err
	}
	query, err := sanitizer.Sanitize(compiled)
	if err != nil {
		h.logger.Warn("generated operation rejected", map[string]interface{}{"generated": compiled.Text})
		return nil, err
	}

	h.logger.Debug("operation compiled", map[string]interface{}{"operation": string(query.Operation.Operation)})

	res, err := h.executor.Execute(ctx, query)
	if err != nil {
		return nil, err
	}
	return toOutput(res), nil
}

func validateInput(input *Input) error {
	input.Prompt = strings.TrimSpace(input.Prompt)
	if input.Prompt == "" {
		return apperrors.NewValidationError("prompt is required")
	}
	res, err := validation.PromptInput.ValidateValue(map[string]interface{}{"prompt": input.Prompt})
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if !res.Valid {
		return apperrors.NewValidationError(res.Error())
	}
	return nil
}

func toOutput(res *models.RawResult) *Output {
	out := &Output{Operation: res.Operation}
	switch res.Kind {
	case models.ResultStoreRecords:
		out.Users = res.Records
		out.Count = int64(len(res.Records))
	case models.ResultStoreRecord:
		out.User = res.Record
	case models.ResultStoreCount:
		out.Count = res.Count
	case models.ResultStoreAggregate:
		out.Data = res.Records
		out.Count = int64(len(res.Records))
	}
	return out
}

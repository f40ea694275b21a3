// Package coupon interprets vendor coupon prompts and credits matching
// customers' wallets in a single transaction.
package coupon

import (
	"context"

	"shop-assistant/internal/common/logger"
	"shop-assistant/internal/models"
	"shop-assistant/internal/pipeline/sanitizer"
)

type Compiler interface {
	Compile(ctx context.Context, kind models.TemplateKind, rawText string, prior *models.RawResult) (models.CompiledQuery, error)
}

// Interpreter turns a vendor prompt into a validated campaign.
type Interpreter struct {
	compiler Compiler
	logger   logger.Logger
}

func NewInterpreter(compiler Compiler, log logger.Logger) *Interpreter {
	return &Interpreter{compiler: compiler, logger: log}
}

// Interpret fails with a generation format error when the target is not one
// of the recognized values.
func (i *Interpreter) Interpret(ctx context.Context, prompt string) (*models.CouponCampaign, error) {
	compiled, err := i.compiler.Compile(ctx, models.TemplateCouponCampaign, prompt, nil)
	if err != nil {
		return nil, err
	}
	validated, err := sanitizer.Sanitize(compiled)
	if err != nil {
		i.logger.Warn("campaign rejected", map[string]interface{}{"generated": compiled.Text})
		return nil, err
	}
	return sanitizer.Campaign(validated)
}

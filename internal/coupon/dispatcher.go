package coupon

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	apperrors "shop-assistant/internal/common/errors"
	"shop-assistant/internal/common/logger"
	"shop-assistant/internal/common/metrics"
	"shop-assistant/internal/common/observability"
	"shop-assistant/internal/models"
)

// Outcome is the result of a committed campaign.
type Outcome struct {
	Campaign models.CouponCampaign
	Credited int
}

// Dispatcher runs the campaign workflow: interpret, resolve and credit, then
// notify.
type Dispatcher struct {
	interpreter *Interpreter
	ledger      *Ledger
	notifier    *Notifier
	logger      logger.Logger
}

// NewDispatcher accepts a nil notifier.
func NewDispatcher(interpreter *Interpreter, ledger *Ledger, notifier *Notifier, log logger.Logger) *Dispatcher {
	return &Dispatcher{
		interpreter: interpreter,
		ledger:      ledger,
		notifier:    notifier,
		logger:      log.WithFields(map[string]interface{}{"component": "coupon-dispatcher"}),
	}
}

func (d *Dispatcher) Dispatch(ctx context.Context, prompt string) (*Outcome, error) {
	if prompt == "" {
		return nil, apperrors.NewValidationError("prompt is required")
	}

	ctx, span := observability.StartSpan(ctx, "coupon.dispatch")
	start := time.Now()

	campaign, err := d.interpreter.Interpret(ctx, prompt)
	if err != nil {
		metrics.CouponCredits.WithLabelValues("unknown", "rejected").Inc()
		observability.EndSpan(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.String("target", string(campaign.Target)))

	recipients, err := d.ledger.Credit(ctx, campaign)
	if err != nil {
		metrics.CouponCredits.WithLabelValues(string(campaign.Target), "rolled_back").Inc()
		observability.EndSpan(span, err)
		return nil, err
	}
	metrics.CouponCredits.WithLabelValues(string(campaign.Target), "committed").Inc()
	observability.EndSpan(span, nil)

	d.logger.Info("campaign credited", map[string]interface{}{
		"target":     string(campaign.Target),
		"amount":     campaign.Amount,
		"credited":   len(recipients),
		"durationMs": time.Since(start).Milliseconds(),
	})

	if d.notifier != nil {
		d.notifier.Notify(*campaign, recipients)
	}
	return &Outcome{Campaign: *campaign, Credited: len(recipients)}, nil
}

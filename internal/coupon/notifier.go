package coupon

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"shop-assistant/internal/common/logger"
	"shop-assistant/internal/models"
)

// EmailSender delivers a plain-text email.
type EmailSender interface {
	SendTextEmail(ctx context.Context, to, subject, body string) (string, error)
}

// Publisher posts a message to a topic.
type Publisher interface {
	Publish(ctx context.Context, subject, message string) (string, error)
}

// NotifierConfig tunes notification fan-out.
type NotifierConfig struct {
	Concurrency    int
	Timeout        time.Duration
	CurrencySymbol string
}

// Notifier tells recipients about their credit after commit. Delivery runs in
// the background and never affects the dispatch outcome.
type Notifier struct {
	email  EmailSender
	topic  Publisher
	cfg    NotifierConfig
	logger logger.Logger
	wg     sync.WaitGroup
}

// NewNotifier accepts nil senders for channels that are disabled.
func NewNotifier(email EmailSender, topic Publisher, cfg NotifierConfig, log logger.Logger) *Notifier {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 5
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.CurrencySymbol == "" {
		cfg.CurrencySymbol = "₹"
	}
	return &Notifier{
		email:  email,
		topic:  topic,
		cfg:    cfg,
		logger: log.WithFields(map[string]interface{}{"component": "coupon-notifier"}),
	}
}

// Notify starts delivery and returns immediately.
func (n *Notifier) Notify(c models.CouponCampaign, recipients []models.Customer) {
	if len(recipients) == 0 || (n.email == nil && n.topic == nil) {
		return
	}
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), n.cfg.Timeout)
		defer cancel()
		if err := n.deliver(ctx, c, recipients); err != nil {
			n.logger.Warn("coupon notifications incomplete", map[string]interface{}{"error": err.Error()})
		}
	}()
}

// Wait blocks until every started delivery has finished.
func (n *Notifier) Wait() {
	n.wg.Wait()
}

func (n *Notifier) deliver(ctx context.Context, c models.CouponCampaign, recipients []models.Customer) error {
	amount := n.cfg.CurrencySymbol + strconv.FormatFloat(c.Amount, 'f', -1, 64)

	var failed int
	var mu sync.Mutex
	if n.email != nil {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(n.cfg.Concurrency)
		subject := fmt.Sprintf("%s coupon credited to your wallet", amount)
		body := fmt.Sprintf("Dear customer,\nWe just added a coupon worth %s to your wallet. Happy shopping!", amount)
		for _, r := range recipients {
			to := r.Email
			g.Go(func() error {
				if _, err := n.email.SendTextEmail(gctx, to, subject, body); err != nil {
					mu.Lock()
					failed++
					mu.Unlock()
					n.logger.Warn("coupon email failed", map[string]interface{}{"to": to, "error": err.Error()})
				}
				return nil
			})
		}
		_ = g.Wait()
	}

	if n.topic != nil {
		summary := fmt.Sprintf("Coupon campaign %s: %s credited to %d customers (%d emails failed)",
			c.Target, amount, len(recipients), failed)
		if _, err := n.topic.Publish(ctx, "Coupon campaign completed", summary); err != nil {
			return fmt.Errorf("publish campaign summary: %w", err)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d emails failed", failed, len(recipients))
	}
	return nil
}

package coupon

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	apperrors "shop-assistant/internal/common/errors"
	"shop-assistant/internal/common/logger"
	"shop-assistant/internal/models"
)

var ErrCreditNotApplied = errors.New("CREDIT_NOT_APPLIED")

const (
	selectNewCustomers = `SELECT id, email, total_spent, is_new, wallet_balance FROM customers WHERE is_new = TRUE ORDER BY id FOR UPDATE`
	selectBySpend      = `SELECT id, email, total_spent, is_new, wallet_balance FROM customers WHERE total_spent >= $1 ORDER BY id FOR UPDATE`
	creditWallet       = `UPDATE customers SET wallet_balance = wallet_balance + $1 WHERE id = $2`
)

// Ledger applies wallet credits. Either every recipient is credited or none is.
type Ledger struct {
	db     *sql.DB
	logger logger.Logger
}

func NewLedger(db *sql.DB, log logger.Logger) *Ledger {
	return &Ledger{db: db, logger: log}
}

// Credit resolves recipients and increments their balances by the campaign
// amount. The returned customers carry their new balances.
func (l *Ledger) Credit(ctx context.Context, c *models.CouponCampaign) ([]models.Customer, error) {
	if err := c.Validate(); err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, apperrors.NewTransactionError("could not start credit transaction", err)
	}

	recipients, err := l.credit(ctx, tx, c)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			l.logger.Error("rollback failed", map[string]interface{}{"error": rbErr.Error()})
		}
		l.logger.Warn("credit rolled back", map[string]interface{}{
			"target": string(c.Target),
			"error":  err.Error(),
		})
		return nil, apperrors.NewTransactionError("coupon credit rolled back", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, apperrors.NewTransactionError("could not commit credits", err)
	}
	return recipients, nil
}

func (l *Ledger) credit(ctx context.Context, tx *sql.Tx, c *models.CouponCampaign) ([]models.Customer, error) {
	recipients, err := selectRecipients(ctx, tx, c)
	if err != nil {
		return nil, err
	}
	if len(recipients) == 0 {
		return recipients, nil
	}

	stmt, err := tx.PrepareContext(ctx, creditWallet)
	if err != nil {
		return nil, fmt.Errorf("prepare credit: %w", err)
	}
	defer stmt.Close()

	for i := range recipients {
		res, err := stmt.ExecContext(ctx, c.Amount, recipients[i].ID)
		if err != nil {
			return nil, fmt.Errorf("credit %s: %w", recipients[i].ID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("credit %s: %w", recipients[i].ID, err)
		}
		if n != 1 {
			return nil, fmt.Errorf("%w: %s", ErrCreditNotApplied, recipients[i].ID)
		}
		recipients[i].WalletBalance += c.Amount
	}
	return recipients, nil
}

func selectRecipients(ctx context.Context, tx *sql.Tx, c *models.CouponCampaign) ([]models.Customer, error) {
	var (
		rows *sql.Rows
		err  error
	)
	switch c.Target {
	case models.TargetNewCustomers:
		rows, err = tx.QueryContext(ctx, selectNewCustomers)
	case models.TargetTotalSpentMin:
		rows, err = tx.QueryContext(ctx, selectBySpend, *c.MinPurchase)
	default:
		return nil, models.ErrInvalidTarget
	}
	if err != nil {
		return nil, fmt.Errorf("select recipients: %w", err)
	}
	defer rows.Close()

	var out []models.Customer
	for rows.Next() {
		var cust models.Customer
		if err := rows.Scan(&cust.ID, &cust.Email, &cust.TotalSpent, &cust.IsNew, &cust.WalletBalance); err != nil {
			return nil, fmt.Errorf("scan recipient: %w", err)
		}
		out = append(out, cust)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read recipients: %w", err)
	}
	return out, nil
}

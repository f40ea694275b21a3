package coupon

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "shop-assistant/internal/common/errors"
	"shop-assistant/internal/common/logger"
	"shop-assistant/internal/models"
)

type stubCompiler struct {
	text  string
	err   error
	calls int
}

func (s *stubCompiler) Compile(_ context.Context, kind models.TemplateKind, _ string, _ *models.RawResult) (models.CompiledQuery, error) {
	s.calls++
	if s.err != nil {
		return models.CompiledQuery{}, s.err
	}
	return models.CompiledQuery{TemplateKind: kind, Text: s.text}, nil
}

type fakeEmail struct {
	mu       sync.Mutex
	sent     []string
	subjects []string
	failFor  string
}

func (f *fakeEmail) SendTextEmail(_ context.Context, to, subject, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if to == f.failFor {
		return "", errors.New("MessageRejected")
	}
	f.sent = append(f.sent, to)
	f.subjects = append(f.subjects, subject)
	return "msg-" + to, nil
}

type fakeTopic struct {
	mu       sync.Mutex
	messages []string
}

func (f *fakeTopic) Publish(_ context.Context, _, message string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, message)
	return "sns-1", nil
}

func floatPtr(v float64) *float64 { return &v }

var customerColumns = []string{"id", "email", "total_spent", "is_new", "wallet_balance"}

// ==========================
// Ledger
// ==========================

func TestLedger_Credit(t *testing.T) {
	tests := []struct {
		name      string
		campaign  models.CouponCampaign
		setupMock func(mock sqlmock.Sqlmock)
		wantCode  apperrors.ErrorCode
		validate  func(t *testing.T, recipients []models.Customer)
	}{
		{
			name:     "new customers credited",
			campaign: models.CouponCampaign{Amount: 200, Target: models.TargetNewCustomers},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(regexp.QuoteMeta(selectNewCustomers)).
					WillReturnRows(sqlmock.NewRows(customerColumns).
						AddRow("c1", "asha@example.com", 0.0, true, 50.0).
						AddRow("c2", "ravi@example.com", 120.0, true, 0.0))
				prep := mock.ExpectPrepare(regexp.QuoteMeta(creditWallet))
				prep.ExpectExec().WithArgs(200.0, "c1").WillReturnResult(sqlmock.NewResult(0, 1))
				prep.ExpectExec().WithArgs(200.0, "c2").WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit()
			},
			validate: func(t *testing.T, recipients []models.Customer) {
				require.Len(t, recipients, 2)
				assert.Equal(t, 250.0, recipients[0].WalletBalance)
				assert.Equal(t, 200.0, recipients[1].WalletBalance)
			},
		},
		{
			name:     "spend threshold with no recipients commits nothing",
			campaign: models.CouponCampaign{Amount: 100, Target: models.TargetTotalSpentMin, MinPurchase: floatPtr(5000)},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(regexp.QuoteMeta(selectBySpend)).
					WithArgs(5000.0).
					WillReturnRows(sqlmock.NewRows(customerColumns))
				mock.ExpectCommit()
			},
			validate: func(t *testing.T, recipients []models.Customer) {
				assert.Empty(t, recipients)
			},
		},
		{
			name:     "failure partway rolls back every credit",
			campaign: models.CouponCampaign{Amount: 100, Target: models.TargetTotalSpentMin, MinPurchase: floatPtr(500)},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(regexp.QuoteMeta(selectBySpend)).
					WithArgs(500.0).
					WillReturnRows(sqlmock.NewRows(customerColumns).
						AddRow("c1", "a@example.com", 900.0, false, 0.0).
						AddRow("c2", "b@example.com", 700.0, false, 0.0).
						AddRow("c3", "c@example.com", 600.0, false, 0.0))
				prep := mock.ExpectPrepare(regexp.QuoteMeta(creditWallet))
				prep.ExpectExec().WithArgs(100.0, "c1").WillReturnResult(sqlmock.NewResult(0, 1))
				prep.ExpectExec().WithArgs(100.0, "c2").WillReturnError(errors.New("deadlock detected"))
				mock.ExpectRollback()
			},
			wantCode: apperrors.ErrCodeTransaction,
		},
		{
			name:     "missing row rolls back",
			campaign: models.CouponCampaign{Amount: 100, Target: models.TargetNewCustomers},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(regexp.QuoteMeta(selectNewCustomers)).
					WillReturnRows(sqlmock.NewRows(customerColumns).AddRow("c1", "a@example.com", 0.0, true, 0.0))
				prep := mock.ExpectPrepare(regexp.QuoteMeta(creditWallet))
				prep.ExpectExec().WithArgs(100.0, "c1").WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectRollback()
			},
			wantCode: apperrors.ErrCodeTransaction,
		},
		{
			name:      "invalid campaign never opens a transaction",
			campaign:  models.CouponCampaign{Amount: 100, Target: "EVERYONE"},
			setupMock: func(mock sqlmock.Sqlmock) {},
			wantCode:  apperrors.ErrCodeValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.setupMock(mock)

			ledger := NewLedger(db, logger.NewNoOpLogger())
			campaign := tt.campaign
			recipients, err := ledger.Credit(context.Background(), &campaign)

			if tt.wantCode != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantCode, apperrors.CodeOf(err))
				assert.Nil(t, recipients)
			} else {
				require.NoError(t, err)
				tt.validate(t, recipients)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

// ==========================
// Notifier
// ==========================

func TestNotifier_SendsEmailsAndSummary(t *testing.T) {
	email := &fakeEmail{failFor: "bad@example.com"}
	topic := &fakeTopic{}
	n := NewNotifier(email, topic, NotifierConfig{Concurrency: 2, Timeout: time.Second}, logger.NewNoOpLogger())

	n.Notify(models.CouponCampaign{Amount: 200, Target: models.TargetNewCustomers}, []models.Customer{
		{ID: "c1", Email: "asha@example.com"},
		{ID: "c2", Email: "bad@example.com"},
		{ID: "c3", Email: "ravi@example.com"},
	})
	n.Wait()

	assert.ElementsMatch(t, []string{"asha@example.com", "ravi@example.com"}, email.sent)
	assert.Contains(t, email.subjects, "₹200 coupon credited to your wallet")
	require.Len(t, topic.messages, 1)
	assert.Contains(t, topic.messages[0], "credited to 3 customers (1 emails failed)")
}

func TestNotifier_NoRecipientsIsNoop(t *testing.T) {
	topic := &fakeTopic{}
	n := NewNotifier(nil, topic, NotifierConfig{}, logger.NewNoOpLogger())
	n.Notify(models.CouponCampaign{Amount: 1, Target: models.TargetNewCustomers}, nil)
	n.Wait()
	assert.Empty(t, topic.messages)
}

// ==========================
// Dispatcher
// ==========================

func TestDispatcher_Dispatch(t *testing.T) {
	t.Run("credits and notifies", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(selectBySpend)).
			WithArgs(1000.0).
			WillReturnRows(sqlmock.NewRows(customerColumns).AddRow("c1", "asha@example.com", 1500.0, false, 0.0))
		mock.ExpectPrepare(regexp.QuoteMeta(creditWallet)).
			ExpectExec().WithArgs(150.0, "c1").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		comp := &stubCompiler{text: "```json\n{\"amount\":150,\"target\":\"TOTAL_SPENT_MIN\",\"minPurchase\":1000}\n```"}
		email := &fakeEmail{}
		log := logger.NewNoOpLogger()
		notifier := NewNotifier(email, nil, NotifierConfig{}, log)
		d := NewDispatcher(NewInterpreter(comp, log), NewLedger(db, log), notifier, log)

		out, err := d.Dispatch(context.Background(), "give ₹150 to customers who spent over ₹1000")
		require.NoError(t, err)
		assert.Equal(t, 1, out.Credited)
		assert.Equal(t, models.TargetTotalSpentMin, out.Campaign.Target)

		notifier.Wait()
		assert.Equal(t, []string{"asha@example.com"}, email.sent)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown target fails before touching the store", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		comp := &stubCompiler{text: `{"amount":150,"target":"VIP"}`}
		log := logger.NewNoOpLogger()
		d := NewDispatcher(NewInterpreter(comp, log), NewLedger(db, log), nil, log)

		_, err = d.Dispatch(context.Background(), "give ₹150 to VIPs")
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeGenerationFormat, apperrors.CodeOf(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty prompt", func(t *testing.T) {
		comp := &stubCompiler{}
		log := logger.NewNoOpLogger()
		d := NewDispatcher(NewInterpreter(comp, log), nil, nil, log)

		_, err := d.Dispatch(context.Background(), "")
		assert.Equal(t, apperrors.ErrCodeValidation, apperrors.CodeOf(err))
		assert.Zero(t, comp.calls)
	})
}

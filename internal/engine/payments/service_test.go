package payments

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "propertyhub/internal/pkg/errors"
	"propertyhub/internal/platform/models"
)

func createRent(t *testing.T, svc *Service, tenantID, amount, due string) *Payment {
	t.Helper()
	p, err := svc.CreatePayment(context.Background(), CreatePaymentInput{
		TenantID:      tenantID,
		PaymentTypeID: "ptype_rent",
		Amount:        decimal.RequireFromString(amount),
		DueDate:       due,
		Description:   "Rent",
	})
	require.NoError(t, err)
	return p
}

func TestCreatePayment(t *testing.T) {
	svc, _, _ := newTestService(t)
	tenantID, unitID := seedTenant(t, svc.db, "1")

	p := createRent(t, svc, tenantID, "1500", "2024-03-01")
	require.NotNil(t, p.UnitID)
	assert.Equal(t, unitID, *p.UnitID)
	assert.Equal(t, StatusPending, p.Status)
	assert.Equal(t, StatusOverdue, p.EffectiveStatus)
	assert.Equal(t, "Aisyah Rahman", p.TenantName)
	assert.Equal(t, "Rent", p.PaymentTypeName)
	assert.Equal(t, TypeRent, p.PaymentTypeCode)
	assert.True(t, p.PaidAmount.IsZero())

	t.Run("validation", func(t *testing.T) {
		_, err := svc.CreatePayment(context.Background(), CreatePaymentInput{Amount: decimal.Zero, DueDate: "03/01/2024"})
		verrs, ok := apperrors.IsValidationErrors(err)
		require.True(t, ok)
		fields := verrs.Fields()
		assert.Contains(t, fields, "tenant_id")
		assert.Contains(t, fields, "payment_type_id")
		assert.Contains(t, fields, "amount")
		assert.Contains(t, fields, "due_date")
	})

	t.Run("only monthly recurrence", func(t *testing.T) {
		for _, recurring := range []bool{true, false} {
			_, err := svc.CreatePayment(context.Background(), CreatePaymentInput{
				TenantID: tenantID, PaymentTypeID: "ptype_rent", Amount: decimal.NewFromInt(1), DueDate: "2024-03-01",
				IsRecurring: recurring, RecurringPeriod: "yearly",
			})
			verrs, ok := apperrors.IsValidationErrors(err)
			require.True(t, ok)
			assert.Contains(t, verrs.Fields(), "recurring_period")
		}
	})

	t.Run("unknown tenant", func(t *testing.T) {
		_, err := svc.CreatePayment(context.Background(), CreatePaymentInput{
			TenantID: "tnt_missing", PaymentTypeID: "ptype_rent", Amount: decimal.NewFromInt(1), DueDate: "2024-03-01",
		})
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}

func TestRecordTransaction_Monotonic(t *testing.T) {
	svc, db, pub := newTestService(t)
	tenantID, _ := seedTenant(t, db, "1")
	p := createRent(t, svc, tenantID, "1500", "2024-03-01")
	ctx := context.Background()

	res, err := svc.RecordTransaction(ctx, p.ID, RecordTransactionInput{
		Amount: decimal.NewFromInt(500), PaymentMethodID: "pmeth_cash", TransactionDate: "2024-03-05",
	})
	require.NoError(t, err)
	assert.Equal(t, StatusPartial, res.Payment.Status)
	assert.True(t, res.Payment.PaidAmount.Equal(decimal.NewFromInt(500)))
	assert.Nil(t, res.Payment.PaidDate)
	assert.Equal(t, "2024-03-05", res.Transaction.TransactionDate)

	res, err = svc.RecordTransaction(ctx, p.ID, RecordTransactionInput{
		Amount: decimal.RequireFromString("999.99"), PaymentMethodID: "pmeth_bank_transfer",
	})
	require.NoError(t, err)
	assert.Equal(t, StatusPartial, res.Payment.Status)
	assert.Equal(t, "2024-03-10", res.Transaction.TransactionDate)

	res, err = svc.RecordTransaction(ctx, p.ID, RecordTransactionInput{
		Amount: decimal.RequireFromString("0.01"), PaymentMethodID: "pmeth_online",
	})
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, res.Payment.Status)
	require.NotNil(t, res.Payment.PaidDate)
	assert.Equal(t, "2024-03-10", *res.Payment.PaidDate)

	stored, err := svc.GetPayment(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, stored.PaidAmount.Equal(decimal.NewFromInt(1500)))
	assert.Equal(t, StatusPaid, stored.EffectiveStatus)

	txns, err := svc.ListTransactions(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, txns, 3)
	assert.Equal(t, "Cash", txns[0].PaymentMethodName)

	assert.Equal(t, []string{
		models.EventPaymentTransactionRecorded,
		models.EventPaymentTransactionRecorded,
		models.EventPaymentTransactionRecorded,
		models.EventPaymentPaid,
	}, pub.Events())
}

func TestRecordTransaction_Rejections(t *testing.T) {
	svc, db, _ := newTestService(t)
	tenantID, _ := seedTenant(t, db, "1")
	ctx := context.Background()

	open := createRent(t, svc, tenantID, "1000", "2024-03-01")
	cancelled := createRent(t, svc, tenantID, "1000", "2024-04-01")
	_, err := svc.CancelPayment(ctx, cancelled.ID)
	require.NoError(t, err)

	tests := []struct {
		name      string
		paymentID string
		input     RecordTransactionInput
		check     func(t *testing.T, err error)
	}{
		{
			name:      "zero amount",
			paymentID: open.ID,
			input:     RecordTransactionInput{Amount: decimal.Zero, PaymentMethodID: "pmeth_cash"},
			check: func(t *testing.T, err error) {
				verrs, ok := apperrors.IsValidationErrors(err)
				require.True(t, ok)
				assert.Contains(t, verrs.Fields(), "amount")
			},
		},
		{
			name:      "more than outstanding",
			paymentID: open.ID,
			input:     RecordTransactionInput{Amount: decimal.RequireFromString("1000.01"), PaymentMethodID: "pmeth_cash"},
			check: func(t *testing.T, err error) {
				verr, ok := apperrors.IsValidationError(err)
				require.True(t, ok)
				assert.Equal(t, "amount", verr.Field)
				assert.Contains(t, verr.Message, "RM 1,000.00")
			},
		},
		{
			name:      "unknown method",
			paymentID: open.ID,
			input:     RecordTransactionInput{Amount: decimal.NewFromInt(10), PaymentMethodID: "pmeth_crypto"},
			check: func(t *testing.T, err error) {
				verr, ok := apperrors.IsValidationError(err)
				require.True(t, ok)
				assert.Equal(t, "payment_method_id", verr.Field)
			},
		},
		{
			name:      "cancelled payment",
			paymentID: cancelled.ID,
			input:     RecordTransactionInput{Amount: decimal.NewFromInt(10), PaymentMethodID: "pmeth_cash"},
			check: func(t *testing.T, err error) {
				_, ok := apperrors.IsConflictError(err)
				assert.True(t, ok)
			},
		},
		{
			name:      "missing payment",
			paymentID: "pay_missing",
			input:     RecordTransactionInput{Amount: decimal.NewFromInt(10), PaymentMethodID: "pmeth_cash"},
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, apperrors.ErrNotFound)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.RecordTransaction(ctx, tt.paymentID, tt.input)
			require.Error(t, err)
			tt.check(t, err)
		})
	}

	// Nothing from the rejected attempts was written.
	assert.Equal(t, 0, countRows(t, db, `SELECT COUNT(*) FROM payment_transactions`))
	stored, err := svc.GetPayment(ctx, open.ID)
	require.NoError(t, err)
	assert.True(t, stored.PaidAmount.IsZero())
	assert.Equal(t, StatusPending, stored.Status)
}

func TestRecordTransaction_AlreadyPaid(t *testing.T) {
	svc, db, _ := newTestService(t)
	tenantID, _ := seedTenant(t, db, "1")
	ctx := context.Background()
	p := createRent(t, svc, tenantID, "100", "2024-03-01")

	_, err := svc.RecordTransaction(ctx, p.ID, RecordTransactionInput{Amount: decimal.NewFromInt(100), PaymentMethodID: "pmeth_cash"})
	require.NoError(t, err)

	_, err = svc.RecordTransaction(ctx, p.ID, RecordTransactionInput{Amount: decimal.NewFromInt(1), PaymentMethodID: "pmeth_cash"})
	cerr, ok := apperrors.IsConflictError(err)
	require.True(t, ok)
	assert.Contains(t, cerr.Message, "already paid")
}

func TestListPayments_EffectiveStatusFilter(t *testing.T) {
	svc, db, _ := newTestService(t)
	tenantID, _ := seedTenant(t, db, "1")
	ctx := context.Background()

	overdue := createRent(t, svc, tenantID, "1500", "2024-03-01")
	upcoming := createRent(t, svc, tenantID, "1500", "2024-04-01")
	partial := createRent(t, svc, tenantID, "1500", "2024-02-01")
	_, err := svc.RecordTransaction(ctx, partial.ID, RecordTransactionInput{Amount: decimal.NewFromInt(100), PaymentMethodID: "pmeth_cash"})
	require.NoError(t, err)

	list, err := svc.ListPayments(ctx, ListFilter{Status: StatusOverdue})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, overdue.ID, list[0].ID)
	assert.Equal(t, StatusOverdue, list[0].EffectiveStatus)

	list, err = svc.ListPayments(ctx, ListFilter{Status: StatusPending})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, upcoming.ID, list[0].ID)

	list, err = svc.ListPayments(ctx, ListFilter{Status: StatusPartial})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, partial.ID, list[0].ID)

	list, err = svc.ListPayments(ctx, ListFilter{TenantID: tenantID, DueFrom: "2024-03-01", DueTo: "2024-04-30"})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, upcoming.ID, list[0].ID)

	list, err = svc.ListPayments(ctx, ListFilter{TypeName: TypeUtility})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestUpdateCancelDeletePayment(t *testing.T) {
	svc, db, _ := newTestService(t)
	tenantID, _ := seedTenant(t, db, "1")
	ctx := context.Background()

	p := createRent(t, svc, tenantID, "1500", "2024-03-01")
	_, err := svc.RecordTransaction(ctx, p.ID, RecordTransactionInput{Amount: decimal.NewFromInt(1000), PaymentMethodID: "pmeth_cash"})
	require.NoError(t, err)

	t.Run("amount below paid is rejected", func(t *testing.T) {
		amount := decimal.NewFromInt(900)
		_, err := svc.UpdatePayment(ctx, p.ID, UpdatePaymentInput{Amount: &amount})
		verrs, ok := apperrors.IsValidationErrors(err)
		require.True(t, ok)
		assert.Contains(t, verrs.Fields(), "amount")
	})

	t.Run("lowering to paid settles the payment", func(t *testing.T) {
		amount := decimal.NewFromInt(1000)
		updated, err := svc.UpdatePayment(ctx, p.ID, UpdatePaymentInput{Amount: &amount})
		require.NoError(t, err)
		assert.Equal(t, StatusPaid, updated.Status)
		require.NotNil(t, updated.PaidDate)
	})

	t.Run("cannot cancel or delete with transactions", func(t *testing.T) {
		_, err := svc.CancelPayment(ctx, p.ID)
		_, ok := apperrors.IsConflictError(err)
		assert.True(t, ok)

		err = svc.DeletePayment(ctx, p.ID)
		_, ok = apperrors.IsConflictError(err)
		assert.True(t, ok)
	})

	t.Run("untouched payment can be cancelled then deleted", func(t *testing.T) {
		other := createRent(t, svc, tenantID, "50", "2024-05-01")
		cancelled, err := svc.CancelPayment(ctx, other.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusCancelled, cancelled.Status)

		desc := "changed"
		_, err = svc.UpdatePayment(ctx, other.ID, UpdatePaymentInput{Description: &desc})
		_, ok := apperrors.IsConflictError(err)
		assert.True(t, ok)

		require.NoError(t, svc.DeletePayment(ctx, other.ID))
		_, err = svc.GetPayment(ctx, other.ID)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}

func TestConcurrentEditsKeepPaidAmount(t *testing.T) {
	svc, db, _ := newTestService(t)
	tenantID, _ := seedTenant(t, db, "1")
	ctx := context.Background()

	edited := createRent(t, svc, tenantID, "100000", "2024-03-01")
	contested := createRent(t, svc, tenantID, "1500", "2024-04-01")

	var wg sync.WaitGroup
	run := func(n int, fn func()) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < n; i++ {
				fn()
			}
		}()
	}
	one := RecordTransactionInput{Amount: decimal.NewFromInt(1), PaymentMethodID: "pmeth_cash"}
	desc := "Rent, adjusted"
	run(40, func() { _, _ = svc.RecordTransaction(ctx, edited.ID, one) })
	run(40, func() { _, _ = svc.UpdatePayment(ctx, edited.ID, UpdatePaymentInput{Description: &desc}) })
	run(5, func() { _, _ = svc.RecordTransaction(ctx, contested.ID, one) })
	run(5, func() { _, _ = svc.CancelPayment(ctx, contested.ID) })
	wg.Wait()

	for _, id := range []string{edited.ID, contested.ID} {
		p, err := svc.GetPayment(ctx, id)
		require.NoError(t, err)

		txns, err := svc.ListTransactions(ctx, id)
		require.NoError(t, err)
		recorded := decimal.Zero
		for _, txn := range txns {
			recorded = recorded.Add(txn.Amount)
		}
		assert.True(t, p.PaidAmount.Equal(recorded), "paid %s, transactions %s", p.PaidAmount, recorded)
		if p.Status == StatusCancelled {
			assert.True(t, p.PaidAmount.IsZero(), "cancelled payment has payments against it")
		}
	}

	p, err := svc.GetPayment(ctx, edited.ID)
	require.NoError(t, err)
	assert.Equal(t, "40", p.PaidAmount.String())
}

func TestLookupTables(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	types, err := svc.ListPaymentTypes(ctx)
	require.NoError(t, err)
	assert.Len(t, types, 6)

	methods, err := svc.ListPaymentMethods(ctx)
	require.NoError(t, err)
	assert.Len(t, methods, 5)
}

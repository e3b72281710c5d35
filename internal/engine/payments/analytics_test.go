package payments

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pay(typeID, status, amount, paid, due string) *Payment {
	return &Payment{
		PaymentTypeID: typeID,
		Status:        status,
		Amount:        decimal.RequireFromString(amount),
		PaidAmount:    decimal.RequireFromString(paid),
		DueDate:       due,
	}
}

func TestComputeAnalytics(t *testing.T) {
	types := []*PaymentType{
		{ID: "ptype_rent", Name: TypeRent, DisplayName: "Rent"},
		{ID: "ptype_utility", Name: TypeUtility, DisplayName: "Utility"},
	}
	payments := []*Payment{
		pay("ptype_rent", StatusPaid, "1500", "1500", "2024-02-01"),
		pay("ptype_rent", StatusPending, "1500", "0", "2024-03-01"),
		pay("ptype_rent", StatusPending, "1500", "0", "2024-04-01"),
		pay("ptype_utility", StatusPartial, "200", "50", "2024-03-05"),
		pay("ptype_gone", StatusCancelled, "100", "0", "2024-01-01"),
	}

	a := ComputeAnalytics(payments, types, "2024-03-10")

	assert.Equal(t, 5, a.PaymentCount)
	assert.Equal(t, "4800", a.TotalDue.String())
	assert.Equal(t, "1550", a.TotalPaid.String())
	// 1500 pending overdue + 150 partial overdue + 100 cancelled past due.
	assert.Equal(t, "1750", a.TotalOverdue.String())
	assert.Equal(t, "3000", a.TotalPending.String())
	assert.Equal(t, "150", a.TotalPartial.String())
	assert.Equal(t, "32.29", a.CollectionRate.StringFixed(2))

	assert.Equal(t, 1, a.PaymentsByStatus[StatusPaid].Count)
	assert.Equal(t, 1, a.PaymentsByStatus[StatusOverdue].Count)
	assert.Equal(t, 1, a.PaymentsByStatus[StatusPending].Count)
	assert.Equal(t, "1500", a.PaymentsByStatus[StatusPending].Amount.String())
	assert.Equal(t, 1, a.PaymentsByStatus[StatusPartial].Count)
	assert.Equal(t, 1, a.PaymentsByStatus[StatusCancelled].Count)

	assert.Equal(t, 3, a.PaymentsByType["Rent"].Count)
	assert.Equal(t, "4500", a.PaymentsByType["Rent"].Amount.String())
	assert.Equal(t, 1, a.PaymentsByType["Utility"].Count)
	assert.Equal(t, 1, a.PaymentsByType[unknownType].Count)
}

func TestComputeAnalytics_Empty(t *testing.T) {
	a := ComputeAnalytics(nil, nil, "2024-03-10")
	assert.True(t, a.TotalDue.IsZero())
	assert.True(t, a.CollectionRate.IsZero())
	assert.Empty(t, a.PaymentsByStatus)
}

func TestServiceAnalytics(t *testing.T) {
	svc, db, _ := newTestService(t)
	tenantID, _ := seedTenant(t, db, "1")
	ctx := context.Background()

	p := createRent(t, svc, tenantID, "1000", "2024-03-01")
	createRent(t, svc, tenantID, "1000", "2024-04-01")
	_, err := svc.RecordTransaction(ctx, p.ID, RecordTransactionInput{Amount: decimal.NewFromInt(1000), PaymentMethodID: "pmeth_cash"})
	require.NoError(t, err)

	a, err := svc.Analytics(ctx, ListFilter{TenantID: tenantID})
	require.NoError(t, err)
	assert.Equal(t, "50", a.CollectionRate.String())
	assert.Equal(t, 2, a.PaymentsByType["Rent"].Count)
}

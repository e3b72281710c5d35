package payments

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestEffectiveStatus(t *testing.T) {
	today := "2024-03-10"
	tests := []struct {
		name    string
		status  string
		dueDate string
		want    string
	}{
		{"pending past due", StatusPending, "2024-03-09", StatusOverdue},
		{"pending due today", StatusPending, "2024-03-10", StatusPending},
		{"pending in future", StatusPending, "2024-04-01", StatusPending},
		{"partial past due stays partial", StatusPartial, "2024-01-01", StatusPartial},
		{"paid past due stays paid", StatusPaid, "2024-01-01", StatusPaid},
		{"cancelled past due stays cancelled", StatusCancelled, "2024-01-01", StatusCancelled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Payment{Status: tt.status, DueDate: tt.dueDate}
			assert.Equal(t, tt.want, EffectiveStatus(p, today))
			assert.Equal(t, tt.status, p.Status)
		})
	}
}

func TestPaymentOutstanding(t *testing.T) {
	p := &Payment{Amount: decimal.NewFromInt(1500), PaidAmount: decimal.NewFromInt(400)}
	assert.True(t, p.Outstanding().Equal(decimal.NewFromInt(1100)))

	p.PaidAmount = decimal.NewFromInt(1600)
	assert.True(t, p.Outstanding().IsZero())
}

package payments

import (
	"context"

	"github.com/shopspring/decimal"
)

const unknownType = "Unknown"

type Bucket struct {
	Count  int             `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

type Analytics struct {
	TotalDue         decimal.Decimal   `json:"total_due"`
	TotalPaid        decimal.Decimal   `json:"total_paid"`
	TotalOverdue     decimal.Decimal   `json:"total_overdue"`
	TotalPending     decimal.Decimal   `json:"total_pending"`
	TotalPartial     decimal.Decimal   `json:"total_partial"`
	CollectionRate   decimal.Decimal   `json:"collection_rate"`
	PaymentCount     int               `json:"payment_count"`
	PaymentsByStatus map[string]Bucket `json:"payments_by_status"`
	PaymentsByType   map[string]Bucket `json:"payments_by_type"`
}

// ComputeAnalytics summarises payments as of today (YYYY-MM-DD).
//
// PaymentsByStatus is keyed by effective status, so a pending payment past its
// due date is counted under "overdue". TotalOverdue counts the outstanding part
// of every non-paid payment due before today.
func ComputeAnalytics(payments []*Payment, types []*PaymentType, today string) *Analytics {
	names := make(map[string]string, len(types))
	for _, t := range types {
		names[t.ID] = t.DisplayName
	}

	a := &Analytics{
		TotalDue:         decimal.Zero,
		TotalPaid:        decimal.Zero,
		TotalOverdue:     decimal.Zero,
		TotalPending:     decimal.Zero,
		TotalPartial:     decimal.Zero,
		CollectionRate:   decimal.Zero,
		PaymentCount:     len(payments),
		PaymentsByStatus: map[string]Bucket{},
		PaymentsByType:   map[string]Bucket{},
	}

	for _, p := range payments {
		a.TotalDue = a.TotalDue.Add(p.Amount)
		a.TotalPaid = a.TotalPaid.Add(p.PaidAmount)

		if p.Status != StatusPaid && p.DueDate < today {
			a.TotalOverdue = a.TotalOverdue.Add(p.Amount.Sub(p.PaidAmount))
		}
		switch p.Status {
		case StatusPending:
			a.TotalPending = a.TotalPending.Add(p.Amount)
		case StatusPartial:
			a.TotalPartial = a.TotalPartial.Add(p.Amount.Sub(p.PaidAmount))
		}

		addTo(a.PaymentsByStatus, EffectiveStatus(p, today), p.Amount)

		typeName, ok := names[p.PaymentTypeID]
		if !ok {
			typeName = unknownType
		}
		addTo(a.PaymentsByType, typeName, p.Amount)
	}

	if a.TotalDue.IsPositive() {
		a.CollectionRate = a.TotalPaid.Div(a.TotalDue).Mul(decimal.NewFromInt(100)).Round(2)
	}
	return a
}

func addTo(m map[string]Bucket, key string, amount decimal.Decimal) {
	b := m[key]
	b.Count++
	b.Amount = b.Amount.Add(amount)
	m[key] = b
}

// Analytics loads every payment matching f and aggregates it.
func (s *Service) Analytics(ctx context.Context, f ListFilter) (*Analytics, error) {
	f.Limit, f.Offset = 0, 0
	list, err := s.repo.ListPayments(ctx, f, s.today())
	if err != nil {
		return nil, err
	}
	types, err := s.repo.ListPaymentTypes(ctx)
	if err != nil {
		return nil, err
	}
	return ComputeAnalytics(list, types, s.today()), nil
}

package payments

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"propertyhub/internal/pkg/currency"
	"propertyhub/internal/pkg/dates"
	apperrors "propertyhub/internal/pkg/errors"
	"propertyhub/internal/platform/database"
	"propertyhub/internal/platform/metrics"
	"propertyhub/internal/platform/models"
)

// EventPublisher receives domain events after a change has been committed.
type EventPublisher interface {
	Publish(ctx context.Context, event string, data interface{})
}

type Service struct {
	db      *sql.DB
	repo    *Repository
	events  EventPublisher
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewService works on one organization's tenant database. events and m may be nil.
func NewService(db *sql.DB, events EventPublisher, m *metrics.Metrics) *Service {
	return &Service{
		db:      db,
		repo:    NewRepository(db),
		events:  events,
		metrics: m,
		now:     time.Now,
	}
}

// WithClock replaces the clock used for "today" and timestamps.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) today() string {
	return dates.Format(dates.Today(s.now()))
}

func (s *Service) publish(ctx context.Context, event string, data interface{}) {
	if s.events == nil {
		return
	}
	s.events.Publish(ctx, event, data)
}

type CreatePaymentInput struct {
	TenantID        string
	UnitID          *string
	PaymentTypeID   string
	Amount          decimal.Decimal
	DueDate         string
	Description     string
	IsRecurring     bool
	RecurringPeriod string
}

func (s *Service) CreatePayment(ctx context.Context, in CreatePaymentInput) (*Payment, error) {
	if err := validateCreatePayment(in); err != nil {
		return nil, err
	}

	unitID, err := s.repo.TenantUnit(ctx, in.TenantID)
	if err != nil {
		return nil, err
	}
	if in.UnitID != nil && *in.UnitID != "" {
		unitID = in.UnitID
	}
	ptype, err := s.repo.GetPaymentType(ctx, in.PaymentTypeID)
	if err != nil {
		return nil, err
	}

	ts := s.now().Unix()
	p := &Payment{
		ID:              "pay_" + uuid.New().String(),
		TenantID:        in.TenantID,
		UnitID:          unitID,
		PaymentTypeID:   ptype.ID,
		Amount:          in.Amount,
		PaidAmount:      decimal.Zero,
		DueDate:         in.DueDate,
		Status:          StatusPending,
		Description:     in.Description,
		IsRecurring:     in.IsRecurring,
		RecurringPeriod: in.RecurringPeriod,
		CreatedAt:       ts,
		UpdatedAt:       ts,
	}
	if err := s.repo.InsertPayment(ctx, p); err != nil {
		return nil, err
	}
	return s.GetPayment(ctx, p.ID)
}

func (s *Service) GetPayment(ctx context.Context, id string) (*Payment, error) {
	p, err := s.repo.GetPayment(ctx, id)
	if err != nil {
		return nil, err
	}
	p.EffectiveStatus = EffectiveStatus(p, s.today())
	return p, nil
}

func (s *Service) ListPayments(ctx context.Context, f ListFilter) ([]*Payment, error) {
	today := s.today()
	list, err := s.repo.ListPayments(ctx, f, today)
	if err != nil {
		return nil, err
	}
	for _, p := range list {
		p.EffectiveStatus = EffectiveStatus(p, today)
	}
	return list, nil
}

// UpdatePaymentInput holds optional changes; nil fields are left alone.
type UpdatePaymentInput struct {
	Amount      *decimal.Decimal
	DueDate     *string
	Description *string
}

func (s *Service) UpdatePayment(ctx context.Context, id string, in UpdatePaymentInput) (*Payment, error) {
	var p *Payment
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		repo := NewRepository(tx)
		var err error
		if p, err = repo.GetPayment(ctx, id); err != nil {
			return err
		}
		if p.Status == StatusCancelled {
			return apperrors.NewConflictError("payment", "cancelled payments cannot be changed")
		}

		var verrs apperrors.ValidationErrors
		if in.Amount != nil {
			switch {
			case !in.Amount.IsPositive():
				verrs.Add("amount", "must be greater than zero")
			case in.Amount.LessThan(p.PaidAmount):
				verrs.Add("amount", "cannot be less than the amount already paid ("+currency.Format(p.PaidAmount)+")")
			default:
				p.Amount = *in.Amount
			}
		}
		if in.DueDate != nil {
			if err := dates.Valid("due_date", *in.DueDate); err != nil {
				verrs.AddErr("due_date", err)
			} else {
				p.DueDate = *in.DueDate
			}
		}
		if err := verrs.Err(); err != nil {
			return err
		}
		if in.Description != nil {
			p.Description = *in.Description
		}

		if p.PaidAmount.IsPositive() {
			p.Status = settledStatus(p.Amount, p.PaidAmount)
			if p.Status == StatusPaid && p.PaidDate == nil {
				today := s.today()
				p.PaidDate = &today
			} else if p.Status != StatusPaid {
				p.PaidDate = nil
			}
		}
		p.UpdatedAt = s.now().Unix()
		return repo.UpdatePayment(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	p.EffectiveStatus = EffectiveStatus(p, s.today())
	return p, nil
}

// CancelPayment only applies to payments nothing has been paid against.
// The check and the write share a transaction so a concurrent payment wins.
func (s *Service) CancelPayment(ctx context.Context, id string) (*Payment, error) {
	var p *Payment
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		repo := NewRepository(tx)
		var err error
		if p, err = repo.GetPayment(ctx, id); err != nil {
			return err
		}
		if p.Status == StatusCancelled {
			return apperrors.NewConflictError("payment", "payment is already cancelled")
		}
		if !p.PaidAmount.IsZero() {
			return apperrors.NewConflictError("payment", "payment has recorded transactions")
		}

		p.Status = StatusCancelled
		p.UpdatedAt = s.now().Unix()
		return repo.UpdatePayment(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	p.EffectiveStatus = p.Status
	return p, nil
}

func (s *Service) DeletePayment(ctx context.Context, id string) error {
	return database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		repo := NewRepository(tx)
		if _, err := repo.GetPayment(ctx, id); err != nil {
			return err
		}
		n, err := repo.CountTransactions(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return apperrors.NewConflictError("payment", "payment has recorded transactions")
		}
		return repo.DeletePayment(ctx, id)
	})
}

type RecordTransactionInput struct {
	Amount          decimal.Decimal
	PaymentMethodID string
	TransactionDate string
	ReferenceNumber string
	Notes           string
}

type RecordResult struct {
	Transaction *Transaction `json:"transaction"`
	Payment     *Payment     `json:"payment"`
}

// RecordTransaction applies a payment against its outstanding balance. The
// transaction row and the payment update commit together or not at all.
func (s *Service) RecordTransaction(ctx context.Context, paymentID string, in RecordTransactionInput) (*RecordResult, error) {
	today := s.today()
	if in.TransactionDate == "" {
		in.TransactionDate = today
	}
	if err := validateTransaction(in); err != nil {
		return nil, err
	}

	var result RecordResult
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		repo := NewRepository(tx)

		p, err := repo.GetPayment(ctx, paymentID)
		if err != nil {
			return err
		}
		switch p.Status {
		case StatusPaid:
			return apperrors.NewConflictError("payment", "payment is already paid")
		case StatusCancelled:
			return apperrors.NewConflictError("payment", "payment is cancelled")
		}

		outstanding := p.Outstanding()
		if in.Amount.GreaterThan(outstanding) {
			return apperrors.NewValidationError("amount", "exceeds the outstanding balance of "+currency.Format(outstanding))
		}

		ok, err := repo.PaymentMethodExists(ctx, in.PaymentMethodID)
		if err != nil {
			return err
		}
		if !ok {
			return apperrors.NewValidationError("payment_method_id", "unknown payment method")
		}

		ts := s.now().Unix()
		txn := &Transaction{
			ID:              "txn_" + uuid.New().String(),
			PaymentID:       p.ID,
			PaymentMethodID: in.PaymentMethodID,
			Amount:          in.Amount,
			TransactionDate: in.TransactionDate,
			ReferenceNumber: in.ReferenceNumber,
			Notes:           in.Notes,
			CreatedAt:       ts,
		}
		if err := repo.InsertTransaction(ctx, txn); err != nil {
			return err
		}

		p.PaidAmount = p.PaidAmount.Add(in.Amount)
		p.Status = settledStatus(p.Amount, p.PaidAmount)
		if p.Status == StatusPaid {
			p.PaidDate = &today
		}
		p.UpdatedAt = ts
		if err := repo.UpdatePayment(ctx, p); err != nil {
			return err
		}

		p.EffectiveStatus = EffectiveStatus(p, today)
		result.Transaction = txn
		result.Payment = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.TransactionsRecorded.Inc()
	}
	log.Info().
		Str("payment_id", paymentID).
		Str("amount", in.Amount.StringFixed(2)).
		Str("status", result.Payment.Status).
		Msg("Payment transaction recorded")

	s.publish(ctx, models.EventPaymentTransactionRecorded, result)
	if result.Payment.Status == StatusPaid {
		s.publish(ctx, models.EventPaymentPaid, result.Payment)
	}
	return &result, nil
}

func (s *Service) ListTransactions(ctx context.Context, paymentID string) ([]*Transaction, error) {
	if _, err := s.repo.GetPayment(ctx, paymentID); err != nil {
		return nil, err
	}
	return s.repo.ListTransactions(ctx, paymentID)
}

func (s *Service) ListPaymentTypes(ctx context.Context) ([]*PaymentType, error) {
	return s.repo.ListPaymentTypes(ctx)
}

func (s *Service) ListPaymentMethods(ctx context.Context) ([]*PaymentMethod, error) {
	return s.repo.ListPaymentMethods(ctx)
}

// settledStatus is paid once paid covers amount, partial otherwise.
func settledStatus(amount, paid decimal.Decimal) string {
	if paid.GreaterThanOrEqual(amount) {
		return StatusPaid
	}
	return StatusPartial
}

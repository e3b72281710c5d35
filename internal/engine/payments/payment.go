package payments

import (
	"github.com/shopspring/decimal"
)

// Stored payment statuses. StatusOverdue is only ever produced by EffectiveStatus.
const (
	StatusPending   = "pending"
	StatusPartial   = "partial"
	StatusPaid      = "paid"
	StatusOverdue   = "overdue"
	StatusCancelled = "cancelled"
)

// Seeded payment type names.
const (
	TypeRent            = "rent"
	TypeSecurityDeposit = "security_deposit"
	TypeUtility         = "utility"
	TypeLateFee         = "late_fee"
	TypeMaintenance     = "maintenance"
	TypeOther           = "other"
)

const RecurringMonthly = "monthly"

type Payment struct {
	ID               string          `json:"id"`
	TenantID         string          `json:"tenant_id"`
	UnitID           *string         `json:"unit_id,omitempty"`
	PaymentTypeID    string          `json:"payment_type_id"`
	Amount           decimal.Decimal `json:"amount"`
	PaidAmount       decimal.Decimal `json:"paid_amount"`
	DueDate          string          `json:"due_date"`
	PaidDate         *string         `json:"paid_date,omitempty"`
	Status           string          `json:"status"`
	EffectiveStatus  string          `json:"effective_status"`
	Description      string          `json:"description"`
	IsRecurring      bool            `json:"is_recurring"`
	RecurringPeriod  string          `json:"recurring_period,omitempty"`
	LateFeePaymentID *string         `json:"late_fee_payment_id,omitempty"`
	CreatedAt        int64           `json:"created_at"`
	UpdatedAt        int64           `json:"updated_at"`

	TenantName      string `json:"tenant_name,omitempty"`
	UnitNumber      string `json:"unit_number,omitempty"`
	PaymentTypeName string `json:"payment_type_name,omitempty"`
	PaymentTypeCode string `json:"payment_type,omitempty"`
}

// Outstanding is amount minus paid_amount, never negative.
func (p *Payment) Outstanding() decimal.Decimal {
	out := p.Amount.Sub(p.PaidAmount)
	if out.IsNegative() {
		return decimal.Zero
	}
	return out
}

// EffectiveStatus is the read-time status: a pending payment whose due date is
// before today is overdue. today is YYYY-MM-DD.
func EffectiveStatus(p *Payment, today string) string {
	if p.Status == StatusPending && p.DueDate < today {
		return StatusOverdue
	}
	return p.Status
}

type Transaction struct {
	ID              string          `json:"id"`
	PaymentID       string          `json:"payment_id"`
	PaymentMethodID string          `json:"payment_method_id"`
	Amount          decimal.Decimal `json:"amount"`
	TransactionDate string          `json:"transaction_date"`
	ReferenceNumber string          `json:"reference_number,omitempty"`
	Notes           string          `json:"notes,omitempty"`
	CreatedAt       int64           `json:"created_at"`

	PaymentMethodName string `json:"payment_method_name,omitempty"`
}

type PaymentType struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
}

type PaymentMethod struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
}

type RentSchedule struct {
	ID            string          `json:"id"`
	TenantID      string          `json:"tenant_id"`
	UnitID        string          `json:"unit_id"`
	RentAmount    decimal.Decimal `json:"rent_amount"`
	DueDay        int             `json:"due_day"`
	StartDate     string          `json:"start_date"`
	EndDate       *string         `json:"end_date,omitempty"`
	LateFeeAmount decimal.Decimal `json:"late_fee_amount"`
	LateFeeDays   int             `json:"late_fee_days"`
	IsActive      bool            `json:"is_active"`
	CreatedAt     int64           `json:"created_at"`
	UpdatedAt     int64           `json:"updated_at"`

	TenantName string `json:"tenant_name,omitempty"`
}

// Security deposit statuses.
const (
	DepositHeld              = "held"
	DepositPartiallyRefunded = "partially_refunded"
	DepositRefunded          = "refunded"
	DepositForfeited         = "forfeited"
)

type SecurityDeposit struct {
	ID              string              `json:"id"`
	TenantID        string              `json:"tenant_id"`
	UnitID          string              `json:"unit_id"`
	Amount          decimal.Decimal     `json:"amount"`
	ReceivedDate    string              `json:"received_date"`
	RefundAmount    decimal.NullDecimal `json:"refund_amount"`
	RefundDate      *string             `json:"refund_date,omitempty"`
	TotalDeductions decimal.Decimal     `json:"total_deductions"`
	DeductionNotes  string              `json:"deduction_notes,omitempty"`
	Status          string              `json:"status"`
	CreatedAt       int64               `json:"created_at"`
	UpdatedAt       int64               `json:"updated_at"`
}

package payments

import (
	"propertyhub/internal/pkg/dates"
	apperrors "propertyhub/internal/pkg/errors"
)

func validateCreatePayment(in CreatePaymentInput) error {
	var verrs apperrors.ValidationErrors
	if in.TenantID == "" {
		verrs.Add("tenant_id", "is required")
	}
	if in.PaymentTypeID == "" {
		verrs.Add("payment_type_id", "is required")
	}
	if !in.Amount.IsPositive() {
		verrs.Add("amount", "must be greater than zero")
	}
	verrs.AddErr("due_date", dates.Valid("due_date", in.DueDate))
	if in.RecurringPeriod != "" && in.RecurringPeriod != RecurringMonthly {
		verrs.Add("recurring_period", "must be 'monthly'")
	}
	return verrs.Err()
}

func validateTransaction(in RecordTransactionInput) error {
	var verrs apperrors.ValidationErrors
	if !in.Amount.IsPositive() {
		verrs.Add("amount", "must be greater than zero")
	}
	if in.PaymentMethodID == "" {
		verrs.Add("payment_method_id", "is required")
	}
	verrs.AddErr("transaction_date", dates.Valid("transaction_date", in.TransactionDate))
	return verrs.Err()
}

func validateSchedule(in ScheduleInput) error {
	var verrs apperrors.ValidationErrors
	if in.TenantID == "" {
		verrs.Add("tenant_id", "is required")
	}
	if !in.RentAmount.IsPositive() {
		verrs.Add("rent_amount", "must be greater than zero")
	}
	if in.DueDay < 1 || in.DueDay > 31 {
		verrs.Add("due_day", "must be between 1 and 31")
	}
	if in.LateFeeAmount.IsNegative() {
		verrs.Add("late_fee_amount", "cannot be negative")
	}
	if in.LateFeeDays < 0 {
		verrs.Add("late_fee_days", "cannot be negative")
	}
	if err := dates.Valid("start_date", in.StartDate); err != nil {
		verrs.AddErr("start_date", err)
	} else if in.EndDate != nil && *in.EndDate != "" {
		if err := dates.Valid("end_date", *in.EndDate); err != nil {
			verrs.AddErr("end_date", err)
		} else if *in.EndDate < in.StartDate {
			verrs.Add("end_date", "must not be before start_date")
		}
	}
	return verrs.Err()
}

func validateMonth(month, year int) error {
	var verrs apperrors.ValidationErrors
	if month < 1 || month > 12 {
		verrs.Add("month", "must be between 1 and 12")
	}
	if year < 2000 || year > 2100 {
		verrs.Add("year", "must be between 2000 and 2100")
	}
	return verrs.Err()
}

package currency

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	apperrors "propertyhub/internal/pkg/errors"
)

const Symbol = "RM"

var amountPattern = regexp.MustCompile(`^\d+(\.\d{1,2})?$`)

// Format renders an amount as "RM 1,500.00".
func Format(amount decimal.Decimal) string {
	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Abs()
	}

	fixed := amount.StringFixed(2)
	whole, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	for i, c := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}

	return sign + Symbol + " " + b.String() + "." + frac
}

// Parse accepts user-entered amounts such as "RM 1,500.00", "1500" or "1,500.5".
func Parse(s string) (decimal.Decimal, error) {
	cleaned := strings.TrimSpace(s)
	cleaned = strings.TrimPrefix(strings.ToUpper(cleaned), Symbol)
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.TrimSpace(cleaned)

	if cleaned == "" {
		return decimal.Zero, apperrors.NewValidationError("amount", "amount is required")
	}
	if strings.HasPrefix(cleaned, "-") {
		return decimal.Zero, apperrors.NewValidationError("amount", "amount cannot be negative")
	}
	if !amountPattern.MatchString(cleaned) {
		return decimal.Zero, apperrors.NewValidationError("amount", "amount must be a number with at most two decimal places")
	}

	return decimal.NewFromString(cleaned)
}

// Round2 rounds half away from zero to sen precision.
func Round2(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(2)
}

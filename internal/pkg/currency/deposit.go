package currency

import "github.com/shopspring/decimal"

// Deposit is the move-in breakdown quoted to a prospective renter.
type Deposit struct {
	SecurityDeposit decimal.Decimal `json:"security_deposit"`
	AdvanceRental   decimal.Decimal `json:"advance_rental"`
	UtilityDeposit  decimal.Decimal `json:"utility_deposit"`
	Total           decimal.Decimal `json:"total"`
}

var (
	securityMonths = decimal.NewFromInt(2)
	advanceMonths  = decimal.NewFromInt(1)
	utilityMonths  = decimal.RequireFromString("0.5")
)

// CalculateDeposit uses the customary 2 + 1 + 0.5 months of rent.
func CalculateDeposit(monthlyRent decimal.Decimal) Deposit {
	security := monthlyRent.Mul(securityMonths)
	advance := monthlyRent.Mul(advanceMonths)
	utility := monthlyRent.Mul(utilityMonths)

	return Deposit{
		SecurityDeposit: security,
		AdvanceRental:   advance,
		UtilityDeposit:  utility,
		Total:           security.Add(advance).Add(utility),
	}
}

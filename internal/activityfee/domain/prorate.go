package domain

import "github.com/shopspring/decimal"

// DefaultTotalMonths is the length of a full academic year.
const DefaultTotalMonths = 12

// ProratedAmount adjusts the fee for a mid-year enrollment. Partial
// quarters are billed as full quarters. One-time fees never prorate,
// and a fee with proration disabled is always charged in full.
func (f ActivityFee) ProratedAmount(monthsRemaining, totalMonths int) decimal.Decimal {
	if !f.AllowProrate || monthsRemaining <= 0 || totalMonths <= 0 {
		return f.FeeAmount
	}
	switch f.Frequency {
	case FrequencyYearly:
		return f.FeeAmount.
			Mul(decimal.NewFromInt(int64(monthsRemaining))).
			Div(decimal.NewFromInt(int64(totalMonths))).
			Round(2)
	case FrequencyQuarterly:
		quarters := (monthsRemaining + 2) / 3
		return f.FeeAmount.Mul(decimal.NewFromInt(int64(quarters))).Round(2)
	case FrequencyMonthly:
		return f.FeeAmount.Mul(decimal.NewFromInt(int64(monthsRemaining))).Round(2)
	default:
		return f.FeeAmount
	}
}

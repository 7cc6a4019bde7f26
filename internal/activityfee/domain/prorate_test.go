package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestProratedAmount_Yearly(t *testing.T) {
	fee := ActivityFee{
		FeeAmount:    decimal.NewFromInt(120),
		Frequency:    FrequencyYearly,
		AllowProrate: true,
	}

	got := fee.ProratedAmount(3, DefaultTotalMonths)
	assert.Equal(t, "30.00", got.StringFixed(2))

	// Full year pays the full fee.
	got = fee.ProratedAmount(12, DefaultTotalMonths)
	assert.Equal(t, "120.00", got.StringFixed(2))
}

func TestProratedAmount_QuarterlyBillsPartialQuartersInFull(t *testing.T) {
	fee := ActivityFee{
		FeeAmount:    decimal.NewFromInt(50),
		Frequency:    FrequencyQuarterly,
		AllowProrate: true,
	}

	// 4 months spans two quarters.
	got := fee.ProratedAmount(4, DefaultTotalMonths)
	assert.Equal(t, "100.00", got.StringFixed(2))

	got = fee.ProratedAmount(3, DefaultTotalMonths)
	assert.Equal(t, "50.00", got.StringFixed(2))

	got = fee.ProratedAmount(7, DefaultTotalMonths)
	assert.Equal(t, "150.00", got.StringFixed(2))
}

func TestProratedAmount_Monthly(t *testing.T) {
	fee := ActivityFee{
		FeeAmount:    decimal.NewFromFloat(12.50),
		Frequency:    FrequencyMonthly,
		AllowProrate: true,
	}

	got := fee.ProratedAmount(5, DefaultTotalMonths)
	assert.Equal(t, "62.50", got.StringFixed(2))
}

func TestProratedAmount_OneTimeNeverProrates(t *testing.T) {
	fee := ActivityFee{
		FeeAmount:    decimal.NewFromInt(75),
		Frequency:    FrequencyOneTime,
		AllowProrate: true,
	}

	got := fee.ProratedAmount(3, DefaultTotalMonths)
	assert.Equal(t, "75.00", got.StringFixed(2))
}

func TestProratedAmount_Disabled(t *testing.T) {
	fee := ActivityFee{
		FeeAmount:    decimal.NewFromInt(120),
		Frequency:    FrequencyYearly,
		AllowProrate: false,
	}

	got := fee.ProratedAmount(3, DefaultTotalMonths)
	assert.Equal(t, "120.00", got.StringFixed(2))
}

func TestProratedAmount_NonPositiveMonthsReturnsFullFee(t *testing.T) {
	fee := ActivityFee{
		FeeAmount:    decimal.NewFromInt(120),
		Frequency:    FrequencyYearly,
		AllowProrate: true,
	}

	got := fee.ProratedAmount(0, DefaultTotalMonths)
	assert.Equal(t, "120.00", got.StringFixed(2))

	got = fee.ProratedAmount(-2, DefaultTotalMonths)
	assert.Equal(t, "120.00", got.StringFixed(2))
}

func TestProratedAmount_YearlyRoundsHalfUp(t *testing.T) {
	fee := ActivityFee{
		FeeAmount:    decimal.NewFromInt(100),
		Frequency:    FrequencyYearly,
		AllowProrate: true,
	}

	// 100 * 7/12 = 58.333... -> 58.33
	got := fee.ProratedAmount(7, DefaultTotalMonths)
	assert.Equal(t, "58.33", got.StringFixed(2))

	// 100 * 5/12 = 41.666... -> 41.67
	got = fee.ProratedAmount(5, DefaultTotalMonths)
	assert.Equal(t, "41.67", got.StringFixed(2))
}

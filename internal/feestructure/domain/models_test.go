package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestBaseAmountPerFrequency(t *testing.T) {
	s := FeeStructure{
		YearlyAmount:    decimal.NewFromInt(1000),
		QuarterlyAmount: decimal.NewFromInt(270),
		MonthlyAmount:   decimal.NewFromInt(95),
	}

	assert.Equal(t, "1000", s.BaseAmount(FrequencyYearly).String())
	assert.Equal(t, "270", s.BaseAmount(FrequencyQuarterly).String())
	assert.Equal(t, "95", s.BaseAmount(FrequencyMonthly).String())
}

func TestPaymentDiscountPerFrequency(t *testing.T) {
	s := FeeStructure{
		YearlyDiscountPercent:    decimal.NewFromInt(10),
		QuarterlyDiscountPercent: decimal.NewFromInt(5),
		MonthlyDiscountPercent:   decimal.Zero,
	}

	assert.Equal(t, "10", s.PaymentDiscount(FrequencyYearly).String())
	assert.Equal(t, "5", s.PaymentDiscount(FrequencyQuarterly).String())
	assert.Equal(t, "0", s.PaymentDiscount(FrequencyMonthly).String())
}

func TestSiblingDiscountTiers(t *testing.T) {
	s := FeeStructure{
		Sibling2DiscountPercent:     decimal.NewFromInt(5),
		Sibling3DiscountPercent:     decimal.NewFromInt(10),
		Sibling4PlusDiscountPercent: decimal.NewFromInt(15),
	}

	assert.Equal(t, "0", s.SiblingDiscount(1).String())
	assert.Equal(t, "5", s.SiblingDiscount(2).String())
	assert.Equal(t, "10", s.SiblingDiscount(3).String())
	assert.Equal(t, "15", s.SiblingDiscount(4).String())
	assert.Equal(t, "15", s.SiblingDiscount(9).String())
	assert.Equal(t, "0", s.SiblingDiscount(0).String())

	// Tiers never shrink as the order deepens.
	prev := decimal.Zero
	for order := 1; order <= 5; order++ {
		current := s.SiblingDiscount(order)
		assert.True(t, current.GreaterThanOrEqual(prev), "tier %d regressed", order)
		prev = current
	}
}

func TestValidAcademicYear(t *testing.T) {
	assert.True(t, ValidAcademicYear("2025-2026"))
	assert.False(t, ValidAcademicYear("2025-2027"))
	assert.False(t, ValidAcademicYear("2026-2025"))
	assert.False(t, ValidAcademicYear("2025/2026"))
	assert.False(t, ValidAcademicYear("25-26"))
	assert.False(t, ValidAcademicYear(""))
}

func TestValidGradeLevel(t *testing.T) {
	assert.False(t, ValidGradeLevel(0))
	assert.True(t, ValidGradeLevel(1))
	assert.True(t, ValidGradeLevel(7))
	assert.False(t, ValidGradeLevel(8))
}

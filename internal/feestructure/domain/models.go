// Package domain contains persistence models for tuition fee structures.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PaymentFrequency selects which base amount and payment discount apply.
type PaymentFrequency string

const (
	FrequencyYearly    PaymentFrequency = "yearly"
	FrequencyQuarterly PaymentFrequency = "quarterly"
	FrequencyMonthly   PaymentFrequency = "monthly"
)

func (f PaymentFrequency) Valid() bool {
	switch f {
	case FrequencyYearly, FrequencyQuarterly, FrequencyMonthly:
		return true
	default:
		return false
	}
}

const (
	MinGradeLevel = 1
	MaxGradeLevel = 7
)

// FeeStructure holds the per-grade base tuition prices and discount rates
// for one academic year. At most one active structure may exist per
// (school, grade, year).
type FeeStructure struct {
	ID           snowflake.ID `gorm:"primaryKey"`
	SchoolID     snowflake.ID `gorm:"not null;index"`
	GradeLevel   int          `gorm:"not null"`
	AcademicYear string       `gorm:"type:text;not null"`

	YearlyAmount    decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	QuarterlyAmount decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	MonthlyAmount   decimal.Decimal `gorm:"type:numeric(12,2);not null"`

	YearlyDiscountPercent    decimal.Decimal `gorm:"type:numeric(5,2);not null;default:0"`
	QuarterlyDiscountPercent decimal.Decimal `gorm:"type:numeric(5,2);not null;default:0"`
	MonthlyDiscountPercent   decimal.Decimal `gorm:"type:numeric(5,2);not null;default:0"`

	Sibling2DiscountPercent     decimal.Decimal `gorm:"type:numeric(5,2);not null;default:0"`
	Sibling3DiscountPercent     decimal.Decimal `gorm:"type:numeric(5,2);not null;default:0"`
	Sibling4PlusDiscountPercent decimal.Decimal `gorm:"type:numeric(5,2);not null;default:0"`

	// ApplySiblingToAll grants every co-enrolled sibling the discount of the
	// family's deepest tier instead of ranking by enrollment date.
	ApplySiblingToAll bool `gorm:"not null;default:false"`

	Active    bool           `gorm:"not null;default:true"`
	CreatedBy snowflake.ID   `gorm:"not null"`
	UpdatedBy snowflake.ID   `gorm:"not null"`
	CreatedAt time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

// TableName sets the database table name.
func (FeeStructure) TableName() string { return "fee_structures" }

// BaseAmount returns the tuition amount for the requested frequency.
func (s FeeStructure) BaseAmount(freq PaymentFrequency) decimal.Decimal {
	switch freq {
	case FrequencyQuarterly:
		return s.QuarterlyAmount
	case FrequencyMonthly:
		return s.MonthlyAmount
	default:
		return s.YearlyAmount
	}
}

// PaymentDiscount returns the discount percentage for the requested frequency.
func (s FeeStructure) PaymentDiscount(freq PaymentFrequency) decimal.Decimal {
	switch freq {
	case FrequencyQuarterly:
		return s.QuarterlyDiscountPercent
	case FrequencyMonthly:
		return s.MonthlyDiscountPercent
	default:
		return s.YearlyDiscountPercent
	}
}

// SiblingDiscount returns the tiered sibling discount percentage for a
// sibling order. Order 1 (the first enrolled child) gets no discount.
func (s FeeStructure) SiblingDiscount(order int) decimal.Decimal {
	switch {
	case order <= 1:
		return decimal.Zero
	case order == 2:
		return s.Sibling2DiscountPercent
	case order == 3:
		return s.Sibling3DiscountPercent
	default:
		return s.Sibling4PlusDiscountPercent
	}
}

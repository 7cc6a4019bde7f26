// Package domain contains the student fee ledger header, the persisted
// outcome of a fee computation that payments reconcile against.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	feestructuredomain "github.com/opencampus/tuition/internal/feestructure/domain"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// FeeStatus tracks a fee through its payment lifecycle.
type FeeStatus string

const (
	StatusPending FeeStatus = "pending"
	StatusPartial FeeStatus = "partial"
	StatusPaid    FeeStatus = "paid"
	StatusOverdue FeeStatus = "overdue"
	StatusWaived  FeeStatus = "waived"
)

// StudentFee is the computed ledger header, one live row per student and
// academic year. The derived columns are a frozen snapshot of the
// computation that created it; only payment fields and status move
// afterwards.
type StudentFee struct {
	ID             snowflake.ID `gorm:"primaryKey"`
	SchoolID       snowflake.ID `gorm:"not null;index"`
	StudentID      snowflake.ID `gorm:"not null;index"`
	FeeStructureID snowflake.ID `gorm:"not null"`
	AcademicYear   string       `gorm:"type:text;not null;index"`

	Frequency    feestructuredomain.PaymentFrequency `gorm:"type:text;not null"`
	BaseTuition  decimal.Decimal                     `gorm:"type:numeric(12,2);not null"`
	SiblingOrder int                                 `gorm:"not null;default:1"`

	PaymentDiscountPercent decimal.Decimal `gorm:"type:numeric(5,2);not null;default:0"`
	PaymentDiscountAmount  decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"`
	SiblingDiscountPercent decimal.Decimal `gorm:"type:numeric(5,2);not null;default:0"`
	SiblingDiscountAmount  decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"`

	ActivityFees decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"`
	MaterialFees decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"`
	OtherFees    decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"`

	BursaryID     *snowflake.ID   `gorm:"index"`
	BursaryAmount decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"`

	TotalBeforeDiscounts decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	TotalDiscounts       decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	TotalAmountDue       decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	TotalPaid            decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"`
	BalanceDue           decimal.Decimal `gorm:"type:numeric(12,2);not null"`

	Status          FeeStatus  `gorm:"type:text;not null;default:'pending'"`
	DueDate         time.Time  `gorm:"not null"`
	LastPaymentDate *time.Time `gorm:""`

	CreatedBy snowflake.ID   `gorm:"not null"`
	UpdatedBy snowflake.ID   `gorm:"not null"`
	CreatedAt time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

// TableName sets the database table name.
func (StudentFee) TableName() string { return "student_fees" }

// RecomputeBalance refreshes balance_due from the current totals.
func (f *StudentFee) RecomputeBalance() {
	balance := f.TotalAmountDue.Sub(f.TotalPaid)
	if balance.IsNegative() {
		balance = decimal.Zero
	}
	f.BalanceDue = balance
}

// RecomputeStatus derives status from the current totals. Waived is sticky:
// only an administrative action sets or clears it. Overdue is entered only
// by the sweep and survives a recompute that leaves the fee unpaid, but any
// payment activity moves the fee back onto the normal track.
func (f *StudentFee) RecomputeStatus() {
	if f.Status == StatusWaived {
		return
	}
	switch {
	case f.TotalPaid.GreaterThanOrEqual(f.TotalAmountDue):
		f.Status = StatusPaid
	case f.TotalPaid.IsPositive():
		f.Status = StatusPartial
	case f.Status == StatusOverdue:
		// Nothing paid; the sweep's verdict stands.
	default:
		f.Status = StatusPending
	}
}

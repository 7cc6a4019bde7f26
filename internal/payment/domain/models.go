// Package domain contains the payment ledger models: payments recorded
// against student fees and the per-school receipt sequences.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PaymentMethod string

const (
	MethodCash         PaymentMethod = "cash"
	MethodBankTransfer PaymentMethod = "bank_transfer"
	MethodMobileMoney  PaymentMethod = "mobile_money"
	MethodCard         PaymentMethod = "card"
	MethodCheque       PaymentMethod = "cheque"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodCash, MethodBankTransfer, MethodMobileMoney, MethodCard, MethodCheque:
		return true
	default:
		return false
	}
}

type PaymentStatus string

const (
	StatusPending   PaymentStatus = "pending"
	StatusCompleted PaymentStatus = "completed"
	StatusFailed    PaymentStatus = "failed"
	StatusRefunded  PaymentStatus = "refunded"
	StatusCancelled PaymentStatus = "cancelled"
)

// Payment is one ledger entry against a student fee. Refund fields are set
// only when the payment transitions to refunded.
type Payment struct {
	ID           snowflake.ID `gorm:"primaryKey"`
	SchoolID     snowflake.ID `gorm:"not null;uniqueIndex:idx_payments_receipt"`
	StudentFeeID snowflake.ID `gorm:"not null;index"`

	Amount        decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Method        PaymentMethod   `gorm:"type:text;not null"`
	ReceiptNumber string          `gorm:"type:text;not null;uniqueIndex:idx_payments_receipt"`
	Status        PaymentStatus   `gorm:"type:text;not null;default:'completed'"`
	PaymentDate   time.Time       `gorm:"not null"`

	RefundReason *string    `gorm:"type:text"`
	RefundedAt   *time.Time `gorm:""`

	RecordedBy snowflake.ID   `gorm:"not null"`
	UpdatedBy  snowflake.ID   `gorm:"not null"`
	CreatedAt  time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt  time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"`
	DeletedAt  gorm.DeletedAt `gorm:"index"`
}

// TableName sets the database table name.
func (Payment) TableName() string { return "payments" }

// ReceiptSequence is the monotonic counter behind receipt numbers, one row
// per school and calendar year, bumped under a row lock.
type ReceiptSequence struct {
	SchoolID  snowflake.ID `gorm:"primaryKey;autoIncrement:false"`
	Year      int          `gorm:"primaryKey;autoIncrement:false"`
	NextValue int          `gorm:"not null;default:1"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (ReceiptSequence) TableName() string { return "receipt_sequences" }

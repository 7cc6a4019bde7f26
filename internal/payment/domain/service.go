package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

var (
	ErrPaymentNotFound  = errors.New("payment_not_found")
	ErrInvalidPaymentID = errors.New("invalid_payment_id")
	ErrInvalidAmount    = errors.New("invalid_payment_amount")
	ErrInvalidMethod    = errors.New("invalid_payment_method")
	ErrNotRefundable    = errors.New("payment_not_refundable")
	ErrConflict         = errors.New("payment_conflict")
)

type RecordRequest struct {
	SchoolID     snowflake.ID
	StudentFeeID snowflake.ID
	Amount       decimal.Decimal
	Method       PaymentMethod
	// PaymentDate defaults to the current day when zero.
	PaymentDate time.Time
	ActorID     snowflake.ID
}

type RefundRequest struct {
	SchoolID  snowflake.ID
	PaymentID string
	Reason    string
	ActorID   snowflake.ID
}

// Service is the payment ledger: it records and refunds payments against
// student fees and runs the overdue sweep.
type Service interface {
	RecordPayment(ctx context.Context, req RecordRequest) (*Payment, error)
	RefundPayment(ctx context.Context, req RefundRequest) (*Payment, error)
	GetByID(ctx context.Context, schoolID snowflake.ID, id string) (*Payment, error)
	ListByFee(ctx context.Context, schoolID, studentFeeID snowflake.ID) ([]Payment, error)

	// MarkOverdueBatch flips every unpaid fee past its due date to overdue
	// and returns how many rows changed. Safe to run repeatedly.
	MarkOverdueBatch(ctx context.Context, schoolID snowflake.ID) (int64, error)
}

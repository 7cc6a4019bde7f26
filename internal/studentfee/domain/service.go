package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	feecalcdomain "github.com/opencampus/tuition/internal/feecalc/domain"
	feestructuredomain "github.com/opencampus/tuition/internal/feestructure/domain"
	"github.com/shopspring/decimal"
)

var (
	ErrFeeNotFound    = errors.New("student_fee_not_found")
	ErrFeeExists      = errors.New("student_fee_already_exists")
	ErrInvalidFeeID   = errors.New("invalid_student_fee_id")
	ErrInvalidDueDate = errors.New("invalid_due_date")
	ErrNoBursary      = errors.New("student_fee_has_no_bursary")
)

type CreateRequest struct {
	SchoolID     snowflake.ID
	StudentID    snowflake.ID
	AcademicYear string
	Frequency    feestructuredomain.PaymentFrequency

	BursaryID *snowflake.ID

	MaterialFees decimal.Decimal
	OtherFees    decimal.Decimal

	DueDate time.Time
	ActorID snowflake.ID
}

// Service creates and administers student fee records. Preview runs the
// same computation as Create without touching storage, so it can never
// fail with a capacity conflict.
type Service interface {
	Preview(ctx context.Context, req CreateRequest) (*feecalcdomain.Computation, error)
	Create(ctx context.Context, req CreateRequest) (*StudentFee, error)
	GetByID(ctx context.Context, schoolID snowflake.ID, id string) (*StudentFee, error)
	List(ctx context.Context, schoolID snowflake.ID, academicYear string) ([]StudentFee, error)
	Waive(ctx context.Context, schoolID snowflake.ID, id string, actorID snowflake.ID) (*StudentFee, error)
	// RemoveBursary clears the fee's bursary, releases the reserved slot and
	// recomputes totals and status in one transaction.
	RemoveBursary(ctx context.Context, schoolID snowflake.ID, id string, actorID snowflake.ID) (*StudentFee, error)
}

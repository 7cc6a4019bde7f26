// Package domain defines the fee computation request and snapshot types.
package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	feestructuredomain "github.com/opencampus/tuition/internal/feestructure/domain"
	"github.com/shopspring/decimal"
)

var (
	ErrNegativeFees = errors.New("negative_fee_component")
)

// ComputeRequest carries every input of a fee computation. MaterialFees and
// OtherFees default to zero when left unset.
type ComputeRequest struct {
	SchoolID     snowflake.ID
	StudentID    snowflake.ID
	AcademicYear string
	Frequency    feestructuredomain.PaymentFrequency

	BursaryID *snowflake.ID

	MaterialFees decimal.Decimal
	OtherFees    decimal.Decimal
}

// Computation is the derived fee snapshot. Identical inputs against
// unchanged catalogs always produce an equal Computation.
type Computation struct {
	SchoolID       snowflake.ID
	StudentID      snowflake.ID
	GradeLevel     int
	AcademicYear   string
	Frequency      feestructuredomain.PaymentFrequency
	FeeStructureID snowflake.ID

	BaseTuition  decimal.Decimal
	SiblingOrder int

	PaymentDiscountPercent decimal.Decimal
	PaymentDiscountAmount  decimal.Decimal
	SiblingDiscountPercent decimal.Decimal
	SiblingDiscountAmount  decimal.Decimal

	ActivityFees decimal.Decimal
	MaterialFees decimal.Decimal
	OtherFees    decimal.Decimal

	BursaryID     *snowflake.ID
	BursaryAmount decimal.Decimal

	TotalBeforeDiscounts decimal.Decimal
	TotalDiscounts       decimal.Decimal
	TotalAmountDue       decimal.Decimal
	BalanceDue           decimal.Decimal
}

// Service computes fee snapshots. Compute never writes; it is safe to call
// for previews and is re-run unchanged during fee creation.
type Service interface {
	Compute(ctx context.Context, req ComputeRequest) (*Computation, error)
}

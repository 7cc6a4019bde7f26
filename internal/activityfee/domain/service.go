package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

var (
	ErrActivityFeeNotFound  = errors.New("activity_fee_not_found")
	ErrDuplicateActivityFee = errors.New("activity_fee_already_exists")
	ErrInvalidActivityFeeID = errors.New("invalid_activity_fee_id")
	ErrInvalidAmount        = errors.New("invalid_fee_amount")
	ErrInvalidFrequency     = errors.New("invalid_fee_frequency")
	ErrInvalidName          = errors.New("invalid_activity_fee_name")
)

type CreateRequest struct {
	SchoolID     snowflake.ID
	ActivityID   snowflake.ID
	AcademicYear string
	Name         string
	FeeAmount    decimal.Decimal
	Frequency    FeeFrequency
	AllowProrate bool
	ActorID      snowflake.ID
}

type UpdateRequest struct {
	Name         *string
	FeeAmount    *decimal.Decimal
	Frequency    *FeeFrequency
	AllowProrate *bool
	Active       *bool
	ActorID      snowflake.ID
}

type ListFilter struct {
	SchoolID     snowflake.ID
	AcademicYear string
	ActivityID   *snowflake.ID
	ActiveOnly   bool
}

// Service manages the catalog of per-activity charges.
type Service interface {
	Create(ctx context.Context, req CreateRequest) (*ActivityFee, error)
	Update(ctx context.Context, id string, req UpdateRequest) (*ActivityFee, error)
	GetByID(ctx context.Context, id string) (*ActivityFee, error)
	List(ctx context.Context, filter ListFilter) ([]ActivityFee, error)
	Delete(ctx context.Context, id string, actorID snowflake.ID) error

	// ResolveForActivities returns the active fee rows for the given
	// activities in one academic year. Activities without a fee entry
	// are simply absent from the result.
	ResolveForActivities(ctx context.Context, schoolID snowflake.ID, academicYear string, activityIDs []snowflake.ID) ([]ActivityFee, error)
}

package domain

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Bursary, error)
	GetByID(ctx context.Context, schoolID snowflake.ID, id string) (*Bursary, error)
	List(ctx context.Context, schoolID snowflake.ID) ([]Bursary, error)
	Delete(ctx context.Context, schoolID snowflake.ID, id string, actorID snowflake.ID) error

	// CheckEligibility returns nil when the bursary can accept the grade on
	// the given day, or an EligibilityError listing every failed condition.
	CheckEligibility(bursary *Bursary, grade int, today time.Time) error

	// Reserve atomically re-checks eligibility under lock and claims one
	// recipient slot inside the caller's transaction. Losing the last slot
	// surfaces ErrCapacityExhausted.
	Reserve(ctx context.Context, tx *gorm.DB, bursaryID snowflake.ID, grade int, today time.Time) (*Bursary, error)
	// Release returns a previously reserved slot.
	Release(ctx context.Context, tx *gorm.DB, bursaryID snowflake.ID) error
}

type CreateRequest struct {
	SchoolID snowflake.ID
	ActorID  snowflake.ID
	Name     string

	CoverageType      CoverageType
	CoverageValue     decimal.Decimal
	MaxCoverageAmount *decimal.Decimal

	EligibleGrades      []int
	MaxRecipients       *int
	ApplicationDeadline *time.Time
}

var (
	ErrBursaryNotFound   = errors.New("bursary_not_found")
	ErrInvalidCoverage   = errors.New("invalid_coverage")
	ErrInvalidName       = errors.New("invalid_bursary_name")
	ErrInvalidCapacity   = errors.New("invalid_max_recipients")
	ErrInvalidGrades     = errors.New("invalid_eligible_grades")
	ErrInvalidID         = errors.New("invalid_bursary_id")
	ErrCapacityExhausted = errors.New("bursary_capacity_exhausted")
	ErrHasRecipients     = errors.New("bursary_has_recipients")
)

// Eligibility failure reasons, reported itemized so callers can surface
// every failed condition at once.
const (
	ReasonInactive          = "bursary is not active"
	ReasonCapacityExhausted = "bursary has reached its maximum number of recipients"
	ReasonDeadlinePassed    = "application deadline has passed"
	ReasonGradeNotEligible  = "student grade level is not eligible"
)

// EligibilityError carries the full list of failed eligibility conditions.
type EligibilityError struct {
	Reasons []string
}

func (e *EligibilityError) Error() string {
	return "bursary not eligible: " + strings.Join(e.Reasons, "; ")
}

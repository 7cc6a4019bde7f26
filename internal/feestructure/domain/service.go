package domain

import (
	"context"
	"errors"
	"regexp"
	"strconv"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*FeeStructure, error)
	Update(ctx context.Context, req UpdateRequest) (*FeeStructure, error)
	GetByID(ctx context.Context, schoolID snowflake.ID, id string) (*FeeStructure, error)
	List(ctx context.Context, schoolID snowflake.ID, academicYear string) ([]FeeStructure, error)
	Delete(ctx context.Context, schoolID snowflake.ID, id string, actorID snowflake.ID) error
	// ResolveActive returns the single active structure for the grade and
	// year, or ErrStructureNotFound.
	ResolveActive(ctx context.Context, schoolID snowflake.ID, gradeLevel int, academicYear string) (*FeeStructure, error)
}

type CreateRequest struct {
	SchoolID     snowflake.ID
	ActorID      snowflake.ID
	GradeLevel   int
	AcademicYear string

	YearlyAmount    decimal.Decimal
	QuarterlyAmount decimal.Decimal
	MonthlyAmount   decimal.Decimal

	YearlyDiscountPercent    decimal.Decimal
	QuarterlyDiscountPercent decimal.Decimal
	MonthlyDiscountPercent   decimal.Decimal

	Sibling2DiscountPercent     decimal.Decimal
	Sibling3DiscountPercent     decimal.Decimal
	Sibling4PlusDiscountPercent decimal.Decimal

	ApplySiblingToAll bool
}

type UpdateRequest struct {
	ID       string
	SchoolID snowflake.ID
	ActorID  snowflake.ID

	YearlyAmount    *decimal.Decimal
	QuarterlyAmount *decimal.Decimal
	MonthlyAmount   *decimal.Decimal

	YearlyDiscountPercent    *decimal.Decimal
	QuarterlyDiscountPercent *decimal.Decimal
	MonthlyDiscountPercent   *decimal.Decimal

	Sibling2DiscountPercent     *decimal.Decimal
	Sibling3DiscountPercent     *decimal.Decimal
	Sibling4PlusDiscountPercent *decimal.Decimal

	ApplySiblingToAll *bool
	Active            *bool
}

var (
	ErrStructureNotFound  = errors.New("fee_structure_not_found")
	ErrDuplicateStructure = errors.New("duplicate_fee_structure")
	ErrInvalidGradeLevel  = errors.New("invalid_grade_level")
	ErrInvalidYear        = errors.New("invalid_academic_year")
	ErrInvalidAmount      = errors.New("invalid_amount")
	ErrInvalidDiscount    = errors.New("invalid_discount_percent")
	ErrInvalidFrequency   = errors.New("invalid_payment_frequency")
	ErrInvalidID          = errors.New("invalid_fee_structure_id")
)

var academicYearPattern = regexp.MustCompile(`^\d{4}-\d{4}$`)

// ValidAcademicYear reports whether year is "YYYY-YYYY" with consecutive
// calendar years.
func ValidAcademicYear(year string) bool {
	if !academicYearPattern.MatchString(year) {
		return false
	}
	first, _ := strconv.Atoi(year[:4])
	second, _ := strconv.Atoi(year[5:])
	return second == first+1
}

// ValidGradeLevel reports whether grade falls in the supported range.
func ValidGradeLevel(grade int) bool {
	return grade >= MinGradeLevel && grade <= MaxGradeLevel
}

// ValidPercent reports whether p is a usable discount percentage.
func ValidPercent(p decimal.Decimal) bool {
	return p.GreaterThanOrEqual(decimal.Zero) && p.LessThanOrEqual(decimal.NewFromInt(100))
}

package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	activityfeedomain "github.com/opencampus/tuition/internal/activityfee/domain"
	bursarydomain "github.com/opencampus/tuition/internal/bursary/domain"
	"github.com/opencampus/tuition/internal/clock"
	directorydomain "github.com/opencampus/tuition/internal/directory/domain"
	feecalcdomain "github.com/opencampus/tuition/internal/feecalc/domain"
	feestructuredomain "github.com/opencampus/tuition/internal/feestructure/domain"
	"github.com/opencampus/tuition/internal/observability/metrics"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var decimalHundred = decimal.NewFromInt(100)

type Params struct {
	fx.In

	Log         *zap.Logger
	Clock       clock.Clock
	Structures  feestructuredomain.Service
	Bursaries   bursarydomain.Service
	ActivityFee activityfeedomain.Service
	Students    directorydomain.StudentDirectory
	Enrollments directorydomain.ActivityEnrollmentDirectory
	Metrics     *metrics.Metrics `optional:"true"`
}

type Service struct {
	log     *zap.Logger
	clock   clock.Clock
	metrics *metrics.Metrics

	structures  feestructuredomain.Service
	bursaries   bursarydomain.Service
	activityFee activityfeedomain.Service
	students    directorydomain.StudentDirectory
	enrollments directorydomain.ActivityEnrollmentDirectory
}

func NewService(p Params) feecalcdomain.Service {
	return &Service{
		log:     p.Log.Named("feecalc.service"),
		clock:   p.Clock,
		metrics: p.Metrics,

		structures:  p.Structures,
		bursaries:   p.Bursaries,
		activityFee: p.ActivityFee,
		students:    p.Students,
		enrollments: p.Enrollments,
	}
}

// Compute derives the full fee snapshot for one student and year. The
// derivation runs in a fixed order with each discount and the bursary amount
// rounded to 2dp independently, so repeated runs against unchanged catalogs
// reproduce the snapshot cent for cent.
func (s *Service) Compute(ctx context.Context, req feecalcdomain.ComputeRequest) (*feecalcdomain.Computation, error) {
	if !req.Frequency.Valid() {
		return nil, feestructuredomain.ErrInvalidFrequency
	}
	if !feestructuredomain.ValidAcademicYear(req.AcademicYear) {
		return nil, feestructuredomain.ErrInvalidYear
	}
	if req.MaterialFees.IsNegative() || req.OtherFees.IsNegative() {
		return nil, feecalcdomain.ErrNegativeFees
	}

	student, err := s.students.Resolve(ctx, req.StudentID)
	if err != nil {
		return nil, err
	}

	structure, err := s.structures.ResolveActive(ctx, req.SchoolID, student.GradeLevel, req.AcademicYear)
	if err != nil {
		return nil, err
	}

	baseTuition := structure.BaseAmount(req.Frequency)

	siblingOrder, err := s.siblingOrder(ctx, student, structure.ApplySiblingToAll)
	if err != nil {
		return nil, err
	}

	paymentPercent := structure.PaymentDiscount(req.Frequency)
	paymentAmount := percentOf(baseTuition, paymentPercent)

	siblingPercent := structure.SiblingDiscount(siblingOrder)
	siblingAmount := percentOf(baseTuition, siblingPercent)

	activityTotal, err := s.activityFeesTotal(ctx, req.SchoolID, req.StudentID, req.AcademicYear)
	if err != nil {
		return nil, err
	}

	totalBefore := baseTuition.Add(activityTotal).Add(req.MaterialFees).Add(req.OtherFees)
	totalDiscounts := paymentAmount.Add(siblingAmount)

	bursaryAmount := decimal.Zero
	if req.BursaryID != nil {
		bursaryAmount, err = s.bursaryAmount(ctx, req.SchoolID, *req.BursaryID, student.GradeLevel, totalBefore.Sub(totalDiscounts))
		if err != nil {
			return nil, err
		}
	}

	totalDue := totalBefore.Sub(totalDiscounts).Sub(bursaryAmount)
	if totalDue.IsNegative() {
		totalDue = decimal.Zero
	}

	s.metrics.RecordFeeComputed()

	return &feecalcdomain.Computation{
		SchoolID:       req.SchoolID,
		StudentID:      req.StudentID,
		GradeLevel:     student.GradeLevel,
		AcademicYear:   req.AcademicYear,
		Frequency:      req.Frequency,
		FeeStructureID: structure.ID,

		BaseTuition:  baseTuition,
		SiblingOrder: siblingOrder,

		PaymentDiscountPercent: paymentPercent,
		PaymentDiscountAmount:  paymentAmount,
		SiblingDiscountPercent: siblingPercent,
		SiblingDiscountAmount:  siblingAmount,

		ActivityFees: activityTotal,
		MaterialFees: req.MaterialFees,
		OtherFees:    req.OtherFees,

		BursaryID:     req.BursaryID,
		BursaryAmount: bursaryAmount,

		TotalBeforeDiscounts: totalBefore,
		TotalDiscounts:       totalDiscounts,
		TotalAmountDue:       totalDue,
		BalanceDue:           totalDue,
	}, nil
}

// siblingOrder ranks the student among co-enrolled siblings. With the
// apply-to-all flag every sibling shares the family's deepest tier; without
// it the rank follows enrollment date, ties broken by ID.
func (s *Service) siblingOrder(ctx context.Context, student *directorydomain.Student, applyToAll bool) (int, error) {
	if student.FamilyID == nil {
		return 1, nil
	}
	siblings, err := s.students.ResolveSiblings(ctx, student.ID)
	if err != nil {
		return 0, err
	}
	if applyToAll {
		return 1 + len(siblings), nil
	}
	order := 1
	for _, sib := range siblings {
		if sib.EnrollmentDate.Before(student.EnrollmentDate) ||
			(sib.EnrollmentDate.Equal(student.EnrollmentDate) && sib.ID < student.ID) {
			order++
		}
	}
	return order, nil
}

func (s *Service) activityFeesTotal(ctx context.Context, schoolID, studentID snowflake.ID, academicYear string) (decimal.Decimal, error) {
	activityIDs, err := s.enrollments.ActiveEnrollments(ctx, studentID, academicYear)
	if err != nil {
		return decimal.Zero, err
	}
	fees, err := s.activityFee.ResolveForActivities(ctx, schoolID, academicYear, activityIDs)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, fee := range fees {
		total = total.Add(fee.FeeAmount)
	}
	return total, nil
}

func (s *Service) bursaryAmount(ctx context.Context, schoolID, bursaryID snowflake.ID, grade int, netDue decimal.Decimal) (decimal.Decimal, error) {
	bursary, err := s.bursaries.GetByID(ctx, schoolID, bursaryID.String())
	if err != nil {
		return decimal.Zero, err
	}
	if err := s.bursaries.CheckEligibility(bursary, grade, clock.Today(s.clock)); err != nil {
		return decimal.Zero, err
	}

	if bursary.CoverageType == bursarydomain.CoverageFixedAmount {
		return bursary.CoverageValue.Round(2), nil
	}

	amount := netDue.Mul(bursary.CoverageValue).Div(decimalHundred).Round(2)
	if bursary.MaxCoverageAmount != nil && amount.GreaterThan(*bursary.MaxCoverageAmount) {
		amount = bursary.MaxCoverageAmount.Round(2)
	}
	return amount, nil
}

func percentOf(base, percent decimal.Decimal) decimal.Decimal {
	return base.Mul(percent).Div(decimalHundred).Round(2)
}

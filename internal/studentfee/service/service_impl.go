package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/opencampus/tuition/internal/audit/domain"
	bursarydomain "github.com/opencampus/tuition/internal/bursary/domain"
	"github.com/opencampus/tuition/internal/clock"
	feecalcdomain "github.com/opencampus/tuition/internal/feecalc/domain"
	studentfeedomain "github.com/opencampus/tuition/internal/studentfee/domain"
	"github.com/opencampus/tuition/pkg/db"
	"github.com/opencampus/tuition/pkg/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Clock     clock.Clock
	Calc      feecalcdomain.Service
	Bursaries bursarydomain.Service
	AuditSvc  auditdomain.Service `optional:"true"`
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock

	genID     *snowflake.Node
	calc      feecalcdomain.Service
	bursaries bursarydomain.Service
	repo      repository.Repository[studentfeedomain.StudentFee]
	auditSvc  auditdomain.Service
}

func NewService(p Params) studentfeedomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("studentfee.service"),
		clock: p.Clock,

		genID:     p.GenID,
		calc:      p.Calc,
		bursaries: p.Bursaries,
		repo:      repository.ProvideStore[studentfeedomain.StudentFee](p.DB),
		auditSvc:  p.AuditSvc,
	}
}

func (s *Service) Preview(ctx context.Context, req studentfeedomain.CreateRequest) (*feecalcdomain.Computation, error) {
	return s.calc.Compute(ctx, computeRequest(req))
}

// Create persists a computed fee snapshot. The duplicate check, the bursary
// reservation and the insert share one transaction so a lost capacity race
// rolls everything back.
func (s *Service) Create(ctx context.Context, req studentfeedomain.CreateRequest) (*studentfeedomain.StudentFee, error) {
	if req.DueDate.IsZero() {
		return nil, studentfeedomain.ErrInvalidDueDate
	}

	comp, err := s.calc.Compute(ctx, computeRequest(req))
	if err != nil {
		return nil, err
	}

	var created *studentfeedomain.StudentFee
	err = db.TransactionWithRetry(ctx, s.db, func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&studentfeedomain.StudentFee{}).
			Where("school_id = ? AND student_id = ? AND academic_year = ?",
				req.SchoolID, req.StudentID, req.AcademicYear).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return studentfeedomain.ErrFeeExists
		}

		if req.BursaryID != nil {
			if _, err := s.bursaries.Reserve(ctx, tx, *req.BursaryID, comp.GradeLevel, clock.Today(s.clock)); err != nil {
				return err
			}
		}

		now := s.clock.Now()
		fee := snapshotFee(comp, req, s.genID.Generate(), now)
		if err := tx.Create(fee).Error; err != nil {
			if db.IsDuplicateKeyErr(err) {
				return studentfeedomain.ErrFeeExists
			}
			return err
		}
		created = fee
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emitAudit(ctx, req.SchoolID, req.ActorID, "student_fee.created", created)
	return created, nil
}

func (s *Service) GetByID(ctx context.Context, schoolID snowflake.ID, rawID string) (*studentfeedomain.StudentFee, error) {
	id, err := parseID(rawID)
	if err != nil {
		return nil, studentfeedomain.ErrInvalidFeeID
	}
	fee, err := s.repo.FindOne(ctx, &studentfeedomain.StudentFee{ID: id, SchoolID: schoolID})
	if err != nil {
		return nil, err
	}
	if fee == nil {
		return nil, studentfeedomain.ErrFeeNotFound
	}
	return fee, nil
}

func (s *Service) List(ctx context.Context, schoolID snowflake.ID, academicYear string) ([]studentfeedomain.StudentFee, error) {
	filter := &studentfeedomain.StudentFee{SchoolID: schoolID}
	if academicYear != "" {
		filter.AcademicYear = academicYear
	}
	items, err := s.repo.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	fees := make([]studentfeedomain.StudentFee, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		fees = append(fees, *item)
	}
	return fees, nil
}

func (s *Service) Waive(ctx context.Context, schoolID snowflake.ID, rawID string, actorID snowflake.ID) (*studentfeedomain.StudentFee, error) {
	id, err := parseID(rawID)
	if err != nil {
		return nil, studentfeedomain.ErrInvalidFeeID
	}

	var waived *studentfeedomain.StudentFee
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		fee, err := s.loadForUpdate(tx, schoolID, id)
		if err != nil {
			return err
		}

		fee.Status = studentfeedomain.StatusWaived
		fee.UpdatedBy = actorID
		fee.UpdatedAt = s.clock.Now()
		if err := tx.Save(fee).Error; err != nil {
			return err
		}
		waived = fee
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emitAudit(ctx, schoolID, actorID, "student_fee.waived", waived)
	return waived, nil
}

func (s *Service) RemoveBursary(ctx context.Context, schoolID snowflake.ID, rawID string, actorID snowflake.ID) (*studentfeedomain.StudentFee, error) {
	id, err := parseID(rawID)
	if err != nil {
		return nil, studentfeedomain.ErrInvalidFeeID
	}

	var updated *studentfeedomain.StudentFee
	err = db.TransactionWithRetry(ctx, s.db, func(tx *gorm.DB) error {
		fee, err := s.loadForUpdate(tx, schoolID, id)
		if err != nil {
			return err
		}
		if fee.BursaryID == nil {
			return studentfeedomain.ErrNoBursary
		}

		if err := s.bursaries.Release(ctx, tx, *fee.BursaryID); err != nil {
			return err
		}

		fee.BursaryID = nil
		fee.BursaryAmount = decimal.Zero

		due := fee.TotalBeforeDiscounts.Sub(fee.TotalDiscounts)
		if due.IsNegative() {
			due = decimal.Zero
		}
		fee.TotalAmountDue = due
		fee.RecomputeBalance()
		fee.RecomputeStatus()

		fee.UpdatedBy = actorID
		fee.UpdatedAt = s.clock.Now()
		if err := tx.Save(fee).Error; err != nil {
			return err
		}
		updated = fee
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emitAudit(ctx, schoolID, actorID, "student_fee.bursary_removed", updated)
	return updated, nil
}

func (s *Service) loadForUpdate(tx *gorm.DB, schoolID, id snowflake.ID) (*studentfeedomain.StudentFee, error) {
	var fee studentfeedomain.StudentFee
	err := db.ForUpdate(tx).Where("id = ? AND school_id = ?", id, schoolID).First(&fee).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, studentfeedomain.ErrFeeNotFound
		}
		return nil, err
	}
	return &fee, nil
}

func (s *Service) emitAudit(ctx context.Context, schoolID, actorID snowflake.ID, action string, fee *studentfeedomain.StudentFee) {
	if s.auditSvc == nil || fee == nil {
		return
	}
	targetID := fee.ID.String()
	_ = s.auditSvc.AuditLog(ctx, &schoolID, actorID, action, "student_fee", &targetID, map[string]any{
		"student_id":       fee.StudentID.String(),
		"academic_year":    fee.AcademicYear,
		"total_amount_due": fee.TotalAmountDue.String(),
		"status":           string(fee.Status),
	})
}

func computeRequest(req studentfeedomain.CreateRequest) feecalcdomain.ComputeRequest {
	return feecalcdomain.ComputeRequest{
		SchoolID:     req.SchoolID,
		StudentID:    req.StudentID,
		AcademicYear: req.AcademicYear,
		Frequency:    req.Frequency,
		BursaryID:    req.BursaryID,
		MaterialFees: req.MaterialFees,
		OtherFees:    req.OtherFees,
	}
}

func snapshotFee(comp *feecalcdomain.Computation, req studentfeedomain.CreateRequest, id snowflake.ID, now time.Time) *studentfeedomain.StudentFee {
	fee := &studentfeedomain.StudentFee{
		ID:             id,
		SchoolID:       comp.SchoolID,
		StudentID:      comp.StudentID,
		FeeStructureID: comp.FeeStructureID,
		AcademicYear:   comp.AcademicYear,

		Frequency:    comp.Frequency,
		BaseTuition:  comp.BaseTuition,
		SiblingOrder: comp.SiblingOrder,

		PaymentDiscountPercent: comp.PaymentDiscountPercent,
		PaymentDiscountAmount:  comp.PaymentDiscountAmount,
		SiblingDiscountPercent: comp.SiblingDiscountPercent,
		SiblingDiscountAmount:  comp.SiblingDiscountAmount,

		ActivityFees: comp.ActivityFees,
		MaterialFees: comp.MaterialFees,
		OtherFees:    comp.OtherFees,

		BursaryID:     comp.BursaryID,
		BursaryAmount: comp.BursaryAmount,

		TotalBeforeDiscounts: comp.TotalBeforeDiscounts,
		TotalDiscounts:       comp.TotalDiscounts,
		TotalAmountDue:       comp.TotalAmountDue,
		TotalPaid:            decimal.Zero,
		BalanceDue:           comp.BalanceDue,

		Status:  studentfeedomain.StatusPending,
		DueDate: req.DueDate,

		CreatedBy: req.ActorID,
		UpdatedBy: req.ActorID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	// A bursary can cover the whole total; a fee that owes nothing is paid
	// from the start.
	fee.RecomputeStatus()
	return fee
}

func parseID(raw string) (snowflake.ID, error) {
	return snowflake.ParseString(strings.TrimSpace(raw))
}

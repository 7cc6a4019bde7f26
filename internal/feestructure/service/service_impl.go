package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/opencampus/tuition/internal/audit/domain"
	feestructuredomain "github.com/opencampus/tuition/internal/feestructure/domain"
	"github.com/opencampus/tuition/pkg/db"
	"github.com/opencampus/tuition/pkg/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	AuditSvc auditdomain.Service `optional:"true"`
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID    *snowflake.Node
	repo     repository.Repository[feestructuredomain.FeeStructure]
	auditSvc auditdomain.Service
}

func NewService(p Params) feestructuredomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("feestructure.service"),

		genID:    p.GenID,
		repo:     repository.ProvideStore[feestructuredomain.FeeStructure](p.DB),
		auditSvc: p.AuditSvc,
	}
}

func (s *Service) Create(ctx context.Context, req feestructuredomain.CreateRequest) (*feestructuredomain.FeeStructure, error) {
	if err := validateCreate(req); err != nil {
		return nil, err
	}

	var created *feestructuredomain.FeeStructure
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&feestructuredomain.FeeStructure{}).
			Where("school_id = ? AND grade_level = ? AND academic_year = ? AND active",
				req.SchoolID, req.GradeLevel, req.AcademicYear).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return feestructuredomain.ErrDuplicateStructure
		}

		now := time.Now().UTC()
		structure := feestructuredomain.FeeStructure{
			ID:           s.genID.Generate(),
			SchoolID:     req.SchoolID,
			GradeLevel:   req.GradeLevel,
			AcademicYear: req.AcademicYear,

			YearlyAmount:    req.YearlyAmount,
			QuarterlyAmount: req.QuarterlyAmount,
			MonthlyAmount:   req.MonthlyAmount,

			YearlyDiscountPercent:    req.YearlyDiscountPercent,
			QuarterlyDiscountPercent: req.QuarterlyDiscountPercent,
			MonthlyDiscountPercent:   req.MonthlyDiscountPercent,

			Sibling2DiscountPercent:     req.Sibling2DiscountPercent,
			Sibling3DiscountPercent:     req.Sibling3DiscountPercent,
			Sibling4PlusDiscountPercent: req.Sibling4PlusDiscountPercent,

			ApplySiblingToAll: req.ApplySiblingToAll,
			Active:            true,
			CreatedBy:         req.ActorID,
			UpdatedBy:         req.ActorID,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		if err := tx.Create(&structure).Error; err != nil {
			return err
		}
		created = &structure
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emitAudit(ctx, req.SchoolID, req.ActorID, "fee_structure.created", created)
	return created, nil
}

func (s *Service) Update(ctx context.Context, req feestructuredomain.UpdateRequest) (*feestructuredomain.FeeStructure, error) {
	id, err := parseID(req.ID)
	if err != nil {
		return nil, feestructuredomain.ErrInvalidID
	}

	var updated *feestructuredomain.FeeStructure
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		structure, err := s.loadForUpdate(tx, req.SchoolID, id)
		if err != nil {
			return err
		}

		applyAmount := func(dst *decimal.Decimal, src *decimal.Decimal) error {
			if src == nil {
				return nil
			}
			if src.IsNegative() {
				return feestructuredomain.ErrInvalidAmount
			}
			*dst = *src
			return nil
		}
		applyPercent := func(dst *decimal.Decimal, src *decimal.Decimal) error {
			if src == nil {
				return nil
			}
			if !feestructuredomain.ValidPercent(*src) {
				return feestructuredomain.ErrInvalidDiscount
			}
			*dst = *src
			return nil
		}

		for _, step := range []error{
			applyAmount(&structure.YearlyAmount, req.YearlyAmount),
			applyAmount(&structure.QuarterlyAmount, req.QuarterlyAmount),
			applyAmount(&structure.MonthlyAmount, req.MonthlyAmount),
			applyPercent(&structure.YearlyDiscountPercent, req.YearlyDiscountPercent),
			applyPercent(&structure.QuarterlyDiscountPercent, req.QuarterlyDiscountPercent),
			applyPercent(&structure.MonthlyDiscountPercent, req.MonthlyDiscountPercent),
			applyPercent(&structure.Sibling2DiscountPercent, req.Sibling2DiscountPercent),
			applyPercent(&structure.Sibling3DiscountPercent, req.Sibling3DiscountPercent),
			applyPercent(&structure.Sibling4PlusDiscountPercent, req.Sibling4PlusDiscountPercent),
		} {
			if step != nil {
				return step
			}
		}
		if req.ApplySiblingToAll != nil {
			structure.ApplySiblingToAll = *req.ApplySiblingToAll
		}
		if req.Active != nil {
			structure.Active = *req.Active
		}

		structure.UpdatedBy = req.ActorID
		structure.UpdatedAt = time.Now().UTC()
		if err := tx.Save(structure).Error; err != nil {
			return err
		}
		updated = structure
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emitAudit(ctx, req.SchoolID, req.ActorID, "fee_structure.updated", updated)
	return updated, nil
}

func (s *Service) GetByID(ctx context.Context, schoolID snowflake.ID, rawID string) (*feestructuredomain.FeeStructure, error) {
	id, err := parseID(rawID)
	if err != nil {
		return nil, feestructuredomain.ErrInvalidID
	}
	structure, err := s.repo.FindOne(ctx, &feestructuredomain.FeeStructure{ID: id, SchoolID: schoolID})
	if err != nil {
		return nil, err
	}
	if structure == nil {
		return nil, feestructuredomain.ErrStructureNotFound
	}
	return structure, nil
}

func (s *Service) List(ctx context.Context, schoolID snowflake.ID, academicYear string) ([]feestructuredomain.FeeStructure, error) {
	filter := &feestructuredomain.FeeStructure{SchoolID: schoolID}
	if academicYear != "" {
		filter.AcademicYear = academicYear
	}
	items, err := s.repo.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	structures := make([]feestructuredomain.FeeStructure, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		structures = append(structures, *item)
	}
	return structures, nil
}

func (s *Service) Delete(ctx context.Context, schoolID snowflake.ID, rawID string, actorID snowflake.ID) error {
	structure, err := s.GetByID(ctx, schoolID, rawID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, structure.ID.String()); err != nil {
		return err
	}
	s.emitAudit(ctx, schoolID, actorID, "fee_structure.deleted", structure)
	return nil
}

func (s *Service) ResolveActive(ctx context.Context, schoolID snowflake.ID, gradeLevel int, academicYear string) (*feestructuredomain.FeeStructure, error) {
	structure, err := s.repo.FindOne(ctx, &feestructuredomain.FeeStructure{
		SchoolID:     schoolID,
		GradeLevel:   gradeLevel,
		AcademicYear: academicYear,
		Active:       true,
	})
	if err != nil {
		return nil, err
	}
	if structure == nil {
		return nil, feestructuredomain.ErrStructureNotFound
	}
	return structure, nil
}

func (s *Service) loadForUpdate(tx *gorm.DB, schoolID, id snowflake.ID) (*feestructuredomain.FeeStructure, error) {
	var structure feestructuredomain.FeeStructure
	err := db.ForUpdate(tx).Where("id = ? AND school_id = ?", id, schoolID).First(&structure).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, feestructuredomain.ErrStructureNotFound
		}
		return nil, err
	}
	return &structure, nil
}

func (s *Service) emitAudit(ctx context.Context, schoolID, actorID snowflake.ID, action string, structure *feestructuredomain.FeeStructure) {
	if s.auditSvc == nil || structure == nil {
		return
	}
	targetID := structure.ID.String()
	_ = s.auditSvc.AuditLog(ctx, &schoolID, actorID, action, "fee_structure", &targetID, map[string]any{
		"grade_level":   structure.GradeLevel,
		"academic_year": structure.AcademicYear,
		"yearly_amount": structure.YearlyAmount.String(),
		"active":        structure.Active,
	})
}

func validateCreate(req feestructuredomain.CreateRequest) error {
	if !feestructuredomain.ValidGradeLevel(req.GradeLevel) {
		return feestructuredomain.ErrInvalidGradeLevel
	}
	if !feestructuredomain.ValidAcademicYear(req.AcademicYear) {
		return feestructuredomain.ErrInvalidYear
	}
	for _, amount := range []decimal.Decimal{req.YearlyAmount, req.QuarterlyAmount, req.MonthlyAmount} {
		if amount.IsNegative() {
			return feestructuredomain.ErrInvalidAmount
		}
	}
	for _, percent := range []decimal.Decimal{
		req.YearlyDiscountPercent, req.QuarterlyDiscountPercent, req.MonthlyDiscountPercent,
		req.Sibling2DiscountPercent, req.Sibling3DiscountPercent, req.Sibling4PlusDiscountPercent,
	} {
		if !feestructuredomain.ValidPercent(percent) {
			return feestructuredomain.ErrInvalidDiscount
		}
	}
	return nil
}

func parseID(raw string) (snowflake.ID, error) {
	return snowflake.ParseString(strings.TrimSpace(raw))
}

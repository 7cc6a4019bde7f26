package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/opencampus/tuition/internal/audit/domain"
	bursarydomain "github.com/opencampus/tuition/internal/bursary/domain"
	"github.com/opencampus/tuition/pkg/db"
	"github.com/opencampus/tuition/pkg/db/option"
	"github.com/opencampus/tuition/pkg/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
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
	repo     repository.Repository[bursarydomain.Bursary]
	auditSvc auditdomain.Service
}

func NewService(p Params) bursarydomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("bursary.service"),

		genID:    p.GenID,
		repo:     repository.ProvideStore[bursarydomain.Bursary](p.DB),
		auditSvc: p.AuditSvc,
	}
}

func (s *Service) Create(ctx context.Context, req bursarydomain.CreateRequest) (*bursarydomain.Bursary, error) {
	if err := validateCreate(req); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	bursary := bursarydomain.Bursary{
		ID:       s.genID.Generate(),
		SchoolID: req.SchoolID,
		Name:     strings.TrimSpace(req.Name),

		CoverageType:      req.CoverageType,
		CoverageValue:     req.CoverageValue,
		MaxCoverageAmount: req.MaxCoverageAmount,

		EligibleGrades:      datatypes.JSONSlice[int](req.EligibleGrades),
		MaxRecipients:       req.MaxRecipients,
		ApplicationDeadline: req.ApplicationDeadline,

		Active:    true,
		CreatedBy: req.ActorID,
		UpdatedBy: req.ActorID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, &bursary); err != nil {
		return nil, err
	}

	s.emitAudit(ctx, req.SchoolID, req.ActorID, "bursary.created", &bursary, nil)
	return &bursary, nil
}

func (s *Service) GetByID(ctx context.Context, schoolID snowflake.ID, rawID string) (*bursarydomain.Bursary, error) {
	id, err := parseID(rawID)
	if err != nil {
		return nil, bursarydomain.ErrInvalidID
	}
	bursary, err := s.repo.FindOne(ctx, &bursarydomain.Bursary{ID: id, SchoolID: schoolID})
	if err != nil {
		return nil, err
	}
	if bursary == nil {
		return nil, bursarydomain.ErrBursaryNotFound
	}
	return bursary, nil
}

func (s *Service) List(ctx context.Context, schoolID snowflake.ID) ([]bursarydomain.Bursary, error) {
	items, err := s.repo.Find(ctx, &bursarydomain.Bursary{SchoolID: schoolID},
		option.WithSortBy(option.QuerySortBy{
			Allow: map[string]bool{"name": true},
			Field: "name",
			Order: "asc",
		}))
	if err != nil {
		return nil, err
	}
	bursaries := make([]bursarydomain.Bursary, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		bursaries = append(bursaries, *item)
	}
	return bursaries, nil
}

func (s *Service) Delete(ctx context.Context, schoolID snowflake.ID, rawID string, actorID snowflake.ID) error {
	bursary, err := s.GetByID(ctx, schoolID, rawID)
	if err != nil {
		return err
	}
	if bursary.CurrentRecipients > 0 {
		return bursarydomain.ErrHasRecipients
	}
	if err := s.repo.Delete(ctx, bursary.ID.String()); err != nil {
		return err
	}
	s.emitAudit(ctx, schoolID, actorID, "bursary.deleted", bursary, nil)
	return nil
}

func (s *Service) CheckEligibility(bursary *bursarydomain.Bursary, grade int, today time.Time) error {
	if bursary == nil {
		return bursarydomain.ErrBursaryNotFound
	}

	var reasons []string
	if !bursary.Active {
		reasons = append(reasons, bursarydomain.ReasonInactive)
	}
	if !bursary.HasCapacity() {
		reasons = append(reasons, bursarydomain.ReasonCapacityExhausted)
	}
	if bursary.IsDeadlinePassed(today) {
		reasons = append(reasons, bursarydomain.ReasonDeadlinePassed)
	}
	if !bursary.GradeEligible(grade) {
		reasons = append(reasons, bursarydomain.ReasonGradeNotEligible)
	}
	if len(reasons) > 0 {
		return &bursarydomain.EligibilityError{Reasons: reasons}
	}
	return nil
}

func (s *Service) Reserve(ctx context.Context, tx *gorm.DB, bursaryID snowflake.ID, grade int, today time.Time) (*bursarydomain.Bursary, error) {
	var bursary bursarydomain.Bursary
	err := db.ForUpdate(tx.WithContext(ctx)).
		Where("id = ?", bursaryID).
		First(&bursary).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, bursarydomain.ErrBursaryNotFound
		}
		return nil, err
	}

	if err := s.CheckEligibility(&bursary, grade, today); err != nil {
		return nil, err
	}

	// Guarded increment: the WHERE clause re-checks capacity so two
	// transactions can never both claim the last slot.
	result := tx.WithContext(ctx).
		Model(&bursarydomain.Bursary{}).
		Where("id = ? AND (max_recipients IS NULL OR current_recipients < max_recipients)", bursaryID).
		UpdateColumn("current_recipients", gorm.Expr("current_recipients + 1"))
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, bursarydomain.ErrCapacityExhausted
	}

	bursary.CurrentRecipients++
	return &bursary, nil
}

func (s *Service) Release(ctx context.Context, tx *gorm.DB, bursaryID snowflake.ID) error {
	result := tx.WithContext(ctx).
		Model(&bursarydomain.Bursary{}).
		Where("id = ? AND current_recipients > 0", bursaryID).
		UpdateColumn("current_recipients", gorm.Expr("current_recipients - 1"))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		s.log.Warn("release on bursary with zero recipients", zap.Int64("bursary_id", int64(bursaryID)))
	}
	return nil
}

func (s *Service) emitAudit(ctx context.Context, schoolID, actorID snowflake.ID, action string, bursary *bursarydomain.Bursary, extra map[string]any) {
	if s.auditSvc == nil || bursary == nil {
		return
	}
	metadata := map[string]any{
		"name":               bursary.Name,
		"coverage_type":      string(bursary.CoverageType),
		"coverage_value":     bursary.CoverageValue.String(),
		"current_recipients": bursary.CurrentRecipients,
	}
	for key, value := range extra {
		metadata[key] = value
	}
	targetID := bursary.ID.String()
	_ = s.auditSvc.AuditLog(ctx, &schoolID, actorID, action, "bursary", &targetID, metadata)
}

func validateCreate(req bursarydomain.CreateRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return bursarydomain.ErrInvalidName
	}
	if !req.CoverageType.Valid() {
		return bursarydomain.ErrInvalidCoverage
	}
	if !req.CoverageValue.IsPositive() {
		return bursarydomain.ErrInvalidCoverage
	}
	if req.CoverageType == bursarydomain.CoveragePercentage && req.CoverageValue.GreaterThan(decimalHundred) {
		return bursarydomain.ErrInvalidCoverage
	}
	if req.MaxCoverageAmount != nil && !req.MaxCoverageAmount.IsPositive() {
		return bursarydomain.ErrInvalidCoverage
	}
	if req.MaxRecipients != nil && *req.MaxRecipients <= 0 {
		return bursarydomain.ErrInvalidCapacity
	}
	for _, grade := range req.EligibleGrades {
		if grade < 1 || grade > 7 {
			return bursarydomain.ErrInvalidGrades
		}
	}
	return nil
}

var decimalHundred = decimal.NewFromInt(100)

func parseID(raw string) (snowflake.ID, error) {
	return snowflake.ParseString(strings.TrimSpace(raw))
}

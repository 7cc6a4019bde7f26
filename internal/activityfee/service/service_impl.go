package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	activityfeedomain "github.com/opencampus/tuition/internal/activityfee/domain"
	auditdomain "github.com/opencampus/tuition/internal/audit/domain"
	feestructuredomain "github.com/opencampus/tuition/internal/feestructure/domain"
	"github.com/opencampus/tuition/pkg/repository"
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
	repo     repository.Repository[activityfeedomain.ActivityFee]
	auditSvc auditdomain.Service
}

func NewService(p Params) activityfeedomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("activityfee.service"),

		genID:    p.GenID,
		repo:     repository.ProvideStore[activityfeedomain.ActivityFee](p.DB),
		auditSvc: p.AuditSvc,
	}
}

func (s *Service) Create(ctx context.Context, req activityfeedomain.CreateRequest) (*activityfeedomain.ActivityFee, error) {
	if err := validateCreate(req); err != nil {
		return nil, err
	}

	var created *activityfeedomain.ActivityFee
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&activityfeedomain.ActivityFee{}).
			Where("school_id = ? AND activity_id = ? AND academic_year = ?",
				req.SchoolID, req.ActivityID, req.AcademicYear).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return activityfeedomain.ErrDuplicateActivityFee
		}

		now := time.Now().UTC()
		fee := activityfeedomain.ActivityFee{
			ID:           s.genID.Generate(),
			SchoolID:     req.SchoolID,
			ActivityID:   req.ActivityID,
			AcademicYear: req.AcademicYear,
			Name:         req.Name,

			FeeAmount:    req.FeeAmount,
			Frequency:    req.Frequency,
			AllowProrate: req.AllowProrate,

			Active:    true,
			CreatedBy: req.ActorID,
			UpdatedBy: req.ActorID,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := tx.Create(&fee).Error; err != nil {
			return err
		}
		created = &fee
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emitAudit(ctx, created.SchoolID, req.ActorID, "activity_fee.created", created)
	return created, nil
}

func (s *Service) Update(ctx context.Context, rawID string, req activityfeedomain.UpdateRequest) (*activityfeedomain.ActivityFee, error) {
	id, err := parseID(rawID)
	if err != nil {
		return nil, activityfeedomain.ErrInvalidActivityFeeID
	}

	var updated *activityfeedomain.ActivityFee
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var fee activityfeedomain.ActivityFee
		if err := tx.Where("id = ?", id).First(&fee).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return activityfeedomain.ErrActivityFeeNotFound
			}
			return err
		}

		if req.Name != nil {
			if strings.TrimSpace(*req.Name) == "" {
				return activityfeedomain.ErrInvalidName
			}
			fee.Name = *req.Name
		}
		if req.FeeAmount != nil {
			if req.FeeAmount.IsNegative() {
				return activityfeedomain.ErrInvalidAmount
			}
			fee.FeeAmount = *req.FeeAmount
		}
		if req.Frequency != nil {
			if !req.Frequency.Valid() {
				return activityfeedomain.ErrInvalidFrequency
			}
			fee.Frequency = *req.Frequency
		}
		if req.AllowProrate != nil {
			fee.AllowProrate = *req.AllowProrate
		}
		if req.Active != nil {
			fee.Active = *req.Active
		}

		fee.UpdatedBy = req.ActorID
		fee.UpdatedAt = time.Now().UTC()
		if err := tx.Save(&fee).Error; err != nil {
			return err
		}
		updated = &fee
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emitAudit(ctx, updated.SchoolID, req.ActorID, "activity_fee.updated", updated)
	return updated, nil
}

func (s *Service) GetByID(ctx context.Context, rawID string) (*activityfeedomain.ActivityFee, error) {
	id, err := parseID(rawID)
	if err != nil {
		return nil, activityfeedomain.ErrInvalidActivityFeeID
	}
	fee, err := s.repo.FindOne(ctx, &activityfeedomain.ActivityFee{ID: id})
	if err != nil {
		return nil, err
	}
	if fee == nil {
		return nil, activityfeedomain.ErrActivityFeeNotFound
	}
	return fee, nil
}

func (s *Service) List(ctx context.Context, filter activityfeedomain.ListFilter) ([]activityfeedomain.ActivityFee, error) {
	query := s.db.WithContext(ctx).
		Model(&activityfeedomain.ActivityFee{}).
		Where("school_id = ?", filter.SchoolID)
	if filter.AcademicYear != "" {
		query = query.Where("academic_year = ?", filter.AcademicYear)
	}
	if filter.ActivityID != nil {
		query = query.Where("activity_id = ?", *filter.ActivityID)
	}
	if filter.ActiveOnly {
		query = query.Where("active")
	}

	var fees []activityfeedomain.ActivityFee
	if err := query.Order("academic_year desc, name asc").Find(&fees).Error; err != nil {
		return nil, err
	}
	return fees, nil
}

func (s *Service) Delete(ctx context.Context, rawID string, actorID snowflake.ID) error {
	fee, err := s.GetByID(ctx, rawID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, fee.ID.String()); err != nil {
		return err
	}
	s.emitAudit(ctx, fee.SchoolID, actorID, "activity_fee.deleted", fee)
	return nil
}

func (s *Service) ResolveForActivities(ctx context.Context, schoolID snowflake.ID, academicYear string, activityIDs []snowflake.ID) ([]activityfeedomain.ActivityFee, error) {
	if len(activityIDs) == 0 {
		return nil, nil
	}
	var fees []activityfeedomain.ActivityFee
	err := s.db.WithContext(ctx).
		Where("school_id = ? AND academic_year = ? AND active AND activity_id IN ?",
			schoolID, academicYear, activityIDs).
		Find(&fees).Error
	if err != nil {
		return nil, err
	}
	return fees, nil
}

func (s *Service) emitAudit(ctx context.Context, schoolID, actorID snowflake.ID, action string, fee *activityfeedomain.ActivityFee) {
	if s.auditSvc == nil || fee == nil {
		return
	}
	targetID := fee.ID.String()
	_ = s.auditSvc.AuditLog(ctx, &schoolID, actorID, action, "activity_fee", &targetID, map[string]any{
		"activity_id":   fee.ActivityID.String(),
		"academic_year": fee.AcademicYear,
		"fee_amount":    fee.FeeAmount.String(),
		"frequency":     string(fee.Frequency),
	})
}

func validateCreate(req activityfeedomain.CreateRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return activityfeedomain.ErrInvalidName
	}
	if !feestructuredomain.ValidAcademicYear(req.AcademicYear) {
		return feestructuredomain.ErrInvalidYear
	}
	if req.FeeAmount.IsNegative() {
		return activityfeedomain.ErrInvalidAmount
	}
	if !req.Frequency.Valid() {
		return activityfeedomain.ErrInvalidFrequency
	}
	return nil
}

func parseID(raw string) (snowflake.ID, error) {
	return snowflake.ParseString(strings.TrimSpace(raw))
}

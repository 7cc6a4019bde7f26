package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	statisticsdomain "github.com/opencampus/tuition/internal/statistics/domain"
	studentfeedomain "github.com/opencampus/tuition/internal/studentfee/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var decimalHundred = decimal.NewFromInt(100)

type Params struct {
	fx.In

	DB  *gorm.DB
	Log *zap.Logger
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewService(p Params) statisticsdomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("statistics.service"),
	}
}

type totalsRow struct {
	TotalBilled      decimal.Decimal
	TotalCollected   decimal.Decimal
	TotalOutstanding decimal.Decimal
	BursaryCoverage  decimal.Decimal
	FeeCount         int64
}

type statusRow struct {
	Status studentfeedomain.FeeStatus
	Count  int64
}

func (s *Service) Collect(ctx context.Context, schoolID snowflake.ID, academicYear string) (*statisticsdomain.Statistics, error) {
	base := func() *gorm.DB {
		q := s.db.WithContext(ctx).
			Model(&studentfeedomain.StudentFee{}).
			Where("school_id = ?", schoolID)
		if academicYear != "" {
			q = q.Where("academic_year = ?", academicYear)
		}
		return q
	}

	var totals totalsRow
	err := base().
		Select(`COALESCE(SUM(total_amount_due), 0) AS total_billed,
			COALESCE(SUM(total_paid), 0) AS total_collected,
			COALESCE(SUM(balance_due), 0) AS total_outstanding,
			COALESCE(SUM(bursary_amount), 0) AS bursary_coverage,
			COUNT(*) AS fee_count`).
		Scan(&totals).Error
	if err != nil {
		return nil, err
	}

	var rows []statusRow
	err = base().
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[studentfeedomain.FeeStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}

	rate := decimal.Zero
	if totals.TotalBilled.IsPositive() {
		rate = totals.TotalCollected.Div(totals.TotalBilled).Mul(decimalHundred).Round(2)
	}

	return &statisticsdomain.Statistics{
		SchoolID:     schoolID,
		AcademicYear: academicYear,

		TotalBilled:      totals.TotalBilled,
		TotalCollected:   totals.TotalCollected,
		TotalOutstanding: totals.TotalOutstanding,
		BursaryCoverage:  totals.BursaryCoverage,
		CollectionRate:   rate,

		FeeCount:       totals.FeeCount,
		CountsByStatus: counts,
	}, nil
}

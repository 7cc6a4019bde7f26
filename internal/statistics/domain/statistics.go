// Package domain defines the read-only fee collection rollups.
package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	studentfeedomain "github.com/opencampus/tuition/internal/studentfee/domain"
	"github.com/shopspring/decimal"
)

// Statistics is a point-in-time rollup over one school's fee ledger,
// optionally narrowed to a single academic year.
type Statistics struct {
	SchoolID     snowflake.ID
	AcademicYear string

	TotalBilled      decimal.Decimal
	TotalCollected   decimal.Decimal
	TotalOutstanding decimal.Decimal
	BursaryCoverage  decimal.Decimal

	// CollectionRate is collected over billed as a percentage, 2dp,
	// zero when nothing has been billed.
	CollectionRate decimal.Decimal

	FeeCount       int64
	CountsByStatus map[studentfeedomain.FeeStatus]int64
}

type Service interface {
	Collect(ctx context.Context, schoolID snowflake.ID, academicYear string) (*Statistics, error)
}

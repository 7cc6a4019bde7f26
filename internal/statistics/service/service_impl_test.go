package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	statisticsdomain "github.com/opencampus/tuition/internal/statistics/domain"
	studentfeedomain "github.com/opencampus/tuition/internal/studentfee/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupStatsTest(t *testing.T) (*gorm.DB, statisticsdomain.Service, *snowflake.Node) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&studentfeedomain.StudentFee{}))

	node, err := snowflake.NewNode(4)
	require.NoError(t, err)

	svc := NewService(Params{DB: db, Log: zap.NewNop()})
	return db, svc, node
}

func seedStatsFee(t *testing.T, db *gorm.DB, node *snowflake.Node, schoolID snowflake.ID, year string, due, paid, bursary int64, status studentfeedomain.FeeStatus) {
	dueDec := decimal.NewFromInt(due)
	paidDec := decimal.NewFromInt(paid)
	balance := dueDec.Sub(paidDec)
	if balance.IsNegative() {
		balance = decimal.Zero
	}
	var bursaryID *snowflake.ID
	if bursary > 0 {
		id := node.Generate()
		bursaryID = &id
	}
	require.NoError(t, db.Create(&studentfeedomain.StudentFee{
		ID:             node.Generate(),
		SchoolID:       schoolID,
		StudentID:      node.Generate(),
		FeeStructureID: node.Generate(),
		AcademicYear:   year,
		Frequency:      "yearly",

		BaseTuition:          dueDec,
		TotalBeforeDiscounts: dueDec,
		TotalDiscounts:       decimal.Zero,
		BursaryID:            bursaryID,
		BursaryAmount:        decimal.NewFromInt(bursary),
		TotalAmountDue:       dueDec,
		TotalPaid:            paidDec,
		BalanceDue:           balance,

		Status:  status,
		DueDate: time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC),

		CreatedBy: node.Generate(),
		UpdatedBy: node.Generate(),
	}).Error)
}

func TestCollectStatistics(t *testing.T) {
	db, svc, node := setupStatsTest(t)
	schoolID := node.Generate()

	seedStatsFee(t, db, node, schoolID, "2025-2026", 1000, 1000, 0, studentfeedomain.StatusPaid)
	seedStatsFee(t, db, node, schoolID, "2025-2026", 800, 300, 200, studentfeedomain.StatusPartial)
	seedStatsFee(t, db, node, schoolID, "2025-2026", 600, 0, 0, studentfeedomain.StatusOverdue)
	seedStatsFee(t, db, node, schoolID, "2024-2025", 500, 500, 0, studentfeedomain.StatusPaid)

	// Another school's rows never leak into the rollup.
	seedStatsFee(t, db, node, node.Generate(), "2025-2026", 9999, 0, 0, studentfeedomain.StatusPending)

	stats, err := svc.Collect(context.Background(), schoolID, "2025-2026")
	require.NoError(t, err)

	assert.Equal(t, "2400.00", stats.TotalBilled.StringFixed(2))
	assert.Equal(t, "1300.00", stats.TotalCollected.StringFixed(2))
	assert.Equal(t, "1100.00", stats.TotalOutstanding.StringFixed(2))
	assert.Equal(t, "200.00", stats.BursaryCoverage.StringFixed(2))
	// 1300 / 2400 = 54.1666..., rounds to 54.17.
	assert.Equal(t, "54.17", stats.CollectionRate.StringFixed(2))
	assert.EqualValues(t, 3, stats.FeeCount)
	assert.EqualValues(t, 1, stats.CountsByStatus[studentfeedomain.StatusPaid])
	assert.EqualValues(t, 1, stats.CountsByStatus[studentfeedomain.StatusPartial])
	assert.EqualValues(t, 1, stats.CountsByStatus[studentfeedomain.StatusOverdue])
}

func TestCollectStatisticsAllYears(t *testing.T) {
	db, svc, node := setupStatsTest(t)
	schoolID := node.Generate()

	seedStatsFee(t, db, node, schoolID, "2024-2025", 500, 500, 0, studentfeedomain.StatusPaid)
	seedStatsFee(t, db, node, schoolID, "2025-2026", 1000, 0, 0, studentfeedomain.StatusPending)

	stats, err := svc.Collect(context.Background(), schoolID, "")
	require.NoError(t, err)
	assert.Equal(t, "1500.00", stats.TotalBilled.StringFixed(2))
	assert.EqualValues(t, 2, stats.FeeCount)
}

func TestCollectStatisticsEmptySchool(t *testing.T) {
	_, svc, node := setupStatsTest(t)

	stats, err := svc.Collect(context.Background(), node.Generate(), "2025-2026")
	require.NoError(t, err)
	assert.Equal(t, "0.00", stats.TotalBilled.StringFixed(2))
	assert.Equal(t, "0.00", stats.CollectionRate.StringFixed(2))
	assert.Zero(t, stats.FeeCount)
	assert.Empty(t, stats.CountsByStatus)
}

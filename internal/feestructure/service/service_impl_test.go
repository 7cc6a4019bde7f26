package service

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	feestructuredomain "github.com/opencampus/tuition/internal/feestructure/domain"
	"github.com/opencampus/tuition/pkg/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupStructureTest(t *testing.T) (*gorm.DB, *Service, *snowflake.Node) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&feestructuredomain.FeeStructure{}))

	node, err := snowflake.NewNode(6)
	require.NoError(t, err)

	svc := &Service{
		db:    db,
		log:   zap.NewNop(),
		genID: node,
		repo:  repository.ProvideStore[feestructuredomain.FeeStructure](db),
	}
	return db, svc, node
}

func validCreate(node *snowflake.Node) feestructuredomain.CreateRequest {
	return feestructuredomain.CreateRequest{
		SchoolID:     node.Generate(),
		ActorID:      node.Generate(),
		GradeLevel:   3,
		AcademicYear: "2025-2026",

		YearlyAmount:    decimal.NewFromInt(1000),
		QuarterlyAmount: decimal.NewFromInt(270),
		MonthlyAmount:   decimal.NewFromInt(95),

		YearlyDiscountPercent: decimal.NewFromInt(10),
	}
}

func TestStructureCreateAndResolve(t *testing.T) {
	_, svc, node := setupStructureTest(t)
	ctx := context.Background()

	req := validCreate(node)
	created, err := svc.Create(ctx, req)
	require.NoError(t, err)
	assert.True(t, created.Active)

	resolved, err := svc.ResolveActive(ctx, req.SchoolID, 3, "2025-2026")
	require.NoError(t, err)
	assert.Equal(t, created.ID, resolved.ID)

	_, err = svc.ResolveActive(ctx, req.SchoolID, 4, "2025-2026")
	assert.ErrorIs(t, err, feestructuredomain.ErrStructureNotFound)
}

func TestStructureDuplicateActiveRejected(t *testing.T) {
	_, svc, node := setupStructureTest(t)
	ctx := context.Background()

	req := validCreate(node)
	_, err := svc.Create(ctx, req)
	require.NoError(t, err)

	_, err = svc.Create(ctx, req)
	assert.ErrorIs(t, err, feestructuredomain.ErrDuplicateStructure)

	// A different grade in the same year is fine.
	other := req
	other.GradeLevel = 4
	_, err = svc.Create(ctx, other)
	require.NoError(t, err)
}

func TestStructureDeactivateThenRecreate(t *testing.T) {
	_, svc, node := setupStructureTest(t)
	ctx := context.Background()

	req := validCreate(node)
	created, err := svc.Create(ctx, req)
	require.NoError(t, err)

	inactive := false
	_, err = svc.Update(ctx, feestructuredomain.UpdateRequest{
		ID:       created.ID.String(),
		SchoolID: req.SchoolID,
		ActorID:  req.ActorID,
		Active:   &inactive,
	})
	require.NoError(t, err)

	// Only active rows block a new structure for the same slot.
	_, err = svc.Create(ctx, req)
	require.NoError(t, err)

	_, err = svc.ResolveActive(ctx, req.SchoolID, 3, "2025-2026")
	require.NoError(t, err)
}

func TestStructureCreateValidation(t *testing.T) {
	_, svc, node := setupStructureTest(t)
	ctx := context.Background()

	req := validCreate(node)
	req.GradeLevel = 9
	_, err := svc.Create(ctx, req)
	assert.ErrorIs(t, err, feestructuredomain.ErrInvalidGradeLevel)

	req = validCreate(node)
	req.AcademicYear = "2025-2028"
	_, err = svc.Create(ctx, req)
	assert.ErrorIs(t, err, feestructuredomain.ErrInvalidYear)

	req = validCreate(node)
	req.MonthlyAmount = decimal.NewFromInt(-10)
	_, err = svc.Create(ctx, req)
	assert.ErrorIs(t, err, feestructuredomain.ErrInvalidAmount)

	req = validCreate(node)
	req.Sibling2DiscountPercent = decimal.NewFromInt(120)
	_, err = svc.Create(ctx, req)
	assert.ErrorIs(t, err, feestructuredomain.ErrInvalidDiscount)
}

func TestStructurePartialUpdate(t *testing.T) {
	_, svc, node := setupStructureTest(t)
	ctx := context.Background()

	req := validCreate(node)
	created, err := svc.Create(ctx, req)
	require.NoError(t, err)

	newYearly := decimal.NewFromInt(1100)
	badPercent := decimal.NewFromInt(101)

	_, err = svc.Update(ctx, feestructuredomain.UpdateRequest{
		ID:                    created.ID.String(),
		SchoolID:              req.SchoolID,
		ActorID:               req.ActorID,
		YearlyDiscountPercent: &badPercent,
	})
	assert.ErrorIs(t, err, feestructuredomain.ErrInvalidDiscount)

	updater := node.Generate()
	updated, err := svc.Update(ctx, feestructuredomain.UpdateRequest{
		ID:           created.ID.String(),
		SchoolID:     req.SchoolID,
		ActorID:      updater,
		YearlyAmount: &newYearly,
	})
	require.NoError(t, err)

	assert.Equal(t, "1100", updated.YearlyAmount.String())
	// Untouched fields survive a partial update.
	assert.Equal(t, "270", updated.QuarterlyAmount.String())
	assert.Equal(t, "10", updated.YearlyDiscountPercent.String())
	assert.Equal(t, updater, updated.UpdatedBy)
}

func TestStructureDeleteHidesRow(t *testing.T) {
	_, svc, node := setupStructureTest(t)
	ctx := context.Background()

	req := validCreate(node)
	created, err := svc.Create(ctx, req)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, req.SchoolID, created.ID.String(), req.ActorID))

	_, err = svc.GetByID(ctx, req.SchoolID, created.ID.String())
	assert.ErrorIs(t, err, feestructuredomain.ErrStructureNotFound)
	_, err = svc.ResolveActive(ctx, req.SchoolID, 3, "2025-2026")
	assert.ErrorIs(t, err, feestructuredomain.ErrStructureNotFound)
}

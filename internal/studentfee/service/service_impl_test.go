package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	activityfeedomain "github.com/opencampus/tuition/internal/activityfee/domain"
	activityfeeservice "github.com/opencampus/tuition/internal/activityfee/service"
	bursarydomain "github.com/opencampus/tuition/internal/bursary/domain"
	bursaryservice "github.com/opencampus/tuition/internal/bursary/service"
	"github.com/opencampus/tuition/internal/clock"
	directorydomain "github.com/opencampus/tuition/internal/directory/domain"
	directoryservice "github.com/opencampus/tuition/internal/directory/service"
	feecalcservice "github.com/opencampus/tuition/internal/feecalc/service"
	feestructuredomain "github.com/opencampus/tuition/internal/feestructure/domain"
	feestructureservice "github.com/opencampus/tuition/internal/feestructure/service"
	studentfeedomain "github.com/opencampus/tuition/internal/studentfee/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type feeFixture struct {
	db    *gorm.DB
	node  *snowflake.Node
	clock *clock.FakeClock
	svc   studentfeedomain.Service

	bursaries bursarydomain.Service

	schoolID snowflake.ID
	actorID  snowflake.ID
	dueDate  time.Time
}

func setupStudentFeeTest(t *testing.T) *feeFixture {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&feestructuredomain.FeeStructure{},
		&bursarydomain.Bursary{},
		&activityfeedomain.ActivityFee{},
		&directorydomain.Student{},
		&directorydomain.ActivityEnrollment{},
		&studentfeedomain.StudentFee{},
	))

	node, err := snowflake.NewNode(2)
	require.NoError(t, err)

	log := zap.NewNop()
	fake := clock.NewFakeClock(time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC))

	structures := feestructureservice.NewService(feestructureservice.Params{DB: db, Log: log, GenID: node})
	bursaries := bursaryservice.NewService(bursaryservice.Params{DB: db, Log: log, GenID: node})
	activities := activityfeeservice.NewService(activityfeeservice.Params{DB: db, Log: log, GenID: node})
	directory := directoryservice.NewService(directoryservice.Params{DB: db, Log: log})

	calc := feecalcservice.NewService(feecalcservice.Params{
		Log:         log,
		Clock:       fake,
		Structures:  structures,
		Bursaries:   bursaries,
		ActivityFee: activities,
		Students:    directory,
		Enrollments: directory,
	})

	svc := NewService(Params{
		DB:        db,
		Log:       log,
		GenID:     node,
		Clock:     fake,
		Calc:      calc,
		Bursaries: bursaries,
	})

	f := &feeFixture{
		db:    db,
		node:  node,
		clock: fake,
		svc:   svc,

		bursaries: bursaries,

		schoolID: node.Generate(),
		actorID:  node.Generate(),
		dueDate:  time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC),
	}

	_, err = structures.Create(context.Background(), feestructuredomain.CreateRequest{
		SchoolID:              f.schoolID,
		ActorID:               f.actorID,
		GradeLevel:            3,
		AcademicYear:          "2025-2026",
		YearlyAmount:          decimal.NewFromInt(1000),
		YearlyDiscountPercent: decimal.NewFromInt(10),
	})
	require.NoError(t, err)

	return f
}

func (f *feeFixture) seedStudent(t *testing.T) *directorydomain.Student {
	student := &directorydomain.Student{
		ID:             f.node.Generate(),
		SchoolID:       f.schoolID,
		GradeLevel:     3,
		EnrollmentDate: time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC),
		Status:         directorydomain.EnrollmentStatusEnrolled,
	}
	require.NoError(t, f.db.Create(student).Error)
	return student
}

func (f *feeFixture) createRequest(studentID snowflake.ID) studentfeedomain.CreateRequest {
	return studentfeedomain.CreateRequest{
		SchoolID:     f.schoolID,
		StudentID:    studentID,
		AcademicYear: "2025-2026",
		Frequency:    feestructuredomain.FrequencyYearly,
		DueDate:      f.dueDate,
		ActorID:      f.actorID,
	}
}

func TestCreateStudentFee(t *testing.T) {
	f := setupStudentFeeTest(t)
	ctx := context.Background()
	student := f.seedStudent(t)

	fee, err := f.svc.Create(ctx, f.createRequest(student.ID))
	require.NoError(t, err)

	assert.Equal(t, studentfeedomain.StatusPending, fee.Status)
	assert.Equal(t, "900.00", fee.TotalAmountDue.StringFixed(2))
	assert.Equal(t, "900.00", fee.BalanceDue.StringFixed(2))
	assert.Equal(t, "0.00", fee.TotalPaid.StringFixed(2))
	assert.Equal(t, f.actorID, fee.CreatedBy)

	// One live fee per student and year.
	_, err = f.svc.Create(ctx, f.createRequest(student.ID))
	assert.ErrorIs(t, err, studentfeedomain.ErrFeeExists)
}

func TestPreviewDoesNotPersist(t *testing.T) {
	f := setupStudentFeeTest(t)
	ctx := context.Background()
	student := f.seedStudent(t)

	one := 1
	bursary, err := f.bursaries.Create(ctx, bursarydomain.CreateRequest{
		SchoolID:      f.schoolID,
		ActorID:       f.actorID,
		Name:          "Single Slot",
		CoverageType:  bursarydomain.CoveragePercentage,
		CoverageValue: decimal.NewFromInt(20),
		MaxRecipients: &one,
	})
	require.NoError(t, err)

	req := f.createRequest(student.ID)
	req.BursaryID = &bursary.ID

	comp, err := f.svc.Preview(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "180.00", comp.BursaryAmount.StringFixed(2))

	// Preview must leave no fee row and no reserved slot behind.
	var feeCount int64
	require.NoError(t, f.db.Model(&studentfeedomain.StudentFee{}).Count(&feeCount).Error)
	assert.Zero(t, feeCount)

	reloaded, err := f.bursaries.GetByID(ctx, f.schoolID, bursary.ID.String())
	require.NoError(t, err)
	assert.Zero(t, reloaded.CurrentRecipients)
}

func TestCreateWithBursaryReservesSlot(t *testing.T) {
	f := setupStudentFeeTest(t)
	ctx := context.Background()
	student := f.seedStudent(t)

	two := 2
	bursary, err := f.bursaries.Create(ctx, bursarydomain.CreateRequest{
		SchoolID:      f.schoolID,
		ActorID:       f.actorID,
		Name:          "Community Fund",
		CoverageType:  bursarydomain.CoverageFixedAmount,
		CoverageValue: decimal.NewFromInt(200),
		MaxRecipients: &two,
	})
	require.NoError(t, err)

	req := f.createRequest(student.ID)
	req.BursaryID = &bursary.ID

	fee, err := f.svc.Create(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "200.00", fee.BursaryAmount.StringFixed(2))
	assert.Equal(t, "700.00", fee.TotalAmountDue.StringFixed(2))

	reloaded, err := f.bursaries.GetByID(ctx, f.schoolID, bursary.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 1, reloaded.CurrentRecipients)
}

func TestCreateFullyCoveredFeeStartsPaid(t *testing.T) {
	f := setupStudentFeeTest(t)
	ctx := context.Background()
	student := f.seedStudent(t)

	bursary, err := f.bursaries.Create(ctx, bursarydomain.CreateRequest{
		SchoolID:      f.schoolID,
		ActorID:       f.actorID,
		Name:          "Full Ride Fund",
		CoverageType:  bursarydomain.CoverageFixedAmount,
		CoverageValue: decimal.NewFromInt(9999),
	})
	require.NoError(t, err)

	req := f.createRequest(student.ID)
	req.BursaryID = &bursary.ID

	fee, err := f.svc.Create(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "0.00", fee.TotalAmountDue.StringFixed(2))
	assert.Equal(t, "0.00", fee.BalanceDue.StringFixed(2))
	assert.Equal(t, studentfeedomain.StatusPaid, fee.Status)

	reloaded, err := f.svc.GetByID(ctx, f.schoolID, fee.ID.String())
	require.NoError(t, err)
	assert.Equal(t, studentfeedomain.StatusPaid, reloaded.Status)
}

func TestCreateBursaryCapacityRace(t *testing.T) {
	f := setupStudentFeeTest(t)
	ctx := context.Background()

	const slots = 2
	const attempts = 6

	k := slots
	bursary, err := f.bursaries.Create(ctx, bursarydomain.CreateRequest{
		SchoolID:      f.schoolID,
		ActorID:       f.actorID,
		Name:          "Contested Fund",
		CoverageType:  bursarydomain.CoverageFixedAmount,
		CoverageValue: decimal.NewFromInt(100),
		MaxRecipients: &k,
	})
	require.NoError(t, err)

	students := make([]*directorydomain.Student, attempts)
	for i := range students {
		students[i] = f.seedStudent(t)
	}

	var wg sync.WaitGroup
	results := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := f.createRequest(students[i].ID)
			req.BursaryID = &bursary.ID
			_, results[i] = f.svc.Create(ctx, req)
		}(i)
	}
	wg.Wait()

	won, lost := 0, 0
	for _, err := range results {
		switch {
		case err == nil:
			won++
		case errors.Is(err, bursarydomain.ErrCapacityExhausted):
			lost++
		default:
			var eligErr *bursarydomain.EligibilityError
			require.ErrorAs(t, err, &eligErr)
			lost++
		}
	}
	assert.Equal(t, slots, won, "exactly the available slots may be claimed")
	assert.Equal(t, attempts-slots, lost)

	reloaded, err := f.bursaries.GetByID(ctx, f.schoolID, bursary.ID.String())
	require.NoError(t, err)
	assert.Equal(t, slots, reloaded.CurrentRecipients)
}

func TestWaiveIsSticky(t *testing.T) {
	f := setupStudentFeeTest(t)
	ctx := context.Background()
	student := f.seedStudent(t)

	fee, err := f.svc.Create(ctx, f.createRequest(student.ID))
	require.NoError(t, err)

	admin := f.node.Generate()
	waived, err := f.svc.Waive(ctx, f.schoolID, fee.ID.String(), admin)
	require.NoError(t, err)
	assert.Equal(t, studentfeedomain.StatusWaived, waived.Status)
	assert.Equal(t, admin, waived.UpdatedBy)

	// A balance recompute never clears an administrative waiver.
	waived.RecomputeStatus()
	assert.Equal(t, studentfeedomain.StatusWaived, waived.Status)
}

func TestRemoveBursary(t *testing.T) {
	f := setupStudentFeeTest(t)
	ctx := context.Background()
	student := f.seedStudent(t)

	bursary, err := f.bursaries.Create(ctx, bursarydomain.CreateRequest{
		SchoolID:      f.schoolID,
		ActorID:       f.actorID,
		Name:          "Departing Donor",
		CoverageType:  bursarydomain.CoverageFixedAmount,
		CoverageValue: decimal.NewFromInt(300),
	})
	require.NoError(t, err)

	req := f.createRequest(student.ID)
	req.BursaryID = &bursary.ID
	fee, err := f.svc.Create(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "600.00", fee.TotalAmountDue.StringFixed(2))

	updated, err := f.svc.RemoveBursary(ctx, f.schoolID, fee.ID.String(), f.actorID)
	require.NoError(t, err)
	assert.Nil(t, updated.BursaryID)
	assert.Equal(t, "0.00", updated.BursaryAmount.StringFixed(2))
	assert.Equal(t, "900.00", updated.TotalAmountDue.StringFixed(2))
	assert.Equal(t, "900.00", updated.BalanceDue.StringFixed(2))
	assert.Equal(t, studentfeedomain.StatusPending, updated.Status)

	reloaded, err := f.bursaries.GetByID(ctx, f.schoolID, bursary.ID.String())
	require.NoError(t, err)
	assert.Zero(t, reloaded.CurrentRecipients)

	_, err = f.svc.RemoveBursary(ctx, f.schoolID, fee.ID.String(), f.actorID)
	assert.ErrorIs(t, err, studentfeedomain.ErrNoBursary)
}

func TestCreateRequiresDueDate(t *testing.T) {
	f := setupStudentFeeTest(t)
	student := f.seedStudent(t)

	req := f.createRequest(student.ID)
	req.DueDate = time.Time{}
	_, err := f.svc.Create(context.Background(), req)
	assert.ErrorIs(t, err, studentfeedomain.ErrInvalidDueDate)
}

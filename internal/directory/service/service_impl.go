package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	directorydomain "github.com/opencampus/tuition/internal/directory/domain"
	"github.com/opencampus/tuition/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB  *gorm.DB
	Log *zap.Logger
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	studentrepo repository.Repository[directorydomain.Student]
}

func NewService(p Params) *Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("directory.service"),

		studentrepo: repository.ProvideStore[directorydomain.Student](p.DB),
	}
}

func (s *Service) Resolve(ctx context.Context, studentID snowflake.ID) (*directorydomain.Student, error) {
	student, err := s.studentrepo.FindOne(ctx, &directorydomain.Student{ID: studentID})
	if err != nil {
		return nil, err
	}
	if student == nil {
		return nil, directorydomain.ErrStudentNotFound
	}
	return student, nil
}

func (s *Service) ResolveSiblings(ctx context.Context, studentID snowflake.ID) ([]directorydomain.Student, error) {
	student, err := s.Resolve(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if student.FamilyID == nil {
		return nil, nil
	}

	var siblings []directorydomain.Student
	err = s.db.WithContext(ctx).
		Where("school_id = ? AND family_id = ? AND id <> ? AND status = ?",
			student.SchoolID,
			*student.FamilyID,
			student.ID,
			directorydomain.EnrollmentStatusEnrolled,
		).
		Order("enrollment_date asc, id asc").
		Find(&siblings).Error
	if err != nil {
		return nil, err
	}
	return siblings, nil
}

func (s *Service) ActiveEnrollments(ctx context.Context, studentID snowflake.ID, academicYear string) ([]snowflake.ID, error) {
	var activityIDs []snowflake.ID
	err := s.db.WithContext(ctx).
		Model(&directorydomain.ActivityEnrollment{}).
		Where("student_id = ? AND academic_year = ? AND status = ?",
			studentID,
			academicYear,
			directorydomain.ActivityEnrollmentActive,
		).
		Pluck("activity_id", &activityIDs).Error
	if err != nil {
		return nil, err
	}
	return activityIDs, nil
}

// Package domain contains the read-side directory models the fee engine
// consumes: students and their activity enrollments.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type EnrollmentStatus string

const (
	EnrollmentStatusEnrolled  EnrollmentStatus = "enrolled"
	EnrollmentStatusWithdrawn EnrollmentStatus = "withdrawn"
	EnrollmentStatusGraduated EnrollmentStatus = "graduated"
)

// Student is the directory row the engine resolves grade and sibling data
// from. It is owned by the enrollment subsystem and read-only here.
type Student struct {
	ID             snowflake.ID     `gorm:"primaryKey"`
	SchoolID       snowflake.ID     `gorm:"not null;index"`
	FamilyID       *snowflake.ID    `gorm:"index"`
	GradeLevel     int              `gorm:"not null"`
	EnrollmentDate time.Time        `gorm:"not null"`
	Status         EnrollmentStatus `gorm:"type:text;not null;default:'enrolled'"`
	CreatedAt      time.Time        `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt      time.Time        `gorm:"not null;default:CURRENT_TIMESTAMP"`
	DeletedAt      gorm.DeletedAt   `gorm:"index"`
}

// TableName sets the database table name.
func (Student) TableName() string { return "students" }

type ActivityEnrollmentStatus string

const (
	ActivityEnrollmentActive   ActivityEnrollmentStatus = "active"
	ActivityEnrollmentInactive ActivityEnrollmentStatus = "inactive"
)

// ActivityEnrollment links a student to an extracurricular activity for one
// academic year.
type ActivityEnrollment struct {
	ID           snowflake.ID             `gorm:"primaryKey"`
	SchoolID     snowflake.ID             `gorm:"not null;index"`
	StudentID    snowflake.ID             `gorm:"not null;index"`
	ActivityID   snowflake.ID             `gorm:"not null;index"`
	AcademicYear string                   `gorm:"type:text;not null;index"`
	Status       ActivityEnrollmentStatus `gorm:"type:text;not null;default:'active'"`
	CreatedAt    time.Time                `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time                `gorm:"not null;default:CURRENT_TIMESTAMP"`
	DeletedAt    gorm.DeletedAt           `gorm:"index"`
}

// TableName sets the database table name.
func (ActivityEnrollment) TableName() string { return "activity_enrollments" }

// StudentDirectory resolves students and their enrolled siblings.
type StudentDirectory interface {
	Resolve(ctx context.Context, studentID snowflake.ID) (*Student, error)
	// ResolveSiblings returns the student's co-enrolled siblings ordered by
	// enrollment date, earliest first (ties broken by ID for stability).
	ResolveSiblings(ctx context.Context, studentID snowflake.ID) ([]Student, error)
}

// ActivityEnrollmentDirectory lists a student's active activity enrollments
// for an academic year.
type ActivityEnrollmentDirectory interface {
	ActiveEnrollments(ctx context.Context, studentID snowflake.ID, academicYear string) ([]snowflake.ID, error)
}

var (
	ErrStudentNotFound = errors.New("student_not_found")
)

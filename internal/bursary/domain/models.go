// Package domain contains persistence models for bursary programs.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CoverageType selects how a bursary's coverage value is interpreted.
type CoverageType string

const (
	CoveragePercentage  CoverageType = "percentage"
	CoverageFixedAmount CoverageType = "fixed_amount"
)

func (t CoverageType) Valid() bool {
	return t == CoveragePercentage || t == CoverageFixedAmount
}

// Bursary is a scholarship program with optional capacity and deadline.
// current_recipients is mutated exclusively through Reserve/Release so the
// capacity check and the increment stay one transactional unit.
type Bursary struct {
	ID       snowflake.ID `gorm:"primaryKey"`
	SchoolID snowflake.ID `gorm:"not null;index"`
	Name     string       `gorm:"type:text;not null"`

	CoverageType      CoverageType     `gorm:"type:text;not null"`
	CoverageValue     decimal.Decimal  `gorm:"type:numeric(12,2);not null"`
	MaxCoverageAmount *decimal.Decimal `gorm:"type:numeric(12,2)"`

	EligibleGrades      datatypes.JSONSlice[int] `gorm:"not null"`
	MaxRecipients       *int                     `gorm:""`
	CurrentRecipients   int                      `gorm:"not null;default:0"`
	ApplicationDeadline *time.Time               `gorm:""`

	Active    bool           `gorm:"not null;default:true"`
	CreatedBy snowflake.ID   `gorm:"not null"`
	UpdatedBy snowflake.ID   `gorm:"not null"`
	CreatedAt time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

// TableName sets the database table name.
func (Bursary) TableName() string { return "bursaries" }

// HasCapacity reports whether another recipient fits under max_recipients.
func (b Bursary) HasCapacity() bool {
	return b.MaxRecipients == nil || b.CurrentRecipients < *b.MaxRecipients
}

// IsDeadlinePassed reports whether the application deadline is behind today.
func (b Bursary) IsDeadlinePassed(today time.Time) bool {
	return b.ApplicationDeadline != nil && b.ApplicationDeadline.Before(today)
}

// CanAcceptApplications reports whether the bursary is open for assignment.
func (b Bursary) CanAcceptApplications(today time.Time) bool {
	return b.Active && b.HasCapacity() && !b.IsDeadlinePassed(today)
}

// GradeEligible reports whether a grade level qualifies. An empty grade set
// means every grade qualifies.
func (b Bursary) GradeEligible(grade int) bool {
	if len(b.EligibleGrades) == 0 {
		return true
	}
	for _, g := range b.EligibleGrades {
		if g == grade {
			return true
		}
	}
	return false
}

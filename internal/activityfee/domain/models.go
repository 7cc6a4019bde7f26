// Package domain contains persistence models for activity fee definitions.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// FeeFrequency describes how often an activity fee recurs within a year.
type FeeFrequency string

const (
	FrequencyOneTime   FeeFrequency = "one_time"
	FrequencyYearly    FeeFrequency = "yearly"
	FrequencyQuarterly FeeFrequency = "quarterly"
	FrequencyMonthly   FeeFrequency = "monthly"
)

func (f FeeFrequency) Valid() bool {
	switch f {
	case FrequencyOneTime, FrequencyYearly, FrequencyQuarterly, FrequencyMonthly:
		return true
	default:
		return false
	}
}

// ActivityFee defines the charge for one activity in one academic year.
type ActivityFee struct {
	ID           snowflake.ID `gorm:"primaryKey"`
	SchoolID     snowflake.ID `gorm:"not null;index"`
	ActivityID   snowflake.ID `gorm:"not null;index"`
	AcademicYear string       `gorm:"type:text;not null;index"`
	Name         string       `gorm:"type:text;not null"`

	FeeAmount    decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Frequency    FeeFrequency    `gorm:"type:text;not null"`
	AllowProrate bool            `gorm:"not null;default:true"`

	Active    bool           `gorm:"not null;default:true"`
	CreatedBy snowflake.ID   `gorm:"not null"`
	UpdatedBy snowflake.ID   `gorm:"not null"`
	CreatedAt time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

// TableName sets the database table name.
func (ActivityFee) TableName() string { return "activity_fees" }

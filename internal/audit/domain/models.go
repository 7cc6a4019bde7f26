// Package domain contains persistence models for the audit trail.
package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// AuditLog records who did what to which record.
type AuditLog struct {
	ID         snowflake.ID      `gorm:"primaryKey"`
	SchoolID   *snowflake.ID     `gorm:"index"`
	ActorID    snowflake.ID      `gorm:"not null;index"`
	Action     string            `gorm:"type:text;not null"`
	TargetType string            `gorm:"type:text;not null"`
	TargetID   *string           `gorm:"type:text"`
	Metadata   datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'"`
	CreatedAt  time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (AuditLog) TableName() string { return "audit_logs" }

type Service interface {
	AuditLog(ctx context.Context, schoolID *snowflake.ID, actorID snowflake.ID, action, targetType string, targetID *string, metadata map[string]any) error
}

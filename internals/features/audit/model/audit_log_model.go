package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// AuditLogModel is append-only; nothing in the service layer updates or deletes it.
type AuditLogModel struct {
	AuditLogID          uuid.UUID      `gorm:"column:audit_log_id;type:uuid;default:gen_random_uuid();primaryKey" json:"audit_log_id"`
	AuditLogActor       string         `gorm:"column:audit_log_actor;type:varchar(150);not null" json:"audit_log_actor"`
	AuditLogActionType  string         `gorm:"column:audit_log_action_type;type:varchar(50);not null;index" json:"audit_log_action_type"`
	AuditLogEntityType  string         `gorm:"column:audit_log_entity_type;type:varchar(50);not null" json:"audit_log_entity_type"`
	AuditLogEntityID    string         `gorm:"column:audit_log_entity_id;type:varchar(100);index" json:"audit_log_entity_id"`
	AuditLogDescription string         `gorm:"column:audit_log_description;type:text" json:"audit_log_description"`
	AuditLogOldValue    datatypes.JSON `gorm:"column:audit_log_old_value;type:jsonb" json:"audit_log_old_value,omitempty"`
	AuditLogNewValue    datatypes.JSON `gorm:"column:audit_log_new_value;type:jsonb" json:"audit_log_new_value,omitempty"`
	AuditLogStatus      string         `gorm:"column:audit_log_status;type:varchar(20);not null" json:"audit_log_status"`
	AuditLogTimestamp   time.Time      `gorm:"column:audit_log_timestamp;not null" json:"audit_log_timestamp"`
}

func (AuditLogModel) TableName() string {
	return "audit_logs"
}

func (a *AuditLogModel) BeforeCreate(tx *gorm.DB) error {
	if a.AuditLogID == uuid.Nil {
		a.AuditLogID = uuid.New()
	}
	if a.AuditLogTimestamp.IsZero() {
		a.AuditLogTimestamp = time.Now()
	}
	if a.AuditLogStatus == "" {
		a.AuditLogStatus = StatusSuccess
	}
	return nil
}

package service

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/shahid-afrid/tutorlivework-sub001/internals/features/audit/model"
	"github.com/shahid-afrid/tutorlivework-sub001/internals/helpers/logger"
	"github.com/shahid-afrid/tutorlivework-sub001/internals/helpers/metrics"
)

const (
	ActionDepartmentCreated = "DEPARTMENT_CREATED"
	ActionDepartmentUpdated = "DEPARTMENT_UPDATED"
	ActionFeatureToggled    = "DEPARTMENT_FEATURE_TOGGLED"
	ActionTenantOnboarded   = "TENANT_ONBOARDED"
	ActionAdminGranted      = "DEPARTMENT_ADMIN_GRANTED"
	ActionMismatchFixed     = "DEPARTMENT_MISMATCH_FIXED"
)

// Writer persists one audit row.
type Writer interface {
	WriteAudit(ctx context.Context, entry *model.AuditLogModel) error
}

type Entry struct {
	Actor       string
	Action      string
	EntityType  string
	EntityID    string
	Description string
	Old         any
	New         any
	Status      string
}

// Recorder writes audit entries best-effort. A failed write never fails the
// caller; it is logged and counted instead.
type Recorder struct {
	log *zap.Logger
	now func() time.Time
}

func NewRecorder(log *zap.Logger) *Recorder {
	return &Recorder{log: logger.OrNop(log).Named("audit"), now: time.Now}
}

// Record reports whether the entry was persisted.
func (r *Recorder) Record(ctx context.Context, w Writer, e Entry) bool {
	if e.Actor == "" {
		e.Actor = "system"
	}
	row := &model.AuditLogModel{
		AuditLogActor:       e.Actor,
		AuditLogActionType:  e.Action,
		AuditLogEntityType:  e.EntityType,
		AuditLogEntityID:    e.EntityID,
		AuditLogDescription: e.Description,
		AuditLogOldValue:    toJSON(e.Old),
		AuditLogNewValue:    toJSON(e.New),
		AuditLogStatus:      e.Status,
		AuditLogTimestamp:   r.now(),
	}
	if err := w.WriteAudit(ctx, row); err != nil {
		r.log.Warn("audit entry dropped",
			zap.String("action", e.Action),
			zap.String("entity_type", e.EntityType),
			zap.String("entity_id", e.EntityID),
			zap.Error(err),
		)
		metrics.AuditWriteFailures.WithLabelValues(e.Action).Inc()
		return false
	}
	return true
}

func toJSON(v any) datatypes.JSON {
	if v == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return datatypes.JSON(b)
}

// GormWriter inserts audit rows inside their own (possibly nested) transaction,
// so a failed insert inside a caller transaction only rolls back to its savepoint.
type GormWriter struct {
	DB *gorm.DB
}

func (w GormWriter) WriteAudit(ctx context.Context, entry *model.AuditLogModel) error {
	return w.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(entry).Error
	})
}

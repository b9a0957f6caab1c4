package database

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	auditModel "github.com/shahid-afrid/tutorlivework-sub001/internals/features/audit/model"
	departmentModel "github.com/shahid-afrid/tutorlivework-sub001/internals/features/departments/model"
	tenancyModel "github.com/shahid-afrid/tutorlivework-sub001/internals/features/tenancy/model"
)

// MetadataModels are the tables shared by every tenant. The legacy shared
// tenancy tables are included because the mismatch reconciler scans them.
func MetadataModels() []any {
	return []any{
		&departmentModel.DepartmentModel{},
		&departmentModel.AdminModel{},
		&departmentModel.DepartmentAdminModel{},
		&departmentModel.FacultySelectionScheduleModel{},
		&auditModel.AuditLogModel{},
		&tenancyModel.Faculty{},
		&tenancyModel.Student{},
		&tenancyModel.Subject{},
		&tenancyModel.AssignedSubject{},
		&tenancyModel.StudentEnrollment{},
	}
}

// Migrate creates or alters the shared tables. Tenant tables are never
// migrated here; the provisioner owns them.
func Migrate(ctx context.Context, db *gorm.DB, log *zap.Logger) error {
	for _, m := range MetadataModels() {
		if err := db.WithContext(ctx).AutoMigrate(m); err != nil {
			return fmt.Errorf("automigrate %T: %w", m, err)
		}
	}
	log.Info("metadata tables migrated", zap.Int("models", len(MetadataModels())))
	return nil
}

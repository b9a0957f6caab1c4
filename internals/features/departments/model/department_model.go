package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shahid-afrid/tutorlivework-sub001/internals/features/tenancy/normalizer"
)

// DepartmentModel is the tenant metadata row. DepartmentCode is the tenant key.
type DepartmentModel struct {
	DepartmentID                       uuid.UUID `gorm:"column:department_id;type:uuid;default:gen_random_uuid();primaryKey" json:"department_id"`
	DepartmentCode                     string    `gorm:"column:department_code;type:varchar(50);not null;uniqueIndex:uq_departments_code" json:"department_code"`
	DepartmentName                     string    `gorm:"column:department_name;type:varchar(150);not null" json:"department_name"`
	DepartmentIsActive                 bool      `gorm:"column:department_is_active;not null;default:false" json:"department_is_active"`
	DepartmentAllowStudentRegistration bool      `gorm:"column:department_allow_student_registration;not null;default:false" json:"department_allow_student_registration"`
	DepartmentAllowFacultyAssignment   bool      `gorm:"column:department_allow_faculty_assignment;not null;default:false" json:"department_allow_faculty_assignment"`
	DepartmentAllowSubjectSelection    bool      `gorm:"column:department_allow_subject_selection;not null;default:false" json:"department_allow_subject_selection"`
	DepartmentCreatedAt                time.Time `gorm:"column:department_created_at;autoCreateTime" json:"department_created_at"`
	DepartmentUpdatedAt                time.Time `gorm:"column:department_updated_at;autoUpdateTime" json:"department_updated_at"`
}

func (DepartmentModel) TableName() string {
	return "departments"
}

func (d *DepartmentModel) BeforeCreate(tx *gorm.DB) error {
	if d.DepartmentID == uuid.Nil {
		d.DepartmentID = uuid.New()
	}
	return nil
}

func (d *DepartmentModel) BeforeSave(tx *gorm.DB) error {
	d.DepartmentCode = normalizer.Normalize(d.DepartmentCode)
	return nil
}

// ApplyDefaults marks the department active with every feature enabled.
func (d *DepartmentModel) ApplyDefaults() {
	d.DepartmentIsActive = true
	d.DepartmentAllowStudentRegistration = true
	d.DepartmentAllowFacultyAssignment = true
	d.DepartmentAllowSubjectSelection = true
}

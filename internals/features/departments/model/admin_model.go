package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shahid-afrid/tutorlivework-sub001/internals/features/tenancy/normalizer"
)

type AdminModel struct {
	AdminID         uuid.UUID `gorm:"column:admin_id;type:uuid;default:gen_random_uuid();primaryKey" json:"admin_id"`
	AdminName       string    `gorm:"column:admin_name;type:varchar(100);not null" json:"admin_name"`
	AdminEmail      string    `gorm:"column:admin_email;type:varchar(150);not null;uniqueIndex" json:"admin_email"`
	AdminDepartment string    `gorm:"column:admin_department;type:varchar(50);not null;index" json:"admin_department"`
	AdminCreatedAt  time.Time `gorm:"column:admin_created_at;autoCreateTime" json:"admin_created_at"`
}

func (AdminModel) TableName() string {
	return "admins"
}

func (a *AdminModel) BeforeCreate(tx *gorm.DB) error {
	if a.AdminID == uuid.Nil {
		a.AdminID = uuid.New()
	}
	return nil
}

func (a *AdminModel) BeforeSave(tx *gorm.DB) error {
	a.AdminDepartment = normalizer.Normalize(a.AdminDepartment)
	return nil
}

// DepartmentAdminModel links an admin to a department with per-area capabilities.
type DepartmentAdminModel struct {
	DepartmentAdminID    uuid.UUID `gorm:"column:department_admin_id;type:uuid;default:gen_random_uuid();primaryKey" json:"department_admin_id"`
	AdminID              uuid.UUID `gorm:"column:department_admin_admin_id;type:uuid;not null;uniqueIndex:uq_department_admin_pair" json:"department_admin_admin_id"`
	DepartmentID         uuid.UUID `gorm:"column:department_admin_department_id;type:uuid;not null;uniqueIndex:uq_department_admin_pair" json:"department_admin_department_id"`
	CanManageStudents    bool      `gorm:"column:can_manage_students;not null;default:false" json:"can_manage_students"`
	CanManageFaculty     bool      `gorm:"column:can_manage_faculty;not null;default:false" json:"can_manage_faculty"`
	CanManageSubjects    bool      `gorm:"column:can_manage_subjects;not null;default:false" json:"can_manage_subjects"`
	CanManageAssignments bool      `gorm:"column:can_manage_assignments;not null;default:false" json:"can_manage_assignments"`
	CanViewReports       bool      `gorm:"column:can_view_reports;not null;default:false" json:"can_view_reports"`
	AssignedAt           time.Time `gorm:"column:assigned_at;not null" json:"assigned_at"`
}

func (DepartmentAdminModel) TableName() string {
	return "department_admins"
}

func (l *DepartmentAdminModel) BeforeCreate(tx *gorm.DB) error {
	if l.DepartmentAdminID == uuid.Nil {
		l.DepartmentAdminID = uuid.New()
	}
	return nil
}

func (l *DepartmentAdminModel) GrantAll() {
	l.CanManageStudents = true
	l.CanManageFaculty = true
	l.CanManageSubjects = true
	l.CanManageAssignments = true
	l.CanViewReports = true
}

func (l *DepartmentAdminModel) HasAll() bool {
	return l.CanManageStudents && l.CanManageFaculty && l.CanManageSubjects &&
		l.CanManageAssignments && l.CanViewReports
}

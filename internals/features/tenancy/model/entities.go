// file: internals/features/tenancy/model/entities.go
package model

import (
	"time"

	"gorm.io/gorm"

	"github.com/shahid-afrid/tutorlivework-sub001/internals/features/tenancy/normalizer"
)

// Column tags below must stay aligned with schema.Tables; entities_test.go enforces it.
// TableName() is the legacy shared table; tenant-bound access overrides it via the router.

type Faculty struct {
	FacultyID  int    `gorm:"column:faculty_id;primaryKey;autoIncrement" json:"faculty_id"`
	Name       string `gorm:"column:name;type:varchar(100);not null" json:"name"`
	Email      string `gorm:"column:email;type:varchar(100);not null;uniqueIndex" json:"email"`
	Password   string `gorm:"column:password;type:varchar(255);not null" json:"-"`
	Department string `gorm:"column:department;type:varchar(50);not null;index" json:"department"`
}

func (Faculty) TableName() string { return "faculty" }

func (f *Faculty) BeforeSave(tx *gorm.DB) error {
	f.Department = normalizer.Normalize(f.Department)
	return nil
}

type Student struct {
	StudentID       string  `gorm:"column:student_id;type:varchar(50);primaryKey" json:"student_id"`
	FullName        string  `gorm:"column:full_name;type:varchar(100);not null" json:"full_name"`
	RegdNumber      string  `gorm:"column:regd_number;type:varchar(50);not null;index" json:"regd_number"`
	Year            int     `gorm:"column:year;not null;index" json:"year"`
	Department      string  `gorm:"column:department;type:varchar(50);not null;index" json:"department"`
	Semester        *string `gorm:"column:semester;type:varchar(20)" json:"semester,omitempty"`
	Email           string  `gorm:"column:email;type:varchar(100);not null;uniqueIndex" json:"email"`
	Password        string  `gorm:"column:password;type:varchar(255);not null" json:"-"`
	SelectedSubject *string `gorm:"column:selected_subject;type:text" json:"selected_subject,omitempty"`
}

func (Student) TableName() string { return "students" }

func (s *Student) BeforeSave(tx *gorm.DB) error {
	s.Department = normalizer.Normalize(s.Department)
	return nil
}

type Subject struct {
	SubjectID         int        `gorm:"column:subject_id;primaryKey;autoIncrement" json:"subject_id"`
	Name              string     `gorm:"column:name;type:varchar(100);not null" json:"name"`
	Department        string     `gorm:"column:department;type:varchar(50);not null;index" json:"department"`
	Year              int        `gorm:"column:year;not null;default:1;index" json:"year"`
	Semester          *string    `gorm:"column:semester;type:varchar(20)" json:"semester,omitempty"`
	SemesterStartDate *time.Time `gorm:"column:semester_start_date" json:"semester_start_date,omitempty"`
	SemesterEndDate   *time.Time `gorm:"column:semester_end_date" json:"semester_end_date,omitempty"`
	SubjectType       string     `gorm:"column:subject_type;type:varchar(50);not null;default:Core" json:"subject_type"`
	MaxEnrollments    *int       `gorm:"column:max_enrollments" json:"max_enrollments,omitempty"`
}

func (Subject) TableName() string { return "subjects" }

func (s *Subject) BeforeSave(tx *gorm.DB) error {
	s.Department = normalizer.Normalize(s.Department)
	return nil
}

// AssignedSubject is a subject offered by one faculty member.
type AssignedSubject struct {
	AssignedSubjectID int    `gorm:"column:assigned_subject_id;primaryKey;autoIncrement" json:"assigned_subject_id"`
	FacultyID         int    `gorm:"column:faculty_id;not null;index" json:"faculty_id"`
	SubjectID         int    `gorm:"column:subject_id;not null;index" json:"subject_id"`
	Department        string `gorm:"column:department;type:varchar(50);not null" json:"department"`
	Year              int    `gorm:"column:year;not null" json:"year"`
	SelectedCount     int    `gorm:"column:selected_count;not null;default:0" json:"selected_count"`
}

func (AssignedSubject) TableName() string { return "assigned_subjects" }

func (a *AssignedSubject) BeforeSave(tx *gorm.DB) error {
	a.Department = normalizer.Normalize(a.Department)
	return nil
}

type StudentEnrollment struct {
	StudentID         string    `gorm:"column:student_id;type:varchar(50);primaryKey" json:"student_id"`
	AssignedSubjectID int       `gorm:"column:assigned_subject_id;primaryKey;autoIncrement:false" json:"assigned_subject_id"`
	EnrolledAt        time.Time `gorm:"column:enrolled_at;not null;default:CURRENT_TIMESTAMP" json:"enrolled_at"`
}

func (StudentEnrollment) TableName() string { return "student_enrollments" }

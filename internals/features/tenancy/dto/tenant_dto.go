package dto

import (
	"strings"
	"time"

	"github.com/shahid-afrid/tutorlivework-sub001/internals/features/tenancy/model"
)

/* ===============================
   Requests
=================================*/

// Department may be omitted; the tenant key from the route is stamped in.
type CreateStudentRequest struct {
	StudentID       string  `json:"student_id" validate:"required,max=50"`
	FullName        string  `json:"full_name" validate:"required,max=100"`
	RegdNumber      string  `json:"regd_number" validate:"required,max=50"`
	Year            int     `json:"year" validate:"required,min=1,max=4"`
	Department      string  `json:"department" validate:"omitempty,max=50,tenantkey"`
	Semester        *string `json:"semester" validate:"omitempty,max=20"`
	Email           string  `json:"email" validate:"required,email,max=100"`
	Password        string  `json:"password" validate:"required,min=6,max=72"`
	SelectedSubject *string `json:"selected_subject"`
}

func (r CreateStudentRequest) ToModel() *model.Student {
	return &model.Student{
		StudentID:       strings.TrimSpace(r.StudentID),
		FullName:        strings.TrimSpace(r.FullName),
		RegdNumber:      strings.TrimSpace(r.RegdNumber),
		Year:            r.Year,
		Department:      r.Department,
		Semester:        r.Semester,
		Email:           strings.ToLower(strings.TrimSpace(r.Email)),
		Password:        r.Password,
		SelectedSubject: r.SelectedSubject,
	}
}

type CreateFacultyRequest struct {
	Name       string `json:"name" validate:"required,max=100"`
	Email      string `json:"email" validate:"required,email,max=100"`
	Password   string `json:"password" validate:"required,min=6,max=72"`
	Department string `json:"department" validate:"omitempty,max=50,tenantkey"`
}

func (r CreateFacultyRequest) ToModel() *model.Faculty {
	return &model.Faculty{
		Name:       strings.TrimSpace(r.Name),
		Email:      strings.ToLower(strings.TrimSpace(r.Email)),
		Password:   r.Password,
		Department: r.Department,
	}
}

type CreateSubjectRequest struct {
	Name              string     `json:"name" validate:"required,max=100"`
	Department        string     `json:"department" validate:"omitempty,max=50,tenantkey"`
	Year              int        `json:"year" validate:"omitempty,min=1,max=4"`
	Semester          *string    `json:"semester" validate:"omitempty,max=20"`
	SemesterStartDate *time.Time `json:"semester_start_date"`
	SemesterEndDate   *time.Time `json:"semester_end_date" validate:"omitempty,gtfield=SemesterStartDate"`
	SubjectType       string     `json:"subject_type" validate:"omitempty,oneof=Core ProfessionalElective OpenElective"`
	MaxEnrollments    *int       `json:"max_enrollments" validate:"omitempty,min=1"`
}

func (r CreateSubjectRequest) ToModel() *model.Subject {
	s := &model.Subject{
		Name:              strings.TrimSpace(r.Name),
		Department:        r.Department,
		Year:              r.Year,
		Semester:          r.Semester,
		SemesterStartDate: r.SemesterStartDate,
		SemesterEndDate:   r.SemesterEndDate,
		SubjectType:       r.SubjectType,
		MaxEnrollments:    r.MaxEnrollments,
	}
	if s.Year == 0 {
		s.Year = 1
	}
	if s.SubjectType == "" {
		s.SubjectType = "Core"
	}
	return s
}

type CreateAssignmentRequest struct {
	FacultyID  int    `json:"faculty_id" validate:"required,min=1"`
	SubjectID  int    `json:"subject_id" validate:"required,min=1"`
	Department string `json:"department" validate:"omitempty,max=50,tenantkey"`
	Year       int    `json:"year" validate:"required,min=1,max=4"`
}

func (r CreateAssignmentRequest) ToModel() *model.AssignedSubject {
	return &model.AssignedSubject{
		FacultyID:  r.FacultyID,
		SubjectID:  r.SubjectID,
		Department: r.Department,
		Year:       r.Year,
	}
}

type EnrollRequest struct {
	StudentID         string `json:"student_id" validate:"required,max=50"`
	AssignedSubjectID int    `json:"assigned_subject_id" validate:"required,min=1"`
}

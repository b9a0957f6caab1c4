// file: internals/features/tenancy/router/repositories.go
package router

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/shahid-afrid/tutorlivework-sub001/internals/features/tenancy/model"
	"github.com/shahid-afrid/tutorlivework-sub001/internals/features/tenancy/normalizer"
	"github.com/shahid-afrid/tutorlivework-sub001/internals/features/tenancy/schema"
)

var (
	ErrNotFound           = errors.New("tenant record not found")
	ErrDepartmentMismatch = errors.New("department does not belong to this tenant")
	ErrEnrollmentFull     = errors.New("assigned subject has reached max enrollments")
	ErrPasswordTooLong    = errors.New("password is longer than 72 bytes")
)

// claim stamps an empty department with the tenant key and rejects rows
// that name another department.
func (h *Handle) claim(dept *string) error {
	if *dept == "" {
		*dept = h.TenantKey()
		return nil
	}
	if normalizer.Normalize(*dept) != h.TenantKey() {
		return fmt.Errorf("%w: %q in tenant %s", ErrDepartmentMismatch, *dept, h.TenantKey())
	}
	return nil
}

func hashPassword(p string) (string, error) {
	// bcrypt only reads the first 72 bytes
	if len(p) > 72 {
		return "", ErrPasswordTooLong
	}
	b, err := bcrypt.GenerateFromPassword([]byte(p), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// =======================
// FACULTY
// =======================

type FacultyRepository struct{ h *Handle }

func (r *FacultyRepository) Create(f *model.Faculty) error {
	q, err := r.h.table(schema.Faculty)
	if err != nil {
		return err
	}
	if err := r.h.claim(&f.Department); err != nil {
		return err
	}
	if f.Password, err = hashPassword(f.Password); err != nil {
		return err
	}
	return q.Create(f).Error
}

func (r *FacultyRepository) Get(id int) (*model.Faculty, error) {
	q, err := r.h.table(schema.Faculty)
	if err != nil {
		return nil, err
	}
	var f model.Faculty
	if err := q.Where("faculty_id = ?", id).Take(&f).Error; err != nil {
		return nil, notFound(err)
	}
	return &f, nil
}

func (r *FacultyRepository) FindByEmail(email string) (*model.Faculty, error) {
	q, err := r.h.table(schema.Faculty)
	if err != nil {
		return nil, err
	}
	var f model.Faculty
	if err := q.Where("email = ?", email).Take(&f).Error; err != nil {
		return nil, notFound(err)
	}
	return &f, nil
}

func (r *FacultyRepository) List() ([]model.Faculty, error) {
	q, err := r.h.table(schema.Faculty)
	if err != nil {
		return nil, err
	}
	var out []model.Faculty
	return out, q.Order("faculty_id").Find(&out).Error
}

// Delete removes one faculty row; assignments cascade in the database.
func (r *FacultyRepository) Delete(id int) (bool, error) {
	q, err := r.h.table(schema.Faculty)
	if err != nil {
		return false, err
	}
	res := q.Where("faculty_id = ?", id).Delete(&model.Faculty{})
	return res.RowsAffected > 0, res.Error
}

// =======================
// STUDENTS
// =======================

type StudentRepository struct{ h *Handle }

func (r *StudentRepository) Create(s *model.Student) error {
	q, err := r.h.table(schema.Students)
	if err != nil {
		return err
	}
	if err := r.h.claim(&s.Department); err != nil {
		return err
	}
	if s.Password, err = hashPassword(s.Password); err != nil {
		return err
	}
	return q.Create(s).Error
}

func (r *StudentRepository) Get(id string) (*model.Student, error) {
	q, err := r.h.table(schema.Students)
	if err != nil {
		return nil, err
	}
	var s model.Student
	if err := q.Where("student_id = ?", id).Take(&s).Error; err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

// List returns students ordered by id; year 0 means every year.
func (r *StudentRepository) List(year int) ([]model.Student, error) {
	q, err := r.h.table(schema.Students)
	if err != nil {
		return nil, err
	}
	if year > 0 {
		q = q.Where("year = ?", year)
	}
	var out []model.Student
	return out, q.Order("student_id").Find(&out).Error
}

func (r *StudentRepository) Delete(id string) (bool, error) {
	q, err := r.h.table(schema.Students)
	if err != nil {
		return false, err
	}
	res := q.Where("student_id = ?", id).Delete(&model.Student{})
	return res.RowsAffected > 0, res.Error
}

// =======================
// SUBJECTS
// =======================

type SubjectRepository struct{ h *Handle }

func (r *SubjectRepository) Create(s *model.Subject) error {
	q, err := r.h.table(schema.Subjects)
	if err != nil {
		return err
	}
	if err := r.h.claim(&s.Department); err != nil {
		return err
	}
	return q.Create(s).Error
}

func (r *SubjectRepository) Get(id int) (*model.Subject, error) {
	q, err := r.h.table(schema.Subjects)
	if err != nil {
		return nil, err
	}
	var s model.Subject
	if err := q.Where("subject_id = ?", id).Take(&s).Error; err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

func (r *SubjectRepository) List(year int) ([]model.Subject, error) {
	q, err := r.h.table(schema.Subjects)
	if err != nil {
		return nil, err
	}
	if year > 0 {
		q = q.Where("year = ?", year)
	}
	var out []model.Subject
	return out, q.Order("subject_id").Find(&out).Error
}

func (r *SubjectRepository) Delete(id int) (bool, error) {
	q, err := r.h.table(schema.Subjects)
	if err != nil {
		return false, err
	}
	res := q.Where("subject_id = ?", id).Delete(&model.Subject{})
	return res.RowsAffected > 0, res.Error
}

// =======================
// ASSIGNED SUBJECTS
// =======================

type AssignmentRepository struct{ h *Handle }

func (r *AssignmentRepository) Create(a *model.AssignedSubject) error {
	q, err := r.h.table(schema.AssignedSubjects)
	if err != nil {
		return err
	}
	if err := r.h.claim(&a.Department); err != nil {
		return err
	}
	return q.Create(a).Error
}

func (r *AssignmentRepository) Get(id int) (*model.AssignedSubject, error) {
	q, err := r.h.table(schema.AssignedSubjects)
	if err != nil {
		return nil, err
	}
	var a model.AssignedSubject
	if err := q.Where("assigned_subject_id = ?", id).Take(&a).Error; err != nil {
		return nil, notFound(err)
	}
	return &a, nil
}

func (r *AssignmentRepository) List() ([]model.AssignedSubject, error) {
	q, err := r.h.table(schema.AssignedSubjects)
	if err != nil {
		return nil, err
	}
	var out []model.AssignedSubject
	return out, q.Order("assigned_subject_id").Find(&out).Error
}

func (r *AssignmentRepository) ListByFaculty(facultyID int) ([]model.AssignedSubject, error) {
	q, err := r.h.table(schema.AssignedSubjects)
	if err != nil {
		return nil, err
	}
	var out []model.AssignedSubject
	return out, q.Where("faculty_id = ?", facultyID).Order("assigned_subject_id").Find(&out).Error
}

func (r *AssignmentRepository) Delete(id int) (bool, error) {
	q, err := r.h.table(schema.AssignedSubjects)
	if err != nil {
		return false, err
	}
	res := q.Where("assigned_subject_id = ?", id).Delete(&model.AssignedSubject{})
	return res.RowsAffected > 0, res.Error
}

// =======================
// ENROLLMENTS
// =======================

type EnrollmentRepository struct{ h *Handle }

// Enroll adds a student to an assigned subject and bumps its selected_count.
// The assignment row is locked so concurrent enrollments respect max_enrollments.
func (r *EnrollmentRepository) Enroll(studentID string, assignedSubjectID int) (*model.StudentEnrollment, error) {
	var out *model.StudentEnrollment
	err := r.h.Transaction(func(tx *Handle) error {
		assignments, err := tx.table(schema.AssignedSubjects)
		if err != nil {
			return err
		}
		var a model.AssignedSubject
		if err := assignments.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("assigned_subject_id = ?", assignedSubjectID).
			Take(&a).Error; err != nil {
			return notFound(err)
		}

		subjects, err := tx.table(schema.Subjects)
		if err != nil {
			return err
		}
		var s model.Subject
		if err := subjects.Where("subject_id = ?", a.SubjectID).Take(&s).Error; err != nil {
			return notFound(err)
		}
		if s.MaxEnrollments != nil && a.SelectedCount >= *s.MaxEnrollments {
			return ErrEnrollmentFull
		}

		enrollments, err := tx.table(schema.StudentEnrollments)
		if err != nil {
			return err
		}
		e := model.StudentEnrollment{StudentID: studentID, AssignedSubjectID: assignedSubjectID, EnrolledAt: time.Now()}
		if err := enrollments.Create(&e).Error; err != nil {
			return err
		}

		counter, err := tx.table(schema.AssignedSubjects)
		if err != nil {
			return err
		}
		if err := counter.Where("assigned_subject_id = ?", assignedSubjectID).
			UpdateColumn("selected_count", gorm.Expr("selected_count + 1")).Error; err != nil {
			return err
		}
		out = &e
		return nil
	})
	return out, err
}

// Unenroll reports whether an enrollment was removed.
func (r *EnrollmentRepository) Unenroll(studentID string, assignedSubjectID int) (bool, error) {
	removed := false
	err := r.h.Transaction(func(tx *Handle) error {
		enrollments, err := tx.table(schema.StudentEnrollments)
		if err != nil {
			return err
		}
		res := enrollments.
			Where("student_id = ? AND assigned_subject_id = ?", studentID, assignedSubjectID).
			Delete(&model.StudentEnrollment{})
		if res.Error != nil || res.RowsAffected == 0 {
			return res.Error
		}
		removed = true

		counter, err := tx.table(schema.AssignedSubjects)
		if err != nil {
			return err
		}
		return counter.Where("assigned_subject_id = ?", assignedSubjectID).
			UpdateColumn("selected_count", gorm.Expr("GREATEST(selected_count - 1, 0)")).Error
	})
	return removed, err
}

func (r *EnrollmentRepository) ListByStudent(studentID string) ([]model.StudentEnrollment, error) {
	q, err := r.h.table(schema.StudentEnrollments)
	if err != nil {
		return nil, err
	}
	var out []model.StudentEnrollment
	return out, q.Where("student_id = ?", studentID).Order("enrolled_at").Find(&out).Error
}

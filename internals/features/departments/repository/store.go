package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	auditModel "github.com/shahid-afrid/tutorlivework-sub001/internals/features/audit/model"
	auditService "github.com/shahid-afrid/tutorlivework-sub001/internals/features/audit/service"
	"github.com/shahid-afrid/tutorlivework-sub001/internals/features/departments/model"
	"github.com/shahid-afrid/tutorlivework-sub001/internals/features/tenancy/normalizer"
	helper "github.com/shahid-afrid/tutorlivework-sub001/internals/helpers"
)

var (
	ErrDepartmentNotFound = errors.New("department not found")
	ErrDepartmentExists   = errors.New("department code already exists")
	ErrAdminNotFound      = errors.New("admin not found")
	ErrLinkNotFound       = errors.New("department admin link not found")
	ErrScheduleNotFound   = errors.New("faculty selection schedule not found")
)

// Store is the tenant metadata persistence boundary. Implementations must
// translate gorm.ErrRecordNotFound into the sentinels above.
type Store interface {
	FindDepartmentByID(ctx context.Context, id uuid.UUID) (*model.DepartmentModel, error)
	FindDepartmentByCode(ctx context.Context, code string) (*model.DepartmentModel, error)
	ListDepartments(ctx context.Context) ([]model.DepartmentModel, error)
	CreateDepartment(ctx context.Context, d *model.DepartmentModel) error
	SaveDepartment(ctx context.Context, d *model.DepartmentModel) error

	FindAdminByID(ctx context.Context, id uuid.UUID) (*model.AdminModel, error)
	ListAdminsByDepartmentCode(ctx context.Context, code string) ([]model.AdminModel, error)

	ListDepartmentAdmins(ctx context.Context, departmentID uuid.UUID) ([]model.DepartmentAdminModel, error)
	FindDepartmentAdmin(ctx context.Context, adminID, departmentID uuid.UUID) (*model.DepartmentAdminModel, error)
	SaveDepartmentAdmin(ctx context.Context, link *model.DepartmentAdminModel) error

	FindSchedule(ctx context.Context, departmentCode string) (*model.FacultySelectionScheduleModel, error)
	CreateSchedule(ctx context.Context, s *model.FacultySelectionScheduleModel) error

	auditService.Writer

	// Transaction runs fn against a Store bound to one transaction.
	Transaction(ctx context.Context, fn func(tx Store) error) error
}

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) conn(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

func (s *GormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

/* ===============================
   Departments
=================================*/

func (s *GormStore) FindDepartmentByID(ctx context.Context, id uuid.UUID) (*model.DepartmentModel, error) {
	var d model.DepartmentModel
	if err := s.conn(ctx).Where("department_id = ?", id).Take(&d).Error; err != nil {
		return nil, translate(err, ErrDepartmentNotFound)
	}
	return &d, nil
}

func (s *GormStore) FindDepartmentByCode(ctx context.Context, code string) (*model.DepartmentModel, error) {
	var d model.DepartmentModel
	if err := s.conn(ctx).Where("department_code = ?", normalizer.Normalize(code)).Take(&d).Error; err != nil {
		return nil, translate(err, ErrDepartmentNotFound)
	}
	return &d, nil
}

func (s *GormStore) ListDepartments(ctx context.Context) ([]model.DepartmentModel, error) {
	var out []model.DepartmentModel
	return out, s.conn(ctx).Order("department_code").Find(&out).Error
}

func (s *GormStore) CreateDepartment(ctx context.Context, d *model.DepartmentModel) error {
	if err := s.conn(ctx).Create(d).Error; err != nil {
		if helper.IsUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrDepartmentExists, d.DepartmentCode)
		}
		return err
	}
	return nil
}

func (s *GormStore) SaveDepartment(ctx context.Context, d *model.DepartmentModel) error {
	if err := s.conn(ctx).Save(d).Error; err != nil {
		if helper.IsUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrDepartmentExists, d.DepartmentCode)
		}
		return err
	}
	return nil
}

/* ===============================
   Admins & links
=================================*/

func (s *GormStore) FindAdminByID(ctx context.Context, id uuid.UUID) (*model.AdminModel, error) {
	var a model.AdminModel
	if err := s.conn(ctx).Where("admin_id = ?", id).Take(&a).Error; err != nil {
		return nil, translate(err, ErrAdminNotFound)
	}
	return &a, nil
}

func (s *GormStore) ListAdminsByDepartmentCode(ctx context.Context, code string) ([]model.AdminModel, error) {
	var out []model.AdminModel
	err := s.conn(ctx).
		Where("admin_department = ?", normalizer.Normalize(code)).
		Order("admin_created_at").
		Find(&out).Error
	return out, err
}

func (s *GormStore) ListDepartmentAdmins(ctx context.Context, departmentID uuid.UUID) ([]model.DepartmentAdminModel, error) {
	var out []model.DepartmentAdminModel
	err := s.conn(ctx).
		Where("department_admin_department_id = ?", departmentID).
		Order("assigned_at").
		Find(&out).Error
	return out, err
}

func (s *GormStore) FindDepartmentAdmin(ctx context.Context, adminID, departmentID uuid.UUID) (*model.DepartmentAdminModel, error) {
	var l model.DepartmentAdminModel
	err := s.conn(ctx).
		Where("department_admin_admin_id = ? AND department_admin_department_id = ?", adminID, departmentID).
		Take(&l).Error
	if err != nil {
		return nil, translate(err, ErrLinkNotFound)
	}
	return &l, nil
}

func (s *GormStore) SaveDepartmentAdmin(ctx context.Context, link *model.DepartmentAdminModel) error {
	return s.conn(ctx).Save(link).Error
}

/* ===============================
   Schedules & audit
=================================*/

func (s *GormStore) FindSchedule(ctx context.Context, departmentCode string) (*model.FacultySelectionScheduleModel, error) {
	var sc model.FacultySelectionScheduleModel
	err := s.conn(ctx).
		Where("schedule_department = ?", normalizer.Normalize(departmentCode)).
		Take(&sc).Error
	if err != nil {
		return nil, translate(err, ErrScheduleNotFound)
	}
	return &sc, nil
}

func (s *GormStore) CreateSchedule(ctx context.Context, sc *model.FacultySelectionScheduleModel) error {
	return s.conn(ctx).Create(sc).Error
}

// WriteAudit nests a savepoint when s is bound to a transaction.
func (s *GormStore) WriteAudit(ctx context.Context, entry *auditModel.AuditLogModel) error {
	return auditService.GormWriter{DB: s.db}.WriteAudit(ctx, entry)
}

func translate(err, notFound error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return err
}

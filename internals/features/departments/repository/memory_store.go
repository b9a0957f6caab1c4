package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	auditModel "github.com/shahid-afrid/tutorlivework-sub001/internals/features/audit/model"
	"github.com/shahid-afrid/tutorlivework-sub001/internals/features/departments/model"
	"github.com/shahid-afrid/tutorlivework-sub001/internals/features/tenancy/normalizer"
)

// MemoryStore is an in-process Store for tests and dry runs. Transactions
// snapshot state and restore it when fn fails; it assumes a single writer.
type MemoryStore struct {
	mu          sync.Mutex
	departments map[uuid.UUID]model.DepartmentModel
	admins      map[uuid.UUID]model.AdminModel
	links       map[uuid.UUID]model.DepartmentAdminModel
	schedules   map[string]model.FacultySelectionScheduleModel
	audits      []auditModel.AuditLogModel

	// Writes counts successful mutations, audit rows excluded.
	Writes int
	// FailAudit, when set, is returned by every WriteAudit call.
	FailAudit error
	// FailOn maps a method name to an error that method returns.
	FailOn map[string]error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		departments: map[uuid.UUID]model.DepartmentModel{},
		admins:      map[uuid.UUID]model.AdminModel{},
		links:       map[uuid.UUID]model.DepartmentAdminModel{},
		schedules:   map[string]model.FacultySelectionScheduleModel{},
		FailOn:      map[string]error{},
	}
}

func (m *MemoryStore) fail(op string) error {
	if err, ok := m.FailOn[op]; ok {
		return err
	}
	return nil
}

// PutAdmin seeds an admin row.
func (m *MemoryStore) PutAdmin(a model.AdminModel) model.AdminModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	_ = a.BeforeCreate(nil)
	_ = a.BeforeSave(nil)
	m.admins[a.AdminID] = a
	return a
}

func (m *MemoryStore) Audits() []auditModel.AuditLogModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]auditModel.AuditLogModel(nil), m.audits...)
}

func (m *MemoryStore) Links() []model.DepartmentAdminModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.DepartmentAdminModel, 0, len(m.links))
	for _, l := range m.links {
		out = append(out, l)
	}
	return out
}

func (m *MemoryStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	m.mu.Lock()
	snap := m.snapshot()
	m.mu.Unlock()

	if err := fn(m); err != nil {
		m.mu.Lock()
		m.restore(snap)
		m.mu.Unlock()
		return err
	}
	return m.fail("Commit")
}

type memorySnapshot struct {
	departments map[uuid.UUID]model.DepartmentModel
	admins      map[uuid.UUID]model.AdminModel
	links       map[uuid.UUID]model.DepartmentAdminModel
	schedules   map[string]model.FacultySelectionScheduleModel
	audits      []auditModel.AuditLogModel
	writes      int
}

func (m *MemoryStore) snapshot() memorySnapshot {
	s := memorySnapshot{
		departments: make(map[uuid.UUID]model.DepartmentModel, len(m.departments)),
		admins:      make(map[uuid.UUID]model.AdminModel, len(m.admins)),
		links:       make(map[uuid.UUID]model.DepartmentAdminModel, len(m.links)),
		schedules:   make(map[string]model.FacultySelectionScheduleModel, len(m.schedules)),
		audits:      append([]auditModel.AuditLogModel(nil), m.audits...),
		writes:      m.Writes,
	}
	for k, v := range m.departments {
		s.departments[k] = v
	}
	for k, v := range m.admins {
		s.admins[k] = v
	}
	for k, v := range m.links {
		s.links[k] = v
	}
	for k, v := range m.schedules {
		s.schedules[k] = v
	}
	return s
}

func (m *MemoryStore) restore(s memorySnapshot) {
	m.departments = s.departments
	m.admins = s.admins
	m.links = s.links
	m.schedules = s.schedules
	m.audits = s.audits
	m.Writes = s.writes
}

func (m *MemoryStore) FindDepartmentByID(_ context.Context, id uuid.UUID) (*model.DepartmentModel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("FindDepartmentByID"); err != nil {
		return nil, err
	}
	d, ok := m.departments[id]
	if !ok {
		return nil, ErrDepartmentNotFound
	}
	return &d, nil
}

func (m *MemoryStore) FindDepartmentByCode(_ context.Context, code string) (*model.DepartmentModel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := normalizer.Normalize(code)
	for _, d := range m.departments {
		if d.DepartmentCode == key {
			return &d, nil
		}
	}
	return nil, ErrDepartmentNotFound
}

func (m *MemoryStore) ListDepartments(_ context.Context) ([]model.DepartmentModel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.DepartmentModel, 0, len(m.departments))
	for _, d := range m.departments {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DepartmentCode < out[j].DepartmentCode })
	return out, nil
}

func (m *MemoryStore) CreateDepartment(_ context.Context, d *model.DepartmentModel) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("CreateDepartment"); err != nil {
		return err
	}
	_ = d.BeforeCreate(nil)
	_ = d.BeforeSave(nil)
	for _, other := range m.departments {
		if other.DepartmentCode == d.DepartmentCode {
			return fmt.Errorf("%w: %s", ErrDepartmentExists, d.DepartmentCode)
		}
	}
	m.departments[d.DepartmentID] = *d
	m.Writes++
	return nil
}

func (m *MemoryStore) SaveDepartment(_ context.Context, d *model.DepartmentModel) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("SaveDepartment"); err != nil {
		return err
	}
	_ = d.BeforeSave(nil)
	m.departments[d.DepartmentID] = *d
	m.Writes++
	return nil
}

func (m *MemoryStore) FindAdminByID(_ context.Context, id uuid.UUID) (*model.AdminModel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.admins[id]
	if !ok {
		return nil, ErrAdminNotFound
	}
	return &a, nil
}

func (m *MemoryStore) ListAdminsByDepartmentCode(_ context.Context, code string) ([]model.AdminModel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("ListAdminsByDepartmentCode"); err != nil {
		return nil, err
	}
	key := normalizer.Normalize(code)
	var out []model.AdminModel
	for _, a := range m.admins {
		if a.AdminDepartment == key {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AdminEmail < out[j].AdminEmail })
	return out, nil
}

func (m *MemoryStore) ListDepartmentAdmins(_ context.Context, departmentID uuid.UUID) ([]model.DepartmentAdminModel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.DepartmentAdminModel
	for _, l := range m.links {
		if l.DepartmentID == departmentID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *MemoryStore) FindDepartmentAdmin(_ context.Context, adminID, departmentID uuid.UUID) (*model.DepartmentAdminModel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.links {
		if l.AdminID == adminID && l.DepartmentID == departmentID {
			return &l, nil
		}
	}
	return nil, ErrLinkNotFound
}

func (m *MemoryStore) SaveDepartmentAdmin(_ context.Context, link *model.DepartmentAdminModel) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("SaveDepartmentAdmin"); err != nil {
		return err
	}
	_ = link.BeforeCreate(nil)
	m.links[link.DepartmentAdminID] = *link
	m.Writes++
	return nil
}

func (m *MemoryStore) FindSchedule(_ context.Context, departmentCode string) (*model.FacultySelectionScheduleModel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.schedules[normalizer.Normalize(departmentCode)]
	if !ok {
		return nil, ErrScheduleNotFound
	}
	return &s, nil
}

func (m *MemoryStore) CreateSchedule(_ context.Context, s *model.FacultySelectionScheduleModel) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("CreateSchedule"); err != nil {
		return err
	}
	_ = s.BeforeCreate(nil)
	_ = s.BeforeSave(nil)
	if _, ok := m.schedules[s.ScheduleDepartment]; ok {
		return fmt.Errorf("schedule for %s already exists", s.ScheduleDepartment)
	}
	m.schedules[s.ScheduleDepartment] = *s
	m.Writes++
	return nil
}

func (m *MemoryStore) WriteAudit(_ context.Context, entry *auditModel.AuditLogModel) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailAudit != nil {
		return m.FailAudit
	}
	_ = entry.BeforeCreate(nil)
	m.audits = append(m.audits, *entry)
	return nil
}

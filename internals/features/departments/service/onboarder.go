package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	auditService "github.com/shahid-afrid/tutorlivework-sub001/internals/features/audit/service"
	"github.com/shahid-afrid/tutorlivework-sub001/internals/features/departments/model"
	"github.com/shahid-afrid/tutorlivework-sub001/internals/features/departments/repository"
	"github.com/shahid-afrid/tutorlivework-sub001/internals/features/tenancy/normalizer"
	"github.com/shahid-afrid/tutorlivework-sub001/internals/features/tenancy/provisioner"
	"github.com/shahid-afrid/tutorlivework-sub001/internals/helpers/logger"
	"github.com/shahid-afrid/tutorlivework-sub001/internals/helpers/metrics"
)

type Step string

const (
	StepLoadDepartment Step = "load_department"
	StepCreateTables   Step = "create_tables"
	StepApplyDefaults  Step = "apply_defaults"
	StepEnsureSchedule Step = "ensure_schedule"
	StepGrantAdmins    Step = "grant_admins"
	StepWriteAudit     Step = "write_audit"
	StepCommit         Step = "commit"
)

// Steps lists the onboarding saga in execution order.
var Steps = []Step{
	StepLoadDepartment, StepCreateTables, StepApplyDefaults,
	StepEnsureSchedule, StepGrantAdmins, StepWriteAudit, StepCommit,
}

// TableProvisioner is satisfied by *provisioner.Provisioner.
type TableProvisioner interface {
	CreateTenantTables(ctx context.Context, tenantKey string) provisioner.Result
}

// CacheInvalidator is satisfied by *router.Router.
type CacheInvalidator interface {
	ClearCache(tenantKeyRaw string)
}

// OnboardReport tells the caller how far onboarding got. Every step is
// idempotent, so a failed run is resumed by running it again.
type OnboardReport struct {
	DepartmentID uuid.UUID          `json:"department_id"`
	TenantKey    string             `json:"tenant_key"`
	Completed    []Step             `json:"completed"`
	FailedStep   Step               `json:"failed_step,omitempty"`
	Err          error              `json:"-"`
	Tables       provisioner.Result `json:"-"`
	AuditDropped bool               `json:"audit_dropped,omitempty"`
	AdminsLinked int                `json:"admins_linked"`
}

func (r *OnboardReport) OK() bool {
	return r.Err == nil && r.FailedStep == ""
}

func (r *OnboardReport) fail(step Step, err error) {
	r.FailedStep = step
	r.Err = err
}

type Onboarder struct {
	store  repository.Store
	tables TableProvisioner
	cache  CacheInvalidator
	audit  *auditService.Recorder
	log    *zap.Logger
	now    func() time.Time
}

func NewOnboarder(store repository.Store, tables TableProvisioner, cache CacheInvalidator, audit *auditService.Recorder, log *zap.Logger) *Onboarder {
	log = logger.OrNop(log)
	if audit == nil {
		audit = auditService.NewRecorder(log)
	}
	return &Onboarder{
		store:  store,
		tables: tables,
		cache:  cache,
		audit:  audit,
		log:    log.Named("onboarder"),
		now:    time.Now,
	}
}

// OnboardTenant is the boolean form of Onboard.
func (o *Onboarder) OnboardTenant(ctx context.Context, departmentID uuid.UUID) bool {
	return o.Onboard(ctx, departmentID).OK()
}

// Onboard provisions tenant tables, then applies department defaults, the
// selection schedule and admin grants in one metadata transaction. Table
// creation is never undone by a later failure.
func (o *Onboarder) Onboard(ctx context.Context, departmentID uuid.UUID) *OnboardReport {
	rep := &OnboardReport{DepartmentID: departmentID}
	defer func() {
		result := "ok"
		if !rep.OK() {
			result = string(rep.FailedStep)
		}
		metrics.OnboardTotal.WithLabelValues(result).Inc()
	}()

	// 1. load
	dept, err := o.store.FindDepartmentByID(ctx, departmentID)
	if err != nil {
		rep.fail(StepLoadDepartment, err)
		o.log.Warn("onboarding aborted: department lookup failed", zap.Stringer("department_id", departmentID), zap.Error(err))
		return rep
	}
	rep.TenantKey = normalizer.Normalize(dept.DepartmentCode)
	rep.Completed = append(rep.Completed, StepLoadDepartment)

	// 2. tables; outcome is recorded but never aborts
	rep.Tables = o.tables.CreateTenantTables(ctx, rep.TenantKey)
	switch {
	case rep.Tables.Created:
		if o.cache != nil {
			o.cache.ClearCache(rep.TenantKey)
		}
		o.log.Info("tenant tables created", zap.String("tenant", rep.TenantKey))
	case rep.Tables.Conflict():
		o.log.Info("tenant tables already present, continuing", zap.String("tenant", rep.TenantKey))
	default:
		o.log.Warn("tenant table provisioning did not succeed, continuing",
			zap.String("tenant", rep.TenantKey),
			zap.String("status", string(rep.Tables.Status)),
			zap.String("message", rep.Tables.Message),
		)
	}
	rep.Completed = append(rep.Completed, StepCreateTables)

	// 3-7. metadata transaction; steps are only reported once it commits
	var staged []Step
	current := StepApplyDefaults
	err = o.store.Transaction(ctx, func(tx repository.Store) error {
		staged = staged[:0]

		current = StepApplyDefaults
		before := *dept
		dept.ApplyDefaults()
		if err := tx.SaveDepartment(ctx, dept); err != nil {
			return fmt.Errorf("apply defaults: %w", err)
		}
		staged = append(staged, StepApplyDefaults)

		current = StepEnsureSchedule
		if err := o.ensureSchedule(ctx, tx, rep.TenantKey); err != nil {
			return err
		}
		staged = append(staged, StepEnsureSchedule)

		current = StepGrantAdmins
		linked, err := o.grantAdmins(ctx, tx, dept)
		if err != nil {
			return err
		}
		rep.AdminsLinked = linked
		staged = append(staged, StepGrantAdmins)

		current = StepWriteAudit
		ok := o.audit.Record(ctx, tx, auditService.Entry{
			Action:      auditService.ActionTenantOnboarded,
			EntityType:  "department",
			EntityID:    dept.DepartmentID.String(),
			Description: fmt.Sprintf("onboarded tenant %s (tables: %s)", rep.TenantKey, rep.Tables.Status),
			Old:         before,
			New:         dept,
		})
		rep.AuditDropped = !ok
		staged = append(staged, StepWriteAudit)

		current = StepCommit
		return nil
	})
	if err != nil {
		rep.fail(current, err)
		o.log.Error("onboarding failed",
			zap.String("tenant", rep.TenantKey),
			zap.String("step", string(current)),
			zap.Error(err),
		)
		return rep
	}
	rep.Completed = append(rep.Completed, staged...)
	rep.Completed = append(rep.Completed, StepCommit)
	o.log.Info("tenant onboarded", zap.String("tenant", rep.TenantKey), zap.Int("admins_linked", rep.AdminsLinked))
	return rep
}

func (o *Onboarder) ensureSchedule(ctx context.Context, tx repository.Store, key string) error {
	_, err := tx.FindSchedule(ctx, key)
	switch {
	case err == nil:
		return nil
	case !errors.Is(err, repository.ErrScheduleNotFound):
		return fmt.Errorf("load schedule: %w", err)
	}
	if err := tx.CreateSchedule(ctx, &model.FacultySelectionScheduleModel{ScheduleDepartment: key}); err != nil {
		return fmt.Errorf("create schedule: %w", err)
	}
	return nil
}

// grantAdmins upgrades existing links to full capabilities and links every
// admin whose home department is this tenant. Returns the number of new links.
func (o *Onboarder) grantAdmins(ctx context.Context, tx repository.Store, dept *model.DepartmentModel) (int, error) {
	links, err := tx.ListDepartmentAdmins(ctx, dept.DepartmentID)
	if err != nil {
		return 0, fmt.Errorf("list department admins: %w", err)
	}
	for i := range links {
		if links[i].HasAll() {
			continue
		}
		links[i].GrantAll()
		if err := tx.SaveDepartmentAdmin(ctx, &links[i]); err != nil {
			return 0, fmt.Errorf("upgrade admin link: %w", err)
		}
	}

	admins, err := tx.ListAdminsByDepartmentCode(ctx, dept.DepartmentCode)
	if err != nil {
		return 0, fmt.Errorf("list admins: %w", err)
	}
	created := 0
	for _, a := range admins {
		_, err := tx.FindDepartmentAdmin(ctx, a.AdminID, dept.DepartmentID)
		if err == nil {
			continue
		}
		if !errors.Is(err, repository.ErrLinkNotFound) {
			return 0, fmt.Errorf("load admin link: %w", err)
		}
		link := &model.DepartmentAdminModel{AdminID: a.AdminID, DepartmentID: dept.DepartmentID, AssignedAt: o.now()}
		link.GrantAll()
		if err := tx.SaveDepartmentAdmin(ctx, link); err != nil {
			return 0, fmt.Errorf("link admin %s: %w", a.AdminID, err)
		}
		created++
	}
	return created, nil
}

// GrantAdminAccess gives adminID every capability on departmentID, creating
// the link if needed. Failures are logged and reported as false.
func (o *Onboarder) GrantAdminAccess(ctx context.Context, adminID, departmentID uuid.UUID) bool {
	err := o.store.Transaction(ctx, func(tx repository.Store) error {
		admin, err := tx.FindAdminByID(ctx, adminID)
		if err != nil {
			return err
		}
		dept, err := tx.FindDepartmentByID(ctx, departmentID)
		if err != nil {
			return err
		}

		link, err := tx.FindDepartmentAdmin(ctx, adminID, departmentID)
		switch {
		case errors.Is(err, repository.ErrLinkNotFound):
			link = &model.DepartmentAdminModel{AdminID: adminID, DepartmentID: departmentID, AssignedAt: o.now()}
		case err != nil:
			return err
		}
		before := *link
		link.GrantAll()
		if err := tx.SaveDepartmentAdmin(ctx, link); err != nil {
			return err
		}

		o.audit.Record(ctx, tx, auditService.Entry{
			Action:      auditService.ActionAdminGranted,
			EntityType:  "department_admin",
			EntityID:    link.DepartmentAdminID.String(),
			Description: fmt.Sprintf("granted %s full access to %s", admin.AdminEmail, dept.DepartmentCode),
			Old:         before,
			New:         link,
		})
		return nil
	})
	if err != nil {
		o.log.Warn("grant admin access failed",
			zap.Stringer("admin_id", adminID),
			zap.Stringer("department_id", departmentID),
			zap.Error(err),
		)
		return false
	}
	return true
}

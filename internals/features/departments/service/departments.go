package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	auditService "github.com/shahid-afrid/tutorlivework-sub001/internals/features/audit/service"
	"github.com/shahid-afrid/tutorlivework-sub001/internals/features/departments/model"
	"github.com/shahid-afrid/tutorlivework-sub001/internals/features/departments/repository"
	"github.com/shahid-afrid/tutorlivework-sub001/internals/features/tenancy/normalizer"
	"github.com/shahid-afrid/tutorlivework-sub001/internals/features/tenancy/schema"
)

var (
	ErrInvalidDepartmentCode = errors.New("invalid department code")
	ErrUnknownFeature        = errors.New("unknown department feature")
)

type Feature string

const (
	FeatureActive              Feature = "active"
	FeatureStudentRegistration Feature = "student_registration"
	FeatureFacultyAssignment   Feature = "faculty_assignment"
	FeatureSubjectSelection    Feature = "subject_selection"
)

type CreateDepartmentInput struct {
	Code  string
	Name  string
	Actor string
}

type DepartmentPatch struct {
	Name     *string
	IsActive *bool
	Actor    string
}

type ScheduleConfiguration struct {
	Enabled   bool       `json:"enabled"`
	UseWindow bool       `json:"use_window"`
	StartsAt  *time.Time `json:"starts_at,omitempty"`
	EndsAt    *time.Time `json:"ends_at,omitempty"`
	OpenNow   bool       `json:"open_now"`
}

// TenantConfiguration is the read model a caller needs to serve a tenant.
type TenantConfiguration struct {
	DepartmentID             uuid.UUID              `json:"department_id"`
	TenantKey                string                 `json:"tenant_key"`
	Name                     string                 `json:"name"`
	IsActive                 bool                   `json:"is_active"`
	AllowStudentRegistration bool                   `json:"allow_student_registration"`
	AllowFacultyAssignment   bool                   `json:"allow_faculty_assignment"`
	AllowSubjectSelection    bool                   `json:"allow_subject_selection"`
	Tables                   schema.TableSet        `json:"tables"`
	Schedule                 *ScheduleConfiguration `json:"schedule,omitempty"`
	AdminCount               int                    `json:"admin_count"`
}

// CreateDepartment stores a new department under its canonical code.
func (o *Onboarder) CreateDepartment(ctx context.Context, in CreateDepartmentInput) (*model.DepartmentModel, error) {
	key := normalizer.Normalize(strings.TrimSpace(in.Code))
	if !normalizer.IsProvisionable(key) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDepartmentCode, in.Code)
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = key
	}

	d := &model.DepartmentModel{DepartmentCode: key, DepartmentName: name}
	err := o.store.Transaction(ctx, func(tx repository.Store) error {
		if _, err := tx.FindDepartmentByCode(ctx, key); err == nil {
			return fmt.Errorf("%w: %s", repository.ErrDepartmentExists, key)
		} else if !errors.Is(err, repository.ErrDepartmentNotFound) {
			return err
		}
		if err := tx.CreateDepartment(ctx, d); err != nil {
			return err
		}
		o.audit.Record(ctx, tx, auditService.Entry{
			Actor:       in.Actor,
			Action:      auditService.ActionDepartmentCreated,
			EntityType:  "department",
			EntityID:    d.DepartmentID.String(),
			Description: "created department " + key,
			New:         d,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	o.log.Info("department created", zap.String("tenant", key), zap.Stringer("department_id", d.DepartmentID))
	return d, nil
}

// ProvisionDepartment creates the department and onboards it in one call.
func (o *Onboarder) ProvisionDepartment(ctx context.Context, in CreateDepartmentInput) (*model.DepartmentModel, *OnboardReport, error) {
	d, err := o.CreateDepartment(ctx, in)
	if err != nil {
		return nil, nil, err
	}
	return d, o.Onboard(ctx, d.DepartmentID), nil
}

// UpdateDepartment applies patch. The code is immutable since it names the tenant tables.
func (o *Onboarder) UpdateDepartment(ctx context.Context, id uuid.UUID, patch DepartmentPatch) (*model.DepartmentModel, error) {
	var out *model.DepartmentModel
	err := o.store.Transaction(ctx, func(tx repository.Store) error {
		d, err := tx.FindDepartmentByID(ctx, id)
		if err != nil {
			return err
		}
		before := *d
		if patch.Name != nil {
			if n := strings.TrimSpace(*patch.Name); n != "" {
				d.DepartmentName = n
			}
		}
		if patch.IsActive != nil {
			d.DepartmentIsActive = *patch.IsActive
		}
		if err := tx.SaveDepartment(ctx, d); err != nil {
			return err
		}
		o.audit.Record(ctx, tx, auditService.Entry{
			Actor:      patch.Actor,
			Action:     auditService.ActionDepartmentUpdated,
			EntityType: "department",
			EntityID:   d.DepartmentID.String(),
			Old:        before,
			New:        d,
		})
		out = d
		return nil
	})
	return out, err
}

// ToggleFeature flips one department flag.
func (o *Onboarder) ToggleFeature(ctx context.Context, id uuid.UUID, feature Feature, enabled bool, actor string) (*model.DepartmentModel, error) {
	var out *model.DepartmentModel
	err := o.store.Transaction(ctx, func(tx repository.Store) error {
		d, err := tx.FindDepartmentByID(ctx, id)
		if err != nil {
			return err
		}
		before := *d
		switch feature {
		case FeatureActive:
			d.DepartmentIsActive = enabled
		case FeatureStudentRegistration:
			d.DepartmentAllowStudentRegistration = enabled
		case FeatureFacultyAssignment:
			d.DepartmentAllowFacultyAssignment = enabled
		case FeatureSubjectSelection:
			d.DepartmentAllowSubjectSelection = enabled
		default:
			return fmt.Errorf("%w: %q", ErrUnknownFeature, feature)
		}
		if err := tx.SaveDepartment(ctx, d); err != nil {
			return err
		}
		o.audit.Record(ctx, tx, auditService.Entry{
			Actor:       actor,
			Action:      auditService.ActionFeatureToggled,
			EntityType:  "department",
			EntityID:    d.DepartmentID.String(),
			Description: fmt.Sprintf("%s=%t", feature, enabled),
			Old:         before,
			New:         d,
		})
		out = d
		return nil
	})
	return out, err
}

func (o *Onboarder) ListDepartments(ctx context.Context) ([]model.DepartmentModel, error) {
	return o.store.ListDepartments(ctx)
}

func (o *Onboarder) FindDepartment(ctx context.Context, raw string) (*model.DepartmentModel, error) {
	return o.store.FindDepartmentByCode(ctx, strings.TrimSpace(raw))
}

// GetConfiguration resolves any spelling of a department to its configuration.
// The bool is false when the department does not exist or cannot be read.
func (o *Onboarder) GetConfiguration(ctx context.Context, raw string) (*TenantConfiguration, bool) {
	key := normalizer.Normalize(strings.TrimSpace(raw))
	if key == "" {
		return nil, false
	}
	d, err := o.store.FindDepartmentByCode(ctx, key)
	if err != nil {
		if !errors.Is(err, repository.ErrDepartmentNotFound) {
			o.log.Warn("load department configuration failed", zap.String("tenant", key), zap.Error(err))
		}
		return nil, false
	}

	cfg := &TenantConfiguration{
		DepartmentID:             d.DepartmentID,
		TenantKey:                d.DepartmentCode,
		Name:                     d.DepartmentName,
		IsActive:                 d.DepartmentIsActive,
		AllowStudentRegistration: d.DepartmentAllowStudentRegistration,
		AllowFacultyAssignment:   d.DepartmentAllowFacultyAssignment,
		AllowSubjectSelection:    d.DepartmentAllowSubjectSelection,
		Tables:                   schema.NewTableSet(d.DepartmentCode),
	}
	if s, err := o.store.FindSchedule(ctx, key); err == nil {
		cfg.Schedule = &ScheduleConfiguration{
			Enabled:   s.ScheduleIsEnabled,
			UseWindow: s.ScheduleUseWindow,
			StartsAt:  s.ScheduleStartsAt,
			EndsAt:    s.ScheduleEndsAt,
			OpenNow:   s.IsOpen(o.now()),
		}
	}
	if links, err := o.store.ListDepartmentAdmins(ctx, d.DepartmentID); err == nil {
		cfg.AdminCount = len(links)
	}
	return cfg, true
}

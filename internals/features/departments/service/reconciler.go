package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/lib/pq"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	auditService "github.com/shahid-afrid/tutorlivework-sub001/internals/features/audit/service"
	deptModel "github.com/shahid-afrid/tutorlivework-sub001/internals/features/departments/model"
	tenantModel "github.com/shahid-afrid/tutorlivework-sub001/internals/features/tenancy/model"
	"github.com/shahid-afrid/tutorlivework-sub001/internals/features/tenancy/normalizer"
	"github.com/shahid-afrid/tutorlivework-sub001/internals/features/tenancy/schema"
	"github.com/shahid-afrid/tutorlivework-sub001/internals/helpers/logger"
	"github.com/shahid-afrid/tutorlivework-sub001/internals/helpers/metrics"
)

type Kind string

const (
	KindDepartments        Kind = "Departments"
	KindAdmins             Kind = "Admins"
	KindStudents           Kind = "Students"
	KindFaculty            Kind = "Faculty"
	KindSubjects           Kind = "Subjects"
	KindSubjectAssignments Kind = "SubjectAssignments"
)

// Target is one table column holding a department value.
type Target struct {
	Kind   Kind
	Table  string
	Column string
}

var DefaultTargets = []Target{
	{Kind: KindDepartments, Table: deptModel.DepartmentModel{}.TableName(), Column: "department_code"},
	{Kind: KindAdmins, Table: deptModel.AdminModel{}.TableName(), Column: "admin_department"},
	{Kind: KindStudents, Table: tenantModel.Student{}.TableName(), Column: "department"},
	{Kind: KindFaculty, Table: tenantModel.Faculty{}.TableName(), Column: "department"},
	{Kind: KindSubjects, Table: tenantModel.Subject{}.TableName(), Column: "department"},
	{Kind: KindSubjectAssignments, Table: tenantModel.AssignedSubject{}.TableName(), Column: "department"},
}

// tenantKinds are the per-tenant entities carrying a department column.
var tenantKinds = []struct {
	Entity schema.Entity
	Kind   Kind
}{
	{schema.Faculty, KindFaculty},
	{schema.Students, KindStudents},
	{schema.Subjects, KindSubjects},
	{schema.AssignedSubjects, KindSubjectAssignments},
}

// TableChecker is satisfied by *provisioner.Provisioner.
type TableChecker interface {
	TableExists(ctx context.Context, name string) (bool, error)
}

type valueCount struct {
	Value string
	Total int64
}

// Reconciler finds and rewrites department values that are not in canonical form.
type Reconciler struct {
	db      *gorm.DB
	targets []Target
	tenants TableChecker
	audit   *auditService.Recorder
	log     *zap.Logger
}

type ReconcilerOption func(*Reconciler)

func WithTargets(t ...Target) ReconcilerOption {
	return func(r *Reconciler) { r.targets = t }
}

// WithTenantTables extends every scan with the department column of each
// provisioned tenant's tables. Tenants come from the departments table.
func WithTenantTables(tc TableChecker) ReconcilerOption {
	return func(r *Reconciler) { r.tenants = tc }
}

func NewReconciler(db *gorm.DB, audit *auditService.Recorder, log *zap.Logger, opts ...ReconcilerOption) *Reconciler {
	log = logger.OrNop(log)
	if audit == nil {
		audit = auditService.NewRecorder(log)
	}
	r := &Reconciler{db: db, targets: DefaultTargets, audit: audit, log: log.Named("reconciler")}
	for _, o := range opts {
		o(r)
	}
	return r
}

// FindMismatches counts, per kind, the rows whose department value differs
// from its normalized form. Tables are scanned concurrently.
func (r *Reconciler) FindMismatches(ctx context.Context) (map[string]int64, error) {
	targets, err := r.scanTargets(ctx)
	if err != nil {
		return nil, err
	}
	counts := make([]int64, len(targets))
	g, gctx := errgroup.WithContext(ctx)
	for i, t := range targets {
		g.Go(func() error {
			values, err := distinctValues(r.db.WithContext(gctx), t)
			if err != nil {
				return fmt.Errorf("%s %s: %w", t.Kind, t.Table, err)
			}
			for _, v := range values {
				if normalizer.Normalize(v.Value) != v.Value {
					counts[i] += v.Total
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string]int64, len(DefaultTargets))
	for i, t := range targets {
		out[string(t.Kind)] += counts[i]
	}
	return out, nil
}

// FixMismatches rewrites every non-canonical value, one transaction per table.
// A failing table is rolled back on its own; the others still commit.
func (r *Reconciler) FixMismatches(ctx context.Context) (map[string]int64, error) {
	targets, err := r.scanTargets(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(DefaultTargets))
	var errs []error
	for _, t := range targets {
		fixed, err := r.fixTarget(ctx, t)
		out[string(t.Kind)] += fixed
		if err != nil {
			r.log.Error("mismatch fix rolled back",
				zap.String("kind", string(t.Kind)),
				zap.String("table", t.Table),
				zap.Error(err))
			errs = append(errs, fmt.Errorf("%s %s: %w", t.Kind, t.Table, err))
			continue
		}
		if fixed > 0 {
			metrics.MismatchesFixed.WithLabelValues(string(t.Kind)).Add(float64(fixed))
			r.log.Info("department values normalized",
				zap.String("kind", string(t.Kind)),
				zap.String("table", t.Table),
				zap.Int64("rows", fixed))
		}
	}
	return out, errors.Join(errs...)
}

// scanTargets is the configured targets plus, with WithTenantTables, the
// tables of every department whose tenant tables exist.
func (r *Reconciler) scanTargets(ctx context.Context) ([]Target, error) {
	out := append([]Target(nil), r.targets...)
	if r.tenants == nil {
		return out, nil
	}

	var codes []string
	if err := r.db.WithContext(ctx).Model(&deptModel.DepartmentModel{}).
		Order("department_code").
		Pluck("department_code", &codes).Error; err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}

	seen := make(map[string]bool, len(codes))
	for _, code := range codes {
		key := normalizer.Normalize(code)
		if seen[key] || !normalizer.IsProvisionable(key) {
			continue
		}
		seen[key] = true

		set := schema.NewTableSet(key)
		ok, err := r.tenants.TableExists(ctx, set.Faculty)
		if err != nil {
			return nil, err
		}
		if !ok {
			r.log.Debug("tenant tables not provisioned, skipping", zap.String("tenant", key))
			continue
		}
		for _, tk := range tenantKinds {
			out = append(out, Target{Kind: tk.Kind, Table: set.Name(tk.Entity), Column: "department"})
		}
	}
	return out, nil
}

func (r *Reconciler) fixTarget(ctx context.Context, t Target) (int64, error) {
	var fixed int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		values, err := distinctValues(tx, t)
		if err != nil {
			return err
		}
		changes := map[string]string{}
		update := fmt.Sprintf("UPDATE %s SET %s = ? WHERE %s = ?",
			pq.QuoteIdentifier(t.Table), pq.QuoteIdentifier(t.Column), pq.QuoteIdentifier(t.Column))
		for _, v := range values {
			canonical := normalizer.Normalize(v.Value)
			if canonical == v.Value {
				continue
			}
			res := tx.Exec(update, canonical, v.Value)
			if res.Error != nil {
				return fmt.Errorf("normalize %q: %w", v.Value, res.Error)
			}
			fixed += res.RowsAffected
			changes[v.Value] = canonical
		}
		if fixed > 0 {
			r.audit.Record(ctx, auditService.GormWriter{DB: tx}, auditService.Entry{
				Action:      auditService.ActionMismatchFixed,
				EntityType:  t.Table,
				EntityID:    t.Column,
				Description: fmt.Sprintf("normalized %d rows", fixed),
				New:         changes,
			})
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return fixed, nil
}

func distinctValues(db *gorm.DB, t Target) ([]valueCount, error) {
	col := pq.QuoteIdentifier(t.Column)
	var rows []valueCount
	err := db.Raw(fmt.Sprintf("SELECT %s AS value, COUNT(*) AS total FROM %s GROUP BY %s",
		col, pq.QuoteIdentifier(t.Table), col)).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Value < rows[j].Value })
	return rows, nil
}

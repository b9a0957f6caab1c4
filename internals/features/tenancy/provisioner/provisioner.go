// file: internals/features/tenancy/provisioner/provisioner.go
package provisioner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/shahid-afrid/tutorlivework-sub001/internals/features/tenancy/normalizer"
	"github.com/shahid-afrid/tutorlivework-sub001/internals/features/tenancy/schema"
	"github.com/shahid-afrid/tutorlivework-sub001/internals/helpers/logger"
	"github.com/shahid-afrid/tutorlivework-sub001/internals/helpers/metrics"
)

type Status string

const (
	StatusCreated       Status = "created"
	StatusAlreadyExists Status = "already_exists"
	StatusInvalidKey    Status = "invalid_key"
	StatusFailed        Status = "failed"
)

const DefaultDDLTimeout = 5 * time.Minute

type Phase string

const (
	PhaseTableCreated Phase = "table_created"
	PhaseTableFailed  Phase = "table_failed"
	PhaseRolledBack   Phase = "rolled_back"
	PhaseCommitted    Phase = "committed"
)

// Event is one progress or failure notice emitted while provisioning.
type Event struct {
	TenantKey string
	Table     string
	Phase     Phase
	Err       error
	At        time.Time
}

type Result struct {
	Created   bool
	Status    Status
	TenantKey string
	Message   string
	Tables    []string
	Events    []Event
}

// Conflict reports the "tables already exist" outcome, which callers treat as a re-setup.
func (r Result) Conflict() bool { return r.Status == StatusAlreadyExists }

var errTablesExist = errors.New("tenant tables already exist")

type Provisioner struct {
	db       *gorm.DB
	log      *zap.Logger
	timeout  time.Duration
	observer func(Event)
}

type Option func(*Provisioner)

func WithTimeout(d time.Duration) Option {
	return func(p *Provisioner) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithObserver receives every Event synchronously, in emission order.
func WithObserver(fn func(Event)) Option {
	return func(p *Provisioner) { p.observer = fn }
}

func New(db *gorm.DB, log *zap.Logger, opts ...Option) *Provisioner {
	p := &Provisioner{
		db:      db,
		log:     logger.OrNop(log).Named("provisioner"),
		timeout: DefaultDDLTimeout,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// ListTenantTableNames derives the five physical names for key; no I/O.
func ListTenantTableNames(key string) []string {
	return schema.Names(key)
}

func (p *Provisioner) ListTenantTableNames(key string) []string {
	return ListTenantTableNames(key)
}

// TableExists looks name up in the current schema's catalog.
func (p *Provisioner) TableExists(ctx context.Context, name string) (bool, error) {
	var ok bool
	err := p.db.WithContext(ctx).Raw(
		`SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_schema = current_schema() AND table_name = ?)`,
		name,
	).Scan(&ok).Error
	if err != nil {
		return false, fmt.Errorf("check table %s: %w", name, err)
	}
	return ok, nil
}

// CreateTenantTables materializes the tenant table set in one transaction.
// Either all five tables exist afterwards or none of them were created.
func (p *Provisioner) CreateTenantTables(ctx context.Context, tenantKey string) Result {
	key := normalizer.Normalize(tenantKey)
	res := Result{
		Status:    StatusFailed,
		TenantKey: key,
		Tables:    schema.Names(key),
	}

	if !normalizer.IsProvisionable(key) {
		res.Status = StatusInvalidKey
		res.Message = fmt.Sprintf("invalid tenant key %q", tenantKey)
		p.log.Warn("rejected tenant key", zap.String("raw", tenantKey), zap.String("key", key))
		metrics.ProvisionTotal.WithLabelValues(string(res.Status)).Inc()
		return res
	}

	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	var existing []string
	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Serializes concurrent provisioning of the same key across processes.
		if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", LockKey(key)).Error; err != nil {
			return fmt.Errorf("acquire tenant lock: %w", err)
		}
		if err := tx.Exec(fmt.Sprintf("SET LOCAL statement_timeout = %d", p.timeout.Milliseconds())).Error; err != nil {
			return fmt.Errorf("set statement timeout: %w", err)
		}

		found, err := existingTables(tx, res.Tables)
		if err != nil {
			return err
		}
		if len(found) > 0 {
			existing = found
			return errTablesExist
		}

		for _, t := range schema.Tables {
			name := schema.TableName(t.Entity, key)
			for _, stmt := range t.CreateStatements(key) {
				if err := tx.Exec(stmt).Error; err != nil {
					p.emit(&res, Event{Table: name, Phase: PhaseTableFailed, Err: err})
					return fmt.Errorf("create %s: %w", name, err)
				}
			}
			p.emit(&res, Event{Table: name, Phase: PhaseTableCreated})
		}
		return nil
	})
	metrics.ProvisionDuration.Observe(time.Since(start).Seconds())

	switch {
	case errors.Is(err, errTablesExist):
		res.Status = StatusAlreadyExists
		res.Message = fmt.Sprintf("tables for tenant %s already exist: %s", key, strings.Join(existing, ", "))
		p.log.Info("tenant tables already exist", zap.String("tenant", key), zap.Strings("existing", existing))
	case err != nil:
		res.Status = StatusFailed
		res.Message = fmt.Sprintf("failed to create tables for tenant %s, transaction rolled back: %v", key, err)
		p.emit(&res, Event{Phase: PhaseRolledBack, Err: err})
		p.log.Error("tenant provisioning failed", zap.String("tenant", key), zap.Error(err))
	default:
		res.Created = true
		res.Status = StatusCreated
		res.Message = fmt.Sprintf("created %d tables for tenant %s", len(res.Tables), key)
		p.emit(&res, Event{Phase: PhaseCommitted})
		p.log.Info("tenant tables created", zap.String("tenant", key), zap.Duration("took", time.Since(start)))
	}

	metrics.ProvisionTotal.WithLabelValues(string(res.Status)).Inc()
	return res
}

// LockKey is the advisory-lock namespace for a tenant.
func LockKey(key string) string { return "tenant:" + key }

func existingTables(tx *gorm.DB, names []string) ([]string, error) {
	var found []string
	err := tx.Raw(
		`SELECT table_name FROM information_schema.tables WHERE table_schema = current_schema() AND table_name IN ?`,
		names,
	).Scan(&found).Error
	if err != nil {
		return nil, fmt.Errorf("check existing tables: %w", err)
	}
	return found, nil
}

func (p *Provisioner) emit(res *Result, ev Event) {
	ev.TenantKey = res.TenantKey
	ev.At = time.Now()
	res.Events = append(res.Events, ev)

	fields := []zap.Field{zap.String("tenant", ev.TenantKey), zap.String("phase", string(ev.Phase))}
	if ev.Table != "" {
		fields = append(fields, zap.String("table", ev.Table))
	}
	if ev.Err != nil {
		p.log.Warn("provisioning event", append(fields, zap.Error(ev.Err))...)
	} else {
		p.log.Debug("provisioning event", fields...)
	}

	if p.observer != nil {
		p.observer(ev)
	}
}

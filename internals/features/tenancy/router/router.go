// file: internals/features/tenancy/router/router.go
package router

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/shahid-afrid/tutorlivework-sub001/internals/features/tenancy/normalizer"
	"github.com/shahid-afrid/tutorlivework-sub001/internals/features/tenancy/schema"
	"github.com/shahid-afrid/tutorlivework-sub001/internals/helpers/logger"
	"github.com/shahid-afrid/tutorlivework-sub001/internals/helpers/metrics"
)

var (
	ErrEmptyTenantKey   = errors.New("tenant key is empty")
	ErrInvalidTenantKey = errors.New("tenant key cannot name tenant tables")
	ErrHandleReleased   = errors.New("tenant handle already released")
)

// Template is the cached, tenant-wide binding configuration. It holds table
// names only, never tenant data.
type Template struct {
	TenantKey string
	Tables    schema.TableSet
	CreatedAt time.Time
}

// =======================
// TEMPLATE CACHE
// =======================

// TemplateCache keeps one Template per canonical tenant key for the process
// lifetime. Entries leave only through Invalidate/InvalidateAll.
type TemplateCache struct {
	entries sync.Map
	size    atomic.Int64
}

func NewTemplateCache() *TemplateCache {
	return &TemplateCache{}
}

func (c *TemplateCache) Get(key string) (*Template, bool) {
	v, ok := c.entries.Load(key)
	if !ok {
		return nil, false
	}
	return v.(*Template), true
}

// GetOrBuild returns the cached template for key, building it on a miss.
// The bool reports a cache hit.
func (c *TemplateCache) GetOrBuild(key string) (*Template, bool) {
	if t, ok := c.Get(key); ok {
		return t, true
	}
	fresh := &Template{TenantKey: key, Tables: schema.NewTableSet(key), CreatedAt: time.Now()}
	actual, loaded := c.entries.LoadOrStore(key, fresh)
	if !loaded {
		metrics.HandleCacheEntries.Set(float64(c.size.Add(1)))
	}
	return actual.(*Template), loaded
}

func (c *TemplateCache) Invalidate(key string) {
	if _, ok := c.entries.LoadAndDelete(key); ok {
		metrics.HandleCacheEntries.Set(float64(c.size.Add(-1)))
	}
}

func (c *TemplateCache) InvalidateAll() {
	c.entries.Range(func(k, _ any) bool {
		c.Invalidate(k.(string))
		return true
	})
}

func (c *TemplateCache) Len() int { return int(c.size.Load()) }

// =======================
// ROUTER
// =======================

type Router struct {
	db    *gorm.DB
	cache *TemplateCache
	log   *zap.Logger
}

func New(db *gorm.DB, cache *TemplateCache, log *zap.Logger) *Router {
	if cache == nil {
		cache = NewTemplateCache()
	}
	return &Router{db: db, cache: cache, log: logger.OrNop(log).Named("router")}
}

func (r *Router) Cache() *TemplateCache { return r.cache }

// GetHandle normalizes tenantKeyRaw and returns a fresh handle bound to that
// tenant's tables. The caller owns the handle and must Release it.
func (r *Router) GetHandle(ctx context.Context, tenantKeyRaw string) (*Handle, error) {
	key := normalizer.Normalize(tenantKeyRaw)
	if key == "" {
		return nil, ErrEmptyTenantKey
	}
	if !normalizer.IsProvisionable(key) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTenantKey, key)
	}
	tmpl, hit := r.cache.GetOrBuild(key)
	if !hit {
		r.log.Debug("tenant template cached", zap.String("tenant", key))
	}
	return &Handle{
		tmpl: tmpl,
		db:   r.db.Session(&gorm.Session{NewDB: true, Context: ctx}),
	}, nil
}

// WithHandle scopes a handle to fn; it is released on every exit path.
func (r *Router) WithHandle(ctx context.Context, tenantKeyRaw string, fn func(h *Handle) error) error {
	h, err := r.GetHandle(ctx, tenantKeyRaw)
	if err != nil {
		return err
	}
	defer h.Release()
	return fn(h)
}

// ClearCache drops the template for one tenant; call it after the tenant's
// tables are recreated.
func (r *Router) ClearCache(tenantKeyRaw string) {
	r.cache.Invalidate(normalizer.Normalize(tenantKeyRaw))
}

func (r *Router) ClearAllCache() {
	r.cache.InvalidateAll()
}

// =======================
// HANDLE
// =======================

// Handle is one unit of work against a tenant. Not safe for concurrent use.
type Handle struct {
	tmpl     *Template
	db       *gorm.DB
	released atomic.Bool
}

func (h *Handle) TenantKey() string { return h.tmpl.TenantKey }
func (h *Handle) Tables() schema.TableSet { return h.tmpl.Tables }
func (h *Handle) Template() *Template { return h.tmpl }
func (h *Handle) Released() bool { return h.released.Load() }
func (h *Handle) Release() { h.released.Store(true) }

func (h *Handle) table(e schema.Entity) (*gorm.DB, error) {
	if h.released.Load() {
		return nil, ErrHandleReleased
	}
	return h.db.Table(h.tmpl.Tables.Name(e)), nil
}

// Transaction runs fn with a handle bound to one database transaction.
func (h *Handle) Transaction(fn func(tx *Handle) error) error {
	if h.released.Load() {
		return ErrHandleReleased
	}
	return h.db.Transaction(func(tx *gorm.DB) error {
		return fn(&Handle{tmpl: h.tmpl, db: tx})
	})
}

func (h *Handle) Faculty() *FacultyRepository { return &FacultyRepository{h: h} }
func (h *Handle) Students() *StudentRepository { return &StudentRepository{h: h} }
func (h *Handle) Subjects() *SubjectRepository { return &SubjectRepository{h: h} }
func (h *Handle) Assignments() *AssignmentRepository { return &AssignmentRepository{h: h} }
func (h *Handle) Enrollments() *EnrollmentRepository { return &EnrollmentRepository{h: h} }

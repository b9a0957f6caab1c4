// Package bootstrap assembles the tenancy components once for both the HTTP
// server and tenantctl.
package bootstrap

import (
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	auditService "github.com/shahid-afrid/tutorlivework-sub001/internals/features/audit/service"
	"github.com/shahid-afrid/tutorlivework-sub001/internals/features/departments/repository"
	"github.com/shahid-afrid/tutorlivework-sub001/internals/features/departments/service"
	"github.com/shahid-afrid/tutorlivework-sub001/internals/features/tenancy/provisioner"
	"github.com/shahid-afrid/tutorlivework-sub001/internals/features/tenancy/router"
)

type Services struct {
	DB          *gorm.DB
	Log         *zap.Logger
	Provisioner *provisioner.Provisioner
	Router      *router.Router
	Onboarder   *service.Onboarder
	Reconciler  *service.Reconciler
}

func Build(db *gorm.DB, log *zap.Logger, ddlTimeout time.Duration) *Services {
	audit := auditService.NewRecorder(log)
	tables := provisioner.New(db, log, provisioner.WithTimeout(ddlTimeout))
	tenants := router.New(db, router.NewTemplateCache(), log)
	return &Services{
		DB:          db,
		Log:         log,
		Provisioner: tables,
		Router:      tenants,
		Onboarder:   service.NewOnboarder(repository.NewGormStore(db), tables, tenants, audit, log),
		Reconciler:  service.NewReconciler(db, audit, log, service.WithTenantTables(tables)),
	}
}

package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	departmentController "github.com/shahid-afrid/tutorlivework-sub001/internals/features/departments/controller"
	departmentRoute "github.com/shahid-afrid/tutorlivework-sub001/internals/features/departments/route"
	tenantController "github.com/shahid-afrid/tutorlivework-sub001/internals/features/tenancy/controller"
	tenantRoute "github.com/shahid-afrid/tutorlivework-sub001/internals/features/tenancy/route"
	middlewares "github.com/shahid-afrid/tutorlivework-sub001/internals/middlewares"
	"github.com/shahid-afrid/tutorlivework-sub001/internals/middlewares/auth"
)

var startTime time.Time

type Deps struct {
	DB          *gorm.DB
	JWTSecret   string
	Env         string
	Departments *departmentController.DepartmentController
	Tenants     *tenantController.TenantController
	Log         *zap.Logger
}

func SetupRoutes(app *fiber.App, d Deps) {
	startTime = time.Now()
	log := d.Log.Named("routes")

	log.Info("setting up base routes")
	BaseRoutes(app, d.DB, d.Env)

	api := app.Group("/api", middlewares.GlobalRateLimiter())

	// ===================== SUPER ADMIN (GLOBAL) =====================
	log.Info("setting up SUPER ADMIN group (Auth + super_admin)")
	superAdmin := api.Group("/sa",
		auth.AuthMiddleware(d.JWTSecret, d.Log),
		auth.RequireSuperAdmin(),
	)
	superAdmin.Use([]string{"/tenants", "/mismatches/fix"}, middlewares.ProvisionRateLimiter())
	departmentRoute.DepartmentSuperAdminRoutes(superAdmin, d.Departments)

	// ===================== ADMIN (per department) =====================
	log.Info("setting up ADMIN group (Auth + RoleCheck + DepartmentScope)")
	admin := api.Group("/a/:department",
		auth.AuthMiddleware(d.JWTSecret, d.Log),
		auth.OnlyRoles("department admin access required", auth.RoleAdmin, auth.RoleSuperAdmin),
		auth.DepartmentScope("department"),
	)
	tenantRoute.TenantAdminRoutes(admin, d.Tenants)
}

package route

import (
	"github.com/gofiber/fiber/v2"

	departmentController "github.com/shahid-afrid/tutorlivework-sub001/internals/features/departments/controller"
)

// DepartmentSuperAdminRoutes mounts tenant administration under a group that
// already runs AuthMiddleware and RequireSuperAdmin.
func DepartmentSuperAdminRoutes(router fiber.Router, ctrl *departmentController.DepartmentController) {
	dept := router.Group("/departments")
	dept.Get("/", ctrl.List)
	dept.Post("/", ctrl.Create)
	dept.Get("/:code/config", ctrl.GetConfig)
	dept.Patch("/:id", ctrl.Update)
	dept.Patch("/:id/features/:feature", ctrl.ToggleFeature)
	dept.Post("/:id/onboard", ctrl.Onboard)
	dept.Post("/:id/admins/:adminId", ctrl.GrantAdmin)

	router.Post("/tenants/:key/tables", ctrl.CreateTables)

	mm := router.Group("/mismatches")
	mm.Get("/", ctrl.ListMismatches)
	mm.Post("/fix", ctrl.FixMismatches)

	router.Get("/normalize", ctrl.Normalize)
}

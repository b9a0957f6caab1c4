package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/shahid-afrid/tutorlivework-sub001/internals/features/tenancy/normalizer"
	helper "github.com/shahid-afrid/tutorlivework-sub001/internals/helpers"
)

// DepartmentScope resolves the :department path param to a tenant key and
// requires an admin token for that same department. Super admins may enter
// any department.
func DepartmentScope(param string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := normalizer.Normalize(c.Params(param))
		if key == "" || !normalizer.IsProvisionable(key) {
			return helper.JsonError(c, fiber.StatusBadRequest, "invalid department")
		}

		role, _ := c.Locals(LocUserRole).(string)
		switch role {
		case RoleSuperAdmin:
		case RoleAdmin:
			if dept, _ := c.Locals(LocDepartment).(string); dept != key {
				return helper.JsonError(c, fiber.StatusForbidden, "token is not scoped to department "+key)
			}
		default:
			return helper.JsonError(c, fiber.StatusForbidden, "department admin access required")
		}

		c.Locals(LocTenantKey, key)
		return c.Next()
	}
}
